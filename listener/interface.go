package listener

import "context"

type Interface interface {
	// ListenLoop runs sessions until ctx is done or a stop word is heard
	ListenLoop(ctx context.Context) error
	ControlInterface
}

// ControlInterface is safe to call from any goroutine while ListenLoop runs
type ControlInterface interface {
	HaltListening()
	ListenForWake()
	ListenForCommand()
	Action() ListenAction
}
