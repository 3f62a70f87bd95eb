package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"home-voice-control/clients/controller"
	"home-voice-control/intent"
	"home-voice-control/lexicon"
	"home-voice-control/listener"
	"home-voice-control/understanding"
)

type recordingDispatcher struct {
	err  error
	sent [][]intent.Command
}

func (d *recordingDispatcher) Dispatch(_ context.Context, _ intent.Utterance, commands []intent.Command) error {
	d.sent = append(d.sent, commands)
	return d.err
}

type fakeControl struct {
	mu     sync.Mutex
	action listener.ListenAction
}

func (f *fakeControl) set(a listener.ListenAction) {
	f.mu.Lock()
	f.action = a
	f.mu.Unlock()
}
func (f *fakeControl) HaltListening()    { f.set(listener.ListenActionWait) }
func (f *fakeControl) ListenForWake()    { f.set(listener.ListenActionWake) }
func (f *fakeControl) ListenForCommand() { f.set(listener.ListenActionCommand) }
func (f *fakeControl) Action() listener.ListenAction {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.action
}

func newServer(t *testing.T, d controller.Dispatcher, c listener.ControlInterface) *Server {
	p, err := understanding.New(&understanding.Config{Lexicon: lexicon.Default()})
	require.NoError(t, err)

	s, err := New(&Config{Pipeline: p, Dispatcher: d, Control: c})
	require.NoError(t, err)
	return s
}

func do(s *Server, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

type parseResponse struct {
	Status string             `json:"status"`
	Error  string             `json:"error"`
	Data   controller.Payload `json:"data"`
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) parseResponse {
	var out parseResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestServer_Parse(t *testing.T) {
	d := &recordingDispatcher{}
	s := newServer(t, d, nil)

	rec := do(s, http.MethodPost, "/v1/parse", `{"text":"включи свет в спальне, затем закрой шторы"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	out := decode(t, rec)
	require.Len(t, out.Data.Commands, 2)
	assert.Equal(t, "спальня", intent.Deref(out.Data.Commands[1].Room))
	assert.Equal(t, "шторы", intent.Deref(out.Data.Commands[1].Object))
	assert.NotEmpty(t, out.Data.UtteranceID)
	assert.Empty(t, d.sent, "parse never dispatches")
}

func TestServer_Parse_Invalid(t *testing.T) {
	s := newServer(t, &recordingDispatcher{}, nil)

	for _, body := range []string{``, `{"text":""}`, `{"text":1}`, `{"txt":"свет"}`} {
		rec := do(s, http.MethodPost, "/v1/parse", body)
		assert.Equal(t, http.StatusBadRequest, rec.Code, body)
		assert.NotEmpty(t, decode(t, rec).Error, body)
	}
}

func TestServer_Commands(t *testing.T) {
	d := &recordingDispatcher{}
	s := newServer(t, d, nil)

	rec := do(s, http.MethodPost, "/v1/commands", `{"text":"поставь температуру 22"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, d.sent, 1)
	assert.Equal(t, "22 градусов", intent.Deref(d.sent[0][0].Intent.Value))

	d.err = errors.New("controller down")
	rec = do(s, http.MethodPost, "/v1/commands", `{"text":"поставь температуру 22"}`)
	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestServer_Listener(t *testing.T) {
	s := newServer(t, &recordingDispatcher{}, nil)
	assert.Equal(t, http.StatusServiceUnavailable, do(s, http.MethodPost, "/v1/listener/wake", "").Code)

	c := &fakeControl{action: listener.ListenActionWake}
	s = newServer(t, &recordingDispatcher{}, c)

	assert.Equal(t, http.StatusOK, do(s, http.MethodPost, "/v1/listener/wait", "").Code)
	assert.Equal(t, listener.ListenActionWait, c.Action())
	assert.Equal(t, http.StatusOK, do(s, http.MethodPost, "/v1/listener/command", "").Code)
	assert.Equal(t, listener.ListenActionCommand, c.Action())
	assert.Equal(t, http.StatusNotFound, do(s, http.MethodPost, "/v1/listener/dance", "").Code)
}

func TestServer_Healthz(t *testing.T) {
	s := newServer(t, &recordingDispatcher{}, nil)
	rec := do(s, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "application/json")
}

func TestNew(t *testing.T) {
	_, err := New(nil)
	assert.Error(t, err)
	_, err = New(&Config{})
	assert.Error(t, err)
}
