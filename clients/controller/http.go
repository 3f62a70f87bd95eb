// Package controller delivers parsed commands to the home automation controller
package controller

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/pkg/errors"

	"home-voice-control/intent"
	"home-voice-control/logger"
)

type clientImpl struct {
	apiHost    string
	httpClient *http.Client
	log        *logger.Logger
}

type Config struct {
	ApiHost string
	Timeout time.Duration
	// HTTPClient is used as is when set, Timeout is ignored then
	HTTPClient *http.Client
}

// Payload is the JSON body posted to <ApiHost>/commands
type Payload struct {
	UtteranceID string           `json:"utterance_id"`
	Text        string           `json:"text"`
	CapturedAt  time.Time        `json:"captured_at"`
	Commands    []PayloadCommand `json:"commands"`
}

type PayloadCommand struct {
	Order      int     `json:"order"`
	Room       *string `json:"room"`
	Action     *string `json:"action"`
	Object     *string `json:"object"`
	Value      *string `json:"value"`
	SourceText string  `json:"source_text"`
}

func NewPayload(u intent.Utterance, commands []intent.Command) Payload {
	p := Payload{
		UtteranceID: u.ID,
		Text:        u.Text,
		CapturedAt:  u.CapturedAt,
		Commands:    make([]PayloadCommand, len(commands)),
	}
	for i, c := range commands {
		p.Commands[i] = PayloadCommand{
			Order:      c.Order,
			Room:       c.Room,
			Action:     c.Intent.Action,
			Object:     c.Intent.Object,
			Value:      c.Intent.Value,
			SourceText: c.Intent.SourceText,
		}
	}
	return p
}

func NewClient(cfg *Config) (Dispatcher, error) {
	if cfg == nil {
		return nil, errors.New("missing parameter: cfg")
	}

	if cfg.ApiHost == "" {
		return nil, errors.New("missing parameter: cfg.ApiHost")
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 5 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	return &clientImpl{
		apiHost:    strings.TrimRight(cfg.ApiHost, "/"),
		httpClient: httpClient,
		log:        logger.Named("controller"),
	}, nil
}

func (client *clientImpl) Dispatch(ctx context.Context, u intent.Utterance, commands []intent.Command) error {
	if len(commands) == 0 {
		return nil
	}

	body, err := json.Marshal(NewPayload(u, commands))
	if err != nil {
		return errors.Wrap(err, "controller: marshaling payload failed")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, client.apiHost+"/commands", bytes.NewReader(body))
	if err != nil {
		return errors.Wrap(err, "controller: creating request failed")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.httpClient.Do(req)
	if err != nil {
		return errors.Wrap(err, "controller: sending commands failed")
	}

	defer resp.Body.Close()

	// get the response body
	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if err != nil {
		return errors.Wrap(err, "controller: reading response failed")
	}

	if resp.StatusCode/100 != 2 {
		return errors.Errorf("controller: unexpected status %d: %s", resp.StatusCode, strings.TrimSpace(string(respBody)))
	}

	client.log.Info().
		Str("utterance", u.ID).
		Int("commands", len(commands)).
		Str("response", string(respBody)).
		Msg("commands delivered")
	return nil
}
