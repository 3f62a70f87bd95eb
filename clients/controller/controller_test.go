package controller

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"home-voice-control/intent"
)

func sample() (intent.Utterance, []intent.Command) {
	u := intent.Utterance{ID: "u-1", Text: "включи свет в кухне", CapturedAt: time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)}
	return u, []intent.Command{{
		Order: 0,
		Room:  intent.Str("кухня"),
		Intent: intent.TaskIntent{
			Action:     intent.Str("включи"),
			Object:     intent.Str("свет"),
			SourceText: "включи свет в кухне",
		},
	}}
}

func TestNewClient(t *testing.T) {
	_, err := NewClient(nil)
	assert.Error(t, err)

	_, err = NewClient(&Config{})
	assert.Error(t, err)
}

func TestClient_Dispatch(t *testing.T) {
	var got Payload
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/commands", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	c, err := NewClient(&Config{ApiHost: srv.URL + "/"})
	require.NoError(t, err)

	u, cmds := sample()
	require.NoError(t, c.Dispatch(context.Background(), u, cmds))

	assert.Equal(t, "u-1", got.UtteranceID)
	require.Len(t, got.Commands, 1)
	assert.Equal(t, "кухня", intent.Deref(got.Commands[0].Room))
	assert.Equal(t, "свет", intent.Deref(got.Commands[0].Object))
	assert.Nil(t, got.Commands[0].Value)
}

func TestClient_Dispatch_Status(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "device offline", http.StatusBadGateway)
	}))
	defer srv.Close()

	c, err := NewClient(&Config{ApiHost: srv.URL})
	require.NoError(t, err)

	u, cmds := sample()
	err = c.Dispatch(context.Background(), u, cmds)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
	assert.Contains(t, err.Error(), "device offline")
}

func TestClient_Dispatch_NothingToSend(t *testing.T) {
	c, err := NewClient(&Config{ApiHost: "http://127.0.0.1:1"})
	require.NoError(t, err)

	u, _ := sample()
	assert.NoError(t, c.Dispatch(context.Background(), u, nil))
}

func TestLog_Dispatch(t *testing.T) {
	u, cmds := sample()
	assert.NoError(t, NewLog().Dispatch(context.Background(), u, cmds))
}
