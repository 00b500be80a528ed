package notifier

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestStartPolling_RepliesToConfiguredChatOnly(t *testing.T) {
	var (
		mu      sync.Mutex
		replies []string
		served  bool
	)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasSuffix(r.URL.Path, "/getUpdates"):
			mu.Lock()
			first := !served
			served = true
			mu.Unlock()
			if !first {
				<-r.Context().Done()
				return
			}
			_, _ = w.Write([]byte(`{"ok":true,"result":[
				{"update_id":7,"message":{"text":"/status","chat":{"id":42}}},
				{"update_id":8,"message":{"text":"/status","chat":{"id":99}}}
			]}`))
		case strings.HasSuffix(r.URL.Path, "/sendMessage"):
			var payload sendMessageRequest
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
			assert.Equal(t, "42", payload.ChatID)
			mu.Lock()
			replies = append(replies, payload.Text)
			mu.Unlock()
			cancel()
		}
	}))
	defer srv.Close()

	tn := NewTelegramNotifier("token", "42", "")
	tn.APIBase = srv.URL

	var handled []string
	done := make(chan struct{})
	go func() {
		tn.StartPolling(ctx, func(cmd string) string {
			handled = append(handled, cmd)
			return "ok: " + cmd
		})
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(10 * time.Second):
		t.Fatal("polling did not stop")
	}
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"/status"}, handled)
	assert.Equal(t, []string{"ok: /status"}, replies)
}

func TestStartPolling_NoToken(t *testing.T) {
	tn := NewTelegramNotifier("", "42", "")
	done := make(chan struct{})
	go func() {
		tn.StartPolling(context.Background(), func(string) string { return "" })
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("expected immediate return")
	}
}
