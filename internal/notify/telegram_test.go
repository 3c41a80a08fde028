package notify

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

type telegramStub struct {
	mu   sync.Mutex
	sent []url.Values
}

func (s *telegramStub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	switch {
	case strings.HasSuffix(r.URL.Path, "/getMe"):
		w.Write([]byte(`{"ok":true,"result":{"id":1,"is_bot":true,"first_name":"BillMe","username":"billme_bot"}}`))
	case strings.HasSuffix(r.URL.Path, "/sendMessage"):
		if err := r.ParseForm(); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		s.mu.Lock()
		s.sent = append(s.sent, r.PostForm)
		s.mu.Unlock()
		w.Write([]byte(`{"ok":true,"result":{"message_id":7,"date":0,"chat":{"id":42,"type":"private"},"text":"ok"}}`))
	default:
		w.Write([]byte(`{"ok":false,"error_code":404,"description":"Not Found"}`))
	}
}

func newTestBot(t *testing.T, handler http.Handler) *tgbotapi.BotAPI {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	api, err := tgbotapi.NewBotAPIWithAPIEndpoint("TOKEN", server.URL+"/bot%s/%s")
	if err != nil {
		t.Fatalf("failed to create bot: %v", err)
	}
	return api
}

func TestTelegramChatPost(t *testing.T) {
	stub := &telegramStub{}
	sink := NewTelegramChat(newTestBot(t, stub), 42)

	r := testReminder("a", "", 0)
	r.BillDescription = "Rent & <Utilities>"
	if err := sink.Post(context.Background(), r); err != nil {
		t.Fatalf("Post: %v", err)
	}

	if len(stub.sent) != 1 {
		t.Fatalf("expected one message, got %d", len(stub.sent))
	}
	form := stub.sent[0]
	if form.Get("chat_id") != "42" || form.Get("parse_mode") != "HTML" {
		t.Errorf("unexpected form %v", form)
	}
	text := form.Get("text")
	if !strings.Contains(text, "Rent &amp; &lt;Utilities&gt;") || !strings.Contains(text, "<b>today</b>") {
		t.Errorf("unexpected text %q", text)
	}
}

func TestTelegramChatError(t *testing.T) {
	api := newTestBot(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if strings.HasSuffix(r.URL.Path, "/getMe") {
			w.Write([]byte(`{"ok":true,"result":{"id":1,"is_bot":true,"first_name":"BillMe"}}`))
			return
		}
		w.Write([]byte(`{"ok":false,"error_code":400,"description":"Bad Request: chat not found"}`))
	}))

	err := NewTelegramChat(api, 42).Post(context.Background(), testReminder("a", "", 1))
	if err == nil || !strings.Contains(err.Error(), "chat not found") {
		t.Errorf("expected telegram error, got %v", err)
	}
}
