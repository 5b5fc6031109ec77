package conversation

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ledgerbot/ledgerbot-go/internal/chat"
	"github.com/ledgerbot/ledgerbot-go/internal/session"
)

// fakeTransport records scrub and download requests. Downloads write fake
// content so attachment uploads have something to read.
type fakeTransport struct {
	mu          sync.Mutex
	sent        []string
	deleted     []int64
	downloads   []string
	downloadErr error
}

func (f *fakeTransport) SendMessage(ctx context.Context, chatID int64, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, text)
	return nil
}

func (f *fakeTransport) DeleteMessage(ctx context.Context, chatID, messageID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, messageID)
	return nil
}

func (f *fakeTransport) DownloadFile(ctx context.Context, fileID, dest string) error {
	if f.downloadErr != nil {
		return f.downloadErr
	}
	f.mu.Lock()
	f.downloads = append(f.downloads, dest)
	f.mu.Unlock()
	return os.WriteFile(dest, []byte("fake-file-content"), 0o600)
}

func newTestEngine(t *testing.T, r chi.Router) (*Engine, *session.Store, *fakeTransport) {
	t.Helper()

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	sessions := session.NewStore(srv.URL)
	transport := &fakeTransport{}
	engine := NewEngine(sessions, transport, srv.URL)
	engine.now = func() time.Time {
		return time.Date(2025, 3, 14, 15, 30, 0, 0, time.UTC)
	}
	return engine, sessions, transport
}

func msg(userID int64, text string) chat.Event {
	return chat.Event{UserID: userID, ChatID: userID, MessageID: 100, Text: text}
}

func cmd(userID int64, name string) chat.Event {
	return chat.Event{UserID: userID, ChatID: userID, MessageID: 100, Text: "/" + name, Command: name}
}

func writeData(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"data": v})
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
