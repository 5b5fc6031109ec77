package conversation

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/ledgerbot/ledgerbot-go/internal/chat"
	"github.com/ledgerbot/ledgerbot-go/internal/model"
)

// movementBackend is a mock backend capturing movement creations.
type movementBackend struct {
	router       chi.Router
	accounts     []model.Account
	createStatus int // non-zero forces an error response

	creates     int
	lastCreate  model.MovementRequest
	lastHadFile bool
}

func newMovementBackend(t *testing.T) *movementBackend {
	t.Helper()
	b := &movementBackend{
		router: chi.NewRouter(),
		accounts: []model.Account{
			{ID: 10, Name: "Wallet", Type: "cash", Balance: decimal.NewFromInt(100)},
			{ID: 20, Name: "Bank", Type: "bank", Balance: decimal.NewFromInt(900)},
		},
	}

	b.router.Get("/accounts", func(w http.ResponseWriter, req *http.Request) {
		writeData(w, map[string]any{"accounts": b.accounts})
	})
	b.router.Post("/movements", func(w http.ResponseWriter, req *http.Request) {
		b.creates++
		if strings.HasPrefix(req.Header.Get("Content-Type"), "multipart/form-data") {
			if err := req.ParseMultipartForm(1 << 20); err != nil {
				t.Fatalf("parsing multipart: %v", err)
			}
			b.lastCreate = model.MovementRequest{
				Type:   req.FormValue("type"),
				Notes:  req.FormValue("notes"),
				Date:   req.FormValue("date"),
				Amount: decimal.RequireFromString(req.FormValue("amount")),
			}
			_, _, err := req.FormFile("attachment")
			b.lastHadFile = err == nil
		} else {
			if err := json.NewDecoder(req.Body).Decode(&b.lastCreate); err != nil {
				t.Fatalf("decoding create: %v", err)
			}
			b.lastHadFile = false
		}

		if b.createStatus != 0 {
			writeError(w, b.createStatus, "create failed")
			return
		}
		writeData(w, map[string]any{"movement": model.Movement{ID: 1}})
	})
	return b
}

func loggedInEngine(t *testing.T, b *movementBackend) (*Engine, *fakeTransport) {
	t.Helper()
	engine, sessions, transport := newTestEngine(t, b.router)
	sessions.Create(1, "tok-1", model.User{ID: 1, Username: "alice"})
	return engine, transport
}

// advanceToFile walks the flow up to the attachment step.
func advanceToFile(t *testing.T, engine *Engine) {
	t.Helper()
	ctx := context.Background()
	engine.StartMovement(1)
	engine.HandleMessage(ctx, msg(1, "2"))
	engine.HandleMessage(ctx, msg(1, "1"))
	engine.HandleMessage(ctx, msg(1, "12,50"))
	engine.HandleMessage(ctx, cmd(1, "skip"))
	if !engine.Active(1) {
		t.Fatal("expected flow to be at the file step")
	}
}

func TestParseAmount(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "50,00", want: "50"},
		{in: "50.00", want: "50"},
		{in: " 12,5 ", want: "12.5"},
		{in: "0", wantErr: true},
		{in: "-5", wantErr: true},
		{in: "abc", wantErr: true},
		{in: "", wantErr: true},
	}

	for _, tt := range tests {
		got, err := parseAmount(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Errorf("parseAmount(%q): expected error, got %s", tt.in, got)
			}
			continue
		}
		if err != nil {
			t.Errorf("parseAmount(%q): %v", tt.in, err)
			continue
		}
		if !got.Equal(decimal.RequireFromString(tt.want)) {
			t.Errorf("parseAmount(%q) = %s, want %s", tt.in, got, tt.want)
		}
	}
}

func TestMovement_RequiresSession(t *testing.T) {
	engine, _, _ := newTestEngine(t, newMovementBackend(t).router)

	reply := engine.StartMovement(1)
	if reply != NotLoggedIn {
		t.Errorf("expected not-logged-in message, got %q", reply)
	}
	if engine.Active(1) {
		t.Error("expected no flow without a session")
	}
}

func TestMovement_InvalidTypeReprompts(t *testing.T) {
	engine, _ := loggedInEngine(t, newMovementBackend(t))
	ctx := context.Background()

	engine.StartMovement(1)
	reply := engine.HandleMessage(ctx, msg(1, "3"))
	if !strings.Contains(reply, "1 (Income) or 2 (Expense)") {
		t.Errorf("expected re-prompt, got %q", reply)
	}
	if !engine.Active(1) {
		t.Error("expected flow to stay on the type step")
	}

	// Valid input still works after the re-prompt.
	reply = engine.HandleMessage(ctx, msg(1, "1"))
	if !strings.Contains(reply, "Choose the account") {
		t.Errorf("expected account prompt, got %q", reply)
	}
}

func TestMovement_NoAccountsEndsFlow(t *testing.T) {
	b := newMovementBackend(t)
	b.accounts = nil
	engine, _ := loggedInEngine(t, b)

	engine.StartMovement(1)
	reply := engine.HandleMessage(context.Background(), msg(1, "1"))
	if !strings.Contains(reply, "no accounts") {
		t.Errorf("expected no-accounts message, got %q", reply)
	}
	if engine.Active(1) {
		t.Error("expected flow to end without accounts")
	}
}

func TestMovement_OrdinalBounds(t *testing.T) {
	engine, _ := loggedInEngine(t, newMovementBackend(t))
	ctx := context.Background()

	engine.StartMovement(1)
	engine.HandleMessage(ctx, msg(1, "1"))

	for _, in := range []string{"0", "3", "abc"} {
		reply := engine.HandleMessage(ctx, msg(1, in))
		if !strings.Contains(reply, "❌") {
			t.Errorf("input %q: expected rejection, got %q", in, reply)
		}
	}

	reply := engine.HandleMessage(ctx, msg(1, "1"))
	if !strings.Contains(reply, "*Wallet*") {
		t.Errorf("expected first account selected, got %q", reply)
	}
}

func TestMovement_AmountReprompts(t *testing.T) {
	engine, _ := loggedInEngine(t, newMovementBackend(t))
	ctx := context.Background()

	engine.StartMovement(1)
	engine.HandleMessage(ctx, msg(1, "1"))
	engine.HandleMessage(ctx, msg(1, "1"))

	for _, in := range []string{"0", "-5", "abc"} {
		reply := engine.HandleMessage(ctx, msg(1, in))
		if !strings.Contains(reply, "Invalid amount") {
			t.Errorf("input %q: expected re-prompt, got %q", in, reply)
		}
	}

	reply := engine.HandleMessage(ctx, msg(1, "50,00"))
	if !strings.Contains(reply, "notes") {
		t.Errorf("expected notes prompt after valid amount, got %q", reply)
	}
}

func TestMovement_CompleteWithoutFile(t *testing.T) {
	b := newMovementBackend(t)
	engine, _ := loggedInEngine(t, b)
	ctx := context.Background()

	engine.StartMovement(1)
	engine.HandleMessage(ctx, msg(1, "1"))
	engine.HandleMessage(ctx, msg(1, "2"))
	engine.HandleMessage(ctx, msg(1, "25,50"))
	engine.HandleMessage(ctx, msg(1, "groceries for the week"))
	reply := engine.HandleMessage(ctx, cmd(1, "skip"))

	if !strings.Contains(reply, "registered") {
		t.Fatalf("expected confirmation, got %q", reply)
	}
	if engine.Active(1) {
		t.Error("expected flow to be over")
	}

	if b.lastCreate.Type != model.MovementIncome {
		t.Errorf("expected income, got %q", b.lastCreate.Type)
	}
	if b.lastCreate.AccountID != 20 {
		t.Errorf("expected account 20, got %d", b.lastCreate.AccountID)
	}
	if !b.lastCreate.Amount.Equal(decimal.RequireFromString("25.5")) {
		t.Errorf("expected amount 25.5, got %s", b.lastCreate.Amount)
	}
	if b.lastCreate.Notes != "groceries for the week" {
		t.Errorf("unexpected notes: %q", b.lastCreate.Notes)
	}
	if b.lastCreate.Date != "2025-03-14" {
		t.Errorf("expected today at day granularity, got %q", b.lastCreate.Date)
	}
	if b.lastHadFile {
		t.Error("expected no attachment")
	}
}

func TestMovement_NotesTruncated(t *testing.T) {
	tests := []struct {
		name      string
		notes     string
		wantRunes int
	}{
		{name: "ascii over limit", notes: strings.Repeat("x", 1500), wantRunes: maxNotesLength},
		// The limit is characters, not bytes: 1500 euro signs are 4500 bytes.
		{name: "multi-byte over limit", notes: strings.Repeat("€", 1500), wantRunes: maxNotesLength},
		{name: "multi-byte under limit", notes: strings.Repeat("€", 400), wantRunes: 400},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := newMovementBackend(t)
			engine, _ := loggedInEngine(t, b)
			ctx := context.Background()

			engine.StartMovement(1)
			engine.HandleMessage(ctx, msg(1, "2"))
			engine.HandleMessage(ctx, msg(1, "1"))
			engine.HandleMessage(ctx, msg(1, "5"))
			engine.HandleMessage(ctx, msg(1, tt.notes))
			engine.HandleMessage(ctx, cmd(1, "skip"))

			got := b.lastCreate.Notes
			if n := utf8.RuneCountInString(got); n != tt.wantRunes {
				t.Errorf("expected %d runes, got %d", tt.wantRunes, n)
			}
			if !utf8.ValidString(got) {
				t.Error("expected truncated notes to stay valid UTF-8")
			}
		})
	}
}

func attachmentEvent(userID int64) chat.Event {
	ev := msg(userID, "")
	ev.Attachment = &chat.Attachment{FileID: "file-abc", Name: "receipt.pdf"}
	return ev
}

func TestMovement_AttachmentUploadedAndCleanedUp(t *testing.T) {
	b := newMovementBackend(t)
	engine, transport := loggedInEngine(t, b)

	advanceToFile(t, engine)
	reply := engine.HandleMessage(context.Background(), attachmentEvent(1))

	if !strings.Contains(reply, "registered") {
		t.Fatalf("expected confirmation, got %q", reply)
	}
	if !b.lastHadFile {
		t.Error("expected the attachment in the create request")
	}

	if len(transport.downloads) != 1 {
		t.Fatalf("expected one download, got %d", len(transport.downloads))
	}
	if _, err := os.Stat(transport.downloads[0]); !os.IsNotExist(err) {
		t.Errorf("expected temp file %s to be removed", transport.downloads[0])
	}
}

func TestMovement_TempFileRemovedOnCreateFailure(t *testing.T) {
	b := newMovementBackend(t)
	b.createStatus = http.StatusUnprocessableEntity
	engine, transport := loggedInEngine(t, b)

	advanceToFile(t, engine)
	reply := engine.HandleMessage(context.Background(), attachmentEvent(1))

	if !strings.Contains(reply, "create failed") {
		t.Fatalf("expected backend error surfaced, got %q", reply)
	}
	if engine.Active(1) {
		t.Error("expected flow to be over after failure")
	}

	if len(transport.downloads) != 1 {
		t.Fatalf("expected one download, got %d", len(transport.downloads))
	}
	if _, err := os.Stat(transport.downloads[0]); !os.IsNotExist(err) {
		t.Errorf("expected temp file %s to be removed after failure", transport.downloads[0])
	}
}

func TestMovement_AuthExpiredDeletesSession(t *testing.T) {
	r := chi.NewRouter()
	r.Get("/accounts", func(w http.ResponseWriter, req *http.Request) {
		writeError(w, http.StatusUnauthorized, "expired")
	})
	engine, sessions, _ := newTestEngine(t, r)
	sessions.Create(1, "stale", model.User{ID: 1, Username: "alice"})

	engine.StartMovement(1)
	reply := engine.HandleMessage(context.Background(), msg(1, "1"))

	if !strings.Contains(reply, "expired") {
		t.Errorf("expected expiry message, got %q", reply)
	}
	if sessions.IsLoggedIn(1) {
		t.Error("expected session to be deleted after a 401")
	}
	if engine.Active(1) {
		t.Error("expected flow to be over")
	}
}
