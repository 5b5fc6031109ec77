// Package conversation drives the multi-step flows of the bot: login (with
// optional 2FA) and movement creation, plus single-use delete confirmations.
// Each flow is a typed state struct; steps return their reply as a value and
// terminal transitions always discard the flow state.
package conversation

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/ledgerbot/ledgerbot-go/internal/api"
	"github.com/ledgerbot/ledgerbot-go/internal/chat"
	"github.com/ledgerbot/ledgerbot-go/internal/session"
)

// NotLoggedIn is the reply for any action that needs a session.
const NotLoggedIn = "⚠️ You are not logged in. Use /login to start."

type flowState interface {
	isFlow()
}

// Engine holds the active flow and pending deletion, at most one each per
// identity. The dispatcher serializes events per identity; the internal
// mutex only guards the maps across distinct identities.
type Engine struct {
	sessions  *session.Store
	transport chat.Transport
	apiBase   string

	mu      sync.Mutex
	flows   map[int64]flowState
	pending map[int64]int64

	now func() time.Time
}

func NewEngine(sessions *session.Store, transport chat.Transport, apiBase string) *Engine {
	return &Engine{
		sessions:  sessions,
		transport: transport,
		apiBase:   apiBase,
		flows:     make(map[int64]flowState),
		pending:   make(map[int64]int64),
		now:       time.Now,
	}
}

// Active reports whether identity has a flow in progress.
func (e *Engine) Active(identity int64) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	_, ok := e.flows[identity]
	return ok
}

func (e *Engine) flow(identity int64) flowState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.flows[identity]
}

func (e *Engine) setFlow(identity int64, f flowState) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.flows[identity] = f
}

func (e *Engine) clearFlow(identity int64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.flows, identity)
}

// HandleMessage feeds one event into identity's active flow and returns the
// reply. An empty reply means no flow was active.
func (e *Engine) HandleMessage(ctx context.Context, ev chat.Event) string {
	switch f := e.flow(ev.UserID).(type) {
	case *loginFlow:
		return e.handleLogin(ctx, ev, f)
	case *movementFlow:
		return e.handleMovement(ctx, ev, f)
	}
	return ""
}

// Cancel aborts the active flow, discarding collected input.
func (e *Engine) Cancel(identity int64) string {
	e.mu.Lock()
	_, active := e.flows[identity]
	delete(e.flows, identity)
	e.mu.Unlock()

	if !active {
		return "There is no operation in progress."
	}
	return "❌ Operation cancelled."
}

// ErrorReply turns an API error into user-facing text. Observing a 401
// deletes the session as a side effect, per the backend contract.
func ErrorReply(sessions *session.Store, identity int64, err error) string {
	var connErr *api.ConnectionError
	switch {
	case errors.Is(err, api.ErrAuthExpired):
		sessions.Delete(identity)
		return "⚠️ Your session has expired. Please /login again."
	case errors.As(err, &connErr):
		return "❌ Could not reach the server. Please try again later."
	default:
		return "❌ Error: " + err.Error()
	}
}
