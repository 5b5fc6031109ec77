// Package bot routes inbound chat events to the conversation engine or to
// the stateless command handlers. It owns the per-identity serialization,
// the login guard, flood limiting, and the outermost panic boundary.
package bot

import (
	"context"
	"log/slog"
	"regexp"
	"sync"

	"github.com/ledgerbot/ledgerbot-go/internal/chat"
	"github.com/ledgerbot/ledgerbot-go/internal/conversation"
	"github.com/ledgerbot/ledgerbot-go/internal/session"
)

var confirmPattern = regexp.MustCompile(`(?i)^\s*(yes|si|no)\s*$`)

// commands that require a session before their handler runs.
var requiresLogin = map[string]bool{
	"logout":    true,
	"balance":   true,
	"accounts":  true,
	"account":   true,
	"movements": true,
	"new":       true,
	"delete":    true,
	"edit":      true,
	"stats":     true,
}

type Dispatcher struct {
	sessions  *session.Store
	engine    *conversation.Engine
	transport chat.Transport
	limiter   *userLimiter

	mu    sync.Mutex
	locks map[int64]*sync.Mutex
}

func NewDispatcher(sessions *session.Store, engine *conversation.Engine, transport chat.Transport) *Dispatcher {
	return &Dispatcher{
		sessions:  sessions,
		engine:    engine,
		transport: transport,
		limiter:   newUserLimiter(2, 10),
		locks:     make(map[int64]*sync.Mutex),
	}
}

// userLock returns the mutex serializing all event handling for identity.
func (d *Dispatcher) userLock(identity int64) *sync.Mutex {
	d.mu.Lock()
	defer d.mu.Unlock()

	l, ok := d.locks[identity]
	if !ok {
		l = &sync.Mutex{}
		d.locks[identity] = l
	}
	return l
}

// Dispatch handles one event end to end and sends the reply. Safe to call
// concurrently; events for the same identity are handled one at a time.
func (d *Dispatcher) Dispatch(ctx context.Context, ev chat.Event) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("handler panic", "identity", ev.UserID, "panic", r)
			d.send(ctx, ev.ChatID, apologyMessage)
		}
	}()

	if !d.limiter.allow(ev.UserID) {
		slog.Warn("event dropped by rate limiter", "identity", ev.UserID)
		return
	}

	lock := d.userLock(ev.UserID)
	lock.Lock()
	defer lock.Unlock()

	if reply := d.handle(ctx, ev); reply != "" {
		d.send(ctx, ev.ChatID, reply)
	}
}

func (d *Dispatcher) handle(ctx context.Context, ev chat.Event) string {
	if ev.Command != "" {
		return d.handleCommand(ctx, ev)
	}

	if d.engine.Active(ev.UserID) {
		return d.engine.HandleMessage(ctx, ev)
	}

	if confirmPattern.MatchString(ev.Text) {
		reply, _ := d.engine.Confirm(ctx, ev.UserID, ev.Text)
		return reply
	}

	return ""
}

func (d *Dispatcher) handleCommand(ctx context.Context, ev chat.Event) string {
	if ev.Command == "cancel" {
		return d.engine.Cancel(ev.UserID)
	}

	// Mid-flow, only skip is forwarded into the flow; other commands would
	// interleave two conversations for the same user.
	if d.engine.Active(ev.UserID) {
		if ev.Command == "skip" {
			return d.engine.HandleMessage(ctx, ev)
		}
		return flowInProgressMsg
	}

	if requiresLogin[ev.Command] && !d.sessions.IsLoggedIn(ev.UserID) {
		return conversation.NotLoggedIn
	}

	switch ev.Command {
	case "start":
		return welcomeMessage
	case "help":
		return helpMessage
	case "login":
		return d.engine.StartLogin(ev.UserID)
	case "logout":
		return d.logout(ctx, ev)
	case "balance":
		return d.balance(ctx, ev)
	case "accounts":
		return d.accounts(ctx, ev)
	case "account":
		return d.accountDetail(ctx, ev)
	case "movements":
		return d.movements(ctx, ev)
	case "new":
		return d.engine.StartMovement(ev.UserID)
	case "delete":
		return d.deleteMovement(ctx, ev)
	case "edit":
		return d.editMovement(ctx, ev)
	case "stats":
		return d.stats(ctx, ev)
	}

	return "Unknown command. Use /help to see what I understand."
}

func (d *Dispatcher) send(ctx context.Context, chatID int64, text string) {
	if err := d.transport.SendMessage(ctx, chatID, text); err != nil {
		slog.Error("could not send reply", "chat_id", chatID, "error", err)
	}
}
