package conversation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/ledgerbot/ledgerbot-go/internal/api"
	"github.com/ledgerbot/ledgerbot-go/internal/chat"
	"github.com/ledgerbot/ledgerbot-go/internal/model"
)

type loginStep int

const (
	awaitingUsername loginStep = iota
	awaitingPassword
	awaitingTwoFactor
)

type loginFlow struct {
	step          loginStep
	username      string
	pendingUserID int64
}

func (*loginFlow) isFlow() {}

// StartLogin begins the login flow. Rejected without a state change when a
// session already exists.
func (e *Engine) StartLogin(identity int64) string {
	if e.sessions.IsLoggedIn(identity) {
		user, _ := e.sessions.Profile(identity)
		return fmt.Sprintf("You are already logged in as *%s*.\nUse /logout to sign out first.", user.Username)
	}

	e.setFlow(identity, &loginFlow{step: awaitingUsername})
	return "🔐 *Login*\n\nEnter your username:"
}

func (e *Engine) handleLogin(ctx context.Context, ev chat.Event, f *loginFlow) string {
	switch f.step {
	case awaitingUsername:
		f.username = strings.TrimSpace(ev.Text)
		f.step = awaitingPassword
		e.setFlow(ev.UserID, f)
		return "Now enter your password:"

	case awaitingPassword:
		password := strings.TrimSpace(ev.Text)

		// Scrub the message carrying the password from the chat history.
		// Best-effort: failure never affects the login outcome.
		if err := e.transport.DeleteMessage(ctx, ev.ChatID, ev.MessageID); err != nil {
			slog.Debug("could not scrub password message", "error", err)
		}

		res, err := api.New(e.apiBase).Login(ctx, f.username, password)
		if err != nil {
			e.clearFlow(ev.UserID)
			return loginFailure(err)
		}

		if res.Requires2FA {
			f.pendingUserID = res.PendingUserID
			f.step = awaitingTwoFactor
			e.setFlow(ev.UserID, f)
			return "🔐 A verification code was sent to your email.\nEnter the code (6 digits):"
		}

		e.clearFlow(ev.UserID)
		return e.finishLogin(ev.UserID, res)

	case awaitingTwoFactor:
		e.clearFlow(ev.UserID)

		if f.pendingUserID == 0 {
			return "❌ Login state was lost. Use /login to start over."
		}

		code := strings.TrimSpace(ev.Text)
		res, err := api.New(e.apiBase).VerifyTwoFactor(ctx, f.pendingUserID, code)
		if err != nil {
			return loginFailure(err)
		}
		return e.finishLogin(ev.UserID, res)
	}

	return ""
}

func (e *Engine) finishLogin(identity int64, res model.LoginResult) string {
	e.sessions.Create(identity, res.Token, res.User)
	slog.Info("session created", "identity", identity, "username", res.User.Username)
	return fmt.Sprintf("✅ Welcome, *%s*!\n\nUse /help to see the available commands.", res.User.Username)
}

// loginFailure maps errors from the auth endpoints. A 401 here means the
// credentials or code were rejected, not that a session expired.
func loginFailure(err error) string {
	var connErr *api.ConnectionError
	switch {
	case errors.Is(err, api.ErrAuthExpired):
		return "❌ Invalid credentials or code.\n\nUse /login to try again."
	case errors.As(err, &connErr):
		return "❌ Could not reach the server. Please try again later."
	default:
		return "❌ Login failed: " + err.Error() + "\n\nUse /login to try again."
	}
}
