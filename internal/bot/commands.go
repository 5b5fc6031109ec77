package bot

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/ledgerbot/ledgerbot-go/internal/chat"
	"github.com/ledgerbot/ledgerbot-go/internal/conversation"
	"github.com/ledgerbot/ledgerbot-go/internal/format"
)

const (
	defaultMovementsLimit = 10
	maxMovementsLimit     = 50
)

// parseLimit clamps the /movements argument to [default, max]; anything
// missing or non-numeric falls back to the default.
func parseLimit(args []string) int {
	if len(args) == 0 {
		return defaultMovementsLimit
	}
	n, err := strconv.Atoi(args[0])
	if err != nil {
		return defaultMovementsLimit
	}
	if n < defaultMovementsLimit {
		return defaultMovementsLimit
	}
	if n > maxMovementsLimit {
		return maxMovementsLimit
	}
	return n
}

func (d *Dispatcher) logout(ctx context.Context, ev chat.Event) string {
	// Best-effort server-side logout; local removal happens regardless.
	if client, err := d.sessions.Client(ev.UserID); err == nil {
		if err := client.Logout(ctx); err != nil {
			slog.Debug("backend logout failed", "identity", ev.UserID, "error", err)
		}
	}
	d.sessions.Delete(ev.UserID)
	return logoutMessage
}

func (d *Dispatcher) balance(ctx context.Context, ev chat.Event) string {
	client, err := d.sessions.Client(ev.UserID)
	if err != nil {
		return conversation.NotLoggedIn
	}

	summary, err := client.AccountsSummary(ctx)
	if err != nil {
		return conversation.ErrorReply(d.sessions, ev.UserID, err)
	}
	return format.Summary(summary)
}

func (d *Dispatcher) accounts(ctx context.Context, ev chat.Event) string {
	client, err := d.sessions.Client(ev.UserID)
	if err != nil {
		return conversation.NotLoggedIn
	}

	accounts, err := client.ListAccounts(ctx)
	if err != nil {
		return conversation.ErrorReply(d.sessions, ev.UserID, err)
	}
	if len(accounts) == 0 {
		return "You have no accounts yet.\nCreate one from the web app."
	}

	return format.AccountsList(accounts) +
		"\nFor the detail of an account, use:\n/account [number]"
}

func (d *Dispatcher) accountDetail(ctx context.Context, ev chat.Event) string {
	usage := "Usage: /account [number]\nExample: /account 1\n\nUse /accounts to see the list."
	if len(ev.Args) == 0 {
		return usage
	}
	n, err := strconv.Atoi(ev.Args[0])
	if err != nil {
		return usage
	}

	client, err := d.sessions.Client(ev.UserID)
	if err != nil {
		return conversation.NotLoggedIn
	}

	// Ordinals refer to the list as currently ordered; re-fetch to resolve.
	accounts, err := client.ListAccounts(ctx)
	if err != nil {
		return conversation.ErrorReply(d.sessions, ev.UserID, err)
	}
	if n < 1 || n > len(accounts) {
		return fmt.Sprintf("❌ Account not found. You have %d account(s).", len(accounts))
	}

	account, err := client.GetAccount(ctx, accounts[n-1].ID)
	if err != nil {
		return conversation.ErrorReply(d.sessions, ev.UserID, err)
	}
	return format.Account(account)
}

func (d *Dispatcher) movements(ctx context.Context, ev chat.Event) string {
	client, err := d.sessions.Client(ev.UserID)
	if err != nil {
		return conversation.NotLoggedIn
	}

	movements, err := client.ListMovements(ctx, parseLimit(ev.Args), nil)
	if err != nil {
		return conversation.ErrorReply(d.sessions, ev.UserID, err)
	}
	if len(movements) == 0 {
		return "You have no movements yet.\nUse /new to create one."
	}

	return format.MovementsList(movements) +
		"\nTo edit or delete a movement:\n/edit [ID] - Edit\n/delete [ID] - Delete"
}

func (d *Dispatcher) deleteMovement(ctx context.Context, ev chat.Event) string {
	usage := "Usage: /delete [ID]\nExample: /delete 123\n\nUse /movements to see the IDs."
	if len(ev.Args) == 0 {
		return usage
	}
	movementID, err := strconv.ParseInt(ev.Args[0], 10, 64)
	if err != nil || movementID < 1 {
		return usage
	}

	client, err := d.sessions.Client(ev.UserID)
	if err != nil {
		return conversation.NotLoggedIn
	}

	// Confirms existence and ownership before asking; the delete itself
	// waits for the yes/no answer.
	movement, err := client.GetMovement(ctx, movementID)
	if err != nil {
		return conversation.ErrorReply(d.sessions, ev.UserID, err)
	}

	d.engine.SetPendingDeletion(ev.UserID, movementID)

	return fmt.Sprintf("⚠️ Delete this movement?\n\n%s\nReply YES to confirm or NO to cancel.",
		format.Movement(movement))
}

func (d *Dispatcher) editMovement(ctx context.Context, ev chat.Event) string {
	usage := "Usage: /edit [ID]\nExample: /edit 123\n\nUse /movements to see the IDs."
	if len(ev.Args) == 0 {
		return usage
	}
	movementID, err := strconv.ParseInt(ev.Args[0], 10, 64)
	if err != nil || movementID < 1 {
		return usage
	}

	client, err := d.sessions.Client(ev.UserID)
	if err != nil {
		return conversation.NotLoggedIn
	}

	movement, err := client.GetMovement(ctx, movementID)
	if err != nil {
		return conversation.ErrorReply(d.sessions, ev.UserID, err)
	}

	return format.Movement(movement) +
		"\n✏️ Editing from the chat is not available yet.\nUse the web app to edit this movement."
}

func (d *Dispatcher) stats(ctx context.Context, ev chat.Event) string {
	client, err := d.sessions.Client(ev.UserID)
	if err != nil {
		return conversation.NotLoggedIn
	}

	stats, err := client.MovementStats(ctx, nil)
	if err != nil {
		return conversation.ErrorReply(d.sessions, ev.UserID, err)
	}

	// Tag list failing should not hide the stats.
	tags, err := client.ListTags(ctx)
	if err != nil {
		slog.Debug("could not list tags", "identity", ev.UserID, "error", err)
	}
	return format.Stats(stats, tags)
}
