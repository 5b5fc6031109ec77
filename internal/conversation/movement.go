package conversation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/ledgerbot/ledgerbot-go/internal/chat"
	"github.com/ledgerbot/ledgerbot-go/internal/format"
	"github.com/ledgerbot/ledgerbot-go/internal/model"
)

const maxNotesLength = 1000

type movementStep int

const (
	awaitingType movementStep = iota
	awaitingAccount
	awaitingAmount
	awaitingNotes
	awaitingFile
)

type movementFlow struct {
	step        movementStep
	movType     string
	accounts    []model.Account
	accountID   int64
	accountName string
	amount      decimal.Decimal
	notes       string
}

func (*movementFlow) isFlow() {}

var errInvalidAmount = errors.New("amount must be a positive number")

// parseAmount normalizes decimal text (comma or dot separator) to a strictly
// positive decimal.
func parseAmount(s string) (decimal.Decimal, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", ".")
	d, err := decimal.NewFromString(s)
	if err != nil || !d.IsPositive() {
		return decimal.Decimal{}, errInvalidAmount
	}
	return d, nil
}

// StartMovement begins the new-movement flow. Requires a session.
func (e *Engine) StartMovement(identity int64) string {
	if !e.sessions.IsLoggedIn(identity) {
		return NotLoggedIn
	}

	e.setFlow(identity, &movementFlow{step: awaitingType})
	return "💰 *New Movement*\n\n" +
		"What kind of movement is it?\n\n" +
		"1️⃣ Income 📈\n" +
		"2️⃣ Expense 📉\n\n" +
		"Reply with 1 or 2, or /cancel to abort."
}

func (e *Engine) handleMovement(ctx context.Context, ev chat.Event, f *movementFlow) string {
	switch f.step {
	case awaitingType:
		return e.movementType(ctx, ev, f)
	case awaitingAccount:
		return e.movementAccount(ev, f)
	case awaitingAmount:
		return e.movementAmount(ev, f)
	case awaitingNotes:
		return e.movementNotes(ev, f)
	case awaitingFile:
		return e.movementFile(ctx, ev, f)
	}
	return ""
}

func (e *Engine) movementType(ctx context.Context, ev chat.Event, f *movementFlow) string {
	var typeText string
	switch strings.TrimSpace(ev.Text) {
	case "1":
		f.movType = model.MovementIncome
		typeText = "Income 📈"
	case "2":
		f.movType = model.MovementExpense
		typeText = "Expense 📉"
	default:
		return "❌ Invalid option. Reply with 1 (Income) or 2 (Expense)."
	}

	client, err := e.sessions.Client(ev.UserID)
	if err != nil {
		e.clearFlow(ev.UserID)
		return NotLoggedIn
	}

	accounts, err := client.ListAccounts(ctx)
	if err != nil {
		e.clearFlow(ev.UserID)
		return ErrorReply(e.sessions, ev.UserID, err)
	}
	if len(accounts) == 0 {
		e.clearFlow(ev.UserID)
		return "❌ You have no accounts yet.\nCreate one from the web app first."
	}

	f.accounts = accounts
	f.step = awaitingAccount
	e.setFlow(ev.UserID, f)

	var b strings.Builder
	fmt.Fprintf(&b, "Selected type: *%s*\n\nChoose the account:\n\n", typeText)
	for i, a := range accounts {
		fmt.Fprintf(&b, "%d. %s %s\n", i+1, format.AccountEmoji(a.Type), a.Name)
	}
	b.WriteString("\nReply with the account number.")
	return b.String()
}

func (e *Engine) movementAccount(ev chat.Event, f *movementFlow) string {
	n, err := strconv.Atoi(strings.TrimSpace(ev.Text))
	if err != nil {
		return "❌ Please reply with the account number."
	}
	if n < 1 || n > len(f.accounts) {
		return fmt.Sprintf("❌ Invalid number. You have %d account(s).", len(f.accounts))
	}

	selected := f.accounts[n-1]
	f.accountID = selected.ID
	f.accountName = selected.Name
	f.step = awaitingAmount
	e.setFlow(ev.UserID, f)

	return fmt.Sprintf("Selected account: *%s*\n\nNow enter the amount:\nExample: 50.00", selected.Name)
}

func (e *Engine) movementAmount(ev chat.Event, f *movementFlow) string {
	amount, err := parseAmount(ev.Text)
	if err != nil {
		return "❌ Invalid amount. Enter a positive number.\nExample: 50.00"
	}

	f.amount = amount
	f.step = awaitingNotes
	e.setFlow(ev.UserID, f)

	return fmt.Sprintf("Amount: *%s*\n\nWant to add notes? (optional)\n\nType the notes or /skip to continue.", format.Money(amount))
}

func (e *Engine) movementNotes(ev chat.Event, f *movementFlow) string {
	if ev.Command == "skip" {
		f.notes = ""
	} else {
		notes := strings.TrimSpace(ev.Text)
		// Truncate on characters, not bytes; a byte cut could split a rune.
		if runes := []rune(notes); len(runes) > maxNotesLength {
			notes = string(runes[:maxNotesLength])
		}
		f.notes = notes
	}

	f.step = awaitingFile
	e.setFlow(ev.UserID, f)

	return "Want to attach a file? (PDF or image)\n\nSend the file or /skip to finish."
}

func (e *Engine) movementFile(ctx context.Context, ev chat.Event, f *movementFlow) string {
	if ev.Command != "skip" && ev.Attachment == nil {
		return "Send a file (PDF or image) or /skip to finish."
	}

	// Terminal from here on: scratch is discarded whatever happens next.
	e.clearFlow(ev.UserID)

	var attachmentPath string
	if ev.Attachment != nil {
		tmp, err := os.CreateTemp("", "ledgerbot-*"+filepath.Ext(ev.Attachment.Name))
		if err != nil {
			return "❌ Could not store the attachment. Use /new to try again."
		}
		attachmentPath = tmp.Name()
		tmp.Close()
		defer func() {
			if err := os.Remove(attachmentPath); err != nil {
				slog.Warn("could not remove temp attachment", "path", attachmentPath, "error", err)
			}
		}()

		if err := e.transport.DownloadFile(ctx, ev.Attachment.FileID, attachmentPath); err != nil {
			slog.Error("attachment download failed", "file_id", ev.Attachment.FileID, "error", err)
			return "❌ Could not download the attachment. Use /new to try again."
		}
	}

	client, err := e.sessions.Client(ev.UserID)
	if err != nil {
		return NotLoggedIn
	}

	req := model.MovementRequest{
		Type:      f.movType,
		AccountID: f.accountID,
		Amount:    f.amount,
		Notes:     f.notes,
		Date:      e.now().Format("2006-01-02"),
	}

	if _, err := client.CreateMovement(ctx, req, attachmentPath); err != nil {
		return ErrorReply(e.sessions, ev.UserID, err) + "\n\nUse /new to try again."
	}

	typeText := "Income 📈"
	if f.movType == model.MovementExpense {
		typeText = "Expense 📉"
	}
	return fmt.Sprintf("✅ *%s registered!*\n\nAmount: %s\nAccount: %s\n\nUse /movements to see your history.",
		typeText, format.Money(f.amount), f.accountName)
}
