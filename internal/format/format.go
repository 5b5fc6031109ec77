// Package format turns backend records into chat text. All functions are
// pure; amounts render in European style ("1.234,56 EUR").
package format

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ledgerbot/ledgerbot-go/internal/model"
)

// Money renders an amount with thousands dots and a decimal comma.
func Money(d decimal.Decimal) string {
	s := d.StringFixed(2)

	neg := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")

	intPart, fracPart, _ := strings.Cut(s, ".")

	var b strings.Builder
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(r)
	}

	out := b.String() + "," + fracPart + " EUR"
	if neg {
		out = "-" + out
	}
	return out
}

// Date renders a backend date (YYYY-MM-DD or RFC 3339) as DD/MM/YYYY,
// falling back to the raw value when it does not parse.
func Date(s string) string {
	for _, layout := range []string{"2006-01-02", time.RFC3339} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format("02/01/2006")
		}
	}
	return s
}

// AccountEmoji picks the marker for an account type.
func AccountEmoji(accountType string) string {
	if accountType == "cash" {
		return "💵"
	}
	return "🏦"
}

func movementEmoji(movType string) string {
	if movType == model.MovementIncome {
		return "📈"
	}
	return "📉"
}

func Summary(s model.AccountsSummary) string {
	return fmt.Sprintf("💼 *Financial Summary*\n\nTotal balance: `%s`\nAccounts: %d",
		Money(s.TotalBalance), s.TotalAccounts)
}

func AccountsList(accounts []model.Account) string {
	var b strings.Builder
	b.WriteString("💰 *Your accounts:*\n\n")
	for i, a := range accounts {
		fmt.Fprintf(&b, "%d. %s %s: `%s`\n", i+1, AccountEmoji(a.Type), a.Name, Money(a.Balance))
	}
	return b.String()
}

func Account(a model.Account) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s *%s*\nBalance: `%s`\n", AccountEmoji(a.Type), a.Name, Money(a.Balance))
	if a.TagName != "" {
		fmt.Fprintf(&b, "Tag: %s\n", a.TagName)
	}
	if a.Goal != nil {
		fmt.Fprintf(&b, "Goal: %s\n", Money(*a.Goal))
	}
	return b.String()
}

func Movement(m model.Movement) string {
	typeText := "Expense"
	if m.Type == model.MovementIncome {
		typeText = "Income"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s *%s*\nID: `%d`\nAccount: %s\nAmount: `%s`\nDate: %s\n",
		movementEmoji(m.Type), typeText, m.ID, accountName(m), Money(m.Amount), Date(m.Date))
	if m.Notes != "" {
		notes := m.Notes
		if runes := []rune(notes); len(runes) > 100 {
			notes = string(runes[:100])
		}
		fmt.Fprintf(&b, "Notes: %s\n", notes)
	}
	if m.HasFile {
		b.WriteString("📎 Attachment\n")
	}
	return b.String()
}

func MovementsList(movements []model.Movement) string {
	var b strings.Builder
	b.WriteString("📊 *Latest movements:*\n\n")
	for _, m := range movements {
		fmt.Fprintf(&b, "%s `%s` - %s\n   %s (ID: %d)\n\n",
			movementEmoji(m.Type), Money(m.Amount), accountName(m), Date(m.Date), m.ID)
	}
	return b.String()
}

func Stats(s model.MovementStats, tags []model.Tag) string {
	var b strings.Builder
	b.WriteString("📈 *Movement statistics*\n\n")
	fmt.Fprintf(&b, "Income: `%s`\n", Money(s.TotalIncome))
	fmt.Fprintf(&b, "Expenses: `%s`\n", Money(s.TotalExpense))
	fmt.Fprintf(&b, "Net: `%s`\n", Money(s.Net))
	fmt.Fprintf(&b, "Movements: %d\n", s.Count)
	if len(tags) > 0 {
		names := make([]string, len(tags))
		for i, t := range tags {
			names[i] = t.Name
		}
		fmt.Fprintf(&b, "Tags: %s\n", strings.Join(names, ", "))
	}
	return b.String()
}

func accountName(m model.Movement) string {
	if m.AccountName == "" {
		return "N/A"
	}
	return m.AccountName
}
