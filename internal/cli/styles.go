// Package cli provides styled terminal output using lipgloss.
package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/Veraticus/smsledger/internal/model"
)

var (
	// PrimaryColor is the main theme color.
	PrimaryColor = lipgloss.Color("#5B8DEF")
	// DebitColor marks money leaving an account.
	DebitColor = lipgloss.Color("#FF6B6B")
	// CreditColor marks money arriving.
	CreditColor = lipgloss.Color("#4ECDC4")
	// WarningColor indicates warnings or caution messages.
	WarningColor = lipgloss.Color("#FFE66D")
	// ErrorColor indicates errors or failure messages.
	ErrorColor = lipgloss.Color("#FF6B6B")
	// InfoColor indicates informational messages.
	InfoColor = lipgloss.Color("#95E1D3")
	// SubtleColor indicates less prominent UI elements.
	SubtleColor = lipgloss.Color("#666666")

	// TitleStyle is used for section titles.
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(PrimaryColor).
			MarginBottom(1)

	// SuccessStyle formats success messages.
	SuccessStyle = lipgloss.NewStyle().
			Foreground(CreditColor)

	// WarningStyle formats warning messages.
	WarningStyle = lipgloss.NewStyle().
			Foreground(WarningColor)

	// ErrorStyle formats error messages.
	ErrorStyle = lipgloss.NewStyle().
			Foreground(ErrorColor)

	// InfoStyle formats informational messages.
	InfoStyle = lipgloss.NewStyle().
			Foreground(InfoColor)

	// SubtleStyle formats less prominent text.
	SubtleStyle = lipgloss.NewStyle().
			Foreground(SubtleColor)

	// BoldStyle makes text bold.
	BoldStyle = lipgloss.NewStyle().
			Bold(true)

	// BoxStyle is used for bordered content boxes.
	BoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#333")).
			Padding(1, 2)

	// LabelStyle pads field labels in detail views.
	LabelStyle = lipgloss.NewStyle().
			Foreground(SubtleColor).
			Width(12)

	// PromptStyle is used for user prompts.
	PromptStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(PrimaryColor)
)

// Icons.
const (
	SuccessIcon = "✓"
	ErrorIcon   = "✗"
	WarningIcon = "⚠️"
	InfoIcon    = "ℹ️"
	MessageIcon = "✉"
	BellIcon    = "🔔"
	ChartIcon   = "📊"
)

// FormatSuccess formats a success message with icon.
func FormatSuccess(message string) string {
	return SuccessStyle.Render(SuccessIcon + " " + message)
}

// FormatError formats an error message with icon.
func FormatError(message string) string {
	return ErrorStyle.Render(ErrorIcon + " " + message)
}

// FormatWarning formats a warning message with icon.
func FormatWarning(message string) string {
	return WarningStyle.Render(WarningIcon + " " + message)
}

// FormatInfo formats an info message with icon.
func FormatInfo(message string) string {
	return InfoStyle.Render(InfoIcon + " " + message)
}

// FormatTitle formats a title with the message icon.
func FormatTitle(title string) string {
	return TitleStyle.Render(MessageIcon + " " + title)
}

// FormatPrompt formats a prompt message.
func FormatPrompt(prompt string) string {
	return PromptStyle.Render(prompt + " → ")
}

// RenderBox renders content in a styled box.
func RenderBox(title, content string) string {
	boxTitle := TitleStyle.
		UnsetMargins().
		Render(title)

	return BoxStyle.Render(lipgloss.JoinVertical(lipgloss.Left, boxTitle, content))
}

// FormatAmount renders a signed, colored amount for tx.
func FormatAmount(tx model.ExtractedTransaction) string {
	amount, ok := tx.Amount.Get()
	if !ok {
		return SubtleStyle.Render("—")
	}

	text := strings.TrimSpace(tx.Currency + " " + amount.StringFixed(2))
	switch tx.Type {
	case model.TransactionDebit:
		return lipgloss.NewStyle().Foreground(DebitColor).Render("-" + text)
	case model.TransactionCredit:
		return lipgloss.NewStyle().Foreground(CreditColor).Render("+" + text)
	default:
		return text
	}
}

// FormatConfidence renders a confidence score as a percentage, colored by
// how far it clears the popup threshold.
func FormatConfidence(c float64) string {
	text := fmt.Sprintf("%.0f%%", c*100)
	switch {
	case c >= 0.8:
		return SuccessStyle.Render(text)
	case c >= model.DefaultMinimumConfidence:
		return WarningStyle.Render(text)
	default:
		return ErrorStyle.Render(text)
	}
}

// FormatTransaction renders the labeled fields of tx.
func FormatTransaction(tx model.ExtractedTransaction) string {
	var b strings.Builder
	row := func(label, value string) {
		if value == "" {
			return
		}
		b.WriteString(LabelStyle.Render(label) + value + "\n")
	}

	row("Amount", FormatAmount(tx))
	row("Type", string(tx.Type))
	row("Merchant", tx.MerchantName())
	if account, ok := tx.Account.Get(); ok {
		row("Account", "XX"+account)
	}
	if balance, ok := tx.Balance.Get(); ok {
		row("Balance", strings.TrimSpace(tx.Currency+" "+balance.StringFixed(2)))
	}
	if date, ok := tx.Date.Get(); ok {
		row("Date", date.Format("02 Jan 2006")+SubtleStyle.Render(" ("+string(tx.DateSource)+")"))
	}
	if ref, ok := tx.Reference.Get(); ok {
		row("Reference", ref)
	}
	row("Bank", tx.Institution)
	row("Confidence", FormatConfidence(tx.Confidence))

	return strings.TrimRight(b.String(), "\n")
}
