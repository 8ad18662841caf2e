package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/Veraticus/smsledger/internal/model"
)

const countdownWidth = 30

// View renders the popup, recent events and help.
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	sections := []string{m.renderHeader()}
	if m.visible != nil {
		sections = append(sections, m.renderPopup(*m.visible))
	} else {
		sections = append(sections, m.theme.StatusPending.Render("Waiting for messages…"))
	}
	if len(m.events) > 0 {
		sections = append(sections, m.renderEvents())
	}

	if m.mode == modeEditing {
		sections = append(sections, m.help.View(editingKeys{m.keymap}))
	} else {
		sections = append(sections, m.help.View(m.keymap))
	}

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m Model) renderHeader() string {
	status := m.theme.StatusSuccess.Render("● watching")
	if m.background {
		status = m.theme.StatusPending.Render("○ in background, suggestions queue")
	}
	return m.theme.Title.Render("✉ smsledger") + "  " + status
}

func (m Model) renderPopup(s model.Suggestion) string {
	tx := s.Transaction
	var b strings.Builder
	row := func(label, value string) {
		if value == "" {
			return
		}
		b.WriteString(m.theme.Label.Render(label) + m.theme.Normal.Render(value) + "\n")
	}

	b.WriteString(m.theme.Bold.Render(s.Title()) + "  " + m.amountStyle(tx).Render(formatAmount(tx)) + "\n\n")
	if account, ok := tx.Account.Get(); ok {
		row("Account", "XX"+account)
	}
	if balance, ok := tx.Balance.Get(); ok {
		row("Balance", strings.TrimSpace(tx.Currency+" "+balance.StringFixed(2)))
	}
	if date, ok := tx.Date.Get(); ok {
		row("Date", date.Format("02 Jan 2006"))
	}
	if ref, ok := tx.Reference.Get(); ok {
		row("Reference", ref)
	}
	row("Bank", tx.Institution)
	row("Confidence", fmt.Sprintf("%.0f%%", tx.Confidence*100))

	if m.mode == modeEditing {
		b.WriteString("\n" + m.title.View() + "\n")
	}

	b.WriteString("\n" + m.renderCountdown(s.DisplayFor))

	width := m.width - 4
	switch {
	case width > 64:
		width = 64
	case width < 24:
		width = 24
	}
	return m.theme.Popup.Width(width).Render(b.String())
}

func (m Model) renderCountdown(total time.Duration) string {
	left := m.remaining()
	filled := countdownWidth
	if total > 0 {
		filled = int(float64(countdownWidth) * float64(left) / float64(total))
	}

	bar := m.theme.ProgressFull.Render(strings.Repeat("━", filled)) +
		m.theme.ProgressEmpty.Render(strings.Repeat("━", countdownWidth-filled))
	return bar + m.theme.Subtitle.Render(fmt.Sprintf(" %ds", int(left.Round(time.Second).Seconds())))
}

func (m Model) renderEvents() string {
	lines := make([]string, 0, len(m.events))
	for _, e := range m.events {
		lines = append(lines, m.theme.Subtitle.Render(e.at.Format("15:04:05")+" ")+e.style.Render(e.text))
	}
	return m.theme.Box.Render(strings.Join(lines, "\n"))
}

func (m Model) amountStyle(tx model.ExtractedTransaction) lipgloss.Style {
	switch tx.Type {
	case model.TransactionDebit:
		return lipgloss.NewStyle().Foreground(m.theme.Debit).Bold(true)
	case model.TransactionCredit:
		return lipgloss.NewStyle().Foreground(m.theme.Credit).Bold(true)
	default:
		return m.theme.Bold
	}
}

func formatAmount(tx model.ExtractedTransaction) string {
	amount, ok := tx.Amount.Get()
	if !ok {
		return ""
	}
	text := strings.TrimSpace(tx.Currency + " " + amount.StringFixed(2))
	switch tx.Type {
	case model.TransactionDebit:
		return "-" + text
	case model.TransactionCredit:
		return "+" + text
	default:
		return text
	}
}
