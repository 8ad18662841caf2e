package cli

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/Veraticus/smsledger/internal/model"
	"github.com/Veraticus/smsledger/internal/service"
)

// RenderParseResult renders one message and what was read from it.
func RenderParseResult(r model.ParseResult) string {
	header := BoldStyle.Render(r.Message.Sender) + SubtleStyle.Render(" "+r.Message.ID)
	body := SubtleStyle.Render(truncate(r.Message.Body, 72))

	var status string
	switch {
	case !r.Relevant:
		status = SubtleStyle.Render("not a transaction message")
	case r.Err != nil:
		status = FormatError(r.Err.Error())
	default:
		status = FormatTransaction(r.Transaction)
	}

	lines := []string{header, body, status}
	for _, w := range r.Validation.Warnings {
		lines = append(lines, FormatWarning(w))
	}
	return strings.Join(lines, "\n")
}

// RenderStatistics renders batch totals.
func RenderStatistics(stats model.ParsingStatistics) string {
	var b strings.Builder
	row := func(label string, value any) {
		fmt.Fprintf(&b, "%s%v\n", LabelStyle.Render(label), value)
	}

	row("Messages", stats.Total)
	row("Relevant", stats.Relevant)
	row("Parsed", SuccessStyle.Render(fmt.Sprint(stats.Successful)))
	row("Failed", ErrorStyle.Render(fmt.Sprint(stats.Failed)))
	row("Confidence", FormatConfidence(stats.AverageConfidence))

	types := make([]string, 0, len(stats.ByType))
	for t := range stats.ByType {
		types = append(types, string(t))
	}
	sort.Strings(types)
	for _, t := range types {
		row(t, stats.ByType[model.TransactionType(t)])
	}

	return RenderBox(ChartIcon+" Parsing statistics", strings.TrimRight(b.String(), "\n"))
}

// RenderSettings renders monitor settings.
func RenderSettings(s model.MonitorSettings) string {
	var b strings.Builder
	row := func(label, value string) {
		b.WriteString(LabelStyle.Render(label) + value + "\n")
	}

	enabled := ErrorStyle.Render("disabled")
	if s.Enabled {
		enabled = SuccessStyle.Render("enabled")
	}
	row("Monitoring", enabled)
	row("Popup", fmt.Sprintf("%ds, overlay %t", s.PopupDurationSeconds, s.UseOverlay))
	row("Min amount", fmt.Sprintf("%s %.2f", s.Currency, s.MinimumAmount))
	row("Min conf.", fmt.Sprintf("%.2f", s.MinimumConfidence))
	row("Trusted", listOrNone(s.TrustedSenders))
	row("Keywords", listOrNone(s.KeywordFilters))
	row("Excluded", listOrNone(s.ExcludeKeywords))

	merchants := make([]string, 0, len(s.AutoCategories))
	for m, c := range s.AutoCategories {
		merchants = append(merchants, m+"="+c)
	}
	sort.Strings(merchants)
	row("Categories", listOrNone(merchants))

	return RenderBox("Monitor settings", strings.TrimRight(b.String(), "\n"))
}

// RenderPermissions renders the stored permission state.
func RenderPermissions(state model.PermissionState) string {
	var b strings.Builder
	row := func(label, value string) {
		b.WriteString(LabelStyle.Render(label) + value + "\n")
	}

	row("Messages", formatStatus(state.SMS))
	row("Overlay", formatStatus(state.Overlay))
	row("Requests", fmt.Sprint(state.RequestCount))
	row("Checked", formatTime(state.LastCheckedAt))
	if state.LastDeniedAt != nil {
		row("Denied", formatTime(*state.LastDeniedAt))
	}

	return RenderBox("Permissions", strings.TrimRight(b.String(), "\n"))
}

// RenderPersistRecords renders the persistence ledger.
func RenderPersistRecords(records []service.PersistRecord) string {
	if len(records) == 0 {
		return SubtleStyle.Render("No submissions recorded")
	}

	lines := make([]string, 0, len(records))
	for _, r := range records {
		line := fmt.Sprintf("%s  %-9s  %d attempt(s)  %s",
			r.UpdatedAt.Format(time.DateTime), formatPersistStatus(r.Status), r.Attempts, r.SuggestionID)
		if r.LastError != "" {
			line += "\n" + SubtleStyle.Render("  "+r.LastError)
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

func formatStatus(s model.PermissionStatus) string {
	switch s {
	case model.PermissionGranted:
		return SuccessStyle.Render(string(s))
	case model.PermissionDenied:
		return ErrorStyle.Render(string(s))
	default:
		return WarningStyle.Render(string(s))
	}
}

func formatPersistStatus(s service.PersistStatus) string {
	switch s {
	case service.PersistSucceeded:
		return SuccessStyle.Render(string(s))
	case service.PersistFailed:
		return ErrorStyle.Render(string(s))
	default:
		return WarningStyle.Render(string(s))
	}
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "never"
	}
	return t.Local().Format(time.DateTime)
}

func listOrNone(values []string) string {
	if len(values) == 0 {
		return SubtleStyle.Render("none")
	}
	return strings.Join(values, ", ")
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
