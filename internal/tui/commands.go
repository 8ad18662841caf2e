package tui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/Veraticus/smsledger/internal/model"
)

// tickInterval drives the countdown display.
const tickInterval = time.Second

func tick() tea.Cmd {
	return tea.Tick(tickInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func confirmCmd(ctx context.Context, ctrl Controller, id string, overrides model.Overrides) tea.Cmd {
	return func() tea.Msg {
		_, err := ctrl.Confirm(ctx, id, overrides)
		return actionResultMsg{action: "confirm", err: err}
	}
}

func dismissCmd(ctx context.Context, ctrl Controller, id string) tea.Cmd {
	return func() tea.Msg {
		return actionResultMsg{action: "dismiss", err: ctrl.Dismiss(ctx, id)}
	}
}

func reportCmd(ctx context.Context, ctrl Controller, s model.Suggestion) tea.Cmd {
	return func() tea.Msg {
		err := ctrl.ReportIncorrectExtraction(ctx, s.RawMessage, s.Transaction)
		return actionResultMsg{action: "report", err: err}
	}
}

func foregroundCmd(ctx context.Context, ctrl Controller) tea.Cmd {
	return func() tea.Msg {
		ctrl.Foreground(ctx)
		return nil
	}
}

func backgroundCmd(ctrl Controller) tea.Cmd {
	return func() tea.Msg {
		ctrl.Background()
		return nil
	}
}
