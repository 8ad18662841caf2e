// Package tui renders suggestions as an in-terminal popup using bubbletea.
package tui

import (
	"context"
	"errors"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Veraticus/smsledger/internal/common"
	"github.com/Veraticus/smsledger/internal/model"
	"github.com/Veraticus/smsledger/internal/tui/themes"
)

// Controller is the coordinator surface the popup drives. Calls are made
// from commands, never from Update, because the coordinator reports back
// through Program.Send.
type Controller interface {
	Confirm(ctx context.Context, id string, overrides model.Overrides) (model.Suggestion, error)
	Dismiss(ctx context.Context, id string) error
	ReportIncorrectExtraction(ctx context.Context, raw string, tx model.ExtractedTransaction) error
	Foreground(ctx context.Context)
	Background()
}

type mode int

const (
	modeIdle mode = iota
	modePopup
	modeEditing
)

type event struct {
	at    time.Time
	style lipgloss.Style
	text  string
}

// Model holds the popup state.
type Model struct {
	shownAt    time.Time
	clock      time.Time
	ctx        context.Context
	ctrl       Controller
	now        func() time.Time
	visible    *model.Suggestion
	recorder   *Recorder
	theme      themes.Theme
	keymap     KeyMap
	events     []event
	title      textinput.Model
	help       help.Model
	history    int
	width      int
	height     int
	mode       mode
	background bool
	quitting   bool
}

func newModel(ctx context.Context, cfg Config, ctrl Controller) Model {
	title := textinput.New()
	title.Placeholder = "Transaction title"
	title.CharLimit = 80
	title.Prompt = "Title: "

	return Model{
		ctx:     ctx,
		ctrl:    ctrl,
		now:     cfg.Now,
		clock:   cfg.Now(),
		theme:   cfg.Theme,
		keymap:  DefaultKeyMap(),
		title:   title,
		help:    help.New(),
		history: cfg.History,
		width:   cfg.Width,
		height:  cfg.Height,
	}
}

// Init starts the countdown ticker.
func (m Model) Init() tea.Cmd {
	return tick()
}

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	next, cmd := m.update(msg)
	if next.recorder != nil {
		next.recorder.RecordState(next, msg)
	}
	return next, cmd
}

func (m Model) update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width

	case tea.FocusMsg:
		m.background = false
		return m, foregroundCmd(m.ctx, m.ctrl)

	case tea.BlurMsg:
		m.background = true
		return m, backgroundCmd(m.ctrl)

	case tickMsg:
		m.clock = time.Time(msg)
		return m, tick()

	case suggestionShownMsg:
		s := msg.suggestion
		m.visible = &s
		m.shownAt = m.now()
		m.clock = m.shownAt
		m.mode = modePopup
		m.title.Blur()
		m.title.Reset()

	case suggestionDismissedMsg:
		m.addEvent(dismissEvent(m.theme, msg.suggestion, msg.reason))
		if m.visible != nil && m.visible.ID == msg.suggestion.ID {
			m.visible = nil
			m.mode = modeIdle
			m.title.Blur()
		}

	case notificationMsg:
		m.addEvent(m.theme.StatusInfo, "Notified: "+msg.suggestion.Title()+" "+formatAmount(msg.suggestion.Transaction))

	case persistFailedMsg:
		m.addEvent(m.theme.StatusError, "Not saved: "+msg.suggestion.Title()+": "+msg.err.Error())

	case actionResultMsg:
		switch {
		case msg.err == nil:
		case errors.Is(msg.err, common.ErrNoVisibleSuggestion), errors.Is(msg.err, common.ErrStaleSuggestion):
			m.addEvent(m.theme.StatusWarning, "That suggestion already closed")
		default:
			m.addEvent(m.theme.StatusError, "Failed to "+msg.action+": "+msg.err.Error())
		}

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	if m.mode == modeEditing {
		switch {
		case key.Matches(msg, m.keymap.Save):
			m.mode = modePopup
			m.title.Blur()
			return m, confirmCmd(m.ctx, m.ctrl, m.visible.ID, model.Overrides{Title: m.title.Value()})
		case key.Matches(msg, m.keymap.Cancel):
			m.mode = modePopup
			m.title.Blur()
			return m, nil
		}
		var cmd tea.Cmd
		m.title, cmd = m.title.Update(msg)
		return m, cmd
	}

	switch {
	case key.Matches(msg, m.keymap.Quit):
		m.quitting = true
		return m, tea.Quit
	case key.Matches(msg, m.keymap.Help):
		m.help.ShowAll = !m.help.ShowAll
		return m, nil
	}

	if m.visible == nil {
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keymap.Confirm):
		return m, confirmCmd(m.ctx, m.ctrl, m.visible.ID, model.Overrides{})
	case key.Matches(msg, m.keymap.Dismiss):
		return m, dismissCmd(m.ctx, m.ctrl, m.visible.ID)
	case key.Matches(msg, m.keymap.Report):
		return m, reportCmd(m.ctx, m.ctrl, *m.visible)
	case key.Matches(msg, m.keymap.Edit):
		m.mode = modeEditing
		m.title.SetValue(m.visible.Title())
		m.title.CursorEnd()
		return m, m.title.Focus()
	}
	return m, nil
}

// remaining is the time left before the coordinator closes the popup.
func (m Model) remaining() time.Duration {
	if m.visible == nil {
		return 0
	}
	left := m.shownAt.Add(m.visible.DisplayFor).Sub(m.clock)
	if left < 0 {
		return 0
	}
	return left
}

func (m *Model) addEvent(style lipgloss.Style, text string) {
	m.events = append([]event{{at: m.now(), style: style, text: text}}, m.events...)
	if m.history > 0 && len(m.events) > m.history {
		m.events = m.events[:m.history]
	}
}

func dismissEvent(theme themes.Theme, s model.Suggestion, reason model.DismissReason) (lipgloss.Style, string) {
	switch reason {
	case model.DismissByConfirm:
		return theme.StatusSuccess, "Saved " + s.Title()
	case model.DismissByTimeout:
		return theme.StatusPending, "Expired " + s.Title()
	case model.DismissByReport:
		return theme.StatusInfo, "Reported " + s.Title()
	case model.DismissByBackground:
		return theme.StatusPending, "Hidden " + s.Title()
	default:
		return theme.StatusPending, "Dismissed " + s.Title()
	}
}
