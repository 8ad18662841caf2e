package tui

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/smsledger/internal/common"
	"github.com/Veraticus/smsledger/internal/model"
)

type fakeController struct {
	overrides  []model.Overrides
	calls      []string
	foreground int
	background int
	mu         sync.Mutex
}

func (f *fakeController) record(call string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
}

func (f *fakeController) Confirm(_ context.Context, id string, o model.Overrides) (model.Suggestion, error) {
	f.mu.Lock()
	f.overrides = append(f.overrides, o)
	f.mu.Unlock()
	f.record("confirm:" + id)
	return model.Suggestion{ID: id}, nil
}

func (f *fakeController) Dismiss(_ context.Context, id string) error {
	f.record("dismiss:" + id)
	return nil
}

func (f *fakeController) ReportIncorrectExtraction(_ context.Context, raw string, _ model.ExtractedTransaction) error {
	f.record("report:" + raw)
	return nil
}

func (f *fakeController) Foreground(context.Context) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.foreground++
}

func (f *fakeController) Background() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.background++
}

var epoch = time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)

func newTestModel(t *testing.T) (Model, *fakeController) {
	t.Helper()
	ctrl := &fakeController{}
	cfg := defaultConfig()
	cfg.Now = func() time.Time { return epoch }
	cfg.History = 3
	return newModel(context.Background(), cfg, ctrl), ctrl
}

func testSuggestion() model.Suggestion {
	return model.Suggestion{
		ID:         "s-1",
		RawMessage: "Rs.500 debited at AMAZON",
		DisplayFor: 30 * time.Second,
		Transaction: model.ExtractedTransaction{
			Amount:      model.Found(decimal.NewFromInt(500), 0.9, model.Span{}, "test"),
			Merchant:    model.Found("AMAZON", 0.8, model.Span{}, "test"),
			Account:     model.Found("1234", 0.8, model.Span{}, "test"),
			Currency:    "INR",
			Type:        model.TransactionDebit,
			Institution: "SBI",
			Confidence:  0.85,
		},
	}
}

func update(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	out, ok := next.(Model)
	require.True(t, ok)
	return out, cmd
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func show(t *testing.T, m Model) Model {
	t.Helper()
	m, _ = update(t, m, suggestionShownMsg{suggestion: testSuggestion()})
	return m
}

func TestInitTicks(t *testing.T) {
	m, _ := newTestModel(t)
	assert.NotNil(t, m.Init())
}

func TestShowRendersPopupAndCountdown(t *testing.T) {
	m, _ := newTestModel(t)
	assert.Contains(t, m.View(), "Waiting for messages")

	m = show(t, m)
	view := m.View()
	assert.Contains(t, view, "AMAZON")
	assert.Contains(t, view, "-INR 500.00")
	assert.Contains(t, view, "XX1234")
	assert.Contains(t, view, "85%")
	assert.Contains(t, view, "30s")

	m, cmd := update(t, m, tickMsg(epoch.Add(4*time.Second)))
	assert.NotNil(t, cmd, "ticks reschedule")
	assert.Equal(t, 26*time.Second, m.remaining())
	assert.Contains(t, m.View(), "26s")

	m, _ = update(t, m, tickMsg(epoch.Add(time.Minute)))
	assert.Zero(t, m.remaining())
}

func TestPopupKeys(t *testing.T) {
	tests := []struct {
		name string
		key  tea.KeyMsg
		want string
	}{
		{name: "confirm", key: runes("c"), want: "confirm:s-1"},
		{name: "confirm with enter", key: tea.KeyMsg{Type: tea.KeyEnter}, want: "confirm:s-1"},
		{name: "dismiss", key: runes("d"), want: "dismiss:s-1"},
		{name: "dismiss with esc", key: tea.KeyMsg{Type: tea.KeyEsc}, want: "dismiss:s-1"},
		{name: "report", key: runes("r"), want: "report:Rs.500 debited at AMAZON"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, ctrl := newTestModel(t)
			m = show(t, m)

			_, cmd := update(t, m, tt.key)
			require.NotNil(t, cmd)
			result, ok := cmd().(actionResultMsg)
			require.True(t, ok)
			require.NoError(t, result.err)
			assert.Equal(t, []string{tt.want}, ctrl.calls)
		})
	}
}

func TestKeysWithoutVisibleSuggestion(t *testing.T) {
	m, ctrl := newTestModel(t)

	_, cmd := update(t, m, runes("c"))
	assert.Nil(t, cmd)
	assert.Empty(t, ctrl.calls)
}

func TestEditTitleThenConfirm(t *testing.T) {
	m, ctrl := newTestModel(t)
	m = show(t, m)

	m, _ = update(t, m, runes("e"))
	require.Equal(t, modeEditing, m.mode)
	assert.Equal(t, "AMAZON", m.title.Value())
	assert.Contains(t, m.View(), "Title:")

	m, _ = update(t, m, runes("-2"))
	assert.Equal(t, "AMAZON-2", m.title.Value())

	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	assert.Equal(t, modePopup, m.mode)
	require.NotNil(t, cmd)
	cmd()

	require.Len(t, ctrl.overrides, 1)
	assert.Equal(t, "AMAZON-2", ctrl.overrides[0].Title)
}

func TestEditCancelKeepsPopup(t *testing.T) {
	m, ctrl := newTestModel(t)
	m = show(t, m)

	m, _ = update(t, m, runes("e"))
	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyEsc})

	assert.Nil(t, cmd)
	assert.Equal(t, modePopup, m.mode)
	assert.NotNil(t, m.visible)
	assert.Empty(t, ctrl.calls)
}

func TestDismissedClearsPopupAndLogsEvent(t *testing.T) {
	m, _ := newTestModel(t)
	m = show(t, m)

	m, _ = update(t, m, suggestionDismissedMsg{suggestion: testSuggestion(), reason: model.DismissByConfirm})

	assert.Nil(t, m.visible)
	assert.Equal(t, modeIdle, m.mode)
	assert.Contains(t, m.View(), "Saved AMAZON")
}

func TestDismissOfOtherSuggestionKeepsPopup(t *testing.T) {
	m, _ := newTestModel(t)
	m = show(t, m)

	other := testSuggestion()
	other.ID = "s-2"
	m, _ = update(t, m, suggestionDismissedMsg{suggestion: other, reason: model.DismissByTimeout})

	require.NotNil(t, m.visible)
	assert.Equal(t, "s-1", m.visible.ID)
}

func TestEventsAndHistoryCap(t *testing.T) {
	m, _ := newTestModel(t)

	m, _ = update(t, m, notificationMsg{suggestion: testSuggestion()})
	m, _ = update(t, m, persistFailedMsg{suggestion: testSuggestion(), err: errors.New("backend down")})
	m, _ = update(t, m, actionResultMsg{action: "confirm", err: fmt.Errorf("%w: s-1", common.ErrStaleSuggestion)})
	m, _ = update(t, m, actionResultMsg{action: "report", err: errors.New("disk full")})

	require.Len(t, m.events, 3)
	assert.Equal(t, "Failed to report: disk full", m.events[0].text)
	assert.Equal(t, "That suggestion already closed", m.events[1].text)
	assert.Equal(t, "Not saved: AMAZON: backend down", m.events[2].text)
}

func TestFocusChangesDriveLifecycle(t *testing.T) {
	m, ctrl := newTestModel(t)

	m, cmd := update(t, m, tea.BlurMsg{})
	require.NotNil(t, cmd)
	cmd()
	assert.True(t, m.background)
	assert.Contains(t, m.View(), "in background")
	assert.Equal(t, 1, ctrl.background)

	m, cmd = update(t, m, tea.FocusMsg{})
	require.NotNil(t, cmd)
	cmd()
	assert.False(t, m.background)
	assert.Equal(t, 1, ctrl.foreground)
}

func TestQuit(t *testing.T) {
	m, _ := newTestModel(t)

	m, cmd := update(t, m, runes("q"))
	require.NotNil(t, cmd)
	assert.Equal(t, tea.QuitMsg{}, cmd())
	assert.Empty(t, m.View())
}

func TestHelpToggle(t *testing.T) {
	m, _ := newTestModel(t)

	m, _ = update(t, m, runes("?"))
	assert.True(t, m.help.ShowAll)
	assert.Contains(t, m.View(), "report misread")
}

type recordingSender struct {
	msgs []tea.Msg
}

func (r *recordingSender) Send(msg tea.Msg) {
	r.msgs = append(r.msgs, msg)
}

func TestPresenterForwardsEvents(t *testing.T) {
	sender := &recordingSender{}
	p := NewPresenter(sender)
	s := testSuggestion()

	p.ShowVisible(s)
	p.DismissVisible(s, model.DismissByTimeout)
	p.ShowFallbackNotification(s)
	p.PersistenceFailed(s, errors.New("boom"))

	require.Len(t, sender.msgs, 4)
	assert.IsType(t, suggestionShownMsg{}, sender.msgs[0])
	assert.Equal(t, model.DismissByTimeout, sender.msgs[1].(suggestionDismissedMsg).reason)
	assert.IsType(t, notificationMsg{}, sender.msgs[2])
	assert.IsType(t, persistFailedMsg{}, sender.msgs[3])
}

func TestUnboundControllerRejectsActions(t *testing.T) {
	ref := &controllerRef{}
	ctx := context.Background()

	_, err := ref.Confirm(ctx, "s-1", model.Overrides{})
	assert.ErrorIs(t, err, common.ErrMonitoringInactive)
	assert.ErrorIs(t, ref.Dismiss(ctx, "s-1"), common.ErrMonitoringInactive)
	ref.Foreground(ctx)
	ref.Background()

	ctrl := &fakeController{}
	ref.set(ctrl)
	require.NoError(t, ref.Dismiss(ctx, "s-1"))
	assert.Equal(t, []string{"dismiss:s-1"}, ctrl.calls)
}
