package cli

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/smsledger/internal/common"
	"github.com/Veraticus/smsledger/internal/model"
)

type fakeController struct {
	confirmErr error
	visible    *model.Suggestion
	calls      []string
	overrides  []model.Overrides
	mu         sync.Mutex
}

func (f *fakeController) Confirm(_ context.Context, id string, o model.Overrides) (model.Suggestion, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, "confirm:"+id)
	f.overrides = append(f.overrides, o)
	return model.Suggestion{ID: id}, f.confirmErr
}

func (f *fakeController) Dismiss(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, "dismiss:"+id)
	return nil
}

func (f *fakeController) ReportIncorrectExtraction(_ context.Context, raw string, _ model.ExtractedTransaction) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, "report:"+raw)
	return nil
}

func (f *fakeController) Visible() (model.Suggestion, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.visible == nil {
		return model.Suggestion{}, false
	}
	return *f.visible, true
}

func (f *fakeController) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func testSuggestion() model.Suggestion {
	return model.Suggestion{
		ID:         "s-1",
		RawMessage: "Rs.500 debited at AMAZON",
		DisplayFor: 30 * time.Second,
		Transaction: model.ExtractedTransaction{
			Amount:     model.Found(decimal.NewFromInt(500), 0.9, model.Span{}, "test"),
			Merchant:   model.Found("AMAZON", 0.8, model.Span{}, "test"),
			Currency:   "INR",
			Type:       model.TransactionDebit,
			Confidence: 0.85,
		},
	}
}

func TestPrompterShowVisible(t *testing.T) {
	var out bytes.Buffer
	p := NewPrompter(nil, &out, false)

	p.ShowVisible(testSuggestion())

	text := out.String()
	assert.Contains(t, text, "AMAZON")
	assert.Contains(t, text, "INR 500.00")
	assert.Contains(t, text, "85%")
	assert.Contains(t, text, "Closes in 30s")
	assert.Equal(t, 1, p.Stats().Shown)
}

func TestPrompterDismissReasons(t *testing.T) {
	tests := []struct {
		reason model.DismissReason
		want   string
		count  func(PrompterStats) int
	}{
		{reason: model.DismissByConfirm, want: "Saved AMAZON", count: func(s PrompterStats) int { return s.Confirmed }},
		{reason: model.DismissByTimeout, want: "expired", count: func(s PrompterStats) int { return s.Expired }},
		{reason: model.DismissByReport, want: "Reported", count: func(s PrompterStats) int { return s.Reported }},
		{reason: model.DismissByUser, want: "Dismissed AMAZON", count: func(s PrompterStats) int { return s.Dismissed }},
	}

	for _, tt := range tests {
		t.Run(string(tt.reason), func(t *testing.T) {
			var out bytes.Buffer
			p := NewPrompter(nil, &out, false)

			p.DismissVisible(testSuggestion(), tt.reason)

			assert.Contains(t, out.String(), tt.want)
			assert.Equal(t, 1, tt.count(p.Stats()))
		})
	}
}

func TestPrompterFallbackAndFailure(t *testing.T) {
	var out bytes.Buffer
	p := NewPrompter(nil, &out, false)

	p.ShowFallbackNotification(testSuggestion())
	p.PersistenceFailed(testSuggestion(), errors.New("backend down"))

	assert.Contains(t, out.String(), BellIcon+" AMAZON")
	assert.Contains(t, out.String(), "Could not save AMAZON: backend down")
	stats := p.Stats()
	assert.Equal(t, 1, stats.Notified)
	assert.Equal(t, 1, stats.Failed)
}

func TestPrompterRunCommands(t *testing.T) {
	s := testSuggestion()
	tests := []struct {
		name      string
		input     string
		visible   *model.Suggestion
		wantCalls []string
		wantOut   string
	}{
		{name: "confirm", input: "c\n", visible: &s, wantCalls: []string{"confirm:s-1"}},
		{name: "dismiss", input: "dismiss\n", visible: &s, wantCalls: []string{"dismiss:s-1"}},
		{name: "report", input: "r\n", visible: &s, wantCalls: []string{"report:" + s.RawMessage}},
		{name: "unknown", input: "zap\n", visible: &s, wantOut: `Unknown command "zap"`},
		{name: "nothing visible", input: "c\n", wantOut: "No suggestion on screen"},
		{name: "help", input: "?\n", wantOut: "c [title] confirms"},
		{name: "quit stops reading", input: "q\nc\n", visible: &s},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			ctrl := &fakeController{visible: tt.visible}
			p := NewPrompter(strings.NewReader(tt.input), &out, false)

			require.NoError(t, p.Run(context.Background(), ctrl))

			if tt.wantCalls == nil {
				assert.Empty(t, ctrl.Calls())
			} else {
				assert.Equal(t, tt.wantCalls, ctrl.Calls())
			}
			if tt.wantOut != "" {
				assert.Contains(t, out.String(), tt.wantOut)
			}
		})
	}
}

func TestPrompterConfirmWithTitle(t *testing.T) {
	s := testSuggestion()
	ctrl := &fakeController{visible: &s}
	p := NewPrompter(strings.NewReader("c  Weekly groceries \n"), &bytes.Buffer{}, false)

	require.NoError(t, p.Run(context.Background(), ctrl))

	require.Len(t, ctrl.overrides, 1)
	assert.Equal(t, "Weekly groceries", ctrl.overrides[0].Title)
}

func TestPrompterStaleConfirm(t *testing.T) {
	s := testSuggestion()
	var out bytes.Buffer
	ctrl := &fakeController{visible: &s, confirmErr: fmt.Errorf("%w: s-1", common.ErrStaleSuggestion)}
	p := NewPrompter(strings.NewReader("c\n"), &out, false)

	require.NoError(t, p.Run(context.Background(), ctrl))
	assert.Contains(t, out.String(), "no longer on screen")
}

func TestPrompterAutoConfirm(t *testing.T) {
	ctrl := &fakeController{}
	p := NewPrompter(nil, &bytes.Buffer{}, true)
	p.ShowVisible(testSuggestion())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- p.Run(ctx, ctrl) }()

	require.Eventually(t, func() bool {
		return len(ctrl.Calls()) == 1
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, []string{"confirm:s-1"}, ctrl.Calls())

	cancel()
	require.NoError(t, <-done)
}
