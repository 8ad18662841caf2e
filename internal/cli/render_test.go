package cli

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/Veraticus/smsledger/internal/common"
	"github.com/Veraticus/smsledger/internal/model"
	"github.com/Veraticus/smsledger/internal/service"
)

func TestRenderParseResult(t *testing.T) {
	msg := model.IncomingMessage{ID: "sms-1", Sender: "VM-SBIINB", Body: "Rs.500 debited at AMAZON"}

	tests := []struct {
		name   string
		result model.ParseResult
		want   []string
	}{
		{
			name:   "irrelevant",
			result: model.ParseResult{Message: msg},
			want:   []string{"VM-SBIINB", "not a transaction message"},
		},
		{
			name: "failed",
			result: model.ParseResult{
				Message:  msg,
				Relevant: true,
				Err:      fmt.Errorf("%w: amount is missing", common.ErrExtractionFailed),
			},
			want: []string{"amount is missing"},
		},
		{
			name: "parsed with warning",
			result: model.ParseResult{
				Message:     msg,
				Relevant:    true,
				Transaction: testSuggestion().Transaction,
				Validation:  model.Validation{OK: true, Warnings: []string{"amount is unusually large"}},
			},
			want: []string{"AMAZON", "-INR 500.00", "unusually large"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := RenderParseResult(tt.result)
			for _, w := range tt.want {
				assert.Contains(t, out, w)
			}
		})
	}
}

func TestRenderStatistics(t *testing.T) {
	out := RenderStatistics(model.ParsingStatistics{
		Total:             4,
		Relevant:          3,
		Successful:        2,
		Failed:            1,
		AverageConfidence: 0.75,
		ByType:            map[model.TransactionType]int{model.TransactionDebit: 1, model.TransactionCredit: 1},
	})

	assert.Contains(t, out, "Parsing statistics")
	assert.Contains(t, out, "75%")
	assert.Contains(t, out, "DEBIT")
	assert.Contains(t, out, "CREDIT")
}

func TestRenderSettingsAndPermissions(t *testing.T) {
	s := model.DefaultMonitorSettings()
	s.TrustedSenders = []string{"MPESA"}
	s.AutoCategories = map[string]string{"amazon": "shopping"}

	out := RenderSettings(s)
	assert.Contains(t, out, "disabled")
	assert.Contains(t, out, "MPESA")
	assert.Contains(t, out, "amazon=shopping")

	denied := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	perms := RenderPermissions(model.PermissionState{
		SMS:          model.PermissionDenied,
		Overlay:      model.PermissionGranted,
		RequestCount: 2,
		LastDeniedAt: &denied,
	})
	assert.Contains(t, perms, "denied")
	assert.Contains(t, perms, "never")
	assert.Contains(t, perms, "Denied")
}

func TestRenderPersistRecords(t *testing.T) {
	assert.Contains(t, RenderPersistRecords(nil), "No submissions")

	out := RenderPersistRecords([]service.PersistRecord{{
		SuggestionID: "s-1",
		Status:       service.PersistFailed,
		Attempts:     3,
		LastError:    "backend returned 503",
	}})
	assert.Contains(t, out, "s-1")
	assert.Contains(t, out, "3 attempt(s)")
	assert.Contains(t, out, "backend returned 503")
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "abcd…", truncate("abcdefgh", 5))
}
