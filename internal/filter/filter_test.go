package filter

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Veraticus/smsledger/internal/model"
	"github.com/Veraticus/smsledger/internal/pattern"
)

func TestIsRelevant(t *testing.T) {
	f := New(pattern.Default())

	tests := []struct {
		name     string
		sender   string
		body     string
		trusted  []string
		keywords []string
		want     bool
	}{
		{
			name: "debit message",
			body: "Rs.500 debited from account at AMAZON on 01-Jan-23. Avbl Bal: Rs.10,000.00",
			want: true,
		},
		{
			name: "promotion without financial vocabulary",
			body: "Get 50% off today!",
			want: false,
		},
		{
			name: "otp is excluded",
			body: "Your OTP for the transaction of Rs.500 is 123456",
			want: false,
		},
		{
			name:    "trusted sender bypasses keywords",
			sender:  "VM-HDFCBK",
			body:    "Your OTP is 123456",
			trusted: []string{"hdfcbk"},
			want:    true,
		},
		{
			name:     "custom keyword filter",
			body:     "Wallet topup successful",
			keywords: []string{"topup"},
			want:     true,
		},
		{
			name: "merchant starting with an exclude keyword",
			body: "Rs.1,299.00 debited from A/c XX1234 at PINNACLE STORES",
			want: true,
		},
		{
			name: "merchant starting with code",
			body: "INR 850.00 spent on card XX4321 at CODECADEMY",
			want: true,
		},
		{
			name: "pin as a whole word is excluded",
			body: "Rs.500 debited. Never share your PIN with anyone",
			want: false,
		},
		{
			name: "keyword inside another word",
			body: "global news digest",
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			settings := model.DefaultMonitorSettings()
			settings.TrustedSenders = tt.trusted
			settings.KeywordFilters = tt.keywords

			msg := model.IncomingMessage{ID: "m1", Sender: tt.sender, Body: tt.body}
			assert.Equal(t, tt.want, f.IsRelevant(msg, settings))
		})
	}
}

func TestIsRelevantIsDeterministic(t *testing.T) {
	f := New(pattern.Default())
	settings := model.DefaultMonitorSettings()
	msg := model.IncomingMessage{ID: "m1", Body: "INR 250 credited to A/c XX1234"}

	first := f.IsRelevant(msg, settings)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, f.IsRelevant(msg, settings))
	}
}

func TestIsTrustedSender(t *testing.T) {
	assert.True(t, IsTrustedSender("AD-SBIINB", []string{"SBI"}))
	assert.False(t, IsTrustedSender("", []string{"SBI"}))
	assert.False(t, IsTrustedSender("AD-SBIINB", []string{" "}))
}
