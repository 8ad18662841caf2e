package engine

import (
	"context"
	"testing"
	"time"

	"github.com/facebookgo/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/smsledger/internal/common"
	"github.com/Veraticus/smsledger/internal/model"
)

const amazonDebit = "Rs.500 debited from account at AMAZON on 01-Jan-23. Avbl Bal: Rs.10,000.00"

func newTestPipeline() *Pipeline {
	mock := clock.NewMock()
	mock.Add(time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC).Sub(mock.Now()))
	return New(Config{Clock: mock, Location: time.UTC})
}

func TestParse(t *testing.T) {
	p := newTestPipeline()
	settings := model.DefaultMonitorSettings()

	t.Run("debit with trailing balance", func(t *testing.T) {
		r := p.Parse(model.IncomingMessage{ID: "1", Sender: "VM-SBIINB", Body: amazonDebit}, settings)

		require.NoError(t, r.Err)
		assert.True(t, r.Relevant)
		assert.True(t, r.Succeeded())
		assert.Equal(t, model.TransactionDebit, r.Transaction.Type)
		assert.Equal(t, "500", r.Transaction.AmountValue().String())
		assert.Contains(t, r.Transaction.MerchantName(), "Amazon")
		assert.Greater(t, r.Transaction.Confidence, 0.7)
	})

	t.Run("promotional text", func(t *testing.T) {
		r := p.Parse(model.IncomingMessage{ID: "2", Sender: "PROMO", Body: "Get 50% off today!"}, settings)

		assert.False(t, r.Relevant)
		assert.ErrorIs(t, r.Err, common.ErrNotRelevant)
		assert.False(t, r.Succeeded())
	})

	t.Run("relevant without amount", func(t *testing.T) {
		r := p.Parse(model.IncomingMessage{ID: "3", Body: "Amount debited could not be confirmed"}, settings)

		assert.True(t, r.Relevant)
		assert.ErrorIs(t, r.Err, common.ErrExtractionFailed)
		assert.False(t, r.Validation.OK)
		assert.Contains(t, r.Validation.Errors, "amount is missing")
	})

	t.Run("below minimum amount", func(t *testing.T) {
		strict := settings
		strict.MinimumAmount = 1000

		r := p.Parse(model.IncomingMessage{ID: "4", Body: amazonDebit}, strict)

		assert.True(t, r.Relevant)
		assert.True(t, r.Validation.OK)
		assert.ErrorIs(t, r.Err, common.ErrBelowMinimum)
	})

	t.Run("trusted sender bypasses keywords", func(t *testing.T) {
		trusting := settings
		trusting.TrustedSenders = []string{"mybank"}

		r := p.Parse(model.IncomingMessage{ID: "5", Sender: "AX-MYBANK", Body: "Hello there"}, trusting)

		assert.True(t, r.Relevant)
		assert.ErrorIs(t, r.Err, common.ErrExtractionFailed)
	})
}

func TestParseIsDeterministic(t *testing.T) {
	p := newTestPipeline()
	msg := model.IncomingMessage{ID: "1", Body: amazonDebit}

	first := p.Parse(msg, model.DefaultMonitorSettings())
	for range 5 {
		again := p.Parse(msg, model.DefaultMonitorSettings())
		assert.Equal(t, first.Transaction.Confidence, again.Transaction.Confidence)
		assert.Equal(t, first.Transaction.View(), again.Transaction.View())
	}
}

func TestParseBatchAndStatistics(t *testing.T) {
	p := newTestPipeline()
	msgs := []model.IncomingMessage{
		{ID: "1", Body: amazonDebit},
		{ID: "2", Body: "Get 50% off today!"},
		{ID: "3", Body: "Amount debited could not be confirmed"},
		{ID: "4", Body: "INR 2,000.00 credited to A/c XX1234 on 02-Feb-24"},
	}

	var progress []int
	results, err := p.ParseBatch(context.Background(), msgs, model.DefaultMonitorSettings(), func(done int) {
		progress = append(progress, done)
	})
	require.NoError(t, err)
	require.Len(t, results, 4)
	assert.Equal(t, []int{1, 2, 3, 4}, progress)

	stats := Statistics(results)
	assert.Equal(t, 4, stats.Total)
	assert.Equal(t, 3, stats.Relevant)
	assert.Equal(t, 2, stats.Successful)
	assert.Equal(t, 1, stats.Failed)
	assert.Equal(t, 1, stats.ByType[model.TransactionDebit])
	assert.Equal(t, 1, stats.ByType[model.TransactionCredit])
	assert.Greater(t, stats.AverageConfidence, 0.0)
	assert.LessOrEqual(t, stats.AverageConfidence, 1.0)
}

func TestParseBatchCancelled(t *testing.T) {
	p := newTestPipeline()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results, err := p.ParseBatch(ctx, []model.IncomingMessage{{ID: "1", Body: amazonDebit}}, model.DefaultMonitorSettings(), nil)

	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, results)
}

func TestStatisticsEmpty(t *testing.T) {
	stats := Statistics(nil)
	assert.Zero(t, stats.Total)
	assert.Zero(t, stats.AverageConfidence)
	assert.NotNil(t, stats.ByType)
}
