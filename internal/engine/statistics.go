package engine

import (
	"math"

	"github.com/Veraticus/smsledger/internal/model"
)

// Statistics summarizes a batch. Failed counts relevant messages that did
// not yield a valid transaction; the average covers successful ones only.
func Statistics(results []model.ParseResult) model.ParsingStatistics {
	stats := model.ParsingStatistics{
		ByType: make(map[model.TransactionType]int),
		Total:  len(results),
	}

	var confidenceSum float64
	for _, r := range results {
		if !r.Relevant {
			continue
		}
		stats.Relevant++
		if !r.Succeeded() {
			stats.Failed++
			continue
		}
		stats.Successful++
		stats.ByType[r.Transaction.Type]++
		confidenceSum += r.Transaction.Confidence
	}

	if stats.Successful > 0 {
		stats.AverageConfidence = math.Round(confidenceSum/float64(stats.Successful)*10000) / 10000
	}
	return stats
}
