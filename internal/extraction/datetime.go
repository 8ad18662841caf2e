package extraction

import (
	"strconv"
	"strings"
	"time"

	"github.com/Veraticus/smsledger/internal/model"
	"github.com/Veraticus/smsledger/internal/pattern"
)

// Date confidences by source.
const (
	receiptDateConfidence    = 0.8
	processingDateConfidence = 0.3
)

var monthNumbers = map[string]time.Month{
	"jan": time.January, "feb": time.February, "mar": time.March, "apr": time.April,
	"may": time.May, "jun": time.June, "jul": time.July, "aug": time.August,
	"sep": time.September, "oct": time.October, "nov": time.November, "dec": time.December,
}

// extractDate never fails: a date in the body wins, then the receipt
// timestamp, then the processing time.
func (e *Extractor) extractDate(inst *pattern.CompiledInstitution, msg model.IncomingMessage) (model.FieldExtraction[time.Time], model.DateSource) {
	var cands []candidate[time.Time]
	for _, rule := range e.registry.Candidates(inst, pattern.FieldDate) {
		for _, m := range rule.FindAll(msg.Body) {
			t, ok := buildTime(m.Groups, e.location)
			if !ok {
				continue
			}
			cands = append(cands, candidate[time.Time]{
				value: t,
				conf:  clamp(m.Confidence),
				span:  m.Span,
				rule:  m.Rule,
			})
		}
	}
	if found := best(cands); found.Present() {
		return found, model.DateFromContent
	}

	if msg.HasReceiptTime() {
		return model.Found(msg.ReceivedAt.In(e.location), receiptDateConfidence, model.Span{}, "receipt_timestamp"), model.DateFromReceipt
	}
	return model.Found(e.clock.Now().In(e.location), processingDateConfidence, model.Span{}, "processing_time"), model.DateFromProcessing
}

// buildTime assembles a time from named regex groups: y, m or mon, d, and
// optionally H, M, S and p (am/pm).
func buildTime(groups map[string]string, loc *time.Location) (time.Time, bool) {
	year, ok := atoi(groups["y"])
	if !ok {
		return time.Time{}, false
	}
	if len(groups["y"]) == 2 {
		year += 2000
	}

	var month time.Month
	if name := groups["mon"]; name != "" {
		if len(name) < 3 {
			return time.Time{}, false
		}
		month, ok = monthNumbers[strings.ToLower(name[:3])]
		if !ok {
			return time.Time{}, false
		}
	} else {
		m, ok := atoi(groups["m"])
		if !ok || m < 1 || m > 12 {
			return time.Time{}, false
		}
		month = time.Month(m)
	}

	day, ok := atoi(groups["d"])
	if !ok || day < 1 || day > 31 {
		return time.Time{}, false
	}

	hour, minute, second := 0, 0, 0
	if groups["H"] != "" {
		hour, _ = atoi(groups["H"])
		minute, _ = atoi(groups["M"])
		second, _ = atoi(groups["S"])
		if p := strings.ToLower(strings.ReplaceAll(groups["p"], ".", "")); p != "" {
			if hour < 1 || hour > 12 {
				return time.Time{}, false
			}
			if p == "pm" && hour < 12 {
				hour += 12
			}
			if p == "am" && hour == 12 {
				hour = 0
			}
		}
		if hour > 23 || minute > 59 || second > 59 {
			return time.Time{}, false
		}
	}

	t := time.Date(year, month, day, hour, minute, second, 0, loc)
	if t.Day() != day || t.Month() != month {
		return time.Time{}, false
	}
	return t, true
}

func atoi(s string) (int, bool) {
	if s == "" {
		return 0, false
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	return n, true
}
