package signals

import "github.com/matthewbaird/signify/internal/types"

// Thresholds for the boolean-count classifier.
const (
	signalCountRed   = 3
	signalCountAmber = 1
)

// Thresholds for the cumulative-impact classifier. They currently share
// the 3/1 shape with the signal-count thresholds but are tuned separately.
const (
	impactRed   = 3
	impactAmber = 1
)

// ClassifyBySignals derives a person's current risk category from the
// number of signals that are set.
func ClassifyBySignals(s types.SignalSet) types.RiskCategory {
	return ClassifySignalCount(s.Count())
}

// ClassifySignalCount maps a count of true signals onto a category:
// 3 or more is red, 1 or more is amber, none is green. Negative counts
// cannot occur and are treated as none.
func ClassifySignalCount(count int) types.RiskCategory {
	switch {
	case count >= signalCountRed:
		return types.RiskRed
	case count >= signalCountAmber:
		return types.RiskAmber
	default:
		return types.RiskGreen
	}
}

// ClassifyByCumulativeImpact maps a running signed sum of event impacts
// onto a category: 3 or more is red, 1 or more is amber, anything below
// 1 is green. Total over all integers.
func ClassifyByCumulativeImpact(cumulative int) types.RiskCategory {
	switch {
	case cumulative >= impactRed:
		return types.RiskRed
	case cumulative >= impactAmber:
		return types.RiskAmber
	default:
		return types.RiskGreen
	}
}
