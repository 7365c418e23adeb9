// Package types provides the shared value types of the Signify risk model.
// These are the shapes exchanged between the stores, the risk engine and the
// HTTP layer. Derived state (risk categories) never lives on these types; it
// is computed by package signals.
package types

// RiskCategory is the ordinal risk level of a tracked individual.
// The order is green < amber < red.
type RiskCategory string

const (
	RiskGreen RiskCategory = "green"
	RiskAmber RiskCategory = "amber"
	RiskRed   RiskCategory = "red"
)

// RiskCategories lists every category from lowest to highest risk.
var RiskCategories = []RiskCategory{RiskGreen, RiskAmber, RiskRed}

// Rank maps the category onto 1..3 (green..red). Unknown values rank 0.
func (c RiskCategory) Rank() int {
	switch c {
	case RiskGreen:
		return 1
	case RiskAmber:
		return 2
	case RiskRed:
		return 3
	default:
		return 0
	}
}

// Less reports whether c is strictly lower risk than other.
func (c RiskCategory) Less(other RiskCategory) bool {
	return c.Rank() < other.Rank()
}

// IsValid returns true if the category is one of green, amber or red.
func (c RiskCategory) IsValid() bool {
	return c.Rank() > 0
}

// Label returns the display label for the category.
func (c RiskCategory) Label() string {
	switch c {
	case RiskGreen:
		return "Low Risk"
	case RiskAmber:
		return "Medium Risk"
	case RiskRed:
		return "High Risk"
	default:
		return "Unknown"
	}
}

// Color returns the badge colour for the category.
func (c RiskCategory) Color() string {
	switch c {
	case RiskGreen:
		return "#48bb78"
	case RiskAmber:
		return "#ed8936"
	case RiskRed:
		return "#e53e3e"
	default:
		return "#718096"
	}
}

// String returns the string representation of the category.
func (c RiskCategory) String() string {
	return string(c)
}

// MaxCategory returns the higher-risk of a and b.
func MaxCategory(a, b RiskCategory) RiskCategory {
	if a.Less(b) {
		return b
	}
	return a
}

// SignalKey names one of the boolean risk indicators held in a SignalSet.
type SignalKey string

const (
	SignalPreviousHomelessness   SignalKey = "previous_homelessness"
	SignalTemporaryAccommodation SignalKey = "temporary_accommodation"
	SignalCareStatus             SignalKey = "care_status"
	SignalParentalSubstanceAbuse SignalKey = "parental_substance_abuse"
	SignalParentalCrimes         SignalKey = "parental_crimes"
	SignalYouthJustice           SignalKey = "youth_justice"
	SignalEducationStatus        SignalKey = "education_status"
)

// SignalKeys lists every signal in display order.
var SignalKeys = []SignalKey{
	SignalPreviousHomelessness,
	SignalTemporaryAccommodation,
	SignalCareStatus,
	SignalParentalSubstanceAbuse,
	SignalParentalCrimes,
	SignalYouthJustice,
	SignalEducationStatus,
}

// IsValid returns true if the key names a known signal.
func (k SignalKey) IsValid() bool {
	for _, known := range SignalKeys {
		if k == known {
			return true
		}
	}
	return false
}

// SignalSet is the fixed set of risk indicators attached to a person.
// Signals missing from decoded JSON are false.
type SignalSet struct {
	PreviousHomelessness   bool `json:"previous_homelessness"`
	TemporaryAccommodation bool `json:"temporary_accommodation"`
	CareStatus             bool `json:"care_status"`
	ParentalSubstanceAbuse bool `json:"parental_substance_abuse"`
	ParentalCrimes         bool `json:"parental_crimes"`
	YouthJustice           bool `json:"youth_justice"`
	EducationStatus        bool `json:"education_status"`
}

func (s *SignalSet) field(key SignalKey) *bool {
	switch key {
	case SignalPreviousHomelessness:
		return &s.PreviousHomelessness
	case SignalTemporaryAccommodation:
		return &s.TemporaryAccommodation
	case SignalCareStatus:
		return &s.CareStatus
	case SignalParentalSubstanceAbuse:
		return &s.ParentalSubstanceAbuse
	case SignalParentalCrimes:
		return &s.ParentalCrimes
	case SignalYouthJustice:
		return &s.YouthJustice
	case SignalEducationStatus:
		return &s.EducationStatus
	default:
		return nil
	}
}

// Get returns the value of a signal. Unknown keys read as false.
func (s SignalSet) Get(key SignalKey) bool {
	if f := s.field(key); f != nil {
		return *f
	}
	return false
}

// Toggle flips one signal in place. Unknown keys leave the set untouched
// and return false.
func (s *SignalSet) Toggle(key SignalKey) bool {
	f := s.field(key)
	if f == nil {
		return false
	}
	*f = !*f
	return true
}

// Clear resets every signal to false.
func (s *SignalSet) Clear() {
	*s = SignalSet{}
}

// Count returns the number of signals that are set.
func (s SignalSet) Count() int {
	n := 0
	for _, k := range SignalKeys {
		if s.Get(k) {
			n++
		}
	}
	return n
}

// Active returns the keys of the signals that are set, in display order.
func (s SignalSet) Active() []SignalKey {
	active := make([]SignalKey, 0, len(SignalKeys))
	for _, k := range SignalKeys {
		if s.Get(k) {
			active = append(active, k)
		}
	}
	return active
}
