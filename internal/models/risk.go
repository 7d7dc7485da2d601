package models

import "fmt"

// RiskLevel is the four-tier classification of a cluster.
type RiskLevel uint8

const (
	RiskLow RiskLevel = iota
	RiskMedium
	RiskHigh
	RiskCritical
)

func (r RiskLevel) String() string {
	switch r {
	case RiskLow:
		return "low"
	case RiskMedium:
		return "medium"
	case RiskHigh:
		return "high"
	case RiskCritical:
		return "critical"
	default:
		return fmt.Sprintf("RiskLevel(%d)", uint8(r))
	}
}

func (r RiskLevel) MarshalText() ([]byte, error) {
	if r > RiskCritical {
		return nil, fmt.Errorf("invalid risk level %d", uint8(r))
	}
	return []byte(r.String()), nil
}

func (r *RiskLevel) UnmarshalText(text []byte) error {
	for _, lvl := range []RiskLevel{RiskLow, RiskMedium, RiskHigh, RiskCritical} {
		if lvl.String() == string(text) {
			*r = lvl
			return nil
		}
	}
	return fmt.Errorf("unknown risk level %q", text)
}
