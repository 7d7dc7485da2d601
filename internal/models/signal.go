package models

import (
	"fmt"
	"time"
)

// SignalType is a crowd vote on a grid cell.
type SignalType uint8

const (
	SignalUnsafe SignalType = iota + 1
	SignalOK
)

func (s SignalType) String() string {
	switch s {
	case SignalUnsafe:
		return "unsafe"
	case SignalOK:
		return "ok"
	default:
		return fmt.Sprintf("SignalType(%d)", uint8(s))
	}
}

// ParseSignalType maps the wire literal onto a SignalType.
func ParseSignalType(s string) (SignalType, error) {
	switch s {
	case "unsafe":
		return SignalUnsafe, nil
	case "ok":
		return SignalOK, nil
	}
	return 0, fmt.Errorf("signal must be one of: unsafe, ok (got %q)", s)
}

func (s SignalType) MarshalText() ([]byte, error) {
	if s != SignalUnsafe && s != SignalOK {
		return nil, fmt.Errorf("invalid signal %d", uint8(s))
	}
	return []byte(s.String()), nil
}

func (s *SignalType) UnmarshalText(text []byte) error {
	parsed, err := ParseSignalType(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// Grid is a fixed-size map cell that signals are attached to.
type Grid struct {
	ID        int64     `json:"id"`
	GridID    string    `json:"gridId"`
	CenterLat float64   `json:"centerLat"`
	CenterLng float64   `json:"centerLng"`
	CreatedAt time.Time `json:"createdAt"`
}

// SafetySignal is one vote for a grid cell within an hourly timeslot.
type SafetySignal struct {
	ID        int64      `json:"id"`
	GridID    string     `json:"gridId"`
	Signal    SignalType `json:"signal"`
	Timeslot  time.Time  `json:"timeslot"`
	CreatedAt time.Time  `json:"createdAt"`
}

// SignalStats tallies the votes of one grid cell and timeslot.
type SignalStats struct {
	Unsafe int `json:"unsafe"`
	OK     int `json:"ok"`
	Total  int `json:"total"`
}
