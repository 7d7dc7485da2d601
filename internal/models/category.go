package models

import (
	"fmt"
)

// Category is the closed set of danger report types.
type Category uint8

const (
	CategoryLight Category = iota + 1
	CategoryFew
	CategoryMonitor
	CategoryDangerous
)

// Categories lists every valid category in canonical order.
var Categories = []Category{CategoryLight, CategoryFew, CategoryMonitor, CategoryDangerous}

func (c Category) String() string {
	switch c {
	case CategoryLight:
		return "light"
	case CategoryFew:
		return "few"
	case CategoryMonitor:
		return "monitor"
	case CategoryDangerous:
		return "dangerous"
	default:
		return fmt.Sprintf("Category(%d)", uint8(c))
	}
}

// Valid reports whether c is one of the four known categories.
func (c Category) Valid() bool {
	return c >= CategoryLight && c <= CategoryDangerous
}

// ParseCategory maps the wire literal onto a Category.
func ParseCategory(s string) (Category, error) {
	for _, c := range Categories {
		if c.String() == s {
			return c, nil
		}
	}
	return 0, fmt.Errorf("type must be one of: light, few, monitor, dangerous (got %q)", s)
}

func (c Category) MarshalText() ([]byte, error) {
	if !c.Valid() {
		return nil, fmt.Errorf("invalid category %d", uint8(c))
	}
	return []byte(c.String()), nil
}

func (c *Category) UnmarshalText(text []byte) error {
	parsed, err := ParseCategory(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// CategoryCounts is a per-category tally.
type CategoryCounts struct {
	Light     int `json:"light"`
	Few       int `json:"few"`
	Monitor   int `json:"monitor"`
	Dangerous int `json:"dangerous"`
}

// Add increments the counter for c.
func (cc *CategoryCounts) Add(c Category) {
	switch c {
	case CategoryLight:
		cc.Light++
	case CategoryFew:
		cc.Few++
	case CategoryMonitor:
		cc.Monitor++
	case CategoryDangerous:
		cc.Dangerous++
	}
}

// Total is the sum over all categories.
func (cc CategoryCounts) Total() int {
	return cc.Light + cc.Few + cc.Monitor + cc.Dangerous
}
