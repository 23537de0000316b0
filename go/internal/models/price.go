package models

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Price is a driver price or budget amount in tenths of a credit.
// Integer arithmetic keeps repeated budget validation exact; 7.5 credits
// is Price(75).
type Price int64

// PriceFromTenths builds a Price from a raw tenths count.
func PriceFromTenths(tenths int64) Price {
	return Price(tenths)
}

// ParsePrice parses a decimal string such as "7.5" or "12" into a Price.
// At most one fractional digit is allowed.
func ParsePrice(s string) (Price, error) {
	s = strings.TrimSpace(s)
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}
	whole, frac, hasFrac := strings.Cut(s, ".")
	if whole == "" {
		whole = "0"
	}
	w, err := strconv.ParseInt(whole, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid price %q: %w", s, err)
	}
	tenths := w * 10
	if hasFrac {
		if len(frac) != 1 {
			return 0, fmt.Errorf("invalid price %q: at most one decimal place", s)
		}
		f, err := strconv.ParseInt(frac, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid price %q: %w", s, err)
		}
		tenths += f
	}
	if neg {
		tenths = -tenths
	}
	return Price(tenths), nil
}

// Tenths returns the raw tenths count.
func (p Price) Tenths() int64 {
	return int64(p)
}

// String renders the price as a decimal, e.g. "7.5".
func (p Price) String() string {
	t := int64(p)
	sign := ""
	if t < 0 {
		sign = "-"
		t = -t
	}
	return fmt.Sprintf("%s%d.%d", sign, t/10, t%10)
}

// MarshalJSON encodes the price as a JSON number with one decimal place.
func (p Price) MarshalJSON() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalJSON accepts either a JSON number or a quoted decimal string.
func (p *Price) UnmarshalJSON(data []byte) error {
	var raw json.Number
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		raw = json.Number(s)
	} else if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	parsed, err := ParsePrice(raw.String())
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}
