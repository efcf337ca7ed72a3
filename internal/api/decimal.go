package api

import (
	"fmt"
	"strconv"
	"strings"
)

// Decimal is a float64 that also accepts string-encoded numbers in request
// bodies, since some clients quote numeric fields. An empty string decodes
// to zero.
type Decimal float64

func (d *Decimal) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = s[1 : len(s)-1]
	}
	if s == "" || s == "null" {
		*d = 0
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("invalid number %q", s)
	}
	*d = Decimal(v)
	return nil
}

// Float64Ptr returns the value as a *float64, nil when the field was absent.
func (d *Decimal) Float64Ptr() *float64 {
	if d == nil {
		return nil
	}
	v := float64(*d)
	return &v
}
