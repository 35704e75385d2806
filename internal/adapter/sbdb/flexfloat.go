package sbdb

import (
	"encoding/json"
	"strconv"
	"strings"
)

// flexFloat tolerates the SBDB habit of returning numbers as JSON numbers,
// bare strings, or strings with unit and uncertainty suffixes
// ("0.340±0.046 km"). Null and unparsable values are treated as absent.
type flexFloat struct {
	value float64
	ok    bool
}

// Float returns the parsed value and whether one was present.
func (f flexFloat) Float() (float64, bool) {
	return f.value, f.ok
}

func (f *flexFloat) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	if s == "null" || s == `""` {
		return nil
	}

	var num float64
	if err := json.Unmarshal(data, &num); err == nil {
		f.value, f.ok = num, true
		return nil
	}

	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		// Unexpected shape: treat as absent, never fatal.
		return nil
	}
	if v, ok := parseLooseFloat(str); ok {
		f.value, f.ok = v, true
	}
	return nil
}

// parseLooseFloat strips uncertainty notation and trailing units before
// parsing, keeping only the leading numeric token.
func parseLooseFloat(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	for _, sep := range []string{"±", "~", "(", "["} {
		if i := strings.Index(s, sep); i >= 0 {
			s = s[:i]
		}
	}
	if fields := strings.Fields(s); len(fields) > 0 {
		s = fields[0]
	} else {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
