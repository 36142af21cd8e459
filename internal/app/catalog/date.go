package catalog

import (
	"reflect"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
)

// dateLayouts are the accepted catalog date formats, tried in order.
var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04",
	time.DateOnly,
}

// ParseDate parses a catalog date. Dates without a zone are read as UTC.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// dateHookFunc converts catalog dates into time.Time.
// Values that cannot be parsed decode to the zero time.
func dateHookFunc() mapstructure.DecodeHookFuncType {
	timeType := reflect.TypeOf(time.Time{})
	return func(from reflect.Type, to reflect.Type, data any) (any, error) {
		if to != timeType {
			return data, nil
		}
		if from.Kind() != reflect.String {
			return time.Time{}, nil
		}
		t, _ := ParseDate(data.(string))
		return t, nil
	}
}
