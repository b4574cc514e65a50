package utils

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// AccessParam is a stop reachable from an entry point after Duration seconds.
type AccessParam struct {
	StopID   string
	Duration int32
}

func invalidField(fieldErrors map[string][]string, key string) map[string][]string {
	if fieldErrors == nil {
		fieldErrors = make(map[string][]string)
	}
	fieldErrors[key] = append(fieldErrors[key], fmt.Sprintf("Invalid field value for field %q.", key))
	return fieldErrors
}

// ParseListParam returns the values of key, given either as repeated
// parameters or as one comma separated list. Blank entries are dropped.
func ParseListParam(params url.Values, key string) []string {
	var values []string
	for _, raw := range params[key] {
		for _, v := range strings.Split(raw, ",") {
			if v = SanitizeInput(v); v != "" {
				values = append(values, v)
			}
		}
	}
	return values
}

// ParseIntParam retrieves an int value, def when the key is absent.
func ParseIntParam(params url.Values, key string, def int, fieldErrors map[string][]string) (int, map[string][]string) {
	val := params.Get(key)
	if val == "" {
		return def, fieldErrors
	}

	n, err := strconv.Atoi(val)
	if err != nil {
		return def, invalidField(fieldErrors, key)
	}
	return n, fieldErrors
}

// ParseBoolParam retrieves a bool value, def when the key is absent.
func ParseBoolParam(params url.Values, key string, def bool, fieldErrors map[string][]string) (bool, map[string][]string) {
	val := params.Get(key)
	if val == "" {
		return def, fieldErrors
	}

	b, err := strconv.ParseBool(val)
	if err != nil {
		return def, invalidField(fieldErrors, key)
	}
	return b, fieldErrors
}

// ParseDateTimesParam retrieves a list of YYYYMMDDTHHMMSS date-times.
func ParseDateTimesParam(params url.Values, key string, fieldErrors map[string][]string) ([]string, map[string][]string) {
	values := ParseListParam(params, key)
	for _, v := range values {
		if err := ValidateDateTime(v); err != nil {
			return nil, invalidField(fieldErrors, key)
		}
	}
	return values, fieldErrors
}

// ParseAccessParam retrieves a list of stop:seconds pairs. The duration
// follows the last colon so stop ids may contain colons themselves.
func ParseAccessParam(params url.Values, key string, fieldErrors map[string][]string) ([]AccessParam, map[string][]string) {
	var access []AccessParam
	for _, v := range ParseListParam(params, key) {
		sep := strings.LastIndexByte(v, ':')
		if sep <= 0 {
			return nil, invalidField(fieldErrors, key)
		}
		stopID := v[:sep]
		seconds, err := strconv.ParseInt(v[sep+1:], 10, 32)
		if err != nil || seconds < 0 || ValidateID(stopID) != nil {
			return nil, invalidField(fieldErrors, key)
		}
		access = append(access, AccessParam{StopID: stopID, Duration: int32(seconds)})
	}
	return access, fieldErrors
}
