package http

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"tracepay/internal/core"
)

const defaultForensicLimit = 20

// ParsePage reads skip and limit from the query, defaulting to the first
// page of core.DefaultPageLimit users.
func ParsePage(query url.Values) (core.PageRequest, error) {
	page := core.PageRequest{Skip: 0, Limit: core.DefaultPageLimit}

	var err error
	if page.Skip, err = intParam(query, "skip", page.Skip); err != nil {
		return page, err
	}
	if page.Limit, err = intParam(query, "limit", page.Limit); err != nil {
		return page, err
	}
	return page, page.Validate()
}

// ParseDays reads the temporal window, defaulting to core.DefaultTemporalDays.
func ParseDays(query url.Values) (int, error) {
	days, err := intParam(query, "days", core.DefaultTemporalDays)
	if err != nil {
		return 0, err
	}
	return days, core.ValidateDays(days)
}

// ParseLimit reads a positive limit capped at core.MaxPageLimit.
func ParseLimit(query url.Values, def int) (int, error) {
	limit, err := intParam(query, "limit", def)
	if err != nil {
		return 0, err
	}
	if limit < 1 || limit > core.MaxPageLimit {
		return 0, fmt.Errorf("%w: limit must be between 1 and %d", core.ErrInvalidPage, core.MaxPageLimit)
	}
	return limit, nil
}

// ParseForce reports whether the caller asked to bypass the cache gate.
// Accepts the strconv.ParseBool spellings; anything else is false.
func ParseForce(query url.Values) bool {
	v, err := strconv.ParseBool(strings.TrimSpace(query.Get("force")))
	return err == nil && v
}

func intParam(query url.Values, name string, def int) (int, error) {
	raw := strings.TrimSpace(query.Get(name))
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be a whole number", core.ErrInvalidPage, name)
	}
	return v, nil
}

// sanitizeInput removes control characters and trims whitespace.
func sanitizeInput(s string) string {
	return strings.Map(func(r rune) rune {
		if r < 32 && r != '\t' {
			return -1
		}
		return r
	}, strings.TrimSpace(s))
}
