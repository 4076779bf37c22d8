// Package config implements the flat key/value configuration bag spec §6
// describes: dotted keys (e.g. "lightstrategy.entry.radius") resolving to
// typed values, with defaults for any key the caller hasn't set.
package config

import (
	"strconv"
	"strings"
)

// Properties is a flat, dotted-key property bag. Values are stored as
// strings (the common denominator for every source — CLI flags, YAML
// scalars, programmatic Set calls) and parsed on read by the typed
// accessor the caller asks for.
type Properties struct {
	values map[string]string
}

// NewProperties returns an empty Properties bag.
func NewProperties() *Properties {
	return &Properties{values: make(map[string]string)}
}

// Set stores value (already stringified) under key.
func (p *Properties) Set(key, value string) *Properties {
	p.values[key] = value
	return p
}

// SetFloat is a convenience wrapper around Set for float64 values.
func (p *Properties) SetFloat(key string, value float64) *Properties {
	return p.Set(key, strconv.FormatFloat(value, 'g', -1, 64))
}

// SetInt is a convenience wrapper around Set for int values.
func (p *Properties) SetInt(key string, value int) *Properties {
	return p.Set(key, strconv.Itoa(value))
}

// SetBool is a convenience wrapper around Set for bool values.
func (p *Properties) SetBool(key string, value bool) *Properties {
	return p.Set(key, strconv.FormatBool(value))
}

// Has reports whether key has been explicitly set.
func (p *Properties) Has(key string) bool {
	_, ok := p.values[key]
	return ok
}

// GetString returns the raw string stored under key, or def if unset.
func (p *Properties) GetString(key, def string) string {
	if v, ok := p.values[key]; ok {
		return v
	}
	return def
}

// GetFloat parses key as a float32, returning def if unset or unparsable.
func (p *Properties) GetFloat(key string, def float32) float32 {
	v, ok := p.values[key]
	if !ok {
		return def
	}
	f, err := strconv.ParseFloat(v, 32)
	if err != nil {
		return def
	}
	return float32(f)
}

// GetInt parses key as an int, returning def if unset or unparsable.
func (p *Properties) GetInt(key string, def int) int {
	v, ok := p.values[key]
	if !ok {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return i
}

// GetBool parses key as a bool, returning def if unset or unparsable.
func (p *Properties) GetBool(key string, def bool) bool {
	v, ok := p.values[key]
	if !ok {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

// Keys returns every key currently set, in no particular order.
func (p *Properties) Keys() []string {
	keys := make([]string, 0, len(p.values))
	for k := range p.values {
		keys = append(keys, k)
	}
	return keys
}

// WithPrefix returns a view restricted to keys beginning with prefix+".",
// re-keyed with the prefix stripped, matching the "<prefix>.
// visibilitymapcache.*" namespacing spec §6 uses for ELVC.
func (p *Properties) WithPrefix(prefix string) *Properties {
	sub := NewProperties()
	full := prefix + "."
	for k, v := range p.values {
		if strings.HasPrefix(k, full) {
			sub.values[strings.TrimPrefix(k, full)] = v
		}
	}
	return sub
}
