// Package roles parses and encodes the role set stored on an account.
//
// Role sets are persisted as JSON arrays. Older rows may hold a bracketed,
// comma separated list such as [ROLE_ADMIN,ROLE_USER]; both forms parse.
package roles

import (
	"encoding/json"
	"slices"
	"strings"
)

const (
	User  = "ROLE_USER"
	Admin = "ROLE_ADMIN"
)

// Resolve returns the effective role set for a stored value. An empty or
// unparseable value yields the default role.
func Resolve(raw string) []string {
	out := Parse(raw)
	if len(out) == 0 {
		return []string{User}
	}
	return out
}

// Parse decodes raw without applying the default.
func Parse(raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}

	var list []string
	if err := json.Unmarshal([]byte(raw), &list); err == nil {
		return Clean(list)
	}

	raw = strings.TrimPrefix(raw, "[")
	raw = strings.TrimSuffix(raw, "]")
	return Clean(strings.Split(raw, ","))
}

// Clean trims entries, drops empties and removes duplicates preserving order.
func Clean(in []string) []string {
	out := make([]string, 0, len(in))
	for _, r := range in {
		r = strings.TrimSpace(r)
		if r == "" || slices.Contains(out, r) {
			continue
		}
		out = append(out, r)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// Encode serializes a role set in the canonical stored form.
func Encode(set []string) string {
	set = Clean(set)
	if set == nil {
		set = []string{}
	}
	b, _ := json.Marshal(set)
	return string(b)
}

func Has(set []string, role string) bool {
	return slices.Contains(set, role)
}
