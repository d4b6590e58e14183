package models

import "strings"

// DefaultNamePrefix matches the needle surname pool.
const DefaultNamePrefix = "F"

// Filter selects records by exact gender and case-insensitive full name prefix.
type Filter struct {
	Gender     string
	NamePrefix string
}

// DefaultFilter is the query the optimizer tunes for.
func DefaultFilter() Filter {
	return Filter{Gender: GenderMale, NamePrefix: DefaultNamePrefix}
}

// Matches applies the filter predicate in memory.
func (f Filter) Matches(e Employee) bool {
	if e.Gender != f.Gender {
		return false
	}
	return strings.HasPrefix(strings.ToLower(e.FullName), strings.ToLower(f.NamePrefix))
}

// LikePattern returns the ILIKE pattern for the prefix with LIKE
// metacharacters escaped, so the prefix is matched literally.
func (f Filter) LikePattern() string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(f.NamePrefix) + "%"
}
