package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"

	"github.com/google/uuid"
)

// Scope narrows the conditions under which a relation's claim holds, as a
// flat attribute map (population, condition, dosage, ...). A nil Scope means
// the relation makes no scope claim at all ("generally applicable"), which
// is a different state from a scope that happens to be empty.
type Scope map[string]string

// Matches reports whether this scope satisfies the given filter.
//
// Matching is subset conjunction: every filter key must be present with an
// equal value; extra scope keys beyond the filter are ignored. A relation
// with no scope claim does not satisfy a non-empty filter — callers who want
// "also include general relations" must union those in themselves.
func (s Scope) Matches(filter map[string]string) bool {
	if s == nil {
		return len(filter) == 0
	}
	for k, want := range filter {
		got, ok := s[k]
		if !ok || got != want {
			return false
		}
	}
	return true
}

// ScopeHash computes the deterministic cache key digest for an entity and a
// normalized scope filter. Normalization is sorted key order; keys and
// values pass through verbatim. The model version is deliberately not part
// of the hash — it is a separate column in the cache key.
func ScopeHash(entityID uuid.UUID, filter Scope) string {
	h := sha256.New()
	h.Write(entityID[:])
	keys := make([]string, 0, len(filter))
	for k := range filter {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		// Quoting keeps "a"+"b=c" and "a=b"+"c" distinguishable.
		fmt.Fprintf(h, "%q=%q;", k, filter[k])
	}
	return hex.EncodeToString(h.Sum(nil))
}
