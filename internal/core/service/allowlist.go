package service

import (
	"strings"
	"sync/atomic"
)

// AllowList decides which email domains may receive login links.
type AllowList struct {
	domains atomic.Pointer[map[string]struct{}]
}

// NewAllowList creates an allow-list from a comma-separated domain list.
func NewAllowList(list string) *AllowList {
	a := &AllowList{}
	a.Reload(list)
	return a
}

// Reload atomically replaces the domain set. Blank entries are ignored.
func (a *AllowList) Reload(list string) {
	set := make(map[string]struct{})
	for _, d := range strings.Split(list, ",") {
		if d = strings.TrimSpace(d); d != "" {
			set[d] = struct{}{}
		}
	}
	a.domains.Store(&set)
}

// IsAllowed reports whether the part of email after its first "@" exactly
// matches an allowed domain.
func (a *AllowList) IsAllowed(email string) bool {
	_, domain, ok := strings.Cut(email, "@")
	if !ok || domain == "" {
		return false
	}
	_, allowed := (*a.domains.Load())[domain]
	return allowed
}

// Len returns the number of allowed domains.
func (a *AllowList) Len() int {
	return len(*a.domains.Load())
}
