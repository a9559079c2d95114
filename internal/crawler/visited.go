package crawler

import "sync"

// VisitedSet tracks normalized URLs already fetched during one crawl run.
// Each Spider owns exactly one VisitedSet per run; it is never shared
// between runs.
type VisitedSet struct {
	mu  sync.Mutex
	set map[string]bool
}

// NewVisitedSet creates an empty visited set.
func NewVisitedSet() *VisitedSet {
	return &VisitedSet{set: make(map[string]bool)}
}

// Contains reports whether the normalized URL has been visited.
func (v *VisitedSet) Contains(normalizedURL string) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.set[normalizedURL]
}

// Mark records the normalized URL as visited.
// Returns false if the URL was already marked, guaranteeing each URL is
// claimed by at most one caller.
func (v *VisitedSet) Mark(normalizedURL string) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.set[normalizedURL] {
		return false
	}
	v.set[normalizedURL] = true
	return true
}

// Len returns the number of unique URLs encountered.
func (v *VisitedSet) Len() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return len(v.set)
}
