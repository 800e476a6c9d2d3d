package server

import (
	"maps"
	"slices"
	"sort"
	"sync"
	"time"
)

// OptionCatalog maps an option endpoint path to the lists it serves, keyed
// by the dependency value sent in the value query parameter.
type OptionCatalog map[string]map[string][]string

// Lookup returns the options for value, or an empty list.
func (c OptionCatalog) Lookup(endpoint, value string) []string {
	if options, ok := c[endpoint][value]; ok {
		return slices.Clone(options)
	}
	return []string{}
}

// DefaultOptions is the state list served by the insurance portal.
func DefaultOptions() OptionCatalog {
	return OptionCatalog{
		"/api/getStates": {
			"USA":    {"California", "Texas", "New York", "Florida"},
			"Canada": {"Ontario", "Quebec", "British Columbia"},
		},
	}
}

// Submission is one stored form submission.
type Submission struct {
	ID        string
	Values    map[string]any
	CreatedAt time.Time
}

// Row flattens the submission into a table row keyed by column.
func (s Submission) Row() map[string]any {
	row := maps.Clone(s.Values)
	if row == nil {
		row = make(map[string]any, 1)
	}
	row["id"] = s.ID
	return row
}

// SubmissionStore keeps submissions in memory, safe for concurrent use.
type SubmissionStore struct {
	mu    sync.RWMutex
	items []Submission
}

func NewSubmissionStore() *SubmissionStore {
	return &SubmissionStore{}
}

func (s *SubmissionStore) Add(sub Submission) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = append(s.items, sub)
}

// List returns a copy of the stored submissions, oldest first.
func (s *SubmissionStore) List() []Submission {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.items)
}

// Columns returns "id" followed by the sorted union of the value keys.
func Columns(subs []Submission) []string {
	set := make(map[string]struct{})
	for _, sub := range subs {
		for key := range sub.Values {
			if key != "id" {
				set[key] = struct{}{}
			}
		}
	}
	keys := make([]string, 0, len(set))
	for key := range set {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return append([]string{"id"}, keys...)
}
