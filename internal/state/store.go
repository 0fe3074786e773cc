// Package state holds the shared application state: the active filter
// and user preferences. The store is injected explicitly into its
// consumers and mutated only through typed actions, so there is no
// ambient singleton to reason about.
package state

import (
	"log/slog"
	"strings"
	"sync"
	"time"

	"finboard/internal/core"
)

// DefaultSearchDebounce is how long the committed search value trails
// the last keystroke.
const DefaultSearchDebounce = 300 * time.Millisecond

// Action mutates the store. The concrete set is closed: handlers
// construct one of the types below and Dispatch it.
type Action interface {
	isAction()
}

type (
	// SetFilter sets one filter field. An empty value removes the field
	// from the active set instead of storing an empty string.
	SetFilter struct {
		Field core.FilterField
		Value string
	}

	// ClearFilter removes one filter field.
	ClearFilter struct {
		Field core.FilterField
	}

	// ClearFilters removes every filter field.
	ClearFilters struct{}

	// SetCurrency changes the display currency preference.
	SetCurrency struct {
		Currency string
	}

	// SetLanguage changes the language preference.
	SetLanguage struct {
		Language string
	}
)

func (SetFilter) isAction()    {}
func (ClearFilter) isAction()  {}
func (ClearFilters) isAction() {}
func (SetCurrency) isAction()  {}
func (SetLanguage) isAction()  {}

// Snapshot is an immutable copy of the store contents.
type Snapshot struct {
	Filter      core.Filter
	Preferences core.Preferences
}

// Listener is notified after every committed state change.
type Listener func(Snapshot)

// Store holds filter and preference state behind a mutex. Search input
// is debounced: SearchInput updates the pending value immediately and
// commits it into the filter only after the debounce window passes
// with no further keystrokes.
type Store struct {
	mu        sync.Mutex
	filter    core.Filter
	prefs     core.Preferences
	listeners []Listener

	debounce    time.Duration
	searchInput string
	searchTimer *time.Timer
}

// Option configures a Store.
type Option func(*Store)

// WithSearchDebounce overrides the search debounce window. Tests use a
// short window to keep the suite fast.
func WithSearchDebounce(d time.Duration) Option {
	return func(s *Store) { s.debounce = d }
}

// New creates a store with the given initial preferences.
func New(prefs core.Preferences, opts ...Option) *Store {
	s := &Store{
		prefs:    prefs,
		debounce: DefaultSearchDebounce,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Subscribe registers a listener for committed changes.
func (s *Store) Subscribe(l Listener) {
	s.mu.Lock()
	s.listeners = append(s.listeners, l)
	s.mu.Unlock()
}

// Dispatch applies a typed action and notifies listeners.
func (s *Store) Dispatch(a Action) {
	s.mu.Lock()
	switch act := a.(type) {
	case SetFilter:
		s.setFilterLocked(act.Field, strings.TrimSpace(act.Value))
	case ClearFilter:
		s.setFilterLocked(act.Field, "")
	case ClearFilters:
		s.filter = core.Filter{}
		// External commit: the pending search input resets to match.
		s.searchInput = ""
		s.stopSearchTimerLocked()
	case SetCurrency:
		if act.Currency != "" {
			s.prefs.Currency = act.Currency
		}
	case SetLanguage:
		if act.Language != "" {
			s.prefs.Language = act.Language
		}
	}
	snap := s.snapshotLocked()
	listeners := s.listeners
	s.mu.Unlock()

	for _, l := range listeners {
		l(snap)
	}
}

func (s *Store) setFilterLocked(field core.FilterField, value string) {
	switch field {
	case core.FieldSearch:
		s.filter.Search = value
		// Direct commit overrides any pending debounced input.
		s.searchInput = value
		s.stopSearchTimerLocked()
	case core.FieldCategory:
		s.filter.Category = value
	case core.FieldType:
		s.filter.Type = core.TransactionType(value)
	case core.FieldStartDate:
		s.filter.StartDate = parseDate(value)
	case core.FieldEndDate:
		s.filter.EndDate = parseDate(value)
	default:
		slog.Warn("Unknown filter field ignored", "field", string(field))
	}
}

// SearchInput records a keystroke. The pending value is visible via
// PendingSearch immediately; the filter itself commits after the
// debounce window of quiescence, producing exactly one listener
// notification per burst of typing.
func (s *Store) SearchInput(value string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.searchInput = value
	s.stopSearchTimerLocked()
	s.searchTimer = time.AfterFunc(s.debounce, func() {
		s.commitSearch(value)
	})
}

func (s *Store) commitSearch(value string) {
	s.mu.Lock()
	// A newer keystroke or an external commit may have superseded this
	// timer while it was firing.
	if s.searchInput != value {
		s.mu.Unlock()
		return
	}
	s.filter.Search = strings.TrimSpace(value)
	snap := s.snapshotLocked()
	listeners := s.listeners
	s.mu.Unlock()

	for _, l := range listeners {
		l(snap)
	}
}

func (s *Store) stopSearchTimerLocked() {
	if s.searchTimer != nil {
		s.searchTimer.Stop()
		s.searchTimer = nil
	}
}

// PendingSearch returns the uncommitted search input for responsive
// echo in the UI.
func (s *Store) PendingSearch() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.searchInput
}

// Filter returns the committed filter.
func (s *Store) Filter() core.Filter {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.filter
}

// Preferences returns the current preferences.
func (s *Store) Preferences() core.Preferences {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.prefs
}

// HasActiveFilters reports whether any filter field is set.
func (s *Store) HasActiveFilters() bool {
	return s.Filter().HasActive()
}

// Snapshot returns a consistent copy of filter and preferences.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Store) snapshotLocked() Snapshot {
	return Snapshot{Filter: s.filter, Preferences: s.prefs}
}

func parseDate(v string) time.Time {
	if v == "" {
		return time.Time{}
	}
	t, err := time.Parse("2006-01-02", v)
	if err != nil {
		slog.Warn("Invalid filter date ignored", "value", v, "error", err)
		return time.Time{}
	}
	return t
}
