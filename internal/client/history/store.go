package history

import (
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/echosync/internal/common"
	"github.com/google/uuid"
)

// Store is the clipboard history. It is safe for concurrent use.
type Store struct {
	mu       sync.RWMutex
	entries  []Entry
	selected string

	now   func() time.Time
	newID func() string
}

type Option func(*Store)

// WithClock replaces time.Now, mostly for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

func NewStore(opts ...Option) *Store {
	s := &Store{
		now:   time.Now,
		newID: uuid.NewString,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Append records content as the newest entry. It reports false, and changes
// nothing, when content equals the newest entry's content or when the store is
// full of pinned entries.
func (s *Store) Append(content string, source Source, deviceName string) (Entry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.entries) > 0 && s.entries[0].Content == content {
		return Entry{}, false
	}
	if len(s.entries) >= MaxEntries && s.oldestUnpinned() < 0 {
		return Entry{}, false
	}

	e := Entry{
		ID:          s.newID(),
		Content:     content,
		Timestamp:   s.now(),
		Source:      source,
		DeviceName:  deviceName,
		ContentType: Classify(content),
	}

	s.entries = append(s.entries, Entry{})
	copy(s.entries[1:], s.entries)
	s.entries[0] = e

	s.evict()
	return e, true
}

// evict drops the oldest unpinned entries until the cap holds. Pinned entries
// are never evicted, so a history of pinned entries may stay above the cap.
func (s *Store) evict() {
	for len(s.entries) > MaxEntries {
		idx := s.oldestUnpinned()
		if idx < 0 {
			return
		}
		if s.entries[idx].ID == s.selected {
			s.selected = ""
		}
		s.entries = append(s.entries[:idx], s.entries[idx+1:]...)
	}
}

// TogglePin flips the pinned flag and returns the new value.
func (s *Store) TogglePin(id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return false, common.ErrNotFound
	}
	s.entries[i].Pinned = !s.entries[i].Pinned
	return s.entries[i].Pinned, nil
}

// Delete removes the entry, pinned or not, and drops the selection if it
// pointed at it.
func (s *Store) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return common.ErrNotFound
	}
	s.entries = append(s.entries[:i], s.entries[i+1:]...)
	if s.selected == id {
		s.selected = ""
	}
	return nil
}

// Clear removes every unpinned entry and the selection.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.entries[:0]
	for _, e := range s.entries {
		if e.Pinned {
			kept = append(kept, e)
		}
	}
	clear(s.entries[len(kept):])
	s.entries = kept
	s.selected = ""
}

// Select marks the entry shown in the preview.
func (s *Store) Select(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.indexOf(id) < 0 {
		return common.ErrNotFound
	}
	s.selected = id
	return nil
}

// Selected returns the previewed entry, if any.
func (s *Store) Selected() (Entry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.selected == "" {
		return Entry{}, false
	}
	i := s.indexOf(s.selected)
	if i < 0 {
		return Entry{}, false
	}
	return s.entries[i], true
}

// Get returns the entry with the given id.
func (s *Store) Get(id string) (Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i := s.indexOf(id)
	if i < 0 {
		return Entry{}, common.ErrNotFound
	}
	return s.entries[i], nil
}

// Latest returns the most recently inserted entry.
func (s *Store) Latest() (Entry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.entries) == 0 {
		return Entry{}, false
	}
	return s.entries[0], true
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Query returns the entries of the given type (FilterAll for any) whose
// content contains search, case-insensitively, in read order.
func (s *Store) Query(filter ContentType, search string) []Entry {
	s.mu.RLock()
	needle := strings.ToLower(search)
	out := make([]Entry, 0, len(s.entries))
	for _, e := range s.entries {
		if filter != FilterAll && filter != "" && e.ContentType != filter {
			continue
		}
		if needle != "" && !strings.Contains(strings.ToLower(e.Content), needle) {
			continue
		}
		out = append(out, e)
	}
	s.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Pinned != out[j].Pinned {
			return out[i].Pinned
		}
		return out[i].Timestamp.After(out[j].Timestamp)
	})
	return out
}

// List is Query without filters.
func (s *Store) List() []Entry {
	return s.Query(FilterAll, "")
}

// Snapshot returns the entries in insertion order, newest first.
func (s *Store) Snapshot() []Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Entry, len(s.entries))
	copy(out, s.entries)
	return out
}

// Restore replaces the history with entries given newest first. Entries
// without a content type are classified; the cap is enforced on unpinned
// entries only.
func (s *Store) Restore(entries []Entry) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries = make([]Entry, 0, len(entries))
	for _, e := range entries {
		if e.ContentType == "" {
			e.ContentType = Classify(e.Content)
		}
		if e.ID == "" {
			e.ID = s.newID()
		}
		s.entries = append(s.entries, e)
	}
	s.selected = ""
	s.evict()
}

func (s *Store) oldestUnpinned() int {
	for i := len(s.entries) - 1; i >= 0; i-- {
		if !s.entries[i].Pinned {
			return i
		}
	}
	return -1
}

func (s *Store) indexOf(id string) int {
	for i := range s.entries {
		if s.entries[i].ID == id {
			return i
		}
	}
	return -1
}
