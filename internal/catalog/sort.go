package catalog

import (
	"sort"

	"github.com/vitrinecli/vitrine/internal/api"
)

// SortField names a sortable column of the collection view.
type SortField string

const (
	SortTitle   SortField = "title"
	SortStatus  SortField = "status"
	SortUpdated SortField = "updatedAt"
)

// SortSpec is the active client-side ordering. It reorders only the
// currently loaded page and never changes page or totalPages. The ordering
// persists across fetches: each newly loaded page is re-sorted under it
// until the caller clears or toggles it.
type SortSpec struct {
	Field SortField
	Desc  bool
}

// SetSort applies or toggles the ordering the way a column-header click
// does: a new field sorts ascending, the same field flips the direction.
func (s *Store) SetSort(field SortField) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sort != nil && s.sort.Field == field && !s.sort.Desc {
		s.sort.Desc = true
	} else {
		s.sort = &SortSpec{Field: field}
	}
	s.resortLocked()
}

// ClearSort removes the client-side ordering; items keep the order the
// server returned them in from the next fetch on.
func (s *Store) ClearSort() {
	s.mu.Lock()
	s.sort = nil
	s.mu.Unlock()
}

// resortLocked re-applies the active sort over the loaded page. Stable:
// records with equal keys keep their prior relative order. Records whose
// key is absent order after all present ones regardless of direction.
func (s *Store) resortLocked() {
	if s.sort == nil {
		return
	}
	field, desc := s.sort.Field, s.sort.Desc
	sort.SliceStable(s.items, func(i, j int) bool {
		return s.less(s.items[i], s.items[j], field, desc)
	})
}

func (s *Store) less(a, b api.Product, field SortField, desc bool) bool {
	aPresent, bPresent := present(a, field), present(b, field)
	// Absence is checked before the direction flip so absent values land
	// last under both asc and desc.
	if !aPresent || !bPresent {
		return aPresent && !bPresent
	}

	cmp := 0
	switch field {
	case SortTitle:
		cmp = s.collator.CompareString(a.Title, b.Title)
	case SortStatus:
		// inactive < active
		if a.Status != b.Status {
			if b.Status {
				cmp = -1
			} else {
				cmp = 1
			}
		}
	case SortUpdated:
		if a.UpdatedAt.Before(b.UpdatedAt) {
			cmp = -1
		} else if a.UpdatedAt.After(b.UpdatedAt) {
			cmp = 1
		}
	}
	if desc {
		return cmp > 0
	}
	return cmp < 0
}

// present reports whether the record carries a value for the sort field.
func present(p api.Product, field SortField) bool {
	switch field {
	case SortTitle:
		return p.Title != ""
	case SortUpdated:
		return !p.UpdatedAt.IsZero()
	default:
		return true
	}
}
