package hooks

import (
	"strings"

	"github.com/jingkaihe/hushprint/internal/errx"
)

// List is an ordered set of entries. Order is insertion order and carries no
// meaning beyond display. An empty list means no suppression is active.
type List []Entry

// Clone returns a copy that shares no backing array with l. A nil list
// clones to an empty, non-nil list.
func (l List) Clone() List {
	out := make(List, len(l))
	copy(out, l)
	return out
}

// IndexOf returns the position of the entry with the given identity, or -1.
func (l List) IndexOf(k Key) int {
	for i, e := range l {
		if e.Key() == k {
			return i
		}
	}
	return -1
}

func (l List) Contains(k Key) bool {
	return l.IndexOf(k) >= 0
}

// Enabled returns the entries whose Enabled flag is set.
func (l List) Enabled() List {
	out := make(List, 0, len(l))
	for _, e := range l {
		if e.Enabled {
			out = append(out, e)
		}
	}
	return out
}

// Add appends an enabled entry built from owner and member.
func (l *List) Add(owner, member string) (Entry, error) {
	e, err := NewEntry(owner, member)
	if err != nil {
		return Entry{}, err
	}
	if l.Contains(e.Key()) {
		return Entry{}, errx.With(ErrDuplicate, ": %s", e)
	}
	*l = append(*l, e)
	return e, nil
}

// Toggle flips Enabled for the entry at index i.
func (l List) Toggle(i int) (Entry, error) {
	if err := l.checkIndex(i); err != nil {
		return Entry{}, err
	}
	l[i].Enabled = !l[i].Enabled
	return l[i], nil
}

// Remove deletes the entry at index i. Later entries shift down by one.
func (l *List) Remove(i int) (Entry, error) {
	if err := l.checkIndex(i); err != nil {
		return Entry{}, err
	}
	removed := (*l)[i]
	*l = append((*l)[:i], (*l)[i+1:]...)
	return removed, nil
}

func (l List) checkIndex(i int) error {
	if i < 0 || i >= len(l) {
		return errx.With(ErrIndex, ": %d (have %d)", i, len(l))
	}
	return nil
}

// Normalize trims identifiers and drops entries that are empty after
// trimming or repeat an earlier identity. The first occurrence wins.
func Normalize(in List) List {
	out := make(List, 0, len(in))
	seen := make(map[Key]struct{}, len(in))
	for _, e := range in {
		e.Owner = strings.TrimSpace(e.Owner)
		e.Member = strings.TrimSpace(e.Member)
		if e.Owner == "" || e.Member == "" {
			continue
		}
		if _, dup := seen[e.Key()]; dup {
			continue
		}
		seen[e.Key()] = struct{}{}
		out = append(out, e)
	}
	return out
}
