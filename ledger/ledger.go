package ledger

import (
	"golang.org/x/xerrors"
)

// Range is a contiguous, inclusive interval of ticket positions owned by a
// single deposit.
type Range struct {
	Lower uint64
	Upper uint64
}

// Holds returns true if pos falls inside the range.
func (r Range) Holds(pos uint64) bool {
	return pos >= r.Lower && pos <= r.Upper
}

// Size is the number of tickets in the range, which equals the principal
// that bought it.
func (r Range) Size() uint64 {
	return r.Upper - r.Lower + 1
}

// Entry holds the ordered ranges of one depositor. Key is the hex-encoded
// public key of the depositor.
type Entry struct {
	Key    string
	Ranges []Range
}

// Ledger assigns ticket ranges to depositors. Ranges never overlap and
// their union is always the contiguous interval [0, Free). Entries are only
// appended to; withdrawal bookkeeping lives elsewhere.
type Ledger struct {
	Entries []Entry
	Free    uint64

	index map[string]int
}

// Allocate appends a range of amount tickets to the depositor's entry and
// returns it. A depositor of size N occupies N positions of the ticket
// space, so selection probability is proportional to deposit size.
func (l *Ledger) Allocate(key string, amount uint64) (Range, error) {
	if amount == 0 {
		return Range{}, xerrors.New("amount must be positive")
	}
	r := Range{Lower: l.Free, Upper: l.Free + amount - 1}
	idx, ok := l.lookup(key)
	if !ok {
		l.Entries = append(l.Entries, Entry{Key: key})
		idx = len(l.Entries) - 1
		l.index[key] = idx
	}
	l.Entries[idx].Ranges = append(l.Entries[idx].Ranges, r)
	l.Free += amount
	return r, nil
}

// HoldsTicket reports whether pos belongs to one of the depositor's ranges.
// Linear in the depositor's own range count, never in the depositor count.
func (l *Ledger) HoldsTicket(key string, pos uint64) bool {
	idx, ok := l.lookup(key)
	if !ok {
		return false
	}
	for _, r := range l.Entries[idx].Ranges {
		if r.Holds(pos) {
			return true
		}
	}
	return false
}

// PrincipalOf sums the sizes of the depositor's ranges, which is exactly
// the amount they deposited.
func (l *Ledger) PrincipalOf(key string) uint64 {
	idx, ok := l.lookup(key)
	if !ok {
		return 0
	}
	var sum uint64
	for _, r := range l.Entries[idx].Ranges {
		sum += r.Size()
	}
	return sum
}

// Total is the number of tickets issued so far.
func (l *Ledger) Total() uint64 {
	return l.Free
}

// lookup finds a depositor's entry index. The index map is not serialized;
// it is rebuilt lazily after a decode.
func (l *Ledger) lookup(key string) (int, bool) {
	if l.index == nil {
		l.index = make(map[string]int)
		for i, e := range l.Entries {
			l.index[e.Key] = i
		}
	}
	idx, ok := l.index[key]
	return idx, ok
}
