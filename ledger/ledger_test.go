package ledger

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.dedis.ch/protobuf"
)

func TestAllocate(t *testing.T) {
	l := &Ledger{}
	r, err := l.Allocate("a", 100)
	require.NoError(t, err)
	require.Equal(t, Range{0, 99}, r)
	r, err = l.Allocate("b", 50)
	require.NoError(t, err)
	require.Equal(t, Range{100, 149}, r)
	r, err = l.Allocate("c", 350)
	require.NoError(t, err)
	require.Equal(t, Range{150, 499}, r)
	require.Equal(t, uint64(500), l.Total())

	_, err = l.Allocate("a", 0)
	require.Error(t, err)
	require.Equal(t, uint64(500), l.Total())
}

func TestAllocateAppendsToEntry(t *testing.T) {
	l := &Ledger{}
	_, err := l.Allocate("a", 10)
	require.NoError(t, err)
	_, err = l.Allocate("b", 5)
	require.NoError(t, err)
	_, err = l.Allocate("a", 20)
	require.NoError(t, err)

	require.Len(t, l.Entries, 2)
	require.Len(t, l.Entries[0].Ranges, 2)
	require.Equal(t, uint64(30), l.PrincipalOf("a"))
	require.Equal(t, uint64(5), l.PrincipalOf("b"))
	require.Equal(t, uint64(0), l.PrincipalOf("nobody"))
}

func TestHoldsTicket(t *testing.T) {
	l := &Ledger{}
	l.Allocate("a", 100)
	l.Allocate("b", 50)
	l.Allocate("c", 350)

	// 1234 % 500 = 234 falls in c's range, not a's or b's
	require.True(t, l.HoldsTicket("c", 234))
	require.False(t, l.HoldsTicket("a", 234))
	require.False(t, l.HoldsTicket("b", 234))

	require.True(t, l.HoldsTicket("a", 0))
	require.True(t, l.HoldsTicket("a", 99))
	require.True(t, l.HoldsTicket("b", 100))
	require.True(t, l.HoldsTicket("b", 149))
	require.True(t, l.HoldsTicket("c", 499))
	require.False(t, l.HoldsTicket("c", 500))
	require.False(t, l.HoldsTicket("nobody", 0))
}

func TestRangeIntegrity(t *testing.T) {
	l := &Ledger{}
	keys := []string{"a", "b", "c", "a", "b", "a"}
	amounts := []uint64{7, 1, 19, 3, 64, 2}
	for i, k := range keys {
		_, err := l.Allocate(k, amounts[i])
		require.NoError(t, err)
	}
	// every position is held by exactly one depositor
	for pos := uint64(0); pos < l.Total(); pos++ {
		holders := 0
		for _, k := range []string{"a", "b", "c"} {
			if l.HoldsTicket(k, pos) {
				holders++
			}
		}
		require.Equal(t, 1, holders, "position %d", pos)
	}
	var total uint64
	for _, k := range []string{"a", "b", "c"} {
		total += l.PrincipalOf(k)
	}
	require.Equal(t, l.Total(), total)
}

func TestLedgerRoundTrip(t *testing.T) {
	l := &Ledger{}
	l.Allocate("a", 100)
	l.Allocate("b", 50)
	buf, err := protobuf.Encode(l)
	require.NoError(t, err)

	dec := &Ledger{}
	require.NoError(t, protobuf.Decode(buf, dec))
	// the index map is rebuilt lazily after decode
	require.True(t, dec.HoldsTicket("b", 120))
	_, err = dec.Allocate("c", 10)
	require.NoError(t, err)
	require.Equal(t, uint64(160), dec.Total())
	require.True(t, dec.HoldsTicket("c", 155))
}
