package draw

import (
	"crypto/sha256"
	"encoding/binary"
	"testing"
	"time"

	"github.com/ceyhunalp/tyche"
	"github.com/stretchr/testify/require"
	"golang.org/x/xerrors"
)

var window = 7 * 24 * time.Hour

func TestRequestAndResolve(t *testing.T) {
	s := &State{}
	now := time.Unix(10000, 0)

	id, err := s.Request(now, 500, window, 0)
	require.NoError(t, err)
	require.Equal(t, uint64(1), id)
	require.Equal(t, Requested, s.Status)

	pos, err := s.Resolve(id, 0, 1234, 500)
	require.NoError(t, err)
	require.Equal(t, uint64(234), pos)
	require.Equal(t, Resolved, s.Status)
}

func TestRequestZeroTickets(t *testing.T) {
	s := &State{}
	_, err := s.Request(time.Now(), 0, window, 0)
	require.True(t, xerrors.Is(err, tyche.ErrNoTickets))
	require.Equal(t, Unrequested, s.Status)
}

func TestResolveZeroTickets(t *testing.T) {
	// even a forced delivery must never resolve a winner over an empty
	// ticket space
	s := &State{Status: Requested, RequestID: 1}
	_, err := s.Resolve(1, 0, 42, 0)
	require.True(t, xerrors.Is(err, tyche.ErrNoTickets))
	require.Equal(t, Requested, s.Status)
}

func TestRetryWindow(t *testing.T) {
	s := &State{}
	now := time.Unix(10000, 0)
	id, err := s.Request(now, 500, window, 0)
	require.NoError(t, err)

	_, err = s.Request(now.Add(time.Hour), 500, window, 0)
	require.True(t, xerrors.Is(err, tyche.ErrRetryTooSoon))

	id2, err := s.Request(now.Add(window), 500, window, 1)
	require.NoError(t, err)
	require.Equal(t, id+1, id2)

	// a delivery for the superseded request is rejected and does not
	// consume the resolution
	_, err = s.Resolve(id, 1, 1234, 500)
	require.True(t, xerrors.Is(err, tyche.ErrUnknownRequest))
	_, err = s.Resolve(id2, 1, 1234, 500)
	require.NoError(t, err)
}

func TestDuplicateDelivery(t *testing.T) {
	s := &State{}
	id, err := s.Request(time.Unix(10000, 0), 500, window, 0)
	require.NoError(t, err)
	pos, err := s.Resolve(id, 0, 1234, 500)
	require.NoError(t, err)

	_, err = s.Resolve(id, 0, 9999, 500)
	require.True(t, xerrors.Is(err, tyche.ErrAlreadyDone))
	require.Equal(t, pos, s.Winning)

	_, err = s.Request(time.Unix(10000, 0).Add(2*window), 500, window, 0)
	require.True(t, xerrors.Is(err, tyche.ErrAlreadyDone))
}

func TestRoundBinding(t *testing.T) {
	s := &State{}
	id, err := s.Request(time.Unix(10000, 0), 500, window, 7)
	require.NoError(t, err)
	require.Equal(t, uint64(7), s.Round)

	// a delivery carrying any other beacon round is rejected and does
	// not consume the resolution
	_, err = s.Resolve(id, 3, 1234, 500)
	require.True(t, xerrors.Is(err, tyche.ErrUnknownRequest))
	require.Equal(t, Requested, s.Status)

	pos, err := s.Resolve(id, 7, 1234, 500)
	require.NoError(t, err)
	require.Equal(t, uint64(234), pos)
}

func TestResolveWithoutRequest(t *testing.T) {
	s := &State{}
	_, err := s.Resolve(1, 0, 1234, 500)
	require.True(t, xerrors.Is(err, tyche.ErrUnknownRequest))
}

func TestRawValue(t *testing.T) {
	value := []byte("beacon signature")
	h := sha256.Sum256(value)
	require.Equal(t, binary.LittleEndian.Uint64(h[:8]), RawValue(value))
	// deterministic
	require.Equal(t, RawValue(value), RawValue(value))
}
