package draw

import (
	"crypto/sha256"
	"encoding/binary"
	"time"

	"github.com/ceyhunalp/tyche"
	"golang.org/x/xerrors"
)

// Status is the resolution state of the draw.
type Status int

const (
	Unrequested Status = iota
	Requested
	Resolved
)

func (s Status) String() string {
	switch s {
	case Unrequested:
		return "unrequested"
	case Requested:
		return "requested"
	case Resolved:
		return "resolved"
	}
	return "unknown"
}

// State is the request/response lifecycle of the external randomness
// source. RequestID counts accepted requests and Round is the beacon round
// pinned for the outstanding one; a delivery must quote both, so responses
// to superseded requests and replays of historic rounds are rejected
// without consuming the one-shot resolution.
type State struct {
	Status      Status
	RequestID   uint64
	Round       uint64
	Winning     uint64
	LastRequest int64
}

// NextRequestID is the identifier the next accepted request will get.
func (s *State) NextRequestID() uint64 {
	return s.RequestID + 1
}

// CanRequest checks the request guards without committing anything, so a
// caller can reserve a beacon round between the check and the commit.
func (s *State) CanRequest(now time.Time, total uint64, window time.Duration) error {
	if s.Status == Resolved {
		return xerrors.Errorf("request randomness: %w", tyche.ErrAlreadyDone)
	}
	if total == 0 {
		return xerrors.Errorf("request randomness: %w", tyche.ErrNoTickets)
	}
	if s.Status == Requested {
		elapsed := now.Unix() - s.LastRequest
		if elapsed < int64(window/time.Second) {
			return xerrors.Errorf("request randomness: %w", tyche.ErrRetryTooSoon)
		}
	}
	return nil
}

// Request admits a new randomness request bound to the given beacon round
// and returns its identifier. The first request is accepted
// unconditionally; a re-request is accepted only after the grace window
// elapsed since the previous one, to recover from a lost or reverted
// delivery. A stuck request never fails the raffle, it only blocks
// resolution until retried.
func (s *State) Request(now time.Time, total uint64, window time.Duration, round uint64) (uint64, error) {
	if err := s.CanRequest(now, total, window); err != nil {
		return 0, err
	}
	s.RequestID++
	s.Round = round
	s.LastRequest = now.Unix()
	s.Status = Requested
	return s.RequestID, nil
}

// Resolve maps the delivered raw value onto the ticket space and settles
// the winning position, exactly once. A delivery must quote both the
// outstanding request and its pinned beacon round; duplicates, superseded
// responses and historic rounds are all rejected.
func (s *State) Resolve(requestID, round, raw, total uint64) (uint64, error) {
	if s.Status == Resolved {
		return 0, xerrors.Errorf("resolve randomness: %w", tyche.ErrAlreadyDone)
	}
	if s.Status != Requested || requestID != s.RequestID || round != s.Round {
		return 0, xerrors.Errorf("resolve randomness: %w", tyche.ErrUnknownRequest)
	}
	if total == 0 {
		return 0, xerrors.Errorf("resolve randomness: %w", tyche.ErrNoTickets)
	}
	s.Winning = raw % total
	s.Status = Resolved
	return s.Winning, nil
}

// RawValue derives the random integer from a beacon signature: the first
// eight bytes of sha256(value), little endian.
func RawValue(value []byte) uint64 {
	h := sha256.New()
	h.Write(value)
	return binary.LittleEndian.Uint64(h.Sum(nil))
}
