package tyche

import "golang.org/x/xerrors"

// Validation failures shared across the units. All of them are synchronous:
// an operation that returns one of these has not modified any state.
var (
	ErrUnauthorized     = xerrors.New("unauthorized")
	ErrPhaseViolation   = xerrors.New("operation not allowed in current phase")
	ErrNotYetEscrowed   = xerrors.New("collectible is not in escrow yet")
	ErrAlreadyDone      = xerrors.New("operation already executed")
	ErrRetryTooSoon     = xerrors.New("retry window has not elapsed")
	ErrNoTickets        = xerrors.New("no tickets issued")
	ErrNotAWinner       = xerrors.New("caller does not hold the winning ticket")
	ErrAlreadyWithdrawn = xerrors.New("principal already withdrawn")
	ErrNotResolved      = xerrors.New("draw is not resolved")
	ErrStillInvested    = xerrors.New("principal is still at the yield venue")
	ErrShortfall        = xerrors.New("pool cannot cover principal after venue loss")
	ErrUnknownRequest   = xerrors.New("no such outstanding randomness request")
)
