package beacon

import (
	"github.com/ceyhunalp/tyche"
	"go.dedis.ch/onet/v3"
	"go.dedis.ch/onet/v3/network"
)

func init() {
	network.RegisterMessages(&InitDKGRequest{}, &InitDKGReply{},
		&RandomnessRequest{}, &RandomnessReply{})
}

// InitDKGRequest starts the DKG over the given roster.
type InitDKGRequest struct {
	Roster *onet.Roster
}

// InitDKGReply carries the collective public key, marshaled as a bn256 G2
// point.
type InitDKGReply struct {
	Public []byte
}

// RandomnessRequest asks the beacon for the next round.
type RandomnessRequest struct {
	Roster *onet.Roster
}

// RandomnessReply is the chained round value.
type RandomnessReply struct {
	Randomness tyche.Randomness
}
