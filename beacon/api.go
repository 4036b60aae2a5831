package beacon

import (
	"go.dedis.ch/cothority/v3"
	"go.dedis.ch/kyber/v3"
	"go.dedis.ch/onet/v3"

	"github.com/ceyhunalp/tyche"
	"github.com/ceyhunalp/tyche/utils"
)

// Client talks to the beacon service.
type Client struct {
	*onet.Client
	roster *onet.Roster
}

func NewClient(r *onet.Roster) *Client {
	return &Client{Client: onet.NewClient(cothority.Suite, ServiceName), roster: r}
}

// InitDKG runs the DKG and returns the collective public key.
func (c *Client) InitDKG() (kyber.Point, error) {
	req := &InitDKGRequest{Roster: c.roster}
	reply := &InitDKGReply{}
	err := c.SendProtobuf(c.roster.List[0], req, reply)
	if err != nil {
		return nil, err
	}
	return utils.UnmarshalRandPoint(reply.Public)
}

// Randomness asks for the next beacon round.
func (c *Client) Randomness() (*tyche.Randomness, error) {
	req := &RandomnessRequest{Roster: c.roster}
	reply := &RandomnessReply{}
	err := c.SendProtobuf(c.roster.List[0], req, reply)
	if err != nil {
		return nil, err
	}
	return &reply.Randomness, nil
}
