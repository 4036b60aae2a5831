package raffle

import (
	"go.dedis.ch/cothority/v3"
	"go.dedis.ch/kyber/v3"
	"go.dedis.ch/onet/v3"

	"github.com/ceyhunalp/tyche"
	"github.com/ceyhunalp/tyche/ledger"
	"github.com/ceyhunalp/tyche/utils"
)

// Client talks to the raffle service. Signed operations take the caller's
// private scalar and build the same digest the aggregate verifies.
type Client struct {
	*onet.Client
	roster *onet.Roster
}

func NewClient(r *onet.Roster) *Client {
	return &Client{Client: onet.NewClient(cothority.Suite, ServiceName), roster: r}
}

func (c *Client) InitUnit(gainNum, gainDen uint64, beaconRoster *onet.Roster) error {
	req := &InitUnitRequest{
		GainNum:      gainNum,
		GainDen:      gainDen,
		BeaconRoster: beaconRoster,
	}
	return c.SendProtobuf(c.roster.List[0], req, &InitUnitReply{})
}

func (c *Client) Setup(cfg Config) ([]byte, error) {
	reply := &SetupReply{}
	err := c.SendProtobuf(c.roster.List[0], &SetupRequest{Cfg: cfg}, reply)
	if err != nil {
		return nil, err
	}
	return reply.ID, nil
}

func (c *Client) Fund(owner kyber.Point, amount uint64) error {
	req := &FundRequest{Owner: owner, Amount: amount}
	return c.SendProtobuf(c.roster.List[0], req, &FundReply{})
}

func (c *Client) MintCollectible(owner kyber.Point, id uint64) error {
	req := &MintCollectibleRequest{Owner: owner, CollectibleID: id}
	return c.SendProtobuf(c.roster.List[0], req, &MintCollectibleReply{})
}

func (c *Client) Escrow(id []byte, collectibleID uint64, organizer kyber.Scalar) error {
	sig, err := utils.SchnorrSign(organizer, EscrowDigest(id, collectibleID))
	if err != nil {
		return err
	}
	req := &EscrowRequest{ID: id, CollectibleID: collectibleID, Sig: sig}
	return c.SendProtobuf(c.roster.List[0], req, &EscrowReply{})
}

func (c *Client) Deposit(id []byte, depositor kyber.Point, priv kyber.Scalar, amount uint64) (ledger.Range, error) {
	key, err := utils.PointToHex(depositor)
	if err != nil {
		return ledger.Range{}, err
	}
	sig, err := utils.SchnorrSign(priv, DepositDigest(id, key, amount))
	if err != nil {
		return ledger.Range{}, err
	}
	req := &DepositRequest{ID: id, Depositor: depositor, Amount: amount, Sig: sig}
	reply := &DepositReply{}
	if err := c.SendProtobuf(c.roster.List[0], req, reply); err != nil {
		return ledger.Range{}, err
	}
	return reply.Range, nil
}

func (c *Client) Invest(id []byte, organizer kyber.Scalar) (uint64, error) {
	sig, err := utils.SchnorrSign(organizer, InvestDigest(id))
	if err != nil {
		return 0, err
	}
	reply := &InvestReply{}
	err = c.SendProtobuf(c.roster.List[0], &InvestRequest{ID: id, Sig: sig}, reply)
	if err != nil {
		return 0, err
	}
	return reply.Principal, nil
}

func (c *Client) RequestDraw(id []byte, round uint64) (uint64, error) {
	reply := &RequestDrawReply{}
	err := c.SendProtobuf(c.roster.List[0],
		&RequestDrawRequest{ID: id, Round: round}, reply)
	if err != nil {
		return 0, err
	}
	return reply.RequestID, nil
}

func (c *Client) Deliver(id []byte, requestID uint64, rnd tyche.Randomness) (uint64, error) {
	req := &DeliverRequest{ID: id, RequestID: requestID, Randomness: rnd}
	reply := &DeliverReply{}
	if err := c.SendProtobuf(c.roster.List[0], req, reply); err != nil {
		return 0, err
	}
	return reply.Winning, nil
}

func (c *Client) WithdrawVenue(id []byte) (int64, error) {
	reply := &WithdrawVenueReply{}
	err := c.SendProtobuf(c.roster.List[0], &WithdrawVenueRequest{ID: id}, reply)
	if err != nil {
		return 0, err
	}
	return reply.Yield, nil
}

func (c *Client) WithdrawPrincipal(id []byte, depositor kyber.Point, priv kyber.Scalar) (uint64, error) {
	key, err := utils.PointToHex(depositor)
	if err != nil {
		return 0, err
	}
	sig, err := utils.SchnorrSign(priv, WithdrawDigest(id, key))
	if err != nil {
		return 0, err
	}
	req := &WithdrawPrincipalRequest{ID: id, Depositor: depositor, Sig: sig}
	reply := &WithdrawPrincipalReply{}
	if err := c.SendProtobuf(c.roster.List[0], req, reply); err != nil {
		return 0, err
	}
	return reply.Amount, nil
}

func (c *Client) CoverShortfall(id []byte, organizer kyber.Scalar) (uint64, error) {
	sig, err := utils.SchnorrSign(organizer, CoverDigest(id))
	if err != nil {
		return 0, err
	}
	reply := &CoverShortfallReply{}
	err = c.SendProtobuf(c.roster.List[0], &CoverShortfallRequest{ID: id, Sig: sig}, reply)
	if err != nil {
		return 0, err
	}
	return reply.Amount, nil
}

func (c *Client) Claim(id []byte, depositor kyber.Point, priv kyber.Scalar) (uint64, error) {
	key, err := utils.PointToHex(depositor)
	if err != nil {
		return 0, err
	}
	sig, err := utils.SchnorrSign(priv, ClaimDigest(id, key))
	if err != nil {
		return 0, err
	}
	req := &ClaimRequest{ID: id, Depositor: depositor, Sig: sig}
	reply := &ClaimReply{}
	if err := c.SendProtobuf(c.roster.List[0], req, reply); err != nil {
		return 0, err
	}
	return reply.CollectibleID, nil
}

func (c *Client) Status(id []byte) (*Status, error) {
	reply := &StatusReply{}
	err := c.SendProtobuf(c.roster.List[0], &StatusRequest{ID: id}, reply)
	if err != nil {
		return nil, err
	}
	return &reply.Status, nil
}
