package main

import (
	"encoding/hex"
	"fmt"
	"os"
	"time"

	"go.dedis.ch/onet/v3"
	"go.dedis.ch/onet/v3/log"
	cli "gopkg.in/urfave/cli.v1"

	"github.com/ceyhunalp/tyche"
	"github.com/ceyhunalp/tyche/beacon"
	"github.com/ceyhunalp/tyche/raffle"
	"github.com/ceyhunalp/tyche/sys"
	"github.com/ceyhunalp/tyche/utils"
)

func main() {
	app := cli.NewApp()
	app.Name = "tyche"
	app.Usage = "run no-loss raffles on a conode roster"
	app.Version = "0.1"
	app.Flags = []cli.Flag{
		cli.StringFlag{
			Name:  "config, c",
			Value: "raffle.toml",
			Usage: "deployment descriptor",
		},
	}
	app.Commands = []cli.Command{
		{
			Name:   "keygen",
			Usage:  "generate a key pair file",
			Action: keygen,
			Flags: []cli.Flag{
				cli.StringFlag{Name: "out, o", Value: "tyche.key"},
			},
		},
		{
			Name:   "setup",
			Usage:  "initialize the units, fund accounts and create the raffle",
			Action: setup,
			Flags: []cli.Flag{
				cli.StringFlag{Name: "key, k", Usage: "organizer key file"},
			},
		},
		{
			Name:   "escrow",
			Usage:  "lock the prize collectible into the raffle",
			Action: escrow,
			Flags: []cli.Flag{
				cli.StringFlag{Name: "id"},
				cli.StringFlag{Name: "key, k", Usage: "organizer key file"},
			},
		},
		{
			Name:   "deposit",
			Usage:  "deposit into the pool and receive tickets",
			Action: deposit,
			Flags: []cli.Flag{
				cli.StringFlag{Name: "id"},
				cli.StringFlag{Name: "key, k", Usage: "depositor key file"},
				cli.Uint64Flag{Name: "amount, a"},
			},
		},
		{
			Name:   "invest",
			Usage:  "move the pool to the yield venue",
			Action: invest,
			Flags: []cli.Flag{
				cli.StringFlag{Name: "id"},
				cli.StringFlag{Name: "key, k", Usage: "organizer key file"},
			},
		},
		{
			Name:   "draw",
			Usage:  "request randomness for the draw",
			Action: drawCmd,
			Flags: []cli.Flag{
				cli.StringFlag{Name: "id"},
				cli.Uint64Flag{Name: "round",
					Usage: "expected oracle round, for external oracles"},
			},
		},
		{
			Name:   "deliver",
			Usage:  "inject an external oracle round",
			Action: deliver,
			Flags: []cli.Flag{
				cli.StringFlag{Name: "id"},
				cli.Uint64Flag{Name: "request, r"},
				cli.Uint64Flag{Name: "round"},
				cli.StringFlag{Name: "prev", Usage: "signed round message, hex"},
				cli.StringFlag{Name: "value", Usage: "round signature, hex"},
			},
		},
		{
			Name:   "redeem",
			Usage:  "pull the pool back from the yield venue",
			Action: redeem,
			Flags: []cli.Flag{
				cli.StringFlag{Name: "id"},
			},
		},
		{
			Name:   "withdraw",
			Usage:  "withdraw a depositor's principal",
			Action: withdraw,
			Flags: []cli.Flag{
				cli.StringFlag{Name: "id"},
				cli.StringFlag{Name: "key, k", Usage: "depositor key file"},
			},
		},
		{
			Name:   "cover",
			Usage:  "cover a venue shortfall as the organizer",
			Action: cover,
			Flags: []cli.Flag{
				cli.StringFlag{Name: "id"},
				cli.StringFlag{Name: "key, k", Usage: "organizer key file"},
			},
		},
		{
			Name:   "claim",
			Usage:  "claim the collectible with the winning ticket",
			Action: claim,
			Flags: []cli.Flag{
				cli.StringFlag{Name: "id"},
				cli.StringFlag{Name: "key, k", Usage: "depositor key file"},
			},
		},
		{
			Name:   "status",
			Usage:  "print the raffle status",
			Action: status,
			Flags: []cli.Flag{
				cli.StringFlag{Name: "id"},
			},
		},
	}
	log.ErrFatal(app.Run(os.Args))
}

func keygen(c *cli.Context) error {
	path := c.String("out")
	kp, err := writeKeyPair(path)
	if err != nil {
		return err
	}
	public, err := utils.PointToHex(kp.Public)
	if err != nil {
		return err
	}
	fmt.Printf("wrote %s\npublic: %s\n", path, public)
	return nil
}

func setup(c *cli.Context) error {
	cfg, roster, cl, err := loadDeployment(c)
	if err != nil {
		return err
	}
	kp, err := readKeyPair(c.String("key"))
	if err != nil {
		return err
	}
	if err := cl.InitUnit(cfg.GainNum, cfg.GainDen, roster); err != nil {
		return err
	}
	public, err := beacon.NewClient(roster).InitDKG()
	if err != nil {
		return err
	}
	oraclePublic, err := public.MarshalBinary()
	if err != nil {
		return err
	}
	for _, f := range cfg.Funding {
		account, err := utils.HexToPoint(f.Account)
		if err != nil {
			return err
		}
		if err := cl.Fund(account, f.Amount); err != nil {
			return err
		}
	}
	if err := cl.MintCollectible(kp.Public, cfg.CollectibleID); err != nil {
		return err
	}
	closeAt, endAt, err := cfg.Boundaries(time.Now())
	if err != nil {
		return err
	}
	_, _, retry, err := cfg.Windows()
	if err != nil {
		return err
	}
	id, err := cl.Setup(raffle.Config{
		Organizer:    kp.Public,
		Asset:        cfg.Asset,
		DepositClose: closeAt,
		RaffleEnd:    endAt,
		RetryWindow:  int64(retry.Seconds()),
		OraclePublic: oraclePublic,
		Venue:        cfg.Venue,
		Nonce:        []byte(cfg.Nonce),
	})
	if err != nil {
		return err
	}
	fmt.Printf("raffle: %x\ndeposits close: %s\nraffle ends: %s\n",
		id, time.Unix(closeAt, 0), time.Unix(endAt, 0))
	return nil
}

func escrow(c *cli.Context) error {
	cfg, _, cl, err := loadDeployment(c)
	if err != nil {
		return err
	}
	id, err := readID(c)
	if err != nil {
		return err
	}
	kp, err := readKeyPair(c.String("key"))
	if err != nil {
		return err
	}
	if err := cl.Escrow(id, cfg.CollectibleID, kp.Private); err != nil {
		return err
	}
	fmt.Printf("collectible %d escrowed\n", cfg.CollectibleID)
	return nil
}

func deposit(c *cli.Context) error {
	_, _, cl, err := loadDeployment(c)
	if err != nil {
		return err
	}
	id, err := readID(c)
	if err != nil {
		return err
	}
	kp, err := readKeyPair(c.String("key"))
	if err != nil {
		return err
	}
	rng, err := cl.Deposit(id, kp.Public, kp.Private, c.Uint64("amount"))
	if err != nil {
		return err
	}
	fmt.Printf("tickets [%d, %d]\n", rng.Lower, rng.Upper)
	return nil
}

func invest(c *cli.Context) error {
	_, _, cl, err := loadDeployment(c)
	if err != nil {
		return err
	}
	id, err := readID(c)
	if err != nil {
		return err
	}
	kp, err := readKeyPair(c.String("key"))
	if err != nil {
		return err
	}
	principal, err := cl.Invest(id, kp.Private)
	if err != nil {
		return err
	}
	fmt.Printf("invested %d\n", principal)
	return nil
}

func drawCmd(c *cli.Context) error {
	_, _, cl, err := loadDeployment(c)
	if err != nil {
		return err
	}
	id, err := readID(c)
	if err != nil {
		return err
	}
	reqID, err := cl.RequestDraw(id, c.Uint64("round"))
	if err != nil {
		return err
	}
	fmt.Printf("draw requested: %d\n", reqID)
	return nil
}

func deliver(c *cli.Context) error {
	_, _, cl, err := loadDeployment(c)
	if err != nil {
		return err
	}
	id, err := readID(c)
	if err != nil {
		return err
	}
	prev, err := hex.DecodeString(c.String("prev"))
	if err != nil {
		return err
	}
	value, err := hex.DecodeString(c.String("value"))
	if err != nil {
		return err
	}
	rnd := tyche.Randomness{Round: c.Uint64("round"), Prev: prev, Value: value}
	winning, err := cl.Deliver(id, c.Uint64("request"), rnd)
	if err != nil {
		return err
	}
	fmt.Printf("winning ticket: %d\n", winning)
	return nil
}

func redeem(c *cli.Context) error {
	_, _, cl, err := loadDeployment(c)
	if err != nil {
		return err
	}
	id, err := readID(c)
	if err != nil {
		return err
	}
	yield, err := cl.WithdrawVenue(id)
	if err != nil {
		return err
	}
	fmt.Printf("realized yield: %d\n", yield)
	return nil
}

func withdraw(c *cli.Context) error {
	_, _, cl, err := loadDeployment(c)
	if err != nil {
		return err
	}
	id, err := readID(c)
	if err != nil {
		return err
	}
	kp, err := readKeyPair(c.String("key"))
	if err != nil {
		return err
	}
	amount, err := cl.WithdrawPrincipal(id, kp.Public, kp.Private)
	if err != nil {
		return err
	}
	fmt.Printf("principal returned: %d\n", amount)
	return nil
}

func cover(c *cli.Context) error {
	_, _, cl, err := loadDeployment(c)
	if err != nil {
		return err
	}
	id, err := readID(c)
	if err != nil {
		return err
	}
	kp, err := readKeyPair(c.String("key"))
	if err != nil {
		return err
	}
	amount, err := cl.CoverShortfall(id, kp.Private)
	if err != nil {
		return err
	}
	fmt.Printf("covered %d\n", amount)
	return nil
}

func claim(c *cli.Context) error {
	_, _, cl, err := loadDeployment(c)
	if err != nil {
		return err
	}
	id, err := readID(c)
	if err != nil {
		return err
	}
	kp, err := readKeyPair(c.String("key"))
	if err != nil {
		return err
	}
	collectibleID, err := cl.Claim(id, kp.Public, kp.Private)
	if err != nil {
		return err
	}
	fmt.Printf("claimed collectible %d\n", collectibleID)
	return nil
}

func status(c *cli.Context) error {
	_, _, cl, err := loadDeployment(c)
	if err != nil {
		return err
	}
	id, err := readID(c)
	if err != nil {
		return err
	}
	st, err := cl.Status(id)
	if err != nil {
		return err
	}
	fmt.Printf("raffle: %x\n", st.ID)
	fmt.Printf("phase: %s\n", st.Phase)
	fmt.Printf("escrowed: %v (collectible %d)\n", st.Escrowed, st.CollectibleID)
	fmt.Printf("tickets: %d across %d depositors\n", st.TotalTickets, st.Depositors)
	fmt.Printf("invested: %v, venue withdrawn: %v\n", st.Invested, st.VenueWithdrawn)
	fmt.Printf("yield: %d, deficit: %d\n", st.YieldRealized, st.Deficit)
	fmt.Printf("draw: %s (request %d, round %d)\n", st.DrawStatus,
		st.RequestID, st.Round)
	if st.DrawStatus == "resolved" {
		fmt.Printf("winning ticket: %d\n", st.Winning)
	}
	return nil
}

func loadDeployment(c *cli.Context) (*sys.Config, *onet.Roster, *raffle.Client, error) {
	cfg, err := sys.LoadConfig(c.GlobalString("config"))
	if err != nil {
		return nil, nil, nil, err
	}
	roster, err := cfg.ReadRoster()
	if err != nil {
		return nil, nil, nil, err
	}
	return cfg, roster, raffle.NewClient(roster), nil
}

func readID(c *cli.Context) ([]byte, error) {
	return hex.DecodeString(c.String("id"))
}
