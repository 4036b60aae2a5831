package raffle

import (
	"go.dedis.ch/cothority/v3"
	"go.dedis.ch/onet/v3"
	"go.dedis.ch/onet/v3/log"
	"go.dedis.ch/onet/v3/network"
	"go.dedis.ch/protobuf"
	"go.etcd.io/bbolt"
	"golang.org/x/xerrors"
)

// raffleStore persists raffle state records in the service's bbolt bucket,
// keyed by raffle ID. Records are protobuf-encoded whole and decoded with
// the network constructors so the kyber points round-trip.
type raffleStore struct {
	db     *bbolt.DB
	bucket []byte
}

func newRaffleStore(c *onet.Context) (*raffleStore, error) {
	db, bucket := c.GetAdditionalBucket([]byte("raffles"))
	return &raffleStore{db: db, bucket: bucket}, nil
}

func (rs *raffleStore) save(r *Raffle) error {
	buf, err := protobuf.Encode(&r.State)
	if err != nil {
		log.Errorf("couldn't encode raffle state: %v", err)
		return err
	}
	return rs.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(rs.bucket).Put(r.State.ID, buf)
	})
}

func (rs *raffleStore) loadAll() ([]State, error) {
	var states []State
	err := rs.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(rs.bucket).ForEach(func(k, v []byte) error {
			st := State{}
			err := protobuf.DecodeWithConstructors(v, &st,
				network.DefaultConstructors(cothority.Suite))
			if err != nil {
				return xerrors.Errorf("couldn't decode raffle %x: %v", k, err)
			}
			states = append(states, st)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return states, nil
}
