package dummy

import (
	"go.dedis.ch/kyber/v3"
	"golang.org/x/xerrors"

	"github.com/ceyhunalp/tyche"
	"github.com/ceyhunalp/tyche/utils"
)

const escrowOwner = "escrow"

// Registry is an in-memory collectible ownership map. A transfer into
// escrow first runs the receiver's acknowledgment hook; ownership only
// moves once the receiver accepted.
type Registry struct {
	owners map[uint64]string
}

func NewRegistry() *Registry {
	return &Registry{owners: make(map[uint64]string)}
}

// Mint registers a new collectible under the given owner.
func (r *Registry) Mint(owner kyber.Point, id uint64) error {
	if _, ok := r.owners[id]; ok {
		return xerrors.Errorf("collectible %d already exists", id)
	}
	key, err := utils.PointToHex(owner)
	if err != nil {
		return err
	}
	r.owners[id] = key
	return nil
}

// TransferIn moves a collectible from its owner into escrow, invoking the
// receiver's acknowledgment hook first.
func (r *Registry) TransferIn(from kyber.Point, id uint64, to tyche.CollectibleReceiver) error {
	key, err := utils.PointToHex(from)
	if err != nil {
		return err
	}
	if r.owners[id] != key {
		return xerrors.Errorf("collectible %d is not owned by %s", id, key[:8])
	}
	if err := to.OnCollectibleReceived(from, id); err != nil {
		return xerrors.Errorf("receiver rejected collectible %d: %v", id, err)
	}
	r.owners[id] = escrowOwner
	return nil
}

// TransferOut releases an escrowed collectible to the given owner.
func (r *Registry) TransferOut(to kyber.Point, id uint64) error {
	if r.owners[id] != escrowOwner {
		return xerrors.Errorf("collectible %d is not in escrow", id)
	}
	key, err := utils.PointToHex(to)
	if err != nil {
		return err
	}
	r.owners[id] = key
	return nil
}

// OwnerOf reports the current owner in hex form, or "escrow".
func (r *Registry) OwnerOf(id uint64) (string, bool) {
	owner, ok := r.owners[id]
	return owner, ok
}
