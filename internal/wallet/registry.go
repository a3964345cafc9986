package wallet

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/wx-shi/utxo-dashboard/internal/db"
	"github.com/wx-shi/utxo-dashboard/internal/model"
)

var (
	ErrEmptyField     = errors.New("wallet name and address are required")
	ErrInvalidAddress = errors.New("invalid bitcoin address")
	ErrUnknownWallet  = errors.New("unknown wallet")
	ErrLastWallet     = errors.New("the last wallet cannot be removed")
	ErrSessionExpired = errors.New("session expired")
)

// Registry is the wallet list of one session. It is never empty and always
// has a selected wallet. All mutations go through its lock.
type Registry struct {
	mu        sync.Mutex
	expired   bool
	id        string
	db        *db.DB
	validator Validator
}

func newRegistry(id string, d *db.DB, validator Validator, defaults []model.Wallet) (*Registry, error) {
	r := &Registry{
		id:        id,
		db:        d,
		validator: validator,
	}
	for _, w := range defaults {
		if _, err := d.PutWallet(id, w); err != nil {
			return nil, err
		}
	}
	if len(defaults) > 0 {
		if err := d.SetSelected(id, defaults[0].Name); err != nil {
			return nil, err
		}
	}
	return r, nil
}

func (r *Registry) ID() string {
	return r.id
}

// Add stores a wallet. A known name gets its address replaced and keeps its
// position. On error the registry is unchanged.
func (r *Registry) Add(name, address string) (created bool, err error) {
	name = strings.TrimSpace(name)
	address = strings.TrimSpace(address)
	if name == "" || address == "" {
		return false, ErrEmptyField
	}
	if !r.validator.Valid(address) {
		return false, fmt.Errorf("%w: %q", ErrInvalidAddress, address)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.expired {
		return false, ErrSessionExpired
	}
	return r.db.PutWallet(r.id, model.Wallet{Name: name, Address: address})
}

// Remove deletes a wallet. Removing the selected wallet selects the first
// remaining one.
func (r *Registry) Remove(name string) error {
	name = strings.TrimSpace(name)
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.expired {
		return ErrSessionExpired
	}

	wallets, err := r.db.Wallets(r.id)
	if err != nil {
		return err
	}
	idx := indexOf(wallets, name)
	if idx < 0 {
		return fmt.Errorf("%w: %q", ErrUnknownWallet, name)
	}
	if len(wallets) == 1 {
		return ErrLastWallet
	}
	if _, err := r.db.DeleteWallet(r.id, name); err != nil {
		return err
	}

	selected, err := r.db.Selected(r.id)
	if err != nil {
		return err
	}
	if selected == name {
		next := wallets[0]
		if idx == 0 {
			next = wallets[1]
		}
		return r.db.SetSelected(r.id, next.Name)
	}
	return nil
}

// List returns the wallets in insertion order.
func (r *Registry) List() ([]model.Wallet, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.expired {
		return nil, ErrSessionExpired
	}
	return r.db.Wallets(r.id)
}

func (r *Registry) Select(name string) error {
	name = strings.TrimSpace(name)
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.expired {
		return ErrSessionExpired
	}

	_, ok, err := r.db.GetWallet(r.id, name)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownWallet, name)
	}
	return r.db.SetSelected(r.id, name)
}

// Selected returns the selected wallet, falling back to the first one.
func (r *Registry) Selected() (model.Wallet, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.expired {
		return model.Wallet{}, ErrSessionExpired
	}

	name, err := r.db.Selected(r.id)
	if err != nil {
		return model.Wallet{}, err
	}
	if name != "" {
		w, ok, err := r.db.GetWallet(r.id, name)
		if err != nil {
			return model.Wallet{}, err
		}
		if ok {
			return w, nil
		}
	}

	wallets, err := r.db.Wallets(r.id)
	if err != nil {
		return model.Wallet{}, err
	}
	if len(wallets) == 0 {
		return model.Wallet{}, fmt.Errorf("%w: registry %s is empty", ErrUnknownWallet, r.id)
	}
	if err := r.db.SetSelected(r.id, wallets[0].Name); err != nil {
		return model.Wallet{}, err
	}
	return wallets[0], nil
}

// Expired reports whether the session of r was closed.
func (r *Registry) Expired() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.expired
}

// expire closes the registry and drops its keys. Later calls fail with
// ErrSessionExpired.
func (r *Registry) expire() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.expired = true
	return r.db.DropSession(r.id)
}

func indexOf(wallets []model.Wallet, name string) int {
	for i, w := range wallets {
		if w.Name == name {
			return i
		}
	}
	return -1
}
