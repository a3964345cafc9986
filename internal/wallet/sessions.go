package wallet

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jellydator/ttlcache/v3"
	"github.com/wx-shi/utxo-dashboard/internal/db"
	"github.com/wx-shi/utxo-dashboard/internal/model"
	"go.uber.org/zap"
)

// Sessions hands out one Registry per session id. Idle sessions expire after
// ttl and their keys are dropped from the store.
type Sessions struct {
	cache     *ttlcache.Cache[string, *Registry]
	db        *db.DB
	validator Validator
	defaults  []model.Wallet
	logger    *zap.Logger
}

func NewSessions(d *db.DB, validator Validator, defaults []model.Wallet, ttl time.Duration, logger *zap.Logger) (*Sessions, error) {
	if len(defaults) == 0 {
		return nil, fmt.Errorf("at least one default wallet is required")
	}
	for _, w := range defaults {
		if !validator.Valid(w.Address) {
			return nil, fmt.Errorf("default wallet %q: %w: %q", w.Name, ErrInvalidAddress, w.Address)
		}
	}

	s := &Sessions{
		cache:     ttlcache.New[string, *Registry](ttlcache.WithTTL[string, *Registry](ttl)),
		db:        d,
		validator: validator,
		defaults:  defaults,
		logger:    logger,
	}
	s.cache.OnEviction(func(ctx context.Context, reason ttlcache.EvictionReason, item *ttlcache.Item[string, *Registry]) {
		if err := item.Value().expire(); err != nil {
			s.logger.Error("DropSession", zap.String("session", item.Key()), zap.Error(err))
		}
	})
	return s, nil
}

// Start runs the expiry loop until Stop.
func (s *Sessions) Start() {
	go s.cache.Start()
}

func (s *Sessions) Stop() {
	s.cache.Stop()
}

// Get returns the registry of a live session and extends its lifetime.
func (s *Sessions) Get(id string) (*Registry, bool) {
	if id == "" {
		return nil, false
	}
	item := s.cache.Get(id)
	if item == nil || item.Value().Expired() {
		return nil, false
	}
	return item.Value(), true
}

// Create opens a new session seeded with the default wallets.
func (s *Sessions) Create() (*Registry, error) {
	id := uuid.NewString()
	r, err := newRegistry(id, s.db, s.validator, s.defaults)
	if err != nil {
		return nil, err
	}
	s.cache.Set(id, r, ttlcache.DefaultTTL)
	s.logger.Debug("CreateSession", zap.String("session", id))
	return r, nil
}

func (s *Sessions) Delete(id string) {
	s.cache.Delete(id)
}

func (s *Sessions) Len() int {
	return s.cache.Len()
}
