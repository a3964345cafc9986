package db

import (
	"context"
	"fmt"

	tmdb "github.com/cosmos/cosmos-db"
	"github.com/wx-shi/utxo-dashboard/internal/model"
	"github.com/wx-shi/utxo-dashboard/pkg"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

// Every key is scoped by session id, so no two sessions share state.
//
//	w:<sid>:<seq>   wallet entry, seq keeps insertion order
//	n:<sid>:<name>  name -> seq
//	m:<sid>:sel     selected wallet name
//	m:<sid>:seq     next seq
const (
	walletKeyPrefix = "w:"
	nameKeyPrefix   = "n:"
	metaKeyPrefix   = "m:"
	selectedKey     = "sel"
	seqKey          = "seq"

	wdbName = "wallet"
	ndbName = "wallet_name"
	mdbName = "session_meta"
)

// DB keeps wallet registries in memory. Nothing survives a restart.
type DB struct {
	wdb    tmdb.DB
	ndb    tmdb.DB
	mdb    tmdb.DB
	logger *zap.Logger
}

func NewDB(logger *zap.Logger) (*DB, error) {
	wdb, err := tmdb.NewDB(wdbName, tmdb.MemDBBackend, "")
	if err != nil {
		return nil, err
	}
	ndb, err := tmdb.NewDB(ndbName, tmdb.MemDBBackend, "")
	if err != nil {
		return nil, err
	}
	mdb, err := tmdb.NewDB(mdbName, tmdb.MemDBBackend, "")
	if err != nil {
		return nil, err
	}

	return &DB{
		wdb:    wdb,
		ndb:    ndb,
		mdb:    mdb,
		logger: logger,
	}, nil
}

func (db *DB) Close() error {
	g, _ := errgroup.WithContext(context.Background())
	g.Go(db.wdb.Close)
	g.Go(db.ndb.Close)
	g.Go(db.mdb.Close)
	return g.Wait()
}

// Wallets returns the session's wallets in insertion order.
func (db *DB) Wallets(sid string) ([]model.Wallet, error) {
	prefix := []byte(walletKeyPrefix + sid + ":")
	it, err := db.wdb.Iterator(prefix, prefixEnd(prefix))
	if err != nil {
		return nil, err
	}
	defer it.Close()

	wallets := make([]model.Wallet, 0)
	for ; it.Valid(); it.Next() {
		w, err := decodeWallet(it.Value())
		if err != nil {
			return nil, fmt.Errorf("invalid wallet key:%x: %w", it.Key(), err)
		}
		wallets = append(wallets, w)
	}
	return wallets, it.Error()
}

func (db *DB) GetWallet(sid, name string) (model.Wallet, bool, error) {
	seq, ok, err := db.walletSeq(sid, name)
	if err != nil || !ok {
		return model.Wallet{}, false, err
	}
	val, err := db.wdb.Get(walletKey(sid, seq))
	if err != nil {
		return model.Wallet{}, false, err
	}
	if len(val) == 0 {
		return model.Wallet{}, false, fmt.Errorf("data anomalies: name %q points at missing seq %d", name, seq)
	}
	w, err := decodeWallet(val)
	return w, err == nil, err
}

// PutWallet inserts or overwrites a wallet. An overwritten wallet keeps its position.
func (db *DB) PutWallet(sid string, w model.Wallet) (created bool, err error) {
	seq, ok, err := db.walletSeq(sid, w.Name)
	if err != nil {
		return false, err
	}
	if !ok {
		if seq, err = db.nextSeq(sid); err != nil {
			return false, err
		}
	}

	val, err := encodeWallet(w)
	if err != nil {
		return false, err
	}
	if err := db.wdb.Set(walletKey(sid, seq), val); err != nil {
		return false, err
	}
	if !ok {
		if err := db.ndb.Set(nameKey(sid, w.Name), pkg.Int64ToBytes(seq)); err != nil {
			return false, err
		}
	}
	return !ok, nil
}

func (db *DB) DeleteWallet(sid, name string) (bool, error) {
	seq, ok, err := db.walletSeq(sid, name)
	if err != nil || !ok {
		return false, err
	}
	if err := db.wdb.Delete(walletKey(sid, seq)); err != nil {
		return false, err
	}
	if err := db.ndb.Delete(nameKey(sid, name)); err != nil {
		return false, err
	}
	return true, nil
}

func (db *DB) Selected(sid string) (string, error) {
	val, err := db.mdb.Get(metaKey(sid, selectedKey))
	if err != nil {
		return "", err
	}
	return string(val), nil
}

func (db *DB) SetSelected(sid, name string) error {
	return db.mdb.Set(metaKey(sid, selectedKey), []byte(name))
}

// DropSession removes every key of a session.
func (db *DB) DropSession(sid string) error {
	g, _ := errgroup.WithContext(context.Background())
	g.Go(func() error { return dropPrefix(db.wdb, []byte(walletKeyPrefix+sid+":")) })
	g.Go(func() error { return dropPrefix(db.ndb, []byte(nameKeyPrefix+sid+":")) })
	g.Go(func() error { return dropPrefix(db.mdb, []byte(metaKeyPrefix+sid+":")) })
	if err := g.Wait(); err != nil {
		return err
	}
	db.logger.Debug("DropSession", zap.String("session", sid))
	return nil
}

func (db *DB) walletSeq(sid, name string) (int64, bool, error) {
	val, err := db.ndb.Get(nameKey(sid, name))
	if err != nil {
		return 0, false, err
	}
	if len(val) == 0 {
		return 0, false, nil
	}
	if len(val) != 8 {
		return 0, false, fmt.Errorf("invalid seq for wallet %q", name)
	}
	return pkg.BytesToInt64(val), true, nil
}

func (db *DB) nextSeq(sid string) (int64, error) {
	key := metaKey(sid, seqKey)
	val, err := db.mdb.Get(key)
	if err != nil {
		return 0, err
	}
	var seq int64
	if len(val) == 8 {
		seq = pkg.BytesToInt64(val)
	}
	if err := db.mdb.Set(key, pkg.Int64ToBytes(seq+1)); err != nil {
		return 0, err
	}
	return seq, nil
}

// dropPrefix collects keys first: a memdb iterator holds the read lock until closed.
func dropPrefix(d tmdb.DB, prefix []byte) error {
	it, err := d.Iterator(prefix, prefixEnd(prefix))
	if err != nil {
		return err
	}
	keys := make([][]byte, 0)
	for ; it.Valid(); it.Next() {
		keys = append(keys, append([]byte(nil), it.Key()...))
	}
	if err := it.Error(); err != nil {
		it.Close()
		return err
	}
	if err := it.Close(); err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}

	wb := d.NewBatch()
	defer wb.Close()
	for _, key := range keys {
		if err := wb.Delete(key); err != nil {
			return err
		}
	}
	return wb.WriteSync()
}

func walletKey(sid string, seq int64) []byte {
	return append([]byte(walletKeyPrefix+sid+":"), pkg.Int64ToBytes(seq)...)
}

func nameKey(sid, name string) []byte {
	return []byte(nameKeyPrefix + sid + ":" + name)
}

func metaKey(sid, key string) []byte {
	return []byte(metaKeyPrefix + sid + ":" + key)
}

// prefixEnd is the exclusive upper bound of all keys starting with prefix.
func prefixEnd(prefix []byte) []byte {
	end := append([]byte(nil), prefix...)
	for i := len(end) - 1; i >= 0; i-- {
		if end[i] < 0xff {
			end[i]++
			return end[:i+1]
		}
	}
	return nil
}

func encodeWallet(w model.Wallet) ([]byte, error) {
	s, err := structpb.NewStruct(map[string]interface{}{
		"name":    w.Name,
		"address": w.Address,
	})
	if err != nil {
		return nil, err
	}
	return proto.Marshal(s)
}

func decodeWallet(val []byte) (model.Wallet, error) {
	s := &structpb.Struct{}
	if err := proto.Unmarshal(val, s); err != nil {
		return model.Wallet{}, err
	}
	fields := s.GetFields()
	return model.Wallet{
		Name:    fields["name"].GetStringValue(),
		Address: fields["address"].GetStringValue(),
	}, nil
}
