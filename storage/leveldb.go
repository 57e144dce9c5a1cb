package storage

import (
	"fmt"

	log "github.com/abcfe/abcfe-wallet/common/logger"
	"github.com/syndtr/goleveldb/leveldb"
	lvlstorage "github.com/syndtr/goleveldb/leveldb/storage"
	"github.com/syndtr/goleveldb/leveldb/util"
)

type LevelStore struct {
	db *leveldb.DB
}

// InitDB opens (and creates if missing) a leveldb database at dbPath
func InitDB(dbPath string) (*leveldb.DB, error) {
	db, err := leveldb.OpenFile(dbPath, nil)
	if err != nil {
		log.Error("Failed to open db: ", err)
		return nil, err
	}

	log.Info("Successfully opened db: ", dbPath)
	return db, nil
}

// OpenMemoryDB is a leveldb backed by memory, used by tests and ephemeral nodes
func OpenMemoryDB() (*leveldb.DB, error) {
	return leveldb.Open(lvlstorage.NewMemStorage(), nil)
}

func OpenLevel(path string) (*LevelStore, error) {
	if path == "" {
		return nil, fmt.Errorf("store path is empty")
	}
	db, err := InitDB(path)
	if err != nil {
		return nil, err
	}
	return &LevelStore{db: db}, nil
}

func OpenLevelMemory() (*LevelStore, error) {
	db, err := OpenMemoryDB()
	if err != nil {
		return nil, err
	}
	return &LevelStore{db: db}, nil
}

func (d *LevelStore) Get(key []byte) ([]byte, error) {
	v, err := d.db.Get(key, nil)
	if err == leveldb.ErrNotFound {
		return nil, ErrNotFound
	}
	return v, err
}

func (d *LevelStore) Put(key, value []byte) error {
	return d.db.Put(key, value, nil)
}

func (d *LevelStore) Delete(key []byte) error {
	return d.db.Delete(key, nil)
}

func (d *LevelStore) DeletePrefix(prefix []byte) error {
	batch := new(leveldb.Batch)
	iter := d.db.NewIterator(util.BytesPrefix(prefix), nil)
	for iter.Next() {
		batch.Delete(append([]byte(nil), iter.Key()...))
	}
	iter.Release()
	if err := iter.Error(); err != nil {
		return fmt.Errorf("failed to iterate prefix: %w", err)
	}
	return d.db.Write(batch, nil)
}

func (d *LevelStore) Close() error {
	if d.db != nil {
		return d.db.Close()
	}
	return nil
}
