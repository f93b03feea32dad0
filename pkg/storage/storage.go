// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of datatracks.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package storage implements the embedded key-ordered store (§4.4): a
// transactional, sqlite-backed table of byte-serialized values, read
// through an in-memory LRU so repeated train lookups skip the file.
package storage

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"

	"github.com/railwire/datatracks/pkg/log"
)

// defaultCacheEntries bounds the read-through LRU by entry count, not
// byte size; an expirable.LRU has no size-accounting hook, so this is a
// coarser bound than the byte-budgeted cache it replaces.
const defaultCacheEntries = 8192

// cacheTTL is how long a cached read stays valid before the next Get
// re-queries the table; this also bounds how long a cache entry can
// outlive an external writer to the same sqlite file.
const cacheTTL = time.Hour

// Store is a key-ordered, byte-serialized, transactional value table.
// Writes are durable on Commit; reads hit the LRU before the file.
type Store struct {
	db        *sqlx.DB
	stmtCache *sq.StmtCache
	cache     *expirable.LRU[string, []byte]
	path      string
	temp      bool

	mu sync.Mutex
	tx *sqlx.Tx
}

// Open opens (creating if absent) a key-ordered store at path. If path
// is empty, a temp file is used and removed on Close.
func Open(path string) (*Store, error) {
	temp := path == ""
	if temp {
		f, err := os.CreateTemp("", "datatracks-storage-*.db")
		if err != nil {
			return nil, fmt.Errorf("storage: create temp file: %w", err)
		}
		path = f.Name()
		f.Close()
	} else if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("storage: mkdir %s: %w", dir, err)
		}
	}

	db, err := sqlx.Open("sqlite3", fmt.Sprintf("%s?_journal_mode=WAL&_foreign_keys=on", path))
	if err != nil {
		return nil, fmt.Errorf("storage: open %s: %w", path, err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("storage: ping %s: %w", path, err)
	}

	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS kv (
		k BLOB PRIMARY KEY,
		v BLOB NOT NULL
	)`); err != nil {
		return nil, fmt.Errorf("storage: create table: %w", err)
	}

	log.Debugf("storage: opened %s (temp=%v)", path, temp)

	return &Store{
		db:        db,
		stmtCache: sq.NewStmtCache(db.DB),
		cache:     expirable.NewLRU[string, []byte](defaultCacheEntries, nil, cacheTTL),
		path:      path,
		temp:      temp,
	}, nil
}

// Put writes key→value, visible to readers immediately (autocommit) or
// deferred until Commit if called inside Begin. The cache is only
// updated for autocommit writes; transactional writes invalidate the
// cached entry instead, so a rolled-back write can never leak through
// the read-through cache.
func (s *Store) Put(key, value []byte) error {
	runner := sq.BaseRunner(s.stmtCache)
	s.mu.Lock()
	inTx := s.tx != nil
	if inTx {
		runner = s.tx
	}
	s.mu.Unlock()

	_, err := sq.Insert("kv").Columns("k", "v").Values(key, value).
		Suffix("ON CONFLICT(k) DO UPDATE SET v=excluded.v").
		RunWith(runner).Exec()
	if err != nil {
		return fmt.Errorf("storage: put: %w", err)
	}
	if inTx {
		s.cache.Remove(string(key))
	} else {
		s.cache.Add(string(key), value)
	}
	return nil
}

// Get returns value for key, reading through the LRU first. A miss
// (including a not-found row) always falls through to the table;
// only a found row is cached, so a not-found key is re-checked on
// every call rather than negatively cached.
func (s *Store) Get(key []byte) ([]byte, bool, error) {
	if v, ok := s.cache.Get(string(key)); ok {
		return v, true, nil
	}

	var v []byte
	err := sq.Select("v").From("kv").Where(sq.Eq{"k": key}).RunWith(s.stmtCache).QueryRow().Scan(&v)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("storage: get %x: %w", key, err)
	}
	s.cache.Add(string(key), v)
	return v, true, nil
}

// Delete removes key, if present.
func (s *Store) Delete(key []byte) error {
	runner := sq.BaseRunner(s.stmtCache)
	s.mu.Lock()
	if s.tx != nil {
		runner = s.tx
	}
	s.mu.Unlock()

	if _, err := sq.Delete("kv").Where(sq.Eq{"k": key}).RunWith(runner).Exec(); err != nil {
		return fmt.Errorf("storage: delete: %w", err)
	}
	s.cache.Remove(string(key))
	return nil
}

// Scan calls f for every key in ascending byte order, starting at or
// after from (nil means the beginning). Stops early if f returns false.
func (s *Store) Scan(from []byte, f func(key, value []byte) bool) error {
	qb := sq.Select("k", "v").From("kv").OrderBy("k ASC")
	if from != nil {
		qb = qb.Where(sq.GtOrEq{"k": from})
	}
	rows, err := qb.RunWith(s.db).Query()
	if err != nil {
		return fmt.Errorf("storage: scan: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var k, v []byte
		if err := rows.Scan(&k, &v); err != nil {
			return fmt.Errorf("storage: scan row: %w", err)
		}
		if !f(k, v) {
			break
		}
	}
	return rows.Err()
}

// Begin opens a transaction; subsequent Put calls on this Store are
// deferred until Commit, which makes them durable atomically.
func (s *Store) Begin() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.tx != nil {
		return fmt.Errorf("storage: transaction already open")
	}
	tx, err := s.db.Beginx()
	if err != nil {
		return fmt.Errorf("storage: begin: %w", err)
	}
	s.tx = tx
	return nil
}

// Commit durably applies every Put since Begin.
func (s *Store) Commit() error {
	s.mu.Lock()
	tx := s.tx
	s.tx = nil
	s.mu.Unlock()
	if tx == nil {
		return fmt.Errorf("storage: no open transaction")
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("storage: commit: %w", err)
	}
	return nil
}

// Rollback discards every Put since Begin.
func (s *Store) Rollback() error {
	s.mu.Lock()
	tx := s.tx
	s.tx = nil
	s.mu.Unlock()
	if tx == nil {
		return fmt.Errorf("storage: no open transaction")
	}
	return tx.Rollback()
}

// Close releases the underlying file handle, removing it first if this
// Store was opened with an empty path.
func (s *Store) Close() error {
	err := s.db.Close()
	if s.temp {
		os.Remove(s.path)
	}
	return err
}

// Path reports the file this Store is backed by.
func (s *Store) Path() string { return s.path }
