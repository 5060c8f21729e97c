// KisaanConnect - Farmer to Consumer Marketplace and Crop Price Prediction
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kisaanconnect

package auth

import (
	"fmt"

	"github.com/dgraph-io/badger/v4"
)

// SessionStoreType selects a session backend.
type SessionStoreType string

const (
	// SessionStoreMemory keeps sessions in process memory.
	SessionStoreMemory SessionStoreType = "memory"

	// SessionStoreBadger persists sessions in BadgerDB.
	SessionStoreBadger SessionStoreType = "badger"
)

// SessionStoreFactory owns the backing resources of a SessionStore.
type SessionStoreFactory struct {
	db    *badger.DB
	store SessionStore
}

// NewSessionStoreFactory opens the backend named by storeType. path is only
// used for badger.
func NewSessionStoreFactory(storeType SessionStoreType, path string) (*SessionStoreFactory, error) {
	switch storeType {
	case SessionStoreBadger:
		opts := badger.DefaultOptions(path)
		opts.Logger = nil
		db, err := badger.Open(opts)
		if err != nil {
			return nil, fmt.Errorf("open badger db for sessions: %w", err)
		}
		return &SessionStoreFactory{db: db, store: NewBadgerSessionStore(db)}, nil
	case SessionStoreMemory, "":
		return &SessionStoreFactory{store: NewMemorySessionStore()}, nil
	default:
		return nil, fmt.Errorf("unknown session store %q", storeType)
	}
}

// Store returns the session store.
func (f *SessionStoreFactory) Store() SessionStore {
	return f.store
}

// Close releases the backend.
func (f *SessionStoreFactory) Close() error {
	if f.db != nil {
		return f.db.Close()
	}
	return nil
}
