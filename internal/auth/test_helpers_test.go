// KisaanConnect - Farmer to Consumer Marketplace and Crop Price Prediction
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kisaanconnect

package auth

import (
	"context"
	"sync"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/tomtom215/kisaanconnect/internal/database"
	"github.com/tomtom215/kisaanconnect/internal/models"
)

// memUserStore is an in-memory UserStore.
type memUserStore struct {
	mu     sync.Mutex
	nextID int64
	byName map[string]*models.User
}

func newMemUserStore() *memUserStore {
	return &memUserStore{byName: make(map[string]*models.User)}
}

func (m *memUserStore) CreateUser(_ context.Context, u *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byName[u.Username]; ok {
		return database.ErrUsernameTaken
	}
	m.nextID++
	u.ID = m.nextID
	u.CreatedAt = time.Now().UTC()
	cp := *u
	m.byName[u.Username] = &cp
	return nil
}

func (m *memUserStore) GetUserByUsername(_ context.Context, username string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.byName[username]
	if !ok {
		return nil, database.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *memUserStore) GetUserByID(_ context.Context, id int64) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.byName {
		if u.ID == id {
			cp := *u
			return &cp, nil
		}
	}
	return nil, database.ErrNotFound
}

func (m *memUserStore) remove(username string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.byName, username)
}

func newTestService(t *testing.T) (*Service, *memUserStore, *MemorySessionStore) {
	t.Helper()
	users := newMemUserStore()
	sessions := NewMemorySessionStore()
	svc := NewService(users, sessions, ServiceConfig{SessionTTL: time.Hour, BcryptCost: bcrypt.MinCost})
	return svc, users, sessions
}

func registerUser(t *testing.T, svc *Service, username, role string) *models.TokenResponse {
	t.Helper()
	tok, err := svc.Register(context.Background(), &models.RegisterRequest{
		Username: username,
		Password: "password123",
		Role:     role,
	})
	if err != nil {
		t.Fatalf("Register(%s): %v", username, err)
	}
	return tok
}
