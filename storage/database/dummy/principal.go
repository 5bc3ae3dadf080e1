package dummydb

import (
	"context"
	"strings"
	"time"

	"github.com/trezcool/shule/core/principal"
)

type principalRepository struct {
	db *principalTable
}

var _ principal.Repository = (*principalRepository)(nil) // interface compliance check

func NewPrincipalRepository(db *DB) *principalRepository {
	return &principalRepository{db: db.principal}
}

func (repo *principalRepository) CheckEmailUniqueness(ctx context.Context, email string) error {
	repo.db.RLock()
	defer repo.db.RUnlock()

	for _, prin := range repo.db.table {
		if strings.EqualFold(prin.Email, email) {
			return principal.ErrEmailExists
		}
	}
	return nil
}

func (repo *principalRepository) CreatePrincipal(ctx context.Context, prin principal.Principal) (principal.Principal, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if prin.Profile == nil {
		prin.Profile = principal.Profile{}
	}
	repo.db.table[prin.ID] = &prin
	return prin, nil
}

func (repo *principalRepository) GetPrincipalByID(ctx context.Context, id string) (principal.Principal, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if prin, ok := repo.db.table[id]; ok {
		return clone(*prin), nil
	}
	return principal.Principal{}, principal.ErrNotFound
}

func (repo *principalRepository) GetPrincipalByEmail(ctx context.Context, email string) (principal.Principal, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	for _, prin := range repo.db.table {
		if strings.EqualFold(prin.Email, email) {
			return clone(*prin), nil
		}
	}
	return principal.Principal{}, principal.ErrNotFound
}

func (repo *principalRepository) PatchProfile(ctx context.Context, id string, fields map[string]string) (principal.Principal, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	prin, ok := repo.db.table[id]
	if !ok {
		return principal.Principal{}, principal.ErrNotFound
	}
	prin.Profile = prin.Profile.Merge(fields)
	prin.UpdatedAt = time.Now().UTC()
	return clone(*prin), nil
}

func (repo *principalRepository) UpdatePassword(ctx context.Context, id string, hash []byte) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	prin, ok := repo.db.table[id]
	if !ok {
		return principal.ErrNotFound
	}
	prin.PasswordHash = hash
	prin.UpdatedAt = time.Now().UTC()
	return nil
}

func (repo *principalRepository) SetLastLogin(ctx context.Context, prin principal.Principal) (principal.Principal, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	stored, ok := repo.db.table[prin.ID]
	if !ok {
		return principal.Principal{}, principal.ErrNotFound
	}
	stored.LastLogin = time.Now().UTC()
	return clone(*stored), nil
}

// clone detaches the returned value's profile map from the stored one.
func clone(prin principal.Principal) principal.Principal {
	prin.Profile = prin.Profile.Merge(nil)
	return prin
}
