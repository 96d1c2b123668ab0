// Package memory is an in-process implementation of the server
// repositories. It is selected with the memory:// DSN and backs the
// end-to-end tests. All state lives behind a single lock.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/calckeeper/internal/common"
	"github.com/dmitrijs2005/calckeeper/internal/server/models"
)

// Store holds users, calculations and revoked tokens.
type Store struct {
	mu      sync.RWMutex
	users   map[string]models.User
	calcs   map[string]models.Calculation
	revoked map[string]models.RevokedToken
}

func NewStore() *Store {
	return &Store{
		users:   map[string]models.User{},
		calcs:   map[string]models.Calculation{},
		revoked: map[string]models.RevokedToken{},
	}
}

func (s *Store) Users() *UserRepository {
	return &UserRepository{s: s}
}

func (s *Store) Calculations() *CalculationRepository {
	return &CalculationRepository{s: s}
}

func (s *Store) Revocations() *RevocationRepository {
	return &RevocationRepository{s: s}
}

// UserRepository implements users.Repository.
type UserRepository struct{ s *Store }

func copyUser(u models.User) *models.User {
	if u.LastLogin != nil {
		t := *u.LastLogin
		u.LastLogin = &t
	}
	return &u
}

func (r *UserRepository) conflicts(username, email, excludeID string) bool {
	for id, u := range r.s.users {
		if id == excludeID {
			continue
		}
		if u.Username == username || strings.EqualFold(u.Email, email) {
			return true
		}
	}
	return false
}

func (r *UserRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.users[user.ID]; ok || r.conflicts(user.Username, user.Email, "") {
		return nil, common.ErrAlreadyExists
	}
	r.s.users[user.ID] = *copyUser(*user)
	return user, nil
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	u, ok := r.s.users[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return copyUser(u), nil
}

func (r *UserRepository) GetByLogin(ctx context.Context, login string) (*models.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, u := range r.s.users {
		if u.Username == login || strings.EqualFold(u.Email, login) {
			return copyUser(u), nil
		}
	}
	return nil, common.ErrorNotFound
}

func (r *UserRepository) ExistsByUsernameOrEmail(ctx context.Context, username, email, excludeID string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return r.conflicts(username, email, excludeID), nil
}

func (r *UserRepository) Update(ctx context.Context, user *models.User) error {
	return r.mutate(ctx, user.ID, func(u *models.User) error {
		if r.conflicts(user.Username, user.Email, user.ID) {
			return common.ErrAlreadyExists
		}
		u.Username = user.Username
		u.Email = user.Email
		u.FirstName = user.FirstName
		u.LastName = user.LastName
		u.UpdatedAt = user.UpdatedAt
		return nil
	})
}

func (r *UserRepository) UpdatePassword(ctx context.Context, id, passwordHash string, at time.Time) error {
	return r.mutate(ctx, id, func(u *models.User) error {
		u.PasswordHash = passwordHash
		u.UpdatedAt = at
		return nil
	})
}

func (r *UserRepository) SetActive(ctx context.Context, id string, active bool, at time.Time) error {
	return r.mutate(ctx, id, func(u *models.User) error {
		u.IsActive = active
		u.UpdatedAt = at
		return nil
	})
}

func (r *UserRepository) TouchLastLogin(ctx context.Context, id string, at time.Time) error {
	return r.mutate(ctx, id, func(u *models.User) error {
		u.LastLogin = &at
		return nil
	})
}

func (r *UserRepository) mutate(ctx context.Context, id string, fn func(u *models.User) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	u, ok := r.s.users[id]
	if !ok {
		return common.ErrorNotFound
	}
	if err := fn(&u); err != nil {
		return err
	}
	r.s.users[id] = u
	return nil
}

// Delete removes the user and every calculation it owns.
func (r *UserRepository) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.users[id]; !ok {
		return common.ErrorNotFound
	}
	delete(r.s.users, id)
	for cid, c := range r.s.calcs {
		if c.UserID == id {
			delete(r.s.calcs, cid)
		}
	}
	return nil
}

// CalculationRepository implements calculations.Repository.
type CalculationRepository struct{ s *Store }

func copyCalculation(c models.Calculation) *models.Calculation {
	c.Inputs = append([]float64(nil), c.Inputs...)
	return &c
}

func (r *CalculationRepository) Create(ctx context.Context, c *models.Calculation) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.users[c.UserID]; !ok {
		return common.ErrorNotFound
	}
	if _, ok := r.s.calcs[c.ID]; ok {
		return common.ErrAlreadyExists
	}
	c.Version = 1
	r.s.calcs[c.ID] = *copyCalculation(*c)
	return nil
}

func (r *CalculationRepository) GetForOwner(ctx context.Context, id, ownerID string, _ bool) (*models.Calculation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	c, ok := r.s.calcs[id]
	if !ok || c.UserID != ownerID {
		return nil, common.ErrorNotFound
	}
	return copyCalculation(c), nil
}

func (r *CalculationRepository) List(ctx context.Context, ownerID string, filter models.CalculationFilter) ([]*models.Calculation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	result := []*models.Calculation{}
	for _, c := range r.s.calcs {
		if c.UserID != ownerID || (filter.Type != "" && c.Type != filter.Type) {
			continue
		}
		result = append(result, copyCalculation(c))
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.After(result[j].CreatedAt)
		}
		return result[i].ID < result[j].ID
	})

	if filter.Offset > 0 {
		if filter.Offset >= uint64(len(result)) {
			return []*models.Calculation{}, nil
		}
		result = result[filter.Offset:]
	}
	if filter.Limit > 0 && filter.Limit < uint64(len(result)) {
		result = result[:filter.Limit]
	}
	return result, nil
}

func (r *CalculationRepository) Update(ctx context.Context, c *models.Calculation, expectedVersion int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	stored, ok := r.s.calcs[c.ID]
	if !ok || stored.UserID != c.UserID {
		if expectedVersion > 0 {
			return common.ErrVersionConflict
		}
		return common.ErrorNotFound
	}
	if expectedVersion > 0 && stored.Version != expectedVersion {
		return common.ErrVersionConflict
	}

	stored.Type = c.Type
	stored.Inputs = append([]float64(nil), c.Inputs...)
	stored.Result = c.Result
	stored.UpdatedAt = c.UpdatedAt
	stored.Version++
	r.s.calcs[c.ID] = stored
	c.Version = stored.Version
	return nil
}

func (r *CalculationRepository) Delete(ctx context.Context, id, ownerID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	c, ok := r.s.calcs[id]
	if !ok || c.UserID != ownerID {
		return common.ErrorNotFound
	}
	delete(r.s.calcs, id)
	return nil
}

func (r *CalculationRepository) DeleteAllForOwner(ctx context.Context, ownerID string) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var n int64
	for id, c := range r.s.calcs {
		if c.UserID == ownerID {
			delete(r.s.calcs, id)
			n++
		}
	}
	return n, nil
}

func (r *CalculationRepository) CountByType(ctx context.Context, ownerID string) (map[string]int64, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	counts := map[string]int64{}
	for _, c := range r.s.calcs {
		if c.UserID == ownerID {
			counts[c.Type]++
		}
	}
	return counts, nil
}

// RevocationRepository implements revocations.Repository.
type RevocationRepository struct{ s *Store }

func (r *RevocationRepository) Revoke(ctx context.Context, jti, userID string, expiresAt time.Time) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.revoked[jti]; ok {
		return false, nil
	}
	r.s.revoked[jti] = models.RevokedToken{JTI: jti, UserID: userID, ExpiresAt: expiresAt, RevokedAt: time.Now()}
	return true, nil
}

func (r *RevocationRepository) IsRevoked(ctx context.Context, jti string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	_, ok := r.s.revoked[jti]
	return ok, nil
}

func (r *RevocationRepository) PurgeExpired(ctx context.Context, before time.Time) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var n int64
	for jti, t := range r.s.revoked {
		if t.ExpiresAt.Before(before) {
			delete(r.s.revoked, jti)
			n++
		}
	}
	return n, nil
}
