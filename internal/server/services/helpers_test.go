package services

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/calckeeper/internal/dbx"
	"github.com/dmitrijs2005/calckeeper/internal/logging"
	"github.com/dmitrijs2005/calckeeper/internal/server/auth"
	"github.com/dmitrijs2005/calckeeper/internal/server/config"
	"github.com/dmitrijs2005/calckeeper/internal/server/models"
	"github.com/dmitrijs2005/calckeeper/internal/server/repositories/calculations"
	"github.com/dmitrijs2005/calckeeper/internal/server/repositories/memory"
	"github.com/dmitrijs2005/calckeeper/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/calckeeper/internal/server/repositories/revocations"
	"github.com/dmitrijs2005/calckeeper/internal/server/repositories/users"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	_ "modernc.org/sqlite"
)

// -------- test fakes --------

type fakeUsersRepo struct {
	users.Repository
	user      *models.User
	getErr    error
	exists    bool
	existsErr error
	createErr error
	updateErr error
	created   []*models.User
}

func (f *fakeUsersRepo) GetByID(ctx context.Context, id string) (*models.User, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	u := *f.user
	return &u, nil
}

func (f *fakeUsersRepo) GetByLogin(ctx context.Context, login string) (*models.User, error) {
	return f.GetByID(ctx, login)
}

func (f *fakeUsersRepo) ExistsByUsernameOrEmail(ctx context.Context, username, email, excludeID string) (bool, error) {
	return f.exists, f.existsErr
}

func (f *fakeUsersRepo) Create(ctx context.Context, u *models.User) (*models.User, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.created = append(f.created, u)
	return u, nil
}

func (f *fakeUsersRepo) Update(ctx context.Context, u *models.User) error { return f.updateErr }

func (f *fakeUsersRepo) TouchLastLogin(ctx context.Context, id string, at time.Time) error {
	return f.updateErr
}

type fakeCalcsRepo struct {
	calculations.Repository
	calc      *models.Calculation
	getErr    error
	list      []*models.Calculation
	listErr   error
	filter    models.CalculationFilter
	counts    map[string]int64
	createErr error
	updateErr error
	created   []*models.Calculation
	updated   []*models.Calculation
	forUpdate bool
}

func (f *fakeCalcsRepo) Create(ctx context.Context, c *models.Calculation) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.created = append(f.created, c)
	return nil
}

func (f *fakeCalcsRepo) GetForOwner(ctx context.Context, id, ownerID string, forUpdate bool) (*models.Calculation, error) {
	f.forUpdate = forUpdate
	if f.getErr != nil {
		return nil, f.getErr
	}
	c := *f.calc
	c.Inputs = append([]float64(nil), f.calc.Inputs...)
	return &c, nil
}

func (f *fakeCalcsRepo) List(ctx context.Context, ownerID string, filter models.CalculationFilter) ([]*models.Calculation, error) {
	f.filter = filter
	return f.list, f.listErr
}

func (f *fakeCalcsRepo) Update(ctx context.Context, c *models.Calculation, expectedVersion int64) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	c.Version++
	f.updated = append(f.updated, c)
	return nil
}

func (f *fakeCalcsRepo) CountByType(ctx context.Context, ownerID string) (map[string]int64, error) {
	return f.counts, f.listErr
}

type fakeRevocationsRepo struct {
	revocations.Repository
	fresh   bool
	err     error
	revoked []string
	purged  int64
}

func (f *fakeRevocationsRepo) Revoke(ctx context.Context, jti, userID string, expiresAt time.Time) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	f.revoked = append(f.revoked, jti)
	return f.fresh, nil
}

func (f *fakeRevocationsRepo) IsRevoked(ctx context.Context, jti string) (bool, error) {
	for _, r := range f.revoked {
		if r == jti {
			return true, nil
		}
	}
	return false, f.err
}

func (f *fakeRevocationsRepo) PurgeExpired(ctx context.Context, before time.Time) (int64, error) {
	return f.purged, f.err
}

type fakeRepoManager struct {
	repomanager.RepositoryManager
	u *fakeUsersRepo
	c *fakeCalcsRepo
	r *fakeRevocationsRepo
}

func (m *fakeRepoManager) Users(dbx.DBTX) users.Repository               { return m.u }
func (m *fakeRepoManager) Calculations(dbx.DBTX) calculations.Repository { return m.c }
func (m *fakeRepoManager) Revocations(dbx.DBTX) revocations.Repository   { return m.r }

type errBoom struct{}

func (errBoom) Error() string { return "boom" }

// -------- helpers --------

func newSQLMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db, mock
}

func testConfig() *config.Config {
	return &config.Config{
		SecretKey:                    "test-secret",
		AccessTokenValidityDuration:  15 * time.Minute,
		RefreshTokenValidityDuration: time.Hour,
		BcryptCost:                   bcrypt.MinCost,
		StatementTimeout:             time.Second,
		S3Region:                     "us-east-1",
		S3RootUser:                   "minioadmin",
		S3RootPassword:               "minioadmin",
		S3BaseEndpoint:               "http://127.0.0.1:9000",
		S3Bucket:                     "calckeeper",
	}
}

func newHasher(t *testing.T) *auth.Hasher {
	t.Helper()
	h, err := auth.NewHasher(bcrypt.MinCost, logging.Nop())
	require.NoError(t, err)
	return h
}

func newIssuer(t *testing.T, cfg *config.Config, store auth.RevocationStore) *auth.Issuer {
	t.Helper()
	i, err := auth.NewIssuer(auth.TokenConfig{
		AccessSecret:  []byte(cfg.SecretKey),
		RefreshSecret: []byte(cfg.RefreshSecret()),
		AccessTTL:     cfg.AccessTokenValidityDuration,
		RefreshTTL:    cfg.RefreshTokenValidityDuration,
	}, store)
	require.NoError(t, err)
	return i
}

// world is a fully wired service layer over the in-memory store, with an
// SQLite handle providing transaction boundaries.
type world struct {
	users  *UserService
	calcs  *CalculationService
	issuer *auth.Issuer
	store  *memory.Store
}

func newWorld(t *testing.T) *world {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	cfg := testConfig()
	store := memory.NewStore()
	rm := repomanager.NewMemoryRepositoryManager(store)
	issuer := newIssuer(t, cfg, NewRevocationChecker(db, rm, cfg.StatementTimeout, logging.Nop()))

	return &world{
		users:  NewUserService(db, rm, newHasher(t), issuer, cfg, logging.Nop()),
		calcs:  NewCalculationService(db, rm, cfg, logging.Nop()),
		issuer: issuer,
		store:  store,
	}
}

func (w *world) register(t *testing.T, username, email string) *models.User {
	t.Helper()
	u, err := w.users.Register(context.Background(), RegisterInput{
		Username:        username,
		Email:           email,
		Password:        "SecurePass123!",
		ConfirmPassword: "SecurePass123!",
	})
	require.NoError(t, err)
	return u
}
