package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dmitrijs2005/calckeeper/internal/common"
	"github.com/dmitrijs2005/calckeeper/internal/logging"
	"github.com/dmitrijs2005/calckeeper/internal/server/auth"
	"github.com/dmitrijs2005/calckeeper/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newUserService(t *testing.T, m *fakeRepoManager) (*UserService, *auth.Hasher) {
	t.Helper()
	db, _ := newSQLMockDB(t)
	cfg := testConfig()
	h := newHasher(t)
	var revs auth.RevocationStore
	if m.r != nil {
		revs = m.r
	}
	return NewUserService(db, m, h, newIssuer(t, cfg, revs), cfg, logging.Nop()), h
}

func validRegistration() RegisterInput {
	return RegisterInput{
		Username:        "johndoe",
		Email:           "john@example.com",
		Password:        "SecurePass123!",
		ConfirmPassword: "SecurePass123!",
	}
}

func TestRegister_RejectsBeforeTouchingStore(t *testing.T) {
	tests := []struct {
		name  string
		edit  func(*RegisterInput)
		field string
	}{
		{"short username", func(in *RegisterInput) { in.Username = "jo" }, "username"},
		{"bad username chars", func(in *RegisterInput) { in.Username = "john doe!" }, "username"},
		{"bad email", func(in *RegisterInput) { in.Email = "not-an-email" }, "email"},
		{"weak password", func(in *RegisterInput) { in.Password, in.ConfirmPassword = "password", "password" }, "password"},
		{"mismatch", func(in *RegisterInput) { in.ConfirmPassword = "SecurePass123?" }, "confirm_password"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// A nil users repo would panic if the service reached the store.
			svc, _ := newUserService(t, &fakeRepoManager{})
			in := validRegistration()
			tt.edit(&in)

			_, err := svc.Register(context.Background(), in)
			require.ErrorIs(t, err, common.ErrValidation)

			var ve *common.ValidationError
			require.True(t, errors.As(err, &ve))
			assert.Contains(t, ve.Fields, tt.field)
		})
	}
}

func TestRegister_Success(t *testing.T) {
	db, mock := newSQLMockDB(t)
	repo := &fakeUsersRepo{}
	m := &fakeRepoManager{u: repo}
	cfg := testConfig()
	h := newHasher(t)
	svc := NewUserService(db, m, h, newIssuer(t, cfg, nil), cfg, logging.Nop())
	svc.newID = func() string { return "u-1" }

	mock.ExpectBegin()
	mock.ExpectCommit()

	in := validRegistration()
	in.Email = "  JOHN@Example.com "
	u, err := svc.Register(context.Background(), in)
	require.NoError(t, err)

	assert.Equal(t, "u-1", u.ID)
	assert.Equal(t, "john@example.com", u.Email)
	assert.True(t, u.IsActive)
	assert.True(t, h.Verify(context.Background(), "SecurePass123!", u.PasswordHash))
	require.Len(t, repo.created, 1)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRegister_ExistingUser(t *testing.T) {
	svc, _ := newUserService(t, &fakeRepoManager{u: &fakeUsersRepo{exists: true}})

	_, err := svc.Register(context.Background(), validRegistration())
	assert.ErrorIs(t, err, common.ErrAlreadyExists)
}

func TestRegister_StoreErrorIsInternal(t *testing.T) {
	svc, _ := newUserService(t, &fakeRepoManager{u: &fakeUsersRepo{existsErr: errBoom{}}})

	_, err := svc.Register(context.Background(), validRegistration())
	assert.ErrorIs(t, err, common.ErrorInternal)
}

func TestRegister_CreateConflictRollsBack(t *testing.T) {
	db, mock := newSQLMockDB(t)
	m := &fakeRepoManager{u: &fakeUsersRepo{createErr: common.ErrAlreadyExists}}
	cfg := testConfig()
	svc := NewUserService(db, m, newHasher(t), newIssuer(t, cfg, nil), cfg, logging.Nop())

	mock.ExpectBegin()
	mock.ExpectRollback()

	_, err := svc.Register(context.Background(), validRegistration())
	assert.ErrorIs(t, err, common.ErrAlreadyExists)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestLogin(t *testing.T) {
	h := newHasher(t)
	hash, err := h.Hash("SecurePass123!")
	require.NoError(t, err)

	active := &models.User{ID: "u-1", Username: "johndoe", PasswordHash: hash, IsActive: true}
	inactive := &models.User{ID: "u-2", Username: "janedoe", PasswordHash: hash}

	tests := []struct {
		name    string
		repo    *fakeUsersRepo
		pass    string
		wantErr error
	}{
		{"ok", &fakeUsersRepo{user: active}, "SecurePass123!", nil},
		{"unknown", &fakeUsersRepo{getErr: common.ErrorNotFound}, "SecurePass123!", common.ErrorUnauthorized},
		{"wrong password", &fakeUsersRepo{user: active}, "nope", common.ErrorUnauthorized},
		{"inactive", &fakeUsersRepo{user: inactive}, "SecurePass123!", common.ErrorUnauthorized},
		{"store failure", &fakeUsersRepo{getErr: errBoom{}}, "SecurePass123!", common.ErrorInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock := newSQLMockDB(t)
			m := &fakeRepoManager{u: tt.repo, r: &fakeRevocationsRepo{}}
			cfg := testConfig()
			svc := NewUserService(db, m, h, newIssuer(t, cfg, m.r), cfg, logging.Nop())

			if tt.wantErr == nil {
				mock.ExpectBegin()
				mock.ExpectCommit()
			}

			sess, err := svc.Login(context.Background(), LoginInput{Username: "johndoe", Password: tt.pass})
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, sess)
				return
			}
			require.NoError(t, err)
			assert.NotEmpty(t, sess.Tokens.Access.Value)
			assert.NotEmpty(t, sess.Tokens.Refresh.Value)
			assert.NotNil(t, sess.User.LastLogin)
			require.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestRefresh_ReusedTokenIsRejected(t *testing.T) {
	db, mock := newSQLMockDB(t)
	user := &models.User{ID: "u-1", IsActive: true}
	revs := &fakeRevocationsRepo{fresh: false}
	m := &fakeRepoManager{u: &fakeUsersRepo{user: user}, r: revs}
	cfg := testConfig()
	// The issuer sees no revocations so the repo's "already revoked" answer
	// decides.
	issuer := newIssuer(t, cfg, nil)
	svc := NewUserService(db, m, newHasher(t), issuer, cfg, logging.Nop())

	tok, err := issuer.IssueRefresh("u-1")
	require.NoError(t, err)

	mock.ExpectBegin()
	mock.ExpectRollback()

	_, err = svc.Refresh(context.Background(), tok.Value)
	assert.ErrorIs(t, err, common.ErrorUnauthorized)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRefresh_RotatesPair(t *testing.T) {
	db, mock := newSQLMockDB(t)
	user := &models.User{ID: "u-1", IsActive: true}
	revs := &fakeRevocationsRepo{fresh: true}
	m := &fakeRepoManager{u: &fakeUsersRepo{user: user}, r: revs}
	cfg := testConfig()
	issuer := newIssuer(t, cfg, nil)
	svc := NewUserService(db, m, newHasher(t), issuer, cfg, logging.Nop())

	tok, err := issuer.IssueRefresh("u-1")
	require.NoError(t, err)

	mock.ExpectBegin()
	mock.ExpectCommit()

	sess, err := svc.Refresh(context.Background(), tok.Value)
	require.NoError(t, err)
	assert.Equal(t, []string{tok.ID}, revs.revoked)
	assert.NotEqual(t, tok.ID, sess.Tokens.Refresh.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRefresh_BadTokens(t *testing.T) {
	cfg := testConfig()
	m := &fakeRepoManager{u: &fakeUsersRepo{getErr: common.ErrorNotFound}, r: &fakeRevocationsRepo{}}
	svc, _ := newUserService(t, m)

	other := newIssuer(t, cfg, nil)
	access, err := other.IssueAccess("u-1")
	require.NoError(t, err)
	refresh, err := other.IssueRefresh("ghost")
	require.NoError(t, err)

	for name, tok := range map[string]string{
		"garbage":        "not-a-jwt",
		"access token":   access.Value,
		"unknown holder": refresh.Value,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := svc.Refresh(context.Background(), tok)
			assert.ErrorIs(t, err, common.ErrorUnauthorized)
		})
	}
}

func TestAccountOperations_OnlySelf(t *testing.T) {
	svc, _ := newUserService(t, &fakeRepoManager{})
	id := auth.Identity{UserID: "5b0f4b49-6f1c-4a0e-9a51-1f4b4e3b8a11"}
	other := "0e7c7a8e-2f8b-4c36-8bb0-8f6a3f0c9d22"
	ctx := context.Background()

	_, err := svc.UpdateProfile(ctx, id, other, ProfileInput{})
	assert.ErrorIs(t, err, common.ErrorForbidden)
	_, err = svc.ChangePassword(ctx, id, other, PasswordChange{})
	assert.ErrorIs(t, err, common.ErrorForbidden)
	_, err = svc.Deactivate(ctx, id, other)
	assert.ErrorIs(t, err, common.ErrorForbidden)
	assert.ErrorIs(t, svc.Delete(ctx, id, other), common.ErrorForbidden)

	assert.ErrorIs(t, svc.Delete(ctx, id, "not-a-uuid"), common.ErrInvalidID)
	_, err = svc.GetUser(ctx, id, "not-a-uuid")
	assert.ErrorIs(t, err, common.ErrInvalidID)
}

func TestChangePassword_Checks(t *testing.T) {
	h := newHasher(t)
	hash, err := h.Hash("SecurePass123!")
	require.NoError(t, err)

	uid := "5b0f4b49-6f1c-4a0e-9a51-1f4b4e3b8a11"
	m := &fakeRepoManager{u: &fakeUsersRepo{user: &models.User{ID: uid, PasswordHash: hash, IsActive: true}}}
	db, _ := newSQLMockDB(t)
	cfg := testConfig()
	svc := NewUserService(db, m, h, newIssuer(t, cfg, nil), cfg, logging.Nop())
	id := auth.Identity{UserID: uid}

	tests := []struct {
		name  string
		in    PasswordChange
		field string
	}{
		{"weak", PasswordChange{"SecurePass123!", "weak", "weak"}, "new_password"},
		{"mismatch", PasswordChange{"SecurePass123!", "EvenBetter456?", "EvenBetter456!"}, "confirm_new_password"},
		{"same", PasswordChange{"SecurePass123!", "SecurePass123!", "SecurePass123!"}, "new_password"},
		{"wrong current", PasswordChange{"Nope12345678!", "EvenBetter456?", "EvenBetter456?"}, "current_password"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.ChangePassword(context.Background(), id, uid, tt.in)
			var ve *common.ValidationError
			require.True(t, errors.As(err, &ve), "got %v", err)
			assert.Contains(t, ve.Fields, tt.field)
		})
	}
}

func TestStore_DeadlineIsInternal(t *testing.T) {
	m := &fakeRepoManager{u: &fakeUsersRepo{getErr: context.DeadlineExceeded}}
	svc, _ := newUserService(t, m)
	svc.timeout = time.Millisecond

	_, err := svc.FindUser(context.Background(), "u-1")
	assert.ErrorIs(t, err, common.ErrorInternal)
}
