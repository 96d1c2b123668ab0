package services

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/dmitrijs2005/calckeeper/internal/common"
	"github.com/dmitrijs2005/calckeeper/internal/dbx"
	"github.com/dmitrijs2005/calckeeper/internal/logging"
	"github.com/dmitrijs2005/calckeeper/internal/server/auth"
	"github.com/dmitrijs2005/calckeeper/internal/server/config"
	"github.com/dmitrijs2005/calckeeper/internal/server/models"
	"github.com/dmitrijs2005/calckeeper/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/calckeeper/internal/server/validation"
)

// RegisterInput is the registration request.
type RegisterInput struct {
	Username        string `json:"username" validate:"required,min=3,max=50,username"`
	Email           string `json:"email" validate:"required,email,max=255"`
	Password        string `json:"password" validate:"required"`
	ConfirmPassword string `json:"confirm_password" validate:"required"`
	FirstName       string `json:"first_name" validate:"max=50"`
	LastName        string `json:"last_name" validate:"max=50"`
}

// LoginInput accepts a username or an email in Username.
type LoginInput struct {
	Username string `json:"username" form:"username" validate:"required"`
	Password string `json:"password" form:"password" validate:"required"`
}

// ProfileInput changes the fields that are present.
type ProfileInput struct {
	Username  *string `json:"username,omitempty" validate:"omitempty,min=3,max=50,username"`
	Email     *string `json:"email,omitempty" validate:"omitempty,email,max=255"`
	FirstName *string `json:"first_name,omitempty" validate:"omitempty,max=50"`
	LastName  *string `json:"last_name,omitempty" validate:"omitempty,max=50"`
}

type PasswordChange struct {
	CurrentPassword    string `json:"current_password" validate:"required"`
	NewPassword        string `json:"new_password" validate:"required"`
	ConfirmNewPassword string `json:"confirm_new_password" validate:"required"`
}

// Session is what login and refresh return.
type Session struct {
	Tokens auth.Pair
	User   *models.User
}

// UserService handles accounts and sessions.
type UserService struct {
	store
	hasher *auth.Hasher
	issuer *auth.Issuer
}

// NewUserService constructs a UserService using repositories and server config.
func NewUserService(db *sql.DB, m repomanager.RepositoryManager, hasher *auth.Hasher, issuer *auth.Issuer,
	cfg *config.Config, logger logging.Logger) *UserService {
	return &UserService{
		store:  newStore(db, m, cfg.StatementTimeout, logger.With("module", "users")),
		hasher: hasher,
		issuer: issuer,
	}
}

func normalizeEmail(e string) string {
	return strings.ToLower(strings.TrimSpace(e))
}

// FindUser loads a user by id. It backs the auth resolver.
func (s *UserService) FindUser(ctx context.Context, id string) (*models.User, error) {
	var user *models.User
	err := s.read(ctx, func(ctx context.Context, db dbx.DBTX) error {
		var err error
		user, err = s.repomanager.Users(db).GetByID(ctx, id)
		return err
	})
	return user, err
}

// Register validates the request, checks uniqueness and only then hashes
// and stores the user. Nothing is written when any check fails.
func (s *UserService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = normalizeEmail(in.Email)

	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	if err := auth.ValidatePassword(in.Password); err != nil {
		return nil, err
	}
	if in.Password != in.ConfirmPassword {
		return nil, common.NewValidationError("confirm_password", "passwords do not match")
	}

	err := s.read(ctx, func(ctx context.Context, db dbx.DBTX) error {
		exists, err := s.repomanager.Users(db).ExistsByUsernameOrEmail(ctx, in.Username, in.Email, "")
		if err != nil {
			return err
		}
		if exists {
			return common.ErrAlreadyExists
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, asServiceError(err)
	}

	ts := s.now()
	user := &models.User{
		ID:           s.newID(),
		Username:     in.Username,
		Email:        in.Email,
		PasswordHash: hash,
		FirstName:    strings.TrimSpace(in.FirstName),
		LastName:     strings.TrimSpace(in.LastName),
		IsActive:     true,
		CreatedAt:    ts,
		UpdatedAt:    ts,
	}

	// The unique indexes still catch a concurrent registration that slipped
	// past the existence check.
	err = s.write(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		_, err := s.repomanager.Users(tx).Create(ctx, user)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info(ctx, "user registered", "user_id", user.ID)
	return user, nil
}

// Login checks credentials and issues a token pair. Unknown login, wrong
// password and inactive account are indistinguishable to the caller.
func (s *UserService) Login(ctx context.Context, in LoginInput) (*Session, error) {
	if err := validation.Struct(in); err != nil {
		return nil, err
	}

	login := strings.TrimSpace(in.Username)
	if strings.Contains(login, "@") {
		login = normalizeEmail(login)
	}

	var user *models.User
	err := s.read(ctx, func(ctx context.Context, db dbx.DBTX) error {
		var err error
		user, err = s.repomanager.Users(db).GetByLogin(ctx, login)
		return err
	})
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			s.hasher.VerifyDummy(in.Password)
			s.logger.Info(ctx, "login failed", "reason", "unknown user")
			return nil, common.ErrorUnauthorized
		}
		return nil, err
	}

	if !s.hasher.Verify(ctx, in.Password, user.PasswordHash) {
		s.logger.Info(ctx, "login failed", "reason", "bad password", "user_id", user.ID)
		return nil, common.ErrorUnauthorized
	}
	if !user.IsActive {
		s.logger.Info(ctx, "login failed", "reason", "inactive", "user_id", user.ID)
		return nil, common.ErrorUnauthorized
	}

	ts := s.now()
	err = s.write(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		return s.repomanager.Users(tx).TouchLastLogin(ctx, user.ID, ts)
	})
	if err != nil {
		return nil, err
	}
	user.LastLogin = &ts

	pair, err := s.issuer.IssuePair(user.ID)
	if err != nil {
		return nil, asServiceError(err)
	}

	s.logger.Info(ctx, "user logged in", "user_id", user.ID)
	return &Session{Tokens: pair, User: user}, nil
}

// Refresh rotates a refresh token: the presented token is revoked and a new
// pair issued in one transaction. A token can be exchanged only once.
func (s *UserService) Refresh(ctx context.Context, refreshToken string) (*Session, error) {
	claims, err := s.issuer.Verify(ctx, refreshToken, auth.KindRefresh)
	if err != nil {
		if errors.Is(err, common.ErrorInternal) {
			return nil, err
		}
		s.logger.Info(ctx, "refresh token rejected", "class", auth.FailureClass(err))
		return nil, common.ErrorUnauthorized
	}

	user, err := s.FindUser(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorUnauthorized
		}
		return nil, err
	}
	if !user.IsActive {
		return nil, common.ErrorUnauthorized
	}

	var pair auth.Pair
	err = s.write(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		fresh, err := s.repomanager.Revocations(tx).Revoke(ctx, claims.ID, claims.Subject, claims.ExpiresAt.Time)
		if err != nil {
			return err
		}
		if !fresh {
			s.logger.Warn(ctx, "refresh token reused", "user_id", claims.Subject, "jti", claims.ID)
			return common.ErrorUnauthorized
		}
		pair, err = s.issuer.IssuePair(user.ID)
		return err
	})
	if err != nil {
		return nil, err
	}

	return &Session{Tokens: pair, User: user}, nil
}

// Logout revokes the access token the request was made with and, when
// given and valid for the same user, the refresh token.
func (s *UserService) Logout(ctx context.Context, access *auth.Claims, refreshToken string) error {
	var refresh *auth.Claims
	if refreshToken != "" {
		c, err := s.issuer.Verify(ctx, refreshToken, auth.KindRefresh)
		switch {
		case err == nil && c.Subject == access.Subject:
			refresh = c
		case err != nil && errors.Is(err, common.ErrorInternal):
			return err
		default:
			s.logger.Info(ctx, "ignoring refresh token on logout", "user_id", access.Subject)
		}
	}

	return s.write(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Revocations(tx)
		if _, err := repo.Revoke(ctx, access.ID, access.Subject, access.ExpiresAt.Time); err != nil {
			return err
		}
		if refresh != nil {
			if _, err := repo.Revoke(ctx, refresh.ID, refresh.Subject, refresh.ExpiresAt.Time); err != nil {
				return err
			}
		}
		return nil
	})
}

// Profile returns the caller's own account.
func (s *UserService) Profile(ctx context.Context, id auth.Identity) (*models.User, error) {
	return s.FindUser(ctx, id.UserID)
}

// GetUser returns any account to an authenticated caller.
func (s *UserService) GetUser(ctx context.Context, _ auth.Identity, userID string) (*models.User, error) {
	userID, err := parseID(userID)
	if err != nil {
		return nil, err
	}
	return s.FindUser(ctx, userID)
}

func (s *UserService) selfID(id auth.Identity, userID string) (string, error) {
	userID, err := parseID(userID)
	if err != nil {
		return "", err
	}
	if err := auth.AuthorizeSelf(id, userID); err != nil {
		return "", err
	}
	return userID, nil
}

// UpdateProfile applies in to the caller's own account.
func (s *UserService) UpdateProfile(ctx context.Context, id auth.Identity, userID string, in ProfileInput) (*models.User, error) {
	userID, err := s.selfID(id, userID)
	if err != nil {
		return nil, err
	}

	if in.Username != nil {
		v := strings.TrimSpace(*in.Username)
		in.Username = &v
	}
	if in.Email != nil {
		v := normalizeEmail(*in.Email)
		in.Email = &v
	}
	if err := validation.Struct(in); err != nil {
		return nil, err
	}

	var user *models.User
	err = s.write(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Users(tx)

		var err error
		user, err = repo.GetByID(ctx, userID)
		if err != nil {
			return err
		}

		if in.Username != nil {
			user.Username = *in.Username
		}
		if in.Email != nil {
			user.Email = *in.Email
		}
		if in.FirstName != nil {
			user.FirstName = strings.TrimSpace(*in.FirstName)
		}
		if in.LastName != nil {
			user.LastName = strings.TrimSpace(*in.LastName)
		}

		if in.Username != nil || in.Email != nil {
			taken, err := repo.ExistsByUsernameOrEmail(ctx, user.Username, user.Email, user.ID)
			if err != nil {
				return err
			}
			if taken {
				return common.ErrAlreadyExists
			}
		}

		user.UpdatedAt = s.now()
		return repo.Update(ctx, user)
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

// ChangePassword replaces the caller's password. Existing tokens stay
// valid until they expire.
func (s *UserService) ChangePassword(ctx context.Context, id auth.Identity, userID string, in PasswordChange) (*models.User, error) {
	userID, err := s.selfID(id, userID)
	if err != nil {
		return nil, err
	}
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	if err := auth.ValidatePassword(in.NewPassword); err != nil {
		var ve *common.ValidationError
		if errors.As(err, &ve) {
			return nil, &common.ValidationError{Fields: map[string]string{"new_password": ve.Fields["password"]}}
		}
		return nil, err
	}
	if in.NewPassword != in.ConfirmNewPassword {
		return nil, common.NewValidationError("confirm_new_password", "passwords do not match")
	}
	if in.NewPassword == in.CurrentPassword {
		return nil, common.NewValidationError("new_password", "must differ from the current password")
	}

	user, err := s.FindUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !s.hasher.Verify(ctx, in.CurrentPassword, user.PasswordHash) {
		return nil, common.NewValidationError("current_password", "is incorrect")
	}

	hash, err := s.hasher.Hash(in.NewPassword)
	if err != nil {
		return nil, asServiceError(err)
	}

	ts := s.now()
	err = s.write(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		return s.repomanager.Users(tx).UpdatePassword(ctx, userID, hash, ts)
	})
	if err != nil {
		return nil, err
	}

	user.PasswordHash = hash
	user.UpdatedAt = ts
	s.logger.Info(ctx, "password changed", "user_id", userID)
	return user, nil
}

// Deactivate marks the caller's account inactive. Its tokens stop
// resolving immediately.
func (s *UserService) Deactivate(ctx context.Context, id auth.Identity, userID string) (*models.User, error) {
	userID, err := s.selfID(id, userID)
	if err != nil {
		return nil, err
	}

	var user *models.User
	err = s.write(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Users(tx)
		ts := s.now()
		if err := repo.SetActive(ctx, userID, false, ts); err != nil {
			return err
		}
		var err error
		user, err = repo.GetByID(ctx, userID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info(ctx, "user deactivated", "user_id", userID)
	return user, nil
}

// Delete removes the caller's account together with its calculations.
func (s *UserService) Delete(ctx context.Context, id auth.Identity, userID string) error {
	userID, err := s.selfID(id, userID)
	if err != nil {
		return err
	}

	err = s.write(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		return s.repomanager.Users(tx).Delete(ctx, userID)
	})
	if err != nil {
		return err
	}

	s.logger.Info(ctx, "user deleted", "user_id", userID)
	return nil
}
