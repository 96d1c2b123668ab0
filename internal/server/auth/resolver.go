package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/calckeeper/internal/common"
	"github.com/dmitrijs2005/calckeeper/internal/logging"
	"github.com/dmitrijs2005/calckeeper/internal/server/models"
)

// TokenVerifier is satisfied by *Issuer.
type TokenVerifier interface {
	Verify(ctx context.Context, token string, kind TokenKind) (*Claims, error)
}

// UserFinder loads the subject of a verified token.
type UserFinder interface {
	FindUser(ctx context.Context, id string) (*models.User, error)
}

// BearerToken extracts the credential from an Authorization header value.
// The scheme is matched case-insensitively.
func BearerToken(header string) (string, bool) {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, common.BearerScheme) {
		return "", false
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return "", false
	}
	return token, true
}

// Resolver turns an Authorization header into the calling user.
type Resolver struct {
	verifier TokenVerifier
	users    UserFinder
	logger   logging.Logger
}

func NewResolver(verifier TokenVerifier, users UserFinder, logger logging.Logger) *Resolver {
	return &Resolver{verifier: verifier, users: users, logger: logger.With("module", "auth")}
}

// Resolve returns the active user behind header together with the verified
// access-token claims.
//
// Every rejection is common.ErrorUnauthorized regardless of cause; the cause
// is only logged. Store failures are common.ErrorInternal.
func (r *Resolver) Resolve(ctx context.Context, header string) (*models.User, *Claims, error) {
	token, ok := BearerToken(header)
	if !ok {
		return nil, nil, common.ErrorUnauthorized
	}

	claims, err := r.verifier.Verify(ctx, token, KindAccess)
	if err != nil {
		if errors.Is(err, common.ErrorInternal) {
			r.logger.Error(ctx, "token verification failed", "error", err)
			return nil, nil, err
		}
		r.logger.Info(ctx, "access token rejected", "class", FailureClass(err), "error", err)
		return nil, nil, common.ErrorUnauthorized
	}

	user, err := r.users.FindUser(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			r.logger.Info(ctx, "token subject not found", "user_id", claims.Subject)
			return nil, nil, common.ErrorUnauthorized
		}
		r.logger.Error(ctx, "user lookup failed", "user_id", claims.Subject, "error", err)
		return nil, nil, fmt.Errorf("%w: %v", common.ErrorInternal, err)
	}

	if !user.IsActive {
		r.logger.Info(ctx, "token subject inactive", "user_id", user.ID)
		return nil, nil, common.ErrorUnauthorized
	}

	return user, claims, nil
}
