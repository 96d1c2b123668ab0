package auth

import (
	"github.com/dmitrijs2005/calckeeper/internal/common"
	"github.com/dmitrijs2005/calckeeper/internal/server/models"
)

// Identity is the resolved caller, passed explicitly into every service
// method that touches owned data.
type Identity struct {
	UserID   string
	Username string
}

func IdentityFromUser(u *models.User) Identity {
	return Identity{UserID: u.ID, Username: u.Username}
}

// Authorize allows access only to the owner. A mismatch is reported as
// common.ErrorNotFound so non-owners cannot probe for existing ids.
func Authorize(id Identity, ownerID string) error {
	if id.UserID == "" || id.UserID != ownerID {
		return common.ErrorNotFound
	}
	return nil
}

// AuthorizeSelf guards account operations addressed by user id.
func AuthorizeSelf(id Identity, userID string) error {
	if id.UserID == "" || id.UserID != userID {
		return common.ErrorForbidden
	}
	return nil
}
