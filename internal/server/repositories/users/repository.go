// Package users holds persistence for user identities.
package users

import (
	"context"

	"github.com/dmitrijs2005/contactkeeper/internal/server/models"
)

type Repository interface {
	// Create inserts user and fills its ID and CreatedAt. A taken username or
	// email yields common.ErrorAlreadyExists.
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetUserByLogin(ctx context.Context, login string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	// SetRefreshToken overwrites the stored refresh token. nil clears it.
	SetRefreshToken(ctx context.Context, userID string, token *string) error
	// RotateRefreshToken replaces current with next only if current is still
	// the stored value, otherwise it returns common.ErrStaleToken.
	RotateRefreshToken(ctx context.Context, userID, current, next string) error
}
