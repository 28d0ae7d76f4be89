package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/crmhq/crm-server/internal/domain/entity"
)

// ErrNotFound is returned when a row does not exist. For owner-scoped
// lookups it is also returned on ownership mismatch, so callers cannot
// tell the two apart.
var ErrNotFound = errors.New("not found")

// ErrDuplicateEmail is returned when an insert violates an email
// unique constraint.
var ErrDuplicateEmail = errors.New("email already exists")

// UserRepository defines user account persistence operations.
type UserRepository interface {
	Create(ctx context.Context, u *entity.User) error
	GetByID(ctx context.Context, id int64) (*entity.User, error)
	GetByUID(ctx context.Context, uid uuid.UUID) (*entity.User, error)
	GetByEmail(ctx context.Context, email string) (*entity.User, error)
	// MarkVerified sets email_verified=true and clears the confirmation
	// token (NULL) in one statement.
	MarkVerified(ctx context.Context, id int64) error
	SetResetToken(ctx context.Context, id int64, token string) error
	GetByIDAndResetToken(ctx context.Context, id int64, token string) (*entity.User, error)
	// UpdatePassword stores a new password hash and clears the reset
	// token to the empty string.
	UpdatePassword(ctx context.Context, id int64, hash string) error
}
