package entity

import (
	"time"

	"github.com/google/uuid"
)

// User is the aggregate root for the account domain.
// Passwords are stored as bcrypt hashes in Password field.
//
// ConfirmationToken and ResetPasswordToken are single-use: the
// confirmation token is set to NULL once the email is verified, the
// reset token is set to the empty string once a password reset
// completes. A nil pointer therefore means "no token outstanding".
type User struct {
	ID                 int64
	UID                uuid.UUID
	Email              string
	Password           string
	EmailVerified      bool
	ConfirmationToken  *string
	ResetPasswordToken *string
	CreatedAt          time.Time
}
