package application

import (
	"context"
	"errors"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/crmhq/crm-server/internal/domain/entity"
	repo "github.com/crmhq/crm-server/internal/domain/repository"
	"github.com/crmhq/crm-server/pkg/helpers"
	"github.com/crmhq/crm-server/pkg/mailer"
)

const (
	passwordMinLen = 10
	passwordMaxLen = 30

	confirmationTokenBytes = 48
	resetTokenBytes        = 24

	sessionTTL = 24 * time.Hour
)

// Publisher enqueues email jobs; satisfied by helpers.RabbitPublisher.
type Publisher interface {
	PublishJSON(ctx context.Context, body any) error
}

// AccountService owns user identity: signup with email confirmation,
// authentication, and the password reset flow. Emails are dispatched
// through the queue, never inline.
type AccountService struct {
	Repo        repo.UserRepository
	Pub         Publisher
	Redis       *redis.Client
	JWT         *helpers.JWTManager
	Logger      *logrus.Logger
	BaseURL     string
	MailEnabled bool
}

func NewAccountService(r repo.UserRepository, pub Publisher, rdb *redis.Client, jwt *helpers.JWTManager, logger *logrus.Logger, baseURL string, mailEnabled bool) *AccountService {
	return &AccountService{Repo: r, Pub: pub, Redis: rdb, JWT: jwt, Logger: logger, BaseURL: baseURL, MailEnabled: mailEnabled}
}

type TokenPair struct {
	AccessToken        string
	AccessTokenExpiry  time.Time
	RefreshToken       string
	RefreshTokenExpiry time.Time
}

func nowRFC3339() string {
	return time.Now().UTC().Format(time.RFC3339Nano)
}

// Signup validates and persists a new, unverified account and enqueues
// the activation email. The confirmation token is single-use.
func (s *AccountService) Signup(ctx context.Context, email, password, confirm string) (*entity.User, error) {
	if n := utf8.RuneCountInString(password); n < passwordMinLen {
		return nil, NewValidationError("password", "Password is too short")
	} else if n > passwordMaxLen {
		return nil, NewValidationError("password", "Password is too long")
	}
	if password != confirm {
		return nil, NewValidationError("confirm_password", "Passwords do not match.")
	}
	if _, err := s.Repo.GetByEmail(ctx, email); err == nil {
		return nil, NewValidationError("email", "A user with the same email address already exists.")
	} else if !errors.Is(err, repo.ErrNotFound) {
		return nil, err
	}

	hash, err := helpers.HashPassword(password)
	if err != nil {
		return nil, err
	}
	token, err := helpers.RandomToken(confirmationTokenBytes)
	if err != nil {
		return nil, err
	}

	u := &entity.User{
		UID:               uuid.New(),
		Email:             email,
		Password:          hash,
		EmailVerified:     false,
		ConfirmationToken: &token,
	}
	if err := s.Repo.Create(ctx, u); err != nil {
		if errors.Is(err, repo.ErrDuplicateEmail) {
			return nil, NewValidationError("email", "A user with the same email address already exists.")
		}
		return nil, err
	}

	link := fmt.Sprintf("%s/auth/confirm_email/%s/%s/", s.BaseURL, u.UID, token)
	s.enqueueEmail(ctx, u.Email, "Activate your account",
		"Here is the link to activate your account: "+link)

	return u, nil
}

// Authenticate checks the account in a fixed order: existence, email
// verification, then the password. Verification is rejected before the
// password is even looked at.
func (s *AccountService) Authenticate(ctx context.Context, email, password string) (*entity.User, error) {
	u, err := s.Repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	if !u.EmailVerified {
		return nil, ErrEmailNotVerified
	}
	if !helpers.CompareHashAndPassword(u.Password, password) {
		return nil, ErrInvalidCredentials
	}
	return u, nil
}

// IssueTokens generates the access/refresh pair and records a session
// hash in Redis.
func (s *AccountService) IssueTokens(ctx context.Context, u *entity.User) (TokenPair, error) {
	access, aexp, err := s.JWT.GenerateAccessToken(u.ID)
	if err != nil {
		return TokenPair{}, err
	}
	refresh, rexp, err := s.JWT.GenerateRefreshToken(u.ID)
	if err != nil {
		return TokenPair{}, err
	}

	if s.Redis != nil {
		key := helpers.SessionKey(u.ID)
		pipe := s.Redis.Pipeline()
		pipe.HSet(ctx, key, map[string]any{
			"user_id":        u.ID,
			"email":          u.Email,
			"email_verified": u.EmailVerified,
			"logged_in":      true,
			"created_at":     nowRFC3339(),
		})
		pipe.Expire(ctx, key, sessionTTL)
		if _, rErr := pipe.Exec(ctx); rErr != nil && s.Logger != nil {
			s.Logger.WithError(rErr).WithField("key", key).Warn("redis pipeline failed")
		}
	}

	return TokenPair{AccessToken: access, AccessTokenExpiry: aexp, RefreshToken: refresh, RefreshTokenExpiry: rexp}, nil
}

func (s *AccountService) Login(ctx context.Context, email, password string) (*entity.User, TokenPair, error) {
	u, err := s.Authenticate(ctx, email, password)
	if err != nil {
		return nil, TokenPair{}, err
	}
	pair, err := s.IssueTokens(ctx, u)
	if err != nil {
		return nil, TokenPair{}, err
	}
	return u, pair, nil
}

// Logout drops the server-side session.
func (s *AccountService) Logout(ctx context.Context, userID int64) {
	if s.Redis == nil {
		return
	}
	if err := s.Redis.Del(ctx, helpers.SessionKey(userID)).Err(); err != nil && s.Logger != nil {
		s.Logger.WithError(err).WithField("user_id", userID).Warn("session delete failed")
	}
}

// ConfirmEmail verifies the account identified by uid if token matches
// its outstanding confirmation token. Mismatch, reuse, and an already
// verified account all fail with the same generic error.
func (s *AccountService) ConfirmEmail(ctx context.Context, uid uuid.UUID, token string) error {
	u, err := s.Repo.GetByUID(ctx, uid)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}
	if u.EmailVerified || u.ConfirmationToken == nil || token == "" || *u.ConfirmationToken != token {
		return ErrInvalidToken
	}
	return s.Repo.MarkVerified(ctx, u.ID)
}

// RequestPasswordReset issues a fresh single-use reset token and mails
// a link embedding user id + token.
func (s *AccountService) RequestPasswordReset(ctx context.Context, email string) error {
	u, err := s.Repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return NewValidationError("email", "A user with this email was not found.")
		}
		return err
	}

	token, err := helpers.RandomToken(resetTokenBytes)
	if err != nil {
		return err
	}
	if err := s.Repo.SetResetToken(ctx, u.ID, token); err != nil {
		return err
	}

	link := fmt.Sprintf("%s/auth/reset/%d/%s/", s.BaseURL, u.ID, token)
	s.enqueueEmail(ctx, u.Email, "Reset your password",
		"Here is the link to reset your password: "+link)

	return nil
}

// ValidateResetToken reports whether id plus token still identify an
// outstanding reset request. Used to gate the reset form itself.
func (s *AccountService) ValidateResetToken(ctx context.Context, id int64, token string) error {
	if token == "" {
		return ErrNotFound
	}
	if _, err := s.Repo.GetByIDAndResetToken(ctx, id, token); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}
	return nil
}

// ResetPassword consumes a reset token. The user is looked up by id AND
// exact token match; anything else is a 404-equivalent. On success the
// token is cleared to the empty string, so it cannot match again.
func (s *AccountService) ResetPassword(ctx context.Context, id int64, token, newPassword, confirm string) error {
	// An already consumed token is stored as ''; refuse to match it.
	if token == "" {
		return ErrNotFound
	}
	u, err := s.Repo.GetByIDAndResetToken(ctx, id, token)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}
	if newPassword != confirm {
		return NewValidationError("confirm_password", "Passwords do not match.")
	}
	hash, err := helpers.HashPassword(newPassword)
	if err != nil {
		return err
	}
	return s.Repo.UpdatePassword(ctx, u.ID, hash)
}

// enqueueEmail publishes a job and forgets about it; the request path
// never waits on delivery.
func (s *AccountService) enqueueEmail(ctx context.Context, to, subject, body string) {
	if !s.MailEnabled || s.Pub == nil {
		return
	}
	job := mailer.EmailJob{To: []string{to}, Subject: subject, Body: body}
	if err := s.Pub.PublishJSON(ctx, job); err != nil && s.Logger != nil {
		s.Logger.WithError(err).WithField("to", to).Warn("failed to publish email job")
	}
}
