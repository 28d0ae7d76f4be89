package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crmhq/crm-server/internal/application"
	"github.com/crmhq/crm-server/internal/domain/entity"
	"github.com/crmhq/crm-server/internal/domain/repository"
	"github.com/crmhq/crm-server/pkg/helpers"
)

type memUserRepo struct {
	users  map[int64]*entity.User
	nextID int64
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{users: map[int64]*entity.User{}, nextID: 1}
}

func (r *memUserRepo) Create(_ context.Context, u *entity.User) error {
	for _, v := range r.users {
		if v.Email == u.Email {
			return repository.ErrDuplicateEmail
		}
	}
	u.ID = r.nextID
	r.nextID++
	cp := *u
	r.users[u.ID] = &cp
	return nil
}

func (r *memUserRepo) GetByID(_ context.Context, id int64) (*entity.User, error) {
	if u, ok := r.users[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, repository.ErrNotFound
}

func (r *memUserRepo) GetByUID(_ context.Context, uid uuid.UUID) (*entity.User, error) {
	for _, u := range r.users {
		if u.UID == uid {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *memUserRepo) GetByEmail(_ context.Context, email string) (*entity.User, error) {
	for _, u := range r.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *memUserRepo) MarkVerified(_ context.Context, id int64) error {
	u, ok := r.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	u.EmailVerified = true
	u.ConfirmationToken = nil
	return nil
}

func (r *memUserRepo) SetResetToken(_ context.Context, id int64, token string) error {
	u, ok := r.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	u.ResetPasswordToken = &token
	return nil
}

func (r *memUserRepo) GetByIDAndResetToken(_ context.Context, id int64, token string) (*entity.User, error) {
	u, ok := r.users[id]
	if !ok || u.ResetPasswordToken == nil || *u.ResetPasswordToken != token {
		return nil, repository.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (r *memUserRepo) UpdatePassword(_ context.Context, id int64, hash string) error {
	u, ok := r.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	empty := ""
	u.Password = hash
	u.ResetPasswordToken = &empty
	return nil
}

var _ repository.UserRepository = (*memUserRepo)(nil)

func newAuthRouter(repo *memUserRepo) *gin.Engine {
	jwt := helpers.NewJWTManager("access-secret", "refresh-secret", time.Hour, 24*time.Hour)
	svc := application.NewAccountService(repo, nil, nil, jwt, nil, "http://localhost:8080", false)
	h := NewAuthHandler(svc, nil, "localhost", false)

	r := gin.New()
	r.GET("/", h.Home)
	r.POST("/auth/login", h.Login)
	r.POST("/auth/signup/", h.Signup)
	r.GET("/auth/confirm_email/:uid/:token/", h.ConfirmEmail)
	r.POST("/auth/password_reset/", h.PasswordResetRequest)
	r.GET("/auth/reset/:uid/:token/", h.ResetPasswordForm)
	r.POST("/auth/reset/:uid/:token/", h.ResetPassword)
	return r
}

func signupUser(t *testing.T, r *gin.Engine, email string) {
	t.Helper()
	body, _ := json.Marshal(gin.H{"email": email, "password": "longenough1", "confirm_password": "longenough1"})
	w := doJSON(r, http.MethodPost, "/auth/signup/", string(body), nil)
	require.Equal(t, http.StatusCreated, w.Code)
}

func TestHome(t *testing.T) {
	w := doJSON(newAuthRouter(newMemUserRepo()), http.MethodGet, "/", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	data := body["data"].(map[string]any)
	assert.Equal(t, "Welcome to the Main Page!", data["main"])
}

func TestSignupEndpoint(t *testing.T) {
	r := newAuthRouter(newMemUserRepo())

	t.Run("short password", func(t *testing.T) {
		w := doJSON(r, http.MethodPost, "/auth/signup/", `{"email":"a@b.com","password":"short1234","confirm_password":"short1234"}`, nil)
		require.Equal(t, http.StatusBadRequest, w.Code)
		body := decodeBody(t, w)
		details := body["error"].(map[string]any)
		assert.Equal(t, "Password is too short", details["password"])
	})

	t.Run("mismatch", func(t *testing.T) {
		w := doJSON(r, http.MethodPost, "/auth/signup/", `{"email":"a@b.com","password":"longenough1","confirm_password":"longenough2"}`, nil)
		require.Equal(t, http.StatusBadRequest, w.Code)
		body := decodeBody(t, w)
		details := body["error"].(map[string]any)
		assert.Equal(t, "Passwords do not match.", details["confirm_password"])
	})

	t.Run("bad email", func(t *testing.T) {
		w := doJSON(r, http.MethodPost, "/auth/signup/", `{"email":"nope","password":"longenough1","confirm_password":"longenough1"}`, nil)
		require.Equal(t, http.StatusBadRequest, w.Code)
		body := decodeBody(t, w)
		details := body["error"].(map[string]any)
		assert.Equal(t, "Enter a valid email address.", details["email"])
	})

	t.Run("success", func(t *testing.T) {
		w := doJSON(r, http.MethodPost, "/auth/signup/", `{"email":"ok@example.com","password":"longenough1","confirm_password":"longenough1"}`, nil)
		require.Equal(t, http.StatusCreated, w.Code)
		body := decodeBody(t, w)
		assert.Equal(t, "Please confirm your email address to complete the registration", body["message"])
	})

	t.Run("duplicate", func(t *testing.T) {
		w := doJSON(r, http.MethodPost, "/auth/signup/", `{"email":"ok@example.com","password":"longenough1","confirm_password":"longenough1"}`, nil)
		require.Equal(t, http.StatusBadRequest, w.Code)
		body := decodeBody(t, w)
		details := body["error"].(map[string]any)
		assert.Equal(t, "A user with the same email address already exists.", details["email"])
	})
}

func TestLoginEndpoint(t *testing.T) {
	repo := newMemUserRepo()
	r := newAuthRouter(repo)
	signupUser(t, r, "login@example.com")

	t.Run("unknown email", func(t *testing.T) {
		w := doJSON(r, http.MethodPost, "/auth/login", `{"email":"ghost@example.com","password":"longenough1"}`, nil)
		require.Equal(t, http.StatusUnauthorized, w.Code)
		body := decodeBody(t, w)
		assert.Equal(t, "A user with this email does not exist.", body["message"])
	})

	t.Run("unverified", func(t *testing.T) {
		w := doJSON(r, http.MethodPost, "/auth/login", `{"email":"login@example.com","password":"longenough1"}`, nil)
		require.Equal(t, http.StatusForbidden, w.Code)
		body := decodeBody(t, w)
		assert.Equal(t, "Your account has not been verified. Please confirm your email.", body["message"])
	})

	t.Run("wrong password", func(t *testing.T) {
		require.NoError(t, repo.MarkVerified(context.Background(), 1))
		w := doJSON(r, http.MethodPost, "/auth/login", `{"email":"login@example.com","password":"wrongpassword"}`, nil)
		require.Equal(t, http.StatusUnauthorized, w.Code)
		body := decodeBody(t, w)
		assert.Equal(t, "Invalid email or password.", body["message"])
	})

	t.Run("success", func(t *testing.T) {
		w := doJSON(r, http.MethodPost, "/auth/login", `{"email":"login@example.com","password":"longenough1"}`, nil)
		require.Equal(t, http.StatusOK, w.Code)

		cookies := w.Result().Cookies()
		names := make([]string, 0, len(cookies))
		for _, ck := range cookies {
			names = append(names, ck.Name)
		}
		assert.Contains(t, names, "access_token")
		assert.Contains(t, names, "refresh_token")

		body := decodeBody(t, w)
		meta := body["meta"].(map[string]any)
		assert.Equal(t, "/customers/", meta["redirect"])
	})
}

func TestConfirmEmailEndpoint(t *testing.T) {
	repo := newMemUserRepo()
	r := newAuthRouter(repo)
	signupUser(t, r, "confirm@example.com")

	u := repo.users[1]
	token := *u.ConfirmationToken

	t.Run("bad uid", func(t *testing.T) {
		w := doJSON(r, http.MethodGet, "/auth/confirm_email/not-a-uuid/"+token+"/", "", nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("unknown uid", func(t *testing.T) {
		w := doJSON(r, http.MethodGet, "/auth/confirm_email/"+uuid.NewString()+"/"+token+"/", "", nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("wrong token", func(t *testing.T) {
		w := doJSON(r, http.MethodGet, "/auth/confirm_email/"+u.UID.String()+"/wrongtoken/", "", nil)
		assert.Equal(t, http.StatusFound, w.Code)
		assert.Equal(t, "/auth/signup/", w.Header().Get("Location"))
		assert.Contains(t, w.Header().Get("Set-Cookie"), "flash=")
	})

	t.Run("success", func(t *testing.T) {
		w := doJSON(r, http.MethodGet, "/auth/confirm_email/"+u.UID.String()+"/"+token+"/", "", nil)
		require.Equal(t, http.StatusOK, w.Code)
		body := decodeBody(t, w)
		assert.Equal(t, "Your email has been successfully confirmed.", body["message"])
		assert.True(t, repo.users[1].EmailVerified)
	})

	t.Run("reuse", func(t *testing.T) {
		w := doJSON(r, http.MethodGet, "/auth/confirm_email/"+u.UID.String()+"/"+token+"/", "", nil)
		assert.Equal(t, http.StatusFound, w.Code)
		assert.Equal(t, "/auth/signup/", w.Header().Get("Location"))
	})
}

func TestPasswordResetFlow(t *testing.T) {
	repo := newMemUserRepo()
	r := newAuthRouter(repo)
	signupUser(t, r, "reset@example.com")

	t.Run("unknown email", func(t *testing.T) {
		w := doJSON(r, http.MethodPost, "/auth/password_reset/", `{"email":"ghost@example.com"}`, nil)
		require.Equal(t, http.StatusBadRequest, w.Code)
		body := decodeBody(t, w)
		details := body["error"].(map[string]any)
		assert.Equal(t, "A user with this email was not found.", details["email"])
	})

	t.Run("request", func(t *testing.T) {
		w := doJSON(r, http.MethodPost, "/auth/password_reset/", `{"email":"reset@example.com"}`, nil)
		assert.Equal(t, http.StatusFound, w.Code)
		assert.Equal(t, "/auth/login", w.Header().Get("Location"))
		assert.Contains(t, w.Header().Get("Set-Cookie"), "flash=")
	})

	token := *repo.users[1].ResetPasswordToken

	t.Run("form with bad token", func(t *testing.T) {
		w := doJSON(r, http.MethodGet, "/auth/reset/1/bogus/", "", nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("form with valid token", func(t *testing.T) {
		w := doJSON(r, http.MethodGet, "/auth/reset/1/"+token+"/", "", nil)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("mismatch", func(t *testing.T) {
		w := doJSON(r, http.MethodPost, "/auth/reset/1/"+token+"/", `{"new_password1":"newpassword1","new_password2":"different"}`, nil)
		require.Equal(t, http.StatusBadRequest, w.Code)
		body := decodeBody(t, w)
		details := body["error"].(map[string]any)
		assert.Equal(t, "Passwords do not match.", details["confirm_password"])
	})

	t.Run("success", func(t *testing.T) {
		w := doJSON(r, http.MethodPost, "/auth/reset/1/"+token+"/", `{"new_password1":"newpassword1","new_password2":"newpassword1"}`, nil)
		assert.Equal(t, http.StatusFound, w.Code)
		assert.Equal(t, "/auth/login", w.Header().Get("Location"))
	})

	t.Run("reuse", func(t *testing.T) {
		w := doJSON(r, http.MethodPost, "/auth/reset/1/"+token+"/", `{"new_password1":"another1234","new_password2":"another1234"}`, nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}
