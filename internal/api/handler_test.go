package api_test

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/require"

	"github.com/Sukhmangill977/majoor2.0/internal/api"
	"github.com/Sukhmangill977/majoor2.0/internal/model"
	"github.com/Sukhmangill977/majoor2.0/internal/repository"
	"github.com/Sukhmangill977/majoor2.0/internal/service"
)

// memUserRepo / memFileRepo back the handler tests with the same contracts
// the Postgres repositories provide, including error codes for uniqueness
// and foreign key violations.
type memUserRepo struct {
	users map[uuid.UUID]*model.User
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{users: make(map[uuid.UUID]*model.User)}
}

func (r *memUserRepo) Create(ctx context.Context, user *model.User) (uuid.UUID, error) {
	for _, existing := range r.users {
		if existing.Username == user.Username || existing.Email == user.Email {
			return uuid.Nil, &pgconn.PgError{Code: "23505"}
		}
	}
	stored := *user
	stored.ID = uuid.New()
	stored.CreatedAt = time.Now()
	stored.UpdatedAt = stored.CreatedAt
	r.users[stored.ID] = &stored
	return stored.ID, nil
}

func (r *memUserRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	user, ok := r.users[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copied := *user
	return &copied, nil
}

func (r *memUserRepo) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	for _, user := range r.users {
		if user.Email == email {
			copied := *user
			return &copied, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (r *memUserRepo) Update(ctx context.Context, id uuid.UUID, update repository.UserUpdate) (int64, error) {
	user, ok := r.users[id]
	if !ok {
		return 0, nil
	}
	for otherID, other := range r.users {
		if otherID == id {
			continue
		}
		if update.Username != nil && other.Username == *update.Username {
			return 0, &pgconn.PgError{Code: "23505"}
		}
		if update.Email != nil && other.Email == *update.Email {
			return 0, &pgconn.PgError{Code: "23505"}
		}
	}
	if update.Username != nil {
		user.Username = *update.Username
	}
	if update.Email != nil {
		user.Email = *update.Email
	}
	if update.PasswordHash != nil {
		user.PasswordHash = *update.PasswordHash
	}
	if update.ProfilePicture != nil {
		user.ProfilePicture = *update.ProfilePicture
	}
	user.UpdatedAt = time.Now()
	return 1, nil
}

func (r *memUserRepo) Delete(ctx context.Context, id uuid.UUID) (int64, error) {
	if _, ok := r.users[id]; !ok {
		return 0, nil
	}
	delete(r.users, id)
	return 1, nil
}

type memFile struct {
	url  string
	kind model.FileKind
}

type memFileRepo struct {
	users *memUserRepo
	files map[uuid.UUID][]memFile
}

func newMemFileRepo(users *memUserRepo) *memFileRepo {
	return &memFileRepo{users: users, files: make(map[uuid.UUID][]memFile)}
}

func (r *memFileRepo) Attach(ctx context.Context, userID uuid.UUID, url string, kind model.FileKind) error {
	if _, ok := r.users.users[userID]; !ok {
		return &pgconn.PgError{Code: "23503"}
	}
	r.files[userID] = append(r.files[userID], memFile{url: url, kind: kind})
	return nil
}

func (r *memFileRepo) ListURLs(ctx context.Context, userID uuid.UUID, kind model.FileKind) ([]string, error) {
	urls := []string{}
	for _, f := range r.files[userID] {
		if f.kind == kind {
			urls = append(urls, f.url)
		}
	}
	return urls, nil
}

func newTestApp(t *testing.T) *fiber.App {
	t.Helper()
	t.Setenv("JWT_SECRET", "test-secret")

	userRepo := newMemUserRepo()
	fileRepo := newMemFileRepo(userRepo)

	authService := service.NewAuthService(userRepo)
	userService := service.NewUserService(userRepo, fileRepo, nil)

	authHandler := api.NewAuthHandler(authService)
	userHandler := api.NewUserHandler(userService, nil)

	app := fiber.New(fiber.Config{ErrorHandler: api.ErrorHandler})

	v1 := app.Group("/v1")
	authRoutes := v1.Group("/auth")
	authRoutes.Post("/signup", authHandler.Signup)
	authRoutes.Post("/signin", authHandler.Signin)
	authRoutes.Get("/signout", authHandler.Signout)

	userRoutes := v1.Group("/users")
	userRoutes.Use(api.AuthMiddleware())
	userRoutes.Post("/update/:id", userHandler.UpdateUser)
	userRoutes.Post("/upload/pdf/:id", userHandler.UploadPDF)
	userRoutes.Get("/pdfs", userHandler.ListPDFs)
	userRoutes.Delete("/delete/:id", userHandler.DeleteUser)

	return app
}

func doJSON(t *testing.T, app *fiber.App, method, path, token string, body interface{}) *http.Response {
	t.Helper()
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := app.Test(req)
	require.NoError(t, err)
	return resp
}

func decodeUser(t *testing.T, resp *http.Response) (api.UserResponse, string) {
	t.Helper()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var user api.UserResponse
	require.NoError(t, json.Unmarshal(body, &user))
	return user, string(body)
}

func TestEndToEnd_ProfileLifecycle(t *testing.T) {
	app := newTestApp(t)

	// Register alice.
	resp := doJSON(t, app, http.MethodPost, "/v1/auth/signup", "", map[string]string{
		"username": "alice", "email": "a@x.com", "password": "secret",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	created, rawBody := decodeUser(t, resp)
	require.NotEmpty(t, created.Token)
	require.NotContains(t, rawBody, "secret")
	require.NotContains(t, rawBody, "password")

	// Login returns a fresh token.
	resp = doJSON(t, app, http.MethodPost, "/v1/auth/signin", "", map[string]string{
		"email": "a@x.com", "password": "secret",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	loggedIn, _ := decodeUser(t, resp)
	token := loggedIn.Token
	require.NotEmpty(t, token)
	userID := loggedIn.ID.String()

	// Partial update: username changes, email stays.
	resp = doJSON(t, app, http.MethodPost, "/v1/users/update/"+userID, token, map[string]string{
		"username": "alice2",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	updated, _ := decodeUser(t, resp)
	require.Equal(t, "alice2", updated.Username)
	require.Equal(t, "a@x.com", updated.Email)

	// Attach two PDFs; list accumulates in call order.
	resp = doJSON(t, app, http.MethodPost, "/v1/users/upload/pdf/"+userID, token, map[string]string{
		"downloadURL": "https://files.test/pdf1.pdf",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp = doJSON(t, app, http.MethodPost, "/v1/users/upload/pdf/"+userID, token, map[string]string{
		"downloadURL": "https://files.test/pdf2.pdf",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var attachResp struct {
		PDFURLs []string `json:"pdfUrls"`
	}
	require.NoError(t, json.Unmarshal(body, &attachResp))
	require.Equal(t, []string{"https://files.test/pdf1.pdf", "https://files.test/pdf2.pdf"}, attachResp.PDFURLs)

	// The list endpoint serves the same sequence.
	resp = doJSON(t, app, http.MethodGet, "/v1/users/pdfs", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body, err = io.ReadAll(resp.Body)
	require.NoError(t, err)
	var listResp struct {
		PDFURLs []string `json:"pdfUrls"`
	}
	require.NoError(t, json.Unmarshal(body, &listResp))
	require.Equal(t, attachResp.PDFURLs, listResp.PDFURLs)

	// Delete the account.
	resp = doJSON(t, app, http.MethodDelete, "/v1/users/delete/"+userID, token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// The old token is still well-formed, but the record is gone.
	resp = doJSON(t, app, http.MethodPost, "/v1/users/update/"+userID, token, map[string]string{
		"username": "alice3",
	})
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
	envelope := decodeEnvelope(t, resp)
	require.False(t, envelope.Success)
}

func TestUpdateUser_OtherAccountForbidden(t *testing.T) {
	app := newTestApp(t)

	resp := doJSON(t, app, http.MethodPost, "/v1/auth/signup", "", map[string]string{
		"username": "alice", "email": "a@x.com", "password": "secret",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	alice, _ := decodeUser(t, resp)

	resp = doJSON(t, app, http.MethodPost, "/v1/auth/signup", "", map[string]string{
		"username": "bob", "email": "b@x.com", "password": "secret",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	bob, _ := decodeUser(t, resp)

	// Bob tries to rename alice.
	resp = doJSON(t, app, http.MethodPost, "/v1/users/update/"+alice.ID.String(), bob.Token, map[string]string{
		"username": "hacked",
	})
	require.Equal(t, http.StatusForbidden, resp.StatusCode)

	// Bob tries to delete alice.
	resp = doJSON(t, app, http.MethodDelete, "/v1/users/delete/"+alice.ID.String(), bob.Token, nil)
	require.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestUpdateUser_EmailConflict(t *testing.T) {
	app := newTestApp(t)

	resp := doJSON(t, app, http.MethodPost, "/v1/auth/signup", "", map[string]string{
		"username": "alice", "email": "a@x.com", "password": "secret",
	})
	alice, _ := decodeUser(t, resp)

	resp = doJSON(t, app, http.MethodPost, "/v1/auth/signup", "", map[string]string{
		"username": "bob", "email": "b@x.com", "password": "secret",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	resp = doJSON(t, app, http.MethodPost, "/v1/users/update/"+alice.ID.String(), alice.Token, map[string]string{
		"email": "b@x.com",
	})
	require.Equal(t, http.StatusConflict, resp.StatusCode)
	envelope := decodeEnvelope(t, resp)
	require.Equal(t, http.StatusConflict, envelope.StatusCode)

	// Alice keeps her original email.
	resp = doJSON(t, app, http.MethodPost, "/v1/users/update/"+alice.ID.String(), alice.Token, map[string]string{})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	kept, _ := decodeUser(t, resp)
	require.Equal(t, "a@x.com", kept.Email)
}

func TestSignup_DuplicateUsername(t *testing.T) {
	app := newTestApp(t)

	resp := doJSON(t, app, http.MethodPost, "/v1/auth/signup", "", map[string]string{
		"username": "alice", "email": "a@x.com", "password": "secret",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	resp = doJSON(t, app, http.MethodPost, "/v1/auth/signup", "", map[string]string{
		"username": "alice", "email": "other@x.com", "password": "secret",
	})
	require.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestSignin_WrongPassword(t *testing.T) {
	app := newTestApp(t)

	resp := doJSON(t, app, http.MethodPost, "/v1/auth/signup", "", map[string]string{
		"username": "alice", "email": "a@x.com", "password": "secret",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	resp = doJSON(t, app, http.MethodPost, "/v1/auth/signin", "", map[string]string{
		"email": "a@x.com", "password": "wrong",
	})
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestSignout_ClearsCookie(t *testing.T) {
	app := newTestApp(t)

	req := httptest.NewRequest(http.MethodGet, "/v1/auth/signout", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var cleared bool
	for _, cookie := range resp.Cookies() {
		if cookie.Name == api.AccessTokenCookie {
			cleared = cookie.Value == "" && cookie.Expires.Before(time.Now())
		}
	}
	require.True(t, cleared)
}

func TestUpdateUser_MalformedBody(t *testing.T) {
	app := newTestApp(t)

	resp := doJSON(t, app, http.MethodPost, "/v1/auth/signup", "", map[string]string{
		"username": "alice", "email": "a@x.com", "password": "secret",
	})
	alice, _ := decodeUser(t, resp)

	req := httptest.NewRequest(http.MethodPost, "/v1/users/update/"+alice.ID.String(), strings.NewReader("{not json"))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+alice.Token)
	badResp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusBadRequest, badResp.StatusCode)
}
