package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"otaku_hub/internal/app/service"
	"otaku_hub/internal/common/security"
	"otaku_hub/internal/domain/repository/repositorytest"
	"otaku_hub/internal/platform/logging"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type testServer struct {
	handler  http.Handler
	mock     sqlmock.Sqlmock
	users    *repositorytest.UserRepo
	profiles *repositorytest.ProfileRepo
	tokens   *security.TokenManager
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	ts := &testServer{
		mock:     mock,
		users:    repositorytest.NewUserRepo(),
		profiles: repositorytest.NewProfileRepo(),
		tokens:   security.NewTokenManager([]byte("router-secret"), time.Hour),
	}
	log := logging.Discard()
	authService := service.NewAuthService(db, ts.users, ts.profiles, ts.tokens, log, service.WithHashCost(bcrypt.MinCost))
	profileService := service.NewProfileService(ts.profiles, nil, log)

	ts.handler = NewRouter(
		RouterConfig{BasePath: "/api", AllowedOrigins: []string{"*"}},
		authService, profileService, ts.tokens, log,
	)
	return ts
}

func (ts *testServer) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		switch b := body.(type) {
		case string:
			buf.WriteString(b)
		default:
			require.NoError(t, json.NewEncoder(&buf).Encode(b))
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodGet, "/api/health", "", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestJaneDoeEndToEnd(t *testing.T) {
	ts := newTestServer(t)
	ts.mock.ExpectBegin()
	ts.mock.ExpectCommit()

	rec := ts.do(t, http.MethodPost, "/api/auth/register", "", map[string]string{
		"name": "Jane Doe", "email": "Jane@X.com", "password": "secret123",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	reg := decode(t, rec)
	token, _ := reg["token"].(string)
	require.NotEmpty(t, token)
	user := reg["user"].(map[string]any)
	assert.Equal(t, "jane@x.com", user["email"])
	assert.Equal(t, "Jane Doe", user["name"])
	assert.NotContains(t, rec.Body.String(), "password")

	rec = ts.do(t, http.MethodGet, "/api/profile/me", token, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	profile := decode(t, rec)["profile"].(map[string]any)
	assert.Equal(t, "janedoe", profile["username"])
	assert.Equal(t, "", profile["bio"])
	assert.Equal(t, []any{}, profile["favoriteGenres"])
	assert.Equal(t, user["id"], profile["user"])

	rec = ts.do(t, http.MethodPut, "/api/profile/me", token, map[string]any{
		"username": "otaku_jane", "bio": "Mecha fan", "favoriteGenres": []string{"Mecha", "Slice of Life"},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = ts.do(t, http.MethodGet, "/api/profile/me", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	profile = decode(t, rec)["profile"].(map[string]any)
	assert.Equal(t, "otaku_jane", profile["username"])
	assert.Equal(t, "Mecha fan", profile["bio"])
	assert.Equal(t, []any{"Mecha", "Slice of Life"}, profile["favoriteGenres"])
	assert.Equal(t, "", profile["avatarUrl"])

	rec = ts.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{"email": "jane@x.com", "password": "secret123"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, user, decode(t, rec)["user"])

	assert.NoError(t, ts.mock.ExpectationsWereMet())
}

func TestRegister_DuplicateIs409(t *testing.T) {
	ts := newTestServer(t)
	ts.mock.ExpectBegin()
	ts.mock.ExpectCommit()
	body := map[string]string{"name": "Jane Doe", "email": "jane@x.com", "password": "secret123"}

	require.Equal(t, http.StatusCreated, ts.do(t, http.MethodPost, "/api/auth/register", "", body).Code)
	rec := ts.do(t, http.MethodPost, "/api/auth/register", "", body)

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.JSONEq(t, `{"message":"User with this email already exists."}`, rec.Body.String())
}

func TestRegister_ValidationIs400(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodPost, "/api/auth/register", "", map[string]string{"name": "J", "email": "bad", "password": "x"})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"message":"Name must be at least 2 characters long."}`, rec.Body.String())
	assert.Zero(t, ts.users.Calls)
}

func TestMalformedJSONIs400(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodPost, "/api/auth/login", "", `{"email":`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"message":"Invalid request payload."}`, rec.Body.String())
}

func TestEmptyBodyReportsFieldErrors(t *testing.T) {
	ts := newTestServer(t)

	tests := []struct {
		path string
		want string
	}{
		{"/api/auth/register", "Name must be at least 2 characters long."},
		{"/api/auth/login", "A valid email is required."},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rec := ts.do(t, http.MethodPost, tt.path, "", nil)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.JSONEq(t, `{"message":"`+tt.want+`"}`, rec.Body.String())
		})
	}
	assert.Zero(t, ts.users.Calls)
}

func TestRegister_LongPasswordThenLogin(t *testing.T) {
	ts := newTestServer(t)
	ts.mock.ExpectBegin()
	ts.mock.ExpectCommit()
	long := strings.Repeat("k", 80)

	rec := ts.do(t, http.MethodPost, "/api/auth/register", "", map[string]string{"name": "Jane Doe", "email": "jane@x.com", "password": long})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = ts.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{"email": "jane@x.com", "password": long})
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
}

func TestLogin_FailuresAreIndistinguishable(t *testing.T) {
	ts := newTestServer(t)
	ts.mock.ExpectBegin()
	ts.mock.ExpectCommit()
	ts.do(t, http.MethodPost, "/api/auth/register", "", map[string]string{"name": "Jane Doe", "email": "jane@x.com", "password": "secret123"})

	wrongPassword := ts.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{"email": "jane@x.com", "password": "nope-nope"})
	unknownEmail := ts.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{"email": "ghost@x.com", "password": "nope-nope"})

	assert.Equal(t, http.StatusUnauthorized, wrongPassword.Code)
	assert.Equal(t, wrongPassword.Code, unknownEmail.Code)
	assert.Equal(t, wrongPassword.Body.String(), unknownEmail.Body.String())
}

func TestProfile_RequiresBearerBeforeStorage(t *testing.T) {
	ts := newTestServer(t)
	token, err := ts.tokens.GenerateToken("u1", "a@b.co")
	require.NoError(t, err)

	tests := []struct {
		name   string
		header string
		want   string
	}{
		{"missing header", "", "Authorization token is required."},
		{"wrong scheme", "Basic abc", "Authorization token is required."},
		{"lowercase bearer", "bearer " + token, "Authorization token is required."},
		{"garbage token", "Bearer not-a-jwt", "Invalid or expired token."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, method := range []string{http.MethodGet, http.MethodPut} {
				req := httptest.NewRequest(method, "/api/profile/me", bytes.NewBufferString(`{"username":"abc"}`))
				if tt.header != "" {
					req.Header.Set("Authorization", tt.header)
				}
				rec := httptest.NewRecorder()
				ts.handler.ServeHTTP(rec, req)

				assert.Equal(t, http.StatusUnauthorized, rec.Code)
				assert.JSONEq(t, `{"message":"`+tt.want+`"}`, rec.Body.String())
			}
		})
	}
	assert.Zero(t, ts.profiles.Calls)
}

func TestProfile_ExpiredTokenIs401(t *testing.T) {
	ts := newTestServer(t)
	expired := security.NewTokenManager([]byte("router-secret"), -time.Minute)
	token, err := expired.GenerateToken("u1", "a@b.co")
	require.NoError(t, err)

	rec := ts.do(t, http.MethodGet, "/api/profile/me", token, nil)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t, `{"message":"Invalid or expired token."}`, rec.Body.String())
	assert.Zero(t, ts.profiles.Calls)
}

func TestProfile_NotFoundIs404(t *testing.T) {
	ts := newTestServer(t)
	token, err := ts.tokens.GenerateToken("no-profile", "a@b.co")
	require.NoError(t, err)

	rec := ts.do(t, http.MethodGet, "/api/profile/me", token, nil)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"message":"Profile not found."}`, rec.Body.String())
}

func TestProfile_PutValidation(t *testing.T) {
	ts := newTestServer(t)
	token, err := ts.tokens.GenerateToken("u1", "a@b.co")
	require.NoError(t, err)

	tests := []struct {
		name string
		body string
		want string
	}{
		{"short username", `{"username":"ab"}`, "Username must be at least 3 characters long."},
		{"genres not array", `{"username":"abc","favoriteGenres":"Action"}`, "favoriteGenres must be an array of strings."},
		{"avatar not string", `{"username":"abc","avatarUrl":7}`, "avatarUrl must be a string."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := ts.do(t, http.MethodPut, "/api/profile/me", token, tt.body)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.JSONEq(t, `{"message":"`+tt.want+`"}`, rec.Body.String())
		})
	}
	assert.Zero(t, ts.profiles.Calls)
}

func TestProfile_StorageFailureIsGeneric500(t *testing.T) {
	ts := newTestServer(t)
	ts.profiles.FindErr = assert.AnError
	token, err := ts.tokens.GenerateToken("u1", "a@b.co")
	require.NoError(t, err)

	rec := ts.do(t, http.MethodGet, "/api/profile/me", token, nil)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"message":"Internal server error."}`, rec.Body.String())
}

func TestCORS_Preflight(t *testing.T) {
	ts := newTestServer(t)
	req := httptest.NewRequest(http.MethodOptions, "/api/profile/me", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodPut)
	req.Header.Set("Access-Control-Request-Headers", "Authorization")
	rec := httptest.NewRecorder()

	ts.handler.ServeHTTP(rec, req)

	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Zero(t, ts.profiles.Calls)
}

func TestCORSOptions(t *testing.T) {
	assert.Equal(t, []string{"*"}, corsOptions([]string{"*"}).AllowedOrigins)
	assert.False(t, corsOptions([]string{"*"}).AllowCredentials)

	opts := corsOptions([]string{"https://a.example", "https://b.example"})
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, opts.AllowedOrigins)
	assert.True(t, opts.AllowCredentials)
}
