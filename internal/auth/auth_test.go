package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func newAuthService(t *testing.T) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/auth/log-in", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		if body["email"] != "a@b.io" || body["password"] != "pw" {
			writeJSON(w, http.StatusBadRequest, map[string]string{"message": "Invalid email or password"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"message": "User logged in successfully", "token": "tok-a"})
	})
	mux.HandleFunc("/auth/sign-up", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		if body["username"] == "" {
			writeJSON(w, http.StatusBadRequest, map[string]string{"message": "All fields (email, password, username) are required"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"message": "Successfully signed up", "token": "tok-new"})
	})
	mux.HandleFunc("/auth", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("username") == "magnus" {
			writeJSON(w, http.StatusConflict, map[string]string{"message": "Username already exists"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"message": "Username is available"})
	})
	mux.HandleFunc("/get_user_info", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer tok-a" {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"msg": "Missing Authorization Header"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"message": "User info found",
			"user":    map[string]interface{}{"userid": 7, "username": "anna", "email": "a@b.io", "wins": 3},
		})
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestClient_LogIn(t *testing.T) {
	c := NewClient(newAuthService(t).URL+"/", zap.NewNop())
	ctx := context.Background()

	token, err := c.LogIn(ctx, "a@b.io", "pw")
	require.NoError(t, err)
	assert.Equal(t, "tok-a", token)

	_, err = c.LogIn(ctx, "a@b.io", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestClient_SignUp(t *testing.T) {
	c := NewClient(newAuthService(t).URL, zap.NewNop())
	ctx := context.Background()

	token, err := c.SignUp(ctx, "anna", "a@b.io", "pw")
	require.NoError(t, err)
	assert.Equal(t, "tok-new", token)

	_, err = c.SignUp(ctx, "", "a@b.io", "pw")
	assert.ErrorContains(t, err, "All fields")
}

func TestClient_CheckUsername(t *testing.T) {
	c := NewClient(newAuthService(t).URL, zap.NewNop())
	ctx := context.Background()

	assert.NoError(t, c.CheckUsername(ctx, "anna"))
	assert.ErrorIs(t, c.CheckUsername(ctx, "magnus"), ErrUsernameTaken)
}

func TestClient_UserInfo(t *testing.T) {
	c := NewClient(newAuthService(t).URL, zap.NewNop())
	ctx := context.Background()

	user, err := c.UserInfo(ctx, "tok-a")
	require.NoError(t, err)
	assert.Equal(t, User{UserID: 7, Username: "anna", Email: "a@b.io"}, user)

	_, err = c.UserInfo(ctx, "stale")
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestIdentityFromToken(t *testing.T) {
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "a@b.io",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}).SignedString([]byte("server-secret"))
	require.NoError(t, err)

	identity, err := IdentityFromToken(signed)
	require.NoError(t, err)
	assert.Equal(t, "a@b.io", identity)

	_, err = IdentityFromToken("not-a-jwt")
	assert.ErrorIs(t, err, ErrInvalidToken)

	legacy, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user": "anna",
		"exp":  time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte("server-secret"))
	require.NoError(t, err)

	identity, err = IdentityFromToken(legacy)
	require.NoError(t, err)
	assert.Equal(t, "anna", identity)

	anonymous, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{}).SignedString([]byte("k"))
	require.NoError(t, err)
	_, err = IdentityFromToken(anonymous)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestAPIKeyAuth(t *testing.T) {
	a := NewAPIKeyAuth([]string{" key-1 ", ""})
	assert.True(t, a.Enabled())
	assert.True(t, a.IsValidKey("key-1"))
	assert.False(t, a.IsValidKey("key-2"))
	assert.False(t, a.IsValidKey(""))

	a.AddKey("key-2")
	assert.True(t, a.IsValidKey("key-2"))

	a.RemoveKey("key-1")
	a.RemoveKey("key-2")
	assert.False(t, a.IsValidKey("key-1"))
	assert.False(t, a.Enabled())
}
