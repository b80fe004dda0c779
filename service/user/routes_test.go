package user

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/artcorner/art-corner-server/cmd/models"
	"github.com/artcorner/art-corner-server/cmd/utils"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("Failed to create test database: %v", err)
	}
	err = db.AutoMigrate(&models.User{}, &models.UserBlock{})
	if err != nil {
		t.Fatalf("Failed to migrate test database: %v", err)
	}
	return db
}

func jsonRequest(method, target, body string) *http.Request {
	req := httptest.NewRequest(method, target, bytes.NewReader([]byte(body)))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func authedRequest(method, target, body string, userID uint, vars map[string]string) *http.Request {
	req := jsonRequest(method, target, body)
	ctx := context.WithValue(req.Context(), utils.UserIDKey, userID)
	ctx = context.WithValue(ctx, utils.UserRoleKey, models.RoleUser)
	req = req.WithContext(ctx)
	if vars != nil {
		req = mux.SetURLVars(req, vars)
	}
	return req
}

func seedUser(t *testing.T, db *gorm.DB, email, password string) models.User {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	u := models.User{
		FullName:     "Test User",
		Email:        email,
		PasswordHash: string(hash),
		Role:         models.RoleUser,
	}
	require.NoError(t, db.Create(&u).Error)
	return u
}

func TestRegisterAlwaysCreatesPlainUser(t *testing.T) {
	db := setupTestDB(t)
	h := NewHandler(db)

	// A role in the payload is ignored; signup never mints admins.
	rec := httptest.NewRecorder()
	h.HandleRegister(rec, jsonRequest("POST", "/register",
		`{"full_name":"Ama","email":"ama@example.com","password":"secret1","role":"admin"}`))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var user models.User
	require.NoError(t, db.Where("email = ?", "ama@example.com").First(&user).Error)
	assert.Equal(t, models.RoleUser, user.Role)
	assert.False(t, user.EmailVerified)
	assert.Len(t, user.EmailVerificationCode, 6)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("secret1")))
}

func TestRegisterValidation(t *testing.T) {
	db := setupTestDB(t)
	h := NewHandler(db)

	rec := httptest.NewRecorder()
	h.HandleRegister(rec, jsonRequest("POST", "/register",
		`{"full_name":"Ama","email":"ama@example.com","password":"short"}`))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	h.HandleRegister(rec, jsonRequest("POST", "/register",
		`{"email":"ama@example.com","password":"secret1"}`))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	seedUser(t, db, "taken@example.com", "secret1")
	rec = httptest.NewRecorder()
	h.HandleRegister(rec, jsonRequest("POST", "/register",
		`{"full_name":"Ama","email":"taken@example.com","password":"secret1"}`))
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestLoginSetsSessionCookie(t *testing.T) {
	t.Setenv("SECRET_KEY", "test-secret")
	db := setupTestDB(t)
	h := NewHandler(db)

	seedUser(t, db, "ama@example.com", "secret1")

	rec := httptest.NewRecorder()
	h.handleLogin(rec, jsonRequest("POST", "/login",
		`{"email":"ama@example.com","password":"secret1"}`))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var session *http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == utils.SessionCookieName {
			session = c
		}
	}
	require.NotNil(t, session, "session cookie set")
	assert.NotEmpty(t, session.Value)
	assert.True(t, session.HttpOnly)

	rec = httptest.NewRecorder()
	h.handleLogin(rec, jsonRequest("POST", "/login",
		`{"email":"ama@example.com","password":"wrong"}`))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLoginBlockedUser(t *testing.T) {
	db := setupTestDB(t)
	h := NewHandler(db)

	user := seedUser(t, db, "ama@example.com", "secret1")
	require.NoError(t, db.Model(&user).Update("is_blocked", true).Error)

	rec := httptest.NewRecorder()
	h.handleLogin(rec, jsonRequest("POST", "/login",
		`{"email":"ama@example.com","password":"secret1"}`))
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestAuthMiddlewareRejectsBlockedSession(t *testing.T) {
	t.Setenv("SECRET_KEY", "test-secret")
	db := setupTestDB(t)

	user := seedUser(t, db, "ama@example.com", "secret1")
	token, err := utils.GenerateSessionToken(user.ID)
	require.NoError(t, err)

	protected := utils.AuthMiddleware(db)(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest("GET", "/users/me", nil)
	req.AddCookie(&http.Cookie{Name: utils.SessionCookieName, Value: token})
	rec := httptest.NewRecorder()
	protected(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, "valid session passes")

	// Blocking the account invalidates the still-valid token on the very
	// next request, and the cookie is cleared.
	require.NoError(t, db.Model(&user).Update("is_blocked", true).Error)

	req = httptest.NewRequest("GET", "/users/me", nil)
	req.AddCookie(&http.Cookie{Name: utils.SessionCookieName, Value: token})
	rec = httptest.NewRecorder()
	protected(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	var cleared *http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == utils.SessionCookieName {
			cleared = c
		}
	}
	require.NotNil(t, cleared)
	assert.Less(t, cleared.MaxAge, 0)
	assert.Empty(t, cleared.Value)
}

func TestVerifyUserChecksCodeAndExpiry(t *testing.T) {
	db := setupTestDB(t)
	h := NewHandler(db)

	user := seedUser(t, db, "ama@example.com", "secret1")
	user.EmailVerificationCode = "123456"
	user.VerificationExpiry = time.Now().Add(10 * time.Minute)
	require.NoError(t, db.Save(&user).Error)

	rec := httptest.NewRecorder()
	h.verifyUser(rec, jsonRequest("POST", "/user/verify",
		`{"email":"ama@example.com","code":"000000"}`))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = httptest.NewRecorder()
	h.verifyUser(rec, jsonRequest("POST", "/user/verify",
		`{"email":"ama@example.com","code":"123456"}`))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	db.First(&user, user.ID)
	assert.True(t, user.EmailVerified)
	assert.Empty(t, user.EmailVerificationCode)
}

func TestPersonalBlockList(t *testing.T) {
	db := setupTestDB(t)
	h := NewHandler(db)

	alice := seedUser(t, db, "alice@example.com", "secret1")
	bob := seedUser(t, db, "bob@example.com", "secret1")
	bobVars := map[string]string{"id": fmt.Sprint(bob.ID)}

	rec := httptest.NewRecorder()
	h.BlockUser(rec, authedRequest("POST", "/users/2/block", "", alice.ID, bobVars))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	// Blocking twice conflicts; blocking yourself is refused.
	rec = httptest.NewRecorder()
	h.BlockUser(rec, authedRequest("POST", "/users/2/block", "", alice.ID, bobVars))
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = httptest.NewRecorder()
	h.BlockUser(rec, authedRequest("POST", "/users/1/block", "", alice.ID,
		map[string]string{"id": fmt.Sprint(alice.ID)}))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	h.UnblockUser(rec, authedRequest("DELETE", "/users/2/block", "", alice.ID, bobVars))
	require.Equal(t, http.StatusOK, rec.Code)

	// Hard delete: blocking again after an unblock works.
	rec = httptest.NewRecorder()
	h.BlockUser(rec, authedRequest("POST", "/users/2/block", "", alice.ID, bobVars))
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
}

func TestUpdateUserOwnProfileOnly(t *testing.T) {
	db := setupTestDB(t)
	h := NewHandler(db)

	alice := seedUser(t, db, "alice@example.com", "secret1")
	bob := seedUser(t, db, "bob@example.com", "secret1")

	rec := httptest.NewRecorder()
	h.UpdateUser(rec, authedRequest("PUT", "/users/1",
		`{"bio":"painter"}`, bob.ID, map[string]string{"id": fmt.Sprint(alice.ID)}))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = httptest.NewRecorder()
	h.UpdateUser(rec, authedRequest("PUT", "/users/1",
		`{"bio":"painter"}`, alice.ID, map[string]string{"id": fmt.Sprint(alice.ID)}))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	db.First(&alice, alice.ID)
	assert.Equal(t, "painter", alice.Bio)
}
