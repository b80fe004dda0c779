package utils

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/artcorner/art-corner-server/cmd/models"
	"github.com/golang-jwt/jwt/v4"
	"gorm.io/gorm"
)

type contextKey string

const (
	UserIDKey   contextKey = "userID"
	UserRoleKey contextKey = "userRole"
)

// SessionCookieName is the HTTP-only cookie carrying the signed session token.
const SessionCookieName = "jwt"

// SessionDuration matches the cookie expiry.
const SessionDuration = 15 * 24 * time.Hour

func GetUserIDFromContext(ctx context.Context) (uint, error) {
	userID, ok := ctx.Value(UserIDKey).(uint)
	if !ok {
		return 0, errors.New("user ID not found in context")
	}
	return userID, nil
}

func GetUserRoleFromContext(ctx context.Context) string {
	role, _ := ctx.Value(UserRoleKey).(string)
	return role
}

func GenerateSessionToken(userID uint) (string, error) {
	claims := &jwt.RegisteredClaims{
		Subject:   fmt.Sprint(userID),
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(SessionDuration)),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(os.Getenv("SECRET_KEY")))
}

func SetSessionCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Expires:  time.Now().Add(SessionDuration),
	})
}

func ClearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		MaxAge:   -1,
	})
}

// AuthMiddleware validates the session cookie, loads the user row and
// stores identity in the request context. Blocked users get 403 and their
// cookie cleared, whatever route they were after.
func AuthMiddleware(db *gorm.DB) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(SessionCookieName)
			if err != nil {
				http.Error(w, "Authentication required", http.StatusUnauthorized)
				return
			}

			claims := &jwt.RegisteredClaims{}
			token, err := jwt.ParseWithClaims(cookie.Value, claims, func(token *jwt.Token) (interface{}, error) {
				return []byte(os.Getenv("SECRET_KEY")), nil
			})
			if err != nil || !token.Valid {
				ClearSessionCookie(w)
				http.Error(w, "Invalid session", http.StatusUnauthorized)
				return
			}

			userID, err := strconv.ParseUint(claims.Subject, 10, 64)
			if err != nil {
				http.Error(w, "Invalid session", http.StatusUnauthorized)
				return
			}

			var user models.User
			if err := db.First(&user, uint(userID)).Error; err != nil {
				ClearSessionCookie(w)
				http.Error(w, "Invalid session", http.StatusUnauthorized)
				return
			}

			if user.IsBlocked {
				ClearSessionCookie(w)
				http.Error(w, "Account is blocked", http.StatusForbidden)
				return
			}

			ctx := context.WithValue(r.Context(), UserIDKey, user.ID)
			ctx = context.WithValue(ctx, UserRoleKey, user.Role)
			next.ServeHTTP(w, r.WithContext(ctx))
		}
	}
}

// OptionalUserID resolves the session cookie on routes that work both
// anonymously and signed in. Returns 0 when there is no usable session.
func OptionalUserID(db *gorm.DB, r *http.Request) uint {
	cookie, err := r.Cookie(SessionCookieName)
	if err != nil {
		return 0
	}
	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(cookie.Value, claims, func(token *jwt.Token) (interface{}, error) {
		return []byte(os.Getenv("SECRET_KEY")), nil
	})
	if err != nil || !token.Valid {
		return 0
	}
	userID, err := strconv.ParseUint(claims.Subject, 10, 64)
	if err != nil {
		return 0
	}
	var user models.User
	if err := db.First(&user, uint(userID)).Error; err != nil || user.IsBlocked {
		return 0
	}
	return user.ID
}

// AdminMiddleware layers on top of AuthMiddleware and rejects non-admins.
func AdminMiddleware(db *gorm.DB) func(http.HandlerFunc) http.HandlerFunc {
	auth := AuthMiddleware(db)
	return func(next http.HandlerFunc) http.HandlerFunc {
		return auth(func(w http.ResponseWriter, r *http.Request) {
			if GetUserRoleFromContext(r.Context()) != models.RoleAdmin {
				http.Error(w, "Admin access required", http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
