package utils

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/KAsare1/Yatube-server/cmd/models"
	"github.com/golang-jwt/jwt/v4"
	"gorm.io/gorm"
)

type contextKey string

const (
	UserIDKey contextKey = "userID"
	userKey   contextKey = "user"
)

const (
	SessionCookie   = "access_token"
	LoginURL        = "/auth/login/"
	SessionLifetime = 14 * 24 * time.Hour
)

// Authenticator issues and verifies the signed session cookie.
type Authenticator struct {
	db     *gorm.DB
	secret []byte
}

func NewAuthenticator(db *gorm.DB, secret string) *Authenticator {
	return &Authenticator{db: db, secret: []byte(secret)}
}

func (a *Authenticator) IssueToken(userID uint) (string, error) {
	claims := &jwt.RegisteredClaims{
		Subject:   fmt.Sprint(userID),
		IssuedAt:  jwt.NewNumericDate(time.Now()),
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(SessionLifetime)),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(a.secret)
}

func (a *Authenticator) ParseToken(tokenString string) (uint, error) {
	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return a.secret, nil
	})
	if err != nil || !token.Valid {
		return 0, errors.New("invalid token")
	}

	userID, err := strconv.ParseUint(claims.Subject, 10, 64)
	if err != nil {
		return 0, errors.New("invalid user ID in token")
	}
	return uint(userID), nil
}

// Login sets the session cookie for userID.
func (a *Authenticator) Login(w http.ResponseWriter, userID uint) error {
	token, err := a.IssueToken(userID)
	if err != nil {
		return err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    token,
		Path:     "/",
		Expires:  time.Now().Add(SessionLifetime),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

func Logout(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{Name: SessionCookie, Value: "", Path: "/", MaxAge: -1, HttpOnly: true})
}

// Identify resolves the session cookie (or a Bearer header) to a user and stores it in the
// request context. Requests without a valid session pass through anonymously.
func (a *Authenticator) Identify(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokenString := ""
		if cookie, err := r.Cookie(SessionCookie); err == nil {
			tokenString = cookie.Value
		} else if authHeader := r.Header.Get("Authorization"); strings.HasPrefix(authHeader, "Bearer ") {
			tokenString = strings.TrimPrefix(authHeader, "Bearer ")
		}
		if tokenString == "" {
			next.ServeHTTP(w, r)
			return
		}

		userID, err := a.ParseToken(tokenString)
		if err != nil {
			next.ServeHTTP(w, r)
			return
		}

		var user models.User
		if err := a.db.First(&user, userID).Error; err != nil {
			next.ServeHTTP(w, r)
			return
		}

		ctx := context.WithValue(r.Context(), UserIDKey, user.ID)
		ctx = context.WithValue(ctx, userKey, &user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// CurrentUser returns the logged-in user or nil for anonymous requests.
func CurrentUser(r *http.Request) *models.User {
	user, _ := r.Context().Value(userKey).(*models.User)
	return user
}

// WithoutUser returns ctx with the logged-in user removed.
func WithoutUser(ctx context.Context) context.Context {
	ctx = context.WithValue(ctx, UserIDKey, nil)
	return context.WithValue(ctx, userKey, nil)
}

func GetUserIDFromContext(r *http.Request) (uint, error) {
	userID, ok := r.Context().Value(UserIDKey).(uint)
	if !ok {
		return 0, errors.New("user ID not found in context")
	}
	return userID, nil
}

// LoginRequired sends anonymous requests to the login page with a next parameter.
func LoginRequired(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if CurrentUser(r) == nil {
			http.Redirect(w, r, LoginRedirectURL(r.URL.RequestURI()), http.StatusFound)
			return
		}
		next(w, r)
	}
}

func LoginRedirectURL(next string) string {
	return LoginURL + "?" + url.Values{"next": {next}}.Encode()
}

// SafeNext keeps redirects on this site; anything else becomes "/".
func SafeNext(next string) string {
	if next == "" || !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.HasPrefix(next, "/\\") {
		return "/"
	}
	return next
}
