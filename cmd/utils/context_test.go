package utils

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/KAsare1/Yatube-server/cmd/models"
	"github.com/KAsare1/Yatube-server/db/dbtest"
)

func TestTokenRoundTrip(t *testing.T) {
	a := NewAuthenticator(nil, "secret")
	token, err := a.IssueToken(42)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	id, err := a.ParseToken(token)
	if err != nil || id != 42 {
		t.Fatalf("parse = %d, %v", id, err)
	}

	other := NewAuthenticator(nil, "another-secret")
	if _, err := other.ParseToken(token); err == nil {
		t.Fatal("token signed with a different key was accepted")
	}
}

func TestIdentifyAndLoginRequired(t *testing.T) {
	database := dbtest.Open(t)
	user := models.User{Username: "auth", Email: "auth@example.com", PasswordHash: "x"}
	if err := database.Create(&user).Error; err != nil {
		t.Fatal(err)
	}
	a := NewAuthenticator(database, "secret")

	protected := a.Identify(LoginRequired(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("hello " + CurrentUser(r).Username))
	}))

	// anonymous
	w := httptest.NewRecorder()
	protected.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/create/", nil))
	if w.Code != http.StatusFound {
		t.Fatalf("anonymous code = %d", w.Code)
	}
	if loc := w.Header().Get("Location"); loc != "/auth/login/?next=%2Fcreate%2F" {
		t.Fatalf("redirect = %q", loc)
	}

	// logged in via cookie
	login := httptest.NewRecorder()
	if err := a.Login(login, user.ID); err != nil {
		t.Fatal(err)
	}
	req := httptest.NewRequest(http.MethodGet, "/create/", nil)
	req.AddCookie(login.Result().Cookies()[0])
	w = httptest.NewRecorder()
	protected.ServeHTTP(w, req)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "hello auth") {
		t.Fatalf("logged in: code %d body %q", w.Code, w.Body.String())
	}

	// bearer header
	token, _ := a.IssueToken(user.ID)
	req = httptest.NewRequest(http.MethodGet, "/create/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w = httptest.NewRecorder()
	protected.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("bearer code = %d", w.Code)
	}

	// token for a user that does not exist
	ghost, _ := a.IssueToken(9999)
	req = httptest.NewRequest(http.MethodGet, "/create/", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookie, Value: ghost})
	w = httptest.NewRecorder()
	protected.ServeHTTP(w, req)
	if w.Code != http.StatusFound {
		t.Fatalf("ghost code = %d", w.Code)
	}
}

func TestSafeNext(t *testing.T) {
	cases := map[string]string{
		"":                  "/",
		"/create/":          "/create/",
		"//evil.example":    "/",
		"https://evil.test": "/",
		"/\\evil":           "/",
	}
	for in, want := range cases {
		if got := SafeNext(in); got != want {
			t.Errorf("SafeNext(%q) = %q, want %q", in, got, want)
		}
	}
}
