package user_test

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/KAsare1/Yatube-server/cmd/api/apitest"
	"github.com/KAsare1/Yatube-server/cmd/models"
	"github.com/KAsare1/Yatube-server/cmd/utils"
)

func sessionCookie(w *http.Response) *http.Cookie {
	for _, c := range w.Cookies() {
		if c.Name == utils.SessionCookie {
			return c
		}
	}
	return nil
}

func TestSignup(t *testing.T) {
	s := apitest.New(t)

	if w := s.Get("/auth/signup/", nil); w.Code != http.StatusOK {
		t.Fatalf("signup form code = %d", w.Code)
	}

	w := s.PostForm("/auth/signup/", url.Values{
		"first_name": {"Lev"},
		"last_name":  {"Tolstoy"},
		"username":   {"leo"},
		"email":      {"Leo@Example.com"},
		"password1":  {"war-and-peace"},
		"password2":  {"war-and-peace"},
	}, nil)
	if w.Code != http.StatusFound || w.Header().Get("Location") != "/" {
		t.Fatalf("code = %d location = %q body = %s", w.Code, w.Header().Get("Location"), w.Body.String())
	}
	if sessionCookie(w.Result()) == nil {
		t.Error("signup did not log the user in")
	}

	var user models.User
	if err := s.DB.Where("username = ?", "leo").First(&user).Error; err != nil {
		t.Fatal(err)
	}
	if user.Email != "leo@example.com" || user.FullName() != "Lev Tolstoy" {
		t.Errorf("stored user = %+v", user)
	}
	if user.PasswordHash == "war-and-peace" {
		t.Error("password stored in clear text")
	}
}

func TestSignupRejectsBadInput(t *testing.T) {
	s := apitest.New(t)
	s.CreateUser("taken")

	cases := map[string]url.Values{
		"duplicate username": {"username": {"taken"}, "email": {"new@example.com"}, "password1": {"longenough"}, "password2": {"longenough"}},
		"duplicate email":    {"username": {"fresh"}, "email": {"taken@example.com"}, "password1": {"longenough"}, "password2": {"longenough"}},
		"short password":     {"username": {"fresh"}, "email": {"new@example.com"}, "password1": {"short"}, "password2": {"short"}},
		"mismatch":           {"username": {"fresh"}, "email": {"new@example.com"}, "password1": {"longenough"}, "password2": {"different"}},
	}
	for name, form := range cases {
		w := s.PostForm("/auth/signup/", form, nil)
		if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `class="error"`) {
			t.Errorf("%s: code = %d, want the form with errors", name, w.Code)
		}
	}
	if n := s.Count(&models.User{}); n != 1 {
		t.Errorf("user count = %d", n)
	}
}

func TestLoginAndLogout(t *testing.T) {
	s := apitest.New(t)
	s.CreateUser("auth")

	w := s.PostForm("/auth/login/", url.Values{"username": {"auth"}, "password": {"wrong-password"}}, nil)
	if w.Code != http.StatusOK || sessionCookie(w.Result()) != nil {
		t.Fatalf("bad password: code = %d", w.Code)
	}

	w = s.PostForm("/auth/login/", url.Values{
		"username": {"auth"},
		"password": {apitest.Password},
		"next":     {"/create/"},
	}, nil)
	if w.Code != http.StatusFound || w.Header().Get("Location") != "/create/" {
		t.Fatalf("login: code = %d location = %q", w.Code, w.Header().Get("Location"))
	}
	cookie := sessionCookie(w.Result())
	if cookie == nil || !cookie.HttpOnly {
		t.Fatal("login did not set an HttpOnly session cookie")
	}

	req := httptest.NewRequest(http.MethodGet, "/create/", nil)
	req.AddCookie(cookie)
	if w := s.Do(req, nil); w.Code != http.StatusOK {
		t.Errorf("session cookie not accepted, code = %d", w.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/auth/logout/", nil)
	req.AddCookie(cookie)
	w = s.Do(req, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("logout code = %d", w.Code)
	}
	if c := sessionCookie(w.Result()); c == nil || c.MaxAge >= 0 {
		t.Error("logout did not expire the cookie")
	}
	if strings.Contains(w.Body.String(), "/auth/logout/") {
		t.Error("logged-out page still shows the user as logged in")
	}
}

func TestLoginIgnoresForeignNext(t *testing.T) {
	s := apitest.New(t)
	s.CreateUser("auth")

	w := s.PostForm("/auth/login/", url.Values{
		"username": {"auth"},
		"password": {apitest.Password},
		"next":     {"//evil.example.com/"},
	}, nil)
	if loc := w.Header().Get("Location"); loc != "/" {
		t.Errorf("redirect = %q", loc)
	}
}

var resetLink = regexp.MustCompile(`http://testserver(/auth/reset/\d+/[0-9a-f]+/)`)

func TestPasswordReset(t *testing.T) {
	s := apitest.New(t)
	user := s.CreateUser("auth")

	w := s.PostForm("/auth/password_reset/", url.Values{"email": {"nobody@example.com"}}, nil)
	if w.Code != http.StatusFound || w.Header().Get("Location") != "/auth/password_reset/done/" {
		t.Fatalf("unknown email: code = %d", w.Code)
	}
	if len(s.Mailer.Sent) != 0 {
		t.Fatal("mail sent for an unknown address")
	}

	w = s.PostForm("/auth/password_reset/", url.Values{"email": {user.Email}}, nil)
	if w.Code != http.StatusFound || w.Header().Get("Location") != "/auth/password_reset/done/" {
		t.Fatalf("reset request: code = %d", w.Code)
	}
	mail, ok := s.Mailer.Last()
	if !ok || mail.To != user.Email {
		t.Fatalf("reset mail = %+v", mail)
	}
	match := resetLink.FindStringSubmatch(mail.Body)
	if match == nil {
		t.Fatalf("no reset link in %q", mail.Body)
	}
	link := match[1]

	if w := s.Get(link, nil); w.Code != http.StatusOK {
		t.Fatalf("confirm page code = %d", w.Code)
	}
	if w := s.PostForm(link, url.Values{"new_password1": {"short"}, "new_password2": {"short"}}, nil); w.Code != http.StatusOK {
		t.Errorf("short password code = %d", w.Code)
	}

	w = s.PostForm(link, url.Values{"new_password1": {"brand-new-pass"}, "new_password2": {"brand-new-pass"}}, nil)
	if w.Code != http.StatusFound || w.Header().Get("Location") != "/auth/reset/done/" {
		t.Fatalf("reset: code = %d location = %q", w.Code, w.Header().Get("Location"))
	}

	login := s.PostForm("/auth/login/", url.Values{"username": {"auth"}, "password": {"brand-new-pass"}}, nil)
	if login.Code != http.StatusFound {
		t.Errorf("login with the new password failed, code = %d", login.Code)
	}

	if w := s.PostForm(link, url.Values{"new_password1": {"another-pass"}, "new_password2": {"another-pass"}}, nil); w.Code != http.StatusBadRequest {
		t.Errorf("reused link code = %d, want 400", w.Code)
	}
}

func TestExpiredResetLink(t *testing.T) {
	s := apitest.New(t)
	user := s.CreateUser("auth")
	s.DB.Create(&models.PasswordResetToken{
		UserID:    user.ID,
		Token:     "deadbeef",
		ExpiresAt: time.Now().Add(-time.Minute),
	})

	if w := s.Get("/auth/reset/1/deadbeef/", nil); w.Code != http.StatusBadRequest {
		t.Errorf("expired link code = %d", w.Code)
	}
	if w := s.Get("/auth/reset/1/unknown/", nil); w.Code != http.StatusBadRequest {
		t.Errorf("unknown token code = %d", w.Code)
	}
}
