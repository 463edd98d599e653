package views

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestNewParsesEveryPage(t *testing.T) {
	rd, err := New()
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	for _, name := range []string{
		"posts/index.html",
		"posts/group_list.html",
		"posts/profile.html",
		"posts/post_detail.html",
		"posts/post_create.html",
		"posts/follow.html",
		"users/signup.html",
		"users/login.html",
		"users/logged_out.html",
		"users/password_reset_form.html",
		"users/password_reset_done.html",
		"users/password_reset_confirm.html",
		"users/password_reset_complete.html",
		"core/404.html",
	} {
		if !rd.Has(name) {
			t.Errorf("page %s missing", name)
		}
	}
}

func TestNotFoundPage(t *testing.T) {
	rd, err := New()
	if err != nil {
		t.Fatal(err)
	}
	w := httptest.NewRecorder()
	rd.NotFound(w, httptest.NewRequest(http.MethodGet, "/unexisting_page/", nil))
	if w.Code != http.StatusNotFound {
		t.Fatalf("code = %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "/unexisting_page/") {
		t.Errorf("404 page does not mention the path: %s", w.Body.String())
	}
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Errorf("Content-Type = %q", ct)
	}
}

func TestRenderUnknownTemplate(t *testing.T) {
	rd, err := New()
	if err != nil {
		t.Fatal(err)
	}
	w := httptest.NewRecorder()
	rd.Render(w, httptest.NewRequest(http.MethodGet, "/", nil), http.StatusOK, "posts/missing.html", nil)
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("code = %d", w.Code)
	}
}
