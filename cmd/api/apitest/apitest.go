// Package apitest runs the full router over a throwaway database for handler tests.
package apitest

import (
	"bytes"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/KAsare1/Yatube-server/cmd/api"
	"github.com/KAsare1/Yatube-server/cmd/config"
	"github.com/KAsare1/Yatube-server/cmd/models"
	"github.com/KAsare1/Yatube-server/cmd/utils"
	"github.com/KAsare1/Yatube-server/db/dbtest"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const (
	Password = "testpass123"
	Secret   = "test-secret"
)

type Server struct {
	t       *testing.T
	DB      *gorm.DB
	API     *api.APIServer
	Handler http.Handler
	Mailer  *utils.OutboxMailer
	Auth    *utils.Authenticator
	Config  *config.Config
}

func New(t *testing.T) *Server {
	t.Helper()
	cfg := &config.Config{
		Port:       "0",
		DBDriver:   "sqlite",
		SecretKey:  Secret,
		MediaRoot:  t.TempDir(),
		SiteURL:    "http://testserver",
		IndexCache: 20 * time.Second,
	}
	database := dbtest.Open(t)
	mailer := &utils.OutboxMailer{}

	server := api.NewApiServer(cfg, database, mailer)
	server.AccessLog = io.Discard
	handler, err := server.Handler()
	if err != nil {
		t.Fatalf("build handler: %v", err)
	}

	return &Server{
		t:       t,
		DB:      database,
		API:     server,
		Handler: handler,
		Mailer:  mailer,
		Auth:    utils.NewAuthenticator(database, Secret),
		Config:  cfg,
	}
}

// CreateUser stores a user whose password is Password.
func (s *Server) CreateUser(username string) *models.User {
	s.t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(Password), bcrypt.MinCost)
	if err != nil {
		s.t.Fatal(err)
	}
	user := &models.User{
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: string(hash),
	}
	if err := s.DB.Create(user).Error; err != nil {
		s.t.Fatalf("create user %s: %v", username, err)
	}
	return user
}

func (s *Server) CreateGroup(slug, title string) *models.Group {
	s.t.Helper()
	group := &models.Group{Slug: slug, Title: title, Description: "Test description"}
	if err := s.DB.Create(group).Error; err != nil {
		s.t.Fatalf("create group %s: %v", slug, err)
	}
	return group
}

func (s *Server) CreatePost(author *models.User, text string, group *models.Group) *models.Post {
	s.t.Helper()
	post := &models.Post{Text: text, AuthorID: author.ID}
	if group != nil {
		post.GroupID = &group.ID
	}
	if err := s.DB.Create(post).Error; err != nil {
		s.t.Fatalf("create post: %v", err)
	}
	return post
}

func (s *Server) Count(model interface{}) int64 {
	s.t.Helper()
	var n int64
	if err := s.DB.Model(model).Count(&n).Error; err != nil {
		s.t.Fatal(err)
	}
	return n
}

// FailCounts makes every COUNT query on table fail, as if storage went away.
func (s *Server) FailCounts(table string) {
	s.t.Helper()
	err := s.DB.Callback().Query().Before("gorm:query").Register("apitest:fail_count_"+table, func(tx *gorm.DB) {
		if _, counting := tx.Statement.Dest.(*int64); counting && tx.Statement.Table == table {
			tx.AddError(errors.New("storage unavailable"))
		}
	})
	if err != nil {
		s.t.Fatal(err)
	}
}

// Do serves req, logged in as user when user is not nil.
func (s *Server) Do(req *http.Request, user *models.User) *httptest.ResponseRecorder {
	s.t.Helper()
	if user != nil {
		req.AddCookie(s.SessionCookie(user))
	}
	w := httptest.NewRecorder()
	s.Handler.ServeHTTP(w, req)
	return w
}

func (s *Server) Get(path string, user *models.User) *httptest.ResponseRecorder {
	return s.Do(httptest.NewRequest(http.MethodGet, path, nil), user)
}

func (s *Server) PostForm(path string, form url.Values, user *models.User) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return s.Do(req, user)
}

// PostMultipart submits fields plus one file under fileField.
func (s *Server) PostMultipart(path string, fields map[string]string, fileField, filename string, content []byte, user *models.User) *httptest.ResponseRecorder {
	s.t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			s.t.Fatal(err)
		}
	}
	if fileField != "" {
		fw, err := mw.CreateFormFile(fileField, filename)
		if err != nil {
			s.t.Fatal(err)
		}
		fw.Write(content)
	}
	if err := mw.Close(); err != nil {
		s.t.Fatal(err)
	}

	req := httptest.NewRequest(http.MethodPost, path, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return s.Do(req, user)
}

func (s *Server) SessionCookie(user *models.User) *http.Cookie {
	s.t.Helper()
	token, err := s.Auth.IssueToken(user.ID)
	if err != nil {
		s.t.Fatal(err)
	}
	return &http.Cookie{Name: utils.SessionCookie, Value: token}
}

// SmallGIF is a valid 2x1 GIF image.
var SmallGIF = []byte{
	0x47, 0x49, 0x46, 0x38, 0x39, 0x61, 0x02, 0x00,
	0x01, 0x00, 0x80, 0x00, 0x00, 0x00, 0x00, 0x00,
	0xFF, 0xFF, 0xFF, 0x21, 0xF9, 0x04, 0x00, 0x00,
	0x00, 0x00, 0x00, 0x2C, 0x00, 0x00, 0x00, 0x00,
	0x02, 0x00, 0x01, 0x00, 0x00, 0x02, 0x02, 0x0C,
	0x0A, 0x00, 0x3B,
}
