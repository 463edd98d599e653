package user

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/KAsare1/Yatube-server/cmd/models"
	"github.com/KAsare1/Yatube-server/cmd/utils"
	"github.com/KAsare1/Yatube-server/cmd/views"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const (
	MinPasswordLength = 8
	ResetTokenTTL     = time.Hour
)

type Handler struct {
	db      *gorm.DB
	views   *views.Renderer
	auth    *utils.Authenticator
	mailer  utils.Mailer
	siteURL string
	logger  *log.Logger
}

func NewHandler(db *gorm.DB, rd *views.Renderer, auth *utils.Authenticator, mailer utils.Mailer, siteURL string) *Handler {
	return &Handler{
		db:      db,
		views:   rd,
		auth:    auth,
		mailer:  mailer,
		siteURL: strings.TrimSuffix(siteURL, "/"),
		logger:  log.New(os.Stdout, "Accounts: ", log.Ldate|log.Ltime|log.Lshortfile),
	}
}

// RegisterRoutes sets up the account pages under /auth/.
func (h *Handler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/auth/signup/", h.handleSignup).Methods("GET", "POST")
	router.HandleFunc("/auth/login/", h.handleLogin).Methods("GET", "POST")
	router.HandleFunc("/auth/logout/", h.handleLogout).Methods("GET", "POST")
	router.HandleFunc("/auth/password_reset/", h.handlePasswordResetRequest).Methods("GET", "POST")
	router.HandleFunc("/auth/password_reset/done/", h.page("users/password_reset_done.html")).Methods("GET")
	router.HandleFunc("/auth/reset/{uid:[0-9]+}/{token}/", h.handlePasswordReset).Methods("GET", "POST")
	router.HandleFunc("/auth/reset/done/", h.page("users/password_reset_complete.html")).Methods("GET")
}

type signupForm struct {
	FirstName string
	LastName  string
	Username  string
	Email     string
	Errors    map[string]string
}

func (h *Handler) handleSignup(w http.ResponseWriter, r *http.Request) {
	form := &signupForm{Errors: map[string]string{}}
	if r.Method == http.MethodGet {
		h.views.Render(w, r, http.StatusOK, "users/signup.html", map[string]interface{}{"Form": form})
		return
	}

	form.FirstName = strings.TrimSpace(r.FormValue("first_name"))
	form.LastName = strings.TrimSpace(r.FormValue("last_name"))
	form.Username = strings.TrimSpace(r.FormValue("username"))
	form.Email = strings.ToLower(strings.TrimSpace(r.FormValue("email")))
	password := r.FormValue("password1")

	if form.Username == "" {
		form.Errors["username"] = "Username is required."
	}
	if form.Email == "" || !strings.Contains(form.Email, "@") {
		form.Errors["email"] = "Enter a valid email address."
	}
	if msg := checkPassword(password, r.FormValue("password2")); msg != "" {
		form.Errors["password"] = msg
	}

	if len(form.Errors) == 0 {
		var count int64
		h.db.Model(&models.User{}).Where("username = ?", form.Username).Count(&count)
		if count > 0 {
			form.Errors["username"] = "A user with that username already exists."
		}
		h.db.Model(&models.User{}).Where("email = ?", form.Email).Count(&count)
		if count > 0 {
			form.Errors["email"] = "A user with that email already exists."
		}
	}

	if len(form.Errors) > 0 {
		h.views.Render(w, r, http.StatusOK, "users/signup.html", map[string]interface{}{"Form": form})
		return
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		http.Error(w, "Error hashing password", http.StatusInternalServerError)
		return
	}

	user := models.User{
		Username:     form.Username,
		Email:        form.Email,
		FirstName:    form.FirstName,
		LastName:     form.LastName,
		PasswordHash: string(passwordHash),
	}
	if err := h.db.Create(&user).Error; err != nil {
		h.logger.Printf("Error creating user %s: %v", form.Username, err)
		http.Error(w, "Error creating user", http.StatusInternalServerError)
		return
	}
	h.logger.Printf("User %s signed up", user.Username)

	if err := h.auth.Login(w, user.ID); err != nil {
		http.Error(w, "Error generating session", http.StatusInternalServerError)
		return
	}
	http.Redirect(w, r, "/", http.StatusFound)
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	next := r.FormValue("next")
	if r.Method == http.MethodGet {
		h.views.Render(w, r, http.StatusOK, "users/login.html", map[string]interface{}{"Next": next})
		return
	}

	username := strings.TrimSpace(r.FormValue("username"))
	password := r.FormValue("password")

	var user models.User
	err := h.db.Where("username = ?", username).First(&user).Error
	if err == nil {
		err = bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password))
	}
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) && !errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			h.logger.Printf("Error checking credentials for %s: %v", username, err)
		}
		h.views.Render(w, r, http.StatusOK, "users/login.html", map[string]interface{}{
			"Error":    "Please enter a correct username and password.",
			"Next":     next,
			"Username": username,
		})
		return
	}

	if err := h.auth.Login(w, user.ID); err != nil {
		http.Error(w, "Error generating session", http.StatusInternalServerError)
		return
	}
	http.Redirect(w, r, utils.SafeNext(next), http.StatusFound)
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	utils.Logout(w)
	// The page is rendered for the request that is logging out, so drop the user from it.
	h.views.Render(w, r.WithContext(utils.WithoutUser(r.Context())), http.StatusOK, "users/logged_out.html", nil)
}

func (h *Handler) handlePasswordResetRequest(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodGet {
		h.views.Render(w, r, http.StatusOK, "users/password_reset_form.html", nil)
		return
	}

	email := strings.ToLower(strings.TrimSpace(r.FormValue("email")))
	if email == "" {
		h.views.Render(w, r, http.StatusOK, "users/password_reset_form.html", map[string]interface{}{
			"Error": "Email is required.",
		})
		return
	}

	var user models.User
	if err := h.db.Where("email = ?", email).First(&user).Error; err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			h.logger.Printf("Error looking up %s: %v", email, err)
		}
		http.Redirect(w, r, "/auth/password_reset/done/", http.StatusFound)
		return
	}

	token := strings.ReplaceAll(uuid.New().String(), "-", "")

	tx := h.db.Begin()
	if err := tx.Where("user_id = ?", user.ID).Delete(&models.PasswordResetToken{}).Error; err != nil {
		tx.Rollback()
		http.Error(w, "Error processing reset request", http.StatusInternalServerError)
		return
	}

	resetToken := models.PasswordResetToken{
		UserID:    user.ID,
		Token:     token,
		ExpiresAt: time.Now().Add(ResetTokenTTL),
	}
	if err := tx.Create(&resetToken).Error; err != nil {
		tx.Rollback()
		http.Error(w, "Error creating reset token", http.StatusInternalServerError)
		return
	}
	if err := tx.Commit().Error; err != nil {
		http.Error(w, "Error processing reset request", http.StatusInternalServerError)
		return
	}

	link := fmt.Sprintf("%s/auth/reset/%d/%s/", h.siteURL, user.ID, token)
	body := fmt.Sprintf("Hello %s,\n\nFollow this link to choose a new password:\n%s\n\nThe link expires in one hour.\n",
		user.FullName(), link)
	if err := h.mailer.Send(user.Email, "Password reset on Yatube", body); err != nil {
		h.logger.Printf("Error sending reset email to %s: %v", user.Email, err)
		http.Error(w, "Error sending email", http.StatusInternalServerError)
		return
	}

	http.Redirect(w, r, "/auth/password_reset/done/", http.StatusFound)
}

func (h *Handler) handlePasswordReset(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	userID, err := strconv.ParseUint(vars["uid"], 10, 64)
	if err != nil {
		h.invalidResetLink(w, r)
		return
	}

	var resetToken models.PasswordResetToken
	err = h.db.Where("user_id = ? AND token = ?", userID, vars["token"]).First(&resetToken).Error
	if err != nil || time.Now().After(resetToken.ExpiresAt) {
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			h.logger.Printf("Error loading reset token: %v", err)
		}
		h.invalidResetLink(w, r)
		return
	}

	if r.Method == http.MethodGet {
		h.views.Render(w, r, http.StatusOK, "users/password_reset_confirm.html", map[string]interface{}{"Valid": true})
		return
	}

	if msg := checkPassword(r.FormValue("new_password1"), r.FormValue("new_password2")); msg != "" {
		h.views.Render(w, r, http.StatusOK, "users/password_reset_confirm.html", map[string]interface{}{
			"Valid": true,
			"Error": msg,
		})
		return
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(r.FormValue("new_password1")), bcrypt.DefaultCost)
	if err != nil {
		http.Error(w, "Error hashing password", http.StatusInternalServerError)
		return
	}

	tx := h.db.Begin()
	if err := tx.Model(&models.User{}).Where("id = ?", resetToken.UserID).
		Update("password_hash", string(passwordHash)).Error; err != nil {
		tx.Rollback()
		http.Error(w, "Error updating password", http.StatusInternalServerError)
		return
	}
	if err := tx.Delete(&resetToken).Error; err != nil {
		tx.Rollback()
		http.Error(w, "Error updating password", http.StatusInternalServerError)
		return
	}
	if err := tx.Commit().Error; err != nil {
		http.Error(w, "Error updating password", http.StatusInternalServerError)
		return
	}
	h.logger.Printf("Password reset for user %d", resetToken.UserID)

	http.Redirect(w, r, "/auth/reset/done/", http.StatusFound)
}

func (h *Handler) invalidResetLink(w http.ResponseWriter, r *http.Request) {
	h.views.Render(w, r, http.StatusBadRequest, "users/password_reset_confirm.html", map[string]interface{}{"Valid": false})
}

func (h *Handler) page(name string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h.views.Render(w, r, http.StatusOK, name, nil)
	}
}

func checkPassword(password, confirmation string) string {
	switch {
	case len(password) < MinPasswordLength:
		return fmt.Sprintf("This password is too short. It must contain at least %d characters.", MinPasswordLength)
	case password != confirmation:
		return "The two password fields didn't match."
	}
	return ""
}
