package follow

import (
	"errors"
	"log"
	"net/http"

	"github.com/KAsare1/Yatube-server/cmd/models"
	"github.com/KAsare1/Yatube-server/cmd/utils"
	"github.com/KAsare1/Yatube-server/cmd/views"
	"github.com/gorilla/mux"
	"gorm.io/gorm"
)

type FollowHandler struct {
	db    *gorm.DB
	views *views.Renderer
}

func NewFollowHandler(db *gorm.DB, rd *views.Renderer) *FollowHandler {
	return &FollowHandler{db: db, views: rd}
}

func (h *FollowHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/follow/", utils.LoginRequired(h.FollowIndex)).Methods("GET")
	router.HandleFunc("/profile/{username}/follow/", utils.LoginRequired(h.ProfileFollow)).Methods("GET", "POST")
	router.HandleFunc("/profile/{username}/unfollow/", utils.LoginRequired(h.ProfileUnfollow)).Methods("GET", "POST")
}

// FollowIndex lists posts by the authors the current user follows.
func (h *FollowHandler) FollowIndex(w http.ResponseWriter, r *http.Request) {
	user := utils.CurrentUser(r)

	var following int64
	if err := h.db.Model(&models.Follow{}).Where("user_id = ?", user.ID).Count(&following).Error; err != nil {
		log.Printf("Error counting follows of %s: %v", user.Username, err)
		http.Error(w, "Error retrieving follows", http.StatusInternalServerError)
		return
	}

	page := utils.EmptyPage()
	var posts []models.Post
	if following > 0 {
		authors := h.db.Model(&models.Follow{}).Select("author_id").Where("user_id = ?", user.ID)
		scope := h.db.Model(&models.Post{}).Where("author_id IN (?)", authors)

		var err error
		page, posts, err = utils.PaginatePosts(scope, r.URL.Query().Get("page"))
		if err != nil {
			log.Printf("Error retrieving feed of %s: %v", user.Username, err)
			http.Error(w, "Error retrieving posts", http.StatusInternalServerError)
			return
		}
	}

	h.views.Render(w, r, http.StatusOK, "posts/follow.html", map[string]interface{}{
		"Page":  page,
		"Posts": posts,
	})
}

// ProfileFollow subscribes the current user to an author. Following yourself or following
// twice changes nothing.
func (h *FollowHandler) ProfileFollow(w http.ResponseWriter, r *http.Request) {
	user := utils.CurrentUser(r)
	author, ok := h.loadAuthor(w, r)
	if !ok {
		return
	}

	if author.ID != user.ID {
		follow := models.Follow{UserID: user.ID, AuthorID: author.ID}
		err := h.db.Where(&follow).FirstOrCreate(&follow).Error
		if err != nil && !h.isFollowing(user.ID, author.ID) {
			log.Printf("Error following %s: %v", author.Username, err)
			http.Error(w, "Error following author", http.StatusInternalServerError)
			return
		}
	}

	http.Redirect(w, r, "/follow/", http.StatusFound)
}

func (h *FollowHandler) ProfileUnfollow(w http.ResponseWriter, r *http.Request) {
	user := utils.CurrentUser(r)
	author, ok := h.loadAuthor(w, r)
	if !ok {
		return
	}

	if err := h.db.Where("user_id = ? AND author_id = ?", user.ID, author.ID).
		Delete(&models.Follow{}).Error; err != nil {
		log.Printf("Error unfollowing %s: %v", author.Username, err)
		http.Error(w, "Error unfollowing author", http.StatusInternalServerError)
		return
	}

	http.Redirect(w, r, "/follow/", http.StatusFound)
}

func (h *FollowHandler) loadAuthor(w http.ResponseWriter, r *http.Request) (*models.User, bool) {
	var author models.User
	if err := h.db.Where("username = ?", mux.Vars(r)["username"]).First(&author).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			h.views.NotFound(w, r)
			return nil, false
		}
		log.Printf("Error retrieving user: %v", err)
		http.Error(w, "Error retrieving user", http.StatusInternalServerError)
		return nil, false
	}
	return &author, true
}

func (h *FollowHandler) isFollowing(userID, authorID uint) bool {
	var count int64
	h.db.Model(&models.Follow{}).Where("user_id = ? AND author_id = ?", userID, authorID).Count(&count)
	return count > 0
}
