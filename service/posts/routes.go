package posts

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/KAsare1/Yatube-server/cmd/models"
	"github.com/KAsare1/Yatube-server/cmd/utils"
	"github.com/KAsare1/Yatube-server/cmd/views"
	"github.com/KAsare1/Yatube-server/service/ws"
	"github.com/gorilla/mux"
	"gorm.io/gorm"
)

const IndexCachePrefix = "index_page"

type PostHandler struct {
	db       *gorm.DB
	views    *views.Renderer
	images   *utils.ImageStore
	hub      *ws.Hub
	cache    *utils.PageCache
	cacheTTL time.Duration
}

func NewPostHandler(db *gorm.DB, rd *views.Renderer, images *utils.ImageStore, hub *ws.Hub, cache *utils.PageCache, cacheTTL time.Duration) *PostHandler {
	return &PostHandler{
		db:       db,
		views:    rd,
		images:   images,
		hub:      hub,
		cache:    cache,
		cacheTTL: cacheTTL,
	}
}

func (h *PostHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/", h.cache.CachePage(h.cacheTTL, IndexCachePrefix, h.Index)).Methods("GET")
	router.HandleFunc("/group/{slug}/", h.GroupPosts).Methods("GET")
	router.HandleFunc("/profile/{username}/", h.Profile).Methods("GET")

	router.HandleFunc("/posts/{post_id:[0-9]+}/", h.PostDetail).Methods("GET")
	router.HandleFunc("/create/", utils.LoginRequired(h.PostCreate)).Methods("GET", "POST")
	router.HandleFunc("/posts/{post_id:[0-9]+}/edit/", utils.LoginRequired(h.PostEdit)).Methods("GET", "POST")
	router.HandleFunc("/posts/{post_id:[0-9]+}/comment/", utils.LoginRequired(h.AddComment)).Methods("GET", "POST")
}

// Index lists every post.
func (h *PostHandler) Index(w http.ResponseWriter, r *http.Request) {
	page, posts, err := utils.PaginatePosts(h.db.Model(&models.Post{}), r.URL.Query().Get("page"))
	if err != nil {
		log.Printf("Error retrieving posts: %v", err)
		http.Error(w, "Error retrieving posts", http.StatusInternalServerError)
		return
	}

	h.views.Render(w, r, http.StatusOK, "posts/index.html", map[string]interface{}{
		"Page":  page,
		"Posts": posts,
	})
}

func (h *PostHandler) GroupPosts(w http.ResponseWriter, r *http.Request) {
	var group models.Group
	if err := h.db.Where("slug = ?", mux.Vars(r)["slug"]).First(&group).Error; err != nil {
		h.notFoundOr500(w, r, err, "Error retrieving group")
		return
	}

	scope := h.db.Model(&models.Post{}).Where("group_id = ?", group.ID)
	page, posts, err := utils.PaginatePosts(scope, r.URL.Query().Get("page"))
	if err != nil {
		log.Printf("Error retrieving posts of group %s: %v", group.Slug, err)
		http.Error(w, "Error retrieving posts", http.StatusInternalServerError)
		return
	}

	h.views.Render(w, r, http.StatusOK, "posts/group_list.html", map[string]interface{}{
		"Group": group,
		"Page":  page,
		"Posts": posts,
	})
}

func (h *PostHandler) Profile(w http.ResponseWriter, r *http.Request) {
	var author models.User
	if err := h.db.Where("username = ?", mux.Vars(r)["username"]).First(&author).Error; err != nil {
		h.notFoundOr500(w, r, err, "Error retrieving user")
		return
	}

	scope := h.db.Model(&models.Post{}).Where("author_id = ?", author.ID)
	page, posts, err := utils.PaginatePosts(scope, r.URL.Query().Get("page"))
	if err != nil {
		log.Printf("Error retrieving posts of %s: %v", author.Username, err)
		http.Error(w, "Error retrieving posts", http.StatusInternalServerError)
		return
	}

	following := false
	if user := utils.CurrentUser(r); user != nil {
		var count int64
		if err := h.db.Model(&models.Follow{}).
			Where("user_id = ? AND author_id = ?", user.ID, author.ID).
			Count(&count).Error; err != nil {
			log.Printf("Error checking follow of %s: %v", author.Username, err)
			http.Error(w, "Error retrieving follows", http.StatusInternalServerError)
			return
		}
		following = count > 0
	}

	h.views.Render(w, r, http.StatusOK, "posts/profile.html", map[string]interface{}{
		"Author":    &author,
		"Page":      page,
		"Posts":     posts,
		"Quantity":  page.Count,
		"Following": following,
	})
}

func (h *PostHandler) PostDetail(w http.ResponseWriter, r *http.Request) {
	post, ok := h.loadPost(w, r)
	if !ok {
		return
	}

	var quantity int64
	if err := h.db.Model(&models.Post{}).Where("author_id = ?", post.AuthorID).Count(&quantity).Error; err != nil {
		log.Printf("Error counting posts of user %d: %v", post.AuthorID, err)
		http.Error(w, "Error retrieving posts", http.StatusInternalServerError)
		return
	}

	var comments []models.Comment
	if err := h.db.Preload("Author").Where("post_id = ?", post.ID).
		Order("created_at ASC, id ASC").Find(&comments).Error; err != nil {
		log.Printf("Error retrieving comments of post %d: %v", post.ID, err)
		http.Error(w, "Error retrieving comments", http.StatusInternalServerError)
		return
	}

	h.views.Render(w, r, http.StatusOK, "posts/post_detail.html", map[string]interface{}{
		"Post":     post,
		"Quantity": quantity,
		"Comments": comments,
		"CanEdit":  post.EditableBy(utils.CurrentUser(r)),
	})
}

// PostCreate publishes a post by the current user and sends them to their profile.
func (h *PostHandler) PostCreate(w http.ResponseWriter, r *http.Request) {
	user := utils.CurrentUser(r)

	if r.Method == http.MethodGet {
		h.renderForm(w, r, &PostForm{Errors: map[string]string{}}, false, 0)
		return
	}

	form, err := h.parsePostForm(w, r)
	if err != nil {
		h.formError(w, err)
		return
	}
	if !form.Valid() {
		h.renderForm(w, r, form, false, 0)
		return
	}

	imagePath, ok := h.saveUpload(r, form)
	if !ok {
		h.renderForm(w, r, form, false, 0)
		return
	}

	post := models.Post{
		Text:     form.Text,
		AuthorID: user.ID,
		GroupID:  form.GroupRef(),
		Image:    imagePath,
	}

	tx := h.db.Begin()
	if err := tx.Create(&post).Error; err != nil {
		tx.Rollback()
		h.images.DeleteImage(imagePath)
		log.Printf("Error creating post: %v", err)
		http.Error(w, "Error creating post", http.StatusInternalServerError)
		return
	}
	if err := tx.Commit().Error; err != nil {
		h.images.DeleteImage(imagePath)
		http.Error(w, "Error saving post", http.StatusInternalServerError)
		return
	}

	h.notifyFollowers(&post, user)
	http.Redirect(w, r, "/profile/"+user.Username+"/", http.StatusFound)
}

// PostEdit lets the author change a post. Anyone else is sent to the post page and nothing
// is written.
func (h *PostHandler) PostEdit(w http.ResponseWriter, r *http.Request) {
	post, ok := h.loadPost(w, r)
	if !ok {
		return
	}
	detailURL := fmt.Sprintf("/posts/%d/", post.ID)

	if !post.EditableBy(utils.CurrentUser(r)) {
		http.Redirect(w, r, detailURL, http.StatusFound)
		return
	}

	if r.Method == http.MethodGet {
		form := &PostForm{Text: post.Text, Errors: map[string]string{}}
		if post.GroupID != nil {
			form.GroupID = *post.GroupID
		}
		h.renderForm(w, r, form, true, post.ID)
		return
	}

	form, err := h.parsePostForm(w, r)
	if err != nil {
		h.formError(w, err)
		return
	}
	if !form.Valid() {
		h.renderForm(w, r, form, true, post.ID)
		return
	}

	imagePath, ok := h.saveUpload(r, form)
	if !ok {
		h.renderForm(w, r, form, true, post.ID)
		return
	}
	previousImage := post.Image
	if imagePath == "" {
		imagePath = previousImage
	}

	err = h.db.Model(&models.Post{}).Where("id = ?", post.ID).Updates(map[string]interface{}{
		"text":     form.Text,
		"group_id": form.GroupRef(),
		"image":    imagePath,
	}).Error
	if err != nil {
		if imagePath != previousImage {
			h.images.DeleteImage(imagePath)
		}
		log.Printf("Error updating post %d: %v", post.ID, err)
		http.Error(w, "Error updating post", http.StatusInternalServerError)
		return
	}
	if imagePath != previousImage {
		h.images.DeleteImage(previousImage)
	}

	http.Redirect(w, r, detailURL, http.StatusFound)
}

// AddComment always ends on the post page. An invalid comment is dropped without telling
// the user.
func (h *PostHandler) AddComment(w http.ResponseWriter, r *http.Request) {
	post, ok := h.loadPost(w, r)
	if !ok {
		return
	}
	detailURL := fmt.Sprintf("/posts/%d/", post.ID)

	var text string
	if r.Method == http.MethodPost {
		text = cleanText(r.FormValue("text"))
	}
	if text == "" {
		log.Printf("Discarding empty comment on post %d", post.ID)
		http.Redirect(w, r, detailURL, http.StatusFound)
		return
	}

	comment := models.Comment{
		PostID:   post.ID,
		AuthorID: utils.CurrentUser(r).ID,
		Text:     text,
	}
	if err := h.db.Create(&comment).Error; err != nil {
		log.Printf("Error creating comment on post %d: %v", post.ID, err)
		http.Error(w, "Error creating comment", http.StatusInternalServerError)
		return
	}

	http.Redirect(w, r, detailURL, http.StatusFound)
}

func (h *PostHandler) loadPost(w http.ResponseWriter, r *http.Request) (*models.Post, bool) {
	postID, err := strconv.ParseUint(mux.Vars(r)["post_id"], 10, 64)
	if err != nil {
		h.views.NotFound(w, r)
		return nil, false
	}

	var post models.Post
	if err := h.db.Preload("Author").Preload("Group").First(&post, postID).Error; err != nil {
		h.notFoundOr500(w, r, err, "Error retrieving post")
		return nil, false
	}
	return &post, true
}

func (h *PostHandler) notFoundOr500(w http.ResponseWriter, r *http.Request, err error, message string) {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		h.views.NotFound(w, r)
		return
	}
	log.Printf("%s: %v", message, err)
	http.Error(w, message, http.StatusInternalServerError)
}

func (h *PostHandler) renderForm(w http.ResponseWriter, r *http.Request, form *PostForm, isEdit bool, postID uint) {
	var groups []models.Group
	if err := h.db.Order("title ASC").Find(&groups).Error; err != nil {
		log.Printf("Error retrieving groups: %v", err)
		http.Error(w, "Error retrieving groups", http.StatusInternalServerError)
		return
	}

	h.views.Render(w, r, http.StatusOK, "posts/post_create.html", map[string]interface{}{
		"Form":   form,
		"Groups": groups,
		"IsEdit": isEdit,
		"PostID": postID,
	})
}

func (h *PostHandler) notifyFollowers(post *models.Post, author *models.User) {
	var followerIDs []uint
	if err := h.db.Model(&models.Follow{}).Where("author_id = ?", author.ID).
		Pluck("user_id", &followerIDs).Error; err != nil {
		log.Printf("Error loading followers of %s: %v", author.Username, err)
		return
	}
	h.hub.PublishNewPost(followerIDs, post, author)
}
