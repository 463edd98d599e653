package posts

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/KAsare1/Yatube-server/cmd/models"
	"github.com/KAsare1/Yatube-server/cmd/utils"
)

const (
	maxUploadMemory = 32 << 20
	maxPostBody     = utils.MaxImageSize + 1<<20
)

// errBadForm marks a request body that could not be read as a form.
var errBadForm = errors.New("malformed form")

// PostForm carries the submitted post fields and their validation errors.
type PostForm struct {
	Text    string
	GroupID uint
	Errors  map[string]string
}

func (f *PostForm) Valid() bool {
	return len(f.Errors) == 0
}

// GroupRef is the group column value; nil when no group was chosen.
func (f *PostForm) GroupRef() *uint {
	if f.GroupID == 0 {
		return nil
	}
	id := f.GroupID
	return &id
}

func cleanText(s string) string {
	return strings.TrimSpace(s)
}

// parsePostForm reads and validates the post fields. Errors wrapping errBadForm or
// *http.MaxBytesError come from the request itself; anything else is a storage failure.
func (h *PostHandler) parsePostForm(w http.ResponseWriter, r *http.Request) (*PostForm, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxPostBody)
	if err := r.ParseMultipartForm(maxUploadMemory); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, tooLarge
		}
		return nil, fmt.Errorf("%w: %v", errBadForm, err)
	}

	form := &PostForm{
		Text:   cleanText(r.FormValue("text")),
		Errors: map[string]string{},
	}
	if form.Text == "" {
		form.Errors["text"] = "This field is required."
	}

	if raw := r.FormValue("group"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			form.Errors["group"] = "Select a valid choice."
			return form, nil
		}
		form.GroupID = uint(id)

		var count int64
		if err := h.db.Model(&models.Group{}).Where("id = ?", form.GroupID).Count(&count).Error; err != nil {
			return nil, fmt.Errorf("checking group %d: %w", form.GroupID, err)
		}
		if count == 0 {
			form.Errors["group"] = "Select a valid choice."
		}
	}
	return form, nil
}

func (h *PostHandler) formError(w http.ResponseWriter, err error) {
	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &tooLarge):
		http.Error(w, "Request body too large", http.StatusRequestEntityTooLarge)
	case errors.Is(err, errBadForm):
		http.Error(w, "Error parsing form", http.StatusBadRequest)
	default:
		log.Printf("Error validating post form: %v", err)
		http.Error(w, "Error validating post", http.StatusInternalServerError)
	}
}

// saveUpload stores the optional image field. It returns "" when nothing was uploaded; a
// rejected file is reported on the form.
func (h *PostHandler) saveUpload(r *http.Request, form *PostForm) (string, bool) {
	file, header, err := r.FormFile("image")
	if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
		return "", true
	}
	if err != nil {
		form.Errors["image"] = utils.ErrNotAnImage.Error()
		return "", false
	}
	defer file.Close()

	imagePath, err := h.images.SaveImage(file, header)
	if err != nil {
		if !errors.Is(err, utils.ErrImageTooLarge) && !errors.Is(err, utils.ErrNotAnImage) {
			log.Printf("Error saving image: %v", err)
		}
		form.Errors["image"] = err.Error()
		return "", false
	}
	return imagePath, true
}
