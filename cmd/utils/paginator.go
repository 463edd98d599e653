package utils

import (
	"strconv"
	"strings"

	"github.com/KAsare1/Yatube-server/cmd/models"
	"gorm.io/gorm"
)

const PostsPerPage = 10

// Page describes one window of an ordered collection.
type Page struct {
	Number   int
	NumPages int
	PerPage  int
	Count    int64
}

// NewPage picks the page named by raw. Missing or non-numeric values give page 1,
// anything out of range gives the last page. An empty collection has one empty page.
func NewPage(count int64, perPage int, raw string) Page {
	if perPage < 1 {
		perPage = PostsPerPage
	}
	numPages := 1
	if count > 0 {
		numPages = int((count + int64(perPage) - 1) / int64(perPage))
	}

	number, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		number = 1
	} else if number < 1 || number > numPages {
		number = numPages
	}

	return Page{Number: number, NumPages: numPages, PerPage: perPage, Count: count}
}

func (p Page) HasNext() bool       { return p.Number < p.NumPages }
func (p Page) HasPrevious() bool   { return p.Number > 1 }
func (p Page) HasOtherPages() bool { return p.HasNext() || p.HasPrevious() }
func (p Page) NextPageNumber() int { return p.Number + 1 }
func (p Page) PreviousPageNumber() int {
	return p.Number - 1
}

// Offset is the zero-based index of the first item on the page.
func (p Page) Offset() int {
	return (p.Number - 1) * p.PerPage
}

// Len is how many items the page holds.
func (p Page) Len() int {
	remaining := int(p.Count) - p.Offset()
	if remaining < 0 {
		return 0
	}
	if remaining > p.PerPage {
		return p.PerPage
	}
	return remaining
}

// PageRange lists 1..NumPages for page links.
func (p Page) PageRange() []int {
	pages := make([]int, p.NumPages)
	for i := range pages {
		pages[i] = i + 1
	}
	return pages
}

// Paginate slices an in-memory collection.
func Paginate[T any](items []T, raw string) (Page, []T) {
	page := NewPage(int64(len(items)), PostsPerPage, raw)
	start := page.Offset()
	return page, items[start : start+page.Len()]
}

// EmptyPage is what a listing shows when there is nothing to select from.
func EmptyPage() Page {
	return NewPage(0, PostsPerPage, "")
}

// PaginatePosts counts the posts selected by scope and loads the requested page newest first.
func PaginatePosts(scope *gorm.DB, raw string) (Page, []models.Post, error) {
	var total int64
	if err := scope.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return Page{}, nil, err
	}
	page := NewPage(total, PostsPerPage, raw)

	var posts []models.Post
	err := scope.Session(&gorm.Session{}).
		Preload("Author").
		Preload("Group").
		Order("posts.created_at DESC, posts.id DESC").
		Offset(page.Offset()).
		Limit(page.PerPage).
		Find(&posts).Error
	if err != nil {
		return Page{}, nil, err
	}
	return page, posts, nil
}
