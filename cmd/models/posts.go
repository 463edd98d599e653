package models

import (
	"time"

	"gorm.io/gorm"
)

// PostPreviewLength is how many characters of the text a post's String form keeps.
const PostPreviewLength = 15


type Group struct {
    gorm.Model
    Title       string `gorm:"column:title;size:200;not null" json:"title"`
    Slug        string `gorm:"column:slug;size:200;not null;uniqueIndex" json:"slug"`
    Description string `gorm:"column:description;type:text" json:"description"`
}

func (g Group) String() string {
    return g.Title
}


type Post struct {
    gorm.Model
    Text     string    `gorm:"column:text;type:text;not null" json:"text"`
    AuthorID uint      `gorm:"column:author_id;not null;index" json:"author_id"`
    GroupID  *uint     `gorm:"column:group_id;index" json:"group_id,omitempty"`
    Image    string    `gorm:"column:image;size:255" json:"image,omitempty"`
    Author   *User     `gorm:"foreignKey:AuthorID" json:"author,omitempty"`
    Group    *Group    `gorm:"foreignKey:GroupID;constraint:OnUpdate:CASCADE,OnDelete:SET NULL;" json:"group,omitempty"`
    Comments []Comment `gorm:"foreignKey:PostID" json:"comments,omitempty"`
}

func (p Post) String() string {
    runes := []rune(p.Text)
    if len(runes) > PostPreviewLength {
        return string(runes[:PostPreviewLength])
    }
    return p.Text
}

// EditableBy reports whether user may change the post. Only the author can.
func (p *Post) EditableBy(user *User) bool {
    return user != nil && user.ID != 0 && user.ID == p.AuthorID
}


type Comment struct {
    gorm.Model
    PostID   uint   `gorm:"column:post_id;not null;index" json:"post_id"`
    AuthorID uint   `gorm:"column:author_id;not null" json:"author_id"`
    Text     string `gorm:"column:text;type:text;not null" json:"text"`
    Author   *User  `gorm:"foreignKey:AuthorID" json:"author,omitempty"`
    Post     *Post  `gorm:"foreignKey:PostID;constraint:OnDelete:CASCADE;" json:"-"`
}

// Follow is a directed edge: UserID receives AuthorID's posts in their feed.
type Follow struct {
    ID        uint      `gorm:"primaryKey" json:"id"`
    UserID    uint      `gorm:"column:user_id;not null;uniqueIndex:idx_follow_user_author" json:"user_id"`
    AuthorID  uint      `gorm:"column:author_id;not null;index;uniqueIndex:idx_follow_user_author" json:"author_id"`
    CreatedAt time.Time `json:"created_at"`
    User      *User     `gorm:"foreignKey:UserID" json:"-"`
    Author    *User     `gorm:"foreignKey:AuthorID" json:"-"`
}
