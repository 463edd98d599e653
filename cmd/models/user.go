package models

import (
	"strings"
	"time"

	"gorm.io/gorm"
)


type User struct {
    gorm.Model
    Username     string `gorm:"column:username;size:150;not null;uniqueIndex" json:"username"`
    Email        string `gorm:"column:email;size:255;not null;uniqueIndex" json:"email"`
    FirstName    string `gorm:"column:first_name;size:150" json:"first_name"`
    LastName     string `gorm:"column:last_name;size:150" json:"last_name"`
    PasswordHash string `gorm:"column:password_hash;size:255;not null" json:"-"`

    Posts []Post `gorm:"foreignKey:AuthorID" json:"posts,omitempty"`
}

// FullName falls back to the username when no name was given at signup.
func (u *User) FullName() string {
    name := strings.TrimSpace(u.FirstName + " " + u.LastName)
    if name == "" {
        return u.Username
    }
    return name
}


type PasswordResetToken struct {
    ID        uint      `gorm:"primaryKey"`
    UserID    uint      `gorm:"not null;index"`
    Token     string    `gorm:"not null;size:64"`
    ExpiresAt time.Time `gorm:"not null"`
}
