package models

import "testing"

func TestPostStringTruncates(t *testing.T) {
    post := Post{Text: "Тестовый пост, который длиннее 15 символов"}
    if got, want := post.String(), "Тестовый пост, "; got != want {
        t.Errorf("String() = %q, want %q", got, want)
    }

    short := Post{Text: "short"}
    if short.String() != "short" {
        t.Errorf("String() = %q, want %q", short.String(), "short")
    }
}

func TestGroupStringIsTitle(t *testing.T) {
    group := Group{Title: "Тестовая группа", Slug: "test-slug"}
    if group.String() != "Тестовая группа" {
        t.Errorf("String() = %q", group.String())
    }
}

func TestPostEditableBy(t *testing.T) {
    author := &User{Username: "auth"}
    author.ID = 1
    other := &User{Username: "other"}
    other.ID = 2
    post := &Post{AuthorID: 1}

    cases := []struct {
        name string
        user *User
        want bool
    }{
        {"author", author, true},
        {"other user", other, false},
        {"anonymous", nil, false},
        {"unsaved user", &User{}, false},
    }
    for _, tc := range cases {
        t.Run(tc.name, func(t *testing.T) {
            if got := post.EditableBy(tc.user); got != tc.want {
                t.Errorf("EditableBy = %v, want %v", got, tc.want)
            }
        })
    }
}

func TestUserFullName(t *testing.T) {
    u := User{Username: "leo"}
    if u.FullName() != "leo" {
        t.Errorf("FullName() = %q", u.FullName())
    }
    u.FirstName, u.LastName = "Leo", "Tolstoy"
    if u.FullName() != "Leo Tolstoy" {
        t.Errorf("FullName() = %q", u.FullName())
    }
}
