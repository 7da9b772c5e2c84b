package main

import (
	"context"
	"errors"
)

var ErrBookNotFound = errors.New("book not found")

// Book represents a book record as stored in the books table.
type Book struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	Author      string `json:"author"`
	PublishDate string `json:"publish_date"`
	Publisher   string `json:"publisher"`
}

// BookPayload is the body expected by the create and update endpoints.
// The date layout is the one of a SQL DATE literal.
type BookPayload struct {
	Title       string `json:"title" validate:"required"`
	Author      string `json:"author" validate:"required"`
	PublishDate string `json:"publish_date" validate:"required,datetime=2006-01-02"`
	Publisher   string `json:"publisher" validate:"required"`
}

// Book converts the payload into a book without identifier.
func (p BookPayload) Book() Book {
	return Book{
		Title:       p.Title,
		Author:      p.Author,
		PublishDate: p.PublishDate,
		Publisher:   p.Publisher,
	}
}

// BookFilter holds the optional search criteria. An empty
// field means the criterion is not applied.
type BookFilter struct {
	Title     string
	Author    string
	Publisher string
}

// BookStorage defines possible operations on book entity.
type BookStorage interface {
	Search(ctx context.Context, filter BookFilter) ([]Book, error)
	GetOne(ctx context.Context, id int64) (Book, error)
	Add(ctx context.Context, book Book) (Book, error)
	Update(ctx context.Context, id int64, book Book) (Book, error)
	Delete(ctx context.Context, id int64) error
}
