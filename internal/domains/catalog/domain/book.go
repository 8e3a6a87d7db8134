package domain

import (
	"errors"
	"strings"
)

var (
	ErrEmptyTitle       = errors.New("title is required")
	ErrEmptyAuthor      = errors.New("author is required")
	ErrEmptyDescription = errors.New("description is required")
	ErrEmptyCategory    = errors.New("category is required")
	ErrNegativePrice    = errors.New("price must be zero or greater")
	ErrNegativeQuantity = errors.New("quantity must be zero or greater")
)

// Book models a catalog entry. Price is expressed in paisa (the currency's
// smallest unit) so that totals and gateway amounts never need floating point.
type Book struct {
	ID          int64
	Title       string
	Author      string
	Description string
	Category    string
	ISBN        string
	ImageURL    string
	Tags        []string
	Price       int64
	Quantity    int
}

// NewBook validates and constructs a new Book aggregate.
func NewBook(id int64, title, author, description, category string, price int64, quantity int) (*Book, error) {
	book := &Book{
		ID:       id,
		Price:    price,
		Quantity: quantity,
	}
	if err := book.Rename(title); err != nil {
		return nil, err
	}
	if err := book.SetAuthor(author); err != nil {
		return nil, err
	}
	if err := book.SetDescription(description); err != nil {
		return nil, err
	}
	if err := book.SetCategory(category); err != nil {
		return nil, err
	}
	if err := book.Validate(); err != nil {
		return nil, err
	}
	return book, nil
}

// Rename trims and validates the title.
func (b *Book) Rename(title string) error {
	title = strings.TrimSpace(title)
	if title == "" {
		return ErrEmptyTitle
	}
	b.Title = title
	return nil
}

// SetAuthor trims and validates the author.
func (b *Book) SetAuthor(author string) error {
	author = strings.TrimSpace(author)
	if author == "" {
		return ErrEmptyAuthor
	}
	b.Author = author
	return nil
}

// SetDescription trims and validates the description.
func (b *Book) SetDescription(description string) error {
	description = strings.TrimSpace(description)
	if description == "" {
		return ErrEmptyDescription
	}
	b.Description = description
	return nil
}

// SetCategory trims and validates the category.
func (b *Book) SetCategory(category string) error {
	category = strings.TrimSpace(category)
	if category == "" {
		return ErrEmptyCategory
	}
	b.Category = category
	return nil
}

// SetTags normalizes browse tags, dropping empties and duplicates.
func (b *Book) SetTags(tags []string) {
	seen := make(map[string]struct{}, len(tags))
	normalized := make([]string, 0, len(tags))
	for _, tag := range tags {
		tag = strings.ToLower(strings.TrimSpace(tag))
		if tag == "" {
			continue
		}
		if _, ok := seen[tag]; ok {
			continue
		}
		seen[tag] = struct{}{}
		normalized = append(normalized, tag)
	}
	if len(normalized) == 0 {
		b.Tags = nil
		return
	}
	b.Tags = normalized
}

// SetPrice rejects negative prices.
func (b *Book) SetPrice(price int64) error {
	if price < 0 {
		return ErrNegativePrice
	}
	b.Price = price
	return nil
}

// SetQuantity rejects negative quantities. Stock movements during checkout go
// through the repository's atomic reserve/restore operations, never through
// this setter.
func (b *Book) SetQuantity(quantity int) error {
	if quantity < 0 {
		return ErrNegativeQuantity
	}
	b.Quantity = quantity
	return nil
}

// Validate re-applies core invariants for persistence.
func (b *Book) Validate() error {
	if err := b.Rename(b.Title); err != nil {
		return err
	}
	if err := b.SetAuthor(b.Author); err != nil {
		return err
	}
	if err := b.SetDescription(b.Description); err != nil {
		return err
	}
	if err := b.SetCategory(b.Category); err != nil {
		return err
	}
	if err := b.SetPrice(b.Price); err != nil {
		return err
	}
	return b.SetQuantity(b.Quantity)
}
