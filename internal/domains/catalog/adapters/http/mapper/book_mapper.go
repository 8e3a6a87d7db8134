package mapper

import (
	"github.com/hamrobooks/bookstore-api/internal/domains/catalog/domain"
)

// Book is the HTTP representation of a catalog entry. Price is expressed in
// paisa, matching the domain and the payment gateway.
type Book struct {
	ID          int64    `json:"id,omitempty"`
	Title       string   `json:"title"`
	Author      string   `json:"author"`
	Description string   `json:"description"`
	Category    string   `json:"category"`
	ISBN        string   `json:"isbn,omitempty"`
	ImageURL    string   `json:"imageUrl,omitempty"`
	Tags        []string `json:"tags,omitempty"`
	Price       int64    `json:"price"`
	Quantity    int      `json:"quantity"`
}

// ToDomainBook maps a transport Book into the domain aggregate.
func ToDomainBook(input Book) (*domain.Book, error) {
	book, err := domain.NewBook(input.ID, input.Title, input.Author, input.Description, input.Category, input.Price, input.Quantity)
	if err != nil {
		return nil, err
	}
	book.ISBN = input.ISBN
	book.ImageURL = input.ImageURL
	book.SetTags(input.Tags)
	return book, nil
}

// FromDomainBook maps a domain aggregate into a transport Book.
func FromDomainBook(b *domain.Book) Book {
	return Book{
		ID:          b.ID,
		Title:       b.Title,
		Author:      b.Author,
		Description: b.Description,
		Category:    b.Category,
		ISBN:        b.ISBN,
		ImageURL:    b.ImageURL,
		Tags:        append([]string(nil), b.Tags...),
		Price:       b.Price,
		Quantity:    b.Quantity,
	}
}

// FromDomainBookList maps a slice of domain aggregates to transport Books.
func FromDomainBookList(list []*domain.Book) []Book {
	resp := make([]Book, 0, len(list))
	for _, b := range list {
		resp = append(resp, FromDomainBook(b))
	}
	return resp
}
