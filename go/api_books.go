package bookstoreserver

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	bookhttpmapper "github.com/hamrobooks/bookstore-api/internal/domains/catalog/adapters/http/mapper"
	catalogapp "github.com/hamrobooks/bookstore-api/internal/domains/catalog/application"
	catalogports "github.com/hamrobooks/bookstore-api/internal/domains/catalog/ports"
)

// BooksAPI wires HTTP transport with the catalog bounded context service.
type BooksAPI struct {
	service catalogports.Service
}

// NewBooksAPI creates a BooksAPI backed by the provided service.
func NewBooksAPI(service catalogports.Service) BooksAPI {
	return BooksAPI{service: service}
}

// Get /api/books
// List the catalog
func (api *BooksAPI) ListBooks(c *gin.Context) {
	books, err := api.service.List(c.Request.Context())
	if err != nil {
		respondBookServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, bookhttpmapper.FromDomainBookList(books))
}

// Get /api/books/:bookId
// Find book by ID
func (api *BooksAPI) GetBookById(c *gin.Context) {
	id, ok := parseIDParam(c, "bookId")
	if !ok {
		return
	}
	book, err := api.service.GetByID(c.Request.Context(), id)
	if err != nil {
		respondBookServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, bookhttpmapper.FromDomainBook(book))
}

// Post /api/books
// Add a book to the catalog
func (api *BooksAPI) CreateBook(c *gin.Context) {
	var payload bookhttpmapper.Book
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondError(c, http.StatusBadRequest, err)
		return
	}
	book, err := bookhttpmapper.ToDomainBook(payload)
	if err != nil {
		respondError(c, http.StatusBadRequest, err)
		return
	}
	saved, err := api.service.CreateBook(c.Request.Context(), book)
	if err != nil {
		respondBookServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, bookhttpmapper.FromDomainBook(saved))
}

// Put /api/books/:bookId
// Update an existing book
func (api *BooksAPI) UpdateBook(c *gin.Context) {
	id, ok := parseIDParam(c, "bookId")
	if !ok {
		return
	}
	var payload bookhttpmapper.Book
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondError(c, http.StatusBadRequest, err)
		return
	}
	payload.ID = id
	book, err := bookhttpmapper.ToDomainBook(payload)
	if err != nil {
		respondError(c, http.StatusBadRequest, err)
		return
	}
	updated, err := api.service.UpdateBook(c.Request.Context(), id, book)
	if err != nil {
		respondBookServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, bookhttpmapper.FromDomainBook(updated))
}

// Delete /api/books/:bookId
// Remove a book that no order references
func (api *BooksAPI) DeleteBook(c *gin.Context) {
	id, ok := parseIDParam(c, "bookId")
	if !ok {
		return
	}
	if err := api.service.Delete(c.Request.Context(), id); err != nil {
		respondBookServiceError(c, err)
		return
	}
	c.Status(http.StatusOK)
}

func respondBookServiceError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	switch {
	case errors.Is(err, catalogports.ErrNotFound):
		respondError(c, http.StatusNotFound, err)
	case errors.Is(err, catalogapp.ErrInvalidInput):
		respondError(c, http.StatusBadRequest, err)
	case errors.Is(err, catalogapp.ErrBookInUse):
		respondError(c, http.StatusConflict, err)
	default:
		respondError(c, http.StatusInternalServerError, err)
	}
}

func parseIDParam(c *gin.Context, name string) (int64, bool) {
	value := c.Param(name)
	id, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		respondError(c, http.StatusBadRequest, err)
		return 0, false
	}
	return id, true
}
