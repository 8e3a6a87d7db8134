package application

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hamrobooks/bookstore-api/internal/domains/catalog/domain"
	"github.com/hamrobooks/bookstore-api/internal/domains/catalog/ports"
)

type fakeBookRepo struct {
	books  map[int64]*domain.Book
	nextID int64
}

func newFakeBookRepo() *fakeBookRepo {
	return &fakeBookRepo{books: map[int64]*domain.Book{}}
}

func (f *fakeBookRepo) Save(_ context.Context, book *domain.Book) (*domain.Book, error) {
	clone := *book
	if clone.ID == 0 {
		f.nextID++
		clone.ID = f.nextID
	}
	f.books[clone.ID] = &clone
	return &clone, nil
}

func (f *fakeBookRepo) GetByID(_ context.Context, id int64) (*domain.Book, error) {
	if b, ok := f.books[id]; ok {
		clone := *b
		return &clone, nil
	}
	return nil, ports.ErrNotFound
}

func (f *fakeBookRepo) Delete(_ context.Context, id int64) error {
	if _, ok := f.books[id]; !ok {
		return ports.ErrNotFound
	}
	delete(f.books, id)
	return nil
}

func (f *fakeBookRepo) List(_ context.Context) ([]*domain.Book, error) {
	var list []*domain.Book
	for _, b := range f.books {
		clone := *b
		list = append(list, &clone)
	}
	return list, nil
}

func (f *fakeBookRepo) ReserveStock(_ context.Context, id int64, qty int) error {
	b, ok := f.books[id]
	if !ok {
		return ports.ErrNotFound
	}
	if b.Quantity < qty {
		return ports.ErrInsufficientStock
	}
	b.Quantity -= qty
	return nil
}

func (f *fakeBookRepo) RestoreStock(_ context.Context, id int64, qty int) error {
	b, ok := f.books[id]
	if !ok {
		return ports.ErrNotFound
	}
	b.Quantity += qty
	return nil
}

type stubOrderRefs struct {
	inUse bool
}

func (s stubOrderRefs) InUse(_ context.Context, _ int64) (bool, error) {
	return s.inUse, nil
}

func TestCreateBook_ValidatesAndPersists(t *testing.T) {
	repo := newFakeBookRepo()
	svc := NewService(repo, nil)

	book, err := domain.NewBook(0, "The Art of Computer Programming", "Donald Knuth", "Foundational algorithms text", "computer-science", 450000, 5)
	require.NoError(t, err)

	saved, err := svc.CreateBook(context.Background(), book)
	require.NoError(t, err)
	require.NotZero(t, saved.ID)
	require.Equal(t, int64(450000), saved.Price)
	require.Equal(t, 5, saved.Quantity)
}

func TestCreateBook_NegativePrice(t *testing.T) {
	repo := newFakeBookRepo()
	svc := NewService(repo, nil)

	book := &domain.Book{Title: "b", Author: "a", Description: "d", Category: "c", Price: -1}
	_, err := svc.CreateBook(context.Background(), book)
	require.ErrorIs(t, err, domain.ErrNegativePrice)
	require.ErrorIs(t, err, ErrInvalidInput)
}

func TestUpdateBook_KeepsIdentity(t *testing.T) {
	repo := newFakeBookRepo()
	svc := NewService(repo, nil)

	book, err := domain.NewBook(0, "Original", "Author", "Desc", "fiction", 50000, 3)
	require.NoError(t, err)
	saved, err := svc.CreateBook(context.Background(), book)
	require.NoError(t, err)

	update := &domain.Book{Title: "Renamed", Author: "Author", Description: "Desc", Category: "fiction", Price: 60000, Quantity: 3}
	updated, err := svc.UpdateBook(context.Background(), saved.ID, update)
	require.NoError(t, err)
	require.Equal(t, saved.ID, updated.ID)
	require.Equal(t, "Renamed", updated.Title)
	require.Equal(t, int64(60000), updated.Price)
}

func TestDelete_BlockedWhileReferencedByOrders(t *testing.T) {
	repo := newFakeBookRepo()
	svc := NewService(repo, stubOrderRefs{inUse: true})

	book, err := domain.NewBook(0, "Referenced", "Author", "Desc", "fiction", 50000, 3)
	require.NoError(t, err)
	saved, err := svc.CreateBook(context.Background(), book)
	require.NoError(t, err)

	err = svc.Delete(context.Background(), saved.ID)
	require.ErrorIs(t, err, ErrBookInUse)

	_, err = svc.GetByID(context.Background(), saved.ID)
	require.NoError(t, err)
}

func TestDelete_UnreferencedSucceeds(t *testing.T) {
	repo := newFakeBookRepo()
	svc := NewService(repo, stubOrderRefs{inUse: false})

	book, err := domain.NewBook(0, "Unreferenced", "Author", "Desc", "fiction", 50000, 3)
	require.NoError(t, err)
	saved, err := svc.CreateBook(context.Background(), book)
	require.NoError(t, err)

	require.NoError(t, svc.Delete(context.Background(), saved.ID))
	_, err = svc.GetByID(context.Background(), saved.ID)
	require.ErrorIs(t, err, ports.ErrNotFound)
}

func TestDelete_MissingBook(t *testing.T) {
	repo := newFakeBookRepo()
	svc := NewService(repo, nil)

	err := svc.Delete(context.Background(), 42)
	require.ErrorIs(t, err, ports.ErrNotFound)
}
