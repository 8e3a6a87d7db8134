//go:build pact
// +build pact

package provider_test

import (
	"context"
	"errors"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	pacttest "github.com/hamrobooks/bookstore-api/test/pact"

	bookstoreserver "github.com/hamrobooks/bookstore-api/go"
	catalogmemory "github.com/hamrobooks/bookstore-api/internal/domains/catalog/adapters/memory"
	catalogobs "github.com/hamrobooks/bookstore-api/internal/domains/catalog/adapters/observability"
	catalogapp "github.com/hamrobooks/bookstore-api/internal/domains/catalog/application"
	bookdomain "github.com/hamrobooks/bookstore-api/internal/domains/catalog/domain"
	ordersmemory "github.com/hamrobooks/bookstore-api/internal/domains/orders/adapters/memory"
	ordersobs "github.com/hamrobooks/bookstore-api/internal/domains/orders/adapters/observability"
	ordersworkflows "github.com/hamrobooks/bookstore-api/internal/domains/orders/adapters/workflows"
	ordersapp "github.com/hamrobooks/bookstore-api/internal/domains/orders/application"
	usersmemory "github.com/hamrobooks/bookstore-api/internal/domains/users/adapters/memory"
	usersobs "github.com/hamrobooks/bookstore-api/internal/domains/users/adapters/observability"
	usersapp "github.com/hamrobooks/bookstore-api/internal/domains/users/application"

	"github.com/gin-gonic/gin"
	"github.com/pact-foundation/pact-go/v2/models"
	pactprovider "github.com/pact-foundation/pact-go/v2/provider"
	"github.com/stretchr/testify/require"
)

func TestBookstoreProviderPact(t *testing.T) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	app := newContractProviderApp(t)
	pactFile := filepath.ToSlash(pacttest.PactFile(t))
	if _, err := os.Stat(pactFile); errors.Is(err, os.ErrNotExist) {
		t.Fatalf("pact file not found at %s - run the pact consumer tests first", pactFile)
	} else {
		require.NoError(t, err)
	}

	verifier := pactprovider.NewVerifier()
	stateHandlers := models.StateHandlers{
		pacttest.StateBooksBaseline: func(setup bool, _ models.ProviderState) (models.ProviderStateResponse, error) {
			app.resetBooks(t)
			return nil, nil
		},
		pacttest.StateBookExists: func(setup bool, _ models.ProviderState) (models.ProviderStateResponse, error) {
			app.resetBooks(t)
			if setup {
				app.seedBook(t, pacttest.ExistingBookID)
			}
			return nil, nil
		},
		pacttest.StateBookMissing: func(setup bool, _ models.ProviderState) (models.ProviderStateResponse, error) {
			app.resetBooks(t)
			return nil, nil
		},
	}

	err := verifier.VerifyProvider(t, pactprovider.VerifyRequest{
		ProviderBaseURL: app.server.URL,
		Provider:        pacttest.ProviderName,
		PactFiles:       []string{pactFile},
		StateHandlers:   stateHandlers,
		BeforeEach: func() error {
			app.resetBooks(t)
			return nil
		},
	})
	require.NoError(t, err)
}

type contractProviderApp struct {
	repo   *catalogmemory.Repository
	server *httptest.Server
}

func newContractProviderApp(t testing.TB) *contractProviderApp {
	t.Helper()

	bookRepo := catalogmemory.NewRepository()
	orderRepo := ordersmemory.NewRepository()

	catalogService := catalogobs.New(catalogapp.NewService(bookRepo, orderRepo))
	orderService := ordersobs.New(ordersapp.NewService(orderRepo, bookRepo, nil, "", nil))
	userService := usersobs.New(usersapp.NewService(usersmemory.NewRepository(), usersmemory.NewSessionStore(), usersapp.DefaultSessionTTL))

	handlers := bookstoreserver.ApiHandleFunctions{
		BooksAPI:  bookstoreserver.NewBooksAPI(catalogService),
		OrdersAPI: bookstoreserver.NewOrdersAPI(orderService, ordersworkflows.NewInlinePaymentWorkflows(orderService)),
		UsersAPI:  bookstoreserver.NewUsersAPI(userService),
		Auth:      userService,
	}

	server := httptest.NewServer(bookstoreserver.NewRouter(handlers))
	t.Cleanup(server.Close)

	return &contractProviderApp{
		repo:   bookRepo,
		server: server,
	}
}

func (a *contractProviderApp) resetBooks(t testing.TB) {
	t.Helper()
	books, err := a.repo.List(context.Background())
	require.NoError(t, err)
	for _, book := range books {
		_ = a.repo.Delete(context.Background(), book.ID)
	}
}

func (a *contractProviderApp) seedBook(t testing.TB, id int64) {
	t.Helper()
	book, err := bookdomain.NewBook(id, "Palpasa Cafe", "Narayan Wagle", "A war-time love story from Kathmandu.", "fiction", 45000, 12)
	require.NoError(t, err)
	_, err = a.repo.Save(context.Background(), book)
	require.NoError(t, err)
}
