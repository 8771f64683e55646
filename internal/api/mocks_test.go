package api

import (
	"context"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/mock"

	"library-catalog-service/internal/domain"
	"library-catalog-service/internal/store"
)

// MockAuthorStorer is a mock implementation of store.AuthorStorer
type MockAuthorStorer struct {
	mock.Mock
}

func (m *MockAuthorStorer) CreateAuthor(ctx context.Context, author *domain.Author) (*domain.Author, error) {
	args := m.Called(ctx, author)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Author), args.Error(1)
}

func (m *MockAuthorStorer) GetAuthorByID(ctx context.Context, id int64) (*domain.Author, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Author), args.Error(1)
}

func (m *MockAuthorStorer) ListAuthors(ctx context.Context) ([]domain.Author, error) {
	args := m.Called(ctx)
	var authors []domain.Author
	if arg0 := args.Get(0); arg0 != nil {
		authors = arg0.([]domain.Author)
	}
	return authors, args.Error(1)
}

func (m *MockAuthorStorer) UpdateAuthor(ctx context.Context, author *domain.Author) (*domain.Author, error) {
	args := m.Called(ctx, author)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Author), args.Error(1)
}

func (m *MockAuthorStorer) DeleteAuthor(ctx context.Context, id int64) (int64, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(int64), args.Error(1)
}

// MockBookStorer is a mock implementation of store.BookStorer
type MockBookStorer struct {
	mock.Mock
}

func (m *MockBookStorer) CreateBook(ctx context.Context, book *domain.Book) (*domain.Book, error) {
	args := m.Called(ctx, book)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Book), args.Error(1)
}

func (m *MockBookStorer) GetBookByID(ctx context.Context, id uuid.UUID) (*domain.Book, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Book), args.Error(1)
}

func (m *MockBookStorer) ListBooks(ctx context.Context, params store.ListBooksParams) ([]domain.Book, error) {
	args := m.Called(ctx, params)
	var books []domain.Book
	if arg0 := args.Get(0); arg0 != nil {
		books = arg0.([]domain.Book)
	}
	return books, args.Error(1)
}

func (m *MockBookStorer) UpdateBook(ctx context.Context, book *domain.Book) (*domain.Book, error) {
	args := m.Called(ctx, book)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Book), args.Error(1)
}

func (m *MockBookStorer) DeleteBook(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockBookStorer) RemoveCoAuthor(ctx context.Context, bookID uuid.UUID, authorID int64) error {
	return m.Called(ctx, bookID, authorID).Error(0)
}

// MockProductStorer is a mock implementation of store.ProductStorer
type MockProductStorer struct {
	mock.Mock
}

func (m *MockProductStorer) CreateProduct(ctx context.Context, product *domain.Product) (*domain.Product, error) {
	args := m.Called(ctx, product)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Product), args.Error(1)
}

func (m *MockProductStorer) GetProductByID(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Product), args.Error(1)
}

func (m *MockProductStorer) ListProducts(ctx context.Context, params store.ListProductsParams) ([]domain.Product, error) {
	args := m.Called(ctx, params)
	var products []domain.Product
	if arg0 := args.Get(0); arg0 != nil {
		products = arg0.([]domain.Product)
	}
	return products, args.Error(1)
}

func (m *MockProductStorer) UpdateProduct(ctx context.Context, product *domain.Product) (*domain.Product, error) {
	args := m.Called(ctx, product)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Product), args.Error(1)
}

func (m *MockProductStorer) DeleteProduct(ctx context.Context, id uuid.UUID) (int64, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(int64), args.Error(1)
}

type testStores struct {
	authors  *MockAuthorStorer
	books    *MockBookStorer
	products *MockProductStorer
}

func (s testStores) assertExpectations(t *testing.T) {
	s.authors.AssertExpectations(t)
	s.books.AssertExpectations(t)
	s.products.AssertExpectations(t)
}

// Helper for setting up tests with a chi router and handler
func setupTestChiServer(t *testing.T) (*httptest.Server, testStores) {
	t.Helper()
	stores := testStores{
		authors:  new(MockAuthorStorer),
		books:    new(MockBookStorer),
		products: new(MockProductStorer),
	}
	handler := NewHTTPHandler(stores.authors, stores.books, stores.products, zerolog.New(io.Discard))
	router := chi.NewRouter()
	handler.RegisterRoutes(router)

	server := httptest.NewServer(router)
	t.Cleanup(server.Close)
	return server, stores
}

func ptrTo[T any](v T) *T {
	return &v
}
