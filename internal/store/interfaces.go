package store

import (
	"context"
	"time"

	"github.com/google/uuid"

	"library-catalog-service/internal/domain"
)

// AuthorStorer defines the database operations for authors.
type AuthorStorer interface {
	CreateAuthor(ctx context.Context, author *domain.Author) (*domain.Author, error)
	GetAuthorByID(ctx context.Context, id int64) (*domain.Author, error)
	ListAuthors(ctx context.Context) ([]domain.Author, error)
	UpdateAuthor(ctx context.Context, author *domain.Author) (*domain.Author, error)
	// DeleteAuthor removes the author together with every book it is the
	// primary author of, and returns how many books were removed.
	DeleteAuthor(ctx context.Context, id int64) (int64, error)
}

// ListBooksParams holds the search and filters of a book listing.
// The zero value lists every book.
type ListBooksParams struct {
	SearchQuery   *string // title, isbn or primary author name
	Available     *bool
	PublishedFrom *time.Time // inclusive
	PublishedTo   *time.Time // inclusive
}

// BookStorer defines the database operations for books.
type BookStorer interface {
	CreateBook(ctx context.Context, book *domain.Book) (*domain.Book, error)
	GetBookByID(ctx context.Context, id uuid.UUID) (*domain.Book, error)
	ListBooks(ctx context.Context, params ListBooksParams) ([]domain.Book, error)
	UpdateBook(ctx context.Context, book *domain.Book) (*domain.Book, error)
	DeleteBook(ctx context.Context, id uuid.UUID) error
	RemoveCoAuthor(ctx context.Context, bookID uuid.UUID, authorID int64) error
}

// ListProductsParams holds the search and filters of a product listing.
// The zero value lists every product, ordered by name.
type ListProductsParams struct {
	SearchQuery *string // name or description
	IsAvailable *bool
	Category    *domain.Category
	ParentID    *uuid.UUID // only variations of this product
}

// ProductStorer defines the database operations for products.
type ProductStorer interface {
	CreateProduct(ctx context.Context, product *domain.Product) (*domain.Product, error)
	GetProductByID(ctx context.Context, id uuid.UUID) (*domain.Product, error)
	ListProducts(ctx context.Context, params ListProductsParams) ([]domain.Product, error)
	UpdateProduct(ctx context.Context, product *domain.Product) (*domain.Product, error)
	// DeleteProduct removes the product and detaches its variations, returning
	// how many variations lost their parent.
	DeleteProduct(ctx context.Context, id uuid.UUID) (int64, error)
}
