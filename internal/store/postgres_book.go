package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"library-catalog-service/internal/domain"
)

const bookColumns = `b.id, b.title, b.slug, b.description, b.publication_date, b.cover_image,
		b.available, b.price, b.author_id, b.isbn, b.pdf_file, a.name`

var bookSearchColumns = map[string]string{
	"title":       "b.title",
	"isbn":        "b.isbn",
	"author_name": "a.name",
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBook(row rowScanner, b *domain.Book) error {
	return row.Scan(
		&b.ID, &b.Title, &b.Slug, &b.Description, &b.PublicationDate, &b.CoverImage,
		&b.Available, &b.Price, &b.AuthorID, &b.ISBN, &b.PDFFile, &b.AuthorName,
	)
}

// CreateBook validates the book, checks slug and isbn uniqueness and the
// referenced authors, then inserts the book and its co-author links in one
// transaction. The id is always generated here.
func (s *PostgresStore) CreateBook(ctx context.Context, book *domain.Book) (*domain.Book, error) {
	b := *book
	b.CoAuthorIDs = append([]int64(nil), book.CoAuthorIDs...)
	b.PrepareForCreate()
	if err := domain.ValidateBook(&b); err != nil {
		return nil, err
	}

	var created *domain.Book
	err := s.withTx(ctx, "CreateBook", func(tx *sql.Tx) error {
		if err := checkBookConstraints(ctx, tx, &b); err != nil {
			return err
		}

		query := `
			INSERT INTO catalog.books
				(id, title, slug, description, publication_date, cover_image, available, price, author_id, isbn, pdf_file)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11);
		`
		_, err := tx.ExecContext(ctx, query,
			b.ID, b.Title, b.Slug, b.Description, b.PublicationDate, nullableString(b.CoverImage),
			b.Available, b.Price, b.AuthorID, strings.TrimSpace(b.ISBN), nullableString(b.PDFFile),
		)
		if err != nil {
			return classifyError("CreateBook", err)
		}
		if err := insertCoAuthors(ctx, tx, b.ID, b.CoAuthorIDs); err != nil {
			return err
		}

		created, err = getBook(ctx, tx, b.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

func (s *PostgresStore) GetBookByID(ctx context.Context, id uuid.UUID) (*domain.Book, error) {
	return getBook(ctx, s.db, id)
}

func getBook(ctx context.Context, q queryer, id uuid.UUID) (*domain.Book, error) {
	query := `
		SELECT ` + bookColumns + `
		FROM catalog.books b
		JOIN catalog.authors a ON a.id = b.author_id
		WHERE b.id = $1;
	`
	var book domain.Book
	if err := scanBook(q.QueryRowContext(ctx, query, id), &book); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrBookNotFound
		}
		return nil, classifyError("GetBookByID", err)
	}

	coAuthors, err := loadCoAuthors(ctx, q, []uuid.UUID{id})
	if err != nil {
		return nil, err
	}
	book.CoAuthorIDs = coAuthorsOf(coAuthors, book.ID)
	return &book, nil
}

// ListBooks returns the books matching params in storage order. With zero
// params it returns the whole collection; an empty table yields an empty slice.
func (s *PostgresStore) ListBooks(ctx context.Context, params ListBooksParams) ([]domain.Book, error) {
	var queryArgs []any
	var whereClauses []string
	argID := 1

	if params.SearchQuery != nil && *params.SearchQuery != "" {
		whereClauses = append(whereClauses, searchClause(domain.BookAdmin.List.Search, bookSearchColumns, argID))
		queryArgs = append(queryArgs, "%"+*params.SearchQuery+"%")
		argID++
	}
	if params.Available != nil {
		whereClauses = append(whereClauses, fmt.Sprintf("b.available = $%d", argID))
		queryArgs = append(queryArgs, *params.Available)
		argID++
	}
	if params.PublishedFrom != nil {
		whereClauses = append(whereClauses, fmt.Sprintf("b.publication_date >= $%d", argID))
		queryArgs = append(queryArgs, *params.PublishedFrom)
		argID++
	}
	if params.PublishedTo != nil {
		whereClauses = append(whereClauses, fmt.Sprintf("b.publication_date <= $%d", argID))
		queryArgs = append(queryArgs, *params.PublishedTo)
	}

	whereCondition := ""
	if len(whereClauses) > 0 {
		whereCondition = " WHERE " + strings.Join(whereClauses, " AND ")
	}

	query := "SELECT " + bookColumns + " FROM catalog.books b JOIN catalog.authors a ON a.id = b.author_id" + whereCondition
	rows, err := s.db.QueryContext(ctx, query, queryArgs...)
	if err != nil {
		return nil, classifyError("ListBooks", err)
	}
	defer rows.Close()

	books := []domain.Book{}
	for rows.Next() {
		var b domain.Book
		if err := scanBook(rows, &b); err != nil {
			return nil, classifyError("ListBooks scan", err)
		}
		books = append(books, b)
	}
	if err := rows.Err(); err != nil {
		return nil, classifyError("ListBooks iteration", err)
	}
	if len(books) == 0 {
		return books, nil
	}

	ids := make([]uuid.UUID, len(books))
	for i := range books {
		ids[i] = books[i].ID
	}
	coAuthors, err := loadCoAuthors(ctx, s.db, ids)
	if err != nil {
		return nil, err
	}
	for i := range books {
		books[i].CoAuthorIDs = coAuthorsOf(coAuthors, books[i].ID)
	}
	return books, nil
}

// UpdateBook replaces every editable field and the co-author set. The id is
// taken from book.ID and never changes.
func (s *PostgresStore) UpdateBook(ctx context.Context, book *domain.Book) (*domain.Book, error) {
	b := *book
	if b.CoAuthorIDs == nil {
		b.CoAuthorIDs = []int64{}
	}
	if b.Slug == "" {
		b.Slug = domain.SlugifyMax(b.Title, domain.BookSlugMaxLength)
	}
	if err := domain.ValidateBook(&b); err != nil {
		return nil, err
	}

	var updated *domain.Book
	err := s.withTx(ctx, "UpdateBook", func(tx *sql.Tx) error {
		var locked int
		err := tx.QueryRowContext(ctx, `SELECT 1 FROM catalog.books WHERE id = $1 FOR UPDATE;`, b.ID).Scan(&locked)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrBookNotFound
			}
			return classifyError("UpdateBook lock", err)
		}
		if err := checkBookConstraints(ctx, tx, &b); err != nil {
			return err
		}

		query := `
			UPDATE catalog.books
			SET title = $1, slug = $2, description = $3, publication_date = $4, cover_image = $5,
				available = $6, price = $7, author_id = $8, isbn = $9, pdf_file = $10
			WHERE id = $11;
		`
		_, err = tx.ExecContext(ctx, query,
			b.Title, b.Slug, b.Description, b.PublicationDate, nullableString(b.CoverImage),
			b.Available, b.Price, b.AuthorID, strings.TrimSpace(b.ISBN), nullableString(b.PDFFile), b.ID,
		)
		if err != nil {
			return classifyError("UpdateBook", err)
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM catalog.book_co_authors WHERE book_id = $1;`, b.ID); err != nil {
			return classifyError("UpdateBook unlink", err)
		}
		if err := insertCoAuthors(ctx, tx, b.ID, b.CoAuthorIDs); err != nil {
			return err
		}

		updated, err = getBook(ctx, tx, b.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *PostgresStore) DeleteBook(ctx context.Context, id uuid.UUID) error {
	return s.withTx(ctx, "DeleteBook", func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM catalog.book_co_authors WHERE book_id = $1;`, id); err != nil {
			return classifyError("DeleteBook unlink", err)
		}
		result, err := tx.ExecContext(ctx, `DELETE FROM catalog.books WHERE id = $1;`, id)
		if err != nil {
			return classifyError("DeleteBook", err)
		}
		rowsAffected, err := result.RowsAffected()
		if err != nil {
			return classifyError("DeleteBook rows affected", err)
		}
		if rowsAffected == 0 {
			return ErrBookNotFound
		}
		return nil
	})
}

// RemoveCoAuthor drops a single co-author link; the book and the author are untouched.
func (s *PostgresStore) RemoveCoAuthor(ctx context.Context, bookID uuid.UUID, authorID int64) error {
	query := `DELETE FROM catalog.book_co_authors WHERE book_id = $1 AND author_id = $2;`
	result, err := s.db.ExecContext(ctx, query, bookID, authorID)
	if err != nil {
		return classifyError("RemoveCoAuthor", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return classifyError("RemoveCoAuthor rows affected", err)
	}
	if rowsAffected == 0 {
		return ErrCoAuthorNotLinked
	}
	return nil
}

// checkBookConstraints reports slug/isbn collisions with other books and
// references to missing authors as a single ValidationError.
func checkBookConstraints(ctx context.Context, tx *sql.Tx, b *domain.Book) error {
	verr := domain.NewValidationError("book")

	uniqueQuery := `
		SELECT
			EXISTS(SELECT 1 FROM catalog.books WHERE slug = $1 AND id <> $3),
			EXISTS(SELECT 1 FROM catalog.books WHERE isbn = $2 AND id <> $3);
	`
	var slugTaken, isbnTaken bool
	if err := tx.QueryRowContext(ctx, uniqueQuery, b.Slug, strings.TrimSpace(b.ISBN), b.ID).Scan(&slugTaken, &isbnTaken); err != nil {
		return classifyError("check book uniqueness", err)
	}
	if slugTaken {
		verr.Add("slug", "a book with this slug already exists")
	}
	if isbnTaken {
		verr.Add("isbn", "a book with this isbn already exists")
	}

	ids := b.ReferencedAuthorIDs()
	rows, err := tx.QueryContext(ctx, `SELECT id FROM catalog.authors WHERE id = ANY($1);`, pq.Array(ids))
	if err != nil {
		return classifyError("check book authors", err)
	}
	defer rows.Close()

	found := make(map[int64]bool, len(ids))
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return classifyError("check book authors scan", err)
		}
		found[id] = true
	}
	if err := rows.Err(); err != nil {
		return classifyError("check book authors iteration", err)
	}

	if !found[b.AuthorID] {
		verr.Add("author_id", fmt.Sprintf("author %d does not exist", b.AuthorID))
	}
	for _, id := range b.CoAuthorIDs {
		if !found[id] {
			verr.Add("co_author_ids", fmt.Sprintf("author %d does not exist", id))
		}
	}
	return verr.Err()
}

func insertCoAuthors(ctx context.Context, tx *sql.Tx, bookID uuid.UUID, authorIDs []int64) error {
	if len(authorIDs) == 0 {
		return nil
	}
	query := `
		INSERT INTO catalog.book_co_authors (book_id, author_id)
		SELECT $1, unnest($2::bigint[]);
	`
	if _, err := tx.ExecContext(ctx, query, bookID, pq.Array(authorIDs)); err != nil {
		return classifyError("insert co-authors", err)
	}
	return nil
}

// loadCoAuthors returns the co-author ids of each of the given books.
func loadCoAuthors(ctx context.Context, q queryer, bookIDs []uuid.UUID) (map[uuid.UUID][]int64, error) {
	ids := make([]string, len(bookIDs))
	for i, id := range bookIDs {
		ids[i] = id.String()
	}

	query := `
		SELECT book_id, author_id
		FROM catalog.book_co_authors
		WHERE book_id = ANY($1::uuid[])
		ORDER BY author_id ASC;
	`
	rows, err := q.QueryContext(ctx, query, pq.Array(ids))
	if err != nil {
		return nil, classifyError("load co-authors", err)
	}
	defer rows.Close()

	coAuthors := make(map[uuid.UUID][]int64)
	for rows.Next() {
		var bookID uuid.UUID
		var authorID int64
		if err := rows.Scan(&bookID, &authorID); err != nil {
			return nil, classifyError("load co-authors scan", err)
		}
		coAuthors[bookID] = append(coAuthors[bookID], authorID)
	}
	if err := rows.Err(); err != nil {
		return nil, classifyError("load co-authors iteration", err)
	}
	return coAuthors, nil
}

func coAuthorsOf(coAuthors map[uuid.UUID][]int64, bookID uuid.UUID) []int64 {
	if ids, ok := coAuthors[bookID]; ok {
		return ids
	}
	return []int64{}
}
