package store

import (
	"context"
	"database/sql"
	"errors"

	"library-catalog-service/internal/domain"
)

func (s *PostgresStore) CreateAuthor(ctx context.Context, author *domain.Author) (*domain.Author, error) {
	if err := domain.ValidateAuthor(author); err != nil {
		return nil, err
	}

	query := `
		INSERT INTO catalog.authors (name, biography, birth_date, email)
		VALUES ($1, $2, $3, $4)
		RETURNING id, name, biography, birth_date, email;
	`
	var created domain.Author
	err := s.db.QueryRowContext(ctx, query, author.Name, author.Biography, author.BirthDate, nullableString(author.Email)).Scan(
		&created.ID, &created.Name, &created.Biography, &created.BirthDate, &created.Email,
	)
	if err != nil {
		return nil, classifyError("CreateAuthor", err)
	}
	return &created, nil
}

func (s *PostgresStore) GetAuthorByID(ctx context.Context, id int64) (*domain.Author, error) {
	query := `
		SELECT id, name, biography, birth_date, email
		FROM catalog.authors
		WHERE id = $1;
	`
	var author domain.Author
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&author.ID, &author.Name, &author.Biography, &author.BirthDate, &author.Email,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrAuthorNotFound
		}
		return nil, classifyError("GetAuthorByID", err)
	}
	return &author, nil
}

func (s *PostgresStore) ListAuthors(ctx context.Context) ([]domain.Author, error) {
	query := `
		SELECT id, name, biography, birth_date, email
		FROM catalog.authors
		ORDER BY name ASC, id ASC;
	`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, classifyError("ListAuthors", err)
	}
	defer rows.Close()

	authors := []domain.Author{}
	for rows.Next() {
		var a domain.Author
		if err := rows.Scan(&a.ID, &a.Name, &a.Biography, &a.BirthDate, &a.Email); err != nil {
			return nil, classifyError("ListAuthors scan", err)
		}
		authors = append(authors, a)
	}
	if err := rows.Err(); err != nil {
		return nil, classifyError("ListAuthors iteration", err)
	}
	return authors, nil
}

func (s *PostgresStore) UpdateAuthor(ctx context.Context, author *domain.Author) (*domain.Author, error) {
	if err := domain.ValidateAuthor(author); err != nil {
		return nil, err
	}

	query := `
		UPDATE catalog.authors
		SET name = $1, biography = $2, birth_date = $3, email = $4
		WHERE id = $5
		RETURNING id, name, biography, birth_date, email;
	`
	var updated domain.Author
	err := s.db.QueryRowContext(ctx, query, author.Name, author.Biography, author.BirthDate, nullableString(author.Email), author.ID).Scan(
		&updated.ID, &updated.Name, &updated.Biography, &updated.BirthDate, &updated.Email,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrAuthorNotFound
		}
		return nil, classifyError("UpdateAuthor", err)
	}
	return &updated, nil
}

// DeleteAuthor applies the cascade in the same transaction as the delete:
// co-author links of the author and of its books go first, then its books,
// then the author row itself.
func (s *PostgresStore) DeleteAuthor(ctx context.Context, id int64) (int64, error) {
	var deletedBooks int64
	err := s.withTx(ctx, "DeleteAuthor", func(tx *sql.Tx) error {
		unlinkQuery := `
			DELETE FROM catalog.book_co_authors
			WHERE author_id = $1
			   OR book_id IN (SELECT id FROM catalog.books WHERE author_id = $1);
		`
		if _, err := tx.ExecContext(ctx, unlinkQuery, id); err != nil {
			return classifyError("DeleteAuthor unlink", err)
		}

		result, err := tx.ExecContext(ctx, `DELETE FROM catalog.books WHERE author_id = $1;`, id)
		if err != nil {
			return classifyError("DeleteAuthor books", err)
		}
		if deletedBooks, err = result.RowsAffected(); err != nil {
			return classifyError("DeleteAuthor books rows affected", err)
		}

		result, err = tx.ExecContext(ctx, `DELETE FROM catalog.authors WHERE id = $1;`, id)
		if err != nil {
			return classifyError("DeleteAuthor", err)
		}
		rowsAffected, err := result.RowsAffected()
		if err != nil {
			return classifyError("DeleteAuthor rows affected", err)
		}
		if rowsAffected == 0 {
			return ErrAuthorNotFound
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return deletedBooks, nil
}

// nullableString maps both nil and "" to SQL NULL.
func nullableString(s *string) *string {
	if s == nil || *s == "" {
		return nil
	}
	return s
}
