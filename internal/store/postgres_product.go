package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"library-catalog-service/internal/domain"
)

const productColumns = `id, name, slug, description, category, is_available, stock, price,
		release_date, created_at, updated_at, image, parent_product_id`

var productSearchColumns = map[string]string{
	"name":        "name",
	"description": "description",
}

func scanProduct(row rowScanner, p *domain.Product) error {
	return row.Scan(
		&p.ID, &p.Name, &p.Slug, &p.Description, &p.Category, &p.IsAvailable, &p.Stock, &p.Price,
		&p.ReleaseDate, &p.CreatedAt, &p.UpdatedAt, &p.Image, &p.ParentProductID,
	)
}

// CreateProduct validates the product, checks name/slug/(name, category)
// uniqueness and the parent reference, then inserts it. The id and both
// timestamps are assigned here.
func (s *PostgresStore) CreateProduct(ctx context.Context, product *domain.Product) (*domain.Product, error) {
	p := *product
	p.PrepareForCreate()
	if err := domain.ValidateProduct(&p); err != nil {
		return nil, err
	}

	var created domain.Product
	err := s.withTx(ctx, "CreateProduct", func(tx *sql.Tx) error {
		if err := checkProductConstraints(ctx, tx, &p); err != nil {
			return err
		}

		query := `
			INSERT INTO catalog.products
				(id, name, slug, description, category, is_available, stock, price, release_date, image, parent_product_id,
				 created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
			RETURNING ` + productColumns + `;
		`
		row := tx.QueryRowContext(ctx, query,
			p.ID, p.Name, p.Slug, p.Description, p.Category, p.IsAvailable, p.Stock, p.Price,
			p.ReleaseDate, nullableString(p.Image), p.ParentProductID,
		)
		if err := scanProduct(row, &created); err != nil {
			return classifyError("CreateProduct", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &created, nil
}

func (s *PostgresStore) GetProductByID(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	query := `
		SELECT ` + productColumns + `
		FROM catalog.products
		WHERE id = $1;
	`
	var product domain.Product
	if err := scanProduct(s.db.QueryRowContext(ctx, query, id), &product); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrProductNotFound
		}
		return nil, classifyError("GetProductByID", err)
	}
	return &product, nil
}

// ListProducts returns the products matching params ordered by name. With
// zero params it returns the whole collection.
func (s *PostgresStore) ListProducts(ctx context.Context, params ListProductsParams) ([]domain.Product, error) {
	var queryArgs []any
	var whereClauses []string
	argID := 1

	if params.SearchQuery != nil && *params.SearchQuery != "" {
		whereClauses = append(whereClauses, searchClause(domain.ProductAdmin.List.Search, productSearchColumns, argID))
		queryArgs = append(queryArgs, "%"+*params.SearchQuery+"%")
		argID++
	}
	if params.IsAvailable != nil {
		whereClauses = append(whereClauses, fmt.Sprintf("is_available = $%d", argID))
		queryArgs = append(queryArgs, *params.IsAvailable)
		argID++
	}
	if params.Category != nil {
		whereClauses = append(whereClauses, fmt.Sprintf("category = $%d", argID))
		queryArgs = append(queryArgs, *params.Category)
		argID++
	}
	if params.ParentID != nil {
		whereClauses = append(whereClauses, fmt.Sprintf("parent_product_id = $%d", argID))
		queryArgs = append(queryArgs, *params.ParentID)
	}

	whereCondition := ""
	if len(whereClauses) > 0 {
		whereCondition = " WHERE " + strings.Join(whereClauses, " AND ")
	}

	query := "SELECT " + productColumns + " FROM catalog.products" + whereCondition + " ORDER BY name ASC"
	rows, err := s.db.QueryContext(ctx, query, queryArgs...)
	if err != nil {
		return nil, classifyError("ListProducts", err)
	}
	defer rows.Close()

	products := []domain.Product{}
	for rows.Next() {
		var p domain.Product
		if err := scanProduct(rows, &p); err != nil {
			return nil, classifyError("ListProducts scan", err)
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, classifyError("ListProducts iteration", err)
	}
	return products, nil
}

// UpdateProduct replaces every editable field. created_at is never written;
// updated_at always moves forward, even when two updates share a clock tick.
func (s *PostgresStore) UpdateProduct(ctx context.Context, product *domain.Product) (*domain.Product, error) {
	p := *product
	p.ApplyDefaults()
	if err := domain.ValidateProduct(&p); err != nil {
		return nil, err
	}

	var updated domain.Product
	err := s.withTx(ctx, "UpdateProduct", func(tx *sql.Tx) error {
		var locked int
		err := tx.QueryRowContext(ctx, `SELECT 1 FROM catalog.products WHERE id = $1 FOR UPDATE;`, p.ID).Scan(&locked)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrProductNotFound
			}
			return classifyError("UpdateProduct lock", err)
		}
		if err := checkProductConstraints(ctx, tx, &p); err != nil {
			return err
		}

		query := `
			UPDATE catalog.products
			SET name = $1, slug = $2, description = $3, category = $4, is_available = $5, stock = $6,
				price = $7, release_date = $8, image = $9, parent_product_id = $10,
				updated_at = GREATEST(CURRENT_TIMESTAMP, updated_at + INTERVAL '1 microsecond')
			WHERE id = $11
			RETURNING ` + productColumns + `;
		`
		row := tx.QueryRowContext(ctx, query,
			p.Name, p.Slug, p.Description, p.Category, p.IsAvailable, p.Stock,
			p.Price, p.ReleaseDate, nullableString(p.Image), p.ParentProductID, p.ID,
		)
		if err := scanProduct(row, &updated); err != nil {
			return classifyError("UpdateProduct", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

// DeleteProduct clears the parent reference of the product's variations and
// removes the product, in one transaction.
func (s *PostgresStore) DeleteProduct(ctx context.Context, id uuid.UUID) (int64, error) {
	var detached int64
	err := s.withTx(ctx, "DeleteProduct", func(tx *sql.Tx) error {
		detachQuery := `
			UPDATE catalog.products
			SET parent_product_id = NULL,
				updated_at = GREATEST(CURRENT_TIMESTAMP, updated_at + INTERVAL '1 microsecond')
			WHERE parent_product_id = $1;
		`
		result, err := tx.ExecContext(ctx, detachQuery, id)
		if err != nil {
			return classifyError("DeleteProduct detach", err)
		}
		if detached, err = result.RowsAffected(); err != nil {
			return classifyError("DeleteProduct detach rows affected", err)
		}

		result, err = tx.ExecContext(ctx, `DELETE FROM catalog.products WHERE id = $1;`, id)
		if err != nil {
			return classifyError("DeleteProduct", err)
		}
		rowsAffected, err := result.RowsAffected()
		if err != nil {
			return classifyError("DeleteProduct rows affected", err)
		}
		if rowsAffected == 0 {
			return ErrProductNotFound
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return detached, nil
}

// productParentLockKey is the advisory lock held while a parent link is checked and written.
const productParentLockKey int64 = 0x70726f64

// checkProductConstraints reports name/slug/(name, category) collisions with
// other products, a missing parent, and a parent chain that would loop back
// to the product, as a single ValidationError.
func checkProductConstraints(ctx context.Context, tx *sql.Tx, p *domain.Product) error {
	verr := domain.NewValidationError("product")

	uniqueQuery := `
		SELECT
			EXISTS(SELECT 1 FROM catalog.products WHERE name = $1 AND id <> $3),
			EXISTS(SELECT 1 FROM catalog.products WHERE slug = $2 AND id <> $3),
			EXISTS(SELECT 1 FROM catalog.products WHERE name = $1 AND category = $4 AND id <> $3);
	`
	var nameTaken, slugTaken, pairTaken bool
	err := tx.QueryRowContext(ctx, uniqueQuery, p.Name, p.Slug, p.ID, p.Category).Scan(&nameTaken, &slugTaken, &pairTaken)
	if err != nil {
		return classifyError("check product uniqueness", err)
	}
	if nameTaken {
		verr.Add("name", "a product with this name already exists")
	}
	if slugTaken {
		verr.Add("slug", "a product with this slug already exists")
	}
	if pairTaken {
		verr.Add("category", "a product with this name and category already exists")
	}

	if p.ParentProductID != nil {
		// Parent changes are serialized so two writers cannot each close half of a loop.
		if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1);`, productParentLockKey); err != nil {
			return classifyError("lock product parents", err)
		}
		// UNION (not UNION ALL) makes the walk terminate even on corrupt data.
		ancestryQuery := `
			WITH RECURSIVE ancestors (id, parent_product_id) AS (
				SELECT id, parent_product_id FROM catalog.products WHERE id = $1
				UNION
				SELECT p.id, p.parent_product_id
				FROM catalog.products p
				JOIN ancestors a ON p.id = a.parent_product_id
			)
			SELECT EXISTS(SELECT 1 FROM ancestors), EXISTS(SELECT 1 FROM ancestors WHERE id = $2);
		`
		var parentExists, cycle bool
		if err := tx.QueryRowContext(ctx, ancestryQuery, *p.ParentProductID, p.ID).Scan(&parentExists, &cycle); err != nil {
			return classifyError("check product ancestry", err)
		}
		switch {
		case !parentExists:
			verr.Add("parent_product_id", fmt.Sprintf("product %s does not exist", p.ParentProductID))
		case cycle:
			verr.Add("parent_product_id", "a product cannot be its own ancestor")
		}
	}
	return verr.Err()
}
