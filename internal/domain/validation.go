package domain

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// rule checks one field of T and returns a message when the constraint does not hold.
type rule[T any] struct {
	field string
	check func(T) string
}

func runRules[T any](entity string, v T, rules []rule[T]) error {
	verr := NewValidationError(entity)
	for _, r := range rules {
		if msg := r.check(v); msg != "" {
			verr.Add(r.field, msg)
		}
	}
	return verr.Err()
}

var fieldValidator = validator.New()

var authorRules = []rule[*Author]{
	{"name", func(a *Author) string { return checkRequiredString(a.Name, AuthorNameMaxLength) }},
	{"email", func(a *Author) string {
		if a.Email == nil || *a.Email == "" {
			return ""
		}
		return checkEmail(*a.Email)
	}},
}

var bookRules = []rule[*Book]{
	{"title", func(b *Book) string { return checkRequiredString(b.Title, BookTitleMaxLength) }},
	{"slug", func(b *Book) string { return checkSlug(b.Slug, BookSlugMaxLength) }},
	{"isbn", func(b *Book) string { return checkRequiredString(strings.TrimSpace(b.ISBN), ISBNMaxLength) }},
	{"price", func(b *Book) string {
		if b.Price.IsNegative() {
			return "must be greater than or equal to 0"
		}
		return checkDecimal(b.Price, BookPriceMaxDigits, BookPriceDecimalPlaces)
	}},
	{"author_id", func(b *Book) string {
		if b.AuthorID <= 0 {
			return "is required"
		}
		return ""
	}},
	{"co_author_ids", func(b *Book) string {
		seen := make(map[int64]bool, len(b.CoAuthorIDs))
		for _, id := range b.CoAuthorIDs {
			if id <= 0 {
				return fmt.Sprintf("invalid author id %d", id)
			}
			if seen[id] {
				return fmt.Sprintf("author %d listed more than once", id)
			}
			seen[id] = true
		}
		return ""
	}},
	{"cover_image", func(b *Book) string { return checkFilePath(b.CoverImage, CoverUploadDir) }},
	{"pdf_file", func(b *Book) string { return checkFilePath(b.PDFFile, PDFUploadDir) }},
}

var productRules = []rule[*Product]{
	{"name", func(p *Product) string { return checkRequiredString(p.Name, ProductNameMaxLength) }},
	{"slug", func(p *Product) string { return checkSlug(p.Slug, ProductSlugMaxLength) }},
	{"category", func(p *Product) string {
		if !p.Category.Valid() {
			return fmt.Sprintf("%q is not a valid choice", p.Category)
		}
		return ""
	}},
	{"stock", func(p *Product) string {
		if p.Stock < 0 {
			return "must be greater than or equal to 0"
		}
		return ""
	}},
	{"price", func(p *Product) string {
		return checkDecimal(p.Price, ProductPriceMaxDigits, ProductPriceDecimalPlaces)
	}},
	{"image", func(p *Product) string { return checkFilePath(p.Image, ProductImageUploadDir) }},
	{"parent_product_id", func(p *Product) string {
		if p.ParentProductID != nil && *p.ParentProductID == p.ID {
			return "a product cannot be its own parent"
		}
		return ""
	}},
}

// ValidateAuthor checks the field-level constraints of an author.
func ValidateAuthor(a *Author) error { return runRules("author", a, authorRules) }

// ValidateBook checks the field-level constraints of a book.
// Uniqueness of slug and isbn is checked by the store.
func ValidateBook(b *Book) error { return runRules("book", b, bookRules) }

// ValidateProduct checks the field-level constraints of a product.
// Uniqueness and ancestry are checked by the store.
func ValidateProduct(p *Product) error { return runRules("product", p, productRules) }

func checkRequiredString(s string, maxLen int) string {
	if strings.TrimSpace(s) == "" {
		return "is required"
	}
	return checkMaxLength(s, maxLen)
}

func checkMaxLength(s string, maxLen int) string {
	if n := utf8.RuneCountInString(s); n > maxLen {
		return fmt.Sprintf("must be at most %d characters (got %d)", maxLen, n)
	}
	return ""
}

func checkSlug(s string, maxLen int) string {
	if s == "" {
		return "is required"
	}
	if !IsValidSlug(s) {
		return "must contain only letters, numbers, underscores or hyphens"
	}
	return checkMaxLength(s, maxLen)
}

func checkEmail(email string) string {
	if err := fieldValidator.Var(email, fmt.Sprintf("email,max=%d", EmailMaxLength)); err != nil {
		return "must be a valid email address"
	}
	return ""
}

// checkDecimal enforces a numeric(maxDigits, places) column: at most places
// fractional digits and maxDigits-places digits before the point.
func checkDecimal(d decimal.Decimal, maxDigits, places int32) string {
	if !d.Equal(d.Truncate(places)) {
		return fmt.Sprintf("must have at most %d decimal places", places)
	}
	whole := d.Abs().Truncate(0)
	if len(whole.String()) > int(maxDigits-places) {
		return fmt.Sprintf("must have at most %d digits before the decimal point", maxDigits-places)
	}
	return ""
}

func checkFilePath(path *string, dir string) string {
	if path == nil || *path == "" {
		return ""
	}
	p := *path
	if !strings.HasPrefix(p, dir) || len(p) == len(dir) {
		return fmt.Sprintf("must be a file under %s", dir)
	}
	if strings.Contains(p, "..") {
		return "must not contain '..'"
	}
	return checkMaxLength(p, FilePathMaxLength)
}
