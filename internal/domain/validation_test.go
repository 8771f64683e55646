package domain

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func PtrTo[T any](v T) *T {
	return &v
}

func validBook() *Book {
	return &Book{
		Title:       "Les Misérables",
		Slug:        "les-miserables",
		ISBN:        "978-2-07-040850-4",
		Price:       decimal.RequireFromString("12.50"),
		AuthorID:    1,
		CoAuthorIDs: []int64{2, 3},
		Available:   true,
		CoverImage:  PtrTo("couvertures/miserables.jpg"),
		PDFFile:     PtrTo("livres/pdf/miserables.pdf"),
	}
}

func validProduct() *Product {
	return &Product{
		ID:          uuid.New(),
		Name:        "Phone X",
		Slug:        "phone-x",
		Category:    CategoryElectronics,
		IsAvailable: true,
		Stock:       3,
		Price:       decimal.RequireFromString("99999999.99"),
		Image:       PtrTo("products/phone.png"),
	}
}

func fieldsOf(t *testing.T, err error) []string {
	t.Helper()
	var verr *ValidationError
	require.True(t, errors.As(err, &verr), "expected *ValidationError, got %v", err)
	fields := make([]string, 0, len(verr.Fields))
	for _, f := range verr.Fields {
		fields = append(fields, f.Field)
	}
	return fields
}

func TestValidateAuthor(t *testing.T) {
	tests := []struct {
		name       string
		author     Author
		wantFields []string
	}{
		{name: "minimal", author: Author{Name: "Victor Hugo"}},
		{name: "empty email treated as absent", author: Author{Name: "Victor Hugo", Email: PtrTo("")}},
		{name: "valid email", author: Author{Name: "Victor Hugo", Email: PtrTo("victor@hugo.fr")}},
		{name: "missing name", author: Author{Name: "  "}, wantFields: []string{"name"}},
		{name: "name too long", author: Author{Name: strings.Repeat("a", 101)}, wantFields: []string{"name"}},
		{name: "bad email", author: Author{Name: "V", Email: PtrTo("not-an-email")}, wantFields: []string{"email"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateAuthor(&tt.author)
			if tt.wantFields == nil {
				assert.NoError(t, err)
				return
			}
			assert.Equal(t, tt.wantFields, fieldsOf(t, err))
		})
	}
}

func TestValidateBook_Valid(t *testing.T) {
	assert.NoError(t, ValidateBook(validBook()))
}

func TestValidateBook_Violations(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(b *Book)
		field  string
	}{
		{"missing title", func(b *Book) { b.Title = "" }, "title"},
		{"title too long", func(b *Book) { b.Title = strings.Repeat("t", 201) }, "title"},
		{"slug with spaces", func(b *Book) { b.Slug = "les miserables" }, "slug"},
		{"slug too long", func(b *Book) { b.Slug = strings.Repeat("s", 51) }, "slug"},
		{"missing isbn", func(b *Book) { b.ISBN = " " }, "isbn"},
		{"isbn too long", func(b *Book) { b.ISBN = strings.Repeat("9", 21) }, "isbn"},
		{"negative price", func(b *Book) { b.Price = decimal.RequireFromString("-0.01") }, "price"},
		{"three decimals", func(b *Book) { b.Price = decimal.RequireFromString("1.005") }, "price"},
		{"too many digits", func(b *Book) { b.Price = decimal.RequireFromString("123456.00") }, "price"},
		{"missing author", func(b *Book) { b.AuthorID = 0 }, "author_id"},
		{"duplicate co-author", func(b *Book) { b.CoAuthorIDs = []int64{2, 2} }, "co_author_ids"},
		{"cover outside upload dir", func(b *Book) { b.CoverImage = PtrTo("/etc/passwd") }, "cover_image"},
		{"pdf path traversal", func(b *Book) { b.PDFFile = PtrTo("livres/pdf/../../x.pdf") }, "pdf_file"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := validBook()
			tt.mutate(b)
			assert.Equal(t, []string{tt.field}, fieldsOf(t, ValidateBook(b)))
		})
	}
}

func TestValidateBook_PriceBoundaries(t *testing.T) {
	b := validBook()
	b.Price = decimal.RequireFromString("99999.99")
	assert.NoError(t, ValidateBook(b))

	b.Price = decimal.Zero
	assert.NoError(t, ValidateBook(b))
}

func TestValidateProduct_Valid(t *testing.T) {
	assert.NoError(t, ValidateProduct(validProduct()))
}

func TestValidateProduct_Violations(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(p *Product)
		field  string
	}{
		{"missing name", func(p *Product) { p.Name = "" }, "name"},
		{"name too long", func(p *Product) { p.Name = strings.Repeat("n", 201) }, "name"},
		{"invalid slug", func(p *Product) { p.Slug = "phone/x" }, "slug"},
		{"unknown category", func(p *Product) { p.Category = "TOYS" }, "category"},
		{"negative stock", func(p *Product) { p.Stock = -1 }, "stock"},
		{"price too large", func(p *Product) { p.Price = decimal.RequireFromString("100000000.00") }, "price"},
		{"price precision", func(p *Product) { p.Price = decimal.RequireFromString("1.999") }, "price"},
		{"image outside upload dir", func(p *Product) { p.Image = PtrTo("images/p.png") }, "image"},
		{"own parent", func(p *Product) { p.ParentProductID = PtrTo(p.ID) }, "parent_product_id"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := validProduct()
			tt.mutate(p)
			assert.Equal(t, []string{tt.field}, fieldsOf(t, ValidateProduct(p)))
		})
	}
}

func TestValidateProduct_CollectsAllFields(t *testing.T) {
	p := validProduct()
	p.Name = ""
	p.Stock = -5
	p.Category = "X"

	err := ValidateProduct(p)
	assert.Equal(t, []string{"name", "category", "stock"}, fieldsOf(t, err))
	assert.Contains(t, err.Error(), "validation failed for product")
	assert.Contains(t, err.Error(), "stock: must be greater than or equal to 0")
}

func TestValidationError_ErrNilWhenEmpty(t *testing.T) {
	verr := NewValidationError("book")
	assert.NoError(t, verr.Err())
	verr.Add("isbn", "already exists")
	assert.True(t, verr.Has("isbn"))
	assert.False(t, verr.Has("slug"))
	assert.Error(t, verr.Err())
}
