package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Field limits mirrored by the catalog.authors / catalog.books columns.
const (
	AuthorNameMaxLength = 100
	EmailMaxLength      = 254

	BookTitleMaxLength = 200
	BookSlugMaxLength  = 50
	ISBNMaxLength      = 20
	FilePathMaxLength  = 100

	BookPriceMaxDigits     = 7
	BookPriceDecimalPlaces = 2

	CoverUploadDir = "couvertures/"
	PDFUploadDir   = "livres/pdf/"
)

// Author writes books, either as primary author or as co-author.
// Deleting an author deletes the books it is the primary author of.
type Author struct {
	ID        int64      `json:"id"`
	Name      string     `json:"name"`
	Biography string     `json:"biography"`
	BirthDate *time.Time `json:"birth_date,omitempty"`
	Email     *string    `json:"email,omitempty"`
}

func (a Author) String() string { return a.Name }

// Book is a catalog entry with one required primary author and any number of co-authors.
type Book struct {
	ID              uuid.UUID       `json:"id"`
	Title           string          `json:"title"`
	Slug            string          `json:"slug"`
	Description     string          `json:"description"`
	PublicationDate *time.Time      `json:"publication_date,omitempty"`
	CoverImage      *string         `json:"cover_image,omitempty"` // path under CoverUploadDir
	Available       bool            `json:"available"`
	Price           decimal.Decimal `json:"price"`
	AuthorID        int64           `json:"author_id"`
	AuthorName      string          `json:"author_name,omitempty"` // read-only, filled on reads
	CoAuthorIDs     []int64         `json:"co_author_ids"`
	ISBN            string          `json:"isbn"`
	PDFFile         *string         `json:"pdf_file,omitempty"` // path under PDFUploadDir
}

func (b Book) String() string { return b.Title }

// PrepareForCreate assigns a fresh identifier and derives the slug from the
// title when none was given. The identifier is never changed afterwards.
func (b *Book) PrepareForCreate() {
	b.ID = uuid.New()
	if b.Slug == "" {
		b.Slug = SlugifyMax(b.Title, BookSlugMaxLength)
	}
	if b.CoAuthorIDs == nil {
		b.CoAuthorIDs = []int64{}
	}
}

// ReferencedAuthorIDs returns the primary author followed by the co-authors, without duplicates.
func (b *Book) ReferencedAuthorIDs() []int64 {
	seen := make(map[int64]bool, len(b.CoAuthorIDs)+1)
	ids := make([]int64, 0, len(b.CoAuthorIDs)+1)
	for _, id := range append([]int64{b.AuthorID}, b.CoAuthorIDs...) {
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	return ids
}
