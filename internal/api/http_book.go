package api

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"library-catalog-service/internal/domain"
	"library-catalog-service/internal/store"
)

// BookInput defines the expected input for creating or replacing a book.
// An empty slug is derived from the title and a missing price is 0.00.
type BookInput struct {
	Title           string           `json:"title" validate:"required,max=200"`
	Slug            string           `json:"slug" validate:"omitempty,max=50"`
	Description     string           `json:"description"`
	PublicationDate *string          `json:"publication_date" validate:"omitempty,datetime=2006-01-02"`
	CoverImage      *string          `json:"cover_image" validate:"omitempty,max=100"`
	Available       *bool            `json:"available"` // Pointer to distinguish between not set and false
	Price           *decimal.Decimal `json:"price"`
	AuthorID        int64            `json:"author_id" validate:"required,gt=0"`
	CoAuthorIDs     []int64          `json:"co_author_ids" validate:"omitempty,dive,gt=0"`
	ISBN            string           `json:"isbn" validate:"required,max=20"`
	PDFFile         *string          `json:"pdf_file" validate:"omitempty,max=100"`
}

func (in BookInput) toDomain(id uuid.UUID) *domain.Book {
	price := decimal.Zero
	if in.Price != nil {
		price = *in.Price
	}
	return &domain.Book{
		ID:              id,
		Title:           in.Title,
		Slug:            in.Slug,
		Description:     in.Description,
		PublicationDate: parseDate(in.PublicationDate),
		CoverImage:      in.CoverImage,
		Available:       boolOrDefault(in.Available, true),
		Price:           price,
		AuthorID:        in.AuthorID,
		CoAuthorIDs:     in.CoAuthorIDs,
		ISBN:            in.ISBN,
		PDFFile:         in.PDFFile,
	}
}

func (h *HTTPHandler) CreateBook(w http.ResponseWriter, r *http.Request) {
	var input BookInput
	if !h.decodeAndValidate(w, r, &input) {
		return
	}

	created, err := h.bookStore.CreateBook(r.Context(), input.toDomain(uuid.Nil))
	if err != nil {
		h.respondWithStoreError(w, "CreateBook", err)
		return
	}
	respondWithJSON(w, http.StatusCreated, created)
}

// ListBooks supports q (title, isbn or author name), available and a
// published_from / published_to date range.
func (h *HTTPHandler) ListBooks(w http.ResponseWriter, r *http.Request) {
	params, err := bookListParams(r)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	books, err := h.bookStore.ListBooks(r.Context(), params)
	if err != nil {
		h.respondWithStoreError(w, "ListBooks", err)
		return
	}
	if books == nil {
		books = []domain.Book{}
	}
	respondWithJSON(w, http.StatusOK, books)
}

func bookListParams(r *http.Request) (store.ListBooksParams, error) {
	var params store.ListBooksParams
	var err error

	if q := r.URL.Query().Get("q"); q != "" {
		params.SearchQuery = &q
	}
	if params.Available, err = queryBool(r, "available"); err != nil {
		return params, err
	}
	if params.PublishedFrom, err = queryDate(r, "published_from"); err != nil {
		return params, err
	}
	if params.PublishedTo, err = queryDate(r, "published_to"); err != nil {
		return params, err
	}
	return params, nil
}

func (h *HTTPHandler) GetBookByID(w http.ResponseWriter, r *http.Request) {
	bookID, ok := parseUUIDParam(r, "bookId")
	if !ok {
		respondWithError(w, http.StatusBadRequest, "Invalid book ID format")
		return
	}

	book, err := h.bookStore.GetBookByID(r.Context(), bookID)
	if err != nil {
		h.respondWithStoreError(w, "GetBookByID", err)
		return
	}
	respondWithJSON(w, http.StatusOK, book)
}

func (h *HTTPHandler) UpdateBook(w http.ResponseWriter, r *http.Request) {
	bookID, ok := parseUUIDParam(r, "bookId")
	if !ok {
		respondWithError(w, http.StatusBadRequest, "Invalid book ID format")
		return
	}

	var input BookInput
	if !h.decodeAndValidate(w, r, &input) {
		return
	}

	updated, err := h.bookStore.UpdateBook(r.Context(), input.toDomain(bookID))
	if err != nil {
		h.respondWithStoreError(w, "UpdateBook", err)
		return
	}
	respondWithJSON(w, http.StatusOK, updated)
}

func (h *HTTPHandler) DeleteBook(w http.ResponseWriter, r *http.Request) {
	bookID, ok := parseUUIDParam(r, "bookId")
	if !ok {
		respondWithError(w, http.StatusBadRequest, "Invalid book ID format")
		return
	}

	if err := h.bookStore.DeleteBook(r.Context(), bookID); err != nil {
		h.respondWithStoreError(w, "DeleteBook", err)
		return
	}
	respondWithJSON(w, http.StatusNoContent, nil)
}

func (h *HTTPHandler) RemoveCoAuthor(w http.ResponseWriter, r *http.Request) {
	bookID, ok := parseUUIDParam(r, "bookId")
	if !ok {
		respondWithError(w, http.StatusBadRequest, "Invalid book ID format")
		return
	}
	authorID, ok := parseInt64Param(r, "authorId")
	if !ok {
		respondWithError(w, http.StatusBadRequest, "Invalid author ID format")
		return
	}

	if err := h.bookStore.RemoveCoAuthor(r.Context(), bookID, authorID); err != nil {
		h.respondWithStoreError(w, "RemoveCoAuthor", err)
		return
	}
	respondWithJSON(w, http.StatusNoContent, nil)
}
