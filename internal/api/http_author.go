package api

import (
	"net/http"
	"strings"

	"library-catalog-service/internal/domain"
)

// AuthorInput defines the expected input for creating or replacing an author.
type AuthorInput struct {
	Name      string  `json:"name" validate:"required,max=100"`
	Biography string  `json:"biography"`
	BirthDate *string `json:"birth_date" validate:"omitempty,datetime=2006-01-02"`
	Email     *string `json:"email" validate:"omitempty,email,max=254"`
}

// normalize treats a blank email as no email.
func (in *AuthorInput) normalize() {
	if in.Email != nil && strings.TrimSpace(*in.Email) == "" {
		in.Email = nil
	}
}

func (in AuthorInput) toDomain(id int64) *domain.Author {
	return &domain.Author{
		ID:        id,
		Name:      in.Name,
		Biography: in.Biography,
		BirthDate: parseDate(in.BirthDate),
		Email:     in.Email,
	}
}

func (h *HTTPHandler) CreateAuthor(w http.ResponseWriter, r *http.Request) {
	var input AuthorInput
	if !h.decodeAndValidate(w, r, &input) {
		return
	}

	created, err := h.authorStore.CreateAuthor(r.Context(), input.toDomain(0))
	if err != nil {
		h.respondWithStoreError(w, "CreateAuthor", err)
		return
	}
	respondWithJSON(w, http.StatusCreated, created)
}

func (h *HTTPHandler) ListAuthors(w http.ResponseWriter, r *http.Request) {
	authors, err := h.authorStore.ListAuthors(r.Context())
	if err != nil {
		h.respondWithStoreError(w, "ListAuthors", err)
		return
	}
	if authors == nil {
		authors = []domain.Author{}
	}
	respondWithJSON(w, http.StatusOK, authors)
}

func (h *HTTPHandler) GetAuthorByID(w http.ResponseWriter, r *http.Request) {
	authorID, ok := parseInt64Param(r, "authorId")
	if !ok {
		respondWithError(w, http.StatusBadRequest, "Invalid author ID format")
		return
	}

	author, err := h.authorStore.GetAuthorByID(r.Context(), authorID)
	if err != nil {
		h.respondWithStoreError(w, "GetAuthorByID", err)
		return
	}
	respondWithJSON(w, http.StatusOK, author)
}

func (h *HTTPHandler) UpdateAuthor(w http.ResponseWriter, r *http.Request) {
	authorID, ok := parseInt64Param(r, "authorId")
	if !ok {
		respondWithError(w, http.StatusBadRequest, "Invalid author ID format")
		return
	}

	var input AuthorInput
	if !h.decodeAndValidate(w, r, &input) {
		return
	}

	updated, err := h.authorStore.UpdateAuthor(r.Context(), input.toDomain(authorID))
	if err != nil {
		h.respondWithStoreError(w, "UpdateAuthor", err)
		return
	}
	respondWithJSON(w, http.StatusOK, updated)
}

// DeleteAuthor also deletes the books the author wrote as primary author.
func (h *HTTPHandler) DeleteAuthor(w http.ResponseWriter, r *http.Request) {
	authorID, ok := parseInt64Param(r, "authorId")
	if !ok {
		respondWithError(w, http.StatusBadRequest, "Invalid author ID format")
		return
	}

	deletedBooks, err := h.authorStore.DeleteAuthor(r.Context(), authorID)
	if err != nil {
		h.respondWithStoreError(w, "DeleteAuthor", err)
		return
	}
	h.log.Info().Int64("author_id", authorID).Int64("deleted_books", deletedBooks).Msg("Author deleted")
	respondWithJSON(w, http.StatusNoContent, nil)
}
