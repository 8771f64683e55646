package api

import (
	"bytes"
	"embed"
	"errors"
	"html/template"
	"net/http"
	"time"

	"library-catalog-service/internal/domain"
	"library-catalog-service/internal/store"
)

//go:embed templates/*.html
var templateFS embed.FS

var pageFuncs = template.FuncMap{
	"formatDate": func(t *time.Time) string {
		if t == nil {
			return "-"
		}
		return t.Format(dateLayout)
	},
}

type booksPage struct {
	Books []domain.Book
}

// ListBooksPage renders every book as an HTML table. An empty catalog still
// renders the page, with a message instead of the table.
func (h *HTTPHandler) ListBooksPage(w http.ResponseWriter, r *http.Request) {
	books, err := h.bookStore.ListBooks(r.Context(), store.ListBooksParams{})
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, store.ErrStorageUnavailable) {
			status = http.StatusServiceUnavailable
		}
		h.log.Error().Err(err).Msg("Failed to list books for page")
		http.Error(w, http.StatusText(status), status)
		return
	}

	// Render into a buffer so a template failure never sends a partial page.
	var buf bytes.Buffer
	if err := h.pages.ExecuteTemplate(&buf, "books_list.html", booksPage{Books: books}); err != nil {
		h.log.Error().Err(err).Msg("Failed to render books page")
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}
