package api

import (
	"errors"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"library-catalog-service/internal/domain"
	"library-catalog-service/internal/store"
)

func getPage(t *testing.T, url string) (*http.Response, string) {
	t.Helper()
	res, err := http.Get(url)
	require.NoError(t, err)
	defer res.Body.Close()
	body, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	return res, string(body)
}

func TestHTTPHandler_ListBooksPage(t *testing.T) {
	t.Run("lists every book", func(t *testing.T) {
		server, stores := setupTestChiServer(t)

		published := time.Date(1943, time.April, 6, 0, 0, 0, 0, time.UTC)
		stores.books.On("ListBooks", mock.Anything, store.ListBooksParams{}).Return([]domain.Book{
			{ID: uuid.New(), Title: "Le Petit Prince", AuthorName: "Antoine de Saint-Exupéry", PublicationDate: &published, Available: true},
			{ID: uuid.New(), Title: "<script>", AuthorName: "X", Available: false},
		}, nil).Once()

		res, body := getPage(t, server.URL+"/livres/")

		require.Equal(t, http.StatusOK, res.StatusCode)
		assert.Equal(t, "text/html; charset=utf-8", res.Header.Get("Content-Type"))
		assert.Contains(t, body, "Le Petit Prince")
		assert.Contains(t, body, "Antoine de Saint-Exupéry")
		assert.Contains(t, body, "1943-04-06")
		assert.Contains(t, body, "&lt;script&gt;", "titles are escaped")
		assert.NotContains(t, body, "Aucun livre")
		stores.assertExpectations(t)
	})

	t.Run("empty catalog", func(t *testing.T) {
		server, stores := setupTestChiServer(t)
		stores.books.On("ListBooks", mock.Anything, store.ListBooksParams{}).Return([]domain.Book{}, nil).Once()

		res, body := getPage(t, server.URL+"/livres/")

		assert.Equal(t, http.StatusOK, res.StatusCode)
		assert.Contains(t, body, "Aucun livre disponible.")
		assert.NotContains(t, body, "<table>")
		stores.assertExpectations(t)
	})

	t.Run("storage unavailable", func(t *testing.T) {
		server, stores := setupTestChiServer(t)
		stores.books.On("ListBooks", mock.Anything, store.ListBooksParams{}).
			Return(nil, errors.Join(store.ErrStorageUnavailable, errors.New("dial tcp"))).Once()

		res, _ := getPage(t, server.URL+"/livres/")
		assert.Equal(t, http.StatusServiceUnavailable, res.StatusCode)
		stores.assertExpectations(t)
	})

	t.Run("storage failure", func(t *testing.T) {
		server, stores := setupTestChiServer(t)
		stores.books.On("ListBooks", mock.Anything, store.ListBooksParams{}).Return(nil, errors.New("boom")).Once()

		res, _ := getPage(t, server.URL+"/livres/")
		assert.Equal(t, http.StatusInternalServerError, res.StatusCode)
		stores.assertExpectations(t)
	})
}
