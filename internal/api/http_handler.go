package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"library-catalog-service/internal/domain"
	"library-catalog-service/internal/metrics"
	"library-catalog-service/internal/store"
)

const dateLayout = "2006-01-02"

// HTTPHandler holds dependencies for HTTP handlers.
type HTTPHandler struct {
	authorStore  store.AuthorStorer
	bookStore    store.BookStorer
	productStore store.ProductStorer
	validate     *validator.Validate
	log          zerolog.Logger
	pages        *template.Template
}

// NewHTTPHandler creates a new HTTPHandler with dependencies.
func NewHTTPHandler(as store.AuthorStorer, bs store.BookStorer, ps store.ProductStorer, log zerolog.Logger) *HTTPHandler {
	validate := validator.New()
	// Report validation failures under the JSON field names.
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	return &HTTPHandler{
		authorStore:  as,
		bookStore:    bs,
		productStore: ps,
		validate:     validate,
		log:          log.With().Str("component", "http").Logger(),
		pages:        template.Must(template.New("").Funcs(pageFuncs).ParseFS(templateFS, "templates/*.html")),
	}
}

// --- Helpers ---

// ErrorResponse defines the structure for JSON error responses.
type ErrorResponse struct {
	Error   string              `json:"error"`
	Details []domain.FieldError `json:"details,omitempty"`
}

func respondWithError(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, ErrorResponse{Error: message})
}

func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if payload != nil {
		if err := json.NewEncoder(w).Encode(payload); err != nil {
			http.Error(w, `{"error": "Internal server error during JSON encoding"}`, http.StatusInternalServerError)
		}
	}
}

// decodeAndValidate reads a JSON body into input and runs its validate tags.
// It writes the 400 response itself and returns false on failure.
func (h *HTTPHandler) decodeAndValidate(w http.ResponseWriter, r *http.Request, input interface{}) bool {
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(input); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request payload: "+err.Error())
		return false
	}
	if n, ok := input.(interface{ normalize() }); ok {
		n.normalize()
	}
	if err := h.validate.Struct(input); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			respondWithError(w, http.StatusBadRequest, "Validation failed: "+err.Error())
			return false
		}
		details := make([]domain.FieldError, 0, len(verrs))
		for _, fe := range verrs {
			details = append(details, domain.FieldError{Field: fe.Field(), Message: validationMessage(fe)})
		}
		respondWithJSON(w, http.StatusBadRequest, ErrorResponse{Error: "Validation failed", Details: details})
		return false
	}
	return true
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "max":
		return "must be at most " + fe.Param() + " characters"
	case "gt":
		return "must be greater than " + fe.Param()
	case "gte":
		return "must be greater than or equal to " + fe.Param()
	case "oneof":
		return "must be one of " + fe.Param()
	case "datetime":
		return "must be a date formatted as YYYY-MM-DD"
	case "email":
		return "must be a valid email address"
	}
	return fmt.Sprintf("failed on the '%s' rule", fe.Tag())
}

// respondWithStoreError maps the store error taxonomy onto HTTP statuses and
// counts the failure.
func (h *HTTPHandler) respondWithStoreError(w http.ResponseWriter, op string, err error) {
	var verr *domain.ValidationError
	var integrityErr *store.IntegrityError

	switch {
	case errors.As(err, &verr):
		metrics.DbErrors.WithLabelValues(op, "validation").Inc()
		h.log.Debug().Err(err).Str("op", op).Msg("Rejected invalid input")
		respondWithJSON(w, http.StatusBadRequest, ErrorResponse{Error: "Validation failed", Details: verr.Fields})
	case errors.Is(err, store.ErrAuthorNotFound), errors.Is(err, store.ErrBookNotFound),
		errors.Is(err, store.ErrProductNotFound), errors.Is(err, store.ErrCoAuthorNotLinked):
		metrics.DbErrors.WithLabelValues(op, "not_found").Inc()
		respondWithError(w, http.StatusNotFound, err.Error())
	case errors.As(err, &integrityErr):
		metrics.DbErrors.WithLabelValues(op, "integrity").Inc()
		h.log.Warn().Err(err).Str("op", op).Str("constraint", integrityErr.Constraint).Msg("Integrity constraint violated")
		respondWithError(w, http.StatusConflict, "Conflicting write: "+integrityErr.Constraint)
	case errors.Is(err, store.ErrStorageUnavailable):
		metrics.DbErrors.WithLabelValues(op, "unavailable").Inc()
		h.log.Error().Err(err).Str("op", op).Msg("Storage unavailable")
		respondWithError(w, http.StatusServiceUnavailable, "Storage unavailable")
	default:
		metrics.DbErrors.WithLabelValues(op, "internal").Inc()
		h.log.Error().Err(err).Str("op", op).Msg("Store operation failed")
		respondWithError(w, http.StatusInternalServerError, "Internal server error")
	}
}

func parseInt64Param(r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	return id, err == nil && id > 0
}

func parseUUIDParam(r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	return id, err == nil
}

// parseDate parses an optional YYYY-MM-DD value already checked by the
// datetime validate tag.
func parseDate(s *string) *time.Time {
	if s == nil || *s == "" {
		return nil
	}
	t, err := time.Parse(dateLayout, *s)
	if err != nil {
		return nil
	}
	return &t
}

func boolOrDefault(b *bool, def bool) bool {
	if b == nil {
		return def
	}
	return *b
}

// queryBool parses an optional boolean query parameter.
func queryBool(r *http.Request, name string) (*bool, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, nil
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value: must be true or false", name)
	}
	return &b, nil
}

func queryDate(r *http.Request, name string) (*time.Time, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse(dateLayout, raw)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value: expected YYYY-MM-DD", name)
	}
	return &t, nil
}

// --- Admin configuration ---

// GetAdminConfig exposes the list, search, filter and form configuration of
// each managed entity.
func (h *HTTPHandler) GetAdminConfig(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, map[string]domain.AdminConfig{
		"authors":  domain.AuthorAdmin,
		"books":    domain.BookAdmin,
		"products": domain.ProductAdmin,
	})
}

// --- Route Registration ---

// RegisterRoutes sets up the HTTP routes for the service.
func (h *HTTPHandler) RegisterRoutes(r chi.Router) {
	r.Get("/livres/", h.ListBooksPage)

	r.Get("/api/v1/admin/config", h.GetAdminConfig)

	r.Route("/api/v1/authors", func(r chi.Router) {
		r.Post("/", h.CreateAuthor)
		r.Get("/", h.ListAuthors)
		r.Route("/{authorId}", func(r chi.Router) {
			r.Get("/", h.GetAuthorByID)
			r.Put("/", h.UpdateAuthor)
			r.Delete("/", h.DeleteAuthor)
		})
	})

	r.Route("/api/v1/books", func(r chi.Router) {
		r.Post("/", h.CreateBook)
		r.Get("/", h.ListBooks)
		r.Route("/{bookId}", func(r chi.Router) {
			r.Get("/", h.GetBookByID)
			r.Put("/", h.UpdateBook)
			r.Delete("/", h.DeleteBook)
			r.Delete("/co-authors/{authorId}", h.RemoveCoAuthor)
		})
	})

	r.Route("/api/v1/products", func(r chi.Router) {
		r.Post("/", h.CreateProduct)
		r.Get("/", h.ListProducts)
		r.Route("/{productId}", func(r chi.Router) {
			r.Get("/", h.GetProductByID)
			r.Put("/", h.UpdateProduct)
			r.Delete("/", h.DeleteProduct)
			r.Get("/variations", h.ListVariations)
		})
	})
}
