package api

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"library-catalog-service/internal/domain"
	"library-catalog-service/internal/store"
)

// ProductInput defines the expected input for creating or replacing a product.
// Category defaults to ELECTRONICS and the slug to one derived from the name.
type ProductInput struct {
	Name            string           `json:"name" validate:"required,max=200"`
	Slug            string           `json:"slug" validate:"omitempty,max=250"`
	Description     *string          `json:"description"`
	Category        string           `json:"category" validate:"omitempty,oneof=ELECTRONICS CLOTHING BOOKS FOOD"`
	IsAvailable     *bool            `json:"is_available"`
	Stock           *int32           `json:"stock" validate:"required,gte=0"`
	Price           *decimal.Decimal `json:"price" validate:"required"`
	ReleaseDate     *string          `json:"release_date" validate:"omitempty,datetime=2006-01-02"`
	Image           *string          `json:"image" validate:"omitempty,max=100"`
	ParentProductID *uuid.UUID       `json:"parent_product_id"`
}

func (in ProductInput) toDomain(id uuid.UUID) *domain.Product {
	return &domain.Product{
		ID:              id,
		Name:            in.Name,
		Slug:            in.Slug,
		Description:     in.Description,
		Category:        domain.Category(in.Category),
		IsAvailable:     boolOrDefault(in.IsAvailable, true),
		Stock:           *in.Stock,
		Price:           *in.Price,
		ReleaseDate:     parseDate(in.ReleaseDate),
		Image:           in.Image,
		ParentProductID: in.ParentProductID,
	}
}

func (h *HTTPHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var input ProductInput
	if !h.decodeAndValidate(w, r, &input) {
		return
	}

	created, err := h.productStore.CreateProduct(r.Context(), input.toDomain(uuid.Nil))
	if err != nil {
		h.respondWithStoreError(w, "CreateProduct", err)
		return
	}
	respondWithJSON(w, http.StatusCreated, created)
}

// ListProducts supports q (name or description), available and category.
func (h *HTTPHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	var params store.ListProductsParams
	qParams := r.URL.Query()

	if q := qParams.Get("q"); q != "" {
		params.SearchQuery = &q
	}
	available, err := queryBool(r, "available")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	params.IsAvailable = available
	if c := qParams.Get("category"); c != "" {
		category := domain.Category(c)
		if !category.Valid() {
			respondWithError(w, http.StatusBadRequest, "Invalid category value: "+c)
			return
		}
		params.Category = &category
	}

	h.listProducts(w, r, "ListProducts", params)
}

// ListVariations lists the products whose parent is productId.
func (h *HTTPHandler) ListVariations(w http.ResponseWriter, r *http.Request) {
	productID, ok := parseUUIDParam(r, "productId")
	if !ok {
		respondWithError(w, http.StatusBadRequest, "Invalid product ID format")
		return
	}

	if _, err := h.productStore.GetProductByID(r.Context(), productID); err != nil {
		h.respondWithStoreError(w, "ListVariations", err)
		return
	}
	h.listProducts(w, r, "ListVariations", store.ListProductsParams{ParentID: &productID})
}

func (h *HTTPHandler) listProducts(w http.ResponseWriter, r *http.Request, op string, params store.ListProductsParams) {
	products, err := h.productStore.ListProducts(r.Context(), params)
	if err != nil {
		h.respondWithStoreError(w, op, err)
		return
	}
	if products == nil {
		products = []domain.Product{}
	}
	respondWithJSON(w, http.StatusOK, products)
}

func (h *HTTPHandler) GetProductByID(w http.ResponseWriter, r *http.Request) {
	productID, ok := parseUUIDParam(r, "productId")
	if !ok {
		respondWithError(w, http.StatusBadRequest, "Invalid product ID format")
		return
	}

	product, err := h.productStore.GetProductByID(r.Context(), productID)
	if err != nil {
		h.respondWithStoreError(w, "GetProductByID", err)
		return
	}
	respondWithJSON(w, http.StatusOK, product)
}

func (h *HTTPHandler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	productID, ok := parseUUIDParam(r, "productId")
	if !ok {
		respondWithError(w, http.StatusBadRequest, "Invalid product ID format")
		return
	}

	var input ProductInput
	if !h.decodeAndValidate(w, r, &input) {
		return
	}

	updated, err := h.productStore.UpdateProduct(r.Context(), input.toDomain(productID))
	if err != nil {
		h.respondWithStoreError(w, "UpdateProduct", err)
		return
	}
	respondWithJSON(w, http.StatusOK, updated)
}

// DeleteProduct keeps the product's variations; they lose their parent.
func (h *HTTPHandler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	productID, ok := parseUUIDParam(r, "productId")
	if !ok {
		respondWithError(w, http.StatusBadRequest, "Invalid product ID format")
		return
	}

	detached, err := h.productStore.DeleteProduct(r.Context(), productID)
	if err != nil {
		h.respondWithStoreError(w, "DeleteProduct", err)
		return
	}
	h.log.Info().Str("product_id", productID.String()).Int64("detached_variations", detached).Msg("Product deleted")
	respondWithJSON(w, http.StatusNoContent, nil)
}
