package domain

// ListConfig describes how a records-management list of an entity is laid out.
// Search and filter names are field names as exposed in JSON; "author_name"
// is the primary author's name.
type ListConfig struct {
	Columns []string `json:"columns"`
	Search  []string `json:"search"`
	Filters []string `json:"filters"`
}

// Fieldset groups fields of an edit form.
type Fieldset struct {
	Title     string   `json:"title,omitempty"`
	Fields    []string `json:"fields"`
	Collapsed bool     `json:"collapsed,omitempty"`
}

// FormConfig is the edit form layout of an entity.
type FormConfig struct {
	Fieldsets    []Fieldset        `json:"fieldsets"`
	ReadOnly     []string          `json:"read_only"`
	Prepopulated map[string]string `json:"prepopulated,omitempty"` // target field -> source field
}

// AdminConfig is the records-management configuration of one entity.
type AdminConfig struct {
	List ListConfig  `json:"list"`
	Form *FormConfig `json:"form,omitempty"`
}

var BookAdmin = AdminConfig{
	List: ListConfig{
		Columns: []string{"title", "author_name", "publication_date", "available"},
		Search:  []string{"title", "isbn", "author_name"},
		Filters: []string{"available", "publication_date"},
	},
	Form: &FormConfig{
		Fieldsets: []Fieldset{{Fields: []string{
			"title", "slug", "description", "publication_date", "cover_image", "available",
			"price", "author_id", "co_author_ids", "isbn", "pdf_file",
		}}},
		ReadOnly:     []string{"id"},
		Prepopulated: map[string]string{"slug": "title"},
	},
}

var AuthorAdmin = AdminConfig{
	List: ListConfig{Columns: []string{"name"}},
}

var ProductAdmin = AdminConfig{
	List: ListConfig{
		Columns: []string{"name", "category", "price", "stock", "is_available", "created_at"},
		Search:  []string{"name", "description"},
		Filters: []string{"is_available", "category"},
	},
	Form: &FormConfig{
		Fieldsets: []Fieldset{
			{Fields: []string{"name", "slug", "description", "category", "image"}},
			{Title: "Stock and pricing", Fields: []string{"price", "stock", "is_available"}},
			{Title: "Relation", Fields: []string{"parent_product_id"}},
			{Title: "Dates", Fields: []string{"release_date", "created_at", "updated_at"}, Collapsed: true},
		},
		ReadOnly:     []string{"id", "created_at", "updated_at"},
		Prepopulated: map[string]string{"slug": "name"},
	},
}
