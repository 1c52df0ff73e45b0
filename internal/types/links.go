package types

// Link is the stored link record. PasswordHash never leaves the service
// layer; API responses use LinkView.
type Link struct {
	ID           string   `json:"id" db:"id"`
	Slug         string   `json:"slug" db:"slug"`
	TargetURL    string   `json:"target_url" db:"target_url"`
	PasswordHash *string  `json:"password_hash,omitempty" db:"password_hash"`
	ExpiresAt    *int64   `json:"expires_at,omitempty" db:"expires_at"`
	CreatedAt    int64    `json:"created_at" db:"created_at"`
	UpdatedAt    int64    `json:"updated_at" db:"updated_at"`
	Tags         []string `json:"tags" db:"-"`
}

type LinkView struct {
	ID          string   `json:"id"`
	Slug        string   `json:"slug"`
	ShortURL    string   `json:"shortUrl"`
	TargetURL   string   `json:"targetUrl"`
	HasPassword bool     `json:"hasPassword"`
	ExpiresAt   *int64   `json:"expiresAt"`
	Tags        []string `json:"tags"`
	CreatedAt   int64    `json:"createdAt"`
	UpdatedAt   int64    `json:"updatedAt"`
}

type CreateLinkRequest struct {
	URL       string   `json:"url" validate:"required,url"`
	Slug      string   `json:"slug,omitempty" validate:"omitempty,slug"`
	ExpiresAt *int64   `json:"expiresAt,omitempty" validate:"omitempty,gt=0"`
	Password  *string  `json:"password,omitempty" validate:"omitempty,min=4"`
	Tags      []string `json:"tags,omitempty" validate:"omitempty,dive,required"`
}

// UpdateLinkRequest is a partial update: nil fields are left untouched.
type UpdateLinkRequest struct {
	URL       *string  `json:"url,omitempty" validate:"omitempty,url"`
	Slug      *string  `json:"slug,omitempty" validate:"omitempty,slug"`
	ExpiresAt *int64   `json:"expiresAt,omitempty" validate:"omitempty,gt=0"`
	Password  *string  `json:"password,omitempty" validate:"omitempty,min=4"`
	Tags      []string `json:"tags,omitempty" validate:"omitempty,dive,required"`
}

type LinkPage struct {
	Links      []LinkView `json:"links"`
	Pagination Pagination `json:"pagination"`
}

type Pagination struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int64 `json:"totalPages"`
}

type BulkItem struct {
	URL  string  `json:"url"`
	Slug *string `json:"slug,omitempty"`
}

type BulkRequest struct {
	Links []BulkItem `json:"links"`
}

type CreatedLink struct {
	ID       string `json:"id"`
	Slug     string `json:"slug"`
	ShortURL string `json:"shortUrl"`
}

type BulkError struct {
	Index int    `json:"index"`
	Error string `json:"error"`
}

type BulkResult struct {
	Created []CreatedLink `json:"created"`
	Errors  []BulkError   `json:"errors"`
}
