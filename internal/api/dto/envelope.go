package dto

// Envelope wraps every response body.
type Envelope struct {
	Data   any         `json:"data"`
	Meta   any         `json:"meta"`
	Errors []ErrorItem `json:"errors"`
}

// ErrorItem describes one failure in the errors list.
type ErrorItem struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

// PageMeta accompanies paginated lists.
type PageMeta struct {
	Page     int `json:"page"`
	PageSize int `json:"page_size"`
	Total    int `json:"total"`
}
