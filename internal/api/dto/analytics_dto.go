package dto

// QueryRequest payload for keyword search.
type QueryRequest struct {
	Question string `json:"question"`
}

// SearchHit is one ranked issue.
type SearchHit struct {
	IssueResponse
	RelevanceScore int `json:"relevance_score"`
}

// QueryResponse body.
type QueryResponse struct {
	Query        string      `json:"query"`
	Keywords     []string    `json:"keywords"`
	TotalResults int         `json:"total_results"`
	Results      []SearchHit `json:"results"`
}

// ReportRequest payload.
type ReportRequest struct {
	ReportType string `json:"report_type"`
	FromDate   string `json:"from_date"`
	ToDate     string `json:"to_date"`
}
