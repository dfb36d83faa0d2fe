package domain

// SearchRequest is the input to both façade entry points.
type SearchRequest struct {
	Query        string `json:"query"`
	UserID       string `json:"user_id,omitempty"`
	UserRegion   string `json:"user_region,omitempty"`
	Season       string `json:"season,omitempty"`
	EvidenceTopK *int   `json:"evidence_top_k,omitempty"`
}

// SearchResult is the search endpoint output.
type SearchResult struct {
	Products    []ScoredProduct `json:"products"`
	Evidence    []EvidenceItem  `json:"evidence"`
	Query       string          `json:"query"`
	UserRegion  string          `json:"user_region"`
	Season      string          `json:"season"`
	Keywords    []string        `json:"keywords"`
	ResultCount int             `json:"result_count"`
	Memory      MemoryReport    `json:"memory"`
}

// AnswerResult is the evidence-first answer output: evidence first, conclusion last.
type AnswerResult struct {
	SearchResult
	Plan       string `json:"plan"`
	Conclusion string `json:"conclusion"`
}
