package models

// SearchResponse is the subset of the Serper search response the pipeline reads.
type SearchResponse struct {
	SearchParameters SearchParameters `json:"searchParameters"`
	Organic          []OrganicResult  `json:"organic"`
}

// SearchParameters echoes the query the search API actually ran.
type SearchParameters struct {
	Q      string `json:"q"`
	Type   string `json:"type"`
	Engine string `json:"engine"`
}

// OrganicResult is one organic search hit.
type OrganicResult struct {
	Title    string `json:"title"`
	Link     string `json:"link"`
	Snippet  string `json:"snippet"`
	Position int    `json:"position"`
	Date     string `json:"date,omitempty"`
}
