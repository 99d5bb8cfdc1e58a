package model

// ResultItem is one hit on a search result page. ID is treated as globally
// unique for selection purposes.
type ResultItem struct {
	ID         string  `json:"id"`
	Title      string  `json:"title"`
	Source     Source  `json:"source"`
	Date       string  `json:"date"`
	CaseNumber string  `json:"documentId"` // e.g. "E. 2023/123, K. 2024/456"
	Score      float64 `json:"score"`
	Snippet    string  `json:"snippet"`
}

// FullDocument is a ResultItem with its court and full body text.
type FullDocument struct {
	ResultItem
	Court       string `json:"court"`
	PageContent string `json:"pageContent"`
}

// Placeholder builds the partial document shown while the full one loads.
func Placeholder(item ResultItem) FullDocument {
	return FullDocument{ResultItem: item}
}

// SearchPage is one page of search results. It replaces the previous page
// wholesale; pages are never merged.
type SearchPage struct {
	Items []ResultItem `json:"items"`
	Total int          `json:"total"`
	Page  int          `json:"page"`
	Pages int          `json:"pages"`
}

// Clone returns a copy that shares no backing array with p.
func (p *SearchPage) Clone() *SearchPage {
	if p == nil {
		return nil
	}
	c := *p
	c.Items = append([]ResultItem(nil), p.Items...)
	return &c
}
