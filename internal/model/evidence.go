package model

import "strings"

// SearchHit is a raw external search result, tagged with the hypothesis and
// query that produced it. Hits are transient: they are consumed by the
// evidence filter and discarded.
type SearchHit struct {
	Title      string `json:"title"`
	URL        string `json:"url"`
	Snippet    string `json:"snippet"`
	Hypothesis string `json:"hypothesis"`
	Query      string `json:"query"`
}

// EvidenceItem is a retained, person-redacted search hit.
type EvidenceItem struct {
	Title      string `json:"title"`
	URL        string `json:"url"`
	Snippet    string `json:"snippet"`
	Hypothesis string `json:"hypothesis"`
}

// EvidenceSet is the deduplicated, keyword-justified subset of search hits
// that is surfaced to the ranking stage.
type EvidenceSet struct {
	Items     []EvidenceItem `json:"items"`
	Retained  int            `json:"retained"`
	Discarded int            `json:"discarded"`
}

// IsEmpty reports whether no evidence survived filtering.
func (e *EvidenceSet) IsEmpty() bool {
	return len(e.Items) == 0
}

// Text renders the evidence set as a block of numbered snippets for
// inclusion in the ranking prompt.
func (e *EvidenceSet) Text() string {
	if len(e.Items) == 0 {
		return ""
	}
	var b strings.Builder
	for i, item := range e.Items {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString("[")
		b.WriteString(item.Hypothesis)
		b.WriteString("] ")
		b.WriteString(item.Title)
		b.WriteString("\n")
		b.WriteString(item.URL)
		b.WriteString("\n")
		b.WriteString(item.Snippet)
		b.WriteString("\n")
	}
	return b.String()
}
