package model

import "time"

// PostingRecord is a single scraped recruiter advert, as produced by the
// scraping collaborator. The recruiter is the excluded candidate: it must
// never be returned as the hiring organization.
type PostingRecord struct {
	JobID         string `json:"job_id"`
	Title         string `json:"scraped_job_title"`
	RecruiterName string `json:"recruiter_name"`
	LocationText  string `json:"job_location_text"`
	Description   string `json:"full_job_description"`
}

// RunStatus represents the current state of an identification run.
type RunStatus string

const (
	RunStatusQueued     RunStatus = "queued"
	RunStatusExtracting RunStatus = "extracting"
	RunStatusSearching  RunStatus = "searching"
	RunStatusRanking    RunStatus = "ranking"
	RunStatusVerifying  RunStatus = "verifying"
	RunStatusComplete   RunStatus = "complete"
	RunStatusFailed     RunStatus = "failed"
)

// Run represents a single identification run for a posting.
type Run struct {
	ID        string        `json:"id"`
	Posting   PostingRecord `json:"posting"`
	Status    RunStatus     `json:"status"`
	Result    *RunResult    `json:"result,omitempty"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}

// RunResult holds the final outcome of a run.
type RunResult struct {
	TopCompany    string  `json:"top_company"`
	TopConfidence float64 `json:"top_confidence"`
	TopScore      int     `json:"top_score"`
	Candidates    int     `json:"candidates"`
	TotalTokens   int     `json:"total_tokens"`
	Error         string  `json:"error,omitempty"`
}

// TokenUsage accumulates token consumption across pipeline stages.
type TokenUsage struct {
	InputTokens         int `json:"input_tokens"`
	OutputTokens        int `json:"output_tokens"`
	CacheCreationTokens int `json:"cache_creation_tokens"`
	CacheReadTokens     int `json:"cache_read_tokens"`
}

// Add accumulates another usage into this one.
func (u *TokenUsage) Add(other TokenUsage) {
	u.InputTokens += other.InputTokens
	u.OutputTokens += other.OutputTokens
	u.CacheCreationTokens += other.CacheCreationTokens
	u.CacheReadTokens += other.CacheReadTokens
}
