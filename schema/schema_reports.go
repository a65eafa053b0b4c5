package schema

import "time"

// AgeResult is the age of the most recent change to a path.
type AgeResult struct {
	Path    string    `json:"path"`
	Kind    Kind      `json:"kind"`
	Date    time.Time `json:"date"`
	AgeDays float64   `json:"age_days"`
}

// HotSpotResult crosses change frequency with lines of code for a path.
type HotSpotResult struct {
	Path            string  `json:"path"`
	Language        string  `json:"language"`
	Complexity      float64 `json:"complexity"`
	Changes         float64 `json:"changes"`
	ComplexityScore float64 `json:"complexity_score"`
	ChangesScore    float64 `json:"changes_score"`
	Score           float64 `json:"score"`
}

// CoChangeResult tells how often secondary changes when primary changes.
type CoChangeResult struct {
	Primary   string  `json:"primary"`
	Secondary string  `json:"secondary"`
	CoChanges int     `json:"cochanges"`
	Changes   int     `json:"changes"`
	Coupling  float64 `json:"coupling"`
}

// MassChangeset is a revision that touched more paths than a threshold.
type MassChangeset struct {
	Revision  string `json:"revision"`
	PathCount int    `json:"path_count"`
	Author    string `json:"author"`
	Message   string `json:"message"`
}

// ClocEntry is one per-file row of cloc output.
type ClocEntry struct {
	Language string `json:"language"`
	Path     string `json:"path"`
	Blank    int    `json:"blank"`
	Comment  int    `json:"comment"`
	Code     int    `json:"code"`
}

// DownloadResult is the content of a path at a given revision.
type DownloadResult struct {
	Revision string `json:"revision"`
	Path     string `json:"path"`
	Content  string `json:"content"`
}
