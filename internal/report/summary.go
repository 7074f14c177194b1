package report

import (
	"github.com/leapstack-labs/movierank/internal/analysis"
	"github.com/leapstack-labs/movierank/internal/movie"
)

// DefaultTopN is the number of rows shown in the console summary.
const DefaultTopN = 20

// TopColumns are the console columns of the top rows.
var TopColumns = []string{"rank", "title", "year", "rating", "log_revenue", "popularity", "performance_index"}

// Counts tracks rows through every pipeline stage.
type Counts struct {
	Popularity    int64 `json:"popularity"`
	Revenue       int64 `json:"revenue"`
	Ratings       int64 `json:"ratings"`
	JoinedByID    int64 `json:"joined_by_id"`
	JoinedByTitle int64 `json:"joined_by_title"`
	Filtered      int64 `json:"filtered"`
	Ranked        int64 `json:"ranked"`
}

// TopRow is one line of the console summary.
type TopRow struct {
	Rank             int     `json:"rank"`
	TMDBID           int64   `json:"tmdb_id"`
	Title            string  `json:"title"`
	Year             *int64  `json:"year"`
	Rating           float64 `json:"rating"`
	LogRevenue       float64 `json:"log_revenue"`
	Popularity       float64 `json:"popularity"`
	PerformanceIndex float64 `json:"performance_index"`
}

// Summary is the console report of one pipeline run.
type Summary struct {
	RunID       string                `json:"run_id"`
	OutputPath  string                `json:"output_path"`
	ElapsedMS   int64                 `json:"elapsed_ms"`
	Counts      Counts                `json:"counts"`
	Top         []TopRow              `json:"top"`
	Diagnostics *analysis.Diagnostics `json:"diagnostics,omitempty"`
	Warnings    []string              `json:"warnings,omitempty"`
}

// TopRows returns the first n ranked rows. A non-positive n means DefaultTopN.
func TopRows(rows []movie.Ranked, n int) []TopRow {
	if n <= 0 {
		n = DefaultTopN
	}
	n = min(n, len(rows))

	out := make([]TopRow, n)
	for i, r := range rows[:n] {
		top := TopRow{
			Rank:             i + 1,
			TMDBID:           r.TMDBID,
			Title:            r.Title,
			Rating:           r.Rating.V,
			LogRevenue:       r.LogRevenue,
			Popularity:       r.Popularity.V,
			PerformanceIndex: r.PerformanceIndex,
		}
		if r.Year.Valid {
			year := r.Year.V
			top.Year = &year
		}
		out[i] = top
	}
	return out
}
