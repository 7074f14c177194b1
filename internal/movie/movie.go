// Package movie defines the records that flow through the ranking pipeline.
package movie

import "database/sql"

// Output column names of the ranked table, in file order.
const (
	ColTMDBID           = "tmdb_id"
	ColTitle            = "title"
	ColPopularity       = "popularity"
	ColRevenue          = "revenue"
	ColYear             = "year"
	ColRating           = "rating"
	ColLogRevenue       = "log_revenue"
	ColRatingNorm       = "rating_norm"
	ColRevenueNorm      = "revenue_norm"
	ColPopularityNorm   = "popularity_norm"
	ColPC1              = "PC1"
	ColPC2              = "PC2"
	ColPC3              = "PC3"
	ColPerformanceIndex = "performance_index"
)

// OutputColumns lists the columns of the ranked output file.
var OutputColumns = []string{
	ColTMDBID, ColTitle, ColPopularity, ColRevenue, ColYear, ColRating,
	ColLogRevenue, ColRatingNorm, ColRevenueNorm, ColPopularityNorm,
	ColPC1, ColPC2, ColPC3, ColPerformanceIndex,
}

// Record is one movie after both joins.
type Record struct {
	TMDBID     int64
	Title      string
	Year       sql.Null[int64]
	Rating     sql.Null[float64]
	Popularity sql.Null[float64]
	Revenue    sql.Null[float64]
}

// Features are the derived metrics of a filtered record.
type Features struct {
	LogRevenue     float64
	RatingNorm     float64
	RevenueNorm    float64
	PopularityNorm float64
}

// Vector returns the PCA input row: rating, revenue, popularity.
func (f Features) Vector() []float64 {
	return []float64{f.RatingNorm, f.RevenueNorm, f.PopularityNorm}
}

// Scored is a record with its derived features, before ranking.
type Scored struct {
	Record
	Features
}

// Ranked is a scored record with its principal component scores.
type Ranked struct {
	Scored
	PC               [3]float64
	PerformanceIndex float64
}

// Columns maps the logical input fields to column names in the source files.
type Columns struct {
	ID         string `koanf:"id"`
	Title      string `koanf:"title"`
	Popularity string `koanf:"popularity"`
	Revenue    string `koanf:"revenue"`
	Year       string `koanf:"year"`
	Rating     string `koanf:"rating"`
}

// DefaultColumns returns the column names written by the clean and imdb commands.
func DefaultColumns() Columns {
	return Columns{
		ID:         "tmdb_id",
		Title:      "title",
		Popularity: "popularity",
		Revenue:    "revenue",
		Year:       "year",
		Rating:     "averageRating",
	}
}

// WithDefaults fills empty names from DefaultColumns.
func (c Columns) WithDefaults() Columns {
	d := DefaultColumns()
	if c.ID == "" {
		c.ID = d.ID
	}
	if c.Title == "" {
		c.Title = d.Title
	}
	if c.Popularity == "" {
		c.Popularity = d.Popularity
	}
	if c.Revenue == "" {
		c.Revenue = d.Revenue
	}
	if c.Year == "" {
		c.Year = d.Year
	}
	if c.Rating == "" {
		c.Rating = d.Rating
	}
	return c
}
