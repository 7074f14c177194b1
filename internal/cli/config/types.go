// Package config provides configuration management for the movierank CLI.
//
// Values are layered, lowest to highest: built-in defaults, movierank.yaml,
// MOVIERANK_ environment variables, then explicitly set flags.
package config

import (
	"time"

	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/v2"
	"github.com/leapstack-labs/movierank/internal/movie"
)

// Config holds all CLI configuration options.
type Config struct {
	// Database is the DuckDB file backing the table engine (empty or
	// ":memory:" for an in-memory database).
	Database     string `koanf:"database"`
	Verbose      bool   `koanf:"verbose"`
	OutputFormat string `koanf:"output_format"`
	LogFormat    string `koanf:"log_format"`

	Inputs   InputsConfig   `koanf:"inputs"`
	Output   OutputConfig   `koanf:"output"`
	Analysis AnalysisConfig `koanf:"analysis"`
	Report   ReportConfig   `koanf:"report"`
	Columns  movie.Columns  `koanf:"columns"`
	Engine   EngineConfig   `koanf:"engine"`
	TMDB     TMDBConfig     `koanf:"tmdb"`
	IMDb     IMDbConfig     `koanf:"imdb"`
	History  HistoryConfig  `koanf:"history"`

	// ProjectRoot is the directory relative paths are resolved against.
	ProjectRoot string `koanf:"-"`
}

// InputsConfig names the three cleaned source files.
type InputsConfig struct {
	Popularity string `koanf:"popularity"`
	Revenue    string `koanf:"revenue"`
	Ratings    string `koanf:"ratings"`
}

// OutputConfig controls the ranking file.
type OutputConfig struct {
	Path string `koanf:"path"`
	BOM  bool   `koanf:"bom"`
}

// AnalysisConfig controls feature building and ranking.
type AnalysisConfig struct {
	MinRows      int    `koanf:"min_rows"`
	Seed         int64  `koanf:"seed"`
	ZeroVariance string `koanf:"zero_variance"`
	FailOnEmpty  bool   `koanf:"fail_on_empty"`
}

// ReportConfig controls the console summary.
type ReportConfig struct {
	TopN int `koanf:"top_n"`
}

// EngineConfig holds DuckDB connection parameters.
type EngineConfig struct {
	Extensions []string          `koanf:"extensions"`
	Settings   map[string]string `koanf:"settings"`
}

// TMDBConfig configures the TMDb download commands.
type TMDBConfig struct {
	APIKey            string        `koanf:"api_key"`
	BaseURL           string        `koanf:"base_url"`
	Language          string        `koanf:"language"`
	Pages             int           `koanf:"pages"`
	Concurrency       int           `koanf:"concurrency"`
	RequestsPerSecond float64       `koanf:"requests_per_second"`
	MaxRetries        int           `koanf:"max_retries"`
	Timeout           time.Duration `koanf:"timeout"`
	// PopularityRaw and RevenueRaw are the download targets and the
	// default inputs of the clean commands.
	PopularityRaw string `koanf:"popularity_raw"`
	RevenueRaw    string `koanf:"revenue_raw"`
}

// IMDbConfig configures the IMDb ratings builder.
type IMDbConfig struct {
	Basics   string `koanf:"basics"`
	Ratings  string `koanf:"ratings"`
	MinVotes int    `koanf:"min_votes"`
}

// HistoryConfig controls the run history database.
type HistoryConfig struct {
	Enabled bool   `koanf:"enabled"`
	Path    string `koanf:"path"`
}

// Default configuration values.
const (
	ConfigFileName    = "movierank.yaml"
	ConfigFileNameAlt = "movierank.yml"

	DefaultOutput    = "auto" // Auto-detect: TTY=text, non-TTY=markdown
	DefaultLogFormat = "text"

	DefaultPopularityPath = "data/TMDB-popularity/tmdb_popularity.csv"
	DefaultRevenuePath    = "data/TMDB-revenue/tmdb_revenue.csv"
	DefaultRatingsPath    = "data/IMDB-rating/imdb_ratings.csv"
	DefaultOutputPath     = "output/movie_pca_ranking.csv"

	DefaultPopularityRawPath = "data/TMDB-popularity/tmdb_popularity_raw.csv"
	DefaultRevenueRawPath    = "data/TMDB-revenue/tmdb_revenue_raw.csv"
	DefaultIMDbBasicsPath    = "data/IMDB-rating/title.basics.tsv"
	DefaultIMDbRatingsPath   = "data/IMDB-rating/title.ratings.tsv"
	DefaultHistoryPath       = ".movierank/history.db"

	DefaultTopN        = 20
	DefaultMinRows     = 3
	DefaultSeed        = 42
	DefaultMinVotes    = 1000
	DefaultPages       = 50
	DefaultConcurrency = 1
)

// defaults returns the confmap layer.
func defaults() map[string]any {
	cols := movie.DefaultColumns()
	return map[string]any{
		"database":      "",
		"verbose":       false,
		"output_format": DefaultOutput,
		"log_format":    DefaultLogFormat,

		"inputs.popularity": DefaultPopularityPath,
		"inputs.revenue":    DefaultRevenuePath,
		"inputs.ratings":    DefaultRatingsPath,

		"output.path": DefaultOutputPath,
		"output.bom":  true,

		"analysis.min_rows":      DefaultMinRows,
		"analysis.seed":         DefaultSeed,
		"analysis.zero_variance": "error",
		"analysis.fail_on_empty": false,

		"report.top_n": DefaultTopN,

		"columns.id":         cols.ID,
		"columns.title":      cols.Title,
		"columns.popularity": cols.Popularity,
		"columns.revenue":    cols.Revenue,
		"columns.year":       cols.Year,
		"columns.rating":     cols.Rating,

		"tmdb.base_url":            "https://api.themoviedb.org/3",
		"tmdb.language":            "en-US",
		"tmdb.pages":               DefaultPages,
		"tmdb.concurrency":         DefaultConcurrency,
		"tmdb.requests_per_second": 4.0,
		"tmdb.max_retries":         3,
		"tmdb.timeout":             "20s",
		"tmdb.popularity_raw":      DefaultPopularityRawPath,
		"tmdb.revenue_raw":         DefaultRevenueRawPath,

		"imdb.basics":    DefaultIMDbBasicsPath,
		"imdb.ratings":   DefaultIMDbRatingsPath,
		"imdb.min_votes": DefaultMinVotes,

		"history.enabled": true,
		"history.path":    DefaultHistoryPath,
	}
}

// Starter returns the defaults nested the way movierank.yaml is laid out.
func Starter() map[string]any {
	k := koanf.New(".")
	_ = k.Load(confmap.Provider(defaults(), "."), nil)
	raw := k.Raw()
	delete(raw, "verbose")
	delete(raw, "database")
	return raw
}
