package engine

// imdb.go - ratings table built from the IMDb TSV dumps

import (
	"context"
	"fmt"

	"github.com/leapstack-labs/movierank/pkg/adapter"
)

const (
	tableBasics       = "imdb_basics"
	tableVotes        = "imdb_votes"
	tableIMDbRatings  = "imdb_ratings"
	imdbNull          = `\N`
	defaultIMDbVotes  = 1000
	imdbMovieType     = "movie"
	imdbAdultFlagTrue = 1
)

// IMDbColumns are the columns of the built ratings table.
var IMDbColumns = []string{"imdb_id", "title", "year", "averageRating", "numVotes"}

// IMDbOptions configures BuildIMDbRatings.
type IMDbOptions struct {
	// BasicsPath is title.basics.tsv.
	BasicsPath string
	// RatingsPath is title.ratings.tsv.
	RatingsPath string
	// MinVotes drops titles with fewer votes. Zero means 1000.
	MinVotes int
}

// IMDbStats reports row counts of the IMDb build.
type IMDbStats struct {
	Basics  int64 `json:"basics"`
	Ratings int64 `json:"ratings"`
	Movies  int64 `json:"movies"`
}

// BuildIMDbRatings joins the basics and ratings dumps into a clean ratings
// table. Only non-adult movies with a numeric start year, a numeric rating
// and at least MinVotes votes are kept. Rows are ordered by rating then
// votes, both descending.
func (e *Engine) BuildIMDbRatings(ctx context.Context, opts IMDbOptions) (*Frame, *IMDbStats, error) {
	if err := checkFile("title.basics", opts.BasicsPath); err != nil {
		return nil, nil, err
	}
	if err := checkFile("title.ratings", opts.RatingsPath); err != nil {
		return nil, nil, err
	}
	if err := e.ensureDBConnected(ctx); err != nil {
		return nil, nil, err
	}

	minVotes := opts.MinVotes
	if minVotes <= 0 {
		minVotes = defaultIMDbVotes
	}

	tsv := adapter.CSVOptions{
		Delimiter:       "\t",
		NullString:      imdbNull,
		AllVarchar:      true,
		DisableQuoting:  true,
		RowNumberColumn: rowColumn,
	}

	basics, err := e.loadTable(ctx, tableBasics, opts.BasicsPath, tsv,
		[]string{"tconst", "titleType", "primaryTitle", "startYear", "isAdult"})
	if err != nil {
		return nil, nil, err
	}
	votes, err := e.loadTable(ctx, tableVotes, opts.RatingsPath, tsv,
		[]string{"tconst", "averageRating", "numVotes"})
	if err != nil {
		return nil, nil, err
	}

	query := fmt.Sprintf(`CREATE OR REPLACE TABLE %[1]s AS
WITH b AS (
	SELECT
		tconst,
		primaryTitle,
		TRY_CAST(TRY_CAST(startYear AS DOUBLE) AS BIGINT) AS start_year,
		%[7]s
	FROM %[2]s
	WHERE titleType = '%[5]s'
		AND TRY_CAST(isAdult AS DOUBLE) IS DISTINCT FROM %[6]d
),
r AS (
	SELECT
		tconst,
		TRY_CAST(averageRating AS DOUBLE) AS rating,
		TRY_CAST(TRY_CAST(numVotes AS DOUBLE) AS BIGINT) AS votes
	FROM %[3]s
)
SELECT
	row_number() OVER (ORDER BY r.rating DESC, r.votes DESC, b.%[7]s) AS %[7]s,
	b.tconst AS imdb_id,
	b.primaryTitle AS title,
	b.start_year AS "year",
	r.rating AS averageRating,
	r.votes AS numVotes
FROM b
JOIN r ON b.tconst = r.tconst
WHERE b.start_year IS NOT NULL
	AND r.rating IS NOT NULL
	AND r.votes IS NOT NULL
	AND r.votes >= %[4]d`,
		tableIMDbRatings, tableBasics, tableVotes, minVotes, imdbMovieType, imdbAdultFlagTrue, rowColumn)

	if err := e.db.Exec(ctx, query); err != nil {
		return nil, nil, fmt.Errorf("failed to build imdb ratings: %w", err)
	}

	frame, err := e.selectFrame(ctx, tableIMDbRatings, IMDbColumns,
		"ORDER BY "+rowColumn)
	if err != nil {
		return nil, nil, err
	}

	stats := &IMDbStats{Basics: basics.RowCount, Ratings: votes.RowCount, Movies: int64(frame.Len())}
	e.logger.Info("built imdb ratings",
		"basics_rows", stats.Basics,
		"ratings_rows", stats.Ratings,
		"movies", stats.Movies,
		"min_votes", minVotes)

	return frame, stats, nil
}
