package tmdb

import "strconv"

// Movie is one entry of a /movie/popular page.
type Movie struct {
	ID            int64   `json:"id"`
	Title         string  `json:"title"`
	OriginalTitle string  `json:"original_title"`
	ReleaseDate   string  `json:"release_date"`
	Popularity    float64 `json:"popularity"`
	VoteAverage   float64 `json:"vote_average"`
	VoteCount     int64   `json:"vote_count"`
}

// PopularPage is a /movie/popular response.
type PopularPage struct {
	Page         int     `json:"page"`
	Results      []Movie `json:"results"`
	TotalPages   int     `json:"total_pages"`
	TotalResults int     `json:"total_results"`
}

// MovieDetails is a /movie/{id} response, reduced to the fields we export.
type MovieDetails struct {
	ID            int64  `json:"id"`
	Title         string `json:"title"`
	OriginalTitle string `json:"original_title"`
	ReleaseDate   string `json:"release_date"`
	Budget        int64  `json:"budget"`
	Revenue       int64  `json:"revenue"`
	Runtime       *int   `json:"runtime"`
}

// PopularityColumns is the header of the raw popularity export.
var PopularityColumns = []string{"tmdb_id", "title", "original_title", "release_date", "popularity", "vote_average", "vote_count"}

// RevenueColumns is the header of the raw revenue export.
var RevenueColumns = []string{"tmdb_id", "title", "original_title", "release_date", "budget", "revenue", "runtime"}

// Record renders the movie in PopularityColumns order.
func (m Movie) Record() []string {
	return []string{
		strconv.FormatInt(m.ID, 10),
		m.Title,
		m.OriginalTitle,
		m.ReleaseDate,
		strconv.FormatFloat(m.Popularity, 'f', -1, 64),
		strconv.FormatFloat(m.VoteAverage, 'f', -1, 64),
		strconv.FormatInt(m.VoteCount, 10),
	}
}

// Record renders the details in RevenueColumns order. A missing runtime is
// an empty cell.
func (d MovieDetails) Record() []string {
	runtime := ""
	if d.Runtime != nil {
		runtime = strconv.Itoa(*d.Runtime)
	}
	return []string{
		strconv.FormatInt(d.ID, 10),
		d.Title,
		d.OriginalTitle,
		d.ReleaseDate,
		strconv.FormatInt(d.Budget, 10),
		strconv.FormatInt(d.Revenue, 10),
		runtime,
	}
}
