package movie

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestColumns_WithDefaults(t *testing.T) {
	tests := []struct {
		name string
		in   Columns
		want Columns
	}{
		{
			name: "empty uses defaults",
			in:   Columns{},
			want: DefaultColumns(),
		},
		{
			name: "overrides are kept",
			in:   Columns{Rating: "imdb_rating", Title: "name"},
			want: Columns{
				ID:         "tmdb_id",
				Title:      "name",
				Popularity: "popularity",
				Revenue:    "revenue",
				Year:       "year",
				Rating:     "imdb_rating",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.in.WithDefaults())
		})
	}
}

func TestFeatures_Vector(t *testing.T) {
	f := Features{LogRevenue: 3, RatingNorm: 0.1, RevenueNorm: 0.2, PopularityNorm: 0.3}
	assert.Equal(t, []float64{0.1, 0.2, 0.3}, f.Vector())
}

func TestOutputColumns(t *testing.T) {
	assert.Len(t, OutputColumns, 14)
	assert.Equal(t, ColTMDBID, OutputColumns[0])
	assert.Equal(t, ColPerformanceIndex, OutputColumns[len(OutputColumns)-1])
}
