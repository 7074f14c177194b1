package duckdb

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseParams(t *testing.T) {
	tests := []struct {
		name    string
		raw     map[string]any
		want    *Params
		wantErr string
	}{
		{
			name: "nil params",
			raw:  nil,
			want: &Params{},
		},
		{
			name: "empty params",
			raw:  map[string]any{},
			want: &Params{},
		},
		{
			name: "extensions only",
			raw: map[string]any{
				"extensions": []any{"json", "icu"},
			},
			want: &Params{Extensions: []string{"json", "icu"}},
		},
		{
			name: "settings with weakly typed values",
			raw: map[string]any{
				"settings": map[string]any{
					"threads":      4,
					"memory_limit": "2GB",
				},
			},
			want: &Params{Settings: map[string]string{"threads": "4", "memory_limit": "2GB"}},
		},
		{
			name: "unknown key",
			raw: map[string]any{
				"secrets": []any{},
			},
			wantErr: "invalid duckdb params",
		},
		{
			name: "invalid setting name",
			raw: map[string]any{
				"settings": map[string]any{"bad name": "x"},
			},
			wantErr: "invalid duckdb setting name",
		},
		{
			name: "invalid extension name",
			raw: map[string]any{
				"extensions": []any{"json; DROP TABLE x"},
			},
			wantErr: "invalid duckdb extension name",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseParams(tt.raw)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
