package litetable

import (
	"github.com/stretchr/testify/require"
	"testing"
)

func TestParseColumn(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected Column
		wantErr  bool
	}{
		{
			name:     "Valid column",
			input:    "info:address",
			expected: Column{Family: "info", Qualifier: "address"},
		},
		{
			name:     "Qualifier may contain a colon",
			input:    "derived:addr:line",
			expected: Column{Family: "derived", Qualifier: "addr:line"},
		},
		{
			name:    "Empty column",
			input:   "",
			wantErr: true,
		},
		{
			name:    "Missing separator",
			input:   "infoaddress",
			wantErr: true,
		},
		{
			name:    "Missing family",
			input:   ":address",
			wantErr: true,
		},
		{
			name:    "Missing qualifier",
			input:   "info:",
			wantErr: true,
		},
		{
			name:    "Whitespace in family",
			input:   "in fo:address",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseColumn(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				return
			}

			require.NoError(t, err)
			require.Equalf(t, tt.expected, got, "Expected column does not match")
			require.Equal(t, tt.input, got.String())
		})
	}
}

func TestLatest(t *testing.T) {
	req := require.New(t)

	_, ok := Latest(nil)
	req.False(ok)

	got, ok := Latest([]TimestampedValue{
		{Value: []byte("old"), Timestamp: 1},
		{Value: []byte("new"), Timestamp: 3},
		{Value: []byte("mid"), Timestamp: 2},
	})
	req.True(ok)
	req.Equal("new", string(got))

	_, ok = Latest([]TimestampedValue{
		{Value: []byte("old"), Timestamp: 1},
		{Timestamp: 2, IsTombstone: true},
	})
	req.False(ok)
}
