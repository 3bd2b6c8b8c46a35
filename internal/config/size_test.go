package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSize(t *testing.T) {
	tests := []struct {
		input   string
		want    int64
		wantErr bool
	}{
		{input: "0", want: 0},
		{input: "4096", want: 4096},
		{input: "512b", want: 512},
		{input: "64k", want: 64 << 10},
		{input: "64KB", want: 64 << 10},
		{input: "1M", want: 1 << 20},
		{input: "256mb", want: 256 << 20},
		{input: "2G", want: 2 << 30},
		{input: "1T", want: 1 << 40},
		{input: "1.5M", want: 3 << 19},
		{input: "0.25K", want: 256},
		{input: "\t8M\n", want: 8 << 20},

		{input: "", wantErr: true},
		{input: "MB", wantErr: true},
		{input: "K", wantErr: true},
		{input: "-4K", wantErr: true},
		{input: "ten", wantErr: true},
		{input: "1Q", wantErr: true},
		{input: "inf", wantErr: true},
		{input: "NaN", wantErr: true},
		{input: "9000000000T", wantErr: true},
		{input: "1e30", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseSize(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
