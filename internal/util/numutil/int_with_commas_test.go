package numutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIntWithCommas(t *testing.T) {
	tests := []struct {
		in   int64
		want string
	}{
		{in: 0, want: "0"},
		{in: 999, want: "999"},
		{in: 1000, want: "1,000"},
		{in: 12345, want: "12,345"},
		{in: 1000001, want: "1,000,001"},
		{in: -4500, want: "-4,500"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, IntWithCommas(tt.in))
		})
	}

	assert.Equal(t, "100", IntWithCommas(100))
}
