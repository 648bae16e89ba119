package allmemscan

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAddressString(t *testing.T) {
	tests := []struct {
		input    Address
		expected string
	}{
		{0x0, "0x0"},
		{0x1234, "0x1234"},
		{0x7FFFFFFFFFFF, "0x7FFFFFFFFFFF"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.input.String())
		})
	}
}

func TestMatchPage(t *testing.T) {
	m := Match{Address: 3*PageSize + 0x10}

	assert.Equal(t, uint64(3), m.Page())
	assert.Equal(t, uint64(0x10), m.PageOffset())
}

func TestRegion(t *testing.T) {
	r := Region{Start: 0x1000, Length: 0x9f000, Name: "System RAM"}

	assert.Equal(t, uint64(0x9ffff), r.End())
	assert.Equal(t, "00001000-0009ffff : System RAM", r.String())
	assert.Equal(t, uint64(0x1000), Region{Start: 0x1000}.End())
}
