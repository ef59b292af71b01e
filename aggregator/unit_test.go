package aggregator

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseUnit(t *testing.T) {
	tests := []struct {
		value       string
		expected    Unit
		expectError bool
	}{
		{value: "", expected: UnitBytes},
		{value: "bytes", expected: UnitBytes},
		{value: " Bytes ", expected: UnitBytes},
		{value: "repositories", expected: UnitRepositories},
		{value: "count", expected: UnitRepositories},
		{value: "lines", expectError: true},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			unit, err := ParseUnit(tt.value)

			if tt.expectError {
				assert.Error(t, err)
				return
			}

			assert.NoError(t, err)
			assert.Equal(t, tt.expected, unit)
		})
	}
}

func TestBuildRecord(t *testing.T) {
	languages := map[string]int{"Go": 4500, "Shell": 120, "Dockerfile": 0}

	bytesRecord := BuildRecord(UnitBytes, "owner/repo", languages)
	assert.Equal(t, "owner/repo", bytesRecord.Repository)
	assert.Equal(t, map[string]float64{"Go": 4500, "Shell": 120, "Dockerfile": 0}, bytesRecord.Weights)

	countRecord := BuildRecord(UnitRepositories, "owner/repo", languages)
	assert.Equal(t, map[string]float64{"Go": 1, "Shell": 1}, countRecord.Weights)
}

func TestFromPresenceCountsRepositories(t *testing.T) {
	usage, err := Accumulate([]Record{
		FromPresence("a", []string{"Go", "Shell"}),
		FromPresence("b", []string{"Go", ""}),
		FromPresence("c", []string{"Go", "Go"}),
	})

	assert.NoError(t, err)
	assert.Equal(t, map[string]float64{"Go": 3, "Shell": 1}, usage.Totals())
}
