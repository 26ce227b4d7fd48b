package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatCost(t *testing.T) {
	assert.Equal(t, "$123", FormatCost(123.4))
	assert.Equal(t, "$1.50", FormatCost(1.5))
	assert.Equal(t, "$0.025", FormatCost(0.025))
	assert.Equal(t, "$0.0024", FormatCost(0.0024))
	assert.Equal(t, "$0.0000", FormatCost(0))
}

func TestFormatCostOrUnknown(t *testing.T) {
	assert.Equal(t, "unknown", FormatCostOrUnknown(nil))
	c := 0.5
	assert.Equal(t, "$0.500", FormatCostOrUnknown(&c))
}

func TestFormatTokens(t *testing.T) {
	assert.Equal(t, "999", FormatTokens(999))
	assert.Equal(t, "1.2K", FormatTokens(1234))
	assert.Equal(t, "1.2M", FormatTokens(1234567))
	assert.Equal(t, "0", FormatTokens(0))
}

func TestFormatDuration(t *testing.T) {
	assert.Equal(t, "850ms", FormatDuration(850))
	assert.Equal(t, "2.3s", FormatDuration(2300))
	assert.Equal(t, "1m 5s", FormatDuration(65000))
}

func TestFormatContextLength(t *testing.T) {
	assert.Equal(t, "—", FormatContextLength(nil))
	n := 128000
	assert.Equal(t, "128.0K", FormatContextLength(&n))
}

func TestFormatPrice(t *testing.T) {
	assert.Equal(t, "—", FormatPrice(nil))
	p := 2.5
	assert.Equal(t, "$2.50/1M", FormatPrice(&p))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", Truncate("short", 10))
	assert.Equal(t, "a very ...", Truncate("a very long description indeed", 10))
	assert.Equal(t, "one two", Truncate("one\ntwo", 20))
}

func TestRenderTable(t *testing.T) {
	out := RenderTable(Table{
		Headers: []string{"A", "B"},
		Rows:    [][]string{{"1", "2"}, {"33", "44"}},
	})
	assert.Contains(t, out, "A")
	assert.Contains(t, out, "33")

	assert.Empty(t, RenderTable(Table{}))
}
