package render

import (
	"math/big"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestTruncate(t *testing.T) {
	t.Run("short strings pass through", func(t *testing.T) {
		assert.Equal(t, "hello", truncate("hello", 10))
		assert.Equal(t, "hello", truncate("hello", 5))
	})

	t.Run("long strings get an ellipsis", func(t *testing.T) {
		assert.Equal(t, "hell…", truncate("hello world", 5))
	})

	t.Run("multibyte titles are cut on rune boundaries", func(t *testing.T) {
		title := strings.Repeat("é", 10)
		got := truncate(title, 5)
		assert.Equal(t, strings.Repeat("é", 4)+"…", got)
		assert.True(t, utf8.ValidString(got))
	})
}

func TestFormatCount(t *testing.T) {
	assert.Equal(t, "0", formatCount(nil))
	assert.Equal(t, "1,234,567", formatCount(big.NewInt(1234567)))

	huge, ok := new(big.Int).SetString("31527023896396252559422463", 10)
	assert.True(t, ok)
	assert.Equal(t, "31527023896396252559422463", formatCount(huge))
}

func TestCgpLabel(t *testing.T) {
	assert.Equal(t, "cgp-0042", cgpLabel(42))
	assert.Equal(t, "", cgpLabel(0))
}
