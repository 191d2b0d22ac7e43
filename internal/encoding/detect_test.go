package encoding_test

import (
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mfigueiredo/ledgerhawk/internal/encoding"
)

func decode(t *testing.T, input string) string {
	t.Helper()

	r, err := encoding.NewUTF8Reader(strings.NewReader(input))
	require.NoError(t, err)

	out, err := io.ReadAll(r)
	require.NoError(t, err)

	return string(out)
}

func TestNewUTF8Reader(t *testing.T) {
	t.Run("PlainUTF8", func(t *testing.T) {
		assert.Equal(t, "São Paulo, Brazil", decode(t, "São Paulo, Brazil"))
	})

	t.Run("UTF8BOMStripped", func(t *testing.T) {
		assert.Equal(t, "TransactionID,Amount", decode(t, "\xEF\xBB\xBFTransactionID,Amount"))
	})

	t.Run("UTF16LE", func(t *testing.T) {
		// "ab" in UTF-16 LE with BOM.
		input := "\xFF\xFE" + "a\x00b\x00"
		assert.Equal(t, "ab", decode(t, input))
	})

	t.Run("UTF16BE", func(t *testing.T) {
		input := "\xFE\xFF" + "\x00a\x00b"
		assert.Equal(t, "ab", decode(t, input))
	})

	t.Run("Windows1252Fallback", func(t *testing.T) {
		// 0xE9 is é in Windows-1252 and invalid standalone UTF-8.
		assert.Equal(t, "café", decode(t, "caf\xE9"))
	})
}
