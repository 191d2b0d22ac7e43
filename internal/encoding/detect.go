package encoding

import (
	"bufio"
	"fmt"
	"io"
	"unicode/utf8"

	"github.com/saintfish/chardet"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// NewUTF8Reader wraps r so its content comes out as UTF-8 regardless of the
// upload's original encoding. Ledger exports come from spreadsheets and
// bank portals, so UTF-16 with BOM and Windows-1252 both show up in
// practice.
//
// Detection order: BOM, UTF-8 validation, chardet heuristics, then a
// Windows-1252 fallback.
func NewUTF8Reader(r io.Reader) (io.Reader, error) {
	br := bufio.NewReader(r)

	buf, err := br.Peek(4096)
	if err != nil && err != io.EOF {
		return nil, fmt.Errorf("peek: %w", err)
	}

	// BOMOverride decodes UTF-16 (either endianness) and strips a UTF-8
	// BOM, falling through to the inner decoder when no BOM is present.
	if hasBOM(buf) {
		decoder := unicode.BOMOverride(unicode.UTF8.NewDecoder())
		return transform.NewReader(br, decoder), nil
	}

	if utf8.Valid(buf) {
		return br, nil
	}

	if result, err := chardet.NewTextDetector().DetectBest(buf); err == nil {
		switch result.Charset {
		case "UTF-8":
			return br, nil
		case "ISO-8859-1", "windows-1252":
			return transform.NewReader(br, charmap.Windows1252.NewDecoder()), nil
		case "ISO-8859-15":
			return transform.NewReader(br, charmap.ISO8859_15.NewDecoder()), nil
		}
	}

	return transform.NewReader(br, charmap.Windows1252.NewDecoder()), nil
}

func hasBOM(buf []byte) bool {
	if len(buf) >= 3 && buf[0] == 0xEF && buf[1] == 0xBB && buf[2] == 0xBF {
		return true
	}

	// UTF-16 LE / BE.
	return len(buf) >= 2 &&
		((buf[0] == 0xFF && buf[1] == 0xFE) || (buf[0] == 0xFE && buf[1] == 0xFF))
}
