package encoding

import (
	"bytes"
	"fmt"
	"io"
	"unicode/utf8"

	"github.com/saintfish/chardet"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
)

var (
	bomUTF8    = []byte{0xEF, 0xBB, 0xBF}
	bomUTF16LE = []byte{0xFF, 0xFE}
	bomUTF16BE = []byte{0xFE, 0xFF}
)

// ReadText reads at most limit bytes from r and returns them as UTF-8 text.
// Error pages served by SEFAZ portals are frequently ISO-8859-1, so the
// charset is detected before the bytes reach a log line.
//
// Detection order:
//  1. BOM (UTF-8 BOM is stripped; UTF-16 LE/BE is decoded)
//  2. Valid UTF-8 is returned as-is
//  3. Heuristic detection via chardet
//  4. Fallback to Windows-1252
func ReadText(r io.Reader, limit int64) (string, error) {
	buf, err := io.ReadAll(io.LimitReader(r, limit))
	if err != nil {
		return "", fmt.Errorf("reading body: %w", err)
	}

	return Decode(buf)
}

// Decode converts raw bytes of unknown charset into a UTF-8 string.
func Decode(buf []byte) (string, error) {
	dec := detect(buf)
	if dec == nil {
		return string(bytes.TrimPrefix(buf, bomUTF8)), nil
	}

	out, err := dec.NewDecoder().Bytes(buf)
	if err != nil {
		return "", fmt.Errorf("decoding body: %w", err)
	}

	return string(out), nil
}

// detect returns nil when buf is already UTF-8.
func detect(buf []byte) encoding.Encoding {
	switch {
	case bytes.HasPrefix(buf, bomUTF8):
		return nil
	case bytes.HasPrefix(buf, bomUTF16LE):
		return unicode.UTF16(unicode.LittleEndian, unicode.UseBOM)
	case bytes.HasPrefix(buf, bomUTF16BE):
		return unicode.UTF16(unicode.BigEndian, unicode.UseBOM)
	}

	if utf8.Valid(buf) {
		return nil
	}

	result, err := chardet.NewTextDetector().DetectBest(buf)
	if err == nil {
		switch result.Charset {
		case "UTF-8":
			return nil
		case "ISO-8859-1", "windows-1252":
			return charmap.Windows1252
		case "ISO-8859-9":
			return charmap.ISO8859_9
		}
	}

	return charmap.Windows1252
}
