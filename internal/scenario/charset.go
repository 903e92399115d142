package scenario

import (
	"bytes"
	"fmt"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
)

// Encoding names a text encoding accepted for customer tables.
type Encoding string

const (
	EncodingUTF8        Encoding = "utf-8"
	EncodingUTF16LE     Encoding = "utf-16le"
	EncodingUTF16BE     Encoding = "utf-16be"
	EncodingWindows1250 Encoding = "windows-1250"
	EncodingISO88592    Encoding = "iso-8859-2"
)

var (
	bomUTF8    = []byte{0xEF, 0xBB, 0xBF}
	bomUTF16LE = []byte{0xFF, 0xFE}
	bomUTF16BE = []byte{0xFE, 0xFF}
)

// DetectEncoding guesses the encoding of data. A BOM wins; valid UTF-8 is
// UTF-8; anything else is treated as Windows-1250, the usual export encoding
// of Central European spreadsheet tools.
func DetectEncoding(data []byte) Encoding {
	switch {
	case bytes.HasPrefix(data, bomUTF8):
		return EncodingUTF8
	case bytes.HasPrefix(data, bomUTF16LE):
		return EncodingUTF16LE
	case bytes.HasPrefix(data, bomUTF16BE):
		return EncodingUTF16BE
	case utf8.Valid(data):
		return EncodingUTF8
	default:
		return EncodingWindows1250
	}
}

// DecodeText converts data in enc to a UTF-8 string without BOM. An empty
// enc triggers detection.
func DecodeText(data []byte, enc Encoding) (string, error) {
	if enc == "" {
		enc = DetectEncoding(data)
	}

	var e encoding.Encoding
	switch enc {
	case EncodingUTF8:
		return string(bytes.TrimPrefix(data, bomUTF8)), nil
	case EncodingUTF16LE:
		e = unicode.UTF16(unicode.LittleEndian, unicode.ExpectBOM)
	case EncodingUTF16BE:
		e = unicode.UTF16(unicode.BigEndian, unicode.ExpectBOM)
	case EncodingWindows1250:
		e = charmap.Windows1250
	case EncodingISO88592:
		e = charmap.ISO8859_2
	default:
		return "", fmt.Errorf("unsupported encoding %q", enc)
	}

	out, err := e.NewDecoder().Bytes(data)
	if err != nil {
		return "", fmt.Errorf("decode %s: %w", enc, err)
	}
	return string(out), nil
}
