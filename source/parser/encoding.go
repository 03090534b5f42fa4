package parser

import (
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

// DecodeText returns content as a string. Valid UTF-8 passes through
// unchanged; anything else is decoded as ISO-8859-1.
func DecodeText(content []byte) string {
	if utf8.Valid(content) {
		return string(content)
	}
	decoded, err := charmap.ISO8859_1.NewDecoder().Bytes(content)
	if err != nil {
		return string(content)
	}
	return string(decoded)
}
