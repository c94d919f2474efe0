package submission

import (
	"golang.org/x/net/html/charset"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// what charset package assumes when content is not UTF-8 and declares nothing
const guessed = "windows-1252"

// decode converts data to UTF-8. Byte order mark wins, then declared encoding
// (meta for html). Forced code page replaces the guess for content which is
// neither UTF-8 nor declares anything.
func decode(data []byte, contentType string, forced encoding.Encoding) (string, error) {
	enc, name, certain := charset.DetermineEncoding(data, contentType)
	if forced != nil && !certain && name == guessed {
		enc = forced
	}
	out, _, err := transform.Bytes(unicode.BOMOverride(enc.NewDecoder()), data)
	if err != nil {
		return "", err
	}
	return string(out), nil
}
