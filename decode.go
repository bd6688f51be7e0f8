package serialmon

import (
	"bytes"
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
)

const (
	EncodingUTF8        = "utf-8"
	EncodingASCII       = "ascii"
	EncodingLatin1      = "latin-1"
	EncodingWindows1252 = "windows-1252"
)

var encodings = map[string]encoding.Encoding{
	EncodingUTF8:        unicode.UTF8,
	EncodingLatin1:      charmap.ISO8859_1,
	EncodingWindows1252: charmap.Windows1252,
}

// replacement is U+FFFD as it appears in UTF-8 input.
var replacement = []byte(string(utf8.RuneError))

var encodingAliases = map[string]string{
	"utf8":       EncodingUTF8,
	"us-ascii":   EncodingASCII,
	"latin1":     EncodingLatin1,
	"iso-8859-1": EncodingLatin1,
	"cp1252":     EncodingWindows1252,
}

// Decoder turns raw line bytes into text. Bytes that are not valid in the
// chosen encoding are replaced with U+FFFD rather than rejected.
type Decoder struct {
	name string
	enc  encoding.Encoding
}

// NewDecoder returns a decoder for one of the supported encodings.
func NewDecoder(name string) (*Decoder, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	if alias, ok := encodingAliases[n]; ok {
		n = alias
	}
	if n == EncodingASCII {
		return &Decoder{name: n}, nil
	}
	if enc, ok := encodings[n]; ok {
		return &Decoder{name: n, enc: enc}, nil
	}
	return nil, fmt.Errorf("%w %q", ErrUnknownEncoding, name)
}

func (d *Decoder) Name() string {
	return d.name
}

// Decode returns the text of raw and how many replacement characters were
// substituted for undecodable input. Invalid UTF-8 is replaced one maximal
// subpart at a time, so a truncated multi-byte sequence yields a single
// U+FFFD.
func (d *Decoder) Decode(raw []byte) (string, int) {
	if d.enc == nil {
		return decodeASCII(raw)
	}
	out, err := d.enc.NewDecoder().Bytes(raw)
	if err != nil {
		// the x/text decoders used here replace rather than fail
		return decodeASCII(raw)
	}
	replaced := bytes.Count(out, replacement)
	if d.name == EncodingUTF8 {
		// U+FFFD already present in the input was not a substitution
		replaced -= bytes.Count(raw, replacement)
	}
	return string(out), replaced
}

func decodeASCII(raw []byte) (string, int) {
	var (
		sb       strings.Builder
		replaced int
	)
	sb.Grow(len(raw))
	for _, b := range raw {
		if b >= utf8.RuneSelf {
			sb.WriteRune(utf8.RuneError)
			replaced++
			continue
		}
		sb.WriteByte(b)
	}
	return sb.String(), replaced
}
