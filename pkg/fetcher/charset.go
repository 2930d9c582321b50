package fetcher

import (
	"unicode/utf8"

	"github.com/saintfish/chardet"
	"golang.org/x/net/html/charset"

	"github.com/jmylchreest/feedclean/internal/logger"
)

const (
	// minConfidence is the chardet score below which a guess is ignored.
	minConfidence = 50
	// fallbackCharset is what DetermineEncoding reports when neither a BOM,
	// header nor meta tag named an encoding.
	fallbackCharset = "windows-1252"
)

// decodeBody converts body to UTF-8 and returns the charset it was read as.
// Colly already converts bodies whose Content-Type declares a charset, so a
// valid UTF-8 body is returned untouched.
func decodeBody(body []byte, contentType string) ([]byte, string) {
	if utf8.Valid(body) {
		return body, "utf-8"
	}

	enc, name, certain := charset.DetermineEncoding(body, contentType)
	if !certain && name == fallbackCharset {
		if guess, err := chardet.NewTextDetector().DetectBest(body); err == nil && guess.Confidence >= minConfidence {
			if e, canonical := charset.Lookup(guess.Charset); e != nil {
				enc, name = e, canonical
			}
		}
	}

	decoded, err := enc.NewDecoder().Bytes(body)
	if err != nil {
		logger.Debug("charset decode failed, keeping raw body", "charset", name, "error", err)
		return body, "unknown"
	}
	return decoded, name
}
