// Package naming turns client supplied file names into safe, collision-free
// blob names.
//
// Sanitize strips everything that could escape the blob store root or
// confuse a shell or browser: the name is NFKD-normalized, reduced to ASCII,
// path separators become spaces, runs of whitespace become a single "_" and
// only [A-Za-z0-9_.-] survives. Leading and trailing "." and "_" are trimmed
// from the base name, never from the extension. Resolve then appends _1, _2, ... to the base
// name until the result is not taken, keeping the extension.
//
// Resolve is pure. Callers that write blobs concurrently must serialize
// "resolve + exclusive create" themselves.
package naming

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/dmitrijs2005/gophlocker/internal/common"
	"golang.org/x/text/unicode/norm"
)

// MaxAttempts bounds the number of suffixes tried by Resolve.
const MaxAttempts = 10000

const maxBaseLen = 200

var ErrExhausted = errors.New("no free name left")

// Windows device names are legal on unix but poison for anyone downloading
// the file on Windows; they get a leading underscore.
var reservedNames = map[string]struct{}{
	"CON": {}, "PRN": {}, "AUX": {}, "NUL": {},
	"COM1": {}, "COM2": {}, "COM3": {}, "COM4": {}, "COM5": {}, "COM6": {}, "COM7": {}, "COM8": {}, "COM9": {},
	"LPT1": {}, "LPT2": {}, "LPT3": {}, "LPT4": {}, "LPT5": {}, "LPT6": {}, "LPT7": {}, "LPT8": {}, "LPT9": {},
}

// Sanitize returns the safe form of name or ErrInvalidName when nothing is left.
func Sanitize(name string) (string, error) {
	decomposed := norm.NFKD.String(name)

	var b strings.Builder
	for _, r := range decomposed {
		switch {
		case r > unicode.MaxASCII:
			continue
		case r == '/' || r == '\\':
			b.WriteRune(' ')
		default:
			b.WriteRune(r)
		}
	}

	joined := strings.Join(strings.Fields(b.String()), "_")

	b.Reset()
	for _, r := range joined {
		if isSafe(r) {
			b.WriteRune(r)
		}
	}

	// the extension is split off before trimming so a name like ".png"
	// cannot lose it and turn into a bare "png"
	base, ext := Split(strings.TrimRight(b.String(), "._"))
	base = strings.Trim(base, "._")
	if base == "" {
		return "", fmt.Errorf("%w: %q", common.ErrInvalidName, name)
	}
	safe := base + ext

	if _, bad := reservedNames[strings.ToUpper(base)]; bad {
		safe = "_" + safe
	}
	return safe, nil
}

func isSafe(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') ||
		r == '_' || r == '.' || r == '-'
}

// Split separates the extension (including its dot) from the base name.
func Split(name string) (base, ext string) {
	ext = filepath.Ext(name)
	return strings.TrimSuffix(name, ext), ext
}

// Candidate returns the n-th name derived from base and ext; n == 0 is the
// unmodified name.
func Candidate(base, ext string, n int) string {
	if n == 0 {
		return base + ext
	}
	return fmt.Sprintf("%s_%d%s", base, n, ext)
}

// Resolve sanitizes requested and returns the first candidate for which
// taken reports false.
func Resolve(requested string, taken func(string) bool) (string, error) {
	safe, err := Sanitize(requested)
	if err != nil {
		return "", err
	}

	base, ext := Split(safe)
	if len(base) > maxBaseLen {
		base = base[:maxBaseLen]
	}

	for n := 0; n < MaxAttempts; n++ {
		name := Candidate(base, ext, n)
		if !taken(name) {
			return name, nil
		}
	}
	return "", fmt.Errorf("%w for %q", ErrExhausted, safe)
}
