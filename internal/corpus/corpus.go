// Package corpus reads the training corpus: one example per line, encoded as
// "<name_length> <name><label>" where name_length is the byte length of name.
package corpus

import (
	"bufio"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/crimson-sun/iconclass/internal/model"
)

const maxLineSize = 1 << 20

// Corpus is a fully parsed training corpus.
type Corpus struct {
	Records     []model.Record
	Fingerprint string // hex SHA-256 of the raw corpus bytes
}

// ParseError reports a malformed corpus line.
type ParseError struct {
	Line int // 1-based
	Text string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("corpus: line %d %q: %v", e.Line, truncate(e.Text, 64), e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

var (
	ErrMissingLength = errors.New("missing length prefix")
	ErrBadLength     = errors.New("length prefix is not a decimal integer")
	ErrLengthRange   = errors.New("length prefix exceeds line length")
)

// ParseLine splits one corpus line into its name and label.
func ParseLine(line string) (model.Record, error) {
	prefix, rest, ok := strings.Cut(line, " ")
	if !ok {
		return model.Record{}, ErrMissingLength
	}
	n, err := strconv.ParseUint(prefix, 10, 0)
	if err != nil {
		return model.Record{}, ErrBadLength
	}
	if n > uint64(len(rest)) {
		return model.Record{}, ErrLengthRange
	}
	return model.Record{Name: rest[:n], Label: rest[n:]}, nil
}

// Read parses every line of r. A leading byte order mark is skipped and CRLF
// line endings are accepted. The first malformed line aborts with a *ParseError.
func Read(r io.Reader) (Corpus, error) {
	h := sha256.New()
	tr := transform.NewReader(io.TeeReader(r, h), unicode.BOMOverride(transform.Nop))

	scanner := bufio.NewScanner(tr)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	var records []model.Record
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		text := scanner.Text()
		rec, err := ParseLine(text)
		if err != nil {
			return Corpus{}, &ParseError{Line: lineNo, Text: text, Err: err}
		}
		records = append(records, rec)
	}
	if err := scanner.Err(); err != nil {
		return Corpus{}, fmt.Errorf("corpus: read error: %w", err)
	}

	return Corpus{
		Records:     records,
		Fingerprint: hex.EncodeToString(h.Sum(nil)),
	}, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
