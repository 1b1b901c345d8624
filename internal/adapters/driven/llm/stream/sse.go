package stream

import (
	"bufio"
	"bytes"
	"io"
	"strings"
)

// maxLine bounds a single SSE or NDJSON line.
const maxLine = 1 << 20

// Event is one server-sent event.
type Event struct {
	Name string
	Data string
}

// SSEReader reads server-sent events one at a time.
type SSEReader struct {
	scanner *bufio.Scanner
}

// NewSSEReader wraps r.
func NewSSEReader(r io.Reader) *SSEReader {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLine)
	return &SSEReader{scanner: sc}
}

// Next returns the next event with data. It returns io.EOF at the end of
// the body; a trailing event without a blank line is still delivered.
func (r *SSEReader) Next() (Event, error) {
	var (
		name      string
		dataLines []string
	)
	for r.scanner.Scan() {
		line := strings.TrimRight(r.scanner.Text(), "\r")

		// Blank line ends event.
		if line == "" {
			if len(dataLines) > 0 {
				return Event{Name: name, Data: strings.Join(dataLines, "\n")}, nil
			}
			name = ""
			continue
		}

		// Comment.
		if strings.HasPrefix(line, ":") {
			continue
		}

		if v, ok := strings.CutPrefix(line, "event:"); ok {
			name = strings.TrimSpace(v)
			continue
		}

		if v, ok := strings.CutPrefix(line, "data:"); ok {
			dataLines = append(dataLines, strings.TrimPrefix(v, " "))
			continue
		}
	}
	if err := r.scanner.Err(); err != nil {
		return Event{}, err
	}
	if len(dataLines) > 0 {
		return Event{Name: name, Data: strings.Join(dataLines, "\n")}, nil
	}
	return Event{}, io.EOF
}

// LineReader reads non-blank lines, as used by NDJSON streams.
type LineReader struct {
	scanner *bufio.Scanner
}

// NewLineReader wraps r.
func NewLineReader(r io.Reader) *LineReader {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLine)
	return &LineReader{scanner: sc}
}

// Next returns the next non-blank line, or io.EOF. The slice is only valid
// until the following call.
func (r *LineReader) Next() ([]byte, error) {
	for r.scanner.Scan() {
		line := r.scanner.Bytes()
		if len(bytes.TrimSpace(line)) == 0 {
			continue
		}
		return line, nil
	}
	if err := r.scanner.Err(); err != nil {
		return nil, err
	}
	return nil, io.EOF
}
