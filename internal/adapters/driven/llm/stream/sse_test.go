package stream

import (
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSSEReader_Events(t *testing.T) {
	body := ": keep-alive\n" +
		"data: {\"a\":1}\n\n" +
		"event: delta\r\n" +
		"data: line one\r\n" +
		"data: line two\r\n\r\n" +
		"event: ignored\n\n" +
		"data:tight"
	r := NewSSEReader(strings.NewReader(body))

	ev, err := r.Next()
	require.NoError(t, err)
	assert.Equal(t, Event{Data: `{"a":1}`}, ev)

	ev, err = r.Next()
	require.NoError(t, err)
	assert.Equal(t, Event{Name: "delta", Data: "line one\nline two"}, ev)

	ev, err = r.Next()
	require.NoError(t, err)
	assert.Equal(t, Event{Data: "tight"}, ev)

	_, err = r.Next()
	assert.ErrorIs(t, err, io.EOF)
}

func TestSSEReader_Empty(t *testing.T) {
	_, err := NewSSEReader(strings.NewReader("")).Next()
	assert.ErrorIs(t, err, io.EOF)
}

func TestLineReader(t *testing.T) {
	r := NewLineReader(strings.NewReader("{\"x\":1}\n\n  \n{\"x\":2}"))

	line, err := r.Next()
	require.NoError(t, err)
	assert.JSONEq(t, `{"x":1}`, string(line))

	line, err = r.Next()
	require.NoError(t, err)
	assert.JSONEq(t, `{"x":2}`, string(line))

	_, err = r.Next()
	assert.ErrorIs(t, err, io.EOF)
}

func TestLineReader_TooLong(t *testing.T) {
	r := NewLineReader(strings.NewReader(strings.Repeat("x", maxLine+1)))

	_, err := r.Next()
	require.Error(t, err)
	assert.NotErrorIs(t, err, io.EOF)
}
