package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// standardizeJSONC turns JSONC into plain JSON by overwriting comments and
// trailing commas with spaces. Every other byte keeps its offset, so decoder
// errors point at the original line and column.
func standardizeJSONC(content []byte) ([]byte, error) {
	out := bytes.Clone(content)
	pendingComma := -1

	for i := 0; i < len(out); i++ {
		switch c := out[i]; {
		case c == '"':
			i = stringEnd(out, i)
			pendingComma = -1
		case c == '/' && peek(out, i+1) == '/':
			for ; i < len(out) && out[i] != '\n' && out[i] != '\r'; i++ {
				out[i] = ' '
			}
		case c == '/' && peek(out, i+1) == '*':
			end := bytes.Index(out[i+2:], []byte("*/"))
			if end < 0 {
				line, col := lineCol(out, int64(i+1))
				return nil, fmt.Errorf("line %d column %d: unterminated block comment", line, col)
			}
			stop := i + 2 + end + 2
			blank(out[i:stop])
			i = stop - 1
		case c == ',':
			pendingComma = i
		case c == '}' || c == ']':
			if pendingComma >= 0 {
				out[pendingComma] = ' '
			}
			pendingComma = -1
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
		default:
			pendingComma = -1
		}
	}
	return out, nil
}

// stringEnd returns the index of the quote closing the string opened at
// start, or the last index when the string is unterminated.
func stringEnd(b []byte, start int) int {
	for i := start + 1; i < len(b); i++ {
		switch b[i] {
		case '\\':
			i++
		case '"':
			return i
		}
	}
	return len(b) - 1
}

func peek(b []byte, i int) byte {
	if i < len(b) {
		return b[i]
	}
	return 0
}

// blank replaces comment bytes with spaces, keeping line structure.
func blank(b []byte) {
	for i, c := range b {
		if c != '\n' && c != '\r' && c != '\t' {
			b[i] = ' '
		}
	}
}

// decodeStrict decodes exactly one JSON value into v, rejecting unknown
// fields and trailing values. Errors carry the line and column.
func decodeStrict(content []byte, v any) error {
	decoder := json.NewDecoder(bytes.NewReader(content))
	decoder.DisallowUnknownFields()

	err := decoder.Decode(v)
	if err == nil {
		var extra json.RawMessage
		switch extraErr := decoder.Decode(&extra); {
		case errors.Is(extraErr, io.EOF):
			return nil
		case extraErr == nil:
			err = errors.New("multiple JSON values are not allowed")
		default:
			err = extraErr
		}
	}

	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	switch {
	case errors.As(err, &syntaxErr):
		line, col := lineCol(content, syntaxErr.Offset)
		return fmt.Errorf("line %d column %d: %w", line, col, err)
	case errors.As(err, &typeErr):
		line, col := lineCol(content, typeErr.Offset)
		return fmt.Errorf("line %d column %d: %w", line, col, err)
	default:
		return err
	}
}

// lineCol maps a decoder offset (bytes consumed) to the 1-based position of
// the last consumed byte.
func lineCol(content []byte, offset int64) (int, int) {
	n := int(max(min(offset-1, int64(len(content))-1), 0))
	before := content[:n]
	line := bytes.Count(before, []byte{'\n'}) + 1
	col := n - bytes.LastIndexByte(before, '\n')
	return line, col
}
