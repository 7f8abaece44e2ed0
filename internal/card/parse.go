package card

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode"
)

// ErrMalformedExtraction indicates the extraction response was not a flat
// JSON object once code-fence wrapping was removed.
var ErrMalformedExtraction = errors.New("malformed extraction response")

const codeFence = "```"

// Parse interprets a raw extraction response as a PartialRecord.
func Parse(raw string) (PartialRecord, error) {
	body := stripCodeFence(raw)
	if body == "" {
		return PartialRecord{}, fmt.Errorf("%w: empty content", ErrMalformedExtraction)
	}

	dec := json.NewDecoder(strings.NewReader(body))
	dec.UseNumber()

	var fields map[string]json.RawMessage
	if err := dec.Decode(&fields); err != nil {
		return PartialRecord{}, fmt.Errorf("%w: %v", ErrMalformedExtraction, err)
	}
	if fields == nil {
		return PartialRecord{}, fmt.Errorf("%w: expected object, got null", ErrMalformedExtraction)
	}
	var trailing json.RawMessage
	if err := dec.Decode(&trailing); !errors.Is(err, io.EOF) {
		return PartialRecord{}, fmt.Errorf("%w: trailing content after object", ErrMalformedExtraction)
	}

	record := PartialRecord{Scalars: make(map[string]string, len(fields))}
	for key, value := range fields {
		if !IsRecognizedKey(key) {
			continue
		}
		if key == KeyInjury {
			record.Injury = decodeInjury(value)
			continue
		}
		if text, ok := decodeScalar(value); ok {
			record.Scalars[key] = text
		}
	}
	return record, nil
}

// stripCodeFence removes a surrounding ``` block and its language tag. A
// closing fence without an opening one is dropped as well.
func stripCodeFence(raw string) string {
	text := strings.TrimSpace(raw)
	if !strings.HasPrefix(text, codeFence) {
		return strings.TrimSpace(strings.TrimSuffix(text, codeFence))
	}

	text = strings.TrimPrefix(text, codeFence)
	if end := strings.Index(text, codeFence); end >= 0 {
		text = text[:end]
	}
	text = strings.TrimLeftFunc(text, func(r rune) bool {
		return unicode.IsLetter(r) || unicode.IsDigit(r)
	})
	return strings.TrimSpace(text)
}

func decodeScalar(raw json.RawMessage) (string, bool) {
	value := bytes.TrimSpace(raw)
	if len(value) == 0 {
		return "", false
	}

	switch value[0] {
	case '"':
		var text string
		if err := json.Unmarshal(value, &text); err != nil {
			return "", false
		}
		return text, true
	case 't', 'f':
		return string(value), true
	case 'n', '{', '[':
		return "", false
	default:
		// numbers keep their literal text
		return string(value), true
	}
}

func decodeInjury(raw json.RawMessage) []string {
	value := bytes.TrimSpace(raw)
	if len(value) == 0 {
		return nil
	}

	switch value[0] {
	case '"':
		var entry string
		if err := json.Unmarshal(value, &entry); err != nil {
			return nil
		}
		return []string{entry}
	case '[':
		var items []json.RawMessage
		if err := json.Unmarshal(value, &items); err != nil {
			return nil
		}
		entries := make([]string, 0, len(items))
		for _, item := range items {
			var entry string
			if err := json.Unmarshal(item, &entry); err != nil {
				continue
			}
			entries = append(entries, entry)
		}
		return entries
	default:
		return nil
	}
}
