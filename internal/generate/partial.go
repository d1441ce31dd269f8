package generate

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"unicode/utf8"

	"github.com/pavelanni/pdfquiz/internal/model"
)

type frame struct {
	closer    byte
	expectKey bool
}

// completeJSON returns the longest prefix of buf that can be closed into a
// well-formed JSON document, with the missing quote and brackets appended.
// Text before the first '{' or '[' and after the top-level value is ignored.
// Cut points are only taken after a complete value, right after an opening
// bracket, or inside a string value, so the result never ends in a dangling
// key, colon or comma.
func completeJSON(buf []byte) ([]byte, bool) {
	start := bytes.IndexAny(buf, "{[")
	if start < 0 {
		return nil, false
	}
	s := buf[start:]

	var (
		stack       []frame
		inString    bool
		isKey       bool
		escape      bool
		unicodeLeft int

		cutPos   = -1
		cutExtra string
		cutClose []byte
	)
	mark := func(pos int, extra string) {
		cutPos = pos
		cutExtra = extra
		cutClose = cutClose[:0]
		for k := len(stack) - 1; k >= 0; k-- {
			cutClose = append(cutClose, stack[k].closer)
		}
	}
	top := func() *frame {
		if len(stack) == 0 {
			return nil
		}
		return &stack[len(stack)-1]
	}

scan:
	for i := 0; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case unicodeLeft > 0:
				unicodeLeft--
			case escape:
				escape = false
				if c == 'u' {
					unicodeLeft = 4
				}
			case c == '\\':
				escape = true
			case c == '"':
				inString = false
				if isKey {
					top().expectKey = false
				} else {
					mark(i+1, "")
				}
				continue
			}
			if !isKey && !escape && unicodeLeft == 0 && runeBoundary(s, i) {
				mark(i+1, `"`)
			}
			continue
		}

		switch c {
		case '{':
			stack = append(stack, frame{closer: '}', expectKey: true})
			mark(i+1, "")
		case '[':
			stack = append(stack, frame{closer: ']'})
			mark(i+1, "")
		case '}', ']':
			if len(stack) == 0 || stack[len(stack)-1].closer != c {
				break scan
			}
			stack = stack[:len(stack)-1]
			mark(i+1, "")
			if len(stack) == 0 {
				break scan
			}
		case '"':
			inString = true
			f := top()
			isKey = f != nil && f.closer == '}' && f.expectKey
			if !isKey {
				mark(i+1, `"`)
			}
		case ',':
			if f := top(); f != nil && f.closer == '}' {
				f.expectKey = true
			}
		case ':', ' ', '\t', '\n', '\r':
		default:
			// Number or literal: only complete once a delimiter follows.
			j := i
			for j < len(s) && !isDelimiter(s[j]) {
				j++
			}
			if j == len(s) {
				break scan
			}
			mark(j, "")
			i = j - 1
		}
	}

	if cutPos < 0 {
		return nil, false
	}
	out := make([]byte, 0, cutPos+len(cutExtra)+len(cutClose))
	out = append(out, s[:cutPos]...)
	out = append(out, cutExtra...)
	out = append(out, cutClose...)
	return out, true
}

func isDelimiter(c byte) bool {
	switch c {
	case ',', '}', ']', ' ', '\t', '\n', '\r', ':', '"':
		return true
	}
	return false
}

// runeBoundary reports whether a cut after s[i] keeps multi-byte runes whole.
func runeBoundary(s []byte, i int) bool {
	if s[i] < utf8.RuneSelf {
		return true
	}
	return i+1 < len(s) && s[i+1]&0xC0 != 0x80
}

// scanValues walks the '{' and '[' positions of buf that could begin the
// model's JSON value, calling visit with the decoded value or the decode
// error until visit returns true. Prose ahead of the value may hold brackets
// of its own, so after a complete value the walk resumes past its end, and
// after anything else past its first byte.
func scanValues(buf []byte, visit func(start int, raw json.RawMessage, err error) bool) {
	for off := 0; off < len(buf); {
		i := bytes.IndexAny(buf[off:], "{[")
		if i < 0 {
			return
		}
		start := off + i
		dec := json.NewDecoder(bytes.NewReader(buf[start:]))
		var raw json.RawMessage
		err := dec.Decode(&raw)
		if visit(start, raw, err) {
			return
		}
		off = start + 1
		if err == nil {
			off = start + int(dec.InputOffset())
		}
	}
}

// decodePartial decodes whatever prefix of the model output is usable.
func decodePartial(buf []byte) (model.PartialQuiz, bool) {
	var (
		questions []model.PartialQuestion
		found     bool
	)
	scanValues(buf, func(start int, raw json.RawMessage, err error) bool {
		switch {
		case err == nil:
			found = decodeQuestions(raw, &questions) == nil
			return found
		case errors.Is(err, io.ErrUnexpectedEOF):
			// The value is still streaming; it is the answer either way.
			fixed, ok := completeJSON(buf[start:])
			found = ok && decodeQuestions(fixed, &questions) == nil
			return true
		}
		return false
	})
	if !found {
		return model.PartialQuiz{}, false
	}
	return model.PartialQuiz{Questions: questions}, true
}

// decodeQuiz strictly decodes the complete model output. When no candidate
// value holds a quiz, the error describes the first one.
func decodeQuiz(buf []byte) (model.Quiz, error) {
	var (
		quiz     model.Quiz
		found    bool
		firstErr error
	)
	scanValues(buf, func(_ int, raw json.RawMessage, err error) bool {
		if err != nil {
			err = fmt.Errorf("model output is not valid JSON: %w", err)
		} else {
			var questions []model.Question
			if err = decodeQuestions(raw, &questions); err == nil {
				quiz, found = model.Quiz{Questions: questions}, true
				return true
			}
		}
		if firstErr == nil {
			firstErr = err
		}
		return false
	})
	switch {
	case found:
		return quiz, nil
	case firstErr != nil:
		return model.Quiz{}, firstErr
	}
	return model.Quiz{}, errors.New("model output contains no JSON value")
}

// decodeQuestions accepts a bare array or an object wrapping it, either under
// "questions" or as the object's only member.
func decodeQuestions[T any](data []byte, out *[]T) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '[' {
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("decode question array: %w", err)
		}
		return nil
	}

	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(data, &envelope); err != nil {
		return fmt.Errorf("decode quiz object: %w", err)
	}
	inner, ok := envelope["questions"]
	if !ok {
		if len(envelope) != 1 {
			if len(envelope) == 0 {
				*out = nil
				return nil
			}
			return errors.New(`quiz object has no "questions" array`)
		}
		for _, v := range envelope {
			inner = v
		}
	}
	if err := json.Unmarshal(inner, out); err != nil {
		return fmt.Errorf("decode questions: %w", err)
	}
	return nil
}
