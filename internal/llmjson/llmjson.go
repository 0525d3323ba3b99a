// Package llmjson pulls JSON payloads out of free-form model replies.
package llmjson

import (
	"bytes"
	"encoding/json"
	"errors"
	"math"
	"strconv"
	"strings"
)

var ErrNoJSON = errors.New("no JSON payload in model reply")

// Clean strips a ```json or ``` fence around the payload, wherever it appears in the reply.
func Clean(input string) string {
	clean := strings.TrimSpace(input)
	if i := strings.Index(clean, "```json"); i >= 0 {
		clean = clean[i+len("```json"):]
	} else if i := strings.Index(clean, "```"); i >= 0 {
		clean = clean[i+len("```"):]
	} else {
		return clean
	}
	if j := strings.Index(clean, "```"); j >= 0 {
		clean = clean[:j]
	}
	return strings.TrimSpace(clean)
}

// Extract returns the JSON text delimited by open/close ('{','}' or '[',']').
// Fenced payloads win; otherwise the span from the first open to the last close is used.
func Extract(reply string, open, close byte) (string, error) {
	clean := Clean(reply)
	if clean != "" && clean[0] == open && json.Valid([]byte(clean)) {
		return clean, nil
	}
	start := strings.IndexByte(clean, open)
	end := strings.LastIndexByte(clean, close)
	if start < 0 || end <= start {
		return "", ErrNoJSON
	}
	return clean[start : end+1], nil
}

// DecodeObject decodes the first JSON object of a reply into v.
func DecodeObject(reply string, v any) error {
	raw, err := Extract(reply, '{', '}')
	if err != nil {
		return err
	}
	return json.Unmarshal([]byte(raw), v)
}

// DecodeArray decodes the JSON array of a reply into v.
func DecodeArray(reply string, v any) error {
	raw, err := Extract(reply, '[', ']')
	if err != nil {
		return err
	}
	return json.Unmarshal([]byte(raw), v)
}

// Truncate keeps at most n runes of s.
func Truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	if len(s) <= n {
		return s
	}
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

// Float accepts a JSON number, a numeric string or null. NaN and infinities are
// treated as missing.
type Float struct {
	Value float64
	Valid bool
}

func (f *Float) UnmarshalJSON(b []byte) error {
	*f = Float{}
	b = bytes.TrimSpace(b)
	if len(b) == 0 || string(b) == "null" {
		return nil
	}
	s := strings.Trim(string(b), `"`)
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	f.Value, f.Valid = v, true
	return nil
}

func (f Float) Ptr() *float64 {
	if !f.Valid {
		return nil
	}
	v := f.Value
	return &v
}

// Int accepts a JSON number, a numeric string (spaces allowed) or null.
type Int struct {
	Value int
	Valid bool
}

func (i *Int) UnmarshalJSON(b []byte) error {
	var f Float
	if string(bytes.TrimSpace(b)) != "null" {
		s := strings.ReplaceAll(strings.Trim(string(b), `"`), " ", "")
		_ = f.UnmarshalJSON([]byte(s))
	}
	*i = Int{Value: int(f.Value), Valid: f.Valid}
	return nil
}

func (i Int) Ptr() *int {
	if !i.Valid {
		return nil
	}
	v := i.Value
	return &v
}

// Text accepts a JSON string; any other value is kept as its compact JSON text.
type Text string

func (t *Text) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if string(b) == "null" {
		*t = ""
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*t = Text(s)
		return nil
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, b); err != nil {
		return err
	}
	*t = Text(buf.String())
	return nil
}

// Strings accepts an array of strings, a single string or null.
type Strings []string

func (s *Strings) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if string(b) == "null" {
		*s = nil
		return nil
	}
	var one string
	if err := json.Unmarshal(b, &one); err == nil {
		if one == "" {
			*s = []string{}
		} else {
			*s = []string{one}
		}
		return nil
	}
	var many []Text
	if err := json.Unmarshal(b, &many); err != nil {
		return err
	}
	out := make([]string, 0, len(many))
	for _, m := range many {
		if m != "" {
			out = append(out, string(m))
		}
	}
	*s = out
	return nil
}

// Or returns s, or an empty non-nil slice.
func (s Strings) Or() []string {
	if s == nil {
		return []string{}
	}
	return []string(s)
}
