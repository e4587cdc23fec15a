package search

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// Candidate is one match offered to the user.
type Candidate struct {
	ID   string
	Name string
	Raw  map[string]any
}

// ParseCandidates accepts either a JSON array of records or a paginated
// object with a "results" array.
func ParseCandidates(raw json.RawMessage) ([]Candidate, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, nil
	}

	var records []json.RawMessage
	if trimmed[0] == '[' {
		if err := json.Unmarshal(trimmed, &records); err != nil {
			return nil, fmt.Errorf("failed to parse search results: %w", err)
		}
	} else {
		var page struct {
			Results []json.RawMessage `json:"results"`
		}
		if err := json.Unmarshal(trimmed, &page); err != nil {
			return nil, fmt.Errorf("failed to parse search results: %w", err)
		}
		records = page.Results
	}

	out := make([]Candidate, 0, len(records))
	for _, r := range records {
		c, err := DecodeCandidate(r)
		if err != nil {
			return nil, fmt.Errorf("failed to parse search results: %w", err)
		}
		out = append(out, c)
	}
	return out, nil
}

// DecodeCandidate decodes one backend record and picks its identifier
// (first "id_*" key in document order, else "id") and display name
// ("nombre_original", else "nombre").
func DecodeCandidate(raw []byte) (Candidate, error) {
	var fields map[string]any
	if err := decode(raw, &fields); err != nil {
		return Candidate{}, err
	}
	key, err := IDKey(raw)
	if err != nil {
		return Candidate{}, err
	}
	return Candidate{ID: recordID(fields, key), Name: RecordName(fields), Raw: fields}, nil
}

// IDKey returns the first top-level key of a JSON object starting with
// "id_", or "id" when there is none. Decoding into a map loses key order,
// so the object is walked token by token.
func IDKey(raw []byte) (string, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	tok, err := dec.Token()
	if err != nil {
		return "", err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return "id", nil
	}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return "", err
		}
		key, _ := tok.(string)
		if strings.HasPrefix(key, "id_") {
			return key, nil
		}
		var skip json.RawMessage
		if err := dec.Decode(&skip); err != nil {
			return "", err
		}
	}
	return "id", nil
}

func recordID(r map[string]any, key string) string {
	v, ok := r[key]
	if !ok || v == nil {
		return ""
	}
	return fmt.Sprint(v)
}

func RecordName(r map[string]any) string {
	if s, _ := r["nombre_original"].(string); s != "" {
		return s
	}
	s, _ := r["nombre"].(string)
	return s
}

// decode keeps numbers as json.Number so ids render without exponents.
func decode(data []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	return dec.Decode(v)
}
