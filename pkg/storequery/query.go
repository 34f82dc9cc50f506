// Package storequery translates generic list-endpoint query parameters
// (filter-as-JSON, sort spec, projection spec, skip, limit, count flag) into
// forms the document repositories understand. All functions are pure and
// degrade to a safe default on malformed input instead of failing.
package storequery

import (
	"encoding/json"
	"strings"
)

// Query carries every list parameter after translation.
type Query struct {
	Where  map[string]interface{}
	Sort   []SortField
	Select Projection
	Skip   int
	Limit  int // <= 0 means no limit
	Count  bool
}

// SortField is a single ordering criterion.
type SortField struct {
	Field string
	Desc  bool
}

// ParseWhere decodes a JSON filter expression. Anything that is not a JSON
// object degrades to nil, meaning match-all.
func ParseWhere(raw string) map[string]interface{} {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	var filter map[string]interface{}
	if err := json.Unmarshal([]byte(raw), &filter); err != nil {
		return nil
	}
	if len(filter) == 0 {
		return nil
	}
	return filter
}

// ParseSort accepts either a JSON object ({"name":1,"deadline":-1}, key order
// preserved) or a comma list ("name,-deadline"). Malformed input degrades to
// no sort.
func ParseSort(raw string) []SortField {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	if strings.HasPrefix(raw, "{") {
		return parseSortObject(raw)
	}

	var fields []SortField
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		desc := strings.HasPrefix(part, "-")
		name := strings.TrimPrefix(part, "-")
		if name == "" {
			continue
		}
		fields = append(fields, SortField{Field: name, Desc: desc})
	}
	return fields
}

// parseSortObject walks the JSON token stream so the object's key order is
// kept, which json.Unmarshal into a map would lose.
func parseSortObject(raw string) []SortField {
	dec := json.NewDecoder(strings.NewReader(raw))
	tok, err := dec.Token()
	if err != nil {
		return nil
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil
	}

	var fields []SortField
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil
		}
		key, ok := keyTok.(string)
		if !ok {
			return nil
		}
		valTok, err := dec.Token()
		if err != nil {
			return nil
		}
		dir, ok := valTok.(float64)
		if !ok {
			return nil
		}
		fields = append(fields, SortField{Field: key, Desc: dir < 0})
	}
	return fields
}

// Projection maps field names to include (true) or exclude (false). A nil
// projection means return the full document.
type Projection map[string]bool

// ParseSelect decodes a JSON projection spec like {"name":1} or
// {"pendingTasks":0}. Malformed or empty input degrades to no projection.
func ParseSelect(raw string) Projection {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	var spec map[string]json.Number
	dec := json.NewDecoder(strings.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&spec); err != nil || len(spec) == 0 {
		return nil
	}
	p := make(Projection, len(spec))
	for field, v := range spec {
		n, err := v.Int64()
		if err != nil {
			return nil
		}
		p[field] = n != 0
	}
	return p
}

// inclusive reports whether the projection names any field to include, which
// switches it from exclude mode to include mode.
func (p Projection) inclusive() bool {
	for _, include := range p {
		if include {
			return true
		}
	}
	return false
}

// Apply filters a decoded document according to the projection. In include
// mode the id is kept unless explicitly excluded, matching the usual
// document-store convention.
func (p Projection) Apply(doc map[string]interface{}) map[string]interface{} {
	if len(p) == 0 || doc == nil {
		return doc
	}

	out := make(map[string]interface{})
	if p.inclusive() {
		for field, include := range p {
			if !include {
				continue
			}
			if v, ok := doc[field]; ok {
				out[field] = v
			}
		}
		if include, listed := p["id"]; !listed || include {
			if v, ok := doc["id"]; ok {
				out["id"] = v
			}
		}
		return out
	}

	for field, v := range doc {
		if include, listed := p[field]; listed && !include {
			continue
		}
		out[field] = v
	}
	return out
}

// Project renders any JSON-marshalable value through the projection. It is
// used by handlers to honor select on both list and get-by-id responses.
func Project(v interface{}, p Projection) (map[string]interface{}, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var doc map[string]interface{}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, err
	}
	return p.Apply(doc), nil
}
