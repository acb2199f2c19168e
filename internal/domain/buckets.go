package domain

import (
	"bytes"
	"encoding/json"
)

// Bucket is one grouped result row from the search backend's aggregation
// output. Nested aggregations appear as named children.
type Bucket struct {
	Key         string
	KeyAsString string
	DocCount    int
	Children    map[string]Aggregation
}

// Aggregation holds the buckets of a single named aggregation.
type Aggregation struct {
	Buckets []Bucket `json:"buckets"`
}

// reserved bucket fields that are not nested aggregations
var bucketFields = map[string]struct{}{
	"key":           {},
	"key_as_string": {},
	"doc_count":     {},
}

// UnmarshalJSON decodes the fixed bucket fields and treats every remaining
// object with a "buckets" member as a named nested aggregation.
func (b *Bucket) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*b = Bucket{}

	if keyRaw, ok := raw["key"]; ok {
		dec := json.NewDecoder(bytes.NewReader(keyRaw))
		dec.UseNumber()
		var key any
		if err := dec.Decode(&key); err != nil {
			return err
		}
		switch val := key.(type) {
		case string:
			b.Key = val
		case json.Number:
			b.Key = val.String()
		case bool:
			if val {
				b.Key = "true"
			} else {
				b.Key = "false"
			}
		}
	}
	if s, ok := raw["key_as_string"]; ok {
		_ = json.Unmarshal(s, &b.KeyAsString)
	}
	if c, ok := raw["doc_count"]; ok {
		_ = json.Unmarshal(c, &b.DocCount)
	}

	for name, msg := range raw {
		if _, reserved := bucketFields[name]; reserved {
			continue
		}
		var agg Aggregation
		if err := json.Unmarshal(msg, &agg); err != nil {
			continue
		}
		if agg.Buckets == nil {
			continue
		}
		if b.Children == nil {
			b.Children = make(map[string]Aggregation)
		}
		b.Children[name] = agg
	}

	return nil
}

// Child returns the buckets of the named nested aggregation, or nil.
func (b *Bucket) Child(name string) []Bucket {
	if b.Children == nil {
		return nil
	}
	return b.Children[name].Buckets
}

// SearchResult is the parsed backend response for one report query.
type SearchResult struct {
	Total        int64
	Items        []map[string]any
	Aggregations map[string]Aggregation
	// Page and MaxResults echo paging back to the caller when requested.
	Page       int
	MaxResults int
}

// Buckets returns the buckets of a top-level aggregation; missing
// aggregations yield an empty slice, not an error.
func (r *SearchResult) Buckets(aggregationID string) []Bucket {
	if r == nil || r.Aggregations == nil {
		return []Bucket{}
	}
	agg, ok := r.Aggregations[aggregationID]
	if !ok || agg.Buckets == nil {
		return []Bucket{}
	}
	return agg.Buckets
}
