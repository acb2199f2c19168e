package domain

// BuiltQuery is the backend-agnostic structured query assembled from report
// parameters. Clause ordering inside Must/MustNot follows the fixed
// evaluation order: dates, then rewrite inclusion, then user-supplied
// filter fields.
type BuiltQuery struct {
	// Source is a raw backend query supplied by the caller. When set it
	// is sent as-is and the structured fields below are ignored, except
	// Repo and Aggs.
	Source  map[string]any
	Must    []map[string]any
	MustNot []map[string]any
	Sort    []map[string]any
	Size    int
	From    int
	Page    int
	// MaxResults echoes the page size back to the caller when paging.
	MaxResults int
	// Repo is the sorted comma-separated list of collections to search.
	Repo string
	Aggs map[string]any
}

// Body renders the query as an Elasticsearch request body.
func (q *BuiltQuery) Body() map[string]any {
	if q.Source != nil {
		body := make(map[string]any, len(q.Source)+1)
		for key, value := range q.Source {
			body[key] = value
		}
		if len(q.Aggs) > 0 {
			body["aggs"] = q.Aggs
		}
		return body
	}

	boolQuery := map[string]any{}
	if len(q.Must) > 0 {
		boolQuery["must"] = q.Must
	}
	if len(q.MustNot) > 0 {
		boolQuery["must_not"] = q.MustNot
	}

	body := map[string]any{
		"query": map[string]any{"bool": boolQuery},
		"size":  q.Size,
	}
	if q.From > 0 {
		body["from"] = q.From
	}
	if len(q.Sort) > 0 {
		body["sort"] = q.Sort
	}
	if len(q.Aggs) > 0 {
		body["aggs"] = q.Aggs
	}
	return body
}
