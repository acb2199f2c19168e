package elastic

import (
	"github.com/newsroom-cloud/analytics/internal/domain"
)

// Aggregation names used across report generation.
const (
	AggParent = "parent"
	AggChild  = "child"
	AggDates  = "dates"
)

// termsAggregation builds one terms bucket for a grouping dimension. A
// filter pattern restricts the bucket keys and keeps zero-count entries so
// filtered-out keys still appear.
func termsAggregation(spec *domain.AggSpec, categoryField string) map[string]any {
	terms := map[string]any{
		"field": aggregationField(spec.Field, categoryField),
		"size":  aggregationSize(spec.Size),
	}
	if spec.Filter != "" && spec.Filter != "all" {
		terms["include"] = spec.Filter
		terms["min_doc_count"] = 0
	}
	return map[string]any{"terms": terms}
}

// aggregationField resolves the category grouping field against the
// requested sub-field; all other fields pass through.
func aggregationField(field, categoryField string) string {
	if field == "anpa_category" || field == "anpa_category.qcode" {
		return "anpa_category." + categorySubField(categoryField)
	}
	return field
}

// aggregationSize maps the requested bucket count to the backend value.
// Zero means unbounded; the backend needs a large explicit cap for that.
func aggregationSize(size int) int {
	if size <= 0 {
		return 10000
	}
	return size
}

// BuildAggregations assembles the group/subgroup aggregation tree from the
// request. A missing group yields nil so report types can fall back to
// their default tree.
func BuildAggregations(aggs *domain.AggsParams, categoryField string) map[string]any {
	if aggs == nil || aggs.Group == nil || aggs.Group.Field == "" {
		return nil
	}

	parent := termsAggregation(aggs.Group, categoryField)
	if aggs.Subgroup != nil && aggs.Subgroup.Field != "" {
		parent["aggs"] = map[string]any{
			AggChild: termsAggregation(aggs.Subgroup, categoryField),
		}
	}

	return map[string]any{AggParent: parent}
}
