// Package report folds raw aggregation buckets into the canonical report
// shapes consumed by chart generation and rendering.
package report

import (
	"github.com/newsroom-cloud/analytics/internal/directory"
	"github.com/newsroom-cloud/analytics/internal/domain"
)

// Flat returns the raw buckets of each requested aggregation id. Missing
// aggregations yield an empty slice.
func Flat(result *domain.SearchResult, aggregationIDs []string) map[string][]domain.Bucket {
	report := make(map[string][]domain.Bucket, len(aggregationIDs))
	for _, id := range aggregationIDs {
		report[id] = result.Buckets(id)
	}
	return report
}

// Grouped is the folded group/subgroup report. Groups is set when no
// subgroup was requested, Stacked and Subgroups otherwise.
type Grouped struct {
	Groups    map[string]int
	Stacked   map[string]map[string]int
	Subgroups map[string]int
}

// GroupSubgroup folds parent (and optionally child) buckets into grouped
// counts. Buckets with an empty key are skipped. Subgroup totals accumulate
// across all parents.
func GroupSubgroup(result *domain.SearchResult, parentAgg, childAgg string, hasSubgroup bool) Grouped {
	report := Grouped{}
	if hasSubgroup {
		report.Stacked = map[string]map[string]int{}
		report.Subgroups = map[string]int{}
	} else {
		report.Groups = map[string]int{}
	}

	for _, parent := range result.Buckets(parentAgg) {
		if parent.Key == "" {
			continue
		}

		if !hasSubgroup {
			report.Groups[parent.Key] = parent.DocCount
			continue
		}

		row, ok := report.Stacked[parent.Key]
		if !ok {
			row = map[string]int{}
			report.Stacked[parent.Key] = row
		}

		for _, child := range parent.Child(childAgg) {
			if child.Key == "" {
				continue
			}
			row[child.Key] += child.DocCount
			report.Subgroups[child.Key] += child.DocCount
		}
	}

	return report
}

// FillDesks backfills a zero row for every desk missing from the report so
// the caller always sees the full roster.
func (g *Grouped) FillDesks(desks []directory.Desk, childKeys []string) {
	for _, desk := range desks {
		if g.Groups != nil {
			if _, ok := g.Groups[desk.ID]; !ok {
				g.Groups[desk.ID] = 0
			}
			continue
		}
		if g.Stacked == nil {
			continue
		}
		if _, ok := g.Stacked[desk.ID]; !ok {
			row := make(map[string]int, len(childKeys))
			for _, key := range childKeys {
				row[key] = 0
			}
			g.Stacked[desk.ID] = row
		}
	}
}

// SourceCategory is the per-source category breakdown with vocabulary
// totals.
type SourceCategory struct {
	Categories map[string]int
	Sources    map[string]map[string]int
}

// SourceCategoryReport folds source buckets with nested category buckets.
// Categories is seeded from every active vocabulary item so zero-count
// categories still appear. Category keys are translated qcode to display
// name; unresolvable qcodes are skipped.
func SourceCategoryReport(result *domain.SearchResult, sourceAgg, categoryAgg string, vocabulary *directory.Vocabulary) SourceCategory {
	report := SourceCategory{
		Categories: map[string]int{},
		Sources:    map[string]map[string]int{},
	}

	names := vocabulary.Names()
	for _, item := range vocabulary.ActiveItems() {
		report.Categories[item.Name] = 0
	}

	for _, source := range result.Buckets(sourceAgg) {
		if source.Key == "" {
			continue
		}

		row, ok := report.Sources[source.Key]
		if !ok {
			row = map[string]int{}
			report.Sources[source.Key] = row
		}

		for _, category := range source.Child(categoryAgg) {
			if category.Key == "" {
				continue
			}
			name, ok := names[category.Key]
			if !ok {
				continue
			}
			row[name] += category.DocCount
			report.Categories[name] += category.DocCount
		}
	}

	return report
}
