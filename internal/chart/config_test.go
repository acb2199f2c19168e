package chart

import (
	"reflect"
	"testing"
)

func singleBuilder() *Builder {
	b := NewBuilder("content_publishing", "column")
	b.SetSingleSource("source", map[string]int{"b": 4, "a": 3, "c": 1})
	return b
}

func multiBuilder() *Builder {
	b := NewBuilder("content_publishing", "column")
	b.SetMultiSource(
		"anpa_category.qcode",
		map[string]map[string]int{
			"a": {"AAP": 1, "Reuters": 1},
			"b": {"AAP": 4},
			"c": {"Reuters": 1},
		},
		"source",
		map[string]int{"AAP": 5, "Reuters": 2},
	)
	return b
}

func TestBuilder_Generate_SingleSource(t *testing.T) {
	config, err := singleBuilder().Generate()
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	xAxis := config["xAxis"].(map[string]any)
	wantCategories := []string{"b", "a", "c"}
	if !reflect.DeepEqual(xAxis["categories"], wantCategories) {
		t.Errorf("categories = %v, want %v", xAxis["categories"], wantCategories)
	}

	series := config["series"].([]map[string]any)
	if len(series) != 1 {
		t.Fatalf("series count = %d, want 1", len(series))
	}
	if !reflect.DeepEqual(series[0]["data"], []int{4, 3, 1}) {
		t.Errorf("series data = %v, want [4 3 1]", series[0]["data"])
	}
	if series[0]["name"] != "Published Stories" {
		t.Errorf("series name = %v", series[0]["name"])
	}

	legend := config["legend"].(map[string]any)
	if legend["enabled"] != false {
		t.Errorf("legend enabled = %v, want false", legend["enabled"])
	}

	tooltip := config["tooltip"].(map[string]any)
	if tooltip["headerFormat"] != "{point.x}: {point.y}" {
		t.Errorf("tooltip header = %v", tooltip["headerFormat"])
	}

	plotBar := config["plotOptions"].(map[string]any)["bar"].(map[string]any)
	if plotBar["colorByPoint"] != true {
		t.Errorf("colorByPoint = %v, want true", plotBar["colorByPoint"])
	}

	yAxis := config["yAxis"].(map[string]any)
	stackLabels := yAxis["stackLabels"].(map[string]any)
	if stackLabels["enabled"] != false {
		t.Errorf("stackLabels enabled = %v, want false", stackLabels["enabled"])
	}
}

func TestBuilder_Generate_MultiSource(t *testing.T) {
	b := multiBuilder()
	b.SetTranslations(Translations{
		"anpa_category.qcode": {Title: "Category", Names: map[string]string{"a": "Advisories"}},
		"source":              {Title: "Source"},
	})

	config, err := b.Generate()
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	// Parent keys sorted by row sums: b=4, a=2, c=1.
	xAxis := config["xAxis"].(map[string]any)
	wantCategories := []string{"b", "Advisories", "c"}
	if !reflect.DeepEqual(xAxis["categories"], wantCategories) {
		t.Errorf("categories = %v, want %v", xAxis["categories"], wantCategories)
	}
	if xAxis["title"].(map[string]any)["text"] != "Category" {
		t.Errorf("xAxis title = %v", xAxis["title"])
	}

	// One series per child key, ordered by child totals.
	series := config["series"].([]map[string]any)
	if len(series) != 2 {
		t.Fatalf("series count = %d, want 2", len(series))
	}
	if series[0]["name"] != "AAP" || !reflect.DeepEqual(series[0]["data"], []int{4, 1, 0}) {
		t.Errorf("series 0 = %v", series[0])
	}
	if series[1]["name"] != "Reuters" || !reflect.DeepEqual(series[1]["data"], []int{0, 1, 1}) {
		t.Errorf("series 1 = %v", series[1])
	}

	legend := config["legend"].(map[string]any)
	if legend["enabled"] != true {
		t.Errorf("legend enabled = %v, want true", legend["enabled"])
	}
	if legend["title"].(map[string]any)["text"] != "Source" {
		t.Errorf("legend title = %v", legend["title"])
	}

	tooltip := config["tooltip"].(map[string]any)
	if tooltip["headerFormat"] != "{series.name}/{point.x}: {point.y}" {
		t.Errorf("tooltip header = %v", tooltip["headerFormat"])
	}

	plotBar := config["plotOptions"].(map[string]any)["bar"].(map[string]any)
	if plotBar["stacking"] != "normal" || plotBar["colorByPoint"] != false {
		t.Errorf("plotOptions bar = %v", plotBar)
	}

	stackLabels := config["yAxis"].(map[string]any)["stackLabels"].(map[string]any)
	if stackLabels["enabled"] != true {
		t.Errorf("stackLabels enabled = %v, want true", stackLabels["enabled"])
	}
}

func TestBuilder_ZoomType(t *testing.T) {
	for _, chartType := range []string{"bar", "column", "pie", "line", "area"} {
		b := NewBuilder("chart", chartType)
		b.SetSingleSource("source", map[string]int{"a": 1})

		config, err := b.Generate()
		if err != nil {
			t.Fatalf("Generate(%s) error = %v", chartType, err)
		}
		zoom := config["chart"].(map[string]any)["zoomType"]

		want := "x"
		if chartType == "bar" {
			want = "y"
		}
		if zoom != want {
			t.Errorf("zoomType(%s) = %v, want %s", chartType, zoom, want)
		}
	}
}

func TestBuilder_Generate_SingleTable(t *testing.T) {
	b := singleBuilder()
	b.Type = "table"

	config, err := b.Generate()
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	if config["type"] != "table" {
		t.Errorf("type = %v, want table", config["type"])
	}
	wantHeaders := []string{"source", "Published Stories"}
	if !reflect.DeepEqual(config["headers"], wantHeaders) {
		t.Errorf("headers = %v, want %v", config["headers"], wantHeaders)
	}
	wantRows := [][]any{{"b", 4}, {"a", 3}, {"c", 1}}
	if !reflect.DeepEqual(config["rows"], wantRows) {
		t.Errorf("rows = %v, want %v", config["rows"], wantRows)
	}
}

func TestBuilder_Generate_MultiTable(t *testing.T) {
	b := multiBuilder()
	b.Type = "table"

	config, err := b.Generate()
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	wantHeaders := []string{"anpa_category.qcode", "AAP", "Reuters", "Total Stories"}
	if !reflect.DeepEqual(config["headers"], wantHeaders) {
		t.Errorf("headers = %v, want %v", config["headers"], wantHeaders)
	}

	wantRows := [][]any{
		{"b", 4, 0, 4},
		{"a", 1, 1, 2},
		{"c", 0, 1, 1},
	}
	if !reflect.DeepEqual(config["rows"], wantRows) {
		t.Errorf("rows = %v, want %v", config["rows"], wantRows)
	}
}

func TestBuilder_Generate_MissingData(t *testing.T) {
	b := NewBuilder("chart", "bar")
	if _, err := b.Generate(); err == nil {
		t.Errorf("Generate() expected error with no sources")
	}
}

func TestTranslations_Fallbacks(t *testing.T) {
	translations := Translations{
		"task.desk": {Title: "Desk", Names: map[string]string{"d1": "Politics"}},
	}

	if got := translations.Title("task.desk"); got != "Desk" {
		t.Errorf("Title() = %q, want Desk", got)
	}
	if got := translations.Title("unknown.field"); got != "unknown.field" {
		t.Errorf("Title() fallback = %q, want field id", got)
	}
	if got := translations.Name("task.desk", "d1"); got != "Politics" {
		t.Errorf("Name() = %q, want Politics", got)
	}
	if got := translations.Name("task.desk", "d9"); got != "d9" {
		t.Errorf("Name() fallback = %q, want key", got)
	}
}
