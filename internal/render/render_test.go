package render

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/newsroom-cloud/analytics/internal/config"
	"github.com/newsroom-cloud/analytics/internal/domain"
	"github.com/newsroom-cloud/analytics/internal/logger"
)

func tableConfig() map[string]any {
	return map[string]any{
		"title":   "Publishing per desk",
		"headers": []string{"Desk", "Published Stories"},
		"rows": [][]any{
			{"Politics", 4},
			{"Sports", 1},
		},
	}
}

func TestCSV(t *testing.T) {
	got := string(CSV(tableConfig()))
	want := "Desk,Published Stories\r\nPolitics,4\r\nSports,1\r\n"
	if got != want {
		t.Errorf("CSV() = %q, want %q", got, want)
	}
}

func TestCSV_EscapesCells(t *testing.T) {
	config := map[string]any{
		"headers": []string{"Desk"},
		"rows":    [][]any{{`News, "World"`}},
	}
	got := string(CSV(config))
	want := "Desk\r\n\"News, \"\"World\"\"\"\r\n"
	if got != want {
		t.Errorf("CSV() = %q, want %q", got, want)
	}
}

func TestHTML(t *testing.T) {
	got := string(HTML(tableConfig()))

	for _, fragment := range []string{
		"<h3>Publishing per desk</h3>",
		"<tr><th>Desk</th><th>Published Stories</th></tr>",
		"<tr><td>Politics</td><td>4</td></tr>",
		"<tr><td>Sports</td><td>1</td></tr>",
	} {
		if !strings.Contains(got, fragment) {
			t.Errorf("HTML() missing %q in %q", fragment, got)
		}
	}
}

func TestHTML_Empty(t *testing.T) {
	got := string(HTML(map[string]any{"title": "Empty report"}))
	want := "<div><h3>Empty report</h3></div>"
	if got != want {
		t.Errorf("HTML() = %q, want %q", got, want)
	}
}

func TestExtension(t *testing.T) {
	testCases := []struct {
		mimetype string
		want     string
	}{
		{MimePNG, "png"},
		{MimeJPEG, "jpeg"},
		{MimeGIF, "gif"},
		{MimePDF, "pdf"},
		{MimeSVG, "svg"},
		{MimeCSV, "csv"},
		{MimeHTML, "html"},
	}
	for _, tc := range testCases {
		got, err := Extension(tc.mimetype)
		if err != nil || got != tc.want {
			t.Errorf("Extension(%s) = %q, %v, want %q", tc.mimetype, got, err, tc.want)
		}
	}

	if _, err := Extension("application/zip"); !domain.IsBadRequest(err) {
		t.Errorf("Extension() error = %v, want bad request", err)
	}
}

func newTestClient(url string) *HighchartsClient {
	return NewHighchartsClient(&config.HighchartsConfig{
		URL:     url,
		Timeout: 5 * time.Second,
		Width:   800,
	}, logger.NewNop())
}

func TestHighchartsClient_Render(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		_, _ = w.Write([]byte("image-bytes"))
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	options := map[string]any{"series": []map[string]any{{"data": []int{1}}}}

	data, mimetype, err := client.Render(context.Background(), options, MimePNG)
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if string(data) != "image-bytes" || mimetype != MimePNG {
		t.Errorf("Render() = %q, %q", data, mimetype)
	}
}

func TestHighchartsClient_Render_Errors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	options := map[string]any{"series": []any{}}

	t.Run("unsupported mimetype", func(t *testing.T) {
		if _, _, err := client.Render(context.Background(), options, MimeCSV); !domain.IsBadRequest(err) {
			t.Errorf("Render() error = %v, want bad request", err)
		}
	})

	t.Run("missing series", func(t *testing.T) {
		if _, _, err := client.Render(context.Background(), map[string]any{"title": "x"}, MimePNG); !domain.IsBadRequest(err) {
			t.Errorf("Render() error = %v, want bad request", err)
		}
	})

	t.Run("server failure is internal", func(t *testing.T) {
		_, _, err := client.Render(context.Background(), options, MimePNG)
		if err == nil || domain.IsBadRequest(err) {
			t.Errorf("Render() error = %v, want internal", err)
		}
	})
}
