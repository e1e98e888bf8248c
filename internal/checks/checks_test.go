package checks

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const samplePage = `<!DOCTYPE html>
<html>
<head>
	<title>Welcome to Example</title>
	<meta name="description" content="An example page for testing">
</head>
<body>
	<h1>Welcome</h1>
	<h2>About</h2>
	<p>The quick fox and the lazy dog are for testing with the content check.</p>
</body>
</html>`

func TestFetchContent_ParsesTitleMetaAndHeadings(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Strict-Transport-Security", "max-age=63072000")
		w.Write([]byte(samplePage))
	}))
	defer server.Close()

	content := FetchContent(context.Background(), server.URL)

	require.NoError(t, content.Error)
	assert.Equal(t, "Welcome to Example", content.Title)
	assert.Equal(t, "An example page for testing", content.MetaTags["description"])
	assert.Equal(t, []string{"Welcome", "About"}, content.Headings)
	assert.Equal(t, 1, content.H1Count)
	assert.Contains(t, content.BodyText, "quick fox")
}

func TestFetchContent_ConnectErrorIsReported(t *testing.T) {
	content := FetchContent(context.Background(), "http://127.0.0.1:1")
	assert.Error(t, content.Error)
}

func TestAnalyzeHeaders_ReportsPresentAndMissing(t *testing.T) {
	content := PageContent{Headers: http.Header{"Strict-Transport-Security": []string{"max-age=1"}}}
	report := AnalyzeHeaders(content)

	assert.Contains(t, report.Present, "Strict-Transport-Security")
	assert.Contains(t, report.Missing, "Content-Security-Policy")
}

func TestAnalyzeSEO_DerivesSignalsFromContent(t *testing.T) {
	content := PageContent{
		Title:    "Welcome to Example",
		MetaTags: map[string]string{"description": "x"},
		Headings: []string{"Welcome", "About"},
		H1Count:  1,
	}
	report := AnalyzeSEO(content)

	assert.True(t, report.HasTitle)
	assert.True(t, report.HasMetaDescription)
	assert.True(t, report.HasH1)
	assert.Equal(t, 2, report.HeadingCount)
}

func TestDetectLanguage_RecognizesEnglishStopwords(t *testing.T) {
	content := PageContent{BodyText: "this is the example page and it is for the testing of things"}
	report := DetectLanguage(content)

	assert.Equal(t, "en", report.Detected)
	assert.Greater(t, report.Confidence, 0.0)
}

func TestDetectLanguage_EmptyBodyIsUndetermined(t *testing.T) {
	report := DetectLanguage(PageContent{})
	assert.Equal(t, "", report.Detected)
}
