package rendering

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/job-autopilot/internal/types"
)

// fakeEngine renders a marker byte sequence, failing for HTML containing a
// scripted trigger string.
type fakeEngine struct {
	failFor string
	renders int
	closed  bool
}

func (f *fakeEngine) RenderPDF(_ context.Context, html string) ([]byte, error) {
	f.renders++
	if f.failFor != "" && strings.Contains(html, f.failFor) {
		return nil, &RenderError{Message: "scripted failure"}
	}
	return []byte("%PDF-fake"), nil
}

func (f *fakeEngine) Close() { f.closed = true }

func cvFor(job string) *types.TailoredCV {
	return &types.TailoredCV{Name: "Jane " + job, Email: "jane@example.com", Summary: "Engineer"}
}

func TestRenderBatch_IsolatesPerDocumentFailures(t *testing.T) {
	engine := &fakeEngine{failFor: "Jane job2"}
	renderer := NewBatchRenderer(func(context.Context) (Engine, error) {
		return engine, nil
	}, t.TempDir())

	results := []types.CVResult{
		{JobID: "job1", CV: cvFor("job1")},
		{JobID: "job2", CV: cvFor("job2")},
		{JobID: "job3", CV: cvFor("job3")},
	}
	jobs := map[string]types.JobCandidate{
		"job1": {JobID: "job1", Company: "Acme Co"},
		"job2": {JobID: "job2", Company: "Globex"},
		"job3": {JobID: "job3", Company: "Initech"},
	}

	out := renderer.RenderBatch(context.Background(), "jane", results, jobs)

	require.Len(t, out, 3)
	assert.True(t, out[0].HasDocument)
	assert.NotEmpty(t, out[0].DocumentPath)
	assert.False(t, out[1].HasDocument)
	assert.Empty(t, out[1].DocumentPath)
	assert.True(t, out[2].HasDocument)
	assert.True(t, engine.closed)
}

func TestRenderBatch_EngineStartupFailureDegradesGracefully(t *testing.T) {
	renderer := NewBatchRenderer(func(context.Context) (Engine, error) {
		return nil, &EngineError{Message: "no chrome", Cause: errors.New("exec not found")}
	}, t.TempDir())

	results := []types.CVResult{
		{JobID: "job1", CV: cvFor("job1")},
		{JobID: "job2", CV: cvFor("job2")},
	}

	out := renderer.RenderBatch(context.Background(), "jane", results, nil)

	require.Len(t, out, 2)
	for _, r := range out {
		assert.False(t, r.HasDocument)
		assert.Empty(t, r.DocumentPath)
	}
}

func TestRenderBatch_SkipsFailedAndEmptyResults(t *testing.T) {
	engine := &fakeEngine{}
	renderer := NewBatchRenderer(func(context.Context) (Engine, error) {
		return engine, nil
	}, t.TempDir())

	results := []types.CVResult{
		{JobID: "job1", Error: "tailoring failed"},
		{JobID: "job2"}, // no CV
		{JobID: "job3", CV: cvFor("job3")},
	}

	out := renderer.RenderBatch(context.Background(), "jane", results, nil)

	require.Len(t, out, 3)
	assert.Equal(t, 1, engine.renders)
	assert.True(t, out[2].HasDocument)
}

func TestRenderHTML_EscapesContent(t *testing.T) {
	cv := cvFor("job1")
	cv.Summary = `<script>alert("x")</script>`

	html, err := RenderHTML(cv)
	require.NoError(t, err)
	assert.NotContains(t, html, "<script>alert")
}

func TestSanitizeFragment(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"Acme Co", "Acme_Co"},
		{"Acme / Co. & Friends!", "Acme__Co__Friends"},
		{"../../etc/passwd", "etcpasswd"},
		{"", "document"},
		{"   ", "document"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, SanitizeFragment(tt.input), tt.input)
	}
}

func TestDocumentFilename(t *testing.T) {
	ts := time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)
	name := DocumentFilename("jane", "Acme Co", ts)
	assert.Equal(t, "jane_Acme_Co_20260314T092653.pdf", name)
}
