package ingestion

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/job-autopilot/internal/llm"
)

type fakeClient struct {
	response string
	err      error
	prompt   string
}

func (f *fakeClient) GenerateContent(_ context.Context, prompt string, _ llm.ModelTier) (string, error) {
	f.prompt = prompt
	return f.response, f.err
}

func (f *fakeClient) GenerateJSON(_ context.Context, prompt string, _ llm.ModelTier) (string, error) {
	f.prompt = prompt
	return f.response, f.err
}

func (f *fakeClient) Close() error { return nil }

const profileResponse = `{
	"name": "Jane Doe",
	"email": "jane@example.com",
	"summary": "Go engineer",
	"skills": ["Go", "PostgreSQL"],
	"experience": [{"title": "Engineer", "company": "Initech", "bullets": ["Shipped"]}]
}`

func TestParseProfile_PlainText(t *testing.T) {
	client := &fakeClient{response: profileResponse}

	profile, err := ParseProfile(context.Background(), client, "Jane Doe\njane@example.com\n\nEngineer at Initech")
	require.NoError(t, err)

	assert.Equal(t, "Jane Doe", profile.Name)
	assert.Equal(t, []string{"Go", "PostgreSQL"}, profile.Skills)
	assert.Contains(t, client.prompt, "Engineer at Initech")
}

func TestParseProfile_HTMLReducedToText(t *testing.T) {
	client := &fakeClient{response: profileResponse}

	html := `<!DOCTYPE html><html><head><style>body{}</style></head><body>
		<h1>Jane Doe</h1><ul><li>Built Go services</li></ul>
		<script>track()</script></body></html>`

	_, err := ParseProfile(context.Background(), client, html)
	require.NoError(t, err)

	assert.Contains(t, client.prompt, "Jane Doe")
	assert.Contains(t, client.prompt, "- Built Go services")
	assert.NotContains(t, client.prompt, "track()")
	assert.NotContains(t, client.prompt, "<h1>")
}

func TestParseProfile_EmptyUpload(t *testing.T) {
	client := &fakeClient{response: profileResponse}

	_, err := ParseProfile(context.Background(), client, "   \n  ")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty")
}

func TestParseProfile_SchemaRejectsNameless(t *testing.T) {
	client := &fakeClient{response: `{"skills": ["Go"]}`}

	_, err := ParseProfile(context.Background(), client, "some resume text")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rejected")
}

func TestCleanText(t *testing.T) {
	input := "Jane  Doe\r\n\r\n\r\n\r\n- Built   services\r\nEngineer"
	expected := "Jane Doe\n\n- Built   services\nEngineer"
	assert.Equal(t, expected, CleanText(input))
}

func TestLooksLikeHTML(t *testing.T) {
	assert.True(t, LooksLikeHTML("<!DOCTYPE html><html></html>"))
	assert.True(t, LooksLikeHTML("<html><body>x</body></html>"))
	assert.False(t, LooksLikeHTML("Jane Doe\nEngineer"))
}
