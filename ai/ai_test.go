package ai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/liamtostring/schegen/metrics"
	"github.com/liamtostring/schegen/models"
	"github.com/liamtostring/schegen/schema"
	"github.com/liamtostring/schegen/utils"
)

var fastRetry = utils.RetryConfig{MaxRetries: 2, InitialBackoff: time.Millisecond, MaxBackoff: 2 * time.Millisecond}

type fakeModel struct {
	replies []string
	prompts []string
	err     error
}

func (f *fakeModel) Name() string { return "fake" }

func (f *fakeModel) Generate(_ context.Context, prompt string) (string, error) {
	f.prompts = append(f.prompts, prompt)
	if f.err != nil {
		return "", f.err
	}
	reply := f.replies[0]
	if len(f.replies) > 1 {
		f.replies = f.replies[1:]
	}
	return reply, nil
}

func TestNewModel(t *testing.T) {
	m, err := NewModel(ModelConfig{Provider: "Anthropic", APIKey: "k"})
	require.NoError(t, err)
	assert.Equal(t, ProviderAnthropic, m.Name())

	m, err = NewModel(ModelConfig{Provider: "openai", APIKey: "k"})
	require.NoError(t, err)
	assert.Equal(t, ProviderOpenAI, m.Name())

	_, err = NewModel(ModelConfig{})
	assert.True(t, errors.Is(err, models.ErrLLMUnavailable))

	_, err = NewModel(ModelConfig{Provider: "llama"})
	assert.True(t, errors.Is(err, models.ErrInvalidInput))
}

func TestAnthropic_Generate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/messages", r.URL.Path)
		assert.Equal(t, "secret", r.Header.Get("x-api-key"))
		assert.Equal(t, anthropicVersion, r.Header.Get("anthropic-version"))

		var req anthropicRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "claude-test", req.Model)
		assert.Equal(t, "hello", req.Messages[0].Content)

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"content":[{"type":"text","text":"hi "},{"type":"text","text":"there"}],"stop_reason":"end_turn"}`))
	}))
	defer srv.Close()

	m := NewAnthropic(ModelConfig{APIKey: "secret", Model: "claude-test", BaseURL: srv.URL})
	out, err := m.Generate(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, "hi there", out)
}

func TestAnthropic_MissingKey(t *testing.T) {
	_, err := NewAnthropic(ModelConfig{}).Generate(context.Background(), "x")
	assert.True(t, errors.Is(err, models.ErrLLMUnavailable))
}

func TestOpenAI_Generate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"{\"ok\":true}"},"finish_reason":"stop"}]}`))
	}))
	defer srv.Close()

	m := NewOpenAI(ModelConfig{APIKey: "secret", BaseURL: srv.URL})
	out, err := m.Generate(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, `{"ok":true}`, out)
}

func TestClient_RetriesRateLimited(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"done"}}]}`))
	}))
	defer srv.Close()

	m := metrics.New()
	c := NewClient(NewOpenAI(ModelConfig{APIKey: "k", BaseURL: srv.URL}), WithRetry(fastRetry), WithMetrics(m))
	out, err := c.Generate(context.Background(), "x")
	require.NoError(t, err)
	assert.Equal(t, "done", out)
	assert.Equal(t, int32(2), calls.Load())
}

func TestClient_DoesNotRetryAuthFailure(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, `{"error":"bad key"}`, http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := NewClient(NewAnthropic(ModelConfig{APIKey: "k", BaseURL: srv.URL}), WithRetry(fastRetry))
	_, err := c.Generate(context.Background(), "x")
	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())

	var statusErr *utils.StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusUnauthorized, statusErr.Code)
}

func TestClient_Unavailable(t *testing.T) {
	var c *Client
	_, err := c.Generate(context.Background(), "x")
	assert.True(t, errors.Is(err, models.ErrLLMUnavailable))
	assert.Equal(t, "", c.Provider())
}

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", `{"a":1}`, `{"a":1}`},
		{"fenced", "Here you go:\n```json\n{\"a\":[1,2]}\n```\nThanks", `{"a":[1,2]}`},
		{"prose", `The graph is {"a":1} as requested.`, `{"a":1}`},
		{"array", `[{"@type":"Place"}]`, `[{"@type":"Place"}]`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExtractJSON(tt.in)
			require.NoError(t, err)
			assert.JSONEq(t, tt.want, string(got))
		})
	}

	repaired, err := ExtractJSON(`{"a": 1, "b": [1, 2,], }`)
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":1,"b":[1,2]}`, string(repaired))

	_, err = ExtractJSON("no json here")
	assert.True(t, errors.Is(err, models.ErrInvalidInput))
}

const modelGraph = "```json\n" + `{
  "@context": "https://schema.org",
  "@graph": [
    {
      "@type": "Service",
      "@id": "https://coolair.example/ac-repair/#service",
      "name": "AC Repair",
      "areaServed": ["Dallas"],
      "provider": {"@id": "https://coolair.example/ac-repair/#business", "name": "stale"}
    },
    {
      "@type": "HVACBusiness",
      "@id": "https://coolair.example/ac-repair/#business",
      "name": "Cool Air"
    }
  ]
}` + "\n```"

func TestSchemaGenerator_Generate(t *testing.T) {
	model := &fakeModel{replies: []string{modelGraph}}
	gen := NewSchemaGenerator(NewClient(model))

	page := models.PageData{URL: "https://coolair.example/ac-repair/", Title: "AC Repair"}
	org := models.OrgInfo{Name: "Cool Air", URL: "https://coolair.example/"}
	graph, rep, err := gen.Generate(context.Background(), page, "# AC Repair", org, models.Options{AreaServed: "Dallas"}, models.PageService)
	require.NoError(t, err)
	require.Len(t, graph.Entities, 2)
	assert.True(t, rep.Valid(), "%v", rep.Errors())

	svc := graph.Entities[0].(*schema.Service)
	require.NotNil(t, svc.Provider.Address)
	assert.Equal(t, "Dallas", svc.Provider.Address.AddressLocality)

	biz := graph.Entities[1].(*schema.Business)
	require.NotNil(t, biz.Address)

	require.Len(t, model.prompts, 1)
	assert.Contains(t, model.prompts[0], "https://coolair.example/ac-repair/#service")
	assert.Contains(t, model.prompts[0], "# AC Repair")
}

func TestSchemaGenerator_GenerateErrors(t *testing.T) {
	page := models.PageData{URL: "https://coolair.example/x/"}

	gen := NewSchemaGenerator(NewClient(&fakeModel{replies: []string{`{"@graph":[]}`}}))
	_, _, err := gen.Generate(context.Background(), page, "", models.OrgInfo{}, models.Options{}, models.PageArticle)
	assert.True(t, errors.Is(err, models.ErrInvalidInput))

	gen = NewSchemaGenerator(NewClient(&fakeModel{err: errors.New("boom")}, WithRetry(fastRetry)))
	_, _, err = gen.Generate(context.Background(), page, "", models.OrgInfo{}, models.Options{}, models.PageArticle)
	var targetErr *models.TargetError
	require.True(t, errors.As(err, &targetErr))
	assert.Equal(t, page.URL, targetErr.Target)
}

func TestSchemaGenerator_Verify(t *testing.T) {
	model := &fakeModel{replies: []string{`{"issues":[{"entityType":"Service","field":"areaServed","message":"Katy is not mentioned","severity":"required"},{"message":" "}]}`}}
	gen := NewSchemaGenerator(NewClient(model))

	g := &schema.Graph{}
	g.Add(&schema.Place{Node: schema.Node{Type: "Place", ID: "x#place"}})

	rep, err := gen.Verify(context.Background(), models.PageData{URL: "https://a.example/"}, g)
	require.NoError(t, err)

	var review []schema.Issue
	for _, issue := range rep.Issues {
		if strings.HasPrefix(issue.Message, "review: ") {
			review = append(review, issue)
		}
	}
	require.Len(t, review, 1)
	assert.Equal(t, schema.SeverityRecommended, review[0].Severity)
	assert.Equal(t, "areaServed", review[0].Field)
	assert.False(t, rep.Valid(), "local validation still flags the nameless place")
}
