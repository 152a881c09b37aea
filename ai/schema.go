package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/liamtostring/schegen/models"
	"github.com/liamtostring/schegen/schema"
)

// SchemaGenerator asks a model for a graph and passes every answer through
// the same repair and validation as composed graphs.
type SchemaGenerator struct {
	client *Client
}

func NewSchemaGenerator(c *Client) *SchemaGenerator {
	return &SchemaGenerator{client: c}
}

// Generate returns a repaired graph and its validation report. The model
// output is untrusted: it is decoded into the closed entity set and
// repaired before validation.
func (g *SchemaGenerator) Generate(ctx context.Context, page models.PageData, markdown string, org models.OrgInfo, opts models.Options, pageType models.PageType) (*schema.Graph, schema.Report, error) {
	raw, err := g.client.GenerateJSON(ctx, generatePrompt(page, markdown, org, opts, pageType))
	if err != nil {
		return nil, schema.Report{}, models.WithTarget(page.URL, err)
	}

	graph, err := schema.DecodeGraph(raw)
	if err != nil {
		return nil, schema.Report{}, models.WithTarget(page.URL, fmt.Errorf("decode model graph: %w", err))
	}
	if len(graph.Entities) == 0 {
		return nil, schema.Report{}, models.WithTarget(page.URL, fmt.Errorf("%w: model returned an empty graph", models.ErrInvalidInput))
	}

	schema.Repair(graph, schema.ServiceAreas(page, opts))
	return graph, schema.Validate(graph), nil
}

type review struct {
	Issues []schema.Issue `json:"issues"`
}

// Verify asks the model to review graph against page and merges its
// findings into the local validation report. Model findings never carry
// required severity, so they cannot block persistence.
func (g *SchemaGenerator) Verify(ctx context.Context, page models.PageData, graph *schema.Graph) (schema.Report, error) {
	rep := schema.Validate(graph)

	data, err := json.Marshal(graph)
	if err != nil {
		return rep, err
	}
	raw, err := g.client.GenerateJSON(ctx, verifyPrompt(page, data))
	if err != nil {
		return rep, models.WithTarget(page.URL, err)
	}

	var r review
	if err := json.Unmarshal(raw, &r); err != nil {
		return rep, models.WithTarget(page.URL, fmt.Errorf("%w: review: %v", models.ErrInvalidInput, err))
	}
	for _, issue := range r.Issues {
		if strings.TrimSpace(issue.Message) == "" {
			continue
		}
		if issue.EntityType == "" {
			issue.EntityType = "graph"
		}
		issue.Severity = schema.SeverityRecommended
		issue.Message = "review: " + issue.Message
		rep.Issues = append(rep.Issues, issue)
	}
	return rep, nil
}
