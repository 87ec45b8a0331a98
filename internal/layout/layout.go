// Package layout turns a query plus retrieved context into a structured
// layout plan via the Anthropic API.
//
// The boundary contract: Plan always returns a renderable plan. API errors,
// malformed model output, and empty responses degrade to the fallback plan —
// an apology with a contact call to action — returned alongside the error so
// callers can signal the failure without ever lacking a body to serve.
package layout

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/atlas-creative/content-engine/internal/config"
	"github.com/atlas-creative/content-engine/internal/model"
	"github.com/atlas-creative/content-engine/internal/retrieve"
	"github.com/atlas-creative/content-engine/pkg/anthropic"
)

// Orchestrator plans a page layout for a query. Implementations must return
// a usable plan even on failure: a non-nil error marks the plan as the
// degraded fallback, never a missing body.
type Orchestrator interface {
	Plan(ctx context.Context, query string, bundle *retrieve.Bundle, history []model.ConversationTurn) (*model.LayoutPlan, error)
}

const fallbackExplanation = "Sorry, we couldn't put together a page for that request right now. " +
	"Get in touch and we'll walk you through the relevant work directly."

// Fallback returns the degraded plan served when orchestration fails.
func Fallback() *model.LayoutPlan {
	return &model.LayoutPlan{
		Components:  []model.LayoutComponent{},
		Explanation: fallbackExplanation,
		ContactCTA:  true,
	}
}

const systemPrompt = `You are a layout planner for a creative agency's website. Given a visitor's
query and excerpts from the agency's indexed work, respond with ONLY a JSON
object of this exact shape:

{
  "layoutPlan": [{"type": "<component>", "props": {...}}, ...],
  "explanation": "<one or two sentences on why this layout answers the query>",
  "contactCTA": <bool>
}

Component types: "hero", "caseStudyCard", "statBlock", "quote", "imageGallery",
"capabilityList", "contactForm". Order components top to bottom. Use only
facts present in the provided context. Set contactCTA true when the visitor
should be nudged to talk to the team.`

// planTemperature keeps the model conservative so the JSON contract holds.
const planTemperature = 0.2

// AnthropicOrchestrator implements Orchestrator against the messages API.
type AnthropicOrchestrator struct {
	client    anthropic.Client
	model     string
	maxTokens int64
}

// NewAnthropic constructs the production orchestrator.
func NewAnthropic(client anthropic.Client, cfg config.AnthropicConfig) *AnthropicOrchestrator {
	maxTokens := int64(cfg.MaxTokens)
	if maxTokens <= 0 {
		maxTokens = 4096
	}
	return &AnthropicOrchestrator{client: client, model: cfg.Model, maxTokens: maxTokens}
}

func (o *AnthropicOrchestrator) Plan(ctx context.Context, query string, bundle *retrieve.Bundle, history []model.ConversationTurn) (*model.LayoutPlan, error) {
	messages := make([]anthropic.Message, 0, len(history)+1)
	for _, turn := range history {
		messages = append(messages, anthropic.Message{Role: turn.Role, Content: turn.Content})
	}
	messages = append(messages, anthropic.Message{Role: "user", Content: buildUserPrompt(query, bundle)})

	temperature := planTemperature
	resp, err := o.client.CreateMessage(ctx, anthropic.MessageRequest{
		Model:     o.model,
		MaxTokens: o.maxTokens,
		// The system prompt is identical across requests; cache it for an hour.
		System: []anthropic.SystemBlock{{
			Text:         systemPrompt,
			CacheControl: &anthropic.CacheControl{TTL: "1h"},
		}},
		Messages:    messages,
		Temperature: &temperature,
	})
	if err != nil {
		zap.L().Error("layout orchestration request failed", zap.Error(err))
		return Fallback(), eris.Wrap(err, "layout: orchestration request")
	}
	resp.Usage.LogCost(o.model, "layout")

	plan, err := parsePlan(resp.Text())
	if err != nil {
		zap.L().Error("layout plan unparseable", zap.Error(err))
		return Fallback(), err
	}
	return plan, nil
}

func buildUserPrompt(query string, bundle *retrieve.Bundle) string {
	var sb strings.Builder
	sb.WriteString("Visitor query: ")
	sb.WriteString(query)
	sb.WriteString("\n\n## Relevant work excerpts\n")

	if bundle == nil || len(bundle.Chunks) == 0 {
		sb.WriteString("(none indexed for this query)\n")
	} else {
		for i, sc := range bundle.Chunks {
			fmt.Fprintf(&sb, "\n[%d] (relevance %.2f)\n%s\n", i+1, sc.Score, sc.Chunk.Content)
		}
	}

	if bundle != nil && len(bundle.Assets) > 0 {
		sb.WriteString("\n## Available visuals\n")
		for _, a := range bundle.Assets {
			fmt.Fprintf(&sb, "- %s", a.URL)
			if a.Caption != "" {
				fmt.Fprintf(&sb, " — %s", a.Caption)
			}
			sb.WriteString("\n")
		}
	}
	return sb.String()
}

// parsePlan extracts the JSON object from model output, tolerating markdown
// fences and surrounding prose.
func parsePlan(text string) (*model.LayoutPlan, error) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return nil, eris.New("layout: no JSON object in model output")
	}

	var plan model.LayoutPlan
	if err := json.Unmarshal([]byte(text[start:end+1]), &plan); err != nil {
		return nil, eris.Wrap(err, "layout: decode plan")
	}
	if plan.Components == nil {
		plan.Components = []model.LayoutComponent{}
	}
	if strings.TrimSpace(plan.Explanation) == "" {
		return nil, eris.New("layout: plan missing explanation")
	}
	return &plan, nil
}
