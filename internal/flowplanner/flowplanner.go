// Package flowplanner implements the Flow Planner (C2): selecting a
// question flow variant and contextually re-templating its prompts.
// Uses a stateless prompt-templating helper: assembling a prompt from a
// fixed template plus runtime context, applied to question-flow
// assembly with no LLM involved.
package flowplanner

import (
	"context"

	"github.com/nyx-moment/moment/internal/catalog"
	"github.com/nyx-moment/moment/internal/types"
)

// Planner produces a QuestionFlow from the catalog's question set given a
// requested flow name and the client's context.
type Planner struct {
	catalog *catalog.Store
}

// NewPlanner wraps the Question Catalog this planner draws from.
func NewPlanner(store *catalog.Store) *Planner {
	return &Planner{catalog: store}
}

// questionCounts fixes the approximate question-count shape of each flow:
// standard ≈5, quick 3, deep ≥7, surprise and visual have their own shapes.
const (
	quickCount    = 3
	standardCount = 5
	deepMinCount  = 7
)

// Plan builds a QuestionFlow for flowName, catalog questions for domain,
// and the given context. Unknown flow names map to standard.
func (p *Planner) Plan(ctx context.Context, domain types.Domain, flowName string, reqCtx types.RequestContext) types.QuestionFlow {
	flowType := types.NormalizeFlowType(flowName)
	questions, _ := p.catalog.GetQuestions(ctx, domain)

	selected := selectQuestions(flowType, questions)
	templated := make([]types.Question, len(selected))
	for i, q := range selected {
		templated[i] = retemplate(q, reqCtx)
	}

	return types.QuestionFlow{
		FlowType:  flowType,
		Greeting:  greeting(flowType, reqCtx),
		Questions: templated,
		Context:   reqCtx,
	}
}

func selectQuestions(flowType types.FlowType, all []types.Question) []types.Question {
	switch flowType {
	case types.FlowQuick:
		return capQuestions(all, quickCount)
	case types.FlowDeep:
		// Deep never caps: the catalog's full question set is used even
		// when it falls short of deepMinCount.
		return all
	case types.FlowSurprise:
		return capQuestions(all, quickCount)
	case types.FlowVisual:
		return capQuestions(all, 1)
	default: // standard
		return capQuestions(all, standardCount)
	}
}

func capQuestions(all []types.Question, n int) []types.Question {
	if len(all) <= n {
		return all
	}
	return all[:n]
}

// retemplate rewrites a question's prompt text based on context, never its
// identifier, so answers remain comparable across flows.
func retemplate(q types.Question, ctx types.RequestContext) types.Question {
	out := q
	switch {
	case ctx.TimeOfDay == types.TimeLateNight && q.ID == "energy_level":
		out.Prompt = "It's late — how's your energy holding up?"
	case ctx.TimeOfDay == types.TimeMorning && q.ID == "mood_today":
		out.Prompt = "How are you starting the day?"
	case ctx.DayClass == types.DayWeekend && q.ID == "attention_level":
		out.Prompt = "Got a free afternoon, or squeezing this in?"
	case ctx.Season == types.SeasonWinter && q.ID == "mood_today":
		out.Prompt = "What's the mood on a day like today?"
	}
	return out
}

func greeting(flowType types.FlowType, ctx types.RequestContext) string {
	base := map[types.FlowType]string{
		types.FlowStandard: "Let's find your next watch.",
		types.FlowQuick:    "Quick round — three questions, then we're off.",
		types.FlowDeep:     "Let's really dig into what you're in the mood for.",
		types.FlowSurprise: "Answer in metaphors — we'll do the rest.",
		types.FlowVisual:   "Pick the mood board that feels right.",
	}[flowType]

	switch ctx.TimeOfDay {
	case types.TimeLateNight:
		return base + " Burning the midnight oil, huh?"
	case types.TimeMorning:
		return base + " Good morning!"
	default:
		return base
	}
}
