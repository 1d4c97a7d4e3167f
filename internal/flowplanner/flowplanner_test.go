package flowplanner

import (
	"context"
	"testing"

	"github.com/nyx-moment/moment/internal/catalog"
	"github.com/nyx-moment/moment/internal/types"
)

func TestPlan_UnknownFlowMapsToStandard(t *testing.T) {
	p := NewPlanner(catalog.NewStore(nil, 0))
	flow := p.Plan(context.Background(), types.DomainMovies, "nonsense", types.RequestContext{})
	if flow.FlowType != types.FlowStandard {
		t.Fatalf("expected standard flow, got %s", flow.FlowType)
	}
}

func TestPlan_QuickFlowCapsQuestionCount(t *testing.T) {
	p := NewPlanner(catalog.NewStore(nil, 0))
	flow := p.Plan(context.Background(), types.DomainMovies, "quick", types.RequestContext{})
	if len(flow.Questions) > quickCount {
		t.Fatalf("expected at most %d questions, got %d", quickCount, len(flow.Questions))
	}
}

func TestPlan_IdentifiersStableAcrossFlows(t *testing.T) {
	p := NewPlanner(catalog.NewStore(nil, 0))
	standard := p.Plan(context.Background(), types.DomainMovies, "standard", types.RequestContext{})
	lateNight := p.Plan(context.Background(), types.DomainMovies, "standard", types.RequestContext{TimeOfDay: types.TimeLateNight})

	if len(standard.Questions) != len(lateNight.Questions) {
		t.Fatalf("expected same question count regardless of context")
	}
	for i := range standard.Questions {
		if standard.Questions[i].ID != lateNight.Questions[i].ID {
			t.Errorf("question identifiers must remain stable across context, got %q vs %q",
				standard.Questions[i].ID, lateNight.Questions[i].ID)
		}
	}
}

func TestPlan_RetemplatesPromptForLateNight(t *testing.T) {
	p := NewPlanner(catalog.NewStore(nil, 0))
	flow := p.Plan(context.Background(), types.DomainMovies, "standard", types.RequestContext{TimeOfDay: types.TimeLateNight})
	for _, q := range flow.Questions {
		if q.ID == "energy_level" && q.Prompt != "It's late — how's your energy holding up?" {
			t.Errorf("expected late-night prompt rewrite, got %q", q.Prompt)
		}
	}
}
