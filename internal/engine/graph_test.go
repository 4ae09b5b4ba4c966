package engine

import (
	"errors"
	"reflect"
	"testing"

	"github.com/shaiso/nodus-deploy/internal/domain"
)

func TestBuildGraph_Chain(t *testing.T) {
	plan := &domain.Plan{
		Steps: []domain.Step{
			{ID: "token", Contract: "Token"},
			{ID: "vault", Contract: "Vault", Args: []domain.Arg{domain.Ref("token")}},
			{ID: "core", Contract: "Core", Args: []domain.Arg{
				domain.Literal("{{ .Steps.token.Address }}"),
				domain.Ref("vault"),
				domain.Ref("vault"),
			}},
		},
	}

	g, err := BuildGraph(plan)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(g.Nodes) != 3 {
		t.Fatalf("expected 3 nodes, got %d", len(g.Nodes))
	}
	token, core := g.Nodes[0], g.Nodes[2]

	if len(token.DependsOn) != 0 {
		t.Errorf("token should depend on nothing, got %d", len(token.DependsOn))
	}

	// Дубликат ссылки на vault не даёт второго ребра
	if len(core.DependsOn) != 2 {
		t.Errorf("core should depend on 2 steps, got %d", len(core.DependsOn))
	}

	if len(token.Dependents) != 2 {
		t.Errorf("token should have 2 dependents, got %d", len(token.Dependents))
	}

	// Узлы идут в порядке плана
	for i, node := range g.Nodes {
		if node.Index != i {
			t.Errorf("node %s has index %d, expected %d", node.ID(), node.Index, i)
		}
	}
}

func TestBuildGraph_Forward(t *testing.T) {
	plan := &domain.Plan{
		Steps: []domain.Step{
			{ID: "a", Contract: "A", Args: []domain.Arg{domain.Ref("b")}},
			{ID: "b", Contract: "B", Args: []domain.Arg{domain.Ref("a")}},
		},
	}

	_, err := BuildGraph(plan)
	if !errors.Is(err, ErrForwardReference) {
		t.Errorf("expected ErrForwardReference, got %v", err)
	}
}

func TestStepReferences(t *testing.T) {
	step := &domain.Step{
		Args: []domain.Arg{
			domain.Ref("b"),
			domain.Literal("{{ .Steps.a.Address }}"),
			domain.Literal(`{{ if .Steps.c }}{{ .Steps.c.Address }}{{ else }}{{ .Inputs.fallback }}{{ end }}`),
			domain.Literal(true),
		},
	}

	refs, err := StepReferences(step)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(refs, []string{"a", "b", "c"}) {
		t.Errorf("expected [a b c], got %v", refs)
	}

	inputs, err := InputReferences(step)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(inputs, []string{"fallback"}) {
		t.Errorf("expected [fallback], got %v", inputs)
	}
}

func TestStepReferences_BareSteps(t *testing.T) {
	step := &domain.Step{Args: []domain.Arg{domain.Literal("{{ .Steps }}")}}

	_, err := StepReferences(step)
	if !errors.Is(err, ErrInvalidReference) {
		t.Errorf("expected ErrInvalidReference, got %v", err)
	}
}
