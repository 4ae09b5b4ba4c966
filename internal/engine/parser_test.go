package engine

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/shaiso/nodus-deploy/internal/domain"
)

const nodusYAML = `
name: nodus
inputs:
  usdc:
    type: address
    default: "0x8FB1E3fC51F3b789dED7557E680551d93Ea9d892"
steps:
  - id: vault
    contract: NodusVault
    args:
      - "{{ .Inputs.usdc }}"
  - contract: Nodus
    label: Nodus core
    args:
      - "{{ .Inputs.usdc }}"
      - ref: vault
`

func TestParsePlan_YAML(t *testing.T) {
	plan, err := ParsePlan([]byte(nodusYAML), FormatYAML)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if plan.Name != "nodus" {
		t.Errorf("expected name nodus, got %s", plan.Name)
	}
	if len(plan.Steps) != 2 {
		t.Fatalf("expected 2 steps, got %d", len(plan.Steps))
	}

	// ID по умолчанию совпадает с контрактом
	if plan.Steps[1].ID != "Nodus" {
		t.Errorf("expected default ID Nodus, got %q", plan.Steps[1].ID)
	}

	args := plan.Steps[1].Args
	if len(args) != 2 {
		t.Fatalf("expected 2 args, got %d", len(args))
	}
	if args[0].IsRef() || args[0].Value != "{{ .Inputs.usdc }}" {
		t.Errorf("first arg should be template literal, got %v", args[0])
	}
	if !args[1].IsRef() || args[1].Ref != "vault" {
		t.Errorf("second arg should be ref(vault), got %v", args[1])
	}

	if err := Validate(plan); err != nil {
		t.Errorf("plan should be valid: %v", err)
	}
}

func TestParsePlan_JSON(t *testing.T) {
	data := `{
		"steps": [
			{"id": "a", "contract": "A", "args": [42, true, "x"]},
			{"id": "b", "contract": "B", "args": [{"ref": "a"}]}
		]
	}`

	plan, err := ParsePlan([]byte(data), FormatJSON)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Числа сохраняются как json.Number
	if n, ok := plan.Steps[0].Args[0].Value.(json.Number); !ok || n.String() != "42" {
		t.Errorf("expected json.Number 42, got %T %v", plan.Steps[0].Args[0].Value, plan.Steps[0].Args[0].Value)
	}
	if plan.Steps[0].Args[1].Value != true {
		t.Errorf("expected bool true, got %v", plan.Steps[0].Args[1].Value)
	}
	if plan.Steps[1].Args[0].Ref != "a" {
		t.Errorf("expected ref a, got %v", plan.Steps[1].Args[0])
	}
}

func TestParsePlan_UnknownField(t *testing.T) {
	data := `{"steps": [{"contract": "A", "argz": []}]}`

	if _, err := ParsePlan([]byte(data), FormatJSON); err == nil {
		t.Error("expected error for unknown field")
	}
}

func TestParsePlan_BadRefObject(t *testing.T) {
	data := `{"steps": [{"contract": "A", "args": [{"ref": "x", "extra": 1}]}]}`

	if _, err := ParsePlan([]byte(data), FormatJSON); err == nil {
		t.Error("expected error for object arg with extra keys")
	}
}

func TestParsePlan_UnsupportedFormat(t *testing.T) {
	_, err := ParsePlan([]byte("{}"), Format("toml"))
	if !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("expected ErrUnsupportedFormat, got %v", err)
	}
}

func TestLoadPlan(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "plan.yml")
	if err := os.WriteFile(path, []byte(nodusYAML), 0o644); err != nil {
		t.Fatal(err)
	}

	plan, err := LoadPlan(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(plan.Steps) != 2 {
		t.Errorf("expected 2 steps, got %d", len(plan.Steps))
	}

	if _, err := LoadPlan(filepath.Join(dir, "plan.txt")); !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("expected ErrUnsupportedFormat, got %v", err)
	}
}

func TestNormalize_DoesNotMutate(t *testing.T) {
	plan := &domain.Plan{
		Steps: []domain.Step{{Contract: "A"}},
	}

	out := Normalize(plan)
	if out.Steps[0].ID != "A" {
		t.Errorf("expected ID A, got %q", out.Steps[0].ID)
	}
	if plan.Steps[0].ID != "" {
		t.Error("original plan should not be modified")
	}
}

func TestValidate_EmptyPlan(t *testing.T) {
	err := Validate(&domain.Plan{})
	if !errors.Is(err, ErrEmptyPlan) {
		t.Errorf("expected ErrEmptyPlan, got %v", err)
	}

	var verr *PlanValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected PlanValidationError, got %T", err)
	}
	if verr.Index != -1 {
		t.Errorf("expected plan-level error index -1, got %d", verr.Index)
	}
}

func TestValidate_StepFields(t *testing.T) {
	cases := []struct {
		name string
		step domain.Step
		want error
	}{
		{"empty id", domain.Step{Contract: "A"}, ErrEmptyStepID},
		{"empty contract", domain.Step{ID: "a"}, ErrEmptyContract},
		{"negative value", domain.Step{ID: "a", Contract: "A", Value: "-1"}, ErrInvalidValue},
		{"garbage value", domain.Step{ID: "a", Contract: "A", Value: "1eth"}, ErrInvalidValue},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := Validate(&domain.Plan{Steps: []domain.Step{tc.step}})
			if !errors.Is(err, tc.want) {
				t.Errorf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestValidate_DuplicateID(t *testing.T) {
	plan := &domain.Plan{
		Steps: []domain.Step{
			{ID: "a", Contract: "A"},
			{ID: "a", Contract: "B"},
		},
	}

	err := Validate(plan)
	if !errors.Is(err, ErrDuplicateStepID) {
		t.Errorf("expected ErrDuplicateStepID, got %v", err)
	}
}

func TestValidate_ForwardReference(t *testing.T) {
	// A ссылается на B, который ещё не задеплоен
	plan := &domain.Plan{
		Steps: []domain.Step{
			{ID: "A", Contract: "A", Args: []domain.Arg{domain.Ref("B")}},
			{ID: "B", Contract: "B"},
		},
	}

	err := Validate(plan)
	if !errors.Is(err, ErrForwardReference) {
		t.Fatalf("expected ErrForwardReference, got %v", err)
	}

	var verr *PlanValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected PlanValidationError, got %T", err)
	}
	if verr.StepID != "A" || verr.Index != 0 {
		t.Errorf("expected error on step A #0, got %s #%d", verr.StepID, verr.Index)
	}
}

func TestValidate_UnknownReference(t *testing.T) {
	plan := &domain.Plan{
		Steps: []domain.Step{
			{ID: "A", Contract: "A", Args: []domain.Arg{domain.Ref("B")}},
		},
	}

	if err := Validate(plan); !errors.Is(err, ErrUnknownReference) {
		t.Errorf("expected ErrUnknownReference, got %v", err)
	}
}

func TestValidate_SelfReference(t *testing.T) {
	plan := &domain.Plan{
		Steps: []domain.Step{
			{ID: "A", Contract: "A", Args: []domain.Arg{domain.Literal("{{ .Steps.A.Address }}")}},
		},
	}

	if err := Validate(plan); !errors.Is(err, ErrSelfReference) {
		t.Errorf("expected ErrSelfReference, got %v", err)
	}
}

func TestValidate_TemplateForwardReference(t *testing.T) {
	plan := &domain.Plan{
		Steps: []domain.Step{
			{ID: "a", Contract: "A", Args: []domain.Arg{domain.Literal("{{ index .Steps \"b\" }}")}},
			{ID: "b", Contract: "B"},
		},
	}

	if err := Validate(plan); !errors.Is(err, ErrForwardReference) {
		t.Errorf("expected ErrForwardReference, got %v", err)
	}
}

func TestValidate_UndeclaredInput(t *testing.T) {
	plan := &domain.Plan{
		Steps: []domain.Step{
			{ID: "a", Contract: "A", Args: []domain.Arg{domain.Literal("{{ .Inputs.token }}")}},
		},
	}

	if err := Validate(plan); !errors.Is(err, ErrUnknownInput) {
		t.Errorf("expected ErrUnknownInput, got %v", err)
	}

	plan.Inputs = map[string]domain.InputDef{"token": {Type: "address"}}
	if err := Validate(plan); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestValidate_BadTemplate(t *testing.T) {
	plan := &domain.Plan{
		Steps: []domain.Step{
			{ID: "a", Contract: "A", Args: []domain.Arg{domain.Literal("{{ .Inputs.token ")}},
		},
	}

	err := Validate(plan)
	if !errors.Is(err, ErrTemplateParse) {
		t.Errorf("expected ErrTemplateParse, got %v", err)
	}
	var verr *PlanValidationError
	if !errors.As(err, &verr) {
		t.Errorf("template errors should be validation errors, got %T", err)
	}
}

func TestValidate_TemplateExecution(t *testing.T) {
	plan := &domain.Plan{
		Inputs: map[string]domain.InputDef{"token": {Type: "address", Required: true}},
		Steps: []domain.Step{
			{ID: "a", Contract: "A", Args: []domain.Arg{domain.Literal("{{ checksum .Inputs.token }}")}},
			{ID: "b", Contract: "B", Args: []domain.Arg{domain.Literal("{{ .Steps.a.Adress }}")}},
		},
	}

	err := Validate(plan)
	var verr *PlanValidationError
	if !errors.As(err, &verr) || verr.StepID != "b" {
		t.Fatalf("expected validation error for step b, got %v", err)
	}
	if !errors.Is(err, ErrTemplateRender) {
		t.Errorf("expected ErrTemplateRender, got %v", err)
	}

	plan.Steps[1].Args = []domain.Arg{domain.Literal("{{ .Steps.a.Address }}")}
	if err := Validate(plan); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestPlaceholderInputs(t *testing.T) {
	inputs := PlaceholderInputs(map[string]domain.InputDef{
		"token": {Type: "address"},
		"count": {Type: "number"},
		"flag":  {Type: "boolean"},
		"note":  {Default: "hello"},
	})

	if inputs["token"] != "0x0000000000000000000000000000000000000000" {
		t.Errorf("token = %v", inputs["token"])
	}
	if inputs["count"] != json.Number("0") || inputs["flag"] != false || inputs["note"] != "hello" {
		t.Errorf("inputs = %v", inputs)
	}
}
