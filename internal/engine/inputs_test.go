package engine

import (
	"errors"
	"testing"

	"github.com/shaiso/nodus-deploy/internal/domain"
)

func TestApplyInputs(t *testing.T) {
	plan := &domain.Plan{
		Inputs: map[string]domain.InputDef{
			"usdc":   {Type: "address", Default: usdc},
			"owner":  {Type: "address", Required: true},
			"fee":    {Type: "number"},
			"paused": {Type: "boolean", Default: false},
		},
	}

	owner := "0x00000000000000000000000000000000000000b1"
	got, err := ApplyInputs(plan, map[string]any{"owner": owner, "extra": "dropped"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got["usdc"] != usdc {
		t.Errorf("expected default usdc, got %v", got["usdc"])
	}
	if got["owner"] != owner {
		t.Errorf("expected owner %s, got %v", owner, got["owner"])
	}
	if got["paused"] != false {
		t.Errorf("expected paused=false, got %v", got["paused"])
	}
	if _, ok := got["fee"]; ok {
		t.Error("optional input without default should be absent")
	}
	if _, ok := got["extra"]; ok {
		t.Error("undeclared input should be dropped")
	}
}

func TestApplyInputs_Missing(t *testing.T) {
	plan := &domain.Plan{
		Inputs: map[string]domain.InputDef{"owner": {Type: "address", Required: true}},
	}

	_, err := ApplyInputs(plan, nil)
	if !errors.Is(err, ErrMissingInput) {
		t.Errorf("expected ErrMissingInput, got %v", err)
	}
}

func TestApplyInputs_InvalidAddress(t *testing.T) {
	plan := &domain.Plan{
		Inputs: map[string]domain.InputDef{"usdc": {Type: "address"}},
	}

	_, err := ApplyInputs(plan, map[string]any{"usdc": "0x1234"})
	if !errors.Is(err, ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}
}
