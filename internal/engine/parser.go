package engine

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math/big"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-yaml"

	"github.com/shaiso/nodus-deploy/internal/domain"
)

// Format — формат файла плана.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatFromPath определяет формат по расширению файла.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}
}

// LoadPlan читает и парсит план из файла.
// План не валидируется: это делает Validate.
func LoadPlan(path string) (*domain.Plan, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read plan: %w", err)
	}
	return ParsePlan(data, format)
}

// ParsePlan парсит план из JSON или YAML.
//
// YAML конвертируется в JSON, поэтому оба формата проходят один путь
// декодирования (включая разбор аргументов {ref: id}).
// Шаги без ID получают ID, равный имени контракта.
func ParsePlan(data []byte, format Format) (*domain.Plan, error) {
	switch format {
	case FormatJSON:
	case FormatYAML:
		var raw any
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("parse yaml: %w", err)
		}
		converted, err := json.Marshal(raw)
		if err != nil {
			return nil, fmt.Errorf("convert yaml: %w", err)
		}
		data = converted
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()

	var plan domain.Plan
	if err := dec.Decode(&plan); err != nil {
		return nil, fmt.Errorf("decode plan: %w", err)
	}

	return Normalize(&plan), nil
}

// Normalize возвращает копию плана, в которой у каждого шага есть ID.
// Исходный план не изменяется.
func Normalize(plan *domain.Plan) *domain.Plan {
	if plan == nil {
		return nil
	}
	out := *plan
	out.Steps = make([]domain.Step, len(plan.Steps))
	for i, step := range plan.Steps {
		if step.ID == "" {
			step.ID = step.Contract
		}
		step.Args = append([]domain.Arg(nil), step.Args...)
		out.Steps[i] = step
	}
	return &out
}

// Validate выполняет полную валидацию плана.
//
// Проверяет:
//   - Наличие шагов
//   - Непустые ID и контракты
//   - Уникальность ID шагов
//   - Что каждая ссылка (явная или в шаблоне) ведёт на шаг строго раньше
//   - Что шаблоны используют только объявленные inputs
//   - Что шаблоны выполняются (пробный рендер, см. CheckArgs)
//   - Корректность value
func Validate(plan *domain.Plan) error {
	if plan == nil || len(plan.Steps) == 0 {
		return NewValidationError(-1, "", "steps", "plan has no steps", ErrEmptyPlan)
	}

	for i := range plan.Steps {
		if err := ValidateStep(i, &plan.Steps[i], plan.Inputs); err != nil {
			return err
		}
	}

	// Уникальность и порядок ссылок проверяет граф
	if _, err := BuildGraph(plan); err != nil {
		return err
	}

	return CheckArgs(plan, PlaceholderInputs(plan.Inputs))
}

// ValidateStep валидирует поля одного шага, не глядя на остальные шаги.
func ValidateStep(index int, step *domain.Step, inputs map[string]domain.InputDef) error {
	if step.ID == "" {
		return NewValidationError(index, "", "id", "step has empty ID", ErrEmptyStepID)
	}
	if step.Contract == "" {
		return NewValidationError(index, step.ID, "contract", "step has empty contract", ErrEmptyContract)
	}

	if step.Value != "" {
		v, ok := new(big.Int).SetString(step.Value, 10)
		if !ok || v.Sign() < 0 {
			return NewValidationError(index, step.ID, "value",
				fmt.Sprintf("value must be a non-negative integer in wei, got %q", step.Value), ErrInvalidValue)
		}
	}

	names, err := InputReferences(step)
	if err != nil {
		return NewValidationError(index, step.ID, "args", err.Error(), err)
	}
	for _, name := range names {
		if _, ok := inputs[name]; !ok {
			return NewValidationError(index, step.ID, "args",
				fmt.Sprintf("uses undeclared input: %s", name), ErrUnknownInput)
		}
	}

	return nil
}
