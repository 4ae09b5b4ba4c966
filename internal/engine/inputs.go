package engine

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"

	"github.com/ethereum/go-ethereum/common"

	"github.com/shaiso/nodus-deploy/internal/domain"
)

// ApplyInputs объединяет переданные значения с defaults плана.
//
// Возвращает ошибку, если обязательный параметр не передан
// или значение не соответствует объявленному типу.
// Параметры, не объявленные в плане, отбрасываются.
func ApplyInputs(plan *domain.Plan, provided map[string]any) (map[string]any, error) {
	result := make(map[string]any, len(plan.Inputs))

	names := make([]string, 0, len(plan.Inputs))
	for name := range plan.Inputs {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		def := plan.Inputs[name]

		value, ok := provided[name]
		if !ok || value == nil || value == "" {
			if def.Default != nil {
				value = def.Default
			} else if def.Required {
				return nil, fmt.Errorf("%w: %s", ErrMissingInput, name)
			} else {
				continue
			}
		}

		if err := checkInputType(def.Type, value); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrInvalidInput, name, err)
		}
		result[name] = value
	}

	return result, nil
}

// checkInputType проверяет значение на соответствие типу параметра.
func checkInputType(typ string, value any) error {
	switch typ {
	case "", "string":
		return nil
	case "address":
		s, ok := value.(string)
		if !ok || !common.IsHexAddress(s) {
			return fmt.Errorf("expected hex address, got %v", value)
		}
	case "number":
		switch v := value.(type) {
		case json.Number, int, int64, uint64, float64:
		case string:
			if _, err := strconv.ParseFloat(v, 64); err != nil {
				return fmt.Errorf("expected number, got %q", v)
			}
		default:
			return fmt.Errorf("expected number, got %T", value)
		}
	case "boolean":
		switch v := value.(type) {
		case bool:
		case string:
			if _, err := strconv.ParseBool(v); err != nil {
				return fmt.Errorf("expected boolean, got %q", v)
			}
		default:
			return fmt.Errorf("expected boolean, got %T", value)
		}
	default:
		return fmt.Errorf("unknown input type %q", typ)
	}
	return nil
}
