package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Plan — план деплоя: упорядоченный список контрактов и шаблоны аргументов
// их конструкторов.
//
// План строится один раз при старте из статической конфигурации
// и выбрасывается после завершения последнего шага.
//
// Инвариант: каждая ссылка на адрес в аргументах шага указывает на шаг,
// стоящий в плане строго раньше (ни forward-ссылок, ни циклов).
type Plan struct {
	// Version — версия формата плана.
	Version string `json:"version,omitempty"`

	// Name — имя плана (например, "nodus").
	Name string `json:"name,omitempty"`

	// Description — описание назначения плана.
	Description string `json:"description,omitempty"`

	// Inputs — входные параметры плана (адреса токенов, владельцы и т.д.).
	// Ключ — имя параметра, значение — его определение.
	Inputs map[string]InputDef `json:"inputs,omitempty"`

	// Steps — шаги в порядке выполнения.
	Steps []Step `json:"steps"`
}

// InputDef — определение входного параметра плана.
type InputDef struct {
	// Type — тип параметра: "address", "string", "number", "boolean".
	Type string `json:"type,omitempty"`

	// Required — обязательный ли параметр.
	Required bool `json:"required,omitempty"`

	// Default — значение по умолчанию.
	Default any `json:"default,omitempty"`

	// Description — описание параметра.
	Description string `json:"description,omitempty"`
}

// Step — один шаг деплоя: контракт и аргументы его конструктора.
// Неизменяем после парсинга.
type Step struct {
	// ID — уникальный идентификатор шага в рамках плана.
	// Используется в ссылках {ref: id} и {{ .Steps.id.Address }}.
	// Если не задан, совпадает с Contract.
	ID string `json:"id,omitempty"`

	// Contract — имя артефакта контракта (например, "NodusVault").
	Contract string `json:"contract"`

	// Label — человекочитаемое описание шага.
	Label string `json:"label,omitempty"`

	// Args — аргументы конструктора в порядке объявления.
	Args []Arg `json:"args,omitempty"`

	// Value — сумма в wei, отправляемая вместе с деплоем (десятичная строка).
	Value string `json:"value,omitempty"`

	// GasLimit — лимит газа. 0 — оценивается автоматически.
	GasLimit uint64 `json:"gas_limit,omitempty"`
}

// Name возвращает Label, если он задан, иначе ID.
func (s *Step) Name() string {
	if s.Label != "" {
		return s.Label
	}
	return s.ID
}

// Arg — аргумент конструктора.
//
// Либо литерал (строка, число, bool; строки могут быть Go templates),
// либо явная ссылка на адрес, полученный на предыдущем шаге:
//
//	args:
//	  - "{{ .Inputs.usdc }}"
//	  - ref: vault
type Arg struct {
	// Value — литеральное значение. Nil для ссылок.
	Value any `json:"value,omitempty"`

	// Ref — ID шага, адрес которого подставляется в аргумент.
	Ref string `json:"ref,omitempty"`
}

// Literal создаёт литеральный аргумент.
func Literal(v any) Arg {
	return Arg{Value: v}
}

// Ref создаёт аргумент-ссылку на шаг.
func Ref(stepID string) Arg {
	return Arg{Ref: stepID}
}

// IsRef возвращает true, если аргумент ссылается на другой шаг.
func (a Arg) IsRef() bool {
	return a.Ref != ""
}

// String возвращает представление аргумента для логов.
func (a Arg) String() string {
	if a.IsRef() {
		return "ref(" + a.Ref + ")"
	}
	return fmt.Sprint(a.Value)
}

// MarshalJSON сериализует ссылку как {"ref": id}, литерал — как есть.
func (a Arg) MarshalJSON() ([]byte, error) {
	if a.IsRef() {
		return json.Marshal(struct {
			Ref string `json:"ref"`
		}{a.Ref})
	}
	return json.Marshal(a.Value)
}

// UnmarshalJSON принимает литерал или объект {"ref": id}.
// Числа сохраняются как json.Number, чтобы не терять точность uint256.
func (a *Arg) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '{' {
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(data, &obj); err != nil {
			return err
		}
		raw, ok := obj["ref"]
		if !ok || len(obj) != 1 {
			return fmt.Errorf("object argument must have exactly one key \"ref\"")
		}
		var ref string
		if err := json.Unmarshal(raw, &ref); err != nil {
			return fmt.Errorf("ref must be a string: %w", err)
		}
		if ref == "" {
			return fmt.Errorf("ref must not be empty")
		}
		*a = Arg{Ref: ref}
		return nil
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return err
	}
	*a = Arg{Value: v}
	return nil
}
