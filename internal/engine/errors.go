package engine

import (
	"errors"
	"strconv"
)

// Ошибки валидации плана.
var (
	// ErrEmptyPlan — план не содержит шагов.
	ErrEmptyPlan = errors.New("plan has no steps")

	// ErrEmptyStepID — шаг не имеет ID.
	ErrEmptyStepID = errors.New("step has empty ID")

	// ErrEmptyContract — шаг не указывает контракт.
	ErrEmptyContract = errors.New("step has empty contract")

	// ErrDuplicateStepID — несколько шагов с одинаковым ID.
	ErrDuplicateStepID = errors.New("duplicate step ID")

	// ErrUnknownReference — аргумент ссылается на несуществующий шаг.
	ErrUnknownReference = errors.New("reference to unknown step")

	// ErrForwardReference — аргумент ссылается на шаг, который идёт позже.
	ErrForwardReference = errors.New("reference to a later step")

	// ErrSelfReference — шаг ссылается на собственный адрес.
	ErrSelfReference = errors.New("step references itself")

	// ErrInvalidReference — ссылка записана некорректно (например, голый .Steps).
	ErrInvalidReference = errors.New("invalid step reference")

	// ErrUnknownInput — шаблон использует необъявленный входной параметр.
	ErrUnknownInput = errors.New("reference to undeclared input")

	// ErrInvalidValue — поле value не является неотрицательным целым.
	ErrInvalidValue = errors.New("invalid value")
)

// Ошибки входных параметров.
var (
	// ErrMissingInput — обязательный параметр не передан.
	ErrMissingInput = errors.New("missing required input")

	// ErrInvalidInput — значение параметра не соответствует типу.
	ErrInvalidInput = errors.New("invalid input value")
)

// Ошибки парсинга и рендеринга.
var (
	// ErrUnsupportedFormat — неизвестный формат файла плана.
	ErrUnsupportedFormat = errors.New("unsupported plan format")

	// ErrTemplateRender — ошибка рендеринга шаблона.
	ErrTemplateRender = errors.New("template render failed")

	// ErrTemplateParse — ошибка парсинга шаблона.
	ErrTemplateParse = errors.New("template parse failed")

	// ErrUnresolvedReference — на момент разрешения аргумента у шага нет адреса.
	ErrUnresolvedReference = errors.New("referenced step has no deployed address")
)

// PlanValidationError — план нарушает инвариант и не может быть выполнен.
// Возникает до любого обращения к сети.
type PlanValidationError struct {
	StepID  string // ID шага, где произошла ошибка
	Index   int    // позиция шага в плане, -1 для ошибок уровня плана
	Field   string // поле, вызвавшее ошибку
	Message string // описание ошибки
	Err     error  // базовая ошибка
}

// Error реализует интерфейс error.
func (e *PlanValidationError) Error() string {
	switch {
	case e.StepID != "":
		return "step " + e.StepID + ": " + e.Message
	case e.Index >= 0:
		return "step #" + strconv.Itoa(e.Index) + ": " + e.Message
	default:
		return e.Message
	}
}

// Unwrap возвращает базовую ошибку.
func (e *PlanValidationError) Unwrap() error {
	return e.Err
}

// NewValidationError создаёт новую ошибку валидации.
func NewValidationError(index int, stepID, field, message string, err error) *PlanValidationError {
	return &PlanValidationError{
		StepID:  stepID,
		Index:   index,
		Field:   field,
		Message: message,
		Err:     err,
	}
}
