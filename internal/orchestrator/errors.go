package orchestrator

import (
	"errors"
	"fmt"
)

// Ошибки оркестратора.
var (
	// ErrNoDeployer — оркестратор создан без деплоера.
	ErrNoDeployer = errors.New("deployer is not configured")

	// ErrEmptyAddress — деплоер вернул нулевой адрес.
	ErrEmptyAddress = errors.New("deployer returned empty address")

	// ErrStepAlreadyDeployed — повторная запись результата шага.
	ErrStepAlreadyDeployed = errors.New("step already deployed")

	// ErrStepNotFound — шаг отсутствует в плане run.
	ErrStepNotFound = errors.New("step not found in plan")
)

// DeploymentFailedError — шаг не был задеплоен, run остановлен.
//
// Шаги до Index задеплоены и остаются в сети; отката нет.
type DeploymentFailedError struct {
	Index    int    // позиция упавшего шага
	StepID   string // ID упавшего шага
	Contract string // контракт упавшего шага
	Err      error  // причина от деплоера или разрешения аргументов
}

// Error реализует интерфейс error.
func (e *DeploymentFailedError) Error() string {
	return fmt.Sprintf("deploy step %s (%s, #%d): %v", e.StepID, e.Contract, e.Index, e.Err)
}

// Unwrap возвращает причину.
func (e *DeploymentFailedError) Unwrap() error {
	return e.Err
}
