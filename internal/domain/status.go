package domain

// RunStatus — статус выполнения плана.
//
// Жизненный цикл:
//
//	PENDING → RUNNING → SUCCEEDED
//	                  ↘ FAILED
type RunStatus string

const (
	// RunStatusPending — run создан, но ещё не начал выполняться.
	RunStatusPending RunStatus = "PENDING"

	// RunStatusRunning — шаги деплоятся.
	RunStatusRunning RunStatus = "RUNNING"

	// RunStatusSucceeded — все шаги задеплоены.
	RunStatusSucceeded RunStatus = "SUCCEEDED"

	// RunStatusFailed — run остановлен на упавшем шаге.
	RunStatusFailed RunStatus = "FAILED"
)

// IsTerminal возвращает true, если статус финальный (run завершён).
func (s RunStatus) IsTerminal() bool {
	switch s {
	case RunStatusSucceeded, RunStatusFailed:
		return true
	default:
		return false
	}
}

// StepStatus — статус шага плана.
//
// Жизненный цикл:
//
//	PENDING → DEPLOYED
//	        ↘ FAILED
//
// Переход из PENDING происходит ровно один раз.
type StepStatus string

const (
	// StepStatusPending — шаг ещё не выполнялся.
	StepStatusPending StepStatus = "PENDING"

	// StepStatusDeployed — контракт задеплоен и подтверждён.
	StepStatusDeployed StepStatus = "DEPLOYED"

	// StepStatusFailed — отправка или подтверждение транзакции не удались.
	StepStatusFailed StepStatus = "FAILED"
)

// IsTerminal возвращает true, если шаг больше не изменит статус.
func (s StepStatus) IsTerminal() bool {
	return s == StepStatusDeployed || s == StepStatusFailed
}

// ParseRunStatus парсит строку в RunStatus.
func ParseRunStatus(s string) RunStatus {
	switch s {
	case "RUNNING":
		return RunStatusRunning
	case "SUCCEEDED":
		return RunStatusSucceeded
	case "FAILED":
		return RunStatusFailed
	default:
		return RunStatusPending
	}
}
