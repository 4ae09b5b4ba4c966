package domain

import (
	"time"

	"github.com/google/uuid"
)

// Run — одно выполнение плана деплоя в конкретной сети.
//
// Run создаётся при каждом вызове `nodus-deploy run`. Упавший run
// не продолжается: оператор запускает план заново с начала.
type Run struct {
	// ID — уникальный идентификатор run.
	ID uuid.UUID `json:"id"`

	// PlanName — имя выполняемого плана.
	PlanName string `json:"plan_name"`

	// Network — имя сети из конфигурации (например, "sepolia").
	Network string `json:"network"`

	// ChainID — идентификатор цепочки.
	ChainID uint64 `json:"chain_id"`

	// Status — текущий статус выполнения.
	Status RunStatus `json:"status"`

	// Inputs — входные параметры плана после применения defaults.
	Inputs map[string]any `json:"inputs,omitempty"`

	// StartedAt — время начала выполнения (когда статус стал RUNNING).
	StartedAt *time.Time `json:"started_at,omitempty"`

	// FinishedAt — время завершения (успешного или с ошибкой).
	FinishedAt *time.Time `json:"finished_at,omitempty"`

	// Error — текст ошибки, если run завершился с FAILED.
	Error string `json:"error,omitempty"`

	// FailedStep — ID шага, на котором run остановился.
	FailedStep string `json:"failed_step,omitempty"`

	// CreatedAt — время создания run.
	CreatedAt time.Time `json:"created_at"`
}

// NewRun создаёт run в статусе PENDING.
func NewRun(planName, network string, chainID uint64) *Run {
	return &Run{
		ID:        uuid.New(),
		PlanName:  planName,
		Network:   network,
		ChainID:   chainID,
		Status:    RunStatusPending,
		CreatedAt: time.Now(),
	}
}

// Duration возвращает продолжительность выполнения.
// Возвращает 0, если run ещё не завершён.
func (r *Run) Duration() time.Duration {
	if r.StartedAt == nil || r.FinishedAt == nil {
		return 0
	}
	return r.FinishedAt.Sub(*r.StartedAt)
}

// IsFinished возвращает true, если run завершён (в любом статусе).
func (r *Run) IsFinished() bool {
	return r.Status.IsTerminal()
}

// MarkRunning переводит run в статус RUNNING.
func (r *Run) MarkRunning() {
	now := time.Now()
	r.Status = RunStatusRunning
	r.StartedAt = &now
}

// MarkSucceeded переводит run в статус SUCCEEDED.
func (r *Run) MarkSucceeded() {
	now := time.Now()
	r.Status = RunStatusSucceeded
	r.FinishedAt = &now
}

// MarkFailed переводит run в статус FAILED с ошибкой.
func (r *Run) MarkFailed(stepID, err string) {
	now := time.Now()
	r.Status = RunStatusFailed
	r.FinishedAt = &now
	r.FailedStep = stepID
	r.Error = err
}
