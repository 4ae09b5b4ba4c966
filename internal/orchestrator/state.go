package orchestrator

import (
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/shaiso/nodus-deploy/internal/domain"
	"github.com/shaiso/nodus-deploy/internal/engine"
)

// RunState — состояние выполнения одного run в памяти.
//
// Содержит:
//   - Run и выполняемый план
//   - Контекст для аргументов (inputs и адреса задеплоенных шагов)
//   - Статус каждого шага
//   - Результаты в порядке плана
type RunState struct {
	// Run — выполняемый run.
	Run *domain.Run

	// Plan — нормализованный план.
	Plan *domain.Plan

	// Context — контекст для разрешения аргументов.
	Context *engine.Context

	// statuses — статус шага (stepID → status).
	statuses map[string]domain.StepStatus

	// results — результаты задеплоенных шагов в порядке плана.
	results []domain.Result

	// mu — мьютекс для потокобезопасного доступа.
	mu sync.RWMutex
}

// NewRunState создаёт RunState: все шаги в статусе PENDING.
func NewRunState(run *domain.Run, plan *domain.Plan) *RunState {
	statuses := make(map[string]domain.StepStatus, len(plan.Steps))
	for _, step := range plan.Steps {
		statuses[step.ID] = domain.StepStatusPending
	}

	return &RunState{
		Run:      run,
		Plan:     plan,
		Context:  engine.NewContext(run.Inputs, run.Network),
		statuses: statuses,
		results:  make([]domain.Result, 0, len(plan.Steps)),
	}
}

// MarkStepDeployed записывает результат шага.
//
// Результат записывается ровно один раз: шаг переходит PENDING → DEPLOYED,
// его адрес становится доступен следующим шагам.
func (s *RunState) MarkStepDeployed(res domain.Result) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	status, ok := s.statuses[res.StepID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrStepNotFound, res.StepID)
	}
	if status != domain.StepStatusPending {
		return fmt.Errorf("%w: %s is %s", ErrStepAlreadyDeployed, res.StepID, status)
	}

	s.statuses[res.StepID] = domain.StepStatusDeployed
	s.results = append(s.results, res)
	s.Context.AddResult(&s.results[len(s.results)-1])
	return nil
}

// MarkStepFailed помечает шаг как упавший.
func (s *RunState) MarkStepFailed(stepID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.statuses[stepID] == domain.StepStatusPending {
		s.statuses[stepID] = domain.StepStatusFailed
	}
}

// StepStatus возвращает статус шага.
func (s *RunState) StepStatus(stepID string) domain.StepStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.statuses[stepID]
}

// Results возвращает копию результатов в порядке плана.
func (s *RunState) Results() []domain.Result {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Result, len(s.results))
	copy(out, s.results)
	return out
}

// RunID возвращает ID run.
func (s *RunState) RunID() uuid.UUID {
	return s.Run.ID
}

// Stats возвращает статистику выполнения.
func (s *RunState) Stats() RunStats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := RunStats{TotalSteps: len(s.Plan.Steps)}
	for _, res := range s.results {
		if res.Reused {
			stats.ReusedSteps++
		}
	}
	for _, status := range s.statuses {
		switch status {
		case domain.StepStatusDeployed:
			stats.DeployedSteps++
		case domain.StepStatusFailed:
			stats.FailedSteps++
		default:
			stats.PendingSteps++
		}
	}
	return stats
}

// RunStats — статистика выполнения run.
type RunStats struct {
	TotalSteps    int
	DeployedSteps int
	ReusedSteps   int
	FailedSteps   int
	PendingSteps  int
}
