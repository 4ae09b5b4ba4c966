package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/shaiso/nodus-deploy/internal/domain"
)

// Recorder записывает runs и результаты шагов в БД.
//
// Реализует orchestrator.RunStore, orchestrator.ResultStore
// и orchestrator.Lookup.
type Recorder struct {
	Runs        *RunRepo
	Deployments *DeploymentRepo
}

// NewRecorder создаёт Recorder поверх пула.
func NewRecorder(pool *pgxpool.Pool) *Recorder {
	return &Recorder{
		Runs:        NewRunRepo(pool),
		Deployments: NewDeploymentRepo(pool),
	}
}

// CreateRun сохраняет новый run.
func (r *Recorder) CreateRun(ctx context.Context, run *domain.Run) error {
	return r.Runs.Create(ctx, run)
}

// UpdateRun сохраняет статус run.
func (r *Recorder) UpdateRun(ctx context.Context, run *domain.Run) error {
	return r.Runs.Update(ctx, run)
}

// SaveResult сохраняет результат шага.
func (r *Recorder) SaveResult(ctx context.Context, run *domain.Run, res *domain.Result) error {
	return r.Deployments.Create(ctx, run.ID, run.Network, res)
}

// FindDeployment возвращает последний деплой шага в сети или nil.
func (r *Recorder) FindDeployment(ctx context.Context, network, stepID string) (*domain.Result, error) {
	res, err := r.Deployments.Latest(ctx, network, stepID)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find deployment %s/%s: %w", network, stepID, err)
	}
	return res, nil
}

// ListRuns возвращает runs по фильтру.
func (r *Recorder) ListRuns(ctx context.Context, filter RunFilter) ([]domain.Run, error) {
	return r.Runs.List(ctx, filter)
}

// ListDeployments возвращает последний деплой каждого шага в сети.
func (r *Recorder) ListDeployments(ctx context.Context, network string) ([]domain.Result, error) {
	return r.Deployments.ListByNetwork(ctx, network)
}

// RunWithResults — run вместе с результатами шагов.
type RunWithResults struct {
	Run     *domain.Run
	Results []domain.Result
}

// GetRun возвращает run и его результаты.
func (r *Recorder) GetRun(ctx context.Context, id uuid.UUID) (*RunWithResults, error) {
	run, err := r.Runs.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	results, err := r.Deployments.ListByRun(ctx, id)
	if err != nil {
		return nil, err
	}

	return &RunWithResults{Run: run, Results: results}, nil
}
