package orchestrator

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/shaiso/nodus-deploy/internal/domain"
	"github.com/shaiso/nodus-deploy/internal/engine"
	"github.com/shaiso/nodus-deploy/internal/telemetry"
)

// Deployer — внешний деплоер: отправляет транзакцию создания контракта
// и возвращается после её подтверждения.
type Deployer interface {
	Deploy(ctx context.Context, req *domain.DeployRequest) (*domain.Deployment, error)
}

// ResultStore сохраняет результат успешного шага.
type ResultStore interface {
	SaveResult(ctx context.Context, run *domain.Run, res *domain.Result) error
}

// RunStore сохраняет run и его переходы статуса.
type RunStore interface {
	CreateRun(ctx context.Context, run *domain.Run) error
	UpdateRun(ctx context.Context, run *domain.Run) error
}

// Lookup ищет ранее задеплоенный шаг в сети.
// Возвращает nil без ошибки, если деплоя не было.
type Lookup interface {
	FindDeployment(ctx context.Context, network, stepID string) (*domain.Result, error)
}

// Notifier публикует события деплоя.
type Notifier interface {
	StepDeployed(ctx context.Context, run *domain.Run, res *domain.Result) error
	RunFinished(ctx context.Context, run *domain.Run) error
}

// Orchestrator выполняет план деплоя.
//
// Шаги выполняются строго последовательно в порядке плана: каждый
// следующий шаг отправляется только после подтверждения предыдущего.
// На первой ошибке run останавливается; задеплоенные шаги остаются
// в сети, упавший шаг не повторяется.
type Orchestrator struct {
	deployer Deployer
	stores   []ResultStore
	runs     RunStore
	lookup   Lookup
	notifier Notifier

	network string
	chainID uint64
	reuse   bool

	logger *slog.Logger
}

// Config — конфигурация Orchestrator.
type Config struct {
	// Deployer — обязателен.
	Deployer Deployer

	// Stores — куда записываются результаты (адресная книга, БД).
	Stores []ResultStore

	// Runs — журнал runs (опционально).
	Runs RunStore

	// Lookup — источник прошлых деплоев для Reuse (опционально).
	Lookup Lookup

	// Notifier — публикатор событий (опционально).
	Notifier Notifier

	// Network и ChainID — сеть, в которую идёт деплой.
	Network string
	ChainID uint64

	// Reuse — не деплоить шаг заново, если в Lookup есть идентичный деплой.
	Reuse bool

	// Logger
	Logger *slog.Logger
}

// New создаёт новый Orchestrator.
func New(cfg Config) *Orchestrator {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	stores := make([]ResultStore, 0, len(cfg.Stores))
	for _, s := range cfg.Stores {
		if s != nil {
			stores = append(stores, s)
		}
	}

	return &Orchestrator{
		deployer: cfg.Deployer,
		stores:   stores,
		runs:     cfg.Runs,
		lookup:   cfg.Lookup,
		notifier: cfg.Notifier,
		network:  cfg.Network,
		chainID:  cfg.ChainID,
		reuse:    cfg.Reuse,
		logger:   telemetry.WithNetwork(logger, cfg.Network, cfg.ChainID),
	}
}

// Execute выполняет план и возвращает результаты в порядке шагов.
//
// Ошибка валидации — *engine.PlanValidationError, деплоер не вызывается.
// Ошибка шага — *DeploymentFailedError, вместе с ней возвращаются
// результаты шагов, задеплоенных до него.
func (o *Orchestrator) Execute(ctx context.Context, plan *domain.Plan, inputs map[string]any) ([]domain.Result, error) {
	_, results, err := o.ExecuteRun(ctx, plan, inputs)
	return results, err
}

// ExecuteRun выполняет план и возвращает также сам run.
// Run равен nil, если план не прошёл валидацию.
func (o *Orchestrator) ExecuteRun(ctx context.Context, plan *domain.Plan, inputs map[string]any) (*domain.Run, []domain.Result, error) {
	if o.deployer == nil {
		return nil, nil, ErrNoDeployer
	}

	plan, applied, err := Prepare(plan, inputs)
	if err != nil {
		return nil, nil, err
	}

	run := domain.NewRun(plan.Name, o.network, o.chainID)
	run.Inputs = applied
	run.MarkRunning()

	state := NewRunState(run, plan)
	logger := telemetry.WithRunID(o.logger, run.ID.String())

	if o.runs != nil {
		if err := o.runs.CreateRun(ctx, run); err != nil {
			logger.Warn("failed to record run", "error", err)
		}
	}

	logger.Info("run started",
		"plan", plan.Name,
		"steps", len(plan.Steps),
		"reuse", o.reuse,
	)

	for i := range plan.Steps {
		step := &plan.Steps[i]

		res, err := o.executeStep(ctx, state, i, step, logger)
		if err != nil {
			state.MarkStepFailed(step.ID)
			failure := &DeploymentFailedError{
				Index:    i,
				StepID:   step.ID,
				Contract: step.Contract,
				Err:      err,
			}
			o.finish(ctx, state, failure, logger)
			return run, state.Results(), failure
		}

		if err := state.MarkStepDeployed(*res); err != nil {
			// Недостижимо для провалидированного плана: ID уникальны.
			return run, state.Results(), err
		}
		o.record(ctx, run, res, logger)
	}

	o.finish(ctx, state, nil, logger)
	return run, state.Results(), nil
}

// Prepare нормализует и валидирует план, применяет inputs.
// Любая ошибка — *engine.PlanValidationError.
func Prepare(plan *domain.Plan, inputs map[string]any) (*domain.Plan, map[string]any, error) {
	if plan == nil {
		return nil, nil, engine.Validate(nil)
	}

	plan = engine.Normalize(plan)
	if err := engine.Validate(plan); err != nil {
		return nil, nil, err
	}

	applied, err := engine.ApplyInputs(plan, inputs)
	if err != nil {
		var pve *engine.PlanValidationError
		if errors.As(err, &pve) {
			return nil, nil, err
		}
		return nil, nil, engine.NewValidationError(-1, "", "inputs", err.Error(), err)
	}

	// Повторный пробный рендер с реальными inputs: необязательный input
	// без значения виден только здесь.
	if err := engine.CheckArgs(plan, applied); err != nil {
		return nil, nil, err
	}

	return plan, applied, nil
}

// executeStep разрешает аргументы шага и деплоит его
// (или берёт идентичный деплой из Lookup).
func (o *Orchestrator) executeStep(ctx context.Context, state *RunState, index int, step *domain.Step, logger *slog.Logger) (*domain.Result, error) {
	// Транзакции не отзываются: отмена проверяется только между шагами.
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	stepLogger := telemetry.WithStep(logger, step.ID, step.Contract)

	args, err := engine.ResolveArgs(step, state.Context)
	if err != nil {
		return nil, err
	}
	hash := engine.ArgsHash(step.Contract, args)

	if prev := o.findReusable(ctx, step, hash, stepLogger); prev != nil {
		stepLogger.Info("step reused",
			"address", prev.Address.Hex(),
			"tx_hash", prev.TxHash.Hex(),
		)
		telemetry.ObserveStep(o.network, step.Contract, telemetry.StepReused, 0, 0)

		return &domain.Result{
			RunID:       state.RunID().String(),
			Index:       index,
			StepID:      step.ID,
			Contract:    step.Contract,
			Address:     prev.Address,
			TxHash:      prev.TxHash,
			BlockNumber: prev.BlockNumber,
			Args:        args,
			ArgsHash:    hash,
			Reused:      true,
			DeployedAt:  prev.DeployedAt,
		}, nil
	}

	stepLogger.Info("deploying step",
		"index", index,
		"name", step.Name(),
		"args", args,
	)

	started := time.Now()
	dep, err := o.deployer.Deploy(ctx, &domain.DeployRequest{
		StepID:   step.ID,
		Contract: step.Contract,
		Args:     args,
		Value:    step.Value,
		GasLimit: step.GasLimit,
	})
	if err != nil {
		stepLogger.Error("step failed", "error", err)
		telemetry.ObserveStep(o.network, step.Contract, telemetry.StepFailed, time.Since(started), 0)
		return nil, err
	}
	if dep == nil || dep.Address == (common.Address{}) {
		telemetry.ObserveStep(o.network, step.Contract, telemetry.StepFailed, time.Since(started), 0)
		return nil, ErrEmptyAddress
	}

	elapsed := time.Since(started)
	telemetry.ObserveStep(o.network, step.Contract, telemetry.StepDeployed, elapsed, dep.GasUsed)

	stepLogger.Info("step deployed",
		"address", dep.Address.Hex(),
		"tx_hash", dep.TxHash.Hex(),
		"block", dep.BlockNumber,
		"gas_used", dep.GasUsed,
		"duration", elapsed,
	)

	return &domain.Result{
		RunID:       state.RunID().String(),
		Index:       index,
		StepID:      step.ID,
		Contract:    step.Contract,
		Address:     dep.Address,
		TxHash:      dep.TxHash,
		BlockNumber: dep.BlockNumber,
		GasUsed:     dep.GasUsed,
		Args:        args,
		ArgsHash:    hash,
		DeployedAt:  time.Now().UTC(),
	}, nil
}

// findReusable возвращает прошлый деплой шага, если он идентичен:
// тот же контракт и те же разрешённые аргументы.
func (o *Orchestrator) findReusable(ctx context.Context, step *domain.Step, hash string, logger *slog.Logger) *domain.Result {
	if !o.reuse || o.lookup == nil {
		return nil
	}

	prev, err := o.lookup.FindDeployment(ctx, o.network, step.ID)
	if err != nil {
		logger.Warn("address book lookup failed, deploying", "error", err)
		return nil
	}
	if prev == nil {
		return nil
	}

	if prev.Contract != step.Contract || prev.ArgsHash != hash || prev.Address == (common.Address{}) {
		logger.Info("previous deployment differs, deploying again",
			"previous_address", prev.Address.Hex(),
			"previous_contract", prev.Contract,
		)
		return nil
	}
	return prev
}

// record передаёт результат в хранилища и публикатор.
// Ошибки записи не останавливают run: контракт уже в сети.
func (o *Orchestrator) record(ctx context.Context, run *domain.Run, res *domain.Result, logger *slog.Logger) {
	for _, store := range o.stores {
		if err := store.SaveResult(ctx, run, res); err != nil {
			logger.Warn("failed to save result",
				"step_id", res.StepID,
				"address", res.Address.Hex(),
				"error", err,
			)
		}
	}

	if o.notifier != nil {
		if err := o.notifier.StepDeployed(ctx, run, res); err != nil {
			logger.Warn("failed to publish step.deployed",
				"step_id", res.StepID,
				"error", err,
			)
		}
	}
}

// finish финализирует run: SUCCEEDED при failure == nil, иначе FAILED.
func (o *Orchestrator) finish(ctx context.Context, state *RunState, failure *DeploymentFailedError, logger *slog.Logger) {
	run := state.Run
	if failure == nil {
		run.MarkSucceeded()
	} else {
		run.MarkFailed(failure.StepID, failure.Err.Error())
	}

	telemetry.ObserveRun(o.network, string(run.Status), run.Duration())

	// Запись финального статуса не должна зависеть от отменённого контекста run.
	finishCtx := context.WithoutCancel(ctx)

	if o.runs != nil {
		if err := o.runs.UpdateRun(finishCtx, run); err != nil {
			logger.Warn("failed to record run status", "error", err)
		}
	}
	if o.notifier != nil {
		if err := o.notifier.RunFinished(finishCtx, run); err != nil {
			logger.Warn("failed to publish run.finished", "error", err)
		}
	}

	stats := state.Stats()
	if failure != nil {
		logger.Error("run failed",
			"failed_step", failure.StepID,
			"deployed", stats.DeployedSteps,
			"total", stats.TotalSteps,
			"error", failure.Err,
		)
		return
	}

	logger.Info("run succeeded",
		"deployed", stats.DeployedSteps,
		"reused", stats.ReusedSteps,
		"duration", run.Duration(),
	)
}
