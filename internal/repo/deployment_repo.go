package repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/shaiso/nodus-deploy/internal/domain"
)

const deploymentColumns = `run_id, step_index, step_id, contract, address, tx_hash, block_number,
		       gas_used, args, args_hash, reused, deployed_at`

// DeploymentRepo — репозиторий результатов шагов.
type DeploymentRepo struct {
	pool *pgxpool.Pool
}

// NewDeploymentRepo создаёт новый DeploymentRepo.
func NewDeploymentRepo(pool *pgxpool.Pool) *DeploymentRepo {
	return &DeploymentRepo{pool: pool}
}

// Create сохраняет результат шага run.
func (r *DeploymentRepo) Create(ctx context.Context, runID uuid.UUID, network string, res *domain.Result) error {
	argsJSON, err := json.Marshal(res.Args)
	if err != nil {
		return fmt.Errorf("marshal args: %w", err)
	}

	query := `
		INSERT INTO deployments (run_id, step_index, step_id, contract, network, address, tx_hash,
		                         block_number, gas_used, args, args_hash, reused, deployed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`
	_, err = r.pool.Exec(ctx, query,
		runID,
		res.Index,
		res.StepID,
		res.Contract,
		network,
		res.Address.Hex(),
		nullHash(res.TxHash),
		int64(res.BlockNumber),
		int64(res.GasUsed),
		argsJSON,
		res.ArgsHash,
		res.Reused,
		res.DeployedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrAlreadyExists
		}
		return fmt.Errorf("insert deployment: %w", err)
	}
	return nil
}

// ListByRun возвращает результаты run в порядке шагов.
func (r *DeploymentRepo) ListByRun(ctx context.Context, runID uuid.UUID) ([]domain.Result, error) {
	query := `
		SELECT ` + deploymentColumns + `
		FROM deployments
		WHERE run_id = $1
		ORDER BY step_index ASC
	`
	return r.list(ctx, query, runID)
}

// ListByNetwork возвращает последний деплой каждого шага в сети.
func (r *DeploymentRepo) ListByNetwork(ctx context.Context, network string) ([]domain.Result, error) {
	query := `
		SELECT DISTINCT ON (step_id) ` + deploymentColumns + `
		FROM deployments
		WHERE network = $1
		ORDER BY step_id, deployed_at DESC
	`
	return r.list(ctx, query, network)
}

// Latest возвращает последний деплой шага в сети.
func (r *DeploymentRepo) Latest(ctx context.Context, network, stepID string) (*domain.Result, error) {
	query := `
		SELECT ` + deploymentColumns + `
		FROM deployments
		WHERE network = $1 AND step_id = $2
		ORDER BY deployed_at DESC
		LIMIT 1
	`
	res, err := scanDeployment(r.pool.QueryRow(ctx, query, network, stepID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return res, err
}

func (r *DeploymentRepo) list(ctx context.Context, query string, args ...any) ([]domain.Result, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list deployments: %w", err)
	}
	defer rows.Close()

	var results []domain.Result
	for rows.Next() {
		res, err := scanDeployment(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, *res)
	}
	return results, rows.Err()
}

// scanDeployment сканирует одну строку в Result.
func scanDeployment(row pgx.Row) (*domain.Result, error) {
	var (
		res        domain.Result
		runID      uuid.UUID
		address    string
		txHash     *string
		block, gas int64
		argsJSON   []byte
		deployedAt time.Time
	)

	err := row.Scan(
		&runID,
		&res.Index,
		&res.StepID,
		&res.Contract,
		&address,
		&txHash,
		&block,
		&gas,
		&argsJSON,
		&res.ArgsHash,
		&res.Reused,
		&deployedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("scan deployment: %w", err)
	}

	res.RunID = runID.String()
	res.Address = common.HexToAddress(address)
	if txHash != nil {
		res.TxHash = common.HexToHash(*txHash)
	}
	res.BlockNumber = uint64(block)
	res.GasUsed = uint64(gas)
	res.DeployedAt = deployedAt

	if argsJSON != nil {
		if err := json.Unmarshal(argsJSON, &res.Args); err != nil {
			return nil, fmt.Errorf("unmarshal args: %w", err)
		}
	}

	return &res, nil
}

// nullHash возвращает nil для пустого хэша (повторно использованные шаги).
func nullHash(h common.Hash) *string {
	if h == (common.Hash{}) {
		return nil
	}
	s := h.Hex()
	return &s
}

// isUniqueViolation проверяет ошибку PostgreSQL unique_violation (23505).
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
