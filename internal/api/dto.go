package api

import (
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"

	"github.com/shaiso/nodus-deploy/internal/domain"
)

// RunResponse — ответ с run.
type RunResponse struct {
	ID         uuid.UUID        `json:"id"`
	PlanName   string           `json:"plan_name"`
	Network    string           `json:"network"`
	ChainID    uint64           `json:"chain_id"`
	Status     domain.RunStatus `json:"status"`
	Inputs     map[string]any   `json:"inputs,omitempty"`
	StartedAt  *time.Time       `json:"started_at,omitempty"`
	FinishedAt *time.Time       `json:"finished_at,omitempty"`
	DurationMs int64            `json:"duration_ms,omitempty"`
	Error      string           `json:"error,omitempty"`
	FailedStep string           `json:"failed_step,omitempty"`
	CreatedAt  time.Time        `json:"created_at"`
}

// RunFromDomain конвертирует domain.Run в RunResponse.
func RunFromDomain(r domain.Run) RunResponse {
	return RunResponse{
		ID:         r.ID,
		PlanName:   r.PlanName,
		Network:    r.Network,
		ChainID:    r.ChainID,
		Status:     r.Status,
		Inputs:     r.Inputs,
		StartedAt:  r.StartedAt,
		FinishedAt: r.FinishedAt,
		DurationMs: r.Duration().Milliseconds(),
		Error:      r.Error,
		FailedStep: r.FailedStep,
		CreatedAt:  r.CreatedAt,
	}
}

// DeploymentResponse — ответ с результатом шага.
type DeploymentResponse struct {
	Index       int       `json:"index"`
	StepID      string    `json:"step_id"`
	Contract    string    `json:"contract"`
	Address     string    `json:"address"`
	TxHash      string    `json:"tx_hash,omitempty"`
	BlockNumber uint64    `json:"block_number"`
	GasUsed     uint64    `json:"gas_used,omitempty"`
	Args        []any     `json:"args,omitempty"`
	Reused      bool      `json:"reused,omitempty"`
	RunID       string    `json:"run_id,omitempty"`
	DeployedAt  time.Time `json:"deployed_at"`
}

// DeploymentFromDomain конвертирует domain.Result в DeploymentResponse.
func DeploymentFromDomain(res domain.Result) DeploymentResponse {
	resp := DeploymentResponse{
		Index:       res.Index,
		StepID:      res.StepID,
		Contract:    res.Contract,
		Address:     res.Address.Hex(),
		BlockNumber: res.BlockNumber,
		GasUsed:     res.GasUsed,
		Args:        res.Args,
		Reused:      res.Reused,
		RunID:       res.RunID,
		DeployedAt:  res.DeployedAt,
	}
	if !res.Reused && res.TxHash != (common.Hash{}) {
		resp.TxHash = res.TxHash.Hex()
	}
	return resp
}

// DeploymentsFromDomain конвертирует список результатов.
func DeploymentsFromDomain(results []domain.Result) []DeploymentResponse {
	out := make([]DeploymentResponse, len(results))
	for i, res := range results {
		out[i] = DeploymentFromDomain(res)
	}
	return out
}

// RunDetailResponse — run вместе с результатами шагов.
type RunDetailResponse struct {
	RunResponse
	Deployments []DeploymentResponse `json:"deployments"`
}
