package domain

import (
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// DeployRequest — запрос к внешнему деплоеру: один контракт
// с уже разрешёнными аргументами конструктора.
type DeployRequest struct {
	// StepID — шаг, для которого выполняется деплой (для логов).
	StepID string

	// Contract — имя артефакта.
	Contract string

	// Args — аргументы после подстановки ссылок и рендеринга шаблонов.
	Args []any

	// Value — сумма в wei (десятичная строка), может быть пустой.
	Value string

	// GasLimit — лимит газа, 0 — оценка.
	GasLimit uint64
}

// Deployment — подтверждённый деплой, возвращаемый деплоером.
type Deployment struct {
	// Address — адрес созданного контракта.
	Address common.Address

	// TxHash — хэш транзакции создания.
	TxHash common.Hash

	// BlockNumber — номер блока, в который включена транзакция.
	BlockNumber uint64

	// GasUsed — израсходованный газ.
	GasUsed uint64
}

// Result — результат выполнения шага плана.
//
// Создаётся ровно один раз для каждого успешно выполненного шага
// и после этого не изменяется.
type Result struct {
	// RunID — run, в котором получен результат.
	RunID string `json:"run_id,omitempty"`

	// Index — позиция шага в плане (с нуля).
	Index int `json:"index"`

	// StepID — ID шага.
	StepID string `json:"step_id"`

	// Contract — имя контракта.
	Contract string `json:"contract"`

	// Address — адрес задеплоенного контракта.
	Address common.Address `json:"address"`

	// TxHash — хэш транзакции создания (пустой для Reused).
	TxHash common.Hash `json:"tx_hash"`

	// BlockNumber — блок подтверждения.
	BlockNumber uint64 `json:"block_number"`

	// GasUsed — израсходованный газ.
	GasUsed uint64 `json:"gas_used"`

	// Args — аргументы конструктора, с которыми выполнен деплой.
	Args []any `json:"args,omitempty"`

	// ArgsHash — хэш контракта и аргументов, по нему ищутся повторные деплои.
	ArgsHash string `json:"args_hash"`

	// Reused — true, если адрес взят из адресной книги без новой транзакции.
	Reused bool `json:"reused,omitempty"`

	// DeployedAt — время подтверждения.
	DeployedAt time.Time `json:"deployed_at"`
}
