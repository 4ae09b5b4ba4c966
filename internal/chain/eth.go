package chain

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"log/slog"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/shaiso/nodus-deploy/internal/domain"
)

// Default configuration values.
const (
	defaultConfirmTimeout = 5 * time.Minute
)

// Backend — всё, что нужно деплоеру от узла: отправка транзакций
// и получение receipt/кода. Реализуется *ethclient.Client
// и simulated.Client.
type Backend interface {
	bind.ContractBackend
	bind.DeployBackend
}

// EthDeployer деплоит контракты через go-ethereum.
//
// Для каждого запроса:
//   - загружает артефакт и приводит аргументы к ABI типам
//   - отправляет транзакцию создания (bind.DeployContract)
//   - ждёт receipt (bind.WaitMined) не дольше ConfirmTimeout
//   - проверяет статус receipt и наличие кода по адресу
//
// Deploy возвращается только после подтверждения.
type EthDeployer struct {
	backend   Backend
	auth      *bind.TransactOpts
	artifacts *ArtifactStore

	confirmTimeout time.Duration
	logger         *slog.Logger
}

// EthConfig — конфигурация EthDeployer.
type EthConfig struct {
	// Backend — клиент узла.
	Backend Backend

	// Key — ключ отправителя.
	Key *ecdsa.PrivateKey

	// ChainID — ID сети для подписи (EIP-155).
	ChainID *big.Int

	// Artifacts — хранилище артефактов.
	Artifacts *ArtifactStore

	// ConfirmTimeout — ожидание подтверждения одного деплоя (default: 5m).
	ConfirmTimeout time.Duration

	// Logger
	Logger *slog.Logger
}

// NewEthDeployer создаёт EthDeployer.
func NewEthDeployer(cfg EthConfig) (*EthDeployer, error) {
	if cfg.Backend == nil {
		return nil, fmt.Errorf("eth deployer: backend is required")
	}
	if cfg.Key == nil {
		return nil, fmt.Errorf("eth deployer: %w: key is required", ErrInvalidKey)
	}
	if cfg.ChainID == nil {
		return nil, fmt.Errorf("eth deployer: chain id is required")
	}
	if cfg.Artifacts == nil {
		return nil, fmt.Errorf("eth deployer: artifact store is required")
	}

	auth, err := bind.NewKeyedTransactorWithChainID(cfg.Key, cfg.ChainID)
	if err != nil {
		return nil, fmt.Errorf("eth deployer: transactor: %w", err)
	}

	timeout := cfg.ConfirmTimeout
	if timeout <= 0 {
		timeout = defaultConfirmTimeout
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &EthDeployer{
		backend:        cfg.Backend,
		auth:           auth,
		artifacts:      cfg.Artifacts,
		confirmTimeout: timeout,
		logger:         logger.With("component", "eth-deployer"),
	}, nil
}

// Sender возвращает адрес отправителя транзакций.
func (d *EthDeployer) Sender() common.Address {
	return d.auth.From
}

// Deploy отправляет транзакцию создания и ждёт её подтверждения.
func (d *EthDeployer) Deploy(ctx context.Context, req *domain.DeployRequest) (*domain.Deployment, error) {
	art, err := d.artifacts.Load(req.Contract)
	if err != nil {
		return nil, err
	}

	args, err := ConvertArgs(art.ABI.Constructor.Inputs, req.Args)
	if err != nil {
		return nil, err
	}

	opts := *d.auth
	opts.Context = ctx
	opts.GasLimit = req.GasLimit
	if req.Value != "" {
		value, ok := new(big.Int).SetString(req.Value, 10)
		if !ok {
			return nil, fmt.Errorf("%w: value %q", ErrInvalidArg, req.Value)
		}
		opts.Value = value
	}

	predicted, tx, _, err := bind.DeployContract(&opts, art.ABI, art.Bytecode, d.backend, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSubmit, err)
	}

	d.logger.Info("deploy transaction sent",
		"step_id", req.StepID,
		"contract", req.Contract,
		"tx_hash", tx.Hash().Hex(),
		"address", predicted.Hex(),
		"nonce", tx.Nonce(),
	)

	waitCtx, cancel := context.WithTimeout(ctx, d.confirmTimeout)
	defer cancel()

	receipt, err := bind.WaitMined(waitCtx, d.backend, tx)
	if err != nil {
		return nil, fmt.Errorf("%w: tx %s: %v", ErrConfirm, tx.Hash().Hex(), err)
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return nil, fmt.Errorf("%w: tx %s in block %s", ErrReverted, tx.Hash().Hex(), receipt.BlockNumber)
	}

	address := receipt.ContractAddress
	if address == (common.Address{}) {
		address = predicted
	}

	code, err := d.backend.CodeAt(waitCtx, address, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: code at %s: %v", ErrConfirm, address.Hex(), err)
	}
	if len(code) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoCode, address.Hex())
	}

	return &domain.Deployment{
		Address:     address,
		TxHash:      tx.Hash(),
		BlockNumber: receipt.BlockNumber.Uint64(),
		GasUsed:     receipt.GasUsed,
	}, nil
}

// ParsePrivateKey разбирает hex ключ (с префиксом 0x или без).
func ParsePrivateKey(hex string) (*ecdsa.PrivateKey, error) {
	if len(hex) >= 2 && hex[:2] == "0x" {
		hex = hex[2:]
	}
	key, err := crypto.HexToECDSA(hex)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidKey, err)
	}
	return key, nil
}
