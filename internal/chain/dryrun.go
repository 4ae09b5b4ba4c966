package chain

import (
	"context"
	"fmt"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/shaiso/nodus-deploy/internal/domain"
)

// NonceSource возвращает pending nonce отправителя.
// Реализуется *ethclient.Client.
type NonceSource interface {
	PendingNonceAt(ctx context.Context, account common.Address) (uint64, error)
}

// DryRunDeployer проверяет шаги без отправки транзакций.
//
// Артефакт загружается, аргументы приводятся и упаковываются так же,
// как при реальном деплое. Адрес предсказывается по отправителю
// и nonce: каждый вызов Deploy увеличивает nonce на единицу.
type DryRunDeployer struct {
	sender    common.Address
	artifacts *ArtifactStore
	nonces    NonceSource

	mu          sync.Mutex
	nonce       uint64
	initialized bool
}

// NewDryRunDeployer создаёт DryRunDeployer.
//
// Если nonces == nil, отсчёт начинается со startNonce,
// иначе с pending nonce отправителя на момент первого Deploy.
func NewDryRunDeployer(sender common.Address, artifacts *ArtifactStore, nonces NonceSource, startNonce uint64) *DryRunDeployer {
	return &DryRunDeployer{
		sender:      sender,
		artifacts:   artifacts,
		nonces:      nonces,
		nonce:       startNonce,
		initialized: nonces == nil,
	}
}

// Deploy упаковывает аргументы и возвращает предсказанный адрес.
func (d *DryRunDeployer) Deploy(ctx context.Context, req *domain.DeployRequest) (*domain.Deployment, error) {
	art, err := d.artifacts.Load(req.Contract)
	if err != nil {
		return nil, err
	}

	args, err := ConvertArgs(art.ABI.Constructor.Inputs, req.Args)
	if err != nil {
		return nil, err
	}
	if _, err := art.ABI.Pack("", args...); err != nil {
		return nil, fmt.Errorf("%w: pack: %v", ErrInvalidArg, err)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.initialized {
		nonce, err := d.nonces.PendingNonceAt(ctx, d.sender)
		if err != nil {
			return nil, fmt.Errorf("pending nonce of %s: %w", d.sender.Hex(), err)
		}
		d.nonce = nonce
		d.initialized = true
	}

	address := crypto.CreateAddress(d.sender, d.nonce)
	d.nonce++

	return &domain.Deployment{Address: address}, nil
}
