package api

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/shaiso/nodus-deploy/internal/domain"
	"github.com/shaiso/nodus-deploy/internal/repo"
)

// RunReader — журнал runs и деплоев в БД. Реализуется *repo.Recorder.
type RunReader interface {
	ListRuns(ctx context.Context, filter repo.RunFilter) ([]domain.Run, error)
	GetRun(ctx context.Context, id uuid.UUID) (*repo.RunWithResults, error)
	ListDeployments(ctx context.Context, network string) ([]domain.Result, error)
}

// AddressBook — адреса по сетям. Реализуется *addressbook.Book.
type AddressBook interface {
	Networks() []string
	Deployments(network string) []domain.Result
}

// Handler — главный обработчик API с зависимостями.
type Handler struct {
	runs   RunReader
	book   AddressBook
	logger *slog.Logger
}

// Config — конфигурация для создания Handler.
type Config struct {
	// Runs — опционально: без БД /runs отвечает 503.
	Runs RunReader

	// Book — адресная книга.
	Book AddressBook

	Logger *slog.Logger
}

// NewHandler создаёт новый Handler.
func NewHandler(cfg Config) *Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Handler{
		runs:   cfg.Runs,
		book:   cfg.Book,
		logger: logger,
	}
}
