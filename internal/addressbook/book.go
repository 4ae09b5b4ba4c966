// Package addressbook хранит адреса задеплоенных контрактов в JSON файле.
//
// Формат файла:
//
//	{
//	  "networks": {
//	    "sepolia": {
//	      "vault": {"contract": "NodusVault", "address": "0x...", ...}
//	    }
//	  }
//	}
//
// Адресная книга записывается после каждого успешного шага и служит
// источником прошлых деплоев для повторного использования.
package addressbook

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/shaiso/nodus-deploy/internal/domain"
)

// ErrCorrupted — файл адресной книги не разобран.
var ErrCorrupted = errors.New("address book is corrupted")

// Entry — запись о задеплоенном шаге.
type Entry struct {
	Contract   string         `json:"contract"`
	Address    common.Address `json:"address"`
	TxHash     common.Hash    `json:"tx_hash"`
	Block      uint64         `json:"block"`
	ArgsHash   string         `json:"args_hash"`
	RunID      string         `json:"run_id,omitempty"`
	DeployedAt time.Time      `json:"deployed_at"`
}

type fileFormat struct {
	Networks map[string]map[string]Entry `json:"networks"`
}

// Book — адресная книга, привязанная к файлу.
//
// Безопасна для конкурентного использования внутри процесса.
type Book struct {
	path string

	mu       sync.RWMutex
	networks map[string]map[string]Entry
}

// Open загружает адресную книгу. Отсутствующий файл — пустая книга.
func Open(path string) (*Book, error) {
	networks, err := load(path)
	if err != nil {
		return nil, err
	}
	return &Book{path: path, networks: networks}, nil
}

// Reload перечитывает файл, заменяя содержимое книги.
// При ошибке книга остаётся прежней.
func (b *Book) Reload() error {
	networks, err := load(b.path)
	if err != nil {
		return err
	}

	b.mu.Lock()
	b.networks = networks
	b.mu.Unlock()
	return nil
}

func load(path string) (map[string]map[string]Entry, error) {
	networks := make(map[string]map[string]Entry)

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return networks, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read address book: %w", err)
	}

	var file fileFormat
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrCorrupted, path, err)
	}
	for network, entries := range file.Networks {
		if entries != nil {
			networks[network] = entries
		}
	}

	return networks, nil
}

// Path возвращает путь к файлу.
func (b *Book) Path() string {
	return b.path
}

// SaveResult записывает результат шага в сеть run и сохраняет файл.
// Переиспользованный шаг, уже записанный с тем же адресом, не меняется:
// RunID остаётся от run, который задеплоил контракт.
func (b *Book) SaveResult(_ context.Context, run *domain.Run, res *domain.Result) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	entries, ok := b.networks[run.Network]
	if !ok {
		entries = make(map[string]Entry)
		b.networks[run.Network] = entries
	}

	if prev, ok := entries[res.StepID]; ok && res.Reused && prev.Address == res.Address {
		return nil
	}

	entries[res.StepID] = Entry{
		Contract:   res.Contract,
		Address:    res.Address,
		TxHash:     res.TxHash,
		Block:      res.BlockNumber,
		ArgsHash:   res.ArgsHash,
		RunID:      res.RunID,
		DeployedAt: res.DeployedAt,
	}

	return b.flush()
}

// FindDeployment возвращает прошлый деплой шага в сети или nil.
func (b *Book) FindDeployment(_ context.Context, network, stepID string) (*domain.Result, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	entry, ok := b.networks[network][stepID]
	if !ok {
		return nil, nil
	}
	return entry.result(stepID), nil
}

// Deployments возвращает все записи сети, отсортированные по блоку и ID шага.
func (b *Book) Deployments(network string) []domain.Result {
	b.mu.RLock()
	defer b.mu.RUnlock()

	entries := b.networks[network]
	out := make([]domain.Result, 0, len(entries))
	for stepID, entry := range entries {
		out = append(out, *entry.result(stepID))
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].BlockNumber != out[j].BlockNumber {
			return out[i].BlockNumber < out[j].BlockNumber
		}
		return out[i].StepID < out[j].StepID
	})
	return out
}

// Networks возвращает имена сетей, отсортированные по алфавиту.
func (b *Book) Networks() []string {
	b.mu.RLock()
	defer b.mu.RUnlock()

	names := make([]string, 0, len(b.networks))
	for name := range b.networks {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// flush атомарно перезаписывает файл: временный файл + rename.
// Вызывается под b.mu.
func (b *Book) flush() error {
	data, err := json.MarshalIndent(fileFormat{Networks: b.networks}, "", "  ")
	if err != nil {
		return fmt.Errorf("encode address book: %w", err)
	}
	data = append(data, '\n')

	dir := filepath.Dir(b.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create address book dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".addresses-*.json")
	if err != nil {
		return fmt.Errorf("create temp address book: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write address book: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close address book: %w", err)
	}
	if err := os.Rename(tmpName, b.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace address book: %w", err)
	}
	return nil
}

func (e Entry) result(stepID string) *domain.Result {
	return &domain.Result{
		RunID:       e.RunID,
		StepID:      stepID,
		Contract:    e.Contract,
		Address:     e.Address,
		TxHash:      e.TxHash,
		BlockNumber: e.Block,
		ArgsHash:    e.ArgsHash,
		DeployedAt:  e.DeployedAt,
	}
}
