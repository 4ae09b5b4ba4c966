package chain

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// Artifact — скомпилированный контракт: ABI и байткод создания.
type Artifact struct {
	// ContractName — имя контракта из артефакта.
	ContractName string

	// ABI — разобранный ABI.
	ABI abi.ABI

	// Bytecode — байткод создания (без аргументов конструктора).
	Bytecode []byte
}

// artifactFile — общий вид артефактов truffle, hardhat и foundry.
// У foundry bytecode — объект {"object": "0x..."}.
type artifactFile struct {
	ContractName string          `json:"contractName"`
	ABI          json.RawMessage `json:"abi"`
	Bytecode     json.RawMessage `json:"bytecode"`
}

// ArtifactStore загружает артефакты из каталога сборки и кэширует их.
//
// Артефакт ищется как <dir>/<Contract>.json, затем
// <dir>/<Contract>.sol/<Contract>.json (раскладка foundry и hardhat).
type ArtifactStore struct {
	dir string

	mu    sync.Mutex
	cache map[string]*Artifact
}

// NewArtifactStore создаёт хранилище для каталога dir.
func NewArtifactStore(dir string) *ArtifactStore {
	return &ArtifactStore{
		dir:   dir,
		cache: make(map[string]*Artifact),
	}
}

// Dir возвращает каталог артефактов.
func (s *ArtifactStore) Dir() string {
	return s.dir
}

// Load возвращает артефакт контракта.
func (s *ArtifactStore) Load(contract string) (*Artifact, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if art, ok := s.cache[contract]; ok {
		return art, nil
	}

	candidates := []string{
		filepath.Join(s.dir, contract+".json"),
		filepath.Join(s.dir, contract+".sol", contract+".json"),
	}

	for _, path := range candidates {
		data, err := os.ReadFile(path)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("read artifact %s: %w", path, err)
		}

		art, err := ParseArtifact(data)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		if art.ContractName == "" {
			art.ContractName = contract
		}
		s.cache[contract] = art
		return art, nil
	}

	return nil, fmt.Errorf("%w: %s in %s", ErrArtifactNotFound, contract, s.dir)
}

// ParseArtifact разбирает JSON артефакта.
func ParseArtifact(data []byte) (*Artifact, error) {
	var file artifactFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidArtifact, err)
	}
	if len(file.ABI) == 0 {
		return nil, fmt.Errorf("%w: missing abi", ErrInvalidArtifact)
	}

	parsed, err := abi.JSON(bytes.NewReader(file.ABI))
	if err != nil {
		return nil, fmt.Errorf("%w: abi: %v", ErrInvalidArtifact, err)
	}

	code, err := decodeBytecode(file.Bytecode)
	if err != nil {
		return nil, err
	}

	return &Artifact{
		ContractName: file.ContractName,
		ABI:          parsed,
		Bytecode:     code,
	}, nil
}

// decodeBytecode принимает строку "0x..." или объект {"object": "0x..."}.
func decodeBytecode(raw json.RawMessage) ([]byte, error) {
	if len(raw) == 0 {
		return nil, fmt.Errorf("%w: missing bytecode", ErrInvalidArtifact)
	}

	var hex string
	if err := json.Unmarshal(raw, &hex); err != nil {
		var obj struct {
			Object string `json:"object"`
		}
		if err := json.Unmarshal(raw, &obj); err != nil {
			return nil, fmt.Errorf("%w: bytecode: %v", ErrInvalidArtifact, err)
		}
		hex = obj.Object
	}

	if strings.Contains(hex, "__") {
		return nil, ErrUnlinkedBytecode
	}
	if !strings.HasPrefix(hex, "0x") {
		hex = "0x" + hex
	}
	if hex == "0x" {
		return nil, fmt.Errorf("%w: empty bytecode (abstract contract or interface?)", ErrInvalidArtifact)
	}

	code, err := hexutil.Decode(hex)
	if err != nil {
		return nil, fmt.Errorf("%w: bytecode: %v", ErrInvalidArtifact, err)
	}
	return code, nil
}
