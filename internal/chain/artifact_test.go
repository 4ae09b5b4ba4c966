package chain

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestParseArtifact_Truffle(t *testing.T) {
	data := []byte(`{"contractName":"Nodus","abi":` + nodusABI + `,"bytecode":"` + okInitCode + `"}`)

	art, err := ParseArtifact(data)
	if err != nil {
		t.Fatalf("ParseArtifact() error = %v", err)
	}

	if art.ContractName != "Nodus" {
		t.Errorf("ContractName = %q, want %q", art.ContractName, "Nodus")
	}
	if len(art.ABI.Constructor.Inputs) != 2 {
		t.Errorf("constructor inputs = %d, want 2", len(art.ABI.Constructor.Inputs))
	}
	if len(art.Bytecode) != 10 {
		t.Errorf("bytecode len = %d, want 10", len(art.Bytecode))
	}
}

func TestParseArtifact_FoundryObject(t *testing.T) {
	data := []byte(`{"abi":` + vaultABI + `,"bytecode":{"object":"600060005360016000f3"}}`)

	art, err := ParseArtifact(data)
	if err != nil {
		t.Fatalf("ParseArtifact() error = %v", err)
	}
	if len(art.Bytecode) != 10 {
		t.Errorf("bytecode len = %d, want 10", len(art.Bytecode))
	}
}

func TestParseArtifact_Errors(t *testing.T) {
	tests := []struct {
		name string
		data string
		want error
	}{
		{"missing abi", `{"bytecode":"0x00"}`, ErrInvalidArtifact},
		{"missing bytecode", `{"abi":[]}`, ErrInvalidArtifact},
		{"empty bytecode", `{"abi":[],"bytecode":"0x"}`, ErrInvalidArtifact},
		{"bad hex", `{"abi":[],"bytecode":"0xzz"}`, ErrInvalidArtifact},
		{"unlinked", `{"abi":[],"bytecode":"0x6000__$abcdef$__"}`, ErrUnlinkedBytecode},
		{"not json", `abi`, ErrInvalidArtifact},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseArtifact([]byte(tt.data))
			if !errors.Is(err, tt.want) {
				t.Errorf("ParseArtifact() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestArtifactStore_Load(t *testing.T) {
	store := testArtifacts(t)

	art, err := store.Load("NodusVault")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	again, err := store.Load("NodusVault")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if art != again {
		t.Error("second Load() should return cached artifact")
	}
}

func TestArtifactStore_LoadNested(t *testing.T) {
	dir := t.TempDir()
	nested := filepath.Join(dir, "Token.sol")
	if err := os.Mkdir(nested, 0o755); err != nil {
		t.Fatal(err)
	}
	writeArtifact(t, nested, "Token", vaultABI, okInitCode)

	art, err := NewArtifactStore(dir).Load("Token")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if art.ContractName != "Token" {
		t.Errorf("ContractName = %q, want %q", art.ContractName, "Token")
	}
}

func TestArtifactStore_NotFound(t *testing.T) {
	_, err := NewArtifactStore(t.TempDir()).Load("Missing")
	if !errors.Is(err, ErrArtifactNotFound) {
		t.Errorf("Load() error = %v, want ErrArtifactNotFound", err)
	}
}
