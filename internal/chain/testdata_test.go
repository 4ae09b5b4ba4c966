package chain

import (
	"os"
	"path/filepath"
	"testing"
)

// Байткод создания, который возвращает 1 байт runtime кода.
const okInitCode = "0x600060005360016000f3"

// Байткод создания, который всегда делает revert.
const revertInitCode = "0x60006000fd"

const vaultABI = `[{"type":"constructor","stateMutability":"nonpayable","inputs":[{"name":"token","type":"address"}]}]`

const nodusABI = `[{"type":"constructor","stateMutability":"nonpayable","inputs":[{"name":"token","type":"address"},{"name":"vault","type":"address"}]}]`

func writeArtifact(t *testing.T, dir, name, abiJSON, bytecode string) {
	t.Helper()

	data := `{"contractName":"` + name + `","abi":` + abiJSON + `,"bytecode":"` + bytecode + `"}`
	if err := os.WriteFile(filepath.Join(dir, name+".json"), []byte(data), 0o644); err != nil {
		t.Fatalf("write artifact: %v", err)
	}
}

func testArtifacts(t *testing.T) *ArtifactStore {
	t.Helper()

	dir := t.TempDir()
	writeArtifact(t, dir, "NodusVault", vaultABI, okInitCode)
	writeArtifact(t, dir, "Nodus", nodusABI, okInitCode)
	writeArtifact(t, dir, "Broken", vaultABI, revertInitCode)
	return NewArtifactStore(dir)
}
