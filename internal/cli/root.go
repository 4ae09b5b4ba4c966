package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/shaiso/nodus-deploy/internal/config"
)

// globalFlags — значения PersistentFlags.
type globalFlags struct {
	rpcURL      string
	network     string
	chainID     uint64
	artifacts   string
	addressBook string
	apiURL      string
	jsonOutput  bool
}

// NewRootCmd собирает дерево команд.
// getenv — источник переменных окружения (os.Getenv в main).
func NewRootCmd(version string, getenv func(string) string) *cobra.Command {
	var flags globalFlags

	rootCmd := &cobra.Command{
		Use:           "nodus-deploy",
		Short:         "Ordered, dependency-aware contract deployment",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&flags.rpcURL, "rpc-url", "", "JSON-RPC endpoint (overrides RPC_URL)")
	pf.StringVar(&flags.network, "network", "", "Network name in the address book (overrides NETWORK)")
	pf.Uint64Var(&flags.chainID, "chain-id", 0, "Expected chain ID (overrides CHAIN_ID)")
	pf.StringVar(&flags.artifacts, "artifacts", "", "Compiled artifacts directory (overrides ARTIFACTS_DIR)")
	pf.StringVar(&flags.addressBook, "address-book", "", "Address book file (overrides ADDRESS_BOOK)")
	pf.StringVar(&flags.apiURL, "api-url", "http://localhost:8080", "API server URL for history commands")
	pf.BoolVar(&flags.jsonOutput, "json", false, "Output in JSON format")

	configFn := func() (*config.Config, error) {
		cfg, err := config.LoadFrom(getenv)
		if err != nil {
			return nil, err
		}
		flags.apply(rootCmd, cfg)
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
		return cfg, nil
	}
	outputFn := func() *Output {
		return NewOutput(flags.jsonOutput, rootCmd.OutOrStdout(), rootCmd.ErrOrStderr())
	}
	clientFn := func() *Client { return NewClient(flags.apiURL) }

	rootCmd.AddCommand(
		NewRunCmd(configFn, outputFn),
		NewValidateCmd(outputFn),
		NewPlanCmd(outputFn),
		NewDeploymentsCmd(configFn, outputFn),
		NewServeCmd(configFn),
		NewEventsCmd(configFn, outputFn),
		NewHistoryCmd(clientFn, outputFn),
	)

	return rootCmd
}

// apply переносит заданные флаги в cfg.
func (f *globalFlags) apply(cmd *cobra.Command, cfg *config.Config) {
	pf := cmd.PersistentFlags()
	if pf.Changed("rpc-url") {
		cfg.RPCURL = f.rpcURL
	}
	if pf.Changed("network") {
		cfg.Network = f.network
	}
	if pf.Changed("chain-id") {
		cfg.ChainID = f.chainID
	}
	if pf.Changed("artifacts") {
		cfg.ArtifactsDir = f.artifacts
	}
	if pf.Changed("address-book") {
		cfg.AddressBook = f.addressBook
	}
}

// parseInputs разбирает --input KEY=VALUE.
func parseInputs(pairs []string) (map[string]any, error) {
	inputs := make(map[string]any, len(pairs))
	for _, kv := range pairs {
		parts := strings.SplitN(kv, "=", 2)
		if len(parts) != 2 || parts[0] == "" {
			return nil, fmt.Errorf("invalid input format %q, expected KEY=VALUE", kv)
		}
		inputs[parts[0]] = parts[1]
	}
	return inputs, nil
}
