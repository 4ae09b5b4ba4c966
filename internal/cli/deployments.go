package cli

import (
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/shaiso/nodus-deploy/internal/addressbook"
	"github.com/shaiso/nodus-deploy/internal/config"
	"github.com/shaiso/nodus-deploy/internal/domain"
)

// deploymentOutput — запись адресной книги с именем сети.
type deploymentOutput struct {
	Network string `json:"network"`
	domain.Result
}

// NewDeploymentsCmd создаёт команду deployments.
func NewDeploymentsCmd(configFn func() (*config.Config, error), outputFn func() *Output) *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "deployments",
		Short: "List addresses recorded in the address book",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := configFn()
			if err != nil {
				return err
			}
			out := outputFn()

			book, err := addressbook.Open(cfg.AddressBook)
			if err != nil {
				return err
			}

			networks := []string{cfg.Network}
			if all {
				networks = book.Networks()
			}

			list := make([]deploymentOutput, 0)
			rows := make([][]string, 0)
			for _, network := range networks {
				for _, res := range book.Deployments(network) {
					list = append(list, deploymentOutput{Network: network, Result: res})
					rows = append(rows, []string{
						network,
						res.StepID,
						res.Contract,
						res.Address.Hex(),
						strconv.FormatUint(res.BlockNumber, 10),
						res.DeployedAt.Format(time.RFC3339),
					})
				}
			}

			out.Print([]string{"NETWORK", "STEP", "CONTRACT", "ADDRESS", "BLOCK", "DEPLOYED_AT"}, rows, list)
			return nil
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "Show every network, not only --network")

	return cmd
}
