package cli

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

// NewHistoryCmd создаёт группу команд для чтения журнала runs через API.
func NewHistoryCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Browse recorded runs through the HTTP API",
	}

	cmd.AddCommand(
		newHistoryListCmd(clientFn, outputFn),
		newHistoryShowCmd(clientFn, outputFn),
	)

	return cmd
}

func newHistoryListCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	var opts ListRunsOpts

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			// Фильтр по сети — глобальный --network, если он задан явно.
			if cmd.Flags().Changed("network") {
				opts.Network, _ = cmd.Flags().GetString("network")
			}

			runs, err := client.ListRuns(opts)
			if err != nil {
				return historyError(err)
			}

			headers := []string{"ID", "PLAN", "NETWORK", "STATUS", "FAILED_STEP", "CREATED"}
			rows := make([][]string, len(runs))
			for i, r := range runs {
				rows[i] = []string{r.ID, r.PlanName, r.Network, r.Status, orDash(r.FailedStep), r.CreatedAt}
			}

			out.Print(headers, rows, runs)
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.Plan, "plan", "", "Filter by plan name")
	cmd.Flags().StringVar(&opts.Status, "status", "", "Filter by status (PENDING, RUNNING, SUCCEEDED, FAILED)")
	cmd.Flags().IntVar(&opts.Limit, "limit", 0, "Maximum number of results")

	return cmd
}

func newHistoryShowCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "show ID",
		Short: "Show a run and the addresses it deployed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			run, err := client.GetRun(args[0])
			if err != nil {
				return historyError(err)
			}

			if out.JSONMode() {
				out.JSON(run)
				return nil
			}

			out.Line("run %s: %s on %s, %s", run.ID, run.PlanName, run.Network, run.Status)
			if run.Error != "" {
				out.Line("failed at %s: %s", run.FailedStep, run.Error)
			}

			rows := make([][]string, len(run.Deployments))
			for i, d := range run.Deployments {
				rows[i] = []string{
					strconv.Itoa(d.Index),
					d.StepID,
					d.Contract,
					d.Address,
					orDash(d.TxHash),
					fmt.Sprintf("%d", d.BlockNumber),
				}
			}
			out.Table([]string{"#", "STEP", "CONTRACT", "ADDRESS", "TX", "BLOCK"}, rows)
			return nil
		},
	}
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// historyError дополняет ошибку сервера без БД подсказкой.
func historyError(err error) error {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.HistoryDisabled() {
		return fmt.Errorf("%w (restart serve with DB_URL set)", err)
	}
	return err
}
