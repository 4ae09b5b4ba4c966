package cli

import (
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/shaiso/nodus-deploy/internal/domain"
	"github.com/shaiso/nodus-deploy/internal/engine"
	"github.com/shaiso/nodus-deploy/internal/orchestrator"
)

// NewValidateCmd создаёт команду validate.
func NewValidateCmd(outputFn func() *Output) *cobra.Command {
	var inputs []string

	cmd := &cobra.Command{
		Use:   "validate PLAN",
		Short: "Check a plan without contacting the network",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := outputFn()

			plan, applied, err := loadPrepared(args[0], inputs)
			if err != nil {
				return err
			}

			if out.JSONMode() {
				out.JSON(map[string]any{
					"plan":   plan.Name,
					"valid":  true,
					"steps":  len(plan.Steps),
					"inputs": applied,
				})
				return nil
			}
			out.Line("plan %s is valid: %d steps", planName(plan, args[0]), len(plan.Steps))
			return nil
		},
	}

	cmd.Flags().StringArrayVar(&inputs, "input", nil, "Plan input as KEY=VALUE (repeatable)")

	return cmd
}

// NewPlanCmd создаёт команду plan: порядок шагов и ссылки между ними.
func NewPlanCmd(outputFn func() *Output) *cobra.Command {
	var inputs []string

	cmd := &cobra.Command{
		Use:   "plan PLAN",
		Short: "Show the step order and the addresses each step consumes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := outputFn()

			plan, _, err := loadPrepared(args[0], inputs)
			if err != nil {
				return err
			}
			graph, err := engine.BuildGraph(plan)
			if err != nil {
				return err
			}

			steps := make([]planStepOutput, len(graph.Nodes))
			rows := make([][]string, len(graph.Nodes))
			for i, node := range graph.Nodes {
				deps := make([]string, len(node.DependsOn))
				for j, dep := range node.DependsOn {
					deps[j] = dep.ID()
				}
				args := make([]string, len(node.Step.Args))
				for j, a := range node.Step.Args {
					args[j] = a.String()
				}

				steps[i] = planStepOutput{
					Index:     node.Index,
					ID:        node.ID(),
					Contract:  node.Step.Contract,
					Label:     node.Step.Label,
					Args:      node.Step.Args,
					DependsOn: deps,
				}
				rows[i] = []string{
					strconv.Itoa(node.Index),
					node.ID(),
					orDash(node.Step.Label),
					node.Step.Contract,
					strings.Join(args, ", "),
					joinOrDash(deps),
				}
			}

			out.Print([]string{"#", "STEP", "LABEL", "CONTRACT", "ARGS", "DEPENDS_ON"}, rows, steps)
			return nil
		},
	}

	cmd.Flags().StringArrayVar(&inputs, "input", nil, "Plan input as KEY=VALUE (repeatable)")

	return cmd
}

// planStepOutput — JSON представление шага для команды plan.
type planStepOutput struct {
	Index     int          `json:"index"`
	ID        string       `json:"id"`
	Contract  string       `json:"contract"`
	Label     string       `json:"label,omitempty"`
	Args      []domain.Arg `json:"args"`
	DependsOn []string     `json:"depends_on"`
}

// loadPrepared читает план и валидирует его вместе с inputs.
func loadPrepared(path string, pairs []string) (*domain.Plan, map[string]any, error) {
	plan, err := engine.LoadPlan(path)
	if err != nil {
		return nil, nil, err
	}
	inputs, err := parseInputs(pairs)
	if err != nil {
		return nil, nil, err
	}
	return orchestrator.Prepare(plan, inputs)
}

func planName(plan *domain.Plan, path string) string {
	if plan.Name != "" {
		return plan.Name
	}
	return path
}

func joinOrDash(items []string) string {
	if len(items) == 0 {
		return "-"
	}
	return strings.Join(items, ", ")
}
