package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/spf13/cobra"

	"github.com/shaiso/nodus-deploy/internal/addressbook"
	"github.com/shaiso/nodus-deploy/internal/chain"
	"github.com/shaiso/nodus-deploy/internal/config"
	"github.com/shaiso/nodus-deploy/internal/domain"
	"github.com/shaiso/nodus-deploy/internal/engine"
	"github.com/shaiso/nodus-deploy/internal/mq"
	"github.com/shaiso/nodus-deploy/internal/orchestrator"
	"github.com/shaiso/nodus-deploy/internal/repo"
	"github.com/shaiso/nodus-deploy/internal/telemetry"
)

const (
	metricsJob         = "nodus-deploy"
	metricsPushTimeout = 10 * time.Second
)

// ErrNoSender — для --dry-run не задан ни --from, ни PRIVATE_KEY.
var ErrNoSender = errors.New("dry run needs a sender: set --from or PRIVATE_KEY")

type runOptions struct {
	inputs   []string
	reuse    bool
	dryRun   bool
	from     string
	nonce    uint64
	nonceSet bool
}

// NewRunCmd создаёт команду run.
func NewRunCmd(configFn func() (*config.Config, error), outputFn func() *Output) *cobra.Command {
	var opts runOptions

	cmd := &cobra.Command{
		Use:   "run PLAN",
		Short: "Deploy the contracts of a plan in order",
		Long: `Deploy every step of PLAN (JSON or YAML) in order.

Each step is submitted only after the previous one is confirmed. The first
failure stops the run; contracts already deployed stay on chain and are
recorded in the address book.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := configFn()
			if err != nil {
				return err
			}
			opts.nonceSet = cmd.Flags().Changed("nonce")

			return runPlan(cmd.Context(), cfg, args[0], opts, outputFn(), slog.Default())
		},
	}

	cmd.Flags().StringArrayVar(&opts.inputs, "input", nil, "Plan input as KEY=VALUE (repeatable)")
	cmd.Flags().BoolVar(&opts.reuse, "reuse", false, "Skip steps already deployed with identical arguments")
	cmd.Flags().BoolVar(&opts.dryRun, "dry-run", false, "Pack arguments and predict addresses without sending transactions")
	cmd.Flags().StringVar(&opts.from, "from", "", "Sender address for --dry-run (default: address of PRIVATE_KEY)")
	cmd.Flags().Uint64Var(&opts.nonce, "nonce", 0, "Starting nonce for --dry-run (default: pending nonce from the node)")

	return cmd
}

// runPlan проверяет план, подключает окружение и выполняет run.
func runPlan(ctx context.Context, cfg *config.Config, path string, opts runOptions, out *Output, logger *slog.Logger) error {
	plan, err := engine.LoadPlan(path)
	if err != nil {
		return err
	}
	inputs, err := parseInputs(opts.inputs)
	if err != nil {
		return err
	}

	// Невалидный план не должен приводить даже к подключению к узлу.
	prepared, _, err := orchestrator.Prepare(plan, inputs)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	env, err := openRunEnv(ctx, cfg, opts, logger)
	if err != nil {
		return err
	}
	defer env.Close()

	orch := orchestrator.New(orchestrator.Config{
		Deployer: env.deployer,
		Stores:   env.stores,
		Runs:     env.runs,
		Lookup:   env.book,
		Notifier: env.notifier,
		Network:  cfg.Network,
		ChainID:  env.chainID,
		Reuse:    opts.reuse,
		Logger:   logger,
	})

	run, results, runErr := orch.ExecuteRun(ctx, plan, inputs)
	printRun(out, prepared, run, results, opts.dryRun, runErr)

	if cfg.PushgatewayURL != "" && !opts.dryRun {
		pushCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), metricsPushTimeout)
		if err := telemetry.PushMetrics(pushCtx, cfg.PushgatewayURL, metricsJob, cfg.Network); err != nil {
			logger.Warn("failed to push metrics", "url", cfg.PushgatewayURL, "error", err)
		}
		cancel()
	}

	return runErr
}

// runEnv — коллабораторы одного run.
type runEnv struct {
	deployer orchestrator.Deployer
	book     *addressbook.Book
	stores   []orchestrator.ResultStore
	runs     orchestrator.RunStore
	notifier orchestrator.Notifier
	chainID  uint64

	closers []func()
}

// openRunEnv подключает узел и хранилища.
// В режиме dry-run ничего не записывается: ни адресная книга, ни БД, ни события.
func openRunEnv(ctx context.Context, cfg *config.Config, opts runOptions, logger *slog.Logger) (*runEnv, error) {
	book, err := addressbook.Open(cfg.AddressBook)
	if err != nil {
		return nil, err
	}
	env := &runEnv{book: book, chainID: cfg.ChainID}

	if opts.dryRun {
		if err := env.openDryRun(ctx, cfg, opts, logger); err != nil {
			env.Close()
			return nil, err
		}
		return env, nil
	}

	if err := env.openChain(ctx, cfg, logger); err != nil {
		env.Close()
		return nil, err
	}
	env.stores = append(env.stores, book)

	if cfg.DBURL != "" {
		if err := env.openDB(ctx, cfg, logger); err != nil {
			env.Close()
			return nil, err
		}
	}
	if cfg.RabbitMQURL != "" {
		if err := env.openMQ(ctx, cfg, logger); err != nil {
			env.Close()
			return nil, err
		}
	}

	return env, nil
}

func (e *runEnv) openChain(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	if err := cfg.ValidateDeploy(); err != nil {
		return err
	}

	key, err := chain.ParsePrivateKey(cfg.PrivateKey)
	if err != nil {
		return err
	}

	client, chainID, err := chain.Dial(ctx, cfg.RPCURL, cfg.ChainID)
	if err != nil {
		return err
	}
	e.closers = append(e.closers, client.Close)

	deployer, err := chain.NewEthDeployer(chain.EthConfig{
		Backend:        client,
		Key:            key,
		ChainID:        chainID,
		Artifacts:      chain.NewArtifactStore(cfg.ArtifactsDir),
		ConfirmTimeout: cfg.ConfirmTimeout,
		Logger:         logger,
	})
	if err != nil {
		return err
	}

	e.deployer = deployer
	e.chainID = chainID.Uint64()

	logger.Info("connected to node",
		"rpc_url", cfg.RPCURL,
		"chain_id", e.chainID,
		"sender", deployer.Sender().Hex(),
	)
	return nil
}

func (e *runEnv) openDryRun(ctx context.Context, cfg *config.Config, opts runOptions, logger *slog.Logger) error {
	sender, err := dryRunSender(cfg, opts)
	if err != nil {
		return err
	}

	var nonces chain.NonceSource
	if !opts.nonceSet {
		client, chainID, err := chain.Dial(ctx, cfg.RPCURL, cfg.ChainID)
		if err != nil {
			return err
		}
		e.closers = append(e.closers, client.Close)
		nonces = client
		e.chainID = chainID.Uint64()
	}

	e.deployer = chain.NewDryRunDeployer(sender, chain.NewArtifactStore(cfg.ArtifactsDir), nonces, opts.nonce)

	logger.Info("dry run, no transactions will be sent",
		"sender", sender.Hex(),
		"offline", opts.nonceSet,
	)
	return nil
}

// dryRunSender возвращает --from или адрес PRIVATE_KEY.
func dryRunSender(cfg *config.Config, opts runOptions) (common.Address, error) {
	if opts.from != "" {
		if !common.IsHexAddress(opts.from) {
			return common.Address{}, fmt.Errorf("invalid --from address %q", opts.from)
		}
		return common.HexToAddress(opts.from), nil
	}
	if cfg.PrivateKey == "" {
		return common.Address{}, ErrNoSender
	}

	key, err := chain.ParsePrivateKey(cfg.PrivateKey)
	if err != nil {
		return common.Address{}, err
	}
	return crypto.PubkeyToAddress(key.PublicKey), nil
}

func (e *runEnv) openDB(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	pool, err := repo.NewPool(ctx, cfg.DBURL)
	if err != nil {
		return err
	}
	e.closers = append(e.closers, pool.Close)

	if err := repo.Migrate(ctx, pool); err != nil {
		return err
	}

	recorder := repo.NewRecorder(pool)
	e.stores = append(e.stores, recorder)
	e.runs = recorder

	logger.Info("connected to database")
	return nil
}

func (e *runEnv) openMQ(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	conn, err := mq.NewConnection(cfg.RabbitMQURL, "nodus-deploy-run", logger)
	if err != nil {
		return err
	}
	e.closers = append(e.closers, func() { _ = conn.Close() })

	if err := mq.SetupTopology(ctx, conn); err != nil {
		return err
	}

	e.notifier = mq.NewPublisher(conn, logger)
	return nil
}

// Close освобождает ресурсы в обратном порядке.
func (e *runEnv) Close() {
	for i := len(e.closers) - 1; i >= 0; i-- {
		e.closers[i]()
	}
	e.closers = nil
}

// runOutput — JSON представление run.
type runOutput struct {
	Run     *domain.Run     `json:"run,omitempty"`
	DryRun  bool            `json:"dry_run,omitempty"`
	Results []domain.Result `json:"results"`
	Error   string          `json:"error,omitempty"`
}

// printRun выводит адрес каждого выполненного шага.
func printRun(out *Output, plan *domain.Plan, run *domain.Run, results []domain.Result, dryRun bool, err error) {
	if results == nil {
		results = []domain.Result{}
	}

	if out.JSONMode() {
		o := runOutput{Run: run, DryRun: dryRun, Results: results}
		if err != nil {
			o.Error = err.Error()
		}
		out.JSON(o)
		return
	}

	steps := make(map[string]*domain.Step, len(plan.Steps))
	for i := range plan.Steps {
		steps[plan.Steps[i].ID] = &plan.Steps[i]
	}

	headers := []string{"#", "STEP", "LABEL", "CONTRACT", "ADDRESS", "TX", "BLOCK", "GAS", "STATUS"}
	rows := make([][]string, len(results))
	for i, r := range results {
		label := ""
		if step, ok := steps[r.StepID]; ok {
			label = step.Label
		}
		rows[i] = []string{
			strconv.Itoa(r.Index),
			r.StepID,
			orDash(label),
			r.Contract,
			r.Address.Hex(),
			hashOrDash(r.TxHash),
			strconv.FormatUint(r.BlockNumber, 10),
			strconv.FormatUint(r.GasUsed, 10),
			resultStatus(r, dryRun),
		}
	}
	if len(rows) > 0 {
		out.Table(headers, rows)
	}

	switch {
	case run == nil:
		// План не прошёл валидацию: ошибку выводит main.
	case err != nil:
		failed := run.FailedStep
		if step, ok := steps[failed]; ok {
			failed = step.Name()
		}
		out.Failure("run %s stopped at step %s, %d steps deployed before it", run.ID, failed, len(results))
	case dryRun:
		out.Notice("Dry run %s: %d steps checked, nothing sent", run.ID, len(results))
	default:
		out.Notice("Run %s succeeded: %d steps", run.ID, len(results))
	}
}

func resultStatus(r domain.Result, dryRun bool) string {
	switch {
	case r.Reused:
		return "reused"
	case dryRun:
		return "predicted"
	default:
		return "deployed"
	}
}

func hashOrDash(h common.Hash) string {
	if h == (common.Hash{}) {
		return "-"
	}
	return h.Hex()
}
