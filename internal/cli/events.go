package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/shaiso/nodus-deploy/internal/config"
	"github.com/shaiso/nodus-deploy/internal/mq"
)

// ErrNoBroker — RABBITMQ_URL не задан.
var ErrNoBroker = errors.New("RABBITMQ_URL is required")

// NewEventsCmd создаёт команду events: печатает события деплоя из очереди.
func NewEventsCmd(configFn func() (*config.Config, error), outputFn func() *Output) *cobra.Command {
	var kind string

	cmd := &cobra.Command{
		Use:   "events",
		Short: "Follow deployment events published by run",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := configFn()
			if err != nil {
				return err
			}
			if cfg.RabbitMQURL == "" {
				return ErrNoBroker
			}

			queue, ok := mq.QueueFor(mq.RoutingKey(kind))
			if !ok {
				return fmt.Errorf("unknown event kind %q, expected %q or %q",
					kind, mq.RoutingKeyDeployed, mq.RoutingKeyFinished)
			}

			return followEvents(cmd.Context(), cfg, queue, outputFn(), slog.Default())
		},
	}

	cmd.Flags().StringVar(&kind, "kind", string(mq.RoutingKeyDeployed), "Events to follow: deployed or finished")

	return cmd
}

func followEvents(ctx context.Context, cfg *config.Config, queue mq.Queue, out *Output, logger *slog.Logger) error {
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	conn, err := mq.NewConnection(cfg.RabbitMQURL, "nodus-deploy-events", logger)
	if err != nil {
		return err
	}
	defer conn.Close()

	if err := mq.SetupTopology(ctx, conn); err != nil {
		return err
	}
	logger.Debug("topology ready", "topology", mq.TopologyInfo())

	consumer := mq.NewConsumer(conn, logger, mq.ConsumerConfig{
		Queue:   queue,
		Handler: eventPrinter(out),
	})

	err = consumer.Run(ctx)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// eventPrinter выводит событие строкой таблицы или JSON.
func eventPrinter(out *Output) mq.Handler {
	return func(_ context.Context, msg *mq.Message) error {
		if out.JSONMode() {
			out.JSON(msg)
			return nil
		}

		ts := msg.Timestamp.Format(time.RFC3339)
		switch msg.Type {
		case mq.MessageTypeStepDeployed:
			if p, err := mq.ParsePayload[mq.StepDeployedPayload](msg); err == nil {
				out.Line("%s  %s  %s/%s  %s  %s  block %d",
					ts, msg.Type, p.Network, p.StepID, p.Contract, p.Address, p.BlockNumber)
				return nil
			}
		case mq.MessageTypeRunFinished:
			if p, err := mq.ParsePayload[mq.RunFinishedPayload](msg); err == nil {
				out.Line("%s  %s  %s  %s  %s  %dms %s",
					ts, msg.Type, p.Network, p.RunID, p.Status, p.DurationMs, p.Error)
				return nil
			}
		}

		// Неизвестный тип или payload: печатаем как есть, повтор не поможет.
		out.Line("%s  %s  %s", ts, msg.Type, string(msg.Payload))
		return nil
	}
}
