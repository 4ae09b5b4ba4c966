package mq

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/shaiso/nodus-deploy/internal/domain"
)

// MessageType — тип сообщения в очереди.
type MessageType string

// Типы сообщений.
const (
	MessageTypeStepDeployed MessageType = "step.deployed"
	MessageTypeRunFinished  MessageType = "run.finished"
)

// Message — сообщение для публикации.
type Message struct {
	// ID — уникальный идентификатор сообщения.
	ID string `json:"id"`

	// Type — тип сообщения.
	Type MessageType `json:"type"`

	// Payload — полезная нагрузка.
	Payload json.RawMessage `json:"payload"`

	// Timestamp — время создания.
	Timestamp time.Time `json:"timestamp"`
}

// StepDeployedPayload — payload для step.deployed.
type StepDeployedPayload struct {
	RunID       string `json:"run_id"`
	Network     string `json:"network"`
	ChainID     uint64 `json:"chain_id"`
	Index       int    `json:"index"`
	StepID      string `json:"step_id"`
	Contract    string `json:"contract"`
	Address     string `json:"address"`
	TxHash      string `json:"tx_hash,omitempty"`
	BlockNumber uint64 `json:"block_number"`
	GasUsed     uint64 `json:"gas_used"`
	Reused      bool   `json:"reused,omitempty"`
}

// RunFinishedPayload — payload для run.finished.
type RunFinishedPayload struct {
	RunID      string           `json:"run_id"`
	PlanName   string           `json:"plan_name"`
	Network    string           `json:"network"`
	ChainID    uint64           `json:"chain_id"`
	Status     domain.RunStatus `json:"status"`
	FailedStep string           `json:"failed_step,omitempty"`
	Error      string           `json:"error,omitempty"`
	DurationMs int64            `json:"duration_ms"`
}

// Publisher публикует события деплоя в RabbitMQ.
type Publisher struct {
	conn   *Connection
	logger *slog.Logger
}

// NewPublisher создаёт новый Publisher.
func NewPublisher(conn *Connection, logger *slog.Logger) *Publisher {
	return &Publisher{
		conn:   conn,
		logger: logger,
	}
}

// NewMessage создаёт сообщение с сериализованным payload.
func NewMessage(msgType MessageType, payload any) (*Message, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}

	return &Message{
		ID:        uuid.New().String(),
		Type:      msgType,
		Payload:   body,
		Timestamp: time.Now().UTC(),
	}, nil
}

// Publish публикует сообщение и ждёт подтверждения брокера.
func (p *Publisher) Publish(ctx context.Context, routingKey RoutingKey, msg *Message) error {
	// Во время reconnect не ждём: событие теряется, run продолжается.
	if !p.conn.IsConnected() {
		return ErrNoChannel
	}

	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	return p.conn.WithChannel(ctx, func(ch *amqp.Channel) error {
		confirm, err := ch.PublishWithDeferredConfirmWithContext(
			ctx,
			string(ExchangeDeployments), // exchange
			string(routingKey),          // routing key
			false,                       // mandatory
			false,                       // immediate
			amqp.Publishing{
				ContentType:  "application/json",
				DeliveryMode: amqp.Persistent, // сообщение переживёт рестарт RabbitMQ
				MessageId:    msg.ID,
				Type:         string(msg.Type),
				Timestamp:    msg.Timestamp,
				Body:         body,
			},
		)
		if err != nil {
			return fmt.Errorf("publish to %s/%s: %w", ExchangeDeployments, routingKey, err)
		}

		if confirm != nil {
			acked, err := confirm.WaitContext(ctx)
			if err != nil {
				return fmt.Errorf("confirm %s: %w", msg.ID, err)
			}
			if !acked {
				return fmt.Errorf("%w: %s", ErrNacked, msg.ID)
			}
		}

		p.logger.Debug("published message",
			"exchange", ExchangeDeployments,
			"routing_key", routingKey,
			"message_id", msg.ID,
			"type", msg.Type,
		)

		return nil
	})
}

// StepDeployed публикует step.deployed.
func (p *Publisher) StepDeployed(ctx context.Context, run *domain.Run, res *domain.Result) error {
	msg, err := NewMessage(MessageTypeStepDeployed, NewStepDeployedPayload(run, res))
	if err != nil {
		return err
	}
	return p.Publish(ctx, RoutingKeyDeployed, msg)
}

// RunFinished публикует run.finished.
func (p *Publisher) RunFinished(ctx context.Context, run *domain.Run) error {
	msg, err := NewMessage(MessageTypeRunFinished, NewRunFinishedPayload(run))
	if err != nil {
		return err
	}
	return p.Publish(ctx, RoutingKeyFinished, msg)
}

// NewStepDeployedPayload собирает payload из run и результата шага.
func NewStepDeployedPayload(run *domain.Run, res *domain.Result) StepDeployedPayload {
	payload := StepDeployedPayload{
		RunID:       run.ID.String(),
		Network:     run.Network,
		ChainID:     run.ChainID,
		Index:       res.Index,
		StepID:      res.StepID,
		Contract:    res.Contract,
		Address:     res.Address.Hex(),
		BlockNumber: res.BlockNumber,
		GasUsed:     res.GasUsed,
		Reused:      res.Reused,
	}
	if !res.Reused {
		payload.TxHash = res.TxHash.Hex()
	}
	return payload
}

// NewRunFinishedPayload собирает payload из завершённого run.
func NewRunFinishedPayload(run *domain.Run) RunFinishedPayload {
	return RunFinishedPayload{
		RunID:      run.ID.String(),
		PlanName:   run.PlanName,
		Network:    run.Network,
		ChainID:    run.ChainID,
		Status:     run.Status,
		FailedStep: run.FailedStep,
		Error:      run.Error,
		DurationMs: run.Duration().Milliseconds(),
	}
}
