package mq

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/shaiso/nodus-deploy/internal/domain"
)

func TestNewMessage_RoundTripPayload(t *testing.T) {
	run := domain.NewRun("nodus", "sepolia", 11155111)
	res := &domain.Result{
		Index:       1,
		StepID:      "Nodus",
		Contract:    "Nodus",
		Address:     common.HexToAddress("0x00000000000000000000000000000000000000B1"),
		TxHash:      common.HexToHash("0x02"),
		BlockNumber: 42,
		GasUsed:     1_200_000,
	}

	msg, err := NewMessage(MessageTypeStepDeployed, NewStepDeployedPayload(run, res))
	if err != nil {
		t.Fatalf("NewMessage() error = %v", err)
	}
	if msg.ID == "" || msg.Timestamp.IsZero() {
		t.Errorf("message id/timestamp not set: %+v", msg)
	}

	// Сообщение проходит через брокер как JSON.
	body, err := json.Marshal(msg)
	if err != nil {
		t.Fatal(err)
	}
	var received Message
	if err := json.Unmarshal(body, &received); err != nil {
		t.Fatal(err)
	}

	payload, err := ParsePayload[StepDeployedPayload](&received)
	if err != nil {
		t.Fatalf("ParsePayload() error = %v", err)
	}
	if payload.RunID != run.ID.String() || payload.StepID != "Nodus" || payload.ChainID != 11155111 {
		t.Errorf("payload = %+v", payload)
	}
	if payload.Address != res.Address.Hex() || payload.TxHash != res.TxHash.Hex() {
		t.Errorf("address/tx = %s/%s", payload.Address, payload.TxHash)
	}
}

func TestNewStepDeployedPayload_ReusedHasNoTx(t *testing.T) {
	run := domain.NewRun("nodus", "local", 1337)
	res := &domain.Result{StepID: "vault", Reused: true, TxHash: common.HexToHash("0x01")}

	payload := NewStepDeployedPayload(run, res)
	if payload.TxHash != "" || !payload.Reused {
		t.Errorf("payload = %+v, want reused without tx hash", payload)
	}
}

func TestNewRunFinishedPayload(t *testing.T) {
	run := domain.NewRun("nodus", "local", 1337)
	run.MarkRunning()
	start := *run.StartedAt
	run.MarkFailed("Nodus", "insufficient funds")
	finished := start.Add(1500 * time.Millisecond)
	run.FinishedAt = &finished

	payload := NewRunFinishedPayload(run)
	if payload.Status != domain.RunStatusFailed || payload.FailedStep != "Nodus" {
		t.Errorf("payload = %+v", payload)
	}
	if payload.DurationMs != 1500 {
		t.Errorf("DurationMs = %d, want 1500", payload.DurationMs)
	}
}

func TestQueueFor(t *testing.T) {
	if q, ok := QueueFor(RoutingKeyDeployed); !ok || q != QueueDeploymentsDeployed {
		t.Errorf("QueueFor(deployed) = %s, %v", q, ok)
	}
	if q, ok := QueueFor(RoutingKeyFinished); !ok || q != QueueRunsFinished {
		t.Errorf("QueueFor(finished) = %s, %v", q, ok)
	}
	if _, ok := QueueFor("unknown"); ok {
		t.Error("QueueFor(unknown) should be false")
	}
}

func TestPublisher_Disconnected(t *testing.T) {
	pub := NewPublisher(&Connection{}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	run := domain.NewRun("nodus", "local", 1337)

	err := pub.RunFinished(context.Background(), run)
	if !errors.Is(err, ErrNoChannel) {
		t.Errorf("RunFinished() error = %v, want ErrNoChannel", err)
	}
}
