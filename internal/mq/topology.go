package mq

import (
	"context"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Exchange — тип для имени обменника.
type Exchange string

// Queue — тип для имени очереди.
type Queue string

// RoutingKey — тип для ключа маршрутизации.
type RoutingKey string

// Exchanges — имена обменников.
const (
	ExchangeDeployments Exchange = "nodus.deployments"
)

// Queues — имена очередей.
const (
	QueueDeploymentsDeployed Queue = "deployments.deployed"
	QueueRunsFinished        Queue = "runs.finished"
)

// Routing keys.
const (
	RoutingKeyDeployed RoutingKey = "deployed"
	RoutingKeyFinished RoutingKey = "finished"
)

// binding — привязка очереди к exchange.
type binding struct {
	queue      Queue
	routingKey RoutingKey
}

// bindings — топология: обе очереди на одном direct exchange.
var bindings = []binding{
	{QueueDeploymentsDeployed, RoutingKeyDeployed},
	{QueueRunsFinished, RoutingKeyFinished},
}

// SetupTopology объявляет exchange, очереди и привязки. Идемпотентна.
func SetupTopology(ctx context.Context, conn *Connection) error {
	return conn.WithChannel(ctx, func(ch *amqp.Channel) error {
		err := ch.ExchangeDeclare(
			string(ExchangeDeployments), // name
			amqp.ExchangeDirect,         // type
			true,                        // durable
			false,                       // auto-deleted
			false,                       // internal
			false,                       // no-wait
			nil,                         // arguments
		)
		if err != nil {
			return fmt.Errorf("declare exchange %s: %w", ExchangeDeployments, err)
		}

		for _, b := range bindings {
			if _, err := ch.QueueDeclare(
				string(b.queue), // name
				true,            // durable
				false,           // delete when unused
				false,           // exclusive
				false,           // no-wait
				nil,             // arguments
			); err != nil {
				return fmt.Errorf("declare queue %s: %w", b.queue, err)
			}

			if err := ch.QueueBind(
				string(b.queue),             // queue name
				string(b.routingKey),        // routing key
				string(ExchangeDeployments), // exchange
				false,                       // no-wait
				nil,                         // arguments
			); err != nil {
				return fmt.Errorf("bind queue %s to %s: %w", b.queue, ExchangeDeployments, err)
			}
		}

		return nil
	})
}

// QueueFor возвращает очередь, в которую попадают сообщения с routing key.
func QueueFor(key RoutingKey) (Queue, bool) {
	for _, b := range bindings {
		if b.routingKey == key {
			return b.queue, true
		}
	}
	return "", false
}

// TopologyInfo возвращает описание топологии для логирования.
func TopologyInfo() string {
	return `
  nodus-deploy RabbitMQ topology:

    nodus.deployments (direct)
    ├── deployments.deployed [routing: deployed]
    └── runs.finished        [routing: finished]
  `
}
