// Package mq публикует события деплоя в RabbitMQ.
//
// Структура:
//   - connection.go — соединение с reconnect и publisher confirms
//   - topology.go   — объявление exchange, queues, bindings
//   - publisher.go  — публикация событий (реализует orchestrator.Notifier)
//   - consumer.go   — чтение событий (команда `events`)
//
// Типы сообщений:
//   - step.deployed — шаг задеплоен (или взят из адресной книги)
//   - run.finished  — run завершён (SUCCEEDED или FAILED)
//
// Exchange:
//   - nodus.deployments (direct)
package mq
