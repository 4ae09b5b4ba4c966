// Package telemetry обеспечивает наблюдаемость деплоя.
//
// Включает:
//   - logging.go — structured logging через slog
//   - metrics.go — Prometheus метрики шагов и runs, Pushgateway
//
// Метрики регистрируются в prometheus.DefaultRegisterer:
// `serve` отдаёт их на /metrics, `run` отправляет в Pushgateway.
package telemetry
