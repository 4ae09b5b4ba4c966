// Package api содержит read-only HTTP API над историей деплоев.
//
// Структура:
//   - handler.go    — Handler с DI (журнал runs, адресная книга, logger)
//   - routes.go     — регистрация маршрутов
//   - middleware.go — middleware (logging, recovery, metrics)
//   - response.go   — унифицированные JSON-ответы и обработка ошибок
//   - dto.go        — Data Transfer Objects
//   - run_handler.go        — /runs
//   - deployment_handler.go — /networks
//
// Журнал runs доступен только с БД; адресная книга доступна всегда.
package api
