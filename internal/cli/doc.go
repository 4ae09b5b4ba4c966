// Package cli реализует команды nodus-deploy.
//
// # Обзор
//
// Команды работают напрямую с узлом, адресной книгой и (опционально)
// PostgreSQL и RabbitMQ. Исключение — history: она читает журнал runs
// через HTTP API, поднятый командой serve.
//
// # Ключевые компоненты
//
// ## Root
//
// NewRootCmd собирает дерево команд. PersistentFlags переопределяют
// конфигурацию из окружения (internal/config):
//
//	nodus-deploy --network sepolia --rpc-url https://... run deployments/nodus.yaml
//
// ## Output
//
// Форматирование вывода. Поддерживает два режима:
//   - Таблицы (text/tabwriter) — по умолчанию
//   - JSON — с флагом --json
//
// Данные выводятся в stdout, сообщения (Success/Error) — в stderr.
// Это позволяет использовать pipe: nodus-deploy deployments --json | jq .
//
// ## Commands
//   - run: выполнить план (или --dry-run без отправки транзакций)
//   - validate: проверить план без обращения к сети
//   - plan: показать порядок шагов и ссылки между ними
//   - deployments: адреса из адресной книги
//   - serve: HTTP API и /metrics
//   - events: читать события деплоя из RabbitMQ
//   - history: runs из HTTP API
//
// Каждая команда создаётся через фабричную функцию, принимающую
// configFn и outputFn — замыкания для ленивого создания Config и Output
// после парсинга PersistentFlags.
package cli
