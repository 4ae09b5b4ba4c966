// Package engine содержит всё, что нужно для понимания плана деплоя
// до отправки первой транзакции.
//
// Включает:
//   - parser.go   — парсинг Plan из JSON/YAML и валидация
//   - graph.go    — граф ссылок между шагами (кто на чей адрес ссылается)
//   - template.go — разрешение аргументов ({ref: id}, {{ .Steps.id.Address }})
//   - inputs.go   — применение входных параметров плана
//
// Engine не обращается к сети: ошибки, найденные здесь, всегда
// возникают до первого деплоя.
package engine
