// nodus-deploy — упорядоченный деплой контрактов с подстановкой адресов.
//
// Использование:
//
//	nodus-deploy [--network NAME] [--rpc-url URL] [--json] <command> [flags]
//
// Команды:
//
//	run          Выполнить план деплоя
//	validate     Проверить план
//	plan         Показать порядок шагов и ссылки
//	deployments  Адреса из адресной книги
//	serve        HTTP API и /metrics
//	events       События деплоя из RabbitMQ
//	history      Журнал runs через API
package main

import (
	"fmt"
	"os"

	"github.com/shaiso/nodus-deploy/internal/cli"
	"github.com/shaiso/nodus-deploy/internal/telemetry"
)

// version задаётся через ldflags при сборке.
var version = "dev"

func main() {
	telemetry.SetupLogger()

	if err := cli.NewRootCmd(version, os.Getenv).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
