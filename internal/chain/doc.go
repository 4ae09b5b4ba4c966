// Package chain — внешний деплоер: всё, что касается артефактов,
// ABI и отправки транзакций создания контрактов.
//
// Реализации деплоера:
//   - EthDeployer    — go-ethereum bind.DeployContract + ожидание подтверждения
//   - DryRunDeployer — упаковывает аргументы и предсказывает адрес
//     через crypto.CreateAddress, ничего не отправляя
//
// Оба реализуют orchestrator.Deployer.
package chain
