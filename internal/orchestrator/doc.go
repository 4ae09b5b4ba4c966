// Package orchestrator выполняет план деплоя.
//
// Orchestrator отвечает за:
//   - Валидацию плана до любого обращения к сети
//   - Последовательный деплой шагов в порядке плана
//   - Подстановку адресов уже задеплоенных шагов в аргументы
//   - Повторное использование идентичных деплоев из адресной книги
//   - Запись результатов (хранилища, события, метрики)
//   - Остановку на первой ошибке без отката и повторов
//
// Деплоер, хранилища и публикатор событий передаются интерфейсами.
package orchestrator
