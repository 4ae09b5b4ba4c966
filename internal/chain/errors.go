package chain

import "errors"

// Ошибки артефактов.
var (
	// ErrArtifactNotFound — файл артефакта не найден.
	ErrArtifactNotFound = errors.New("artifact not found")

	// ErrInvalidArtifact — артефакт не содержит ABI или байткода.
	ErrInvalidArtifact = errors.New("invalid artifact")

	// ErrUnlinkedBytecode — байткод содержит неслинкованные библиотеки.
	ErrUnlinkedBytecode = errors.New("bytecode has unlinked libraries")
)

// Ошибки аргументов конструктора.
var (
	// ErrArgCount — число аргументов не совпадает с конструктором.
	ErrArgCount = errors.New("constructor argument count mismatch")

	// ErrInvalidArg — значение не приводится к ABI типу.
	ErrInvalidArg = errors.New("invalid constructor argument")

	// ErrUnsupportedType — ABI тип не поддерживается.
	ErrUnsupportedType = errors.New("unsupported ABI type")
)

// Ошибки деплоя.
var (
	// ErrSubmit — транзакция создания не отправлена.
	ErrSubmit = errors.New("deploy transaction submission failed")

	// ErrConfirm — подтверждение транзакции не получено.
	ErrConfirm = errors.New("deploy transaction confirmation failed")

	// ErrReverted — транзакция создания откатилась.
	ErrReverted = errors.New("deploy transaction reverted")

	// ErrNoCode — по адресу контракта нет кода после деплоя.
	ErrNoCode = errors.New("no contract code after deployment")

	// ErrInvalidKey — приватный ключ не разобран.
	ErrInvalidKey = errors.New("invalid private key")
)
