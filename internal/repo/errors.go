package repo

import "errors"

var (
	// ErrNotFound — run или деплой не найден.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists — run с таким ID или результат шага уже записан.
	ErrAlreadyExists = errors.New("already exists")

	// ErrUnavailable — PostgreSQL недоступен или схема не применена.
	ErrUnavailable = errors.New("database unavailable")
)
