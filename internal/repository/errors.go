package repository

import "errors"

// Сентинели уровня хранилища; сервисы переводят их в свои ошибки.
var (
	ErrEmailExists = errors.New("email already exists")
	ErrNotFound    = errors.New("not found")
)
