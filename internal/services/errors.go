package services

import "errors"

// Ошибки, видимые клиенту. Формулировки нарочно не различают причины там,
// где различие дало бы атакующему перечислять аккаунты или состояние токена.
var (
	ErrEmailTaken            = errors.New("адрес электронной почты уже зарегистрирован")
	ErrInvalidCredentials    = errors.New("неверный email или пароль")
	ErrInactiveAccount       = errors.New("учётная запись деактивирована")
	ErrInvalidOrRevokedToken = errors.New("неверный или уже отозванный токен")
	ErrInvalidResetToken     = errors.New("неверный, истёкший или уже использованный токен сброса")
	ErrIncorrectOldPassword  = errors.New("текущий пароль неверен")
	ErrPasswordTooShort      = errors.New("пароль должен быть не короче 8 символов")
)
