package common

import "errors"

// Общие ошибки уровня хранилища для всех репозиториев
var (
	ErrNotFound            = errors.New("entity not found")
	ErrAlreadyExists       = errors.New("entity already exists")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrStaleState          = errors.New("entity state changed concurrently")
)
