package storage

import "errors"

// ErrNotFound возвращается хранилищем, когда запись по id не найдена.
var ErrNotFound = errors.New("record not found")
