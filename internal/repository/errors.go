package repository

import "errors"

// Ошибки-сентинелы хранилища. Обработчики распознают их через errors.Is
// и превращают в соответствующий HTTP-статус.
var ErrNotFound = errors.New("задача не найдена")
var ErrVersionConflict = errors.New("конфликт версий")
