// errors.go — типизированная таксономия ошибок сервисного слоя.
// Все ошибки ядра восстанавливаются на границе сервиса и
// возвращаются вызывающему как типизированный результат;
// наружу не пропагирует ничего, кроме ErrInternal, который
// означает нарушение инварианта и дополнительно логируется.
package service

import "errors"

var (
	// ErrUnauthorized — у вызывающего нет роли, разрешающей операцию
	ErrUnauthorized = errors.New("недостаточно прав")
	// ErrValidation — некорректное имя файла, размер или параметры
	ErrValidation = errors.New("ошибка валидации")
	// ErrNotFound — файл или запись содержимого не найдены
	ErrNotFound = errors.New("не найдено")
	// ErrDuplicateFile — коллизия идентификатора файла.
	// При корректном производстве ID не возникает; появление
	// означает нарушение внутреннего инварианта.
	ErrDuplicateFile = errors.New("дубликат идентификатора файла")
	// ErrLastAdmin — отзыв роли оставил бы систему без Admin
	ErrLastAdmin = errors.New("нельзя отозвать роль у последнего Admin")
	// ErrStorageUnavailable — персистентный слой недоступен
	ErrStorageUnavailable = errors.New("хранилище недоступно")
	// ErrInternal — нарушение инварианта (несовпадение round-trip
	// чанков и подобное); указывает на баг
	ErrInternal = errors.New("внутренняя ошибка")
)
