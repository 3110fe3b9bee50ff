// Пакет hash — детерминированное хэширование содержимого и
// производство идентификаторов файлов.
// Дайджест — SHA-256 в hex, ключ дедупликации ContentStore.
// FileID — хэш от дайджеста и дизамбигуатора загрузки, поэтому
// повторные загрузки одного содержимого получают разные ID,
// разделяя одну запись содержимого.
package hash

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"

	"github.com/google/uuid"
)

// ErrEmptyInput — пустое содержимое не хэшируется и не хранится.
var ErrEmptyInput = errors.New("пустое содержимое не допускается")

// Digest вычисляет SHA-256 хэш содержимого в hex-кодировке.
// Возвращает ошибку для пустого входа.
func Digest(data []byte) (string, error) {
	if len(data) == 0 {
		return "", ErrEmptyInput
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}

// FileID производит стабильный идентификатор файла из дайджеста
// содержимого и дизамбигуатора: SHA-256 от конкатенации
// "digest:disambiguator" в hex.
func FileID(digest, disambiguator string) (string, error) {
	if digest == "" {
		return "", ErrEmptyInput
	}
	sum := sha256.Sum256([]byte(digest + ":" + disambiguator))
	return hex.EncodeToString(sum[:]), nil
}

// NewDisambiguator возвращает уникальный дизамбигуатор загрузки (UUID v4).
// UUID вместо таймштампа: две загрузки в одну и ту же секунду
// обязаны получить разные идентификаторы.
func NewDisambiguator() string {
	return uuid.New().String()
}
