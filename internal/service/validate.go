package service

import (
	"fmt"
	"strings"
)

const (
	maxFilenameLen = 255
	minIdentityLen = 3
	maxIdentityLen = 64
)

// validateFilename проверяет оригинальное имя файла.
// Разрешены буквы, цифры, точка, дефис и подчёркивание.
func validateFilename(name string) error {
	if name == "" {
		return fmt.Errorf("%w: имя файла не указано", ErrValidation)
	}
	if len(name) > maxFilenameLen {
		return fmt.Errorf("%w: имя файла длиннее %d символов", ErrValidation, maxFilenameLen)
	}
	for _, r := range name {
		if !isFilenameRune(r) {
			return fmt.Errorf("%w: недопустимый символ %q в имени файла", ErrValidation, r)
		}
	}
	// Пути внутри имени запрещены
	if strings.Contains(name, "..") {
		return fmt.Errorf("%w: имя файла не должно содержать '..'", ErrValidation)
	}
	return nil
}

func isFilenameRune(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z':
		return true
	case r >= 'A' && r <= 'Z':
		return true
	case r >= '0' && r <= '9':
		return true
	case r == '.' || r == '-' || r == '_':
		return true
	}
	return false
}

// validateIdentity проверяет идентификатор вызывающей стороны (sub из JWT).
func validateIdentity(identity string) error {
	if len(identity) < minIdentityLen || len(identity) > maxIdentityLen {
		return fmt.Errorf("%w: длина идентификатора должна быть от %d до %d символов",
			ErrValidation, minIdentityLen, maxIdentityLen)
	}
	for _, r := range identity {
		if !isFilenameRune(r) && r != '@' && r != ':' {
			return fmt.Errorf("%w: недопустимый символ %q в идентификаторе", ErrValidation, r)
		}
	}
	return nil
}
