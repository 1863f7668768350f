package user

import (
	"errors"
	"fmt"
	"strings"
)

const passwordMinimumLength = 8

var (
	ErrPasswordTooShort           = fmt.Errorf("password should be at least %d characters", passwordMinimumLength)
	ErrPasswordNotAlphanumeric    = errors.New("password must contain both letters and digits")
	ErrPasswordNoSpecialCharacter = errors.New("password must contain a special character")
)

func CheckPassword(password string) error {
	if len(password) < passwordMinimumLength {
		return ErrPasswordTooShort
	}
	if !checkAlphanumeric(password) {
		return ErrPasswordNotAlphanumeric
	}
	if !checkSpecialCharacter(password) {
		return ErrPasswordNoSpecialCharacter
	}
	return nil
}

func checkAlphanumeric(password string) bool {
	hasLetter := false
	hasDigit := false
	for _, c := range password {
		if ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z') {
			hasLetter = true
		}
		if '0' <= c && c <= '9' {
			hasDigit = true
		}
	}
	return hasLetter && hasDigit
}

func checkSpecialCharacter(password string) bool {
	const special = "!@#$%^&*()-_=+[]{}|;:'\",.<>?/`~"
	for _, c := range password {
		if strings.ContainsRune(special, c) {
			return true
		}
	}
	return false
}
