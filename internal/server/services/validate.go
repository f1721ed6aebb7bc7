package services

import (
	"fmt"
	"net/mail"
	"unicode/utf8"

	"github.com/dmitrijs2005/contactkeeper/internal/common"
)

const (
	minUsernameLen = 3
	maxUsernameLen = 64
	maxEmailLen    = 254
	minPasswordLen = 6
	maxPasswordLen = 128
)

func validateRegistration(username, email, password string) error {
	if n := utf8.RuneCountInString(username); n < minUsernameLen || n > maxUsernameLen {
		return fmt.Errorf("%w: username must be %d-%d characters", common.ErrorValidation, minUsernameLen, maxUsernameLen)
	}
	for _, r := range username {
		if !isUsernameRune(r) {
			return fmt.Errorf("%w: username may contain only letters, digits, '.', '_' and '-'", common.ErrorValidation)
		}
	}

	if len(email) > maxEmailLen {
		return fmt.Errorf("%w: email is too long", common.ErrorValidation)
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return fmt.Errorf("%w: email is not a valid address", common.ErrorValidation)
	}

	if n := utf8.RuneCountInString(password); n < minPasswordLen || n > maxPasswordLen {
		return fmt.Errorf("%w: password must be %d-%d characters", common.ErrorValidation, minPasswordLen, maxPasswordLen)
	}
	return nil
}

func isUsernameRune(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		return true
	case r == '.', r == '_', r == '-':
		return true
	}
	return false
}
