package httpapi

import (
	"errors"
	"net/http"
	"strings"

	"github.com/dmitrijs2005/contactkeeper/internal/common"
)

const (
	msgUnverifiedCredentials = "could not validate credentials"
	msgInvalidCredentials    = "incorrect username or password"
	msgAlreadyExists         = "user with such email or username already exists"
	msgTooManyRequests       = "too many login attempts, try again later"
	msgInternal              = "internal server error"
	msgBadRequest            = "malformed request body"
)

// writeServiceError maps service sentinels to HTTP responses.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, common.ErrorUnauthorized):
		writeError(w, http.StatusUnauthorized, msgUnverifiedCredentials)
	case errors.Is(err, common.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, msgInvalidCredentials)
	case errors.Is(err, common.ErrorAlreadyExists):
		writeError(w, http.StatusConflict, msgAlreadyExists)
	case errors.Is(err, common.ErrorValidation):
		writeError(w, http.StatusUnprocessableEntity, validationMessage(err))
	case errors.Is(err, common.ErrTooManyRequests):
		writeError(w, http.StatusTooManyRequests, msgTooManyRequests)
	default:
		writeError(w, http.StatusInternalServerError, msgInternal)
	}
}

func validationMessage(err error) string {
	msg := strings.TrimPrefix(err.Error(), common.ErrorValidation.Error()+": ")
	if msg == "" {
		return common.ErrorValidation.Error()
	}
	return msg
}
