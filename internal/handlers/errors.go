package handlers

import (
	"errors"
	"net/http"

	"shopora_back_end/internal/commerce"
)

// ErrorStatus mappe les erreurs du moteur vers les codes HTTP.
func ErrorStatus(err error) int {
	switch {
	case errors.Is(err, commerce.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, commerce.ErrInvalidArgument):
		return http.StatusBadRequest
	case errors.Is(err, commerce.ErrInsufficientStock):
		return http.StatusConflict
	case errors.Is(err, commerce.ErrInvalidTransition):
		return http.StatusUnprocessableEntity
	case errors.Is(err, commerce.ErrEmptyBasket):
		return http.StatusUnprocessableEntity
	case errors.Is(err, commerce.ErrBasketNotActive):
		return http.StatusConflict
	case errors.Is(err, commerce.ErrConflict):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}
