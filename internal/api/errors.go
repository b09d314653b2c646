package api

import (
	"errors"
	"net/http"

	"github.com/j-emberton/HXforge/internal/hxerr"
	"github.com/labstack/echo/v4"
)

var errUnknownSession = errors.New("unknown session")

// httpError maps the engine taxonomy onto status codes.
func httpError(err error) error {
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he
	}

	code := http.StatusInternalServerError
	switch {
	case errors.Is(err, errUnknownSession), errors.Is(err, hxerr.ErrResourceNotFound):
		code = http.StatusNotFound
	case errors.Is(err, hxerr.ErrInvalidInput):
		code = http.StatusBadRequest
	case errors.Is(err, hxerr.ErrOutOfRange), errors.Is(err, hxerr.ErrInsufficientData):
		code = http.StatusUnprocessableEntity
	case errors.Is(err, hxerr.ErrUninitialized):
		code = http.StatusConflict
	}
	return echo.NewHTTPError(code, err.Error()).SetInternal(err)
}
