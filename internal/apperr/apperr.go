// Package apperr holds the error kinds shared by the domain packages and
// their translation to HTTP status codes.
package apperr

import (
	"errors"
	"fmt"
	"log"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

var (
	ErrValidation = errors.New("validation error")
	ErrNotFound   = errors.New("not found")
	ErrConflict   = errors.New("conflict")
)

// Error carries a human readable message on top of one of the kinds above.
type Error struct {
	Kind    error
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Kind
}

func Validation(format string, args ...any) error {
	return &Error{Kind: ErrValidation, Message: fmt.Sprintf(format, args...)}
}

func NotFound(format string, args ...any) error {
	return &Error{Kind: ErrNotFound, Message: fmt.Sprintf(format, args...)}
}

func Conflict(format string, args ...any) error {
	return &Error{Kind: ErrConflict, Message: fmt.Sprintf(format, args...)}
}

// ToFiber maps err to a *fiber.Error. fallback is the message used for
// unexpected errors, which are logged with their cause.
func ToFiber(err error, fallback string) error {
	if err == nil {
		return nil
	}

	var fe *fiber.Error
	if errors.As(err, &fe) {
		return fe
	}

	var ae *Error
	if errors.As(err, &ae) {
		switch {
		case errors.Is(ae.Kind, ErrValidation):
			return fiber.NewError(fiber.StatusBadRequest, ae.Message)
		case errors.Is(ae.Kind, ErrNotFound):
			return fiber.NewError(fiber.StatusNotFound, ae.Message)
		case errors.Is(ae.Kind, ErrConflict):
			return fiber.NewError(fiber.StatusConflict, ae.Message)
		}
	}

	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return fiber.NewError(fiber.StatusNotFound, "Not found.")
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return fiber.NewError(fiber.StatusBadRequest, "A record with this value already exists.")
	case errors.Is(err, gorm.ErrForeignKeyViolated):
		return fiber.NewError(fiber.StatusConflict, "Record is referenced by other records.")
	}

	log.Printf("[ERROR] %s: %v", fallback, err)
	return fiber.NewError(fiber.StatusInternalServerError, fallback)
}

// Lookup turns gorm.ErrRecordNotFound from a single-row fetch into a NotFound
// error with msg; other errors pass through unchanged.
func Lookup(err error, msg string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return NotFound("%s", msg)
	}
	return err
}
