// internal/types/analysis/errors.go
package analysis

import (
	"errors"
	"fmt"
)

// DataError - ошибка входных данных (пустой/несортированный/некорректный ряд).
// Не ретраится: прерывает этап пайплайна и поднимается вызывающему.
type DataError struct {
	Message string
}

func (e *DataError) Error() string {
	return e.Message
}

// Ошибки входных данных
var (
	ErrEmptySeries     = &DataError{Message: "series is empty"}
	ErrEmptyBaseline   = &DataError{Message: "baseline is empty"}
	ErrUnsortedSeries  = &DataError{Message: "series is not sorted by timestamp"}
	ErrMalformedRecord = &DataError{Message: "malformed record"}
)

// NewDataError создает новую ошибку данных
func NewDataError(format string, args ...interface{}) *DataError {
	return &DataError{
		Message: fmt.Sprintf(format, args...),
	}
}

// WithContext добавляет контекст к ошибке
func (e *DataError) WithContext(context string) *DataError {
	return &DataError{
		Message: fmt.Sprintf("%s: %s", context, e.Message),
	}
}

// IsDataError сообщает, является ли ошибка ошибкой данных
func IsDataError(err error) bool {
	var dataErr *DataError
	return errors.As(err, &dataErr)
}

// LookupError - внутренняя несогласованность при откате по стрику.
// Восстанавливается локально: машина алертов сбрасывается в Inactive,
// пайплайн продолжает работу.
type LookupError struct {
	Message string
}

func (e *LookupError) Error() string {
	return e.Message
}

// Ошибки отката
var (
	ErrLookbackEmpty = &LookupError{Message: "lookback buffer is empty"}
)

// NewLookupError создает новую ошибку отката
func NewLookupError(format string, args ...interface{}) *LookupError {
	return &LookupError{
		Message: fmt.Sprintf(format, args...),
	}
}

// IsLookupError сообщает, является ли ошибка ошибкой отката
func IsLookupError(err error) bool {
	var lookupErr *LookupError
	return errors.As(err, &lookupErr)
}
