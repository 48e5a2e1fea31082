// Package logger provides structured logging for AeroSense.
package logger

import (
	"errors"
	"log/slog"

	"github.com/yndnr/aerosense-go/internal/core/domain"
)

// replaceAttr expands error values that carry a domain error into a group
// with the error code, so log pipelines can filter on it.
func replaceAttr(groups []string, a slog.Attr) slog.Attr {
	if a.Value.Kind() != slog.KindAny {
		return a
	}
	err, ok := a.Value.Any().(error)
	if !ok || err == nil {
		return a
	}

	var de *domain.DomainError
	if !errors.As(err, &de) {
		return slog.String(a.Key, err.Error())
	}
	return slog.Group(a.Key,
		slog.String("code", de.Code),
		slog.String("msg", err.Error()),
	)
}
