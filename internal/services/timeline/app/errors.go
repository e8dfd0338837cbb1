package app

import (
	"errors"
	"fmt"
	"strings"

	apperrors "github.com/louisbranch/mindchart/internal/platform/errors"
	"github.com/louisbranch/mindchart/internal/services/timeline/storage"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// lookupError maps storage.ErrNotFound to a domain not-found error and
// wraps anything else as a fault.
func lookupError(err error, code apperrors.Code, what, id string) error {
	if errors.Is(err, storage.ErrNotFound) {
		return apperrors.WithMetadata(code, what+" not found", map[string]string{
			strings.ReplaceAll(what, " ", "_") + "_id": id,
		})
	}
	return fmt.Errorf("load %s %s: %w", what, id, err)
}

func missingPatient() error {
	return apperrors.New(apperrors.CodeMissingPatient, "patient id is required")
}

// endSpan records err on span and ends it.
func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		if code := apperrors.CodeOf(err); code != apperrors.CodeUnknown {
			span.SetAttributes(errorCodeAttr(code))
		}
	}
	span.End()
}
