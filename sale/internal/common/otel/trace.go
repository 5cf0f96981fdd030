package otel

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/Alturino/flowerbelle/internal/constants"
	inOtel "github.com/Alturino/flowerbelle/internal/otel"
)

var Tracer = otel.Tracer(constants.APP_SALE_SERVICE)

func RecordError(err error, span trace.Span) {
	inOtel.RecordError(err, span)
}
