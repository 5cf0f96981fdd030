package http

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/Alturino/flowerbelle/internal/log"
	"github.com/Alturino/flowerbelle/internal/otel"
)

// WriteJsonResponse writes body as JSON. The int under "statusCode" becomes
// the HTTP status.
func WriteJsonResponse(
	c context.Context,
	w http.ResponseWriter,
	header map[string]string,
	body map[string]interface{},
) {
	c, span := otel.Tracer.Start(c, "WriteJsonResponse")
	defer span.End()

	logger := zerolog.Ctx(c).With().Str(log.KeyTag, "WriteJsonResponse").Logger()

	w.Header().Set(KEY_HEADER_CONTENT_TYPE, VALUE_HEADER_APPLICATION_JSON)
	for k, v := range header {
		w.Header().Add(k, v)
	}

	if v, ok := body["statusCode"].(int); ok {
		w.WriteHeader(v)
	}

	err := json.NewEncoder(w).Encode(body)
	if err != nil {
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return
	}
}

// WriteFailed writes the failure envelope. notice is the text shown to the
// cashier and is omitted when empty.
func WriteFailed(c context.Context, w http.ResponseWriter, statusCode int, message string, notice string) {
	body := map[string]interface{}{
		"status":     STATUS_FAILED,
		"statusCode": statusCode,
		"message":    message,
	}
	if notice != "" {
		body["notice"] = notice
	}
	WriteJsonResponse(c, w, map[string]string{}, body)
}
