package controller

import (
	"context"
	"errors"
	"net/http"

	"github.com/Alturino/flowerbelle/internal"
	"github.com/Alturino/flowerbelle/internal/backend"
	inErrors "github.com/Alturino/flowerbelle/internal/errors"
	inHttp "github.com/Alturino/flowerbelle/internal/http"
	"github.com/Alturino/flowerbelle/sale/internal/engine"
	"github.com/Alturino/flowerbelle/sale/internal/service"
	"github.com/Alturino/flowerbelle/sale/pkg/response"
)

// writeError answers with the status and cashier notice that match err.
func writeError(c context.Context, w http.ResponseWriter, err error) {
	body := map[string]interface{}{
		"status":  inHttp.STATUS_FAILED,
		"message": err.Error(),
	}
	statusCode := http.StatusInternalServerError
	notice := engine.NoticeServerError

	if stockErr, ok := engine.AsStockExceeded(err); ok {
		statusCode, notice = http.StatusConflict, stockErr.Notice()
	} else if validationErr, ok := engine.AsValidation(err); ok {
		statusCode, notice = http.StatusUnprocessableEntity, validationErr.Notice()
		body["data"] = map[string]interface{}{"failures": response.FailuresFrom(validationErr.Failures)}
	} else if rejected, ok := engine.AsSubmissionRejected(err); ok {
		notice = rejected.Notice()
		switch rejected.Kind {
		case engine.SubmissionNetworkError:
			statusCode = http.StatusServiceUnavailable
		case engine.SubmissionServerError:
			statusCode = http.StatusBadGateway
		default:
			statusCode = rejected.StatusCode
			if statusCode < http.StatusBadRequest || statusCode >= http.StatusInternalServerError {
				statusCode = http.StatusBadRequest
			}
			if len(rejected.FieldErrors) > 0 {
				body["data"] = map[string]interface{}{"field_errors": rejected.FieldErrors}
			}
		}
	} else if invalidErr, ok := engine.AsInvalidItem(err); ok {
		statusCode, notice = http.StatusBadRequest, invalidErr.Reason
	} else if errors.Is(err, engine.ErrDuplicateSubmission) {
		inHttp.WriteJsonResponse(c, w, map[string]string{}, map[string]interface{}{
			"status":     inHttp.STATUS_IGNORED,
			"statusCode": http.StatusAccepted,
			"message":    err.Error(),
		})
		return
	} else if errors.Is(err, engine.ErrCheckoutInProgress) {
		statusCode, notice = http.StatusConflict, "Please wait for the current checkout to finish."
	} else if errors.Is(err, engine.ErrLineNotFound) {
		statusCode, notice = http.StatusNotFound, "Item is not in the cart."
	} else if errors.Is(err, service.ErrProductNotFound) {
		statusCode, notice = http.StatusNotFound, "Product is not available."
	} else if errors.Is(err, engine.ErrUnknownPaymentMethod) {
		statusCode, notice = http.StatusBadRequest, "Payment method is not supported"
	} else if errors.Is(err, inErrors.ErrMissingToken) {
		statusCode, notice = http.StatusUnauthorized, "Session expired. Please log in again."
	} else if respErr, ok := backend.AsResponseError(err); ok {
		statusCode, notice = respErr.StatusCode, respErr.Message
		if statusCode >= http.StatusInternalServerError || statusCode < http.StatusBadRequest {
			statusCode, notice = http.StatusBadGateway, engine.NoticeServerError
		}
	} else if errors.Is(err, backend.ErrUnreachable) {
		statusCode, notice = http.StatusServiceUnavailable, engine.NoticeConnectivityError
	}

	body["statusCode"] = statusCode
	body["notice"] = notice
	inHttp.WriteJsonResponse(c, w, map[string]string{}, body)
}

func staffOf(c context.Context) (internal.Staff, error) {
	return internal.StaffFromContext(c)
}
