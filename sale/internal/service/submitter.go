package service

import (
	"context"
	"net/http"

	"github.com/Alturino/flowerbelle/internal"
	"github.com/Alturino/flowerbelle/internal/backend"
	"github.com/Alturino/flowerbelle/sale/internal/engine"
)

// backendSubmitter posts a sale with the token of the staff member found in
// the context and turns every failure into a SubmissionRejectedError.
type backendSubmitter struct {
	backend Backend
}

func (s backendSubmitter) Submit(c context.Context, req engine.CheckoutRequest) (engine.SubmissionResult, error) {
	staff, err := internal.StaffFromContext(c)
	if err != nil {
		return engine.SubmissionResult{}, &engine.SubmissionRejectedError{
			Kind:       engine.SubmissionClientError,
			StatusCode: http.StatusUnauthorized,
			Message:    "Session expired. Please log in again.",
			Err:        err,
		}
	}

	transaction, err := s.backend.CreateTransaction(c, staff.Token, transactionRequestFrom(req))
	if err != nil {
		return engine.SubmissionResult{}, rejectionFrom(err)
	}
	return engine.SubmissionResult{
		TransactionID:     transaction.ID,
		TransactionNumber: transaction.TransactionNumber,
	}, nil
}

func rejectionFrom(err error) *engine.SubmissionRejectedError {
	respErr, ok := backend.AsResponseError(err)
	if !ok {
		return &engine.SubmissionRejectedError{Kind: engine.SubmissionNetworkError, Err: err}
	}
	kind := engine.SubmissionClientError
	if respErr.StatusCode >= http.StatusInternalServerError {
		kind = engine.SubmissionServerError
	}
	return &engine.SubmissionRejectedError{
		Kind:        kind,
		StatusCode:  respErr.StatusCode,
		Message:     respErr.Message,
		FieldErrors: respErr.FieldErrors,
		Err:         err,
	}
}

func transactionRequestFrom(req engine.CheckoutRequest) backend.TransactionRequest {
	items := make([]backend.TransactionItemRequest, len(req.Items))
	for i, item := range req.Items {
		items[i] = backend.TransactionItemRequest{
			Product:   item.ProductID,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
			Discount:  item.LineDiscount,
		}
	}
	return backend.TransactionRequest{
		Items:            items,
		PaymentMethod:    req.PaymentMethod.String(),
		AmountPaid:       req.AmountTendered,
		PaymentReference: req.PaymentReference,
		CustomerName:     req.Customer.Name,
		CustomerPhone:    req.Customer.Phone,
		CustomerEmail:    req.Customer.Email,
		Notes:            req.Customer.Notes,
		Subtotal:         req.Subtotal,
		Tax:              req.Tax,
		TotalAmount:      req.Total,
		Discount:         req.Discount,
	}
}
