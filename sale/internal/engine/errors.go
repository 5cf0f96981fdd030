package engine

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrLineNotFound        = errors.New("cart line not found")
	ErrDuplicateSubmission = errors.New("checkout already in progress")
	ErrCheckoutInProgress  = errors.New("cart is locked while checkout is in progress")
)

type StockOperation int

const (
	StockOperationAdd StockOperation = iota
	StockOperationUpdate
)

type StockExceededError struct {
	ProductID int64
	Name      string
	Requested int
	Available int
	Operation StockOperation
}

func (e *StockExceededError) Error() string {
	return fmt.Sprintf(
		"requested quantity=%d of productId=%d exceeds available stock=%d",
		e.Requested,
		e.ProductID,
		e.Available,
	)
}

// Notice is the cashier-facing message.
func (e *StockExceededError) Notice() string {
	if e.Operation == StockOperationUpdate {
		return fmt.Sprintf("Cannot exceed stock limit of %d", e.Available)
	}
	return fmt.Sprintf("Only %d in stock.", e.Available)
}

type InvalidItemError struct {
	ProductID int64
	Reason    string
}

func (e *InvalidItemError) Error() string {
	return fmt.Sprintf("invalid item productId=%d: %s", e.ProductID, e.Reason)
}

type ValidationFailure struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

type ValidationError struct {
	Failures []ValidationFailure
}

func (e *ValidationError) Error() string {
	messages := make([]string, 0, len(e.Failures))
	for _, f := range e.Failures {
		messages = append(messages, f.Field+": "+f.Message)
	}
	return "checkout validation failed: " + strings.Join(messages, ", ")
}

// Notice returns the first failure, matching what the till shows first.
func (e *ValidationError) Notice() string {
	if len(e.Failures) == 0 {
		return "Please complete all required fields."
	}
	return e.Failures[0].Message
}

type SubmissionKind int

const (
	SubmissionClientError SubmissionKind = iota
	SubmissionServerError
	SubmissionNetworkError
)

func (k SubmissionKind) String() string {
	switch k {
	case SubmissionClientError:
		return "client"
	case SubmissionServerError:
		return "server"
	case SubmissionNetworkError:
		return "network"
	default:
		return "unknown"
	}
}

const (
	NoticeSubmissionFailed  = "Failed to complete transaction."
	NoticeServerError       = "Server error. Please try again later."
	NoticeConnectivityError = "Cannot connect to server. Check your internet."
)

// SubmissionRejectedError means the sale was not recorded by the backend.
type SubmissionRejectedError struct {
	Kind        SubmissionKind
	StatusCode  int
	Message     string
	FieldErrors map[string][]string
	Err         error
}

func (e *SubmissionRejectedError) Error() string {
	if e.Kind == SubmissionNetworkError {
		return fmt.Sprintf("checkout submission failed kind=%s with error=%v", e.Kind, e.Err)
	}
	return fmt.Sprintf(
		"checkout submission rejected kind=%s statusCode=%d message=%s",
		e.Kind,
		e.StatusCode,
		e.Message,
	)
}

func (e *SubmissionRejectedError) Unwrap() error {
	return e.Err
}

func (e *SubmissionRejectedError) Notice() string {
	switch e.Kind {
	case SubmissionServerError:
		return NoticeServerError
	case SubmissionNetworkError:
		return NoticeConnectivityError
	default:
		if strings.TrimSpace(e.Message) != "" {
			return e.Message
		}
		return NoticeSubmissionFailed
	}
}

func AsStockExceeded(err error) (*StockExceededError, bool) {
	var target *StockExceededError
	ok := errors.As(err, &target)
	return target, ok
}

func AsValidation(err error) (*ValidationError, bool) {
	var target *ValidationError
	ok := errors.As(err, &target)
	return target, ok
}

func AsSubmissionRejected(err error) (*SubmissionRejectedError, bool) {
	var target *SubmissionRejectedError
	ok := errors.As(err, &target)
	return target, ok
}

func AsInvalidItem(err error) (*InvalidItemError, bool) {
	var target *InvalidItemError
	ok := errors.As(err, &target)
	return target, ok
}
