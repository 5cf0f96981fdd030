package engine

import (
	"context"
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

type State int

const (
	StateIdle State = iota
	StateValidating
	StateSubmitting
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateValidating:
		return "validating"
	case StateSubmitting:
		return "submitting"
	default:
		return "unknown"
	}
}

// SubmissionResult identifies the sale recorded by the backend.
type SubmissionResult struct {
	TransactionID     int64
	TransactionNumber string
}

type Submitter interface {
	Submit(c context.Context, req CheckoutRequest) (SubmissionResult, error)
}

type SubmitterFunc func(c context.Context, req CheckoutRequest) (SubmissionResult, error)

func (f SubmitterFunc) Submit(c context.Context, req CheckoutRequest) (SubmissionResult, error) {
	return f(c, req)
}

type Receipt struct {
	TransactionID     int64
	TransactionNumber string
	PaymentMethod     PaymentMethod
	ItemCount         int
	Subtotal          decimal.Decimal
	Tax               decimal.Decimal
	Total             decimal.Decimal
	AmountTendered    decimal.Decimal
	Change            decimal.Decimal
	CompletedAt       time.Time
}

// Session is one staff member's active sale. Checkout runs the submitter
// without holding the lock; while it is in flight further checkouts return
// ErrDuplicateSubmission and cart mutations return ErrCheckoutInProgress.
type Session struct {
	mu        sync.Mutex
	cart      *Cart
	state     State
	lastErr   error
	submitter Submitter
	now       func() time.Time
}

func NewSession(submitter Submitter) *Session {
	return &Session{
		cart:      NewCart(),
		state:     StateIdle,
		submitter: submitter,
		now:       time.Now,
	}
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) Submitting() bool {
	return s.State() == StateSubmitting
}

// LastError is the error of the most recent failed checkout, cleared by a
// successful one.
func (s *Session) LastError() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

func (s *Session) Lines() []CartLine {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cart.Lines()
}

func (s *Session) Totals() Totals {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cart.Totals()
}

// Snapshot is a consistent view of the sale taken under one lock.
type Snapshot struct {
	Lines  []CartLine
	Totals Totals
	State  State
}

func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	lines := s.cart.Lines()
	return Snapshot{Lines: lines, Totals: ComputeTotals(lines), State: s.state}
}

func (s *Session) AddItem(product ProductSnapshot, requestedQuantity int) (CartLine, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateSubmitting {
		return CartLine{}, ErrCheckoutInProgress
	}
	return s.cart.AddItem(product, requestedQuantity)
}

func (s *Session) UpdateQuantity(productID int64, newQuantity int) (CartLine, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateSubmitting {
		return CartLine{}, ErrCheckoutInProgress
	}
	return s.cart.UpdateQuantity(productID, newQuantity)
}

func (s *Session) RemoveItem(productID int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateSubmitting {
		return false, ErrCheckoutInProgress
	}
	return s.cart.RemoveItem(productID), nil
}

func (s *Session) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateSubmitting {
		return ErrCheckoutInProgress
	}
	s.cart.Clear()
	return nil
}

func (s *Session) Validate(input CheckoutInput) ValidationResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	return ValidateCheckout(s.cart.Lines(), input)
}

// Checkout validates, builds and submits the current cart. The cart is
// cleared only when the submitter succeeds.
func (s *Session) Checkout(c context.Context, input CheckoutInput) (Receipt, error) {
	s.mu.Lock()
	if s.state == StateSubmitting {
		s.mu.Unlock()
		return Receipt{}, ErrDuplicateSubmission
	}
	s.state = StateValidating
	req, err := BuildCheckoutRequest(s.cart.Lines(), input)
	if err != nil {
		s.state = StateIdle
		s.lastErr = err
		s.mu.Unlock()
		return Receipt{}, err
	}
	s.state = StateSubmitting
	s.mu.Unlock()

	finished := false
	defer func() {
		if !finished {
			s.mu.Lock()
			s.state = StateIdle
			s.mu.Unlock()
		}
	}()

	result, err := s.submitter.Submit(c, req)

	s.mu.Lock()
	defer s.mu.Unlock()
	finished = true
	s.state = StateIdle
	if err != nil {
		s.lastErr = err
		return Receipt{}, err
	}
	s.cart.Clear()
	s.lastErr = nil

	return Receipt{
		TransactionID:     result.TransactionID,
		TransactionNumber: result.TransactionNumber,
		PaymentMethod:     req.PaymentMethod,
		ItemCount:         len(req.Items),
		Subtotal:          req.Subtotal,
		Tax:               req.Tax,
		Total:             req.Total,
		AmountTendered:    req.AmountTendered,
		Change:            req.Change,
		CompletedAt:       s.now(),
	}, nil
}
