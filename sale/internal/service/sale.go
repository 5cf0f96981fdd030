package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/Alturino/flowerbelle/internal"
	"github.com/Alturino/flowerbelle/internal/backend"
	"github.com/Alturino/flowerbelle/internal/log"
	"github.com/Alturino/flowerbelle/internal/metrics"
	"github.com/Alturino/flowerbelle/sale/internal/cache"
	"github.com/Alturino/flowerbelle/sale/internal/common/otel"
	"github.com/Alturino/flowerbelle/sale/internal/engine"
	"github.com/Alturino/flowerbelle/sale/pkg/request"
	"github.com/Alturino/flowerbelle/sale/pkg/response"
)

var ErrProductNotFound = errors.New("product not found")

type Backend interface {
	FindProduct(c context.Context, token string, id int64) (backend.Product, error)
	FindProducts(c context.Context, token string, filter backend.ProductFilter) ([]backend.Product, error)
	FindCategories(c context.Context, token string) ([]backend.Category, error)
	CreateTransaction(c context.Context, token string, req backend.TransactionRequest) (backend.Transaction, error)
	FindTransaction(c context.Context, token string, id int64) (backend.Transaction, error)
	VoidTransaction(c context.Context, token string, id int64, reason string) (backend.Transaction, error)
}

// SaleService holds one sale session per staff member. Sessions live in
// memory only and are never shared between staff members.
type SaleService struct {
	backend  Backend
	catalog  cache.CatalogCache
	journal  cache.ReceiptJournal
	mu       sync.Mutex
	sessions map[string]*engine.Session
}

func NewSaleService(backend Backend, catalog cache.CatalogCache, journal cache.ReceiptJournal) *SaleService {
	return &SaleService{
		backend:  backend,
		catalog:  catalog,
		journal:  journal,
		sessions: map[string]*engine.Session{},
	}
}

func (svc *SaleService) session(staff internal.Staff) *engine.Session {
	svc.mu.Lock()
	defer svc.mu.Unlock()
	session, ok := svc.sessions[staff.UserID]
	if !ok {
		session = engine.NewSession(backendSubmitter{backend: svc.backend})
		svc.sessions[staff.UserID] = session
		metrics.ActiveSessions.Set(float64(len(svc.sessions)))
	}
	return session
}

func saleOf(session *engine.Session) response.Sale {
	snapshot := session.Snapshot()
	return response.SaleFrom(snapshot.Lines, snapshot.Totals, snapshot.State)
}

func mutationOutcome(err error) string {
	if err == nil {
		return metrics.OutcomeSuccess
	}
	if _, ok := engine.AsStockExceeded(err); ok {
		return metrics.OutcomeStockFull
	}
	if errors.Is(err, engine.ErrLineNotFound) || errors.Is(err, ErrProductNotFound) {
		return metrics.OutcomeNotFound
	}
	if _, ok := engine.AsInvalidItem(err); ok {
		return metrics.OutcomeInvalid
	}
	return metrics.OutcomeFailed
}

func (svc *SaleService) FindSale(c context.Context, staff internal.Staff) response.Sale {
	_, span := otel.Tracer.Start(c, "SaleService FindSale")
	defer span.End()

	return saleOf(svc.session(staff))
}

func (svc *SaleService) AddItem(c context.Context, staff internal.Staff, req request.AddItem) (response.Sale, error) {
	c, span := otel.Tracer.Start(
		c,
		"SaleService AddItem",
		trace.WithAttributes(attribute.Int64(log.KeyProductID, req.ProductID)),
	)
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "SaleService AddItem").
		Str(log.KeyUserID, staff.UserID).
		Int64(log.KeyProductID, req.ProductID).
		Int(log.KeyQuantity, req.RequestedQuantity()).
		Logger()

	session := svc.session(staff)
	var err error
	defer func() {
		metrics.CartMutationTotal.WithLabelValues(metrics.OperationAdd, mutationOutcome(err)).Inc()
	}()

	logger = logger.With().Str(log.KeyProcess, "finding product").Logger()
	logger.Info().Msgf("finding product by productId=%d", req.ProductID)
	c = logger.WithContext(c)
	product, err := svc.backend.FindProduct(c, staff.Token, req.ProductID)
	if err != nil {
		if backend.IsNotFound(err) {
			err = errors.Join(ErrProductNotFound, err)
		}
		err = fmt.Errorf("failed finding product by productId=%d with error=%w", req.ProductID, err)
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.Sale{}, err
	}
	if !product.Active() {
		err = fmt.Errorf("failed adding inactive productId=%d with error=%w", req.ProductID, ErrProductNotFound)
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.Sale{}, err
	}
	logger.Info().Msgf("found product by productId=%d", req.ProductID)

	logger = logger.With().Str(log.KeyProcess, "adding item to cart").Logger()
	logger.Info().Msg("adding item to cart")
	line, err := session.AddItem(engine.ProductSnapshot{
		ProductID:      product.ID,
		Name:           product.Name,
		UnitPrice:      product.UnitPrice,
		StockAvailable: product.CurrentStock,
	}, req.RequestedQuantity())
	if err != nil {
		err = fmt.Errorf("failed adding item to cart with error=%w", err)
		otel.RecordError(err, span)
		logger.Warn().Err(err).Msg(err.Error())
		return response.Sale{}, err
	}
	logger.Info().Int(log.KeyQuantity, line.Quantity).Msg("added item to cart")

	return saleOf(session), nil
}

func (svc *SaleService) UpdateQuantity(
	c context.Context,
	staff internal.Staff,
	productID int64,
	req request.UpdateQuantity,
) (response.Sale, error) {
	c, span := otel.Tracer.Start(c, "SaleService UpdateQuantity")
	defer span.End()

	quantity := 0
	if req.Quantity != nil {
		quantity = *req.Quantity
	}
	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "SaleService UpdateQuantity").
		Str(log.KeyUserID, staff.UserID).
		Int64(log.KeyProductID, productID).
		Int(log.KeyQuantity, quantity).
		Str(log.KeyProcess, "updating quantity").
		Logger()

	session := svc.session(staff)
	logger.Info().Msg("updating quantity")
	_, err := session.UpdateQuantity(productID, quantity)
	metrics.CartMutationTotal.WithLabelValues(metrics.OperationUpdate, mutationOutcome(err)).Inc()
	if err != nil {
		err = fmt.Errorf("failed updating quantity of productId=%d with error=%w", productID, err)
		otel.RecordError(err, span)
		logger.Warn().Err(err).Msg(err.Error())
		return response.Sale{}, err
	}
	logger.Info().Msg("updated quantity")

	return saleOf(session), nil
}

func (svc *SaleService) RemoveItem(c context.Context, staff internal.Staff, productID int64) (response.Sale, error) {
	c, span := otel.Tracer.Start(c, "SaleService RemoveItem")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "SaleService RemoveItem").
		Str(log.KeyUserID, staff.UserID).
		Int64(log.KeyProductID, productID).
		Str(log.KeyProcess, "removing item").
		Logger()

	session := svc.session(staff)
	logger.Info().Msg("removing item")
	removed, err := session.RemoveItem(productID)
	metrics.CartMutationTotal.WithLabelValues(metrics.OperationRemove, mutationOutcome(err)).Inc()
	if err != nil {
		err = fmt.Errorf("failed removing productId=%d with error=%w", productID, err)
		otel.RecordError(err, span)
		logger.Warn().Err(err).Msg(err.Error())
		return response.Sale{}, err
	}
	logger.Info().Bool("removed", removed).Msg("removed item")

	return saleOf(session), nil
}

func (svc *SaleService) ClearSale(c context.Context, staff internal.Staff) (response.Sale, error) {
	c, span := otel.Tracer.Start(c, "SaleService ClearSale")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "SaleService ClearSale").
		Str(log.KeyUserID, staff.UserID).
		Str(log.KeyProcess, "clearing cart").
		Logger()

	session := svc.session(staff)
	logger.Info().Msg("clearing cart")
	err := session.Clear()
	metrics.CartMutationTotal.WithLabelValues(metrics.OperationClear, mutationOutcome(err)).Inc()
	if err != nil {
		err = fmt.Errorf("failed clearing cart with error=%w", err)
		otel.RecordError(err, span)
		logger.Warn().Err(err).Msg(err.Error())
		return response.Sale{}, err
	}
	logger.Info().Msg("cleared cart")

	return saleOf(session), nil
}

func (svc *SaleService) ValidateCheckout(
	c context.Context,
	staff internal.Staff,
	req request.Checkout,
) (response.Validation, error) {
	c, span := otel.Tracer.Start(c, "SaleService ValidateCheckout")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "SaleService ValidateCheckout").
		Str(log.KeyUserID, staff.UserID).
		Str(log.KeyPaymentMethod, req.PaymentMethod).
		Str(log.KeyProcess, "validating checkout").
		Logger()

	input, err := req.Input()
	if err != nil {
		err = fmt.Errorf("failed parsing checkout input with error=%w", err)
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.Validation{}, err
	}

	logger.Debug().Msg("validating checkout")
	result := svc.session(staff).Validate(input)
	logger.Debug().Bool("valid", result.Valid).Msg("validated checkout")

	return response.ValidationFrom(result), nil
}

func checkoutOutcome(err error) string {
	if err == nil {
		return metrics.OutcomeSuccess
	}
	if errors.Is(err, engine.ErrDuplicateSubmission) {
		return metrics.OutcomeIgnored
	}
	if _, ok := engine.AsValidation(err); ok {
		return metrics.OutcomeInvalid
	}
	if rejected, ok := engine.AsSubmissionRejected(err); ok {
		switch rejected.Kind {
		case engine.SubmissionNetworkError:
			return metrics.OutcomeNetwork
		case engine.SubmissionServerError:
			return metrics.OutcomeServer
		default:
			return metrics.OutcomeRejected
		}
	}
	return metrics.OutcomeFailed
}

// Checkout submits the current sale. A successful sale invalidates cached
// catalog listings and is recorded in the receipt journal; failures of
// either are logged and do not fail the sale.
func (svc *SaleService) Checkout(c context.Context, staff internal.Staff, req request.Checkout) (response.Receipt, error) {
	c, span := otel.Tracer.Start(
		c,
		"SaleService Checkout",
		trace.WithAttributes(attribute.String(log.KeyPaymentMethod, req.PaymentMethod)),
	)
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "SaleService Checkout").
		Str(log.KeyUserID, staff.UserID).
		Str(log.KeyPaymentMethod, req.PaymentMethod).
		Logger()

	var err error
	defer func() {
		metrics.CheckoutTotal.WithLabelValues(checkoutOutcome(err)).Inc()
	}()

	logger = logger.With().Str(log.KeyProcess, "parsing checkout input").Logger()
	input, err := req.Input()
	if err != nil {
		err = fmt.Errorf("failed parsing checkout input with error=%w", err)
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.Receipt{}, err
	}

	logger = logger.With().Str(log.KeyProcess, "submitting checkout").Logger()
	logger.Info().Msg("submitting checkout")
	// a disconnecting client must not abort a sale the backend may already have recorded
	c = internal.AttachStaff(logger.WithContext(context.WithoutCancel(c)), staff)
	start := time.Now()
	receipt, err := svc.session(staff).Checkout(c, input)
	if errors.Is(err, engine.ErrDuplicateSubmission) {
		logger.Info().Msg("ignored duplicate checkout")
		return response.Receipt{}, err
	}
	metrics.CheckoutDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		err = fmt.Errorf("failed submitting checkout with error=%w", err)
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.Receipt{}, err
	}
	receiptResponse := response.ReceiptFrom(receipt)
	logger = logger.With().
		Int64(log.KeyTransactionID, receipt.TransactionID).
		Str(log.KeyTotals, receiptResponse.Total).
		Logger()
	logger.Info().Msgf("submitted checkout transaction=%s", receiptResponse.Label())

	logger = logger.With().Str(log.KeyProcess, "invalidating catalog").Logger()
	if _, cacheErr := svc.catalog.Invalidate(c); cacheErr != nil {
		logger.Warn().Err(cacheErr).Msg("failed invalidating catalog after checkout")
	}

	logger = logger.With().Str(log.KeyProcess, "recording receipt").Logger()
	if journalErr := svc.journal.Append(c, staff.UserID, receiptResponse); journalErr != nil {
		logger.Warn().Err(journalErr).Msg("failed recording receipt after checkout")
	}

	return receiptResponse, nil
}

func (svc *SaleService) RecentReceipts(c context.Context, staff internal.Staff, limit int64) ([]response.Receipt, error) {
	c, span := otel.Tracer.Start(c, "SaleService RecentReceipts")
	defer span.End()

	receipts, err := svc.journal.Recent(c, staff.UserID, limit)
	if err != nil {
		err = fmt.Errorf("failed reading recent receipts with error=%w", err)
		otel.RecordError(err, span)
		zerolog.Ctx(c).Error().Str(log.KeyTag, "SaleService RecentReceipts").Err(err).Msg(err.Error())
		return nil, err
	}
	return receipts, nil
}
