package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/Alturino/flowerbelle/internal"
	"github.com/Alturino/flowerbelle/internal/backend"
	"github.com/Alturino/flowerbelle/internal/log"
	"github.com/Alturino/flowerbelle/sale/internal/common/otel"
	"github.com/Alturino/flowerbelle/sale/pkg/response"
)

// ListProducts serves the sellable catalog. A cache failure falls through
// to the backend.
func (svc *SaleService) ListProducts(
	c context.Context,
	staff internal.Staff,
	filter backend.ProductFilter,
) ([]response.Product, error) {
	c, span := otel.Tracer.Start(c, "SaleService ListProducts")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "SaleService ListProducts").
		Any(log.KeyFilter, filter).
		Logger()

	logger = logger.With().Str(log.KeyProcess, "finding products in cache").Logger()
	logger.Debug().Msg("finding products in cache")
	c = logger.WithContext(c)
	products, found, err := svc.catalog.FindProducts(c, filter.Category, filter.Search)
	if err != nil {
		logger.Warn().Err(err).Msg("failed finding products in cache")
	}
	if found {
		logger.Debug().Msg("found products in cache")
		return products, nil
	}

	logger = logger.With().Str(log.KeyProcess, "finding products in backend").Logger()
	logger.Info().Msg("finding products in backend")
	c = logger.WithContext(c)
	fetched, err := svc.backend.FindProducts(c, staff.Token, filter)
	if err != nil {
		err = fmt.Errorf("failed finding products with error=%w", err)
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return nil, err
	}
	products = response.SellableProducts(fetched)
	logger.Info().Int("count", len(products)).Msg("found products in backend")

	if err = svc.catalog.SetProducts(c, filter.Category, filter.Search, products); err != nil {
		logger.Warn().Err(err).Msg("failed caching products")
	}

	return products, nil
}

func (svc *SaleService) ListCategories(c context.Context, staff internal.Staff) ([]response.Category, error) {
	c, span := otel.Tracer.Start(c, "SaleService ListCategories")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "SaleService ListCategories").
		Logger()

	c = logger.WithContext(c)
	categories, found, err := svc.catalog.FindCategories(c)
	if err != nil {
		logger.Warn().Err(err).Msg("failed finding categories in cache")
	}
	if found {
		return categories, nil
	}

	logger = logger.With().Str(log.KeyProcess, "finding categories in backend").Logger()
	logger.Info().Msg("finding categories in backend")
	fetched, err := svc.backend.FindCategories(c, staff.Token)
	if err != nil {
		err = fmt.Errorf("failed finding categories with error=%w", err)
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return nil, err
	}
	categories = response.CategoriesFrom(fetched)
	logger.Info().Msg("found categories in backend")

	if err = svc.catalog.SetCategories(c, categories); err != nil {
		logger.Warn().Err(err).Msg("failed caching categories")
	}

	return categories, nil
}

func (svc *SaleService) FindTransaction(c context.Context, staff internal.Staff, id int64) (backend.Transaction, error) {
	c, span := otel.Tracer.Start(c, "SaleService FindTransaction")
	defer span.End()

	transaction, err := svc.backend.FindTransaction(c, staff.Token, id)
	if err != nil {
		err = fmt.Errorf("failed finding transaction by transactionId=%d with error=%w", id, err)
		otel.RecordError(err, span)
		zerolog.Ctx(c).Error().Str(log.KeyTag, "SaleService FindTransaction").Err(err).Msg(err.Error())
		return backend.Transaction{}, err
	}
	return transaction, nil
}

// VoidTransaction voids a completed sale. The backend restores stock, so
// cached listings are invalidated as after a checkout.
func (svc *SaleService) VoidTransaction(
	c context.Context,
	staff internal.Staff,
	id int64,
	reason string,
) (backend.Transaction, error) {
	c, span := otel.Tracer.Start(c, "SaleService VoidTransaction")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "SaleService VoidTransaction").
		Str(log.KeyUserID, staff.UserID).
		Int64(log.KeyTransactionID, id).
		Str(log.KeyProcess, "voiding transaction").
		Logger()

	logger.Info().Msg("voiding transaction")
	c = logger.WithContext(c)
	transaction, err := svc.backend.VoidTransaction(c, staff.Token, id, reason)
	if err != nil {
		err = fmt.Errorf("failed voiding transaction by transactionId=%d with error=%w", id, err)
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return backend.Transaction{}, err
	}
	logger.Info().Msg("voided transaction")

	if _, err = svc.catalog.Invalidate(c); err != nil {
		logger.Warn().Err(err).Msg("failed invalidating catalog after void")
	}

	return transaction, nil
}
