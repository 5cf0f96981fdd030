package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/Alturino/flowerbelle/internal/log"
	"github.com/Alturino/flowerbelle/internal/otel"
)

const pathProducts = "/inventory/products"

type Product struct {
	ID           int64           `json:"id"`
	Name         string          `json:"name"`
	SKU          string          `json:"sku"`
	UnitPrice    decimal.Decimal `json:"unit_price"`
	CurrentStock int             `json:"current_stock"`
	ReorderLevel int             `json:"reorder_level"`
	Category     *int64          `json:"category"`
	CategoryName string          `json:"category_name"`
	IsActive     *bool           `json:"is_active"`
	ImageURL     string          `json:"image_url"`
}

// Active treats a missing flag as active; the listing endpoint only returns
// active products unless asked otherwise.
func (p Product) Active() bool {
	return p.IsActive == nil || *p.IsActive
}

type ProductFilter struct {
	Search   string
	Category int64
}

func (f ProductFilter) query() url.Values {
	query := url.Values{}
	if f.Search != "" {
		query.Set("search", f.Search)
	}
	if f.Category > 0 {
		query.Set("category", strconv.FormatInt(f.Category, 10))
	}
	return query
}

func (cl *Client) FindProducts(c context.Context, token string, filter ProductFilter) ([]Product, error) {
	c, span := otel.Tracer.Start(
		c,
		"backend Client FindProducts",
		trace.WithAttributes(
			attribute.String("filter.search", filter.Search),
			attribute.Int64("filter.category", filter.Category),
		),
	)
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "backend Client FindProducts").
		Any(log.KeyFilter, filter).
		Logger()

	logger = logger.With().Str(log.KeyProcess, "finding products").Logger()
	logger.Info().Msg("finding products")
	body, err := cl.read(c, pathProducts, token, filter.query())
	if err != nil {
		err = fmt.Errorf("failed finding products with error=%w", err)
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return nil, err
	}
	logger.Info().Msg("found products")

	logger = logger.With().Str(log.KeyProcess, "decoding products").Logger()
	logger.Trace().Msg("decoding products")
	products, err := decodeList[Product](body)
	if err != nil {
		err = fmt.Errorf("failed decoding products with error=%w", err)
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return nil, err
	}
	logger.Trace().Int("count", len(products)).Msg("decoded products")

	return products, nil
}

func (cl *Client) FindProduct(c context.Context, token string, id int64) (Product, error) {
	c, span := otel.Tracer.Start(c, "backend Client FindProduct", trace.WithAttributes(attribute.Int64(log.KeyProductID, id)))
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "backend Client FindProduct").
		Int64(log.KeyProductID, id).
		Logger()

	logger = logger.With().Str(log.KeyProcess, "finding product").Logger()
	logger.Info().Msgf("finding product by productId=%d", id)
	body, err := cl.read(c, pathProducts+"/"+strconv.FormatInt(id, 10), token, nil)
	if err != nil {
		err = fmt.Errorf("failed finding product by productId=%d with error=%w", id, err)
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return Product{}, err
	}

	product := Product{}
	if err = json.Unmarshal(body, &product); err != nil {
		err = fmt.Errorf("failed decoding product productId=%d with error=%w", id, err)
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return Product{}, err
	}
	logger.Info().Msgf("found product by productId=%d", id)

	return product, nil
}
