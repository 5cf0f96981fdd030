package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/Alturino/flowerbelle/internal/log"
	"github.com/Alturino/flowerbelle/sale/internal/common/otel"
	"github.com/Alturino/flowerbelle/sale/pkg/response"
)

// CatalogCache keeps short-lived product and category listings. Every key
// embeds the catalog generation, so bumping the generation after a sale
// orphans all listings at once and lets their TTL reclaim them.
type CatalogCache struct {
	client redis.Cmdable
	ttl    time.Duration
}

func NewCatalogCache(client redis.Cmdable, ttl time.Duration) CatalogCache {
	return CatalogCache{client: client, ttl: ttl}
}

func (cc CatalogCache) Generation(c context.Context) (int64, error) {
	generation, err := cc.client.Get(c, KEY_CATALOG_GENERATION).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed getting catalog generation with error=%w", err)
	}
	return generation, nil
}

// Invalidate bumps the generation and returns the new one.
func (cc CatalogCache) Invalidate(c context.Context) (int64, error) {
	c, span := otel.Tracer.Start(c, "CatalogCache Invalidate")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "CatalogCache Invalidate").
		Str(log.KeyProcess, "bumping catalog generation").
		Logger()

	logger.Debug().Msg("bumping catalog generation")
	generation, err := cc.client.Incr(c, KEY_CATALOG_GENERATION).Result()
	if err != nil {
		err = fmt.Errorf("failed bumping catalog generation with error=%w", err)
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return 0, err
	}
	logger.Debug().Int64(log.KeyGeneration, generation).Msg("bumped catalog generation")

	return generation, nil
}

func normalizeSearch(search string) string {
	return strings.ToLower(strings.TrimSpace(search))
}

func (cc CatalogCache) productsKey(c context.Context, category int64, search string) (string, error) {
	generation, err := cc.Generation(c)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf(KEY_CATALOG_PRODUCTS, generation, category, normalizeSearch(search)), nil
}

func (cc CatalogCache) categoriesKey(c context.Context) (string, error) {
	generation, err := cc.Generation(c)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf(KEY_CATALOG_CATEGORIES, generation), nil
}

func (cc CatalogCache) FindProducts(c context.Context, category int64, search string) ([]response.Product, bool, error) {
	c, span := otel.Tracer.Start(c, "CatalogCache FindProducts")
	defer span.End()

	key, err := cc.productsKey(c, category, search)
	if err != nil {
		otel.RecordError(err, span)
		return nil, false, err
	}
	products := []response.Product{}
	found, err := cc.getJSON(c, key, &products)
	if err != nil {
		otel.RecordError(err, span)
		return nil, false, err
	}
	return products, found, nil
}

func (cc CatalogCache) SetProducts(c context.Context, category int64, search string, products []response.Product) error {
	c, span := otel.Tracer.Start(c, "CatalogCache SetProducts")
	defer span.End()

	key, err := cc.productsKey(c, category, search)
	if err != nil {
		otel.RecordError(err, span)
		return err
	}
	if err = cc.setJSON(c, key, products); err != nil {
		otel.RecordError(err, span)
		return err
	}
	return nil
}

func (cc CatalogCache) FindCategories(c context.Context) ([]response.Category, bool, error) {
	c, span := otel.Tracer.Start(c, "CatalogCache FindCategories")
	defer span.End()

	key, err := cc.categoriesKey(c)
	if err != nil {
		otel.RecordError(err, span)
		return nil, false, err
	}
	categories := []response.Category{}
	found, err := cc.getJSON(c, key, &categories)
	if err != nil {
		otel.RecordError(err, span)
		return nil, false, err
	}
	return categories, found, nil
}

func (cc CatalogCache) SetCategories(c context.Context, categories []response.Category) error {
	c, span := otel.Tracer.Start(c, "CatalogCache SetCategories")
	defer span.End()

	key, err := cc.categoriesKey(c)
	if err != nil {
		otel.RecordError(err, span)
		return err
	}
	if err = cc.setJSON(c, key, categories); err != nil {
		otel.RecordError(err, span)
		return err
	}
	return nil
}

func (cc CatalogCache) getJSON(c context.Context, key string, dst interface{}) (bool, error) {
	logger := zerolog.Ctx(c).With().Str(log.KeyTag, "CatalogCache getJSON").Str(log.KeyCacheKey, key).Logger()

	logger.Trace().Msg("getting cached listing")
	raw, err := cc.client.Get(c, key).Bytes()
	if errors.Is(err, redis.Nil) {
		logger.Trace().Msg("cache miss")
		return false, nil
	}
	if err != nil {
		err = fmt.Errorf("failed getting key=%s with error=%w", key, err)
		logger.Error().Err(err).Msg(err.Error())
		return false, err
	}
	if err = json.Unmarshal(raw, dst); err != nil {
		err = fmt.Errorf("failed decoding key=%s with error=%w", key, err)
		logger.Error().Err(err).Msg(err.Error())
		return false, err
	}
	logger.Trace().Msg("cache hit")
	return true, nil
}

func (cc CatalogCache) setJSON(c context.Context, key string, value interface{}) error {
	logger := zerolog.Ctx(c).With().Str(log.KeyTag, "CatalogCache setJSON").Str(log.KeyCacheKey, key).Logger()

	raw, err := json.Marshal(value)
	if err != nil {
		err = fmt.Errorf("failed encoding key=%s with error=%w", key, err)
		logger.Error().Err(err).Msg(err.Error())
		return err
	}
	logger.Trace().Msg("caching listing")
	if err = cc.client.Set(c, key, raw, cc.ttl).Err(); err != nil {
		err = fmt.Errorf("failed setting key=%s with error=%w", key, err)
		logger.Error().Err(err).Msg(err.Error())
		return err
	}
	logger.Trace().Msg("cached listing")
	return nil
}
