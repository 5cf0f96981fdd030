package backend

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/Alturino/flowerbelle/internal/log"
	"github.com/Alturino/flowerbelle/internal/otel"
)

const pathCategories = "/inventory/categories"

type Category struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

func (cl *Client) FindCategories(c context.Context, token string) ([]Category, error) {
	c, span := otel.Tracer.Start(c, "backend Client FindCategories")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "backend Client FindCategories").
		Str(log.KeyProcess, "finding categories").
		Logger()

	logger.Info().Msg("finding categories")
	body, err := cl.read(c, pathCategories, token, nil)
	if err != nil {
		err = fmt.Errorf("failed finding categories with error=%w", err)
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return nil, err
	}

	categories, err := decodeList[Category](body)
	if err != nil {
		err = fmt.Errorf("failed decoding categories with error=%w", err)
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return nil, err
	}
	logger.Info().Msg("found categories")

	return categories, nil
}
