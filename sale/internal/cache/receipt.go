package cache

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/Alturino/flowerbelle/internal/log"
	"github.com/Alturino/flowerbelle/sale/internal/common/otel"
	"github.com/Alturino/flowerbelle/sale/pkg/response"
)

const defaultJournalSize = 50

// ReceiptJournal keeps the most recent receipts of each staff member, newest
// first.
type ReceiptJournal struct {
	client redis.Cmdable
	size   int64
}

func NewReceiptJournal(client redis.Cmdable, size int64) ReceiptJournal {
	if size <= 0 {
		size = defaultJournalSize
	}
	return ReceiptJournal{client: client, size: size}
}

func (rj ReceiptJournal) Append(c context.Context, userID string, receipt response.Receipt) error {
	c, span := otel.Tracer.Start(c, "ReceiptJournal Append")
	defer span.End()

	key := fmt.Sprintf(KEY_RECEIPTS_BY_USER, userID)
	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "ReceiptJournal Append").
		Str(log.KeyCacheKey, key).
		Str(log.KeyProcess, "appending receipt").
		Logger()

	raw, err := json.Marshal(receipt)
	if err != nil {
		err = fmt.Errorf("failed encoding receipt with error=%w", err)
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return err
	}

	logger.Debug().Msg("appending receipt")
	_, err = rj.client.TxPipelined(c, func(pipe redis.Pipeliner) error {
		pipe.LPush(c, key, raw)
		pipe.LTrim(c, key, 0, rj.size-1)
		return nil
	})
	if err != nil {
		err = fmt.Errorf("failed appending receipt with error=%w", err)
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return err
	}
	logger.Debug().Msg("appended receipt")

	return nil
}

func (rj ReceiptJournal) Recent(c context.Context, userID string, limit int64) ([]response.Receipt, error) {
	c, span := otel.Tracer.Start(c, "ReceiptJournal Recent")
	defer span.End()

	key := fmt.Sprintf(KEY_RECEIPTS_BY_USER, userID)
	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "ReceiptJournal Recent").
		Str(log.KeyCacheKey, key).
		Str(log.KeyProcess, "reading receipts").
		Logger()

	if limit <= 0 || limit > rj.size {
		limit = rj.size
	}

	logger.Debug().Msg("reading receipts")
	raws, err := rj.client.LRange(c, key, 0, limit-1).Result()
	if err != nil {
		err = fmt.Errorf("failed reading receipts with error=%w", err)
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return nil, err
	}

	receipts := make([]response.Receipt, 0, len(raws))
	for _, raw := range raws {
		receipt := response.Receipt{}
		if err := json.Unmarshal([]byte(raw), &receipt); err != nil {
			logger.Warn().Err(err).Msg("skipping undecodable receipt")
			continue
		}
		receipts = append(receipts, receipt)
	}
	logger.Debug().Int("count", len(receipts)).Msg("read receipts")

	return receipts, nil
}
