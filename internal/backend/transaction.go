package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/Alturino/flowerbelle/internal/log"
	"github.com/Alturino/flowerbelle/internal/otel"
)

const pathTransactions = "/pos/transactions"

type TransactionItemRequest struct {
	Product   int64           `json:"product"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Discount  decimal.Decimal `json:"discount"`
}

type TransactionRequest struct {
	Items            []TransactionItemRequest `json:"items"`
	PaymentMethod    string                   `json:"payment_method"`
	AmountPaid       decimal.Decimal          `json:"amount_paid"`
	PaymentReference string                   `json:"payment_reference"`
	CustomerName     string                   `json:"customer_name"`
	CustomerPhone    string                   `json:"customer_phone"`
	CustomerEmail    string                   `json:"customer_email"`
	Notes            string                   `json:"notes"`
	Subtotal         decimal.Decimal          `json:"subtotal"`
	Tax              decimal.Decimal          `json:"tax"`
	TotalAmount      decimal.Decimal          `json:"total_amount"`
	Discount         decimal.Decimal          `json:"discount"`
}

type TransactionItem struct {
	ID          int64           `json:"id"`
	Product     int64           `json:"product"`
	ProductName string          `json:"product_name"`
	ProductSKU  string          `json:"product_sku"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Discount    decimal.Decimal `json:"discount"`
	LineTotal   decimal.Decimal `json:"line_total"`
}

type Transaction struct {
	ID                int64             `json:"id"`
	TransactionNumber string            `json:"transaction_number"`
	CustomerName      string            `json:"customer_name"`
	CustomerPhone     string            `json:"customer_phone"`
	CustomerEmail     string            `json:"customer_email"`
	Items             []TransactionItem `json:"items"`
	TotalAmount       decimal.Decimal   `json:"total_amount"`
	Tax               decimal.Decimal   `json:"tax"`
	Discount          decimal.Decimal   `json:"discount"`
	AmountPaid        decimal.Decimal   `json:"amount_paid"`
	Status            string            `json:"status"`
	PaymentMethod     string            `json:"payment_method"`
	CreatedBy         *int64            `json:"created_by"`
	CreatedAt         string            `json:"created_at"`
}

func (cl *Client) CreateTransaction(c context.Context, token string, req TransactionRequest) (Transaction, error) {
	c, span := otel.Tracer.Start(
		c,
		"backend Client CreateTransaction",
		trace.WithAttributes(
			attribute.Int("items", len(req.Items)),
			attribute.String(log.KeyPaymentMethod, req.PaymentMethod),
		),
	)
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "backend Client CreateTransaction").
		Str(log.KeyPaymentMethod, req.PaymentMethod).
		Str(log.KeyTotals, req.TotalAmount.String()).
		Logger()

	logger = logger.With().Str(log.KeyProcess, "creating transaction").Logger()
	logger.Info().Msg("creating transaction")
	body, err := cl.send(c, http.MethodPost, pathTransactions, token, nil, req)
	if err != nil {
		err = fmt.Errorf("failed creating transaction with error=%w", err)
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return Transaction{}, err
	}

	transaction := Transaction{}
	if len(body) > 0 {
		if err = json.Unmarshal(body, &transaction); err != nil {
			logger.Warn().Err(err).Msg("created transaction with undecodable body")
		}
	}
	logger.Info().Int64(log.KeyTransactionID, transaction.ID).Msg("created transaction")

	return transaction, nil
}

func (cl *Client) FindTransaction(c context.Context, token string, id int64) (Transaction, error) {
	c, span := otel.Tracer.Start(c, "backend Client FindTransaction")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "backend Client FindTransaction").
		Int64(log.KeyTransactionID, id).
		Str(log.KeyProcess, "finding transaction").
		Logger()

	logger.Info().Msgf("finding transaction by transactionId=%d", id)
	body, err := cl.read(c, pathTransactions+"/"+strconv.FormatInt(id, 10), token, nil)
	if err != nil {
		err = fmt.Errorf("failed finding transaction by transactionId=%d with error=%w", id, err)
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return Transaction{}, err
	}

	transaction := Transaction{}
	if err = json.Unmarshal(body, &transaction); err != nil {
		err = fmt.Errorf("failed decoding transaction transactionId=%d with error=%w", id, err)
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return Transaction{}, err
	}
	logger.Info().Msgf("found transaction by transactionId=%d", id)

	return transaction, nil
}

type voidRequest struct {
	Reason string `json:"reason"`
}

type voidResponse struct {
	Message     string      `json:"message"`
	Transaction Transaction `json:"transaction"`
}

func (cl *Client) VoidTransaction(c context.Context, token string, id int64, reason string) (Transaction, error) {
	c, span := otel.Tracer.Start(c, "backend Client VoidTransaction")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "backend Client VoidTransaction").
		Int64(log.KeyTransactionID, id).
		Str(log.KeyProcess, "voiding transaction").
		Logger()

	logger.Info().Msgf("voiding transaction by transactionId=%d", id)
	path := pathTransactions + "/" + strconv.FormatInt(id, 10) + "/void"
	body, err := cl.send(c, http.MethodPost, path, token, nil, voidRequest{Reason: reason})
	if err != nil {
		err = fmt.Errorf("failed voiding transaction by transactionId=%d with error=%w", id, err)
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return Transaction{}, err
	}

	resp := voidResponse{}
	if err = json.Unmarshal(body, &resp); err != nil {
		err = fmt.Errorf("failed decoding voided transaction transactionId=%d with error=%w", id, err)
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return Transaction{}, err
	}
	logger.Info().Msgf("voided transaction by transactionId=%d", id)

	return resp.Transaction, nil
}
