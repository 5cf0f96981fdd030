package controller

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"github.com/Alturino/flowerbelle/internal/backend"
	inHttp "github.com/Alturino/flowerbelle/internal/http"
	"github.com/Alturino/flowerbelle/internal/log"
	"github.com/Alturino/flowerbelle/sale/internal/common/otel"
	"github.com/Alturino/flowerbelle/sale/pkg/request"
)

func AttachCatalogController(mux *mux.Router, controller SaleController) {
	mux.HandleFunc("/products", controller.ListProducts).Methods(http.MethodGet)
	mux.HandleFunc("/categories", controller.ListCategories).Methods(http.MethodGet)
	mux.HandleFunc("/transactions/{transactionId}", controller.FindTransaction).Methods(http.MethodGet)
	mux.HandleFunc("/transactions/{transactionId}/void", controller.VoidTransaction).Methods(http.MethodPost)
}

func transactionIDOf(r *http.Request) (int64, error) {
	raw := mux.Vars(r)["transactionId"]
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid transactionId=%s", raw)
	}
	return id, nil
}

// productFilterOf ignores a category that is not a positive id, matching
// the "all categories" choice on the till.
func productFilterOf(r *http.Request) backend.ProductFilter {
	query := r.URL.Query()
	filter := backend.ProductFilter{Search: strings.TrimSpace(query.Get("search"))}
	if category, err := strconv.ParseInt(query.Get("category"), 10, 64); err == nil && category > 0 {
		filter.Category = category
	}
	return filter
}

func (ctrl SaleController) ListProducts(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "SaleController ListProducts")
	defer span.End()

	filter := productFilterOf(r)
	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "SaleController ListProducts").
		Any(log.KeyFilter, filter).
		Logger()

	staff, err := staffOf(c)
	if err != nil {
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		writeError(c, w, err)
		return
	}

	c = logger.WithContext(c)
	products, err := ctrl.service.ListProducts(c, staff, filter)
	if err != nil {
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		writeError(c, w, err)
		return
	}

	inHttp.WriteJsonResponse(c, w, map[string]string{}, map[string]interface{}{
		"status":     inHttp.STATUS_SUCCESS,
		"statusCode": http.StatusOK,
		"message":    "found products",
		"data":       map[string]interface{}{"products": products},
	})
}

func (ctrl SaleController) ListCategories(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "SaleController ListCategories")
	defer span.End()

	logger := zerolog.Ctx(c).With().Str(log.KeyTag, "SaleController ListCategories").Logger()

	staff, err := staffOf(c)
	if err != nil {
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		writeError(c, w, err)
		return
	}

	c = logger.WithContext(c)
	categories, err := ctrl.service.ListCategories(c, staff)
	if err != nil {
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		writeError(c, w, err)
		return
	}

	inHttp.WriteJsonResponse(c, w, map[string]string{}, map[string]interface{}{
		"status":     inHttp.STATUS_SUCCESS,
		"statusCode": http.StatusOK,
		"message":    "found categories",
		"data":       map[string]interface{}{"categories": categories},
	})
}

func (ctrl SaleController) FindTransaction(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "SaleController FindTransaction")
	defer span.End()

	logger := zerolog.Ctx(c).With().Str(log.KeyTag, "SaleController FindTransaction").Logger()

	id, err := transactionIDOf(r)
	if err != nil {
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		writeBadRequest(c, w, err)
		return
	}

	staff, err := staffOf(c)
	if err != nil {
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		writeError(c, w, err)
		return
	}

	c = logger.WithContext(c)
	transaction, err := ctrl.service.FindTransaction(c, staff, id)
	if err != nil {
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		writeError(c, w, err)
		return
	}

	inHttp.WriteJsonResponse(c, w, map[string]string{}, map[string]interface{}{
		"status":     inHttp.STATUS_SUCCESS,
		"statusCode": http.StatusOK,
		"message":    "found transaction",
		"data":       map[string]interface{}{"transaction": transaction},
	})
}

func (ctrl SaleController) VoidTransaction(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "SaleController VoidTransaction")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "SaleController VoidTransaction").
		Logger()

	id, err := transactionIDOf(r)
	if err != nil {
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		writeBadRequest(c, w, err)
		return
	}
	logger = logger.With().Int64(log.KeyTransactionID, id).Logger()

	logger = logger.With().Str(log.KeyProcess, "decoding request body").Logger()
	reqBody := request.VoidTransaction{}
	if err = ctrl.decode(c, r, &reqBody); err != nil {
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		writeBadRequest(c, w, err)
		return
	}

	staff, err := staffOf(c)
	if err != nil {
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		writeError(c, w, err)
		return
	}

	logger = logger.With().Str(log.KeyProcess, "voiding transaction").Logger()
	logger.Info().Msg("voiding transaction")
	c = logger.WithContext(c)
	transaction, err := ctrl.service.VoidTransaction(c, staff, id, reqBody.Reason)
	if err != nil {
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		writeError(c, w, err)
		return
	}
	logger.Info().Msg("voided transaction")

	inHttp.WriteJsonResponse(c, w, map[string]string{}, map[string]interface{}{
		"status":     inHttp.STATUS_SUCCESS,
		"statusCode": http.StatusOK,
		"message":    "voided transaction",
		"data":       map[string]interface{}{"transaction": transaction},
	})
}
