package controller

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	inHttp "github.com/Alturino/flowerbelle/internal/http"
	"github.com/Alturino/flowerbelle/internal/log"
	"github.com/Alturino/flowerbelle/sale/internal/common/otel"
	"github.com/Alturino/flowerbelle/sale/internal/service"
	"github.com/Alturino/flowerbelle/sale/pkg/request"
)

type SaleController struct {
	service  *service.SaleService
	validate *validator.Validate
}

func AttachSaleController(mux *mux.Router, service *service.SaleService) {
	controller := SaleController{
		service:  service,
		validate: request.NewValidator(),
	}
	AttachCatalogController(mux, controller)

	router := mux.PathPrefix("/sale").Subrouter()
	router.HandleFunc("", controller.FindSale).Methods(http.MethodGet)
	router.HandleFunc("", controller.ClearSale).Methods(http.MethodDelete)
	router.HandleFunc("/items", controller.AddItem).Methods(http.MethodPost)
	router.HandleFunc("/items/{productId}", controller.UpdateQuantity).Methods(http.MethodPut)
	router.HandleFunc("/items/{productId}", controller.RemoveItem).Methods(http.MethodDelete)
	router.HandleFunc("/checkout/validate", controller.ValidateCheckout).Methods(http.MethodPost)
	router.HandleFunc("/checkout", controller.Checkout).Methods(http.MethodPost)
	router.HandleFunc("/receipts", controller.RecentReceipts).Methods(http.MethodGet)
}

func (ctrl SaleController) decode(c context.Context, r *http.Request, dst interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return fmt.Errorf("failed decoding request body with error=%w", err)
	}
	if err := ctrl.validate.StructCtx(c, dst); err != nil {
		return fmt.Errorf("failed validating request body with error=%w", err)
	}
	return nil
}

func writeBadRequest(c context.Context, w http.ResponseWriter, err error) {
	inHttp.WriteFailed(c, w, http.StatusBadRequest, err.Error(), "")
}

func productIDOf(r *http.Request) (int64, error) {
	raw := mux.Vars(r)["productId"]
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid productId=%s", raw)
	}
	return id, nil
}

func (ctrl SaleController) FindSale(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "SaleController FindSale")
	defer span.End()

	logger := zerolog.Ctx(c).With().Str(log.KeyTag, "SaleController FindSale").Logger()

	staff, err := staffOf(c)
	if err != nil {
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		writeError(c, w, err)
		return
	}

	sale := ctrl.service.FindSale(c, staff)
	inHttp.WriteJsonResponse(c, w, map[string]string{}, map[string]interface{}{
		"status":     inHttp.STATUS_SUCCESS,
		"statusCode": http.StatusOK,
		"message":    "found sale",
		"data":       map[string]interface{}{"sale": sale},
	})
}

func (ctrl SaleController) AddItem(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "SaleController AddItem")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "SaleController AddItem").
		Logger()

	logger = logger.With().Str(log.KeyProcess, "decoding request body").Logger()
	logger.Info().Msg("decoding request body")
	reqBody := request.AddItem{}
	if err := ctrl.decode(c, r, &reqBody); err != nil {
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		writeBadRequest(c, w, err)
		return
	}
	logger.Info().Msg("decoded request body")

	staff, err := staffOf(c)
	if err != nil {
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		writeError(c, w, err)
		return
	}

	logger = logger.With().Str(log.KeyProcess, "adding item").Logger()
	logger.Info().Msg("adding item")
	c = logger.WithContext(c)
	sale, err := ctrl.service.AddItem(c, staff, reqBody)
	if err != nil {
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		writeError(c, w, err)
		return
	}
	logger.Info().Msg("added item")

	inHttp.WriteJsonResponse(c, w, map[string]string{}, map[string]interface{}{
		"status":     inHttp.STATUS_SUCCESS,
		"statusCode": http.StatusOK,
		"message":    "added item",
		"data":       map[string]interface{}{"sale": sale},
	})
}

func (ctrl SaleController) UpdateQuantity(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "SaleController UpdateQuantity")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "SaleController UpdateQuantity").
		Logger()

	productID, err := productIDOf(r)
	if err != nil {
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		writeBadRequest(c, w, err)
		return
	}
	logger = logger.With().Int64(log.KeyProductID, productID).Logger()

	logger = logger.With().Str(log.KeyProcess, "decoding request body").Logger()
	logger.Info().Msg("decoding request body")
	reqBody := request.UpdateQuantity{}
	if err = ctrl.decode(c, r, &reqBody); err != nil {
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		writeBadRequest(c, w, err)
		return
	}
	logger.Info().Msg("decoded request body")

	staff, err := staffOf(c)
	if err != nil {
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		writeError(c, w, err)
		return
	}

	logger = logger.With().Str(log.KeyProcess, "updating quantity").Logger()
	logger.Info().Msg("updating quantity")
	c = logger.WithContext(c)
	sale, err := ctrl.service.UpdateQuantity(c, staff, productID, reqBody)
	if err != nil {
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		writeError(c, w, err)
		return
	}
	logger.Info().Msg("updated quantity")

	inHttp.WriteJsonResponse(c, w, map[string]string{}, map[string]interface{}{
		"status":     inHttp.STATUS_SUCCESS,
		"statusCode": http.StatusOK,
		"message":    "updated quantity",
		"data":       map[string]interface{}{"sale": sale},
	})
}

func (ctrl SaleController) RemoveItem(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "SaleController RemoveItem")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "SaleController RemoveItem").
		Logger()

	productID, err := productIDOf(r)
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
	sale, err := ctrl.service.RemoveItem(c, staff, productID)
	if err != nil {
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		writeError(c, w, err)
		return
	}

	inHttp.WriteJsonResponse(c, w, map[string]string{}, map[string]interface{}{
		"status":     inHttp.STATUS_SUCCESS,
		"statusCode": http.StatusOK,
		"message":    "removed item",
		"data":       map[string]interface{}{"sale": sale},
	})
}

func (ctrl SaleController) ClearSale(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "SaleController ClearSale")
	defer span.End()

	logger := zerolog.Ctx(c).With().Str(log.KeyTag, "SaleController ClearSale").Logger()

	staff, err := staffOf(c)
	if err != nil {
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		writeError(c, w, err)
		return
	}

	c = logger.WithContext(c)
	sale, err := ctrl.service.ClearSale(c, staff)
	if err != nil {
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		writeError(c, w, err)
		return
	}

	inHttp.WriteJsonResponse(c, w, map[string]string{}, map[string]interface{}{
		"status":     inHttp.STATUS_SUCCESS,
		"statusCode": http.StatusOK,
		"message":    "Cart cleared",
		"data":       map[string]interface{}{"sale": sale},
	})
}

func (ctrl SaleController) ValidateCheckout(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "SaleController ValidateCheckout")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "SaleController ValidateCheckout").
		Logger()

	logger = logger.With().Str(log.KeyProcess, "decoding request body").Logger()
	reqBody := request.Checkout{}
	if err := ctrl.decode(c, r, &reqBody); err != nil {
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

	logger = logger.With().Str(log.KeyProcess, "validating checkout").Logger()
	c = logger.WithContext(c)
	validation, err := ctrl.service.ValidateCheckout(c, staff, reqBody)
	if err != nil {
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		writeError(c, w, err)
		return
	}

	inHttp.WriteJsonResponse(c, w, map[string]string{}, map[string]interface{}{
		"status":     inHttp.STATUS_SUCCESS,
		"statusCode": http.StatusOK,
		"message":    "validated checkout",
		"data":       map[string]interface{}{"validation": validation},
	})
}

func (ctrl SaleController) Checkout(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "SaleController Checkout")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "SaleController Checkout").
		Logger()

	logger = logger.With().Str(log.KeyProcess, "decoding request body").Logger()
	logger.Info().Msg("decoding request body")
	reqBody := request.Checkout{}
	if err := ctrl.decode(c, r, &reqBody); err != nil {
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		writeBadRequest(c, w, err)
		return
	}
	logger.Info().Msg("decoded request body")

	staff, err := staffOf(c)
	if err != nil {
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		writeError(c, w, err)
		return
	}

	logger = logger.With().Str(log.KeyProcess, "checking out").Logger()
	logger.Info().Msg("checking out")
	c = logger.WithContext(c)
	receipt, err := ctrl.service.Checkout(c, staff, reqBody)
	if err != nil {
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		writeError(c, w, err)
		return
	}
	logger.Info().Msg("checked out")

	inHttp.WriteJsonResponse(c, w, map[string]string{}, map[string]interface{}{
		"status":     inHttp.STATUS_SUCCESS,
		"statusCode": http.StatusCreated,
		"message":    "Transaction completed! Transaction #" + receipt.Label(),
		"data":       map[string]interface{}{"receipt": receipt},
	})
}

func (ctrl SaleController) RecentReceipts(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "SaleController RecentReceipts")
	defer span.End()

	logger := zerolog.Ctx(c).With().Str(log.KeyTag, "SaleController RecentReceipts").Logger()

	limit := int64(0)
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || parsed < 0 {
			err = fmt.Errorf("invalid limit=%s", raw)
			otel.RecordError(err, span)
			logger.Error().Err(err).Msg(err.Error())
			writeBadRequest(c, w, err)
			return
		}
		limit = parsed
	}

	staff, err := staffOf(c)
	if err != nil {
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		writeError(c, w, err)
		return
	}

	receipts, err := ctrl.service.RecentReceipts(c, staff, limit)
	if err != nil {
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		writeError(c, w, err)
		return
	}

	inHttp.WriteJsonResponse(c, w, map[string]string{}, map[string]interface{}{
		"status":     inHttp.STATUS_SUCCESS,
		"statusCode": http.StatusOK,
		"message":    "found receipts",
		"data":       map[string]interface{}{"receipts": receipts},
	})
}
