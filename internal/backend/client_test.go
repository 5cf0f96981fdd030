package backend

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alturino/flowerbelle/internal/config"
	"github.com/Alturino/flowerbelle/internal/log"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	client := NewClient(config.Backend{
		BaseURL:          server.URL + "/api/",
		Timeout:          2 * time.Second,
		BreakerFailures:  2,
		BreakerOpenAfter: time.Minute,
	})
	return client, server
}

func TestFindProducts(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{
			name: "given bare array body should decode products",
			body: `[{"id":1,"name":"Rose","unit_price":"50.00","current_stock":4,"category":2,"is_active":true}]`,
		},
		{
			name: "given paginated body should decode results",
			body: `{"count":1,"next":null,"results":[{"id":1,"name":"Rose","unit_price":50,"current_stock":4,"category":2}]}`,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			var gotPath, gotAuth, gotSearch, gotCategory, gotRequestID string
			client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				gotPath = r.URL.Path
				gotAuth = r.Header.Get("Authorization")
				gotSearch = r.URL.Query().Get("search")
				gotCategory = r.URL.Query().Get("category")
				gotRequestID = r.Header.Get("X-Request-Id")
				_, _ = io.WriteString(w, test.body)
			})

			c := log.AttachRequestIDToContext(context.Background(), "req-9")
			products, err := client.FindProducts(c, "tkn", ProductFilter{Search: "rose", Category: 2})
			require.NoError(t, err)

			assert.Equal(t, "/api/inventory/products/", gotPath)
			assert.Equal(t, "Bearer tkn", gotAuth)
			assert.Equal(t, "rose", gotSearch)
			assert.Equal(t, "2", gotCategory)
			assert.Equal(t, "req-9", gotRequestID)
			require.Len(t, products, 1)
			assert.Equal(t, int64(1), products[0].ID)
			assert.True(t, decimal.RequireFromString("50").Equal(products[0].UnitPrice))
			assert.Equal(t, 4, products[0].CurrentStock)
			assert.True(t, products[0].Active())
		})
	}
}

func TestFindProductNotFound(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/inventory/products/7/", r.URL.Path)
		w.WriteHeader(http.StatusNotFound)
		_, _ = io.WriteString(w, `{"detail":"Not found."}`)
	})

	_, err := client.FindProduct(context.Background(), "tkn", 7)

	assert.True(t, IsNotFound(err))
	respErr, ok := AsResponseError(err)
	require.True(t, ok)
	assert.Equal(t, "Not found.", respErr.Message)
}

func TestCreateTransaction(t *testing.T) {
	t.Run("given accepted sale should post payload and decode transaction", func(t *testing.T) {
		var got map[string]interface{}
		client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, "/api/pos/transactions/", r.URL.Path)
			require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
			w.WriteHeader(http.StatusCreated)
			_, _ = io.WriteString(w, `{"id":31,"transaction_number":"TXN-20240101-0031"}`)
		})

		transaction, err := client.CreateTransaction(context.Background(), "tkn", TransactionRequest{
			Items: []TransactionItemRequest{
				{Product: 1, Quantity: 2, UnitPrice: decimal.RequireFromString("50.00"), Discount: decimal.Zero},
			},
			PaymentMethod: "CASH",
			AmountPaid:    decimal.RequireFromString("100.00"),
			CustomerName:  "Maria",
			Subtotal:      decimal.RequireFromString("100.00"),
			Tax:           decimal.Zero,
			TotalAmount:   decimal.RequireFromString("100.00"),
			Discount:      decimal.Zero,
		})
		require.NoError(t, err)

		assert.Equal(t, int64(31), transaction.ID)
		assert.Equal(t, "TXN-20240101-0031", transaction.TransactionNumber)
		assert.Equal(t, "CASH", got["payment_method"])
		assert.Equal(t, "100", got["total_amount"])
		items := got["items"].([]interface{})
		require.Len(t, items, 1)
		assert.Equal(t, float64(1), items[0].(map[string]interface{})["product"])
	})

	t.Run("given field errors should return response error", func(t *testing.T) {
		client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = io.WriteString(w, `{"payment_method":["\"IOU\" is not a valid choice."]}`)
		})

		_, err := client.CreateTransaction(context.Background(), "tkn", TransactionRequest{})

		respErr, ok := AsResponseError(err)
		require.True(t, ok)
		assert.Equal(t, http.StatusBadRequest, respErr.StatusCode)
		assert.Equal(t, []string{`"IOU" is not a valid choice.`}, respErr.FieldErrors["payment_method"])
	})

	t.Run("given closed server should return unreachable", func(t *testing.T) {
		client, server := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {})
		server.Close()

		_, err := client.CreateTransaction(context.Background(), "tkn", TransactionRequest{})

		assert.ErrorIs(t, err, ErrUnreachable)
	})
}

func TestVoidTransaction(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/pos/transactions/5/void/", r.URL.Path)
		body := map[string]string{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "wrong item", body["reason"])
		_, _ = io.WriteString(w, `{"message":"Transaction voided successfully","transaction":{"id":5,"status":"VOID"}}`)
	})

	transaction, err := client.VoidTransaction(context.Background(), "tkn", 5, "wrong item")
	require.NoError(t, err)

	assert.Equal(t, int64(5), transaction.ID)
	assert.Equal(t, "VOID", transaction.Status)
}

func TestBreaker(t *testing.T) {
	t.Run("given consecutive server errors should open breaker on reads", func(t *testing.T) {
		var hits atomic.Int32
		client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			hits.Add(1)
			w.WriteHeader(http.StatusInternalServerError)
		})

		for i := 0; i < 2; i++ {
			_, err := client.FindCategories(context.Background(), "tkn")
			_, ok := AsResponseError(err)
			require.True(t, ok)
		}
		_, err := client.FindCategories(context.Background(), "tkn")

		assert.ErrorIs(t, err, ErrUnreachable)
		assert.Equal(t, int32(2), hits.Load())
		assert.Equal(t, "open", client.BreakerState())
	})

	t.Run("given not found answers should keep breaker closed", func(t *testing.T) {
		client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		})

		for i := 0; i < 4; i++ {
			_, err := client.FindProduct(context.Background(), "tkn", 1)
			assert.True(t, IsNotFound(err))
		}
		assert.Equal(t, "closed", client.BreakerState())
	})

	t.Run("given open breaker should still send checkout", func(t *testing.T) {
		var posts atomic.Int32
		client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodPost {
				posts.Add(1)
				w.WriteHeader(http.StatusCreated)
				_, _ = io.WriteString(w, `{"id":1}`)
				return
			}
			w.WriteHeader(http.StatusBadGateway)
		})
		for i := 0; i < 2; i++ {
			_, _ = client.FindCategories(context.Background(), "tkn")
		}
		require.Equal(t, "open", client.BreakerState())

		_, err := client.CreateTransaction(context.Background(), "tkn", TransactionRequest{})

		require.NoError(t, err)
		assert.Equal(t, int32(1), posts.Load())
	})
}

func TestNewResponseError(t *testing.T) {
	tests := []struct {
		name            string
		statusCode      int
		body            string
		expectedMessage string
	}{
		{name: "given detail should use detail", statusCode: 401, body: `{"detail":"Given token not valid for any token type"}`, expectedMessage: "Given token not valid for any token type"},
		{name: "given error should use error", statusCode: 400, body: `{"error":"Transaction is already voided"}`, expectedMessage: "Transaction is already voided"},
		{name: "given bare list should use first message", statusCode: 400, body: `["Not enough stock for Rose"]`, expectedMessage: "Not enough stock for Rose"},
		{name: "given non field errors should use message without field", statusCode: 400, body: `{"non_field_errors":["Cart is empty"]}`, expectedMessage: "Cart is empty"},
		{name: "given field errors should prefix first sorted field", statusCode: 400, body: `{"notes":["This field may not be blank."],"customer_name":["Required."]}`, expectedMessage: "customer_name: Required."},
		{name: "given html body should fall back to status text", statusCode: 502, body: `<html>bad gateway</html>`, expectedMessage: "Bad Gateway"},
		{name: "given empty body should fall back to status text", statusCode: 500, body: ``, expectedMessage: "Internal Server Error"},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			respErr := newResponseError(test.statusCode, []byte(test.body))
			assert.Equal(t, test.statusCode, respErr.StatusCode)
			assert.Equal(t, test.expectedMessage, respErr.Message)
		})
	}
}
