package service

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alturino/flowerbelle/internal"
	"github.com/Alturino/flowerbelle/internal/backend"
	"github.com/Alturino/flowerbelle/sale/internal/cache"
	"github.com/Alturino/flowerbelle/sale/internal/engine"
	"github.com/Alturino/flowerbelle/sale/pkg/request"
)

type fakeBackend struct {
	mu              sync.Mutex
	products        map[int64]backend.Product
	categories      []backend.Category
	listCalls       int
	categoryCalls   int
	createCalls     int
	created         []backend.TransactionRequest
	createdTokens   []string
	createFn        func(c context.Context, req backend.TransactionRequest) (backend.Transaction, error)
	voided          []int64
	transactionByID map[int64]backend.Transaction
}

func (f *fakeBackend) FindProduct(c context.Context, token string, id int64) (backend.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	product, ok := f.products[id]
	if !ok {
		return backend.Product{}, &backend.ResponseError{StatusCode: http.StatusNotFound, Message: "Not found."}
	}
	return product, nil
}

func (f *fakeBackend) FindProducts(c context.Context, token string, filter backend.ProductFilter) ([]backend.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listCalls++
	products := []backend.Product{}
	for _, p := range f.products {
		products = append(products, p)
	}
	return products, nil
}

func (f *fakeBackend) FindCategories(c context.Context, token string) ([]backend.Category, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.categoryCalls++
	return f.categories, nil
}

func (f *fakeBackend) CreateTransaction(c context.Context, token string, req backend.TransactionRequest) (backend.Transaction, error) {
	f.mu.Lock()
	f.createCalls++
	f.created = append(f.created, req)
	f.createdTokens = append(f.createdTokens, token)
	createFn := f.createFn
	f.mu.Unlock()
	if createFn != nil {
		return createFn(c, req)
	}
	return backend.Transaction{ID: 77, TransactionNumber: "TXN-0077"}, nil
}

func (f *fakeBackend) FindTransaction(c context.Context, token string, id int64) (backend.Transaction, error) {
	transaction, ok := f.transactionByID[id]
	if !ok {
		return backend.Transaction{}, &backend.ResponseError{StatusCode: http.StatusNotFound, Message: "Not found."}
	}
	return transaction, nil
}

func (f *fakeBackend) VoidTransaction(c context.Context, token string, id int64, reason string) (backend.Transaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.voided = append(f.voided, id)
	return backend.Transaction{ID: id, Status: "VOID"}, nil
}

func boolPtr(b bool) *bool {
	return &b
}

func intPtr(i int) *int {
	return &i
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		products: map[int64]backend.Product{
			1: {ID: 1, Name: "Red Rose", UnitPrice: decimal.RequireFromString("50.00"), CurrentStock: 5, ReorderLevel: 2},
			2: {ID: 2, Name: "Tulip", UnitPrice: decimal.RequireFromString("19.99"), CurrentStock: 3, ReorderLevel: 1},
			3: {ID: 3, Name: "Retired Lily", UnitPrice: decimal.RequireFromString("10.00"), CurrentStock: 9, IsActive: boolPtr(false)},
			4: {ID: 4, Name: "Sold Out Orchid", UnitPrice: decimal.RequireFromString("90.00"), CurrentStock: 0},
		},
		categories: []backend.Category{{ID: 1, Name: "Bouquets"}},
	}
}

func newTestService(t *testing.T, fake *fakeBackend) (*SaleService, *miniredis.Miniredis) {
	t.Helper()
	server := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	svc := NewSaleService(fake, cache.NewCatalogCache(client, time.Minute), cache.NewReceiptJournal(client, 10))
	return svc, server
}

var cashier = internal.Staff{UserID: "7", Token: "token-7"}

func cashCheckout(amount string) request.Checkout {
	d := decimal.RequireFromString(amount)
	return request.Checkout{
		PaymentMethod: "CASH",
		AmountPaid:    &d,
		CustomerName:  "Maria",
		CustomerPhone: "0917",
		CustomerEmail: "maria@example.com",
		Notes:         "for mom",
	}
}

func TestAddItem(t *testing.T) {
	tests := []struct {
		name             string
		req              request.AddItem
		expectedQuantity int
		expectedErr      error
		expectedStock    bool
	}{
		{
			name:             "given active product should add one unit by default",
			req:              request.AddItem{ProductID: 1},
			expectedQuantity: 1,
		},
		{
			name:             "given quantity above stock should clamp to stock",
			req:              request.AddItem{ProductID: 2, Quantity: intPtr(9)},
			expectedQuantity: 3,
		},
		{
			name:        "given unknown product should return product not found",
			req:         request.AddItem{ProductID: 99},
			expectedErr: ErrProductNotFound,
		},
		{
			name:        "given inactive product should return product not found",
			req:         request.AddItem{ProductID: 3},
			expectedErr: ErrProductNotFound,
		},
		{
			name:          "given product without stock should return stock exceeded",
			req:           request.AddItem{ProductID: 4},
			expectedStock: true,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			svc, _ := newTestService(t, newFakeBackend())

			sale, err := svc.AddItem(context.Background(), cashier, test.req)
			switch {
			case test.expectedErr != nil:
				assert.ErrorIs(t, err, test.expectedErr)
				return
			case test.expectedStock:
				_, ok := engine.AsStockExceeded(err)
				assert.True(t, ok)
				return
			}
			require.NoError(t, err)
			require.Len(t, sale.Lines, 1)
			assert.Equal(t, test.expectedQuantity, sale.Lines[0].Quantity)
		})
	}
}

func TestSessionsAreIsolatedPerStaff(t *testing.T) {
	svc, _ := newTestService(t, newFakeBackend())
	other := internal.Staff{UserID: "8", Token: "token-8"}

	_, err := svc.AddItem(context.Background(), cashier, request.AddItem{ProductID: 1})
	require.NoError(t, err)

	assert.Len(t, svc.FindSale(context.Background(), cashier).Lines, 1)
	assert.Empty(t, svc.FindSale(context.Background(), other).Lines)
}

func TestUpdateRemoveClear(t *testing.T) {
	svc, _ := newTestService(t, newFakeBackend())
	c := context.Background()
	_, err := svc.AddItem(c, cashier, request.AddItem{ProductID: 1, Quantity: intPtr(2)})
	require.NoError(t, err)
	_, err = svc.AddItem(c, cashier, request.AddItem{ProductID: 2})
	require.NoError(t, err)

	sale, err := svc.UpdateQuantity(c, cashier, 1, request.UpdateQuantity{Quantity: intPtr(4)})
	require.NoError(t, err)
	assert.Equal(t, "219.99", sale.Totals.Total)

	_, err = svc.UpdateQuantity(c, cashier, 1, request.UpdateQuantity{Quantity: intPtr(6)})
	stockErr, ok := engine.AsStockExceeded(err)
	require.True(t, ok)
	assert.Equal(t, "Cannot exceed stock limit of 5", stockErr.Notice())

	_, err = svc.UpdateQuantity(c, cashier, 42, request.UpdateQuantity{Quantity: intPtr(1)})
	assert.ErrorIs(t, err, engine.ErrLineNotFound)

	sale, err = svc.RemoveItem(c, cashier, 2)
	require.NoError(t, err)
	assert.Len(t, sale.Lines, 1)

	sale, err = svc.ClearSale(c, cashier)
	require.NoError(t, err)
	assert.Empty(t, sale.Lines)
	assert.Equal(t, "0.00", sale.Totals.Total)
}

func TestValidateCheckout(t *testing.T) {
	svc, _ := newTestService(t, newFakeBackend())
	c := context.Background()
	_, err := svc.AddItem(c, cashier, request.AddItem{ProductID: 1, Quantity: intPtr(2)})
	require.NoError(t, err)

	validation, err := svc.ValidateCheckout(c, cashier, cashCheckout("150.00"))
	require.NoError(t, err)
	assert.True(t, validation.Valid)
	assert.Equal(t, "50.00", validation.Change)

	validation, err = svc.ValidateCheckout(c, cashier, cashCheckout("99.99"))
	require.NoError(t, err)
	assert.False(t, validation.Valid)
	require.Len(t, validation.Failures, 1)
	assert.Equal(t, engine.FieldAmountTendered, validation.Failures[0].Field)
}

func TestCheckoutSuccess(t *testing.T) {
	fake := newFakeBackend()
	svc, server := newTestService(t, fake)
	c := context.Background()
	_, err := svc.AddItem(c, cashier, request.AddItem{ProductID: 1, Quantity: intPtr(2)})
	require.NoError(t, err)
	_, err = svc.AddItem(c, cashier, request.AddItem{ProductID: 2, Quantity: intPtr(3)})
	require.NoError(t, err)

	receipt, err := svc.Checkout(c, cashier, cashCheckout("200.00"))
	require.NoError(t, err)

	assert.Equal(t, "TXN-0077", receipt.TransactionNumber)
	assert.Equal(t, "159.97", receipt.Total)
	assert.Equal(t, "40.03", receipt.Change)
	assert.Empty(t, svc.FindSale(c, cashier).Lines)

	require.Len(t, fake.created, 1)
	sent := fake.created[0]
	assert.Equal(t, "token-7", fake.createdTokens[0])
	assert.Equal(t, "CASH", sent.PaymentMethod)
	assert.Equal(t, "for mom", sent.Notes)
	assert.True(t, decimal.RequireFromString("200.00").Equal(sent.AmountPaid))
	assert.True(t, decimal.RequireFromString("159.97").Equal(sent.TotalAmount))
	require.Len(t, sent.Items, 2)
	assert.Equal(t, int64(1), sent.Items[0].Product)
	assert.Equal(t, 2, sent.Items[0].Quantity)

	generation, err := server.Get(cache.KEY_CATALOG_GENERATION)
	require.NoError(t, err)
	assert.Equal(t, "1", generation)

	receipts, err := svc.RecentReceipts(c, cashier, 5)
	require.NoError(t, err)
	require.Len(t, receipts, 1)
	assert.Equal(t, int64(77), receipts[0].TransactionID)
}

func TestCheckoutSurvivesCallerCancellation(t *testing.T) {
	fake := newFakeBackend()
	svc, _ := newTestService(t, fake)
	_, err := svc.AddItem(context.Background(), cashier, request.AddItem{ProductID: 1})
	require.NoError(t, err)

	c, cancel := context.WithCancel(context.Background())
	defer cancel()
	var submitErr error
	fake.createFn = func(submitCtx context.Context, req backend.TransactionRequest) (backend.Transaction, error) {
		cancel()
		submitErr = submitCtx.Err()
		return backend.Transaction{ID: 78, TransactionNumber: "TXN-0078"}, nil
	}

	receipt, err := svc.Checkout(c, cashier, cashCheckout("100.00"))
	require.NoError(t, err)
	assert.NoError(t, submitErr)
	assert.Equal(t, "TXN-0078", receipt.TransactionNumber)
	assert.Empty(t, svc.FindSale(context.Background(), cashier).Lines)

	receipts, err := svc.RecentReceipts(context.Background(), cashier, 5)
	require.NoError(t, err)
	require.Len(t, receipts, 1)
}

func TestCheckoutFailurePreservesCart(t *testing.T) {
	tests := []struct {
		name           string
		err            error
		expectedKind   engine.SubmissionKind
		expectedNotice string
	}{
		{
			name:           "given server error should surface generic notice",
			err:            &backend.ResponseError{StatusCode: http.StatusInternalServerError, Message: "Internal Server Error"},
			expectedKind:   engine.SubmissionServerError,
			expectedNotice: engine.NoticeServerError,
		},
		{
			name:           "given client error should surface backend message",
			err:            &backend.ResponseError{StatusCode: http.StatusBadRequest, Message: "Not enough stock for Red Rose"},
			expectedKind:   engine.SubmissionClientError,
			expectedNotice: "Not enough stock for Red Rose",
		},
		{
			name:           "given expired session should surface backend message",
			err:            &backend.ResponseError{StatusCode: http.StatusUnauthorized, Message: "Given token not valid for any token type"},
			expectedKind:   engine.SubmissionClientError,
			expectedNotice: "Given token not valid for any token type",
		},
		{
			name:           "given unreachable backend should surface connectivity notice",
			err:            errors.Join(backend.ErrUnreachable, context.DeadlineExceeded),
			expectedKind:   engine.SubmissionNetworkError,
			expectedNotice: engine.NoticeConnectivityError,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			fake := newFakeBackend()
			fake.createFn = func(c context.Context, req backend.TransactionRequest) (backend.Transaction, error) {
				return backend.Transaction{}, test.err
			}
			svc, server := newTestService(t, fake)
			c := context.Background()
			_, err := svc.AddItem(c, cashier, request.AddItem{ProductID: 1, Quantity: intPtr(2)})
			require.NoError(t, err)
			before := svc.FindSale(c, cashier)

			_, err = svc.Checkout(c, cashier, cashCheckout("200.00"))

			rejected, ok := engine.AsSubmissionRejected(err)
			require.True(t, ok)
			assert.Equal(t, test.expectedKind, rejected.Kind)
			assert.Equal(t, test.expectedNotice, rejected.Notice())
			assert.Equal(t, before, svc.FindSale(c, cashier))
			assert.False(t, server.Exists(cache.KEY_CATALOG_GENERATION))
		})
	}
}

func TestCheckoutIgnoresDuplicateSubmission(t *testing.T) {
	release := make(chan struct{})
	fake := newFakeBackend()
	fake.createFn = func(c context.Context, req backend.TransactionRequest) (backend.Transaction, error) {
		<-release
		return backend.Transaction{ID: 1, TransactionNumber: "TXN-1"}, nil
	}
	svc, _ := newTestService(t, fake)
	c := context.Background()
	_, err := svc.AddItem(c, cashier, request.AddItem{ProductID: 1})
	require.NoError(t, err)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, err := svc.Checkout(c, cashier, cashCheckout("100.00"))
		assert.NoError(t, err)
	}()
	require.Eventually(t, func() bool { return svc.FindSale(c, cashier).Submitting }, time.Second, time.Millisecond)

	_, err = svc.Checkout(c, cashier, cashCheckout("100.00"))
	assert.ErrorIs(t, err, engine.ErrDuplicateSubmission)

	close(release)
	wg.Wait()

	fake.mu.Lock()
	defer fake.mu.Unlock()
	assert.Equal(t, 1, fake.createCalls)
}

func TestListProducts(t *testing.T) {
	fake := newFakeBackend()
	svc, _ := newTestService(t, fake)
	c := context.Background()

	products, err := svc.ListProducts(c, cashier, backend.ProductFilter{})
	require.NoError(t, err)
	ids := map[int64]bool{}
	for _, p := range products {
		ids[p.ID] = true
	}
	assert.Equal(t, map[int64]bool{1: true, 2: true}, ids)

	_, err = svc.ListProducts(c, cashier, backend.ProductFilter{})
	require.NoError(t, err)
	assert.Equal(t, 1, fake.listCalls)

	_, err = svc.AddItem(c, cashier, request.AddItem{ProductID: 1})
	require.NoError(t, err)
	_, err = svc.Checkout(c, cashier, cashCheckout("50.00"))
	require.NoError(t, err)

	_, err = svc.ListProducts(c, cashier, backend.ProductFilter{})
	require.NoError(t, err)
	assert.Equal(t, 2, fake.listCalls)
}

func TestListCategories(t *testing.T) {
	fake := newFakeBackend()
	svc, _ := newTestService(t, fake)

	for i := 0; i < 3; i++ {
		categories, err := svc.ListCategories(context.Background(), cashier)
		require.NoError(t, err)
		require.Len(t, categories, 1)
		assert.Equal(t, "Bouquets", categories[0].Name)
	}
	assert.Equal(t, 1, fake.categoryCalls)
}

func TestVoidTransactionInvalidatesCatalog(t *testing.T) {
	fake := newFakeBackend()
	svc, server := newTestService(t, fake)

	transaction, err := svc.VoidTransaction(context.Background(), cashier, 12, "customer returned")
	require.NoError(t, err)

	assert.Equal(t, "VOID", transaction.Status)
	assert.Equal(t, []int64{12}, fake.voided)
	assert.True(t, server.Exists(cache.KEY_CATALOG_GENERATION))
}

func TestFindTransaction(t *testing.T) {
	fake := newFakeBackend()
	fake.transactionByID = map[int64]backend.Transaction{5: {ID: 5, TransactionNumber: "TXN-5"}}
	svc, _ := newTestService(t, fake)

	transaction, err := svc.FindTransaction(context.Background(), cashier, 5)
	require.NoError(t, err)
	assert.Equal(t, "TXN-5", transaction.TransactionNumber)

	_, err = svc.FindTransaction(context.Background(), cashier, 6)
	assert.True(t, backend.IsNotFound(err))
}
