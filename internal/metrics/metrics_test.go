package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestCheckoutTotal(t *testing.T) {
	before := testutil.ToFloat64(CheckoutTotal.WithLabelValues(OutcomeSuccess))
	CheckoutTotal.WithLabelValues(OutcomeSuccess).Inc()
	assert.Equal(t, before+1, testutil.ToFloat64(CheckoutTotal.WithLabelValues(OutcomeSuccess)))
}

func TestCartMutationTotal(t *testing.T) {
	before := testutil.ToFloat64(CartMutationTotal.WithLabelValues(OperationAdd, OutcomeStockFull))
	CartMutationTotal.WithLabelValues(OperationAdd, OutcomeStockFull).Inc()
	assert.Equal(t, before+1, testutil.ToFloat64(CartMutationTotal.WithLabelValues(OperationAdd, OutcomeStockFull)))
}
