package log

const (
	KeyAppName            = "app"
	KeyRequestID          = "requestId"
	KeyTraceID            = "traceId"
	KeySpanID             = "spanId"
	KeyProcess            = "process"
	KeyTag                = "tag"
	KeyRequest            = "request"
	KeyRequestBody        = "requestBody"
	KeyRequestHeader      = "requestHeader"
	KeyRequestHost        = "host"
	KeyRequestIp          = "requesterIP"
	KeyRequestMethod      = "requestMethod"
	KeyRequestProcessedAt = "requestProcessedAt"
	KeyRequestURI         = "requestURI"
	KeyRequestURL         = "requestURL"
	KeyResponseStatus     = "responseStatus"
	KeyConfig             = "config"
	KeyUserID             = "userId"
	KeyToken              = "token"
	KeyProductID          = "productId"
	KeyQuantity           = "quantity"
	KeyCartLines          = "cartLines"
	KeyTotals             = "totals"
	KeyPaymentMethod      = "paymentMethod"
	KeyCheckoutRequest    = "checkoutRequest"
	KeyReceipt            = "receipt"
	KeyTransactionID      = "transactionId"
	KeyCacheKey           = "cacheKey"
	KeyGeneration         = "generation"
	KeyFilter             = "filter"
	KeyBackendURL         = "backendURL"
	KeyStatusCode         = "statusCode"
	KeyBreakerState       = "breakerState"
)
