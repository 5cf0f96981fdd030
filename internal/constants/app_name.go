package constants

const (
	APP_MAIN_POS     = "main flowerbelle"
	APP_SALE_SERVICE = "sale-service"
	APP_VERSION      = "0.1.0"
)
