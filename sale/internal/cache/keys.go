package cache

const (
	KEY_CATALOG_GENERATION = "pos:catalog:generation"
	KEY_CATALOG_PRODUCTS   = "pos:catalog:%d:products:%d:%s"
	KEY_CATALOG_CATEGORIES = "pos:catalog:%d:categories"
	KEY_RECEIPTS_BY_USER   = "pos:receipts:%s"
)
