package grafana

import "marketpulse/internal/domain/models"

// datasourceRef identifies a dashboard datasource by type and uid.
type datasourceRef struct {
	Type string `json:"type"`
	UID  string `json:"uid"`
}

var (
	dwhClickhouseDS = datasourceRef{Type: "grafana-clickhouse-datasource", UID: "z4ICaIsIz"}

	postgresDS = map[models.Env]datasourceRef{
		models.EnvLTS:    {Type: "postgres", UID: "NZ6mrUSSz"},
		models.EnvLatest: {Type: "postgres", UID: "LRv7BwRNk"},
		models.EnvPolza:  {Type: "postgres", UID: "bgCdmzHIk"},
	}
)

// elkSource is the APM index pattern and proxy datasource id for one
// environment. Polza traffic lands in the latest cluster.
type elkSource struct {
	Index   string
	ProxyID int
}

var elkSources = map[models.Env]elkSource{
	models.EnvLTS:    {Index: "apm-*prod-ecom*", ProxyID: 17},
	models.EnvLatest: {Index: "apm-*prod-latest-ecom*", ProxyID: 71},
	models.EnvPolza:  {Index: "apm-*prod-latest-ecom*", ProxyID: 71},
}

// The SQL below is lifted from the dashboard panels; the %s placeholders
// are filled with identifiers, never with user input.

const (
	ltsStoresSQL    = "select uniqExact(`after.marketplace_store_id`) from (select * from `default`.`ecom-lts.debezium.cdc.public.delivery_organizationaddress` FINAL) oa inner join (select * from `default`.`ecom-lts.debezium.cdc.public.delivery_marketplacestore` FINAL) ms on oa.`after.marketplace_store_id` = ms.`after.id` WHERE ms.`after.is_active` and `after.organization_id` = %d and `after.marketplace_id` = %d"
	latestStoresSQL = "select uniqExact(`after.marketplace_store_id`) from (select * from `default`.`ecomlatest.debezium.cdc.public.delivery_organizationaddress` FINAL) oa inner join (select * from `default`.`ecomlatest.debezium.cdc.public.delivery_marketplacestore` FINAL) ms on oa.`after.marketplace_store_id` = ms.`after.id` WHERE ms.`after.is_active` and `after.organization_id` = %d and `after.marketplace_id` = %d"
	polzaStoresSQL  = "select uniqExact(`after.marketplace_store_id`) from (select * from `default`.`ecompolza.debezium.cdc.public.delivery_organizationaddress` FINAL) oa inner join (select * from `default`.`ecompolza.debezium.cdc.public.delivery_marketplacestore` FINAL) ms on oa.`after.marketplace_store_id` = ms.`after.id` WHERE ms.`after.is_active` and `after.organization_id` = %d and `after.marketplace_id` = %d"

	cacheStatusSQL = "select status from statistic_nonzerostockmetricstatus where actual=True and marketplace_guid='%s';"
	cacheDetailSQL = "SELECT DISTINCT ON (s.org_name, mm.name, s.marketplace_guid) s.org_name, s.db_count, s.cache_count, s.percent FROM statistic_nonzerostockmetric s INNER JOIN marketplace_marketplace mm ON mm.guid = s.marketplace_guid::uuid and mm.name = %s WHERE s.actual = true ORDER BY s.org_name, s.marketplace_guid;"
)

var storesSQL = map[models.Env]string{
	models.EnvLTS:    ltsStoresSQL,
	models.EnvLatest: latestStoresSQL,
	models.EnvPolza:  polzaStoresSQL,
}

// Lucene queries come straight from the dashboard panels. The %s
// placeholder takes the marketplace's log-search account name.

const (
	ltsOrdersLucene    = `processor.event:"transaction" AND service.environment: "prod" AND (url.path: "/v1.0/orders" OR transaction.name: *YandexOrderAcceptView* OR (transaction.name : *SbermmOrderNewView*) OR (transaction.name : *BaseImportOrderService*) OR (transaction.name: *OrderView_for_garmoniya*)) AND user.name: %s`
	latestOrdersLucene = `processor.event:"transaction" AND service.environment: "selectel-prod-latest" AND (url.path: "/v1.0/orders" OR transaction.name: *YandexOrderAcceptView* OR (transaction.name : *SbermmOrderNewView*) OR (transaction.name : *BaseImportOrderService*) OR (transaction.name: "GET https://marketplace-api.wildberries.ru/api/v3/orders/new") OR (transaction.name: "GET https://marketplace-api.wildberries.ru/api/v3/dbs/orders/new")) AND user.name: %s`

	ltsStocksLucene    = `((processor.event:"transaction" AND service.environment: "prod" AND (transaction.name:/.*stock_changes.*/ OR transaction.name: *api\/products\/stocks*  OR transaction.name:*offers\/stocks* )) OR (transaction.name: /.*GET.*Stock.*/ AND http.response.status_code: 200) OR (transaction.name:/.*seller.*/ AND transaction.name:/.*stocks.*/) OR (transaction.name: *api.aptekamos.ru\/Price\/WPrice\/WimportPrices*)) AND service.name: ("ecom" OR "ecom-polza") AND user.name: %s`
	latestStocksLucene = `((processor.event:"transaction" AND service.environment: "selectel-prod-latest" AND (transaction.name:/.*stock_changes.*/ OR transaction.name: *api\/products\/stocks*  OR transaction.name:*offers\/stocks* )) OR (transaction.name: /.*GET.*Stock.*/ AND http.response.status_code: 200) OR (transaction.name:/.*seller.*/ AND transaction.name:/.*stocks.*/) OR (transaction.name: *api.aptekamos.ru\/Price\/WPrice\/WimportPrices*) OR (transaction.name: *\/api\/v3\/stocks\/*)) AND service.name: ("ecom" OR "ecom-polza") AND user.name: %s`

	ltsPricesLucene    = `((processor.event:"transaction" AND transaction.name: /POST.*price.*/ AND NOT transaction.name: /.*ECommerceInternalAPI.*/) OR (transaction.name: /.*GET.*Stock.*/ AND http.response.status_code: 200 AND NOT user.name: sozvezdie)) AND user.name: %s`
	latestPricesLucene = `((processor.event:"transaction" AND transaction.name: /POST.*price.*/ AND NOT transaction.name: /.*ECommerceInternalAPI.*/) OR (transaction.name: /.*GET.*Stock.*/ AND http.response.status_code: 200 AND NOT user.name: sozvezdie) OR (transaction.name: *\/api\/v2\/upload\/task*)) AND user.name: %s`
)

var signalLucene = map[models.Signal]map[models.Env]string{
	models.SignalOrders: {
		models.EnvLTS:    ltsOrdersLucene,
		models.EnvLatest: latestOrdersLucene,
		models.EnvPolza:  latestOrdersLucene,
	},
	models.SignalStocks: {
		models.EnvLTS:    ltsStocksLucene,
		models.EnvLatest: latestStocksLucene,
		models.EnvPolza:  latestStocksLucene,
	},
	models.SignalPrices: {
		models.EnvLTS:    ltsPricesLucene,
		models.EnvLatest: latestPricesLucene,
		models.EnvPolza:  latestPricesLucene,
	},
}
