package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shopspring/decimal"
)

const namespace = "mirakyc"

var (
	// Registry holds the service's Prometheus collectors.
	Registry = prometheus.NewRegistry()

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests handled.",
		},
		[]string{"method", "path", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 12),
		},
		[]string{"method", "path"},
	)

	logQueries = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rpc_log_queries_total",
			Help:      "eth_getLogs calls by outcome.",
		},
		[]string{"outcome"},
	)

	logScanDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "log_scan_duration_seconds",
			Help:      "Duration of FundsWithdrawn log scans.",
			Buckets:   prometheus.ExponentialBuckets(0.25, 2, 10),
		},
	)

	contractTxs = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "contract_tx_total",
			Help:      "Contract writes by kind and outcome.",
		},
		[]string{"kind", "outcome"},
	)

	walletConnects = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "wallet_connect_total",
			Help:      "Wallet connection attempts by outcome.",
		},
		[]string{"outcome"},
	)

	withdrawalsTotal = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "withdrawals_total_usdt",
			Help:      "Sum of FundsWithdrawn amounts found by the last scan.",
		},
	)

	contractBalance = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "contract_balance_usdt",
			Help:      "Stablecoin balance held by the KYC contract.",
		},
	)
)

func init() {
	Registry.MustRegister(
		httpRequests,
		httpDuration,
		logQueries,
		logScanDuration,
		contractTxs,
		walletConnects,
		withdrawalsTotal,
		contractBalance,
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		prometheus.NewGoCollector(),
	)
}

// Handler returns an HTTP handler exposing the registered Prometheus metrics.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// GinMiddleware records request counts and latency using the matched route template
func GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.URL.Path == "/metrics" {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		method := c.Request.Method

		httpRequests.WithLabelValues(method, path, strconv.Itoa(c.Writer.Status())).Inc()
		httpDuration.WithLabelValues(method, path).Observe(time.Since(start).Seconds())
	}
}

// RecordLogQuery counts one eth_getLogs call. outcome is "ok" or an error class.
func RecordLogQuery(outcome string) {
	logQueries.WithLabelValues(outcome).Inc()
}

// ObserveLogScan records how long a full withdrawal scan took
func ObserveLogScan(duration time.Duration) {
	logScanDuration.Observe(duration.Seconds())
}

// RecordContractTx counts a contract write
func RecordContractTx(kind string, err error) {
	contractTxs.WithLabelValues(kind, outcome(err)).Inc()
}

// RecordWalletConnect counts a wallet connection attempt
func RecordWalletConnect(err error) {
	walletConnects.WithLabelValues(outcome(err)).Inc()
}

func SetWithdrawalsTotal(total decimal.Decimal) {
	withdrawalsTotal.Set(total.InexactFloat64())
}

func SetContractBalance(balance decimal.Decimal) {
	contractBalance.Set(balance.InexactFloat64())
}

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}
