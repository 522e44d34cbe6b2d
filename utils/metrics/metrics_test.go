package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestMetrics(t *testing.T) {
	t.Run("gin middleware labels by route template", func(t *testing.T) {
		gin.SetMode(gin.TestMode)
		router := gin.New()
		router.Use(GinMiddleware())
		router.GET("/v1/kyc/:address/status", func(c *gin.Context) {
			c.Status(http.StatusOK)
		})

		before := testutil.ToFloat64(httpRequests.WithLabelValues("GET", "/v1/kyc/:address/status", "200"))

		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/v1/kyc/0xabc/status", nil)
		router.ServeHTTP(w, req)

		after := testutil.ToFloat64(httpRequests.WithLabelValues("GET", "/v1/kyc/:address/status", "200"))
		assert.Equal(t, before+1, after)
	})

	t.Run("contract tx outcomes", func(t *testing.T) {
		before := testutil.ToFloat64(contractTxs.WithLabelValues("withdraw", "error"))
		RecordContractTx("withdraw", errors.New("reverted"))
		RecordContractTx("withdraw", nil)
		assert.Equal(t, before+1, testutil.ToFloat64(contractTxs.WithLabelValues("withdraw", "error")))
	})

	t.Run("gauges", func(t *testing.T) {
		SetWithdrawalsTotal(decimal.RequireFromString("12.5"))
		SetContractBalance(decimal.NewFromInt(4))
		assert.Equal(t, 12.5, testutil.ToFloat64(withdrawalsTotal))
		assert.Equal(t, 4.0, testutil.ToFloat64(contractBalance))
	})

	t.Run("handler exposes registry", func(t *testing.T) {
		RecordLogQuery("ok")
		w := httptest.NewRecorder()
		Handler().ServeHTTP(w, httptest.NewRequest("GET", "/metrics", nil))
		assert.Equal(t, http.StatusOK, w.Code)
		assert.True(t, strings.Contains(w.Body.String(), "mirakyc_rpc_log_queries_total"))
	})
}
