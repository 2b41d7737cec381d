package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"fxtransfer/internal/config"
	"fxtransfer/internal/model"
	"fxtransfer/internal/repository/memory"
	"fxtransfer/internal/service"
	"fxtransfer/pkg/money"
	"fxtransfer/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestRouter(t *testing.T) *gin.Engine {
	r, _ := newTestRouterWithStore(t)
	return r
}

func newTestRouterWithStore(t *testing.T) (*gin.Engine, *memory.Store) {
	t.Helper()
	cfg, err := config.Load("")
	require.NoError(t, err)
	cfg.Transfer.EnableCrossCurrency = true

	store := memory.NewStore()
	accounts := service.NewAccountService(store, store.FxRates())
	require.NoError(t, accounts.Seed(context.Background()))
	transfers := service.NewTransferServiceFromConfig(store, store.FxRates(), cfg, zap.NewNop())

	return SetupRouter(NewHandler(transfers, accounts)), store
}

func do(t *testing.T, r http.Handler, method, path, body string) (*httptest.ResponseRecorder, response.Response) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var resp response.Response
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	}
	return w, resp
}

func TestTransfer_Success(t *testing.T) {
	r, store := newTestRouterWithStore(t)
	carol := &model.Account{Name: "Carol", Currency: model.CurrencyUSD, Balance: money.Zero}
	require.NoError(t, store.Accounts().Create(context.Background(), carol))

	body := fmt.Sprintf(`{"request_id":"ok1","from_id":1,"to_id":%d,"amount":"50","transfer_currency":"USD"}`, carol.ID)
	w, resp := do(t, r, http.MethodPost, "/api/v1/transfer", body)
	assert.Equal(t, http.StatusOK, w.Code)
	require.True(t, resp.Success, resp.ErrorMessage)
	data := resp.Data.(map[string]interface{})
	assert.Equal(t, "SAME", data["transfer_type"])
	assert.Equal(t, "0.50", data["fee"])
	assert.Equal(t, "50.50", data["total_debit"])

	_, resp = do(t, r, http.MethodGet, "/api/v1/account/1", "")
	assert.Equal(t, "949.50", resp.Data.(map[string]interface{})["balance"])

	_, resp = do(t, r, http.MethodGet, fmt.Sprintf("/api/v1/account/%d/transfers", carol.ID), "")
	assert.Equal(t, float64(1), resp.Data.(map[string]interface{})["total"])
}

func TestTransfer_RateNotSupported(t *testing.T) {
	r := newTestRouter(t)
	// 种子数据：1 = Alice USD 1000，2 = Bob JPN 500
	w, resp := do(t, r, http.MethodPost, "/api/v1/transfer",
		`{"request_id":"h1","from_id":1,"to_id":2,"amount":"10","transfer_currency":"USD"}`)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.False(t, resp.Success)
	assert.Equal(t, "4009", resp.ErrorCode)
	assert.Equal(t, "not support rate!", resp.ErrorMessage)
	assert.NotEmpty(t, w.Header().Get(HeaderRequestID))
}

func TestTransfer_SameAccount(t *testing.T) {
	r := newTestRouter(t)
	w, resp := do(t, r, http.MethodPost, "/api/v1/transfer",
		`{"request_id":"h2","from_id":1,"to_id":1,"amount":10,"transfer_currency":"USD"}`)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "4001", resp.ErrorCode)
	assert.Equal(t, "same account transfer not allowed", resp.ErrorMessage)
}

func TestTransfer_BindingErrors(t *testing.T) {
	r := newTestRouter(t)
	for _, body := range []string{
		`{}`,
		`{"request_id":"x","from_id":1,"to_id":2,"transfer_currency":"USD"}`,
		`{"request_id":"x","from_id":1,"to_id":2,"amount":"abc","transfer_currency":"USD"}`,
		`not json`,
	} {
		_, resp := do(t, r, http.MethodPost, "/api/v1/transfer", body)
		assert.False(t, resp.Success, body)
		assert.Equal(t, "4001", resp.ErrorCode, body)
		// 不向调用方暴露绑定器的内部报错
		assert.Contains(t, []string{"invalid request parameters", "invalid amount"}, resp.ErrorMessage, body)
		assert.NotContains(t, resp.ErrorMessage, "Key:", body)
	}
}

func TestGetAccount(t *testing.T) {
	r := newTestRouter(t)

	_, resp := do(t, r, http.MethodGet, "/api/v1/account/1", "")
	require.True(t, resp.Success)
	data := resp.Data.(map[string]interface{})
	assert.Equal(t, "Alice", data["name"])
	assert.Equal(t, "1000.00", data["balance"])
	assert.Equal(t, "USD", data["currency"])

	_, resp = do(t, r, http.MethodGet, "/api/v1/account/99", "")
	assert.Equal(t, "4008", resp.ErrorCode)

	_, resp = do(t, r, http.MethodGet, "/api/v1/account/abc", "")
	assert.Equal(t, "4001", resp.ErrorCode)
}

func TestListTransfers(t *testing.T) {
	r := newTestRouter(t)

	_, resp := do(t, r, http.MethodGet, "/api/v1/account/1/transfers", "")
	require.True(t, resp.Success)
	data := resp.Data.(map[string]interface{})
	assert.Equal(t, float64(0), data["total"])
}

func TestHealthAndCORS(t *testing.T) {
	r := newTestRouter(t)

	w, _ := do(t, r, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, w.Code)

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/transfer", nil)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestRequestIDPassthrough(t *testing.T) {
	r := newTestRouter(t)
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(HeaderRequestID, "trace-123")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "trace-123", w.Header().Get(HeaderRequestID))
}

func TestRecoveryMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestIDMiddleware(), RecoveryMiddleware())
	r.GET("/boom", func(c *gin.Context) { panic("boom") })

	w, resp := do(t, r, http.MethodGet, "/boom", "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "5000", resp.ErrorCode)
	assert.Equal(t, "internal server error!", resp.ErrorMessage)
}
