package handler

import (
	"encoding/json"
	"strconv"
	"time"

	"fxtransfer/internal/model"
	"fxtransfer/internal/service"
	"fxtransfer/pkg/money"
	"fxtransfer/pkg/response"

	"github.com/gin-gonic/gin"
)

// Handler 统一处理器，包含所有服务依赖
type Handler struct {
	transferService *service.TransferService
	accountService  *service.AccountService
}

func NewHandler(transferService *service.TransferService, accountService *service.AccountService) *Handler {
	return &Handler{
		transferService: transferService,
		accountService:  accountService,
	}
}

// ============================================================
// 转账接口
// ============================================================

// TransferRequest 转账请求，amount 可以是数字或字符串
type TransferRequest struct {
	RequestID        string      `json:"request_id" binding:"required,max=64"` // 幂等ID
	FromID           int64       `json:"from_id" binding:"required,gt=0"`
	ToID             int64       `json:"to_id" binding:"required,gt=0"`
	Amount           json.Number `json:"amount" binding:"required"`
	TransferCurrency string      `json:"transfer_currency" binding:"required"`
}

type TransferResponse struct {
	TransferNo      string `json:"transfer_no"`
	FromAccountID   int64  `json:"from_account_id"`
	ToAccountID     int64  `json:"to_account_id"`
	TransferType    string `json:"transfer_type"`
	Amount          string `json:"amount"`
	Fee             string `json:"fee"`
	TotalDebit      string `json:"total_debit"`
	FxRate          string `json:"fx_rate"`
	ConvertedAmount string `json:"converted_amount"`
}

// Transfer 转账
// POST /api/v1/transfer
func (h *Handler) Transfer(c *gin.Context) {
	var req TransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, "invalid request parameters")
		return
	}

	amount, err := money.Parse(req.Amount.String())
	if err != nil {
		response.ParamError(c, "invalid amount")
		return
	}

	result, err := h.transferService.Transfer(c.Request.Context(), &model.TransferRequest{
		RequestID:        req.RequestID,
		FromID:           req.FromID,
		ToID:             req.ToID,
		Amount:           amount,
		TransferCurrency: model.Currency(req.TransferCurrency),
	})
	if err != nil {
		response.Fail(c, err)
		return
	}

	response.Success(c, TransferResponse{
		TransferNo:      result.TransferNo,
		FromAccountID:   result.FromAccountID,
		ToAccountID:     result.ToAccountID,
		TransferType:    string(result.TransferType),
		Amount:          result.Amount.StringFixed(money.Scale),
		Fee:             result.Fee.StringFixed(money.Scale),
		TotalDebit:      result.TotalDebit.StringFixed(money.Scale),
		FxRate:          result.FxRate.String(),
		ConvertedAmount: result.ConvertedAmount.StringFixed(money.Scale),
	})
}

// ============================================================
// 账户相关接口
// ============================================================

// GetAccount 查询账户
// GET /api/v1/account/:id
func (h *Handler) GetAccount(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	account, err := h.accountService.GetAccount(c.Request.Context(), id)
	if err != nil {
		response.Fail(c, err)
		return
	}

	response.Success(c, gin.H{
		"id":       account.ID,
		"name":     account.Name,
		"balance":  account.Balance.StringFixed(money.Scale),
		"currency": account.Currency,
		"version":  account.Version,
	})
}

// ListTransfers 查询账户流水
// GET /api/v1/account/:id/transfers?page=1&page_size=20
func (h *Handler) ListTransfers(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))

	logs, total, err := h.accountService.ListTransfers(c.Request.Context(), id, page, pageSize)
	if err != nil {
		response.Fail(c, err)
		return
	}

	list := make([]gin.H, 0, len(logs))
	for _, l := range logs {
		list = append(list, gin.H{
			"transfer_no":      l.TransferNo,
			"request_id":       l.RequestID,
			"from_account_id":  l.FromAccountID,
			"from_currency":    l.FromCurrency,
			"to_account_id":    l.ToAccountID,
			"to_currency":      l.ToCurrency,
			"amount":           l.Amount.StringFixed(money.Scale),
			"fee":              l.Fee.StringFixed(money.Scale),
			"fx_rate":          l.FxRate.String(),
			"converted_amount": l.ConvertedAmount.StringFixed(money.Scale),
			"created_at":       l.CreatedAt.Format(time.RFC3339),
		})
	}

	response.Success(c, gin.H{
		"list":  list,
		"total": total,
		"page":  page,
	})
}

func pathID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		response.ParamError(c, "invalid account id")
		return 0, false
	}
	return id, true
}
