package response

import (
	"net/http"

	"fxtransfer/pkg/bizerr"

	"github.com/gin-gonic/gin"
)

// Response 统一响应结构；失败时 error_code / error_message 来自 bizerr.Resolve
type Response struct {
	Success      bool        `json:"success"`
	ErrorCode    string      `json:"error_code,omitempty"`
	ErrorMessage string      `json:"error_message,omitempty"`
	Data         interface{} `json:"data,omitempty"`
}

func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    data,
	})
}

// Fail 任意错误都转成稳定的错误码；非业务错误不暴露细节
func Fail(c *gin.Context, err error) {
	code, message := bizerr.Resolve(err)
	Error(c, code, message)
}

func Error(c *gin.Context, code string, message string) {
	c.JSON(http.StatusOK, Response{
		Success:      false,
		ErrorCode:    code,
		ErrorMessage: message,
	})
}

func ParamError(c *gin.Context, message string) {
	Error(c, bizerr.CodeParamIllegal, message)
}

// Abort 中断请求并返回错误，用于中间件
func Abort(c *gin.Context, status int, err error) {
	code, message := bizerr.Resolve(err)
	c.AbortWithStatusJSON(status, Response{
		Success:      false,
		ErrorCode:    code,
		ErrorMessage: message,
	})
}
