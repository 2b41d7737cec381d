package bizerr

import (
	"errors"
	"fmt"
)

// Kind 业务错误类型，每种类型对应一个稳定的错误码
type Kind int

const (
	KindInternal Kind = iota
	KindParamIllegal
	KindUserNotExist
	KindRateNotSupported
	KindTransferTypeNotSupported
	KindInsufficientBalance
	KindOptimisticLockMaxRetryExceeded
	KindDuplicateRequest
	KindRateLimitExceeded
	KindCircuitOpen
)

// 错误码（对外稳定，客户端依赖这些值）
const (
	CodeParamIllegal                   = "4001"
	CodeUserNotExist                   = "4008"
	CodeRateNotSupported               = "4009"
	CodeInsufficientBalance            = "4010"
	CodeOptimisticLockMaxRetryExceeded = "4011"
	CodeDuplicateRequest               = "4012"
	CodeCircuitOpen                    = "4013"
	CodeRateLimitExceeded              = "4014"
	CodeTransferTypeNotSupported       = "4015"
	CodeInternal                       = "5000"
)

const (
	MsgRateNotSupported               = "not support rate!"
	MsgInsufficientBalance            = "Insufficient balance"
	MsgOptimisticLockMaxRetryExceeded = "max retry exceeded due to optimistic locking!"
	MsgCircuitOpen                    = "service temporarily unavailable due to circuit breaker."
	MsgRateLimitExceeded              = "Too many requests, please try again later."
	MsgInternal                       = "internal server error!"
)

var codes = map[Kind]string{
	KindInternal:                       CodeInternal,
	KindParamIllegal:                   CodeParamIllegal,
	KindUserNotExist:                   CodeUserNotExist,
	KindRateNotSupported:               CodeRateNotSupported,
	KindTransferTypeNotSupported:       CodeTransferTypeNotSupported,
	KindInsufficientBalance:            CodeInsufficientBalance,
	KindOptimisticLockMaxRetryExceeded: CodeOptimisticLockMaxRetryExceeded,
	KindDuplicateRequest:               CodeDuplicateRequest,
	KindRateLimitExceeded:              CodeRateLimitExceeded,
	KindCircuitOpen:                    CodeCircuitOpen,
}

var names = map[Kind]string{
	KindInternal:                       "Internal",
	KindParamIllegal:                   "ParamIllegal",
	KindUserNotExist:                   "UserNotExist",
	KindRateNotSupported:               "RateNotSupported",
	KindTransferTypeNotSupported:       "TransferTypeNotSupported",
	KindInsufficientBalance:            "InsufficientBalance",
	KindOptimisticLockMaxRetryExceeded: "OptimisticLockMaxRetryExceeded",
	KindDuplicateRequest:               "DuplicateRequest",
	KindRateLimitExceeded:              "RateLimitExceeded",
	KindCircuitOpen:                    "CircuitOpen",
}

func (k Kind) String() string {
	if n, ok := names[k]; ok {
		return n
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Code 返回错误类型对应的错误码
func (k Kind) Code() string {
	if c, ok := codes[k]; ok {
		return c
	}
	return CodeInternal
}

// Error 业务错误：带错误码和可直接展示给调用方的信息
type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("[%s] %s", e.Kind.Code(), e.Message)
}

// Code 错误码
func (e *Error) Code() string {
	return e.Kind.Code()
}

// Is 同类型的业务错误视为相等，便于 errors.Is(err, bizerr.ErrCircuitOpen) 这种写法
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && (t.Message == "" || t.Message == e.Message)
}

func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// 只带类型不带信息的哨兵错误，用于 errors.Is 判断类型
var (
	ErrParamIllegal                   = &Error{Kind: KindParamIllegal}
	ErrUserNotExist                   = &Error{Kind: KindUserNotExist}
	ErrRateNotSupported               = &Error{Kind: KindRateNotSupported}
	ErrTransferTypeNotSupported       = &Error{Kind: KindTransferTypeNotSupported}
	ErrInsufficientBalance            = &Error{Kind: KindInsufficientBalance}
	ErrOptimisticLockMaxRetryExceeded = &Error{Kind: KindOptimisticLockMaxRetryExceeded}
	ErrDuplicateRequest               = &Error{Kind: KindDuplicateRequest}
	ErrRateLimitExceeded              = &Error{Kind: KindRateLimitExceeded}
	ErrCircuitOpen                    = &Error{Kind: KindCircuitOpen}
)

func ParamIllegal(message string) *Error {
	return New(KindParamIllegal, message)
}

func UserNotExist(message string) *Error {
	return New(KindUserNotExist, message)
}

func RateNotSupported() *Error {
	return New(KindRateNotSupported, MsgRateNotSupported)
}

func TransferTypeNotSupported(transferType, fromCurrency, toCurrency string) *Error {
	return New(KindTransferTypeNotSupported,
		fmt.Sprintf("not support transfer type: %s, fromCurrency:%s, toCurrency:%s", transferType, fromCurrency, toCurrency))
}

func InsufficientBalance() *Error {
	return New(KindInsufficientBalance, MsgInsufficientBalance)
}

func OptimisticLockMaxRetryExceeded() *Error {
	return New(KindOptimisticLockMaxRetryExceeded, MsgOptimisticLockMaxRetryExceeded)
}

func DuplicateRequest(requestID string) *Error {
	return New(KindDuplicateRequest, fmt.Sprintf("Duplicate request, requestId: %s", requestID))
}

func RateLimitExceeded() *Error {
	return New(KindRateLimitExceeded, MsgRateLimitExceeded)
}

func CircuitOpen() *Error {
	return New(KindCircuitOpen, MsgCircuitOpen)
}

// KindOf 取出错误链上的业务错误类型；非业务错误一律视为 KindInternal
func KindOf(err error) Kind {
	var be *Error
	if errors.As(err, &be) {
		return be.Kind
	}
	return KindInternal
}

// IsBusinessRule 业务规则错误：重试不会改变结果，也不代表下游故障
func IsBusinessRule(err error) bool {
	switch KindOf(err) {
	case KindParamIllegal, KindUserNotExist, KindRateNotSupported,
		KindTransferTypeNotSupported, KindInsufficientBalance:
		return true
	}
	return false
}

// Resolve 把任意错误转换为对外的 (错误码, 错误信息)
// 非业务错误不暴露任何内部细节
func Resolve(err error) (string, string) {
	var be *Error
	if errors.As(err, &be) && be.Kind != KindInternal {
		return be.Code(), be.Message
	}
	return CodeInternal, MsgInternal
}
