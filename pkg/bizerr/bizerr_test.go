package bizerr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolve(t *testing.T) {
	code, msg := Resolve(ParamIllegal("same account transfer not allowed"))
	assert.Equal(t, CodeParamIllegal, code)
	assert.Equal(t, "same account transfer not allowed", msg)

	code, msg = Resolve(fmt.Errorf("dispatch: %w", InsufficientBalance()))
	assert.Equal(t, CodeInsufficientBalance, code)
	assert.Equal(t, MsgInsufficientBalance, msg)

	code, msg = Resolve(errors.New("dial tcp 10.0.0.1:3306: connection refused"))
	assert.Equal(t, CodeInternal, code)
	assert.Equal(t, MsgInternal, msg)
}

func TestErrorsIs_MatchesByKind(t *testing.T) {
	err := fmt.Errorf("wrapped: %w", DuplicateRequest("req-1"))

	assert.True(t, errors.Is(err, ErrDuplicateRequest))
	assert.False(t, errors.Is(err, ErrCircuitOpen))
	assert.Equal(t, KindDuplicateRequest, KindOf(err))
	assert.Equal(t, "Duplicate request, requestId: req-1", err.(interface{ Unwrap() error }).Unwrap().(*Error).Message)
}

func TestIsBusinessRule(t *testing.T) {
	assert.True(t, IsBusinessRule(UserNotExist("from account not exist")))
	assert.True(t, IsBusinessRule(TransferTypeNotSupported("CROSS", "USD", "JPN")))
	assert.False(t, IsBusinessRule(OptimisticLockMaxRetryExceeded()))
	assert.False(t, IsBusinessRule(CircuitOpen()))
	assert.False(t, IsBusinessRule(errors.New("boom")))
}

func TestCodes_AreDistinct(t *testing.T) {
	seen := map[string]Kind{}
	for kind := KindInternal; kind <= KindCircuitOpen; kind++ {
		code := kind.Code()
		_, dup := seen[code]
		assert.False(t, dup, "duplicate code %s for %s", code, kind)
		seen[code] = kind
	}
}
