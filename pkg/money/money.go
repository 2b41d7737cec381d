package money

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// ============================================================================
// 金额运算
// ============================================================================
//
// 所有金额统一使用 decimal 精确运算，保留两位小数，HALF_UP 舍入。
//
// 手续费和换汇后金额都从未舍入的原始乘积舍入一次；总扣款是本金加上
// 实际收取的手续费，保证 总扣款 - 本金 == 手续费：
//
//	fee        = round(amount * feeRate)
//	totalDebit = round(amount + fee)
//	converted  = round(amount * rate)
//
// 本金本身为两位小数时，round(amount + fee) 与 round(amount + amount * feeRate) 相同。
//
// ============================================================================

// Scale 金额保留的小数位数
const Scale = 2

var (
	Zero = decimal.Zero
	One  = decimal.NewFromInt(1)
)

// Round 保留两位小数。
// decimal.Round 对 .5 远离零舍入，金额非负时与 HALF_UP 一致。
func Round(d decimal.Decimal) decimal.Decimal {
	return d.Round(Scale)
}

// Fee 计算手续费
func Fee(amount, feeRate decimal.Decimal) decimal.Decimal {
	return Round(amount.Mul(feeRate))
}

// TotalDebit 计算转出方的总扣款（本金 + 手续费）
func TotalDebit(amount, feeRate decimal.Decimal) decimal.Decimal {
	return Round(amount.Add(Fee(amount, feeRate)))
}

// HasValidScale 金额小数位不超过两位
func HasValidScale(d decimal.Decimal) bool {
	return d.Equal(Round(d))
}

// Convert 按汇率换算到目标币种
func Convert(amount, rate decimal.Decimal) decimal.Decimal {
	return Round(amount.Mul(rate))
}

// Positive 金额是否大于 0
func Positive(d decimal.Decimal) bool {
	return d.GreaterThan(decimal.Zero)
}

// Parse 解析字符串金额
func Parse(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	return d, nil
}

// MustParse 解析失败直接 panic，只用于常量和测试数据
func MustParse(s string) decimal.Decimal {
	d, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return d
}
