package model

// Currency 账户的基础币种
type Currency string

const (
	CurrencyUSD Currency = "USD"
	CurrencyJPN Currency = "JPN"
	CurrencyAUD Currency = "AUD"
	CurrencyCNY Currency = "CNY"
	CurrencyEUR Currency = "EUR"
	CurrencyGBP Currency = "GBP"
	CurrencyHKD Currency = "HKD"
	CurrencySGD Currency = "SGD"
)

var supportedCurrencies = map[Currency]struct{}{
	CurrencyUSD: {},
	CurrencyJPN: {},
	CurrencyAUD: {},
	CurrencyCNY: {},
	CurrencyEUR: {},
	CurrencyGBP: {},
	CurrencyHKD: {},
	CurrencySGD: {},
}

// Valid 是否为系统支持的币种
func (c Currency) Valid() bool {
	_, ok := supportedCurrencies[c]
	return ok
}

func (c Currency) String() string {
	return string(c)
}
