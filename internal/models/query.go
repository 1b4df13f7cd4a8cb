package models

type TimePeriod string

const (
	Period1h  TimePeriod = "1h"
	Period24h TimePeriod = "24h"
	Period7d  TimePeriod = "7d"
)

func (p TimePeriod) Valid() bool {
	switch p {
	case Period1h, Period24h, Period7d:
		return true
	}
	return false
}

// FilterSpec predicates are ANDed; nil or empty fields are ignored.
type FilterSpec struct {
	MinVolume    *float64   `json:"min_volume,omitempty"`
	MinLiquidity *float64   `json:"min_liquidity,omitempty"`
	Protocol     string     `json:"protocol,omitempty"`
	TimePeriod   TimePeriod `json:"time_period,omitempty"`
}

func (f FilterSpec) IsZero() bool {
	return f.MinVolume == nil && f.MinLiquidity == nil && f.Protocol == "" && f.TimePeriod == ""
}

type SortField string

const (
	SortVolume           SortField = "volume"
	SortMarketCap        SortField = "market_cap"
	SortLiquidity        SortField = "liquidity"
	SortTransactionCount SortField = "transaction_count"
	SortPriceChange      SortField = "price_change"
)

func (f SortField) Valid() bool {
	switch f {
	case SortVolume, SortMarketCap, SortLiquidity, SortTransactionCount, SortPriceChange:
		return true
	}
	return false
}

type SortOrder string

const (
	OrderAsc  SortOrder = "asc"
	OrderDesc SortOrder = "desc"
)

type SortSpec struct {
	Field SortField `json:"field"`
	Order SortOrder `json:"order"`
}

type PageRequest struct {
	Limit  int
	Cursor string
}

type Page struct {
	Tokens     []Token
	NextCursor string
	Total      int
}
