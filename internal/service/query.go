package service

import (
	"encoding/base64"
	"errors"
	"sort"
	"strconv"
	"strings"

	"tokenagg/internal/models"
)

var (
	ErrUnsupportedSortField  = errors.New("unsupported sort field")
	ErrUnsupportedSortOrder  = errors.New("unsupported sort order")
	ErrUnsupportedTimePeriod = errors.New("unsupported time period")
)

// Filter keeps tokens matching every set predicate.
func Filter(tokens []models.Token, spec models.FilterSpec) ([]models.Token, error) {
	if spec.TimePeriod != "" && !spec.TimePeriod.Valid() {
		return nil, ErrUnsupportedTimePeriod
	}
	out := make([]models.Token, 0, len(tokens))
	for _, t := range tokens {
		if spec.MinVolume != nil && t.VolumeNative < *spec.MinVolume {
			continue
		}
		if spec.MinLiquidity != nil && t.LiquidityNative < *spec.MinLiquidity {
			continue
		}
		if spec.Protocol != "" && t.Protocol != spec.Protocol {
			continue
		}
		if spec.TimePeriod != "" {
			change := changeFor(t, spec.TimePeriod)
			if change == nil || *change == 0 {
				continue
			}
		}
		out = append(out, t)
	}
	return out, nil
}

func changeFor(t models.Token, period models.TimePeriod) *float64 {
	switch period {
	case models.Period1h:
		return t.PriceChange1h
	case models.Period24h:
		return t.PriceChange24h
	case models.Period7d:
		return t.PriceChange7d
	}
	return nil
}

// Sort returns a sorted copy. Equal keys keep their input order.
func Sort(tokens []models.Token, spec models.SortSpec) ([]models.Token, error) {
	if !spec.Field.Valid() {
		return nil, ErrUnsupportedSortField
	}
	order := spec.Order
	if order == "" {
		order = models.OrderDesc
	}
	if order != models.OrderAsc && order != models.OrderDesc {
		return nil, ErrUnsupportedSortOrder
	}

	sorted := make([]models.Token, len(tokens))
	copy(sorted, tokens)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sortValue(sorted[i], spec.Field), sortValue(sorted[j], spec.Field)
		if order == models.OrderAsc {
			return a < b
		}
		return a > b
	})
	return sorted, nil
}

func sortValue(t models.Token, field models.SortField) float64 {
	switch field {
	case models.SortVolume:
		return t.VolumeNative
	case models.SortMarketCap:
		return t.MarketCapNative
	case models.SortLiquidity:
		return t.LiquidityNative
	case models.SortTransactionCount:
		return float64(t.TransactionCount)
	case models.SortPriceChange:
		if t.PriceChange24h != nil {
			return *t.PriceChange24h
		}
		if t.PriceChange1h != nil {
			return *t.PriceChange1h
		}
	}
	return 0
}

// Paginate slices one page starting at the cursor offset. NextCursor is set
// only when more items follow.
func Paginate(tokens []models.Token, req models.PageRequest) models.Page {
	limit := req.Limit
	if limit < 0 {
		limit = 0
	}
	start := DecodeCursor(req.Cursor)
	if start > len(tokens) {
		start = len(tokens)
	}
	end := start + limit
	if end > len(tokens) {
		end = len(tokens)
	}
	page := models.Page{
		Tokens: append([]models.Token(nil), tokens[start:end]...),
		Total:  len(tokens),
	}
	if page.Tokens == nil {
		page.Tokens = []models.Token{}
	}
	if start+limit < len(tokens) {
		page.NextCursor = EncodeCursor(start + limit)
	}
	return page
}

func EncodeCursor(offset int) string {
	return base64.StdEncoding.EncodeToString([]byte(strconv.Itoa(offset)))
}

// DecodeCursor returns 0 for empty, malformed or negative cursors.
func DecodeCursor(cursor string) int {
	cursor = strings.TrimSpace(cursor)
	if cursor == "" {
		return 0
	}
	raw, err := base64.StdEncoding.DecodeString(cursor)
	if err != nil {
		return 0
	}
	offset, err := strconv.Atoi(strings.TrimSpace(string(raw)))
	if err != nil || offset < 0 {
		return 0
	}
	return offset
}
