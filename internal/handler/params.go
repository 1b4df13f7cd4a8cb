package handler

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

func intQuery(c *gin.Context, key string, def int) int {
	if val := c.Query(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return def
}

// floatQueryPtr parses a decimal query value; absent or invalid values are nil.
func floatQueryPtr(c *gin.Context, key string) *float64 {
	if val := strings.TrimSpace(c.Query(key)); val != "" {
		if d, err := decimal.NewFromString(val); err == nil {
			f, _ := d.Float64()
			return &f
		}
	}
	return nil
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func cursorMeta(limit int, nextCursor string, total int) map[string]any {
	var next any
	if nextCursor != "" {
		next = nextCursor
	}
	return map[string]any{
		"limit":       limit,
		"next_cursor": next,
		"total":       total,
		"has_next":    nextCursor != "",
	}
}
