package models

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// TokenSnapshot is the latest merged view of a token. One row per chain and address.
type TokenSnapshot struct {
	Chain        string          `gorm:"primaryKey;type:text"`
	Address      string          `gorm:"primaryKey;type:text"`
	Ticker       string          `gorm:"type:text;index"`
	Protocol     string          `gorm:"type:text"`
	PriceNative  decimal.Decimal `gorm:"type:numeric(38,18);not null"`
	VolumeNative decimal.Decimal `gorm:"type:numeric(38,18);not null"`
	Payload      datatypes.JSON  `gorm:"type:jsonb;not null"`
	UpdatedAt    time.Time       `gorm:"type:timestamptz;not null;index"`
}

func (TokenSnapshot) TableName() string {
	return "token_latest"
}

// NewTokenSnapshot keys the row by lower-cased chain and address so lookups
// are case-insensitive.
func NewTokenSnapshot(t Token, now time.Time) (TokenSnapshot, error) {
	payload, err := json.Marshal(t)
	if err != nil {
		return TokenSnapshot{}, fmt.Errorf("encode token %s: %w", t.Address, err)
	}
	chain := strings.ToLower(strings.TrimSpace(t.Chain))
	if chain == "" {
		chain = DefaultChain
	}
	return TokenSnapshot{
		Chain:        chain,
		Address:      strings.ToLower(strings.TrimSpace(t.Address)),
		Ticker:       t.Ticker,
		Protocol:     t.Protocol,
		PriceNative:  decimal.NewFromFloat(t.PriceNative),
		VolumeNative: decimal.NewFromFloat(t.VolumeNative),
		Payload:      datatypes.JSON(payload),
		UpdatedAt:    now,
	}, nil
}

func (s TokenSnapshot) Token() (Token, error) {
	var t Token
	if err := json.Unmarshal(s.Payload, &t); err != nil {
		return Token{}, fmt.Errorf("decode token %s: %w", s.Address, err)
	}
	return t, nil
}
