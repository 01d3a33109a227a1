package mbo

import (
	"encoding/json"
	"fmt"

	"github.com/govalues/decimal"
)

// priceScaleDigits is the number of fractional decimal digits a tick price
// represents (ticks are dollars * 10^4).
const priceScaleDigits = 4

func ticksToDecimal(ticks int64) decimal.Decimal {
	return decimal.MustNew(ticks, priceScaleDigits)
}

// TopOfBook is the best-bid/best-offer view of a Book. Mid and Spread are
// only meaningful when both HasBid and HasAsk are true.
type TopOfBook struct {
	HasBid bool
	HasAsk bool
	BidPx  decimal.Decimal
	BidSz  int64
	AskPx  decimal.Decimal
	AskSz  int64
	Mid    decimal.Decimal
	Spread decimal.Decimal
}

// TopOfBook computes the current best bid/offer. It never fails: an empty
// side simply leaves Has{Bid,Ask} false and the corresponding fields zero.
func (b *Book) TopOfBook() TopOfBook {
	var tob TopOfBook

	b.bids.Reverse(func(px int64, lvl *priceLevel) bool {
		sz, _ := lvl.totalQty()
		tob.HasBid = true
		tob.BidPx = ticksToDecimal(px)
		tob.BidSz = sz
		return false
	})
	b.asks.Scan(func(px int64, lvl *priceLevel) bool {
		sz, _ := lvl.totalQty()
		tob.HasAsk = true
		tob.AskPx = ticksToDecimal(px)
		tob.AskSz = sz
		return false
	})

	if tob.HasBid && tob.HasAsk {
		sum, err := tob.BidPx.Add(tob.AskPx)
		if err == nil {
			if mid, err := sum.Quo(decimal.MustNew(2, 0)); err == nil {
				tob.Mid = mid
			}
		}
		if spread, err := tob.AskPx.Sub(tob.BidPx); err == nil {
			tob.Spread = spread
		}
	}

	return tob
}

// nullableDecimal marshals to a bare JSON number, or the literal `null`
// when the side it represents is absent.
type nullableDecimal struct {
	present bool
	v       decimal.Decimal
}

func (n nullableDecimal) MarshalJSON() ([]byte, error) {
	if !n.present {
		return []byte("null"), nil
	}
	return []byte(n.v.String()), nil
}

type bboDTO struct {
	Symbol string          `json:"symbol,omitempty"`
	Bid    nullableDecimal `json:"bid"`
	BidSz  *int64          `json:"bid_sz,omitempty"`
	Ask    nullableDecimal `json:"ask"`
	AskSz  *int64          `json:"ask_sz,omitempty"`
}

// ToJSONBBO renders the top-of-book as `{"bid":null|number,"ask":...}`.
func (b *Book) ToJSONBBO() (string, error) {
	tob := b.TopOfBook()
	dto := bboDTO{Symbol: b.symbol}
	if tob.HasBid {
		dto.Bid = nullableDecimal{present: true, v: tob.BidPx}
		dto.BidSz = &tob.BidSz
	}
	if tob.HasAsk {
		dto.Ask = nullableDecimal{present: true, v: tob.AskPx}
		dto.AskSz = &tob.AskSz
	}
	out, err := json.Marshal(dto)
	if err != nil {
		return "", fmt.Errorf("marshal bbo: %w", err)
	}
	return string(out), nil
}

// ToPrettyBBO is a human-readable diagnostic line, never parsed by anything
// downstream.
func (b *Book) ToPrettyBBO() string {
	tob := b.TopOfBook()
	symbol := b.symbol
	if symbol == "" {
		symbol = "?"
	}
	switch {
	case tob.HasBid && tob.HasAsk:
		return fmt.Sprintf("[%s] bid %s x%d | ask %s x%d | mid %s spread %s",
			symbol, tob.BidPx.String(), tob.BidSz, tob.AskPx.String(), tob.AskSz,
			tob.Mid.String(), tob.Spread.String())
	case tob.HasBid:
		return fmt.Sprintf("[%s] bid %s x%d | ask -", symbol, tob.BidPx.String(), tob.BidSz)
	case tob.HasAsk:
		return fmt.Sprintf("[%s] bid - | ask %s x%d", symbol, tob.AskPx.String(), tob.AskSz)
	default:
		return fmt.Sprintf("[%s] bid - | ask -", symbol)
	}
}
