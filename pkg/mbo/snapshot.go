package mbo

import (
	"encoding/json"
	"fmt"
)

// tickPrice renders as a bare JSON number with exactly four fractional
// digits (e.g. 648.3000), matching the "px_f" contract: numeric, not a
// quoted string, and round(px_f*10000) == px by construction.
type tickPrice int64

func (p tickPrice) MarshalJSON() ([]byte, error) {
	return []byte(formatPxF(int64(p))), nil
}

// levelDTO is one depth-limited price level as emitted in a snapshot.
type levelDTO struct {
	Px  int64     `json:"px"`
	PxF tickPrice `json:"px_f"`
	Sz  int64     `json:"sz"`
	Ct  int64     `json:"ct"`
}

// snapshotDTO is the wire shape of Book.ToJSON's result. Symbol is omitted
// entirely when empty, matching the original implementation's conditional
// field rather than emitting `"symbol":""`.
type snapshotDTO struct {
	Symbol string     `json:"symbol,omitempty"`
	Bids   []levelDTO `json:"bids"`
	Asks   []levelDTO `json:"asks"`
}

func formatPxF(ticks int64) string {
	neg := ticks < 0
	if neg {
		ticks = -ticks
	}
	whole := ticks / 10000
	frac := ticks % 10000
	sign := ""
	if neg {
		sign = "-"
	}
	return fmt.Sprintf("%s%d.%04d", sign, whole, frac)
}

func collectLevels(ladder interface {
	Scan(func(int64, *priceLevel) bool)
	Reverse(func(int64, *priceLevel) bool)
}, descending bool, depth int) []levelDTO {
	out := make([]levelDTO, 0, depth)
	visit := func(px int64, lvl *priceLevel) bool {
		if len(out) >= depth {
			return false
		}
		sum, count := lvl.totalQty()
		out = append(out, levelDTO{Px: px, PxF: tickPrice(px), Sz: sum, Ct: count})
		return true
	}
	if descending {
		ladder.Reverse(visit)
	} else {
		ladder.Scan(visit)
	}
	return out
}

// ToJSON renders the top depth levels of each side, best price first. depth
// must be >= 1; pass a very large depth (e.g. 1_000_000) to dump the whole
// book.
func (b *Book) ToJSON(depth int) (string, error) {
	if depth < 1 {
		depth = 1
	}

	dto := snapshotDTO{
		Symbol: b.symbol,
		Bids:   collectLevels(b.bids, true, depth),
		Asks:   collectLevels(b.asks, false, depth),
	}
	out, err := json.Marshal(dto)
	if err != nil {
		return "", fmt.Errorf("marshal snapshot: %w", err)
	}
	return string(out), nil
}
