package mbo

import (
	"container/list"

	"github.com/tidwall/btree"
)

// bookDegree is the B-tree node fan-out for the price ladders. 32 keeps
// node scans cache-friendly without the tree growing too deep for the
// handful of active levels a real book carries.
const bookDegree = 32

// priceLevel is the FIFO queue of live orders resting at one price. A level
// exists in the ladder map iff its list is non-empty — Book never leaves an
// empty level behind.
type priceLevel struct {
	orders *list.List // of order
}

func newPriceLevel() *priceLevel {
	return &priceLevel{orders: list.New()}
}

func (l *priceLevel) totalQty() (sum int64, count int64) {
	for e := l.orders.Front(); e != nil; e = e.Next() {
		sum += int64(e.Value.(order).qty)
		count++
	}
	return
}

// Book is a two-sided, price-time-priority limit order book for one
// instrument. Bids and asks are each a btree.Map keyed by tick price;
// bids are walked in reverse (highest first), asks forward (lowest first).
// The index gives O(1) lookup of an order's level and list position for
// cancel/modify.
type Book struct {
	symbol string
	bids   *btree.Map[int64, *priceLevel]
	asks   *btree.Map[int64, *priceLevel]
	index  map[int64]orderRef
}

// NewBook creates an empty book for symbol. symbol may be empty and set
// later by reconstructing the book once the feed's symbol column is known.
func NewBook(symbol string) *Book {
	return &Book{
		symbol: symbol,
		bids:   btree.NewMap[int64, *priceLevel](bookDegree),
		asks:   btree.NewMap[int64, *priceLevel](bookDegree),
		index:  make(map[int64]orderRef),
	}
}

// Symbol returns the book's instrument symbol.
func (b *Book) Symbol() string { return b.symbol }

func (b *Book) ladder(side Side) *btree.Map[int64, *priceLevel] {
	if side == SideBid {
		return b.bids
	}
	return b.asks
}

// Apply mutates the book according to e.Action. It never fails: malformed
// or out-of-sequence events become no-ops rather than errors.
func (b *Book) Apply(e Event) {
	switch e.Action {
	case ActionTrade, ActionFill, ActionNone:
		return
	case ActionReset:
		b.clear()
		return
	case ActionAdd:
		if e.Side != SideAsk && e.Side != SideBid {
			return
		}
		b.add(e)
	case ActionCancel:
		if e.Side != SideAsk && e.Side != SideBid {
			return
		}
		b.cancel(e)
	case ActionModify:
		if e.Side != SideAsk && e.Side != SideBid {
			return
		}
		b.modify(e)
	default:
		// unknown action code: ignore
	}
}

func (b *Book) clear() {
	b.bids = btree.NewMap[int64, *priceLevel](bookDegree)
	b.asks = btree.NewMap[int64, *priceLevel](bookDegree)
	b.index = make(map[int64]orderRef)
}

// removeIndexed erases ref's order from its level (and the level itself, if
// now empty) and deletes the index entry. Caller already holds ref.
func (b *Book) removeIndexed(orderID int64, ref orderRef) {
	ladder := b.ladder(ref.side)
	if lvl, ok := ladder.Get(ref.px); ok {
		lvl.orders.Remove(ref.elem)
		if lvl.orders.Len() == 0 {
			ladder.Delete(ref.px)
		}
	}
	delete(b.index, orderID)
}

func (b *Book) add(e Event) {
	// Defensive reset: a duplicate order id is dropped and re-added fresh.
	if ref, ok := b.index[e.OrderID]; ok {
		b.removeIndexed(e.OrderID, ref)
	}

	ladder := b.ladder(e.Side)
	lvl, ok := ladder.Get(e.Price)
	if !ok {
		lvl = newPriceLevel()
		ladder.Set(e.Price, lvl)
	}
	elem := lvl.orders.PushBack(order{orderID: e.OrderID, price: e.Price, qty: e.Size})
	b.index[e.OrderID] = orderRef{side: e.Side, px: e.Price, elem: elem}
}

func (b *Book) cancel(e Event) {
	ref, ok := b.index[e.OrderID]
	if !ok {
		return // unknown order id: no-op
	}

	ladder := b.ladder(ref.side)
	lvl, ok := ladder.Get(ref.px)
	if !ok {
		// inconsistent state recovery: drop the stale index entry
		delete(b.index, e.OrderID)
		return
	}

	o := ref.elem.Value.(order)
	if e.Size >= o.qty {
		o.qty = 0
	} else {
		o.qty -= e.Size
	}

	if o.qty == 0 {
		lvl.orders.Remove(ref.elem)
		delete(b.index, e.OrderID)
		if lvl.orders.Len() == 0 {
			ladder.Delete(ref.px)
		}
		return
	}
	ref.elem.Value = o
}

func (b *Book) modify(e Event) {
	ref, ok := b.index[e.OrderID]
	if !ok {
		// Unknown order id: treat as an add (matches upstream MBO semantics
		// where a modify can legitimately arrive before its add, e.g. on a
		// fresh book snapshot boundary).
		b.add(e)
		return
	}

	if e.Side != ref.side {
		return // side mismatch: ignore
	}

	old := ref.elem.Value.(order)

	if e.Price != ref.px {
		// Price change forfeits priority: move to the tail of the new level.
		ladder := b.ladder(ref.side)
		if oldLvl, ok := ladder.Get(ref.px); ok {
			oldLvl.orders.Remove(ref.elem)
			if oldLvl.orders.Len() == 0 {
				ladder.Delete(ref.px)
			}
		}

		newLvl, ok := ladder.Get(e.Price)
		if !ok {
			newLvl = newPriceLevel()
			ladder.Set(e.Price, newLvl)
		}
		elem := newLvl.orders.PushBack(order{orderID: e.OrderID, price: e.Price, qty: e.Size})
		b.index[e.OrderID] = orderRef{side: ref.side, px: e.Price, elem: elem}
		return
	}

	if e.Size > old.qty {
		// Size increase forfeits priority at the same price.
		ladder := b.ladder(ref.side)
		lvl, ok := ladder.Get(ref.px)
		if !ok {
			return
		}
		lvl.orders.Remove(ref.elem)
		elem := lvl.orders.PushBack(order{orderID: e.OrderID, price: ref.px, qty: e.Size})
		b.index[e.OrderID] = orderRef{side: ref.side, px: ref.px, elem: elem}
		return
	}

	// Decrease or unchanged: update quantity in place, keep position.
	old.qty = e.Size
	ref.elem.Value = old
}
