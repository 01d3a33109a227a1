package mbo

import "container/list"

// order is a resting order inside one price level's FIFO queue. It is the
// value type stored in each list.Element; the index below holds the
// *list.Element handle that makes cancel/modify-in-place O(1).
type order struct {
	orderID int64
	price   int64
	qty     int32
}

// orderRef is the index entry for one active order: which side and price
// level it rests on, plus the O(1) erase handle into that level's list.
type orderRef struct {
	side Side
	px   int64
	elem *list.Element
}
