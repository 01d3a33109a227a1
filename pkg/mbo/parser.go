package mbo

import (
	"math"
	"strconv"
	"strings"

	"github.com/mbostream/mbobook/pkg/mboutil"
)

// minCSVFields is the minimum column count for a well-formed MBO line:
//
//	ts_recv,ts_event,rtype,publisher_id,instrument_id,action,side,price,
//	size,channel_id,order_id,flags,ts_in_delta,sequence,symbol
const minCSVFields = 15

const priceScale = 10000.0

const (
	fieldTsRecv       = 0
	fieldTsEvent      = 1
	fieldPublisherID  = 3
	fieldInstrumentID = 4
	fieldAction       = 5
	fieldSide         = 6
	fieldPrice        = 7
	fieldSize         = 8
	fieldOrderID      = 10
	fieldFlags        = 11
	fieldSymbol       = 14
)

// ParseLine converts one complete, unterminated MBO CSV line into an Event.
// It returns false if the line is empty, a header line, too short, or any
// required numeric field fails to parse — callers should drop the line and
// count it, never propagate an error for a single bad row.
func ParseLine(line string) (Event, bool) {
	line = strings.TrimSuffix(line, "\r")
	if line == "" {
		return Event{}, false
	}
	if strings.HasPrefix(line, "ts_recv,") {
		return Event{}, false
	}

	fields := strings.Split(line, ",")
	if len(fields) < minCSVFields {
		return Event{}, false
	}

	var e Event
	e.TsRecv = fields[fieldTsRecv]
	e.TsEvent = fields[fieldTsEvent]
	e.Symbol = fields[fieldSymbol]

	publisherID, ok := parseU32AsI32(fields[fieldPublisherID])
	if !ok {
		return Event{}, false
	}
	e.PublisherID = publisherID

	instrumentID, ok := parseU32AsI32(fields[fieldInstrumentID])
	if !ok {
		return Event{}, false
	}
	e.InstrumentID = instrumentID

	px, err := strconv.ParseFloat(fields[fieldPrice], 64)
	if err != nil {
		return Event{}, false
	}
	e.Price = int64(math.Round(px * priceScale))

	rawSize, err := strconv.ParseInt(fields[fieldSize], 10, 64)
	if err != nil {
		return Event{}, false
	}
	e.Size = mboutil.I64ToI32Clamped(rawSize)

	orderID, err := strconv.ParseInt(fields[fieldOrderID], 10, 64)
	if err != nil {
		return Event{}, false
	}
	e.OrderID = orderID

	flags, err := strconv.ParseUint(fields[fieldFlags], 10, 32)
	if err != nil {
		return Event{}, false
	}
	e.Flags = uint32(flags)

	e.Action = Action(firstByteOr(fields[fieldAction], byte(ActionNone)))
	e.Side = Side(firstByteOr(fields[fieldSide], byte(SideNone)))

	return e, true
}

// parseU32AsI32 parses a field that the wire format carries as an
// unsigned 32-bit integer (publisher/instrument ids) into Event's int32
// fields, rejecting values that wouldn't round-trip.
func parseU32AsI32(s string) (int32, bool) {
	v, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return 0, false
	}
	i, convErr := mboutil.U32ToI32(uint32(v))
	if convErr != nil {
		return 0, false
	}
	return i, true
}

func firstByteOr(s string, def byte) byte {
	if s == "" {
		return def
	}
	return s[0]
}
