package replay

import (
	"strings"
	"time"
)

// eventTimestampLayout matches "YYYY-MM-DDTHH:MM:SS[.fffffffff]" as used
// in the feed's ts_event column once an optional trailing "Z" is removed;
// time.Parse tolerates the fractional part being absent or having anywhere
// from 1 to 9 digits via the fractional-second directive.
const eventTimestampLayout = "2006-01-02T15:04:05.999999999"

// parseEventTimestampUS parses an MBO ts_event column as UTC and converts
// to microseconds since the epoch. Unparseable input yields 0, which
// callers treat as "suppress the DB/feed writes for this snapshot".
func parseEventTimestampUS(ts string) int64 {
	t, err := time.Parse(eventTimestampLayout, strings.TrimSuffix(ts, "Z"))
	if err != nil {
		return 0
	}
	return t.UnixMicro()
}
