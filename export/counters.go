package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"slrz.net/fabtopo/snapshot"
)

// CounterHeaders are the column headers of a counter table.
var CounterHeaders = []string{"node_id", "port_idx", "rcv_data"}

// RcvDataScale converts raw PortRcvData values, which count 32-bit words,
// into bytes.
const RcvDataScale = 4

// WriteCounters writes one CSV row per port that has receive data, in input
// order. Ports without data are left out.
func WriteCounters(w io.Writer, counters []snapshot.Counter) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(CounterHeaders); err != nil {
		return fmt.Errorf("writing CSV header: %w", err)
	}
	for _, c := range counters {
		if c.RcvData == nil {
			continue
		}
		row := []string{
			c.GUID,
			strconv.Itoa(c.Port),
			strconv.FormatUint(*c.RcvData*RcvDataScale, 10),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("writing CSV row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}
