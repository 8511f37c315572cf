package export

import (
	"bufio"
	"io"
	"strconv"

	"slrz.net/fabtopo/routing"
)

// RoutingHeader is the first line of a routing table file.
const RoutingHeader = "nodeid, lid:portnum, lid:portnum, ...."

// WriteRouting writes one line per switch, ordered by GUID: the switch GUID
// followed by its lid:port pairs in ascending LID order.
func WriteRouting(w io.Writer, ts routing.Tables) error {
	bw := bufio.NewWriter(w)
	bw.WriteString(RoutingHeader)
	bw.WriteByte('\n')

	for _, t := range ts.Switches() {
		bw.WriteString(t.Switch)
		bw.WriteByte(',')
		for i, e := range t.Entries() {
			if i > 0 {
				bw.WriteByte(',')
			}
			bw.WriteString(strconv.Itoa(e.LID))
			bw.WriteByte(':')
			bw.WriteString(strconv.Itoa(e.Port))
		}
		bw.WriteByte('\n')
	}
	return bw.Flush()
}
