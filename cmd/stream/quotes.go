package main

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"levelone/internal/quote"
)

// QuotesLoop drains the session's output channel, writing one line per
// record until the channel closes. Fields print sorted by name so output
// is stable across frames.
func QuotesLoop(quotes <-chan *quote.Update, w io.StringWriter) {
	var b strings.Builder
	for upd := range quotes {
		b.Reset()
		for _, rec := range upd.Records {
			names := make([]string, 0, len(rec.Fields))
			for name := range rec.Fields {
				if name != "Symbol" {
					names = append(names, name)
				}
			}
			sort.Strings(names)
			fmt.Fprintf(&b, "Q %s,%s,%s",
				upd.Kind,
				rec.Timestamp,
				strings.ToUpper(rec.Symbol()))
			for _, name := range names {
				fmt.Fprintf(&b, ",%s=%s", name, rec.Fields[name])
			}
			b.WriteByte('\n')
		}
		w.WriteString(b.String())
	}
}
