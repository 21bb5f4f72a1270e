package quote

// Update is one decoded push frame: a batch of records for a single data
// service. Kind discriminates the service for consumers that multiplex
// several services over one channel.
type Update struct {
	Kind    string
	Records []Record
}

// Record is a single instrument's quote with wire field codes renamed to
// their semantic names. Timestamp is the frame time in UTC, truncated to
// second precision.
type Record struct {
	Timestamp string
	Fields    map[string]string
}

func (r Record) Symbol() string {
	return r.Fields["Symbol"]
}
