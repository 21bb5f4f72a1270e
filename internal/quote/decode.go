package quote

import (
	"github.com/valyala/fastjson"

	"levelone/internal/common/timestamp"
)

// DecodeEquities decodes one LEVELONE_EQUITIES element of a push frame's
// data array into an Update. Every content element shares the frame-level
// timestamp. Field codes missing from the table pass through under their
// original key so unexpected wire changes stay visible.
func DecodeEquities(v *fastjson.Value) Update {
	ts := timestamp.Milli(v.GetInt64("timestamp")).Format("2006-01-02 15:04:05")

	content := v.GetArray("content")
	records := make([]Record, 0, len(content))
	for _, ticker := range content {
		rec := Record{
			Timestamp: ts,
			Fields:    make(map[string]string),
		}
		obj, err := ticker.Object()
		if err != nil {
			continue
		}
		obj.Visit(func(key []byte, v *fastjson.Value) {
			name, ok := equityFields[string(key)]
			if !ok {
				name = string(key)
			}
			rec.Fields[name] = valueString(v)
		})
		records = append(records, rec)
	}
	return Update{Kind: "Equities", Records: records}
}

func valueString(v *fastjson.Value) string {
	if v.Type() == fastjson.TypeString {
		return string(v.GetStringBytes())
	}
	return v.String()
}
