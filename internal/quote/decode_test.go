package quote

import (
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/valyala/fastjson"
)

func TestDecodeEquities(t *testing.T) {
	v := fastjson.MustParse(`{
		"service": "LEVELONE_EQUITIES",
		"timestamp": 1700000000000,
		"content": [{"key": "AAPL", "1": "100.1", "2": "100.2"}]
	}`)

	upd := DecodeEquities(v)
	require.Equal(t, "Equities", upd.Kind)
	require.Len(t, upd.Records, 1)

	rec := upd.Records[0]
	require.Equal(t, "2023-11-14 22:13:20", rec.Timestamp)
	require.Equal(t, "AAPL", rec.Symbol())
	require.Equal(t, "100.1", rec.Fields["Bid Price"])
	require.Equal(t, "100.2", rec.Fields["Ask Price"])
}

func TestDecodeEquitiesMultipleRecords(t *testing.T) {
	v := fastjson.MustParse(`{
		"service": "LEVELONE_EQUITIES",
		"timestamp": 1700000000000,
		"content": [
			{"key": "AAPL", "3": "190.0"},
			{"key": "MSFT", "3": "370.5"}
		]
	}`)

	upd := DecodeEquities(v)
	require.Len(t, upd.Records, 2)
	require.Equal(t, "AAPL", upd.Records[0].Symbol())
	require.Equal(t, "MSFT", upd.Records[1].Symbol())
	require.Equal(t, upd.Records[0].Timestamp, upd.Records[1].Timestamp)
}

func TestDecodeEquitiesUnknownFieldPassthrough(t *testing.T) {
	v := fastjson.MustParse(`{
		"service": "LEVELONE_EQUITIES",
		"timestamp": 1700000000000,
		"content": [{"key": "AAPL", "999": "7"}]
	}`)

	upd := DecodeEquities(v)
	require.Len(t, upd.Records, 1)
	require.Equal(t, "7", upd.Records[0].Fields["999"])
}

func TestDecodeEquitiesNumericValues(t *testing.T) {
	v := fastjson.MustParse(`{
		"service": "LEVELONE_EQUITIES",
		"timestamp": 1700000000000,
		"content": [{"key": "AAPL", "8": 1234567}]
	}`)

	upd := DecodeEquities(v)
	require.Equal(t, "1234567", upd.Records[0].Fields["Total Volume"])
}

func TestFieldListEquities(t *testing.T) {
	codes := make([]string, 52)
	for n := range codes {
		codes[n] = strconv.Itoa(n)
	}
	require.Equal(t, strings.Join(codes, ","), FieldList(LevelOneEquities))
}

func TestFieldListEmptyTable(t *testing.T) {
	require.Equal(t, "", FieldList(LevelOneOptions))
	require.Equal(t, "", FieldList(LevelOneForex))
}
