package quote

import (
	"strconv"
	"strings"
)

type Service string

const (
	LevelOneEquities       Service = "LEVELONE_EQUITIES"
	LevelOneOptions        Service = "LEVELONE_OPTIONS"
	LevelOneFutures        Service = "LEVELONE_FUTURES"
	LevelOneFuturesOptions Service = "LEVELONE_FUTURES_OPTIONS"
	LevelOneForex          Service = "LEVELONE_FOREX"
)

// equityFields maps the wire protocol's positional field codes to their
// semantic names. Downstream consumers key on these exact names.
var equityFields = map[string]string{
	"key": "Symbol",
	"1":   "Bid Price",
	"2":   "Ask Price",
	"3":   "Last Price",
	"4":   "Bid Size",
	"5":   "Ask Size",
	"6":   "Ask ID",
	"7":   "Bid ID",
	"8":   "Total Volume",
	"9":   "Last Size",
	"10":  "High Price",
	"11":  "Low Price",
	"12":  "Close Price",
	"13":  "Exchange ID",
	"14":  "Marginable",
	"15":  "Description",
	"16":  "Last ID",
	"17":  "Open Price",
	"18":  "Net Change",
	"19":  "52 Week High",
	"20":  "52 Week Low",
	"21":  "PE Ratio",
	"22":  "Annual Dividend Amount",
	"23":  "Dividend Yield",
	"24":  "NAV",
	"25":  "Exchange Name",
	"26":  "Dividend Date",
	"27":  "Regular Market Quote",
	"28":  "Regular Market Trade",
	"29":  "Regular Market Last Price",
	"30":  "Regular Market Last Size",
	"31":  "Regular Market Net Change",
	"32":  "Security Status",
	"33":  "Mark Price",
	"34":  "Quote Time in Long",
	"35":  "Trade Time in Long",
	"36":  "Regular Market Trade Time in Long",
	"37":  "Bid Time",
	"38":  "Ask Time",
	"39":  "Ask MIC ID",
	"40":  "Bid MIC ID",
	"41":  "Last MIC ID",
	"42":  "Net Percent Change",
	"43":  "Regular Market Percent Change",
	"44":  "Mark Price Net Change",
	"45":  "Mark Price Percent Change",
	"46":  "Hard to Borrow Quantity",
	"47":  "Hard To Borrow Rate",
	"48":  "Hard to Borrow",
	"49":  "shortable",
	"50":  "Post-Market Net Change",
	"51":  "Post-Market Percent Change",
}

// Field tables for the remaining level-one services. Extension points,
// not yet populated: frames for these services are dropped upstream.
var (
	optionFields         = map[string]string{}
	futuresFields        = map[string]string{}
	futuresOptionsFields = map[string]string{}
	forexFields          = map[string]string{}
)

func fields(service Service) map[string]string {
	switch service {
	case LevelOneEquities:
		return equityFields
	case LevelOneOptions:
		return optionFields
	case LevelOneFutures:
		return futuresFields
	case LevelOneFuturesOptions:
		return futuresOptionsFields
	case LevelOneForex:
		return forexFields
	}
	return nil
}

// FieldList returns the comma-joined list of numeric field codes to request
// for a service, generated from its field table.
func FieldList(service Service) string {
	table := fields(service)
	max := -1
	for key := range table {
		n, err := strconv.Atoi(key)
		if err != nil {
			continue
		}
		if n > max {
			max = n
		}
	}
	var b strings.Builder
	for n := 0; n <= max; n++ {
		if n > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.Itoa(n))
	}
	return b.String()
}
