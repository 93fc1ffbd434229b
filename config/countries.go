package config

import (
	"fmt"
	"maps"
	"slices"
	"strings"
)

// EICListURL lists the codes of every bidding zone.
const EICListURL = "https://www.entsoe.eu/data/energy-identification-codes-eic/eic-approved-codes"

// Countries maps a country or zone name to the EIC code of its day-ahead bidding zone.
var Countries = map[string]string{
	"Albania":          "10YAL-KESH-----5",
	"Armenia":          "10Y1001A1001B004",
	"Austria":          "10YAT-APG------L",
	"Azerbaijan":       "10Y1001A1001B05V",
	"Belgium":          "10YBE----------2",
	"Bosnia and Herz":  "10YBA-JPCC-----D",
	"Czech Republic":   "10YCZ-CEPS-----N",
	"Denmark":          "10Y1001A1001A65H",
	"DK1":              "10YDK-1--------W",
	"DK2":              "10YDK-2--------M",
	"Estonia":          "10Y1001A1001A39I",
	"Finland":          "10YFI-1--------U",
	"France":           "10YFR-RTE------C",
	"Georgia":          "10Y1001A1001B012",
	"Germany":          "10Y1001A1001A82H", // DE-LU
	"Hungary":          "10YHU-MAVIR----U",
	"Italy":            "10YIT-GRTN-----B",
	"Kosovo":           "10Y1001C--00100H",
	"Latvia":           "10YLV-1001A00074",
	"Lithuania":        "10YLT-1001A0008Q",
	"Malta":            "10Y1001A1001A93C",
	"Moldova":          "10Y1001A1001A990",
	"Netherlands":      "10YNL----------L",
	"NO1":              "10YNO-1--------2",
	"Poland":           "10YPL-AREA-----S",
	"Portugal":         "10YPT-REN------W",
	"SE1":              "10Y1001A1001A44P",
	"SE2":              "10Y1001A1001A45N",
	"SE3":              "10Y1001A1001A46L",
	"SE4":              "10Y1001A1001A47J",
	"Slovenia":         "10YSI-ELES-----O",
	"Spain":            "10YES-REE------0",
	"Switzerland":      "10YCH-SWISSGRIDZ",
	"Ukraine":          "10Y1001C--00003F",
	"United Kingdom":   "10Y1001A1001A92E",
}

// AreaForCountry looks a name up case-insensitively.
func AreaForCountry(country string) (string, error) {
	if country == "" {
		return "", fmt.Errorf("neither entsoe.area nor entsoe.country is set, find the EIC code of your bidding zone at %s", EICListURL)
	}
	for name, eic := range Countries {
		if strings.EqualFold(name, strings.TrimSpace(country)) {
			return eic, nil
		}
	}
	return "", fmt.Errorf("unknown country %q, known are %s, or set entsoe.area to an EIC code from %s",
		country, strings.Join(slices.Sorted(maps.Keys(Countries)), ", "), EICListURL)
}
