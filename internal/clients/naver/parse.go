package naver

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"gamestock/internal/weekly"
)

// numberPattern extracts comma-grouped number runs from portal text.
var numberPattern = regexp.MustCompile(`[\d,]+`)

// parseDailyTable reads the daily quote table (class "type2"). Column layout:
// date, close, change, open, high, low, volume. Padding rows and rows with an
// empty or "-" close are skipped.
func parseDailyTable(doc *goquery.Document, maxRows int) []weekly.DailyBar {
	var bars []weekly.DailyBar

	doc.Find("table.type2 tr").Each(func(i int, row *goquery.Selection) {
		if maxRows > 0 && len(bars) >= maxRows {
			return
		}

		cells := row.Find("td")
		if cells.Length() < 6 {
			return
		}

		dateText := strings.TrimSpace(cells.Eq(0).Text())
		date, err := time.Parse(weekly.AnchorDateFormat, dateText)
		if err != nil {
			return
		}

		closeText := cellNumber(cells.Eq(1))
		if closeText == "" || closeText == "-" {
			return
		}
		closePrice, err := strconv.ParseInt(closeText, 10, 64)
		if err != nil {
			return
		}

		high, err := strconv.ParseInt(cellNumber(cells.Eq(4)), 10, 64)
		if err != nil {
			return
		}
		low, err := strconv.ParseInt(cellNumber(cells.Eq(5)), 10, 64)
		if err != nil {
			return
		}

		volume := int64(0)
		if cells.Length() > 6 {
			if v, err := strconv.ParseInt(cellNumber(cells.Eq(6)), 10, 64); err == nil {
				volume = v
			}
		}

		bars = append(bars, weekly.DailyBar{
			Date:   date,
			Close:  closePrice,
			High:   high,
			Low:    low,
			Volume: volume,
		})
	})

	return bars
}

func cellNumber(cell *goquery.Selection) string {
	return strings.ReplaceAll(strings.TrimSpace(cell.Text()), ",", "")
}

// parseMarketCap looks for the market cap on the item main page, in units of
// 100M KRW ("억원"). The primary location is em#_market_sum; if the page
// layout shifted, any table cell labelled 시가총액 is used instead. Values
// quoted in 조 are combined with the 억 remainder: "35조 7,118" -> 357,118.
func parseMarketCap(doc *goquery.Document) (int64, bool) {
	if text := strings.TrimSpace(doc.Find("em#_market_sum").Text()); text != "" {
		if v, ok := parseCapText(text); ok {
			return v, true
		}
	}

	// Fallback: scan tables for a 시가총액 label and read the next cell.
	found := int64(0)
	ok := false
	doc.Find("table tr").EachWithBreak(func(i int, row *goquery.Selection) bool {
		cells := row.Find("td, th")
		for j := 0; j < cells.Length()-1; j++ {
			if !strings.Contains(cells.Eq(j).Text(), "시가총액") {
				continue
			}
			if v, parsed := parseCapText(cells.Eq(j + 1).Text()); parsed {
				found, ok = v, true
				return false
			}
		}
		return true
	})

	return found, ok
}

// parseCapText converts portal market cap text to units of 100M KRW.
func parseCapText(text string) (int64, bool) {
	text = strings.TrimSpace(text)
	numbers := numberPattern.FindAllString(text, -1)
	if len(numbers) == 0 {
		return 0, false
	}

	first, err := strconv.ParseInt(strings.ReplaceAll(numbers[0], ",", ""), 10, 64)
	if err != nil {
		return 0, false
	}

	if !strings.Contains(text, "조") {
		return first, true
	}

	// 1조 == 10,000억. The remainder after 조, when present, is already in 억.
	total := first * 10000
	if len(numbers) > 1 {
		if rest, err := strconv.ParseInt(strings.ReplaceAll(numbers[1], ",", ""), 10, 64); err == nil {
			total += rest
		}
	}
	return total, true
}
