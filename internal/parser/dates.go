package parser

import (
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/araddon/dateparse"
)

// Доски публикуют время по Корее.
var kst = time.FixedZone("KST", 9*60*60)

var dateLike = regexp.MustCompile(`^(\d{2,4}[-./]\d{1,2}([-./]\d{1,2})?(\s+\d{1,2}:\d{2}(:\d{2})?)?|\d{1,2}:\d{2})$`)

var fullLayouts = []string{
	"2006-01-02",
	"2006.01.02",
	"2006/01/02",
	"2006-1-2",
	"2006.1.2",
	"2006-01-02 15:04",
	"2006-01-02 15:04:05",
	"2006.01.02 15:04",
	"06-01-02",
	"06.01.02",
}

var shortLayouts = []string{"01-02", "01.02", "1-2", "1.2", "01/02"}

// rowDate находит в строке первую ячейку, целиком похожую на дату, и разбирает её.
// Отсутствующая или нераспознанная дата даёт nil: строка всё равно попадает в результат.
func rowDate(row *goquery.Selection) *time.Time {
	var out *time.Time
	row.Find("td, div, span").EachWithBreak(func(_ int, cell *goquery.Selection) bool {
		text, ok := dateCell(cell)
		if !ok {
			return true
		}
		out = parseDate(text, time.Now().In(kst))
		return out == nil
	})
	return out
}

func dateCell(cell *goquery.Selection) (string, bool) {
	text := strings.TrimSuffix(collapse(cell.Text()), ".")
	return text, dateLike.MatchString(text)
}

func parseDate(s string, now time.Time) *time.Time {
	s = strings.TrimSuffix(strings.TrimSpace(s), ".")
	if s == "" {
		return nil
	}

	for _, layout := range fullLayouts {
		if t, err := time.ParseInLocation(layout, s, kst); err == nil {
			return &t
		}
	}

	// Месяц и день без года: текущий год, либо прошлый, если дата ещё не наступила.
	for _, layout := range shortLayouts {
		if t, err := time.ParseInLocation(layout, s, kst); err == nil {
			d := time.Date(now.Year(), t.Month(), t.Day(), 0, 0, 0, 0, kst)
			if d.After(now) {
				d = d.AddDate(-1, 0, 0)
			}
			return &d
		}
	}

	// Только время - запись опубликована сегодня.
	if t, err := time.ParseInLocation("15:04", s, kst); err == nil {
		d := time.Date(now.Year(), now.Month(), now.Day(), t.Hour(), t.Minute(), 0, 0, kst)
		return &d
	}

	if t, err := dateparse.ParseIn(s, kst); err == nil {
		return &t
	}
	return nil
}
