package parser

import (
	"regexp"

	"github.com/PuerkitoBio/goquery"
)

var (
	authorCells = "td.writer, td.author, td.td_writer, .board_writer, .writer, .author"
	digitsOnly  = regexp.MustCompile(`^\d+$`)
)

// rowAuthor ищет автора по роли ячейки: сначала по классу writer/author,
// иначе это ячейка прямо перед датой, если между заголовком и датой что-то есть.
// Раскладки: [№, заголовок, автор, дата, просмотры] и [№, категория, заголовок, автор, дата, просмотры].
func rowAuthor(row, link *goquery.Selection) string {
	if cell := row.Find(authorCells).First(); cell.Length() > 0 {
		return collapse(cell.Text())
	}

	cells := row.ChildrenFiltered("td, div, span")
	titleIdx, dateIdx := -1, -1
	cells.EachWithBreak(func(i int, cell *goquery.Selection) bool {
		if titleIdx < 0 {
			if cell.Contains(link.Get(0)) {
				titleIdx = i
			}
			return true
		}
		if _, ok := dateCell(cell); ok {
			dateIdx = i
			return false
		}
		return true
	})
	if titleIdx < 0 || dateIdx-titleIdx < 2 {
		return ""
	}

	text := collapse(cells.Eq(dateIdx - 1).Text())
	if text == "-" || digitsOnly.MatchString(text) {
		return ""
	}
	return text
}
