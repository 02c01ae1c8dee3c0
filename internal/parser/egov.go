package parser

import (
	"fmt"
	"regexp"
	"strings"

	"notice_bot/internal/models"
)

// Egov разбирает доски на eGovFramework (selectBbsNttList.do).
// Строки - однотипные <tr> таблицы списка, идентификатор - параметр nttNo в ссылке.
type Egov struct{}

var egovRows = []string{
	"table.board-list tbody tr",
	"table.bbs-list tbody tr",
	".boardList tbody tr",
	"table tbody tr",
}

var egovIDs = []*regexp.Regexp{
	regexp.MustCompile(`nttNo=(\d+)`),
	regexp.MustCompile(`/(\d+)(?:\.do)?/?(?:[?#]|$)`),
}

func (Egov) Kind() models.Kind { return models.KindEgov }

func (Egov) Parse(raw []byte, src models.Source) (*Page, error) {
	doc, err := newDocument(raw, src)
	if err != nil {
		return nil, err
	}
	l := layout{ids: egovIDs, viewURL: egovViewURL, resolve: egovListURL(src)}
	return l.fromSelectors(doc, src, egovRows)
}

func egovListURL(src models.Source) string {
	return fmt.Sprintf("%s?bbsNo=%s&key=%s&pageUnit=%s&pageIndex=1",
		src.BaseURL, src.Param("bbsNo", ""), src.Param("key", ""), src.Param("pageUnit", "10"))
}

func egovViewURL(src models.Source, id string) string {
	base := strings.Replace(src.BaseURL, "selectBbsNttList.do", "selectBbsNttView.do", 1)
	return fmt.Sprintf("%s?bbsNo=%s&key=%s&nttNo=%s", base, src.Param("bbsNo", ""), src.Param("key", ""), id)
}
