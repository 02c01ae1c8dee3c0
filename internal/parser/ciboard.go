package parser

import (
	"fmt"
	"regexp"

	"notice_bot/internal/models"
)

// CIBoard разбирает доски CodeIgniter Board (/board/{board_name}, ссылки /post/{id}).
type CIBoard struct{}

var ciboardRows = []string{
	"table.gitav_table_skin1 tbody tr",
	"table.board tbody tr",
	"table tbody tr",
}

var ciboardIDs = []*regexp.Regexp{regexp.MustCompile(`/post/(\d+)`)}

func (CIBoard) Kind() models.Kind { return models.KindCIBoard }

func (CIBoard) Parse(raw []byte, src models.Source) (*Page, error) {
	doc, err := newDocument(raw, src)
	if err != nil {
		return nil, err
	}
	l := layout{ids: ciboardIDs, viewURL: ciboardViewURL, resolve: ciboardListURL(src)}
	return l.fromSelectors(doc, src, ciboardRows)
}

func ciboardListURL(src models.Source) string {
	return fmt.Sprintf("%s/board/%s", trimBase(src), src.Param("board_name", "department_notice"))
}

func ciboardViewURL(src models.Source, id string) string {
	return fmt.Sprintf("%s/post/%s", trimBase(src), id)
}
