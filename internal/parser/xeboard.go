package parser

import (
	"fmt"
	"regexp"

	"notice_bot/internal/models"
)

// XEBoard разбирает модули досок XpressEngine (/{mid}, документы /{mid}/{document_srl}).
type XEBoard struct{}

var xeRows = []string{
	"table.bd_lst tbody tr",
	"table.bd_tb_lst tbody tr",
	"table.bd_tb tbody tr",
}

var xeIDs = []*regexp.Regexp{
	regexp.MustCompile(`document_srl=(\d+)`),
	regexp.MustCompile(`/(\d+)(?:[?#]|$)`),
}

func (XEBoard) Kind() models.Kind { return models.KindXEBoard }

func (XEBoard) Parse(raw []byte, src models.Source) (*Page, error) {
	doc, err := newDocument(raw, src)
	if err != nil {
		return nil, err
	}
	l := layout{ids: xeIDs, viewURL: xeViewURL, resolve: xeListURL(src)}
	return l.fromSelectors(doc, src, xeRows)
}

func xeListURL(src models.Source) string {
	return fmt.Sprintf("%s/%s", trimBase(src), src.Param("mid", ""))
}

func xeViewURL(src models.Source, id string) string {
	return fmt.Sprintf("%s/%s/%s", trimBase(src), src.Param("mid", ""), id)
}
