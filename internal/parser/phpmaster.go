package parser

import (
	"fmt"
	"regexp"

	"notice_bot/internal/models"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// PhpMaster разбирает доски master.php, на которых сидит большинство кафедр.
// Список приходит фрагментом из module/board/_main.php; меню задаётся параметром pg_idx.
// Разметка между поддоменами кафедр немного отличается, поэтому строки ищутся
// по роли: элементы .board_rows, а если их нет - ближайшие tr/li вокруг ссылок с pidx.
type PhpMaster struct{}

var phpMasterIDs = []*regexp.Regexp{regexp.MustCompile(`pidx=(\d+)`)}

func (PhpMaster) Kind() models.Kind { return models.KindPhpMaster }

func (PhpMaster) Parse(raw []byte, src models.Source) (*Page, error) {
	doc, err := newDocument(raw, src)
	if err != nil {
		return nil, err
	}

	rows := phpMasterRows(doc)
	if len(rows) == 0 {
		return nil, &ParseError{SourceKey: src.Key, Reason: "notice list region with pidx links not found"}
	}

	l := layout{ids: phpMasterIDs, viewURL: phpMasterViewURL, resolve: PhpMasterMainURL(src)}
	page := l.collect(src, rows)
	if len(page.Notices) == 0 {
		return nil, &ParseError{SourceKey: src.Key, Reason: fmt.Sprintf("no notice could be extracted from %d rows", len(rows))}
	}
	return page, nil
}

func phpMasterRows(doc *goquery.Document) []*goquery.Selection {
	if rows := doc.Find(".board_rows"); rows.Length() > 0 {
		return selectionRows(rows)
	}

	var out []*goquery.Selection
	seen := make(map[*html.Node]struct{})
	doc.Find(`a[href*="pidx="]`).Each(func(_ int, a *goquery.Selection) {
		row := a.Closest("tr, li")
		if row.Length() == 0 {
			row = a.Parent()
		}
		node := row.Get(0)
		if _, ok := seen[node]; ok {
			return
		}
		seen[node] = struct{}{}
		out = append(out, row)
	})
	return out
}

// FormParams достаёт скрытые поля bidx и id со страницы меню; без них AJAX-список пуст.
func FormParams(raw []byte) (bidx, id string, err error) {
	doc, err := newDocument(raw, models.Source{})
	if err != nil {
		return "", "", err
	}
	bidx = doc.Find("input#bidx").AttrOr("value", "")
	if bidx == "" {
		bidx = "2"
	}
	id = doc.Find("input#id").AttrOr("value", "")
	return bidx, id, nil
}

// PhpMasterMainURL - страница меню с формой.
func PhpMasterMainURL(src models.Source) string {
	return fmt.Sprintf("%s/master.php?pg_idx=%s", trimBase(src), src.Param("pg_idx", ""))
}

// PhpMasterAjaxURL - обработчик, отдающий HTML-фрагмент списка.
func PhpMasterAjaxURL(src models.Source) string {
	return trimBase(src) + "/module/board/_main.php"
}

func phpMasterViewURL(src models.Source, id string) string {
	return fmt.Sprintf("%s/master.php?mod=view&pg_idx=%s&pidx=%s", trimBase(src), src.Param("pg_idx", ""), id)
}
