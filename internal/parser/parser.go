package parser

import (
	"bytes"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"notice_bot/internal/models"

	"github.com/PuerkitoBio/goquery"
)

// Page - результат разбора одной страницы-списка.
// Skipped - число строк, из которых не удалось извлечь идентификатор или заголовок.
type Page struct {
	Notices []models.Notice
	Skipped int
}

// Parser превращает сырые байты страницы в упорядоченный список объявлений.
// Реализации - чистые функции: без сети, без хранилища, без состояния прошлых прогонов.
type Parser interface {
	Kind() models.Kind
	Parse(raw []byte, src models.Source) (*Page, error)
}

// ParseError означает, что структура страницы не совпала с ожидаемой для варианта.
type ParseError struct {
	SourceKey string
	Reason    string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse [%s]: %s", e.SourceKey, e.Reason)
}

// For возвращает парсер для варианта разметки.
func For(kind models.Kind) (Parser, error) {
	switch kind {
	case models.KindEgov:
		return Egov{}, nil
	case models.KindPhpMaster:
		return PhpMaster{}, nil
	case models.KindCIBoard:
		return CIBoard{}, nil
	case models.KindXEBoard:
		return XEBoard{}, nil
	}
	return nil, fmt.Errorf("no parser registered for kind %q", kind)
}

// ListURL возвращает адрес страницы-списка, которую нужно загрузить для источника.
// Для php_master это страница меню; сам список приходит AJAX-запросом (см. PhpMasterAjaxURL).
func ListURL(src models.Source) string {
	switch src.Kind {
	case models.KindEgov:
		return egovListURL(src)
	case models.KindPhpMaster:
		return PhpMasterMainURL(src)
	case models.KindCIBoard:
		return ciboardListURL(src)
	case models.KindXEBoard:
		return xeListURL(src)
	}
	return src.BaseURL
}

// layout описывает, как из документа достать строки и как из строки собрать Notice.
type layout struct {
	ids     []*regexp.Regexp
	viewURL func(src models.Source, id string) string
	// resolve - адрес, относительно которого разрешаются href строк.
	resolve string
}

func newDocument(raw []byte, src models.Source) (*goquery.Document, error) {
	raw, err := DecodeHTML(raw, "")
	if err != nil {
		return nil, &ParseError{SourceKey: src.Key, Reason: fmt.Sprintf("decode charset: %v", err)}
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(raw))
	if err != nil {
		return nil, &ParseError{SourceKey: src.Key, Reason: fmt.Sprintf("parse html: %v", err)}
	}
	return doc, nil
}

// fromSelectors перебирает селекторы строк по порядку; побеждает первый,
// давший хотя бы одно объявление.
func (l layout) fromSelectors(doc *goquery.Document, src models.Source, selectors []string) (*Page, error) {
	sawRows := 0
	for _, sel := range selectors {
		rows := doc.Find(sel)
		if rows.Length() == 0 {
			continue
		}
		if rows.Length() > sawRows {
			sawRows = rows.Length()
		}

		page := l.collect(src, selectionRows(rows))
		if len(page.Notices) > 0 {
			return page, nil
		}
	}

	if sawRows == 0 {
		return nil, &ParseError{SourceKey: src.Key, Reason: "notice list rows not found"}
	}
	return nil, &ParseError{SourceKey: src.Key, Reason: fmt.Sprintf("no notice could be extracted from %d rows", sawRows)}
}

func selectionRows(rows *goquery.Selection) []*goquery.Selection {
	out := make([]*goquery.Selection, 0, rows.Length())
	rows.Each(func(_ int, row *goquery.Selection) {
		out = append(out, row)
	})
	return out
}

func (l layout) collect(src models.Source, rows []*goquery.Selection) *Page {
	page := &Page{}
	seen := make(map[string]struct{}, len(rows))

	for _, row := range rows {
		n, ok := l.notice(src, row)
		if !ok {
			page.Skipped++
			continue
		}
		if _, dup := seen[n.ExternalID]; dup {
			continue
		}
		seen[n.ExternalID] = struct{}{}
		page.Notices = append(page.Notices, n)
	}
	return page
}

func (l layout) notice(src models.Source, row *goquery.Selection) (models.Notice, bool) {
	link, id := l.link(row)
	if link == nil {
		return models.Notice{}, false
	}

	title := collapse(link.Text())
	if title == "" {
		t, _ := link.Attr("title")
		title = collapse(t)
	}
	if title == "" {
		return models.Notice{}, false
	}

	href, _ := link.Attr("href")
	return models.Notice{
		SourceKey:  src.Key,
		Title:      title,
		URL:        l.absolute(src, href, id),
		PostedAt:   rowDate(row),
		ExternalID: id,
		Author:     rowAuthor(row, link),
	}, true
}

// link ищет в строке ссылку, из href которой извлекается числовой идентификатор.
// Шаблоны проверяются по приоритету: сначала первый по всем ссылкам, затем следующий.
func (l layout) link(row *goquery.Selection) (*goquery.Selection, string) {
	anchors := row.Find("a[href]")
	for _, re := range l.ids {
		var (
			found *goquery.Selection
			id    string
		)
		anchors.EachWithBreak(func(_ int, a *goquery.Selection) bool {
			if m := re.FindStringSubmatch(a.AttrOr("href", "")); m != nil {
				found, id = a, m[1]
				return false
			}
			return true
		})
		if found != nil {
			return found, id
		}
	}
	return nil, ""
}

func (l layout) absolute(src models.Source, href, id string) string {
	base, err := url.Parse(l.resolve)
	if err == nil {
		if ref, err := url.Parse(strings.TrimSpace(href)); err == nil {
			u := base.ResolveReference(ref)
			if u.Scheme == "http" || u.Scheme == "https" {
				u.Fragment = ""
				return u.String()
			}
		}
	}
	return l.viewURL(src, id)
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func trimBase(src models.Source) string {
	return strings.TrimRight(src.BaseURL, "/")
}
