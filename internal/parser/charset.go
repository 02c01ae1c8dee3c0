package parser

import (
	"unicode/utf8"

	"golang.org/x/net/html/charset"
	"golang.org/x/text/encoding/korean"
	"golang.org/x/text/transform"
)

// DecodeHTML переводит страницу в UTF-8. Кодировка берётся из BOM, charset в
// Content-Type или <meta charset>. Уже валидный UTF-8 без явного заголовка
// не трогается, а неопознанные байты считаются EUC-KR: так отдают старые доски.
func DecodeHTML(raw []byte, contentType string) ([]byte, error) {
	enc, name, certain := charset.DetermineEncoding(raw, contentType)
	if !certain {
		if utf8.Valid(raw) {
			return raw, nil
		}
		if name == "utf-8" || name == "windows-1252" {
			enc, name = korean.EUCKR, "euc-kr"
		}
	}
	if name == "utf-8" {
		return raw, nil
	}

	out, _, err := transform.Bytes(enc.NewDecoder(), raw)
	if err != nil {
		return nil, err
	}
	return out, nil
}
