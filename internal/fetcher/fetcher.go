package fetcher

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"time"

	"notice_bot/internal/logger"
	"notice_bot/internal/models"
	"notice_bot/internal/parser"
)

// maxBody - верхняя граница размера страницы-списка.
const maxBody = 8 << 20

// Fetcher загружает сырую страницу-список источника.
type Fetcher interface {
	Fetch(ctx context.Context, src models.Source) ([]byte, error)
}

// FetchError - сбой транспорта или ответ не из диапазона 2xx. Всегда считается временным.
type FetchError struct {
	SourceKey string
	URL       string
	Status    int
	Err       error
}

func (e *FetchError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("fetch [%s] %s: HTTP %d", e.SourceKey, e.URL, e.Status)
	}
	return fmt.Sprintf("fetch [%s] %s: %v", e.SourceKey, e.URL, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

type Options struct {
	Timeout            time.Duration
	UserAgent          string
	InsecureSkipVerify bool
}

// HTTPFetcher ходит на сайты кафедр по HTTP.
type HTTPFetcher struct {
	client    *http.Client
	userAgent string
}

// New создаёт HTTPFetcher с собственным транспортом.
func New(opts Options) *HTTPFetcher {
	if opts.Timeout == 0 {
		opts.Timeout = 15 * time.Second
	}
	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:        20,
		MaxIdleConnsPerHost: 4,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
		// У части университетских хостов битая цепочка сертификатов.
		TLSClientConfig: &tls.Config{InsecureSkipVerify: opts.InsecureSkipVerify}, //nolint:gosec
	}
	return &HTTPFetcher{
		client:    &http.Client{Timeout: opts.Timeout, Transport: transport},
		userAgent: opts.UserAgent,
	}
}

// Fetch выбирает план запросов по варианту разметки источника.
func (f *HTTPFetcher) Fetch(ctx context.Context, src models.Source) ([]byte, error) {
	if src.Kind == models.KindPhpMaster {
		return f.fetchPhpMaster(ctx, src)
	}
	return f.do(ctx, src, http.MethodGet, parser.ListURL(src), nil, nil)
}

// fetchPhpMaster: сначала страница меню со скрытыми полями формы, затем AJAX POST за списком.
func (f *HTTPFetcher) fetchPhpMaster(ctx context.Context, src models.Source) ([]byte, error) {
	mainURL := parser.PhpMasterMainURL(src)
	mainPage, err := f.do(ctx, src, http.MethodGet, mainURL, nil, nil)
	if err != nil {
		return nil, err
	}

	bidx, id, err := parser.FormParams(mainPage)
	if err != nil {
		return nil, &FetchError{SourceKey: src.Key, URL: mainURL, Err: err}
	}
	logger.Log.WithFields(map[string]interface{}{
		"source": src.Key,
		"bidx":   bidx,
		"id":     id,
	}).Debug("Extracted form params")

	form := url.Values{
		"pg_idx": {src.Param("pg_idx", "")},
		"bidx":   {bidx},
		"id":     {id},
		"cate":   {""},
		"pidx":   {"0"},
		"str":    {""},
		"page":   {"1"},
		"mode":   {"list"},
	}
	headers := http.Header{
		"Content-Type":     {"application/x-www-form-urlencoded; charset=UTF-8"},
		"X-Requested-With": {"XMLHttpRequest"},
		"Referer":          {mainURL},
	}

	ajaxURL := parser.PhpMasterAjaxURL(src)
	body, err := f.do(ctx, src, http.MethodPost, ajaxURL, []byte(form.Encode()), headers)
	if err != nil {
		return nil, err
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, &FetchError{SourceKey: src.Key, URL: ajaxURL, Err: fmt.Errorf("empty response")}
	}
	return body, nil
}

func (f *HTTPFetcher) do(ctx context.Context, src models.Source, method, rawURL string, body []byte, headers http.Header) ([]byte, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, rawURL, reader)
	if err != nil {
		return nil, &FetchError{SourceKey: src.Key, URL: rawURL, Err: err}
	}
	for k, vs := range headers {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	if f.userAgent != "" {
		req.Header.Set("User-Agent", f.userAgent)
	}
	req.Header.Set("Accept-Language", "ko-KR,ko;q=0.9,en;q=0.8")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, &FetchError{SourceKey: src.Key, URL: rawURL, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, &FetchError{SourceKey: src.Key, URL: rawURL, Status: resp.StatusCode}
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return nil, &FetchError{SourceKey: src.Key, URL: rawURL, Err: err}
	}
	// Заголовок ответа знает кодировку надёжнее, чем разметка.
	raw, err = parser.DecodeHTML(raw, resp.Header.Get("Content-Type"))
	if err != nil {
		return nil, &FetchError{SourceKey: src.Key, URL: rawURL, Err: err}
	}
	return raw, nil
}
