package fetcher_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
	"unicode/utf8"

	"notice_bot/internal/fetcher"
	"notice_bot/internal/models"

	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/korean"
)

func TestFetch_GetListPage(t *testing.T) {
	var gotUA, gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.UserAgent()
		gotPath = r.URL.Path
		w.Write([]byte("<html>list</html>"))
	}))
	defer server.Close()

	f := fetcher.New(fetcher.Options{Timeout: 2 * time.Second, UserAgent: "test-bot/1.0"})
	src := models.Source{Key: "cs", Kind: models.KindCIBoard, BaseURL: server.URL}

	body, err := f.Fetch(context.Background(), src)
	require.NoError(t, err)
	require.Equal(t, "<html>list</html>", string(body))
	require.Equal(t, "test-bot/1.0", gotUA)
	require.Equal(t, "/board/department_notice", gotPath)
}

func TestFetch_NonSuccessStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	f := fetcher.New(fetcher.Options{Timeout: 2 * time.Second})
	_, err := f.Fetch(context.Background(), models.Source{Key: "cs", Kind: models.KindCIBoard, BaseURL: server.URL})
	require.Error(t, err)

	var fe *fetcher.FetchError
	require.True(t, errors.As(err, &fe))
	require.Equal(t, http.StatusBadGateway, fe.Status)
	require.Equal(t, "cs", fe.SourceKey)
}

func TestFetch_TransportError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	addr := server.URL
	server.Close()

	f := fetcher.New(fetcher.Options{Timeout: time.Second})
	_, err := f.Fetch(context.Background(), models.Source{Key: "cs", Kind: models.KindCIBoard, BaseURL: addr})

	var fe *fetcher.FetchError
	require.True(t, errors.As(err, &fe))
	require.Zero(t, fe.Status)
	require.Error(t, fe.Err)
}

func TestFetch_PhpMasterTwoStep(t *testing.T) {
	var form map[string]string
	var requestedWith, referer string

	mux := http.NewServeMux()
	mux.HandleFunc("/master.php", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "123", r.URL.Query().Get("pg_idx"))
		w.Write([]byte(`<form><input type="hidden" id="bidx" value="17"><input type="hidden" id="id" value="phys"></form>`))
	})
	mux.HandleFunc("/module/board/_main.php", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.NoError(t, r.ParseForm())
		form = map[string]string{}
		for k := range r.PostForm {
			form[k] = r.PostForm.Get(k)
		}
		requestedWith = r.Header.Get("X-Requested-With")
		referer = r.Header.Get("Referer")
		w.Write([]byte(`<div class="board_rows">row</div>`))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	src := models.Source{
		Key:     "phys",
		Kind:    models.KindPhpMaster,
		BaseURL: server.URL,
		Params:  map[string]string{"pg_idx": "123"},
	}
	body, err := fetcher.New(fetcher.Options{Timeout: 2 * time.Second}).Fetch(context.Background(), src)
	require.NoError(t, err)
	require.Contains(t, string(body), "board_rows")

	require.Equal(t, "XMLHttpRequest", requestedWith)
	require.Equal(t, server.URL+"/master.php?pg_idx=123", referer)
	require.Equal(t, map[string]string{
		"pg_idx": "123",
		"bidx":   "17",
		"id":     "phys",
		"cate":   "",
		"pidx":   "0",
		"str":    "",
		"page":   "1",
		"mode":   "list",
	}, form)
}

func TestFetch_PhpMasterEmptyAjaxBody(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/master.php", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html></html>`))
	})
	mux.HandleFunc("/module/board/_main.php", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("  \n"))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	src := models.Source{Key: "phys", Kind: models.KindPhpMaster, BaseURL: server.URL, Params: map[string]string{"pg_idx": "1"}}
	_, err := fetcher.New(fetcher.Options{Timeout: 2 * time.Second}).Fetch(context.Background(), src)

	var fe *fetcher.FetchError
	require.True(t, errors.As(err, &fe))
	require.Contains(t, fe.Error(), "empty response")
}

func TestFetch_ContextCancelled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := fetcher.New(fetcher.Options{}).Fetch(ctx, models.Source{Key: "cs", Kind: models.KindXEBoard, BaseURL: server.URL, Params: map[string]string{"mid": "notice"}})
	require.Error(t, err)
	require.True(t, errors.Is(err, context.Canceled))
}

func TestFetch_DecodesCharsetFromHeader(t *testing.T) {
	page, err := korean.EUCKR.NewEncoder().String(`<html><body><a href="/post/7">수강신청 안내</a></body></html>`)
	require.NoError(t, err)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=euc-kr")
		w.Write([]byte(page))
	}))
	defer server.Close()

	f := fetcher.New(fetcher.Options{Timeout: 2 * time.Second})
	body, err := f.Fetch(context.Background(), models.Source{Key: "cs", Kind: models.KindCIBoard, BaseURL: server.URL})
	require.NoError(t, err)
	require.True(t, utf8.Valid(body))
	require.Contains(t, string(body), "수강신청 안내")
}
