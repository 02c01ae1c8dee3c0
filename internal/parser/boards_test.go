package parser_test

import (
	"testing"
	"time"

	"notice_bot/internal/models"
	"notice_bot/internal/parser"

	"github.com/stretchr/testify/require"
)

func TestCIBoardParse(t *testing.T) {
	src := models.Source{
		Key:     "sociology",
		Kind:    models.KindCIBoard,
		BaseURL: "https://sociology.chungbuk.ac.kr",
	}
	html := `<table class="gitav_table_skin1"><tbody>
<tr><td><span class="label">공지</span></td><td class="text-left"><a href="https://sociology.chungbuk.ac.kr/post/123" title="Field trip">Field trip</a></td><td>-</td><td>01-27</td><td>391</td></tr>
<tr><td>5</td><td class="text-left"><a href="/post/120">Colloquium</a></td><td>-</td><td>2025-12-30</td><td>88</td></tr>
</tbody></table>`

	page, err := parser.CIBoard{}.Parse([]byte(html), src)
	require.NoError(t, err)
	require.Len(t, page.Notices, 2)
	require.Equal(t, "123", page.Notices[0].ExternalID)
	require.NotNil(t, page.Notices[0].PostedAt)
	require.Equal(t, time.January, page.Notices[0].PostedAt.Month())
	require.Equal(t, 27, page.Notices[0].PostedAt.Day())
	require.Equal(t, "https://sociology.chungbuk.ac.kr/post/120", page.Notices[1].URL)
	require.Empty(t, page.Notices[1].Author, "placeholder dash is not an author")
}

func TestXEBoardParse(t *testing.T) {
	src := models.Source{
		Key:     "civil",
		Kind:    models.KindXEBoard,
		BaseURL: "https://civil.chungbuk.ac.kr/",
		Params:  map[string]string{"mid": "board_jIDW98"},
	}
	html := `<table class="bd_lst bd_tb_lst bd_tb"><tbody>
<tr><td class="no"><strong>공지</strong></td><td class="title"><a href="https://civil.chungbuk.ac.kr/board_jIDW98/5551" class="hx">Graduation</a></td><td class="author"><span><a href="#popup_menu_area">Office</a></span></td><td class="time">2026.02.06</td><td class="m_no">22</td></tr>
<tr><td class="no">3</td><td class="title"><a href="/index.php?mid=board_jIDW98&amp;document_srl=5550">Scholarship</a></td><td class="author">Office</td><td class="time">2026.02.01</td><td class="m_no">5</td></tr>
<tr><td class="no">2</td><td class="title"><a href="#">placeholder</a></td><td class="author">Office</td><td class="time">2026.01.20</td><td class="m_no">1</td></tr>
</tbody></table>`

	page, err := parser.XEBoard{}.Parse([]byte(html), src)
	require.NoError(t, err)
	require.Equal(t, 1, page.Skipped)
	require.Len(t, page.Notices, 2)
	require.Equal(t, "5551", page.Notices[0].ExternalID)
	require.Equal(t, "2026-02-06", page.Notices[0].PostedAt.Format("2006-01-02"))
	require.Equal(t, "Office", page.Notices[0].Author)
	require.Equal(t, "5550", page.Notices[1].ExternalID)
	require.Equal(t, "https://civil.chungbuk.ac.kr/index.php?mid=board_jIDW98&document_srl=5550", page.Notices[1].URL)
}

func TestForCoversEveryKind(t *testing.T) {
	for _, kind := range models.Kinds() {
		p, err := parser.For(kind)
		require.NoError(t, err, kind)
		require.Equal(t, kind, p.Kind())
	}

	_, err := parser.For(models.Kind("rss"))
	require.Error(t, err)
}

func TestListURL(t *testing.T) {
	cases := []struct {
		src  models.Source
		want string
	}{
		{egovSource(), "https://www.chungbuk.ac.kr/www/selectBbsNttList.do?bbsNo=8&key=813&pageUnit=10&pageIndex=1"},
		{physSource(), "https://phys.chungbuk.ac.kr/master.php?pg_idx=123"},
		{models.Source{Kind: models.KindCIBoard, BaseURL: "https://econ.chungbuk.ac.kr/"}, "https://econ.chungbuk.ac.kr/board/department_notice"},
		{models.Source{Kind: models.KindXEBoard, BaseURL: "https://me.chungbuk.ac.kr", Params: map[string]string{"mid": "notice"}}, "https://me.chungbuk.ac.kr/notice"},
	}
	for _, tc := range cases {
		t.Run(string(tc.src.Kind), func(t *testing.T) {
			require.Equal(t, tc.want, parser.ListURL(tc.src))
		})
	}
}
