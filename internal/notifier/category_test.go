package notifier_test

import (
	"testing"

	"notice_bot/internal/notifier"

	"github.com/stretchr/testify/require"
)

func TestClassify(t *testing.T) {
	cases := map[string]notifier.Category{
		"2026학년도 1학기 수강신청 일정 안내":    notifier.CategoryAcademic,
		"2026학년도 국가장학금 신청 안내":       notifier.CategoryScholarship,
		"2026년도 제1차 직원(공무직) 채용 공고": notifier.CategoryRecruit,
		"해외 어학연수 참가자 모집":            notifier.CategoryContest,
		"AI 특강 및 세미나 안내":             notifier.CategoryEvent,
		"캠퍼스 도로 보수공사 안내":            notifier.CategoryGeneral,
		// стипендия важнее набора
		"교내장학금 신청 모집": notifier.CategoryScholarship,
	}
	for title, want := range cases {
		require.Equal(t, want, notifier.Classify(title), title)
	}
}

func TestCategoryLabels(t *testing.T) {
	require.Equal(t, "📚", notifier.CategoryAcademic.Emoji())
	require.Equal(t, "📢", notifier.CategoryGeneral.Emoji())
	require.Equal(t, "장학", notifier.CategoryScholarship.Label())
}
