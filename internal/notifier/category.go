package notifier

import "strings"

// Category - грубая тема объявления, определяется по ключевым словам заголовка.
type Category string

const (
	CategoryAcademic    Category = "academic"
	CategoryScholarship Category = "scholarship"
	CategoryRecruit     Category = "recruit"
	CategoryContest     Category = "contest"
	CategoryEvent       Category = "event"
	CategoryGeneral     Category = "general"
)

// Порядок правил важен: «장학금 모집» - стипендия, а не набор.
var categoryRules = []struct {
	category Category
	keywords []string
}{
	{CategoryAcademic, []string{"수강", "학점", "성적", "졸업", "휴학", "복학", "전과", "재입학", "수업",
		"학사일정", "교육과정", "이수", "학기", "편입", "등록금 납부", "학위"}},
	{CategoryScholarship, []string{"장학", "학자금", "등록금 감면", "국가장학", "교내장학", "근로장학"}},
	{CategoryRecruit, []string{"채용", "인사", "공무직", "계약직", "교원", "조교", "강사 채용", "직원",
		"합격자", "경쟁채용"}},
	{CategoryContest, []string{"모집", "공모", "선발", "신청 안내", "접수", "지원자", "참가자", "대회", "공모전"}},
	{CategoryEvent, []string{"특강", "세미나", "워크숍", "설명회", "포럼", "행사", "축제", "공연", "전시", "초청",
		"seminar", "workshop"}},
}

// Classify относит заголовок к первой подходящей категории.
func Classify(title string) Category {
	t := strings.ToLower(title)
	for _, rule := range categoryRules {
		for _, k := range rule.keywords {
			if strings.Contains(t, k) {
				return rule.category
			}
		}
	}
	return CategoryGeneral
}

func (c Category) Emoji() string {
	switch c {
	case CategoryAcademic:
		return "📚"
	case CategoryScholarship:
		return "💰"
	case CategoryRecruit:
		return "💼"
	case CategoryContest:
		return "📋"
	case CategoryEvent:
		return "🎤"
	}
	return "📢"
}

func (c Category) Label() string {
	switch c {
	case CategoryAcademic:
		return "학사"
	case CategoryScholarship:
		return "장학"
	case CategoryRecruit:
		return "채용"
	case CategoryContest:
		return "모집"
	case CategoryEvent:
		return "행사"
	}
	return "일반"
}
