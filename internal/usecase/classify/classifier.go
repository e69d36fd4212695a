package classify

import (
	"strings"

	"feedback-hub/internal/domain"
)

// DefaultKeywords — канонический список маркеров жалобы. Совпадение ищется
// по подстроке без учёта регистра, поэтому "bad" сработает и внутри "badge".
// Список переопределяется через конфигурацию (COMPLAINT_KEYWORDS).
var DefaultKeywords = []string{
	"problem", "issue", "complaint", "error", "not working", "bad", "worst",
	"fail", "slow", "bug", "fix", "help", "poor", "kharab", "dikkat",
	"kaam nahi kar raha", "bekar", "shikayat", "ghatiya", "fraud", "stop",
}

// Classifier относит текст обращения к категории по ключевым словам.
type Classifier struct {
	keywords []string
}

// New создаёт классификатор. Пустой список означает DefaultKeywords.
func New(keywords []string) *Classifier {
	if len(keywords) == 0 {
		keywords = DefaultKeywords
	}
	normalized := make([]string, 0, len(keywords))
	for _, kw := range keywords {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if kw != "" {
			normalized = append(normalized, kw)
		}
	}
	return &Classifier{keywords: normalized}
}

// Classify возвращает категорию текста. Функция детерминирована и
// определена для любой строки.
func (c *Classifier) Classify(text string) domain.Category {
	lower := strings.ToLower(text)
	for _, kw := range c.keywords {
		if strings.Contains(lower, kw) {
			return domain.CategoryComplaint
		}
	}
	return domain.CategoryFeedback
}
