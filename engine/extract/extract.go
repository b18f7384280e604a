// Package extract pulls candidate person names out of free-text queries
// using a small language model. The model is cooperating but imperfect:
// it is instructed to emit only a JSON array, yet may wrap it in prose or
// emit garbage. This package owns that boundary — malformed output always
// degrades to "no names found", never to an error.
package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
)

// DefaultMaxNames bounds how many names one query can contribute.
const DefaultMaxNames = 3

// completeMaxTokens caps the small-model call. A bare JSON array of up to
// three Korean names fits comfortably.
const completeMaxTokens = 48

// Completer is the one-shot small-model call the extractor depends on.
type Completer interface {
	Complete(ctx context.Context, prompt string, maxTokens int) (string, error)
}

// Extractor extracts person names from queries.
type Extractor struct {
	llm    Completer
	logger *slog.Logger
}

// New creates an Extractor.
func New(llm Completer, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{llm: llm, logger: logger}
}

// Names extracts up to maxNames cleaned person names from query, in
// first-seen order without duplicates. A model failure or unparseable
// response yields an empty slice; only context cancellation and transport
// errors are logged, and even those degrade to empty rather than failing
// the query.
func (e *Extractor) Names(ctx context.Context, query string, maxNames int) []string {
	if maxNames <= 0 {
		maxNames = DefaultMaxNames
	}

	raw, err := e.llm.Complete(ctx, buildPrompt(query, maxNames), completeMaxTokens)
	if err != nil {
		e.logger.Warn("extract: small model call failed, continuing without names", "err", err)
		return nil
	}

	var unique []string
	seen := make(map[string]bool)
	for _, name := range ParseNameArray(raw) {
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		unique = append(unique, name)
		if len(unique) >= maxNames {
			break
		}
	}
	return unique
}

func buildPrompt(query string, maxNames int) string {
	return fmt.Sprintf(`규칙은 아래와 같습니다.
- 설명하지 말 것
- 이름만 JSON 배열로 출력
- JSON 배열 외 어떤 텍스트도 출력 금지
- 다른 질문, 답변을 만들어내지 마세요. 프롬프트에서 알려준 질문만 답변하세요.
- 다른 단어, 직업, 학력, 경력 등 출력 금지
- 최대 %d명까지만

입력 문장에서 한국 사람 이름만 추출하고,
다음 형식으로만 출력하라: ["이름1", "이름2"]

입력 문장: "%s"
출력:

JSON 배열만 출력하세요. 다른 글자는 절대 출력하지 마세요. 사람 이름이 없으면 []만 출력하세요.`, maxNames, query)
}

// arrayPattern locates the first array literal in the raw model output,
// ignoring any commentary around it.
var arrayPattern = regexp.MustCompile(`\[[^\]]*\]`)

// ParseNameArray tolerantly parses the small model's raw output: it finds
// the first well-formed JSON string array anywhere in the text, cleans each
// entry, and returns nil on any parse failure.
func ParseNameArray(raw string) []string {
	m := arrayPattern.FindString(raw)
	if m == "" {
		return nil
	}

	var arr []string
	if err := json.Unmarshal([]byte(m), &arr); err != nil {
		return nil
	}

	out := make([]string, 0, len(arr))
	for _, s := range arr {
		out = append(out, CleanName(s))
	}
	return out
}

// edgePunct strips quote/bracket punctuation the model sometimes leaves
// around a name.
var (
	leadingPunct  = regexp.MustCompile("^[`'\"(\\[]+")
	trailingPunct = regexp.MustCompile("[`'\")\\]]+$")
	honorific     = regexp.MustCompile(`\s*(선생님|대표님|의원님|대표|의원|님|씨|군|양|의)$`)
	innerSpace    = regexp.MustCompile(`\s+`)
)

// CleanName normalizes one extracted name: surrounding punctuation and a
// trailing honorific/title suffix are stripped, internal whitespace is
// collapsed.
func CleanName(raw string) string {
	s := strings.TrimSpace(raw)
	s = leadingPunct.ReplaceAllString(s, "")
	s = trailingPunct.ReplaceAllString(s, "")
	s = honorific.ReplaceAllString(s, "")
	s = innerSpace.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}
