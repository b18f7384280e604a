package extract

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"
)

// --- mocks ---

type mockCompleter struct {
	resp       string
	err        error
	lastPrompt string
}

func (m *mockCompleter) Complete(_ context.Context, prompt string, _ int) (string, error) {
	m.lastPrompt = prompt
	return m.resp, m.err
}

// --- tests ---

func TestCleanName(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"문재인님", "문재인"},
		{"이낙연 의원", "이낙연"},
		{"홍길동 씨", "홍길동"},
		{"김철수 대표님", "김철수"},
		{`"박영희"`, "박영희"},
		{"['안철수']", "안철수"},
		{"  윤석열  ", "윤석열"},
		{"남 경필", "남 경필"},
		{"", ""},
		{"   ", ""},
	}
	for _, tc := range cases {
		if got := CleanName(tc.in); got != tc.want {
			t.Errorf("CleanName(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestParseNameArray(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		want []string
	}{
		{"bare array", `["이낙연", "문재인"]`, []string{"이낙연", "문재인"}},
		{"array wrapped in prose", `추출 결과는 다음과 같습니다: ["홍길동"] 감사합니다.`, []string{"홍길동"}},
		{"empty array", `[]`, []string{}},
		{"no array at all", `이름이 없습니다.`, nil},
		{"invalid json inside brackets", `[이낙연, 문재인]`, nil},
		{"numbers not strings", `[1, 2]`, nil},
		{"entries get cleaned", `["문재인님", "이낙연 의원"]`, []string{"문재인", "이낙연"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := ParseNameArray(tc.raw)
			if len(got) == 0 && len(tc.want) == 0 {
				return
			}
			if !reflect.DeepEqual(got, tc.want) {
				t.Errorf("ParseNameArray(%q) = %v, want %v", tc.raw, got, tc.want)
			}
		})
	}
}

func TestNames_DedupAndLimit(t *testing.T) {
	llm := &mockCompleter{resp: `["이낙연", "이낙연 의원", "문재인", "홍길동", "김철수"]`}
	e := New(llm, nil)

	got := e.Names(context.Background(), "이낙연과 문재인에 대해 알려줘", 3)
	want := []string{"이낙연", "문재인", "홍길동"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Names = %v, want %v", got, want)
	}
}

func TestNames_ModelFailureIsEmpty(t *testing.T) {
	llm := &mockCompleter{err: errors.New("connection refused")}
	e := New(llm, nil)

	if got := e.Names(context.Background(), "이낙연", 3); got != nil {
		t.Errorf("Names = %v, want nil on model failure", got)
	}
}

func TestNames_GarbageOutputIsEmpty(t *testing.T) {
	llm := &mockCompleter{resp: "죄송합니다, 이름을 찾을 수 없습니다."}
	e := New(llm, nil)

	if got := e.Names(context.Background(), "정치인 추천해줘", 3); got != nil {
		t.Errorf("Names = %v, want nil on unparseable output", got)
	}
}

func TestNames_EmptyStringsDropped(t *testing.T) {
	llm := &mockCompleter{resp: `["", "님", "이낙연"]`}
	e := New(llm, nil)

	got := e.Names(context.Background(), "이낙연", 3)
	want := []string{"이낙연"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Names = %v, want %v", got, want)
	}
}

func TestNames_PromptCarriesQueryAndLimit(t *testing.T) {
	llm := &mockCompleter{resp: `[]`}
	e := New(llm, nil)
	e.Names(context.Background(), "윤석열 대통령의 공약은?", 0)

	if llm.lastPrompt == "" {
		t.Fatal("model was not called")
	}
	if !strings.Contains(llm.lastPrompt, "윤석열 대통령의 공약은?") {
		t.Error("prompt does not contain the query")
	}
}
