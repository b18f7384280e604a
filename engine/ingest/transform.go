package ingest

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/skorea6/llm-politician-ai/engine/domain"
	"github.com/skorea6/llm-politician-ai/engine/graph"
)

// CorePayload derives the lean basic-collection payload from a full
// upstream record. job/career/education arrive as arrays and are stored
// newline-joined, matching how the prompt legend describes them.
func CorePayload(p map[string]any) map[string]any {
	return map[string]any{
		"id":             p["politicianId"],
		"name":           p["name"],
		"birthDate":      p["birthDate"],
		"address":        p["address"],
		"gender":         p["gender"],
		"criminalRecord": p["criminalRecord"],
		"education":      joinLines(p["education"]),
		"job":            joinLines(p["job"]),
		"career":         joinLines(p["career"]),
		"short_bio":      ShortBio(p),
	}
}

// ShortBio renders the one-sentence summary embedded alongside the core
// payload. Written out as natural text so the summary vector actually
// captures the facts, not just JSON keys.
func ShortBio(p map[string]any) string {
	return fmt.Sprintf(
		"정치인 이름이 '%s'인 사람의 성별은 %s이고 생년월일은 %s이다. 사는 곳은 %s이다. 범죄 기록은 %v건이다.",
		stringField(p, "name"),
		stringField(p, "gender"),
		stringField(p, "birthDate"),
		stringField(p, "address"),
		p["criminalRecord"],
	)
}

// EmbeddingText builds the text actually embedded for a record: a fixed
// Korean prefix naming the politician, then the payload as JSON.
func EmbeddingText(name string, payload map[string]any) string {
	data, err := json.Marshal(payload)
	if err != nil {
		data = []byte("{}")
	}
	return fmt.Sprintf("이 데이터는 대한민국 정치인 '%s'의 핵심 요약 정보입니다.\n%s", name, data)
}

// DetailPayload wraps the full record for the detail collection.
func DetailPayload(p map[string]any) map[string]any {
	return map[string]any{"full_payload": p}
}

// GraphRecords extracts party membership and district candidacies for the
// affiliation graph. Records that fail to decode, lack a party, or carry
// no elector entries simply contribute nothing: the graph is enrichment,
// not ground truth.
func GraphRecords(p map[string]any) ([]graph.Membership, []graph.Candidacy) {
	pol, err := domain.DecodePolitician(p)
	if err != nil || pol.ID == 0 {
		return nil, nil
	}

	var members []graph.Membership
	if pol.Party != nil && pol.Party.ID != 0 {
		members = append(members, graph.Membership{
			PoliticianID:   pol.ID,
			PoliticianName: pol.Name,
			PartyID:        pol.Party.ID,
			PartyName:      pol.Party.Name,
		})
	}

	var candidacies []graph.Candidacy
	for _, e := range pol.Electors {
		if e.District == nil || e.District.ID == 0 {
			continue
		}
		candidacies = append(candidacies, graph.Candidacy{
			PoliticianID: pol.ID,
			DistrictID:   e.District.ID,
			DistrictName: e.District.Name,
			CityName:     e.District.City.Name,
			Round:        e.ElectionType.Round,
			Winner:       e.Winner,
		})
	}
	return members, candidacies
}

func joinLines(v any) string {
	switch tv := v.(type) {
	case []any:
		parts := make([]string, 0, len(tv))
		for _, item := range tv {
			if s, ok := item.(string); ok {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, "\n")
	case string:
		return tv
	default:
		return ""
	}
}

func stringField(m map[string]any, key string) string {
	s, _ := m[key].(string)
	return s
}

// intField accepts the numeric shapes JSON decoding produces.
func intField(m map[string]any, key string) int64 {
	switch n := m[key].(type) {
	case float64:
		return int64(n)
	case int64:
		return n
	case int:
		return int64(n)
	case json.Number:
		i, _ := n.Int64()
		return i
	default:
		return 0
	}
}
