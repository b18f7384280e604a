package semantic

import (
	"testing"

	pb "github.com/qdrant/go-client/qdrant"
)

func TestBasicPointStruct_NamedVectors(t *testing.T) {
	p := BasicPoint{
		ID:         42,
		TextVector: []float32{0.1, 0.2},
		NameVector: []float32{0.3, 0.4},
		Payload:    map[string]any{"name": "이낙연"},
	}

	ps := basicPointStruct(p)

	if got := ps.GetId().GetNum(); got != 42 {
		t.Errorf("id = %d, want 42", got)
	}
	named, ok := ps.GetVectors().GetVectorsOptions().(*pb.Vectors_Vectors)
	if !ok {
		t.Fatalf("vectors option = %T, want named-vectors wrapper", ps.GetVectors().GetVectorsOptions())
	}
	m := named.Vectors.GetVectors()
	if len(m) != 2 {
		t.Fatalf("named spaces = %d, want 2", len(m))
	}
	if tv := m[VectorText]; tv == nil || tv.GetData()[0] != 0.1 {
		t.Errorf("text vector = %v", tv)
	}
	if nv := m[VectorName]; nv == nil || nv.GetData()[0] != 0.3 {
		t.Errorf("name vector = %v", nv)
	}
	if ps.GetPayload()["name"].GetStringValue() != "이낙연" {
		t.Errorf("payload = %v", ps.GetPayload())
	}
}

func TestDetailPointStruct_SingleVector(t *testing.T) {
	p := DetailPoint{
		ID:      7,
		Vector:  []float32{0.5},
		Payload: map[string]any{"full_payload": map[string]any{"name": "김철수"}},
	}

	ps := detailPointStruct(p)

	single, ok := ps.GetVectors().GetVectorsOptions().(*pb.Vectors_Vector)
	if !ok {
		t.Fatalf("vectors option = %T, want single-vector wrapper", ps.GetVectors().GetVectorsOptions())
	}
	if single.Vector.GetData()[0] != 0.5 {
		t.Errorf("vector = %v", single.Vector.GetData())
	}
	inner := ps.GetPayload()["full_payload"].GetStructValue()
	if inner == nil || inner.GetFields()["name"].GetStringValue() != "김철수" {
		t.Errorf("payload = %v", ps.GetPayload())
	}
}
