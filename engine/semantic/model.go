package semantic

// Collection names. Basic holds the lean per-politician summary with two
// named vector spaces; detail holds the full upstream record.
const (
	CollectionBasic  = "politicians_basic"
	CollectionDetail = "politicians_detail"
)

// Named vector spaces within the basic collection.
const (
	VectorText = "text_vector"
	VectorName = "name_vector"
)

// Dims is the embedding dimensionality for every vector space.
const Dims = 384

// SearchHit is a single nearest-neighbour result. Score is cosine
// similarity as reported by the store.
type SearchHit struct {
	ID      int64
	Score   float32
	Payload map[string]any
}

// BasicPoint is one politician entry for the basic collection: the lean
// payload plus both named vectors.
type BasicPoint struct {
	ID         int64
	TextVector []float32
	NameVector []float32
	Payload    map[string]any
}

// DetailPoint is one politician entry for the detail collection.
type DetailPoint struct {
	ID      int64
	Vector  []float32
	Payload map[string]any
}

// SearchOpts narrows a search. VectorName selects a named vector space
// (required for multi-vector collections); AllowIDs, when non-empty,
// restricts hits to that id set.
type SearchOpts struct {
	VectorName string
	AllowIDs   []int64
}
