// Package semantic is the sole owner of all Qdrant operations. It maintains
// two collections: a basic index with independent text and name vector
// spaces for first-pass retrieval, and a detail index holding the complete
// politician record for hydration and last-resort search.
package semantic

import (
	"context"
	"fmt"

	pb "github.com/qdrant/go-client/qdrant"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

// VectorStore wraps the Qdrant gRPC clients.
type VectorStore struct {
	conn        *grpc.ClientConn
	points      pb.PointsClient
	collections pb.CollectionsClient
}

// New creates a VectorStore connected to Qdrant at the given gRPC address.
func New(addr string) (*VectorStore, error) {
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("semantic: dial qdrant %s: %w", addr, err)
	}
	return &VectorStore{
		conn:        conn,
		points:      pb.NewPointsClient(conn),
		collections: pb.NewCollectionsClient(conn),
	}, nil
}

// Close closes the underlying gRPC connection.
func (v *VectorStore) Close() error {
	return v.conn.Close()
}

// EnsureCollections creates the basic and detail collections if they don't
// exist. The basic collection carries two named vector spaces so the same
// politician can be found by general text or by name alone.
func (v *VectorStore) EnsureCollections(ctx context.Context) error {
	list, err := v.collections.List(ctx, &pb.ListCollectionsRequest{})
	if err != nil {
		return fmt.Errorf("semantic: list collections: %w", err)
	}
	existing := make(map[string]bool, len(list.GetCollections()))
	for _, c := range list.GetCollections() {
		existing[c.GetName()] = true
	}

	onDisk := true
	if !existing[CollectionBasic] {
		_, err = v.collections.Create(ctx, &pb.CreateCollection{
			CollectionName: CollectionBasic,
			VectorsConfig: &pb.VectorsConfig{
				Config: &pb.VectorsConfig_ParamsMap{
					ParamsMap: &pb.VectorParamsMap{
						Map: map[string]*pb.VectorParams{
							VectorText: {Size: Dims, Distance: pb.Distance_Cosine},
							VectorName: {Size: Dims, Distance: pb.Distance_Cosine},
						},
					},
				},
			},
			HnswConfig: &pb.HnswConfigDiff{OnDisk: &onDisk},
		})
		if err != nil {
			return fmt.Errorf("semantic: create collection %s: %w", CollectionBasic, err)
		}
	}

	if !existing[CollectionDetail] {
		_, err = v.collections.Create(ctx, &pb.CreateCollection{
			CollectionName: CollectionDetail,
			VectorsConfig: &pb.VectorsConfig{
				Config: &pb.VectorsConfig_Params{
					Params: &pb.VectorParams{Size: Dims, Distance: pb.Distance_Cosine},
				},
			},
			HnswConfig: &pb.HnswConfigDiff{OnDisk: &onDisk},
		})
		if err != nil {
			return fmt.Errorf("semantic: create collection %s: %w", CollectionDetail, err)
		}
	}
	return nil
}

// UpsertBasic writes basic points (both named vectors) in one call.
// Idempotent by politician id: a re-run of the ingestion job overwrites.
func (v *VectorStore) UpsertBasic(ctx context.Context, points []BasicPoint) error {
	if len(points) == 0 {
		return nil
	}
	structs := make([]*pb.PointStruct, len(points))
	for i, p := range points {
		structs[i] = basicPointStruct(p)
	}
	return v.upsert(ctx, CollectionBasic, structs)
}

// UpsertDetail writes detail points (single vector, full-record payload).
func (v *VectorStore) UpsertDetail(ctx context.Context, points []DetailPoint) error {
	if len(points) == 0 {
		return nil
	}
	structs := make([]*pb.PointStruct, len(points))
	for i, p := range points {
		structs[i] = detailPointStruct(p)
	}
	return v.upsert(ctx, CollectionDetail, structs)
}

// basicPointStruct wires both named vector spaces into one point.
func basicPointStruct(p BasicPoint) *pb.PointStruct {
	return &pb.PointStruct{
		Id: numID(p.ID),
		Vectors: &pb.Vectors{
			VectorsOptions: &pb.Vectors_Vectors{
				Vectors: &pb.NamedVectors{
					Vectors: map[string]*pb.Vector{
						VectorText: {Data: p.TextVector},
						VectorName: {Data: p.NameVector},
					},
				},
			},
		},
		Payload: toPayload(p.Payload),
	}
}

func detailPointStruct(p DetailPoint) *pb.PointStruct {
	return &pb.PointStruct{
		Id: numID(p.ID),
		Vectors: &pb.Vectors{
			VectorsOptions: &pb.Vectors_Vector{
				Vector: &pb.Vector{Data: p.Vector},
			},
		},
		Payload: toPayload(p.Payload),
	}
}

func (v *VectorStore) upsert(ctx context.Context, collection string, points []*pb.PointStruct) error {
	wait := true
	_, err := v.points.Upsert(ctx, &pb.UpsertPoints{
		CollectionName: collection,
		Wait:           &wait,
		Points:         points,
	})
	if err != nil {
		return fmt.Errorf("semantic: upsert %d points into %s: %w", len(points), collection, err)
	}
	return nil
}

// RetrieveByID fetches a single point's payload. A missing point returns
// (nil, nil); only store failures return an error.
func (v *VectorStore) RetrieveByID(ctx context.Context, collection string, id int64) (map[string]any, error) {
	resp, err := v.points.Get(ctx, &pb.GetPoints{
		CollectionName: collection,
		Ids:            []*pb.PointId{numID(id)},
		WithPayload:    withPayload(),
	})
	if err != nil {
		return nil, fmt.Errorf("semantic: retrieve %s/%d: %w", collection, id, err)
	}
	result := resp.GetResult()
	if len(result) == 0 {
		return nil, nil
	}
	return fromPayload(result[0].GetPayload()), nil
}

// Search performs k-NN similarity search in descending score order.
// Store failure is always surfaced: callers must be able to tell "no
// results" from "store down".
func (v *VectorStore) Search(ctx context.Context, collection string, vector []float32, limit int, opts SearchOpts) ([]SearchHit, error) {
	req := &pb.SearchPoints{
		CollectionName: collection,
		Vector:         vector,
		Limit:          uint64(limit),
		WithPayload:    withPayload(),
	}
	if opts.VectorName != "" {
		name := opts.VectorName
		req.VectorName = &name
	}
	if len(opts.AllowIDs) > 0 {
		ids := make([]*pb.PointId, len(opts.AllowIDs))
		for i, id := range opts.AllowIDs {
			ids[i] = numID(id)
		}
		req.Filter = &pb.Filter{
			Must: []*pb.Condition{{
				ConditionOneOf: &pb.Condition_HasId{
					HasId: &pb.HasIdCondition{HasId: ids},
				},
			}},
		}
	}

	resp, err := v.points.Search(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("semantic: search %s: %w", collection, err)
	}

	hits := make([]SearchHit, len(resp.GetResult()))
	for i, r := range resp.GetResult() {
		hits[i] = SearchHit{
			ID:      int64(r.GetId().GetNum()),
			Score:   r.GetScore(),
			Payload: fromPayload(r.GetPayload()),
		}
	}
	return hits, nil
}

func numID(id int64) *pb.PointId {
	return &pb.PointId{PointIdOptions: &pb.PointId_Num{Num: uint64(id)}}
}

func withPayload() *pb.WithPayloadSelector {
	return &pb.WithPayloadSelector{
		SelectorOptions: &pb.WithPayloadSelector_Enable{Enable: true},
	}
}
