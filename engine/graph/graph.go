// Package graph maintains the politician affiliation graph in Neo4j:
// politicians, the parties they belong to, and the districts they ran in.
// The ingestion job writes it; the answer pipeline reads it for optional
// party-context enrichment. Graph reads are best-effort and never block a
// query from being answered.
package graph

import (
	"context"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

// Membership is one politician-to-party affiliation to record.
type Membership struct {
	PoliticianID   int64
	PoliticianName string
	PartyID        int64
	PartyName      string
}

// Candidacy links a politician to a district they ran in.
type Candidacy struct {
	PoliticianID int64
	DistrictID   int64
	DistrictName string
	CityName     string
	Round        int
	Winner       bool
}

// PartyGraph provides graph operations over the Neo4j driver.
type PartyGraph struct {
	driver neo4j.DriverWithContext
}

// New creates a PartyGraph.
func New(driver neo4j.DriverWithContext) *PartyGraph {
	return &PartyGraph{driver: driver}
}

// SaveBatch upserts memberships and candidacies in a single write
// transaction. Re-running the ingestion job converges to the same graph.
func (g *PartyGraph) SaveBatch(ctx context.Context, members []Membership, candidacies []Candidacy) error {
	sess := g.driver.NewSession(ctx, neo4j.SessionConfig{})
	defer sess.Close(ctx)

	_, err := sess.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		for _, m := range members {
			_, err := tx.Run(ctx,
				`MERGE (pol:Politician {id: $pid}) SET pol.name = $pname
				 MERGE (party:Party {id: $partyId}) SET party.name = $partyName
				 MERGE (pol)-[:MEMBER_OF]->(party)`,
				map[string]any{
					"pid":       m.PoliticianID,
					"pname":     m.PoliticianName,
					"partyId":   m.PartyID,
					"partyName": m.PartyName,
				})
			if err != nil {
				return nil, fmt.Errorf("graph: save membership %d: %w", m.PoliticianID, err)
			}
		}
		for _, c := range candidacies {
			_, err := tx.Run(ctx,
				`MATCH (pol:Politician {id: $pid})
				 MERGE (d:District {id: $did}) SET d.name = $dname, d.city = $city
				 MERGE (pol)-[r:RAN_IN {round: $round}]->(d)
				 SET r.winner = $winner`,
				map[string]any{
					"pid":    c.PoliticianID,
					"did":    c.DistrictID,
					"dname":  c.DistrictName,
					"city":   c.CityName,
					"round":  c.Round,
					"winner": c.Winner,
				})
			if err != nil {
				return nil, fmt.Errorf("graph: save candidacy %d->%d: %w", c.PoliticianID, c.DistrictID, err)
			}
		}
		return nil, nil
	})
	return err
}

// PartyPeers returns names of other politicians in the same party.
func (g *PartyGraph) PartyPeers(ctx context.Context, partyName string, excludeID int64, limit int) ([]string, error) {
	if limit <= 0 {
		limit = 5
	}
	sess := g.driver.NewSession(ctx, neo4j.SessionConfig{})
	defer sess.Close(ctx)

	result, err := sess.Run(ctx,
		`MATCH (pol:Politician)-[:MEMBER_OF]->(party:Party {name: $party})
		 WHERE pol.id <> $exclude
		 RETURN pol.name AS name
		 ORDER BY pol.name
		 LIMIT $limit`,
		map[string]any{"party": partyName, "exclude": excludeID, "limit": limit})
	if err != nil {
		return nil, fmt.Errorf("graph: party peers %q: %w", partyName, err)
	}

	var names []string
	for result.Next(ctx) {
		if v, ok := result.Record().Get("name"); ok {
			if s, ok := v.(string); ok {
				names = append(names, s)
			}
		}
	}
	if err := result.Err(); err != nil {
		return nil, fmt.Errorf("graph: party peers %q: %w", partyName, err)
	}
	return names, nil
}
