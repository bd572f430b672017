// Package repositories persists symbiosis networks as a property graph.
//
// Companies become (:Company) nodes, accepted connections become
// [:SUPPLIES] relationships keyed by material, and discovered chains become
// (:Chain) nodes linked to their members through ordered [:MEMBER_OF] edges.
// Every write is a MERGE, so exporting the same result twice is idempotent.
package repositories

import (
	"context"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/turtacn/SymbioLink/internal/domain/symbiosis"
	driver "github.com/turtacn/SymbioLink/internal/infrastructure/database/neo4j"
	"github.com/turtacn/SymbioLink/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/SymbioLink/pkg/errors"
)

// DefaultBatchSize bounds the rows sent in one UNWIND.
const DefaultBatchSize = 500

const (
	cypherConstraintCompany = `CREATE CONSTRAINT company_id IF NOT EXISTS FOR (c:Company) REQUIRE c.id IS UNIQUE`
	cypherConstraintChain   = `CREATE CONSTRAINT chain_id IF NOT EXISTS FOR (c:Chain) REQUIRE c.id IS UNIQUE`

	cypherMergeCompanies = `
		UNWIND $rows AS row
		MERGE (c:Company {id: row.id})
		SET c.name = row.name,
		    c.industry = row.industry,
		    c.location = row.location,
		    c.volume = row.volume,
		    c.volume_unit = row.volume_unit,
		    c.updated_at = datetime()
		RETURN count(c) AS n`

	cypherMergeSupplies = `
		UNWIND $rows AS row
		MATCH (p:Company {id: row.producer_id})
		MATCH (c:Company {id: row.consumer_id})
		MERGE (p)-[s:SUPPLIES {material: row.material}]->(c)
		SET s.confidence = row.confidence,
		    s.match_type = row.match_type,
		    s.hop_count = row.hop_count,
		    s.geographic_bonus = row.geographic_bonus,
		    s.industry_synergy = row.industry_synergy,
		    s.run_id = $run_id
		RETURN count(s) AS n`

	cypherMergeChains = `
		UNWIND $rows AS row
		MERGE (ch:Chain {id: row.id})
		SET ch.topology = row.topology,
		    ch.total_confidence = row.total_confidence,
		    ch.materials = row.materials,
		    ch.run_id = $run_id
		WITH ch, row
		UNWIND range(0, size(row.members) - 1) AS i
		MATCH (c:Company {id: row.members[i]})
		MERGE (c)-[m:MEMBER_OF]->(ch)
		SET m.position = i
		RETURN count(DISTINCT ch) AS n`

	cypherPartners = `
		MATCH (c:Company {id: $id})-[s:SUPPLIES]-(o:Company)
		RETURN o.id AS id, o.name AS name, s.material AS material, s.confidence AS confidence,
		       startNode(s) = c AS outgoing
		ORDER BY s.confidence DESC
		LIMIT $limit`

	cypherStats = `
		OPTIONAL MATCH (c:Company) WITH count(c) AS companies
		OPTIONAL MATCH ()-[s:SUPPLIES]->() WITH companies, count(s) AS supplies
		OPTIONAL MATCH (ch:Chain) RETURN companies, supplies, count(ch) AS chains`
)

// Partner is a company linked to another through a SUPPLIES edge.
type Partner struct {
	ID         string  `json:"id"`
	Name       string  `json:"name"`
	Material   string  `json:"material"`
	Confidence float64 `json:"confidence"`
	// Outgoing is true when the queried company is the producer.
	Outgoing bool `json:"outgoing"`
}

// GraphStats counts what has been exported so far.
type GraphStats struct {
	Companies int64 `json:"companies"`
	Supplies  int64 `json:"supplies"`
	Chains    int64 `json:"chains"`
}

// NetworkRepository stores and queries exported networks.
type NetworkRepository interface {
	EnsureConstraints(ctx context.Context) error
	ExportNetwork(ctx context.Context, entities []symbiosis.Entity, res *symbiosis.Result) error
	Partners(ctx context.Context, entityID string, limit int) ([]*Partner, error)
	GetGraphStats(ctx context.Context) (*GraphStats, error)
}

type neo4jNetworkRepo struct {
	driver    driver.DriverInterface
	log       logging.Logger
	batchSize int
}

// NewNeo4jNetworkRepo builds a repository over d.
func NewNeo4jNetworkRepo(d driver.DriverInterface, log logging.Logger) NetworkRepository {
	if log == nil {
		log = logging.NewNopLogger()
	}
	return &neo4jNetworkRepo{driver: d, log: log.Named("network_repo"), batchSize: DefaultBatchSize}
}

func (r *neo4jNetworkRepo) EnsureConstraints(ctx context.Context) error {
	for _, stmt := range []string{cypherConstraintCompany, cypherConstraintChain} {
		_, err := r.driver.ExecuteWrite(ctx, func(tx driver.Transaction) (interface{}, error) {
			res, err := tx.Run(ctx, stmt, nil)
			if err != nil {
				return nil, err
			}
			return res.Consume(ctx)
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// ExportNetwork merges the entities, the accepted connections and the chains
// of res. Entities must be written first so the relationship MATCHes find
// their endpoints.
func (r *neo4jNetworkRepo) ExportNetwork(ctx context.Context, entities []symbiosis.Entity, res *symbiosis.Result) error {
	if res == nil {
		return errors.InvalidParam("result is required")
	}
	params := map[string]any{"run_id": res.RunID}

	companies, err := r.writeBatches(ctx, cypherMergeCompanies, params, companyRows(entities))
	if err != nil {
		return err
	}
	supplies, err := r.writeBatches(ctx, cypherMergeSupplies, params, supplyRows(res.Connections))
	if err != nil {
		return err
	}
	chains, err := r.writeBatches(ctx, cypherMergeChains, params, chainRows(res.Chains))
	if err != nil {
		return err
	}

	r.log.Info("network exported",
		logging.String("run_id", res.RunID),
		logging.Int64("companies", companies),
		logging.Int64("supplies", supplies),
		logging.Int64("chains", chains))
	return nil
}

func (r *neo4jNetworkRepo) writeBatches(ctx context.Context, cypher string, base map[string]any, rows []map[string]any) (int64, error) {
	var total int64
	for start := 0; start < len(rows); start += r.batchSize {
		end := min(start+r.batchSize, len(rows))
		params := make(map[string]any, len(base)+1)
		for k, v := range base {
			params[k] = v
		}
		params["rows"] = rows[start:end]

		n, err := r.driver.ExecuteWrite(ctx, func(tx driver.Transaction) (interface{}, error) {
			res, err := tx.Run(ctx, cypher, params)
			if err != nil {
				return nil, err
			}
			if res.Next(ctx) {
				if v, ok := res.Record().Get("n"); ok {
					if n, ok := v.(int64); ok {
						return n, nil
					}
				}
			}
			return int64(0), res.Err()
		})
		if err != nil {
			return total, err
		}
		if v, ok := n.(int64); ok {
			total += v
		}
	}
	return total, nil
}

func (r *neo4jNetworkRepo) Partners(ctx context.Context, entityID string, limit int) ([]*Partner, error) {
	if entityID == "" {
		return nil, errors.NewValidationError("entity_id", "entity id is required")
	}
	if limit <= 0 {
		limit = 25
	}
	params := map[string]any{"id": entityID, "limit": limit}

	out, err := r.driver.ExecuteRead(ctx, func(tx driver.Transaction) (interface{}, error) {
		res, err := tx.Run(ctx, cypherPartners, params)
		if err != nil {
			return nil, err
		}
		return driver.CollectRecords(ctx, res, mapPartner)
	})
	if err != nil {
		return nil, err
	}
	partners, _ := out.([]*Partner)
	return partners, nil
}

func (r *neo4jNetworkRepo) GetGraphStats(ctx context.Context) (*GraphStats, error) {
	out, err := r.driver.ExecuteRead(ctx, func(tx driver.Transaction) (interface{}, error) {
		res, err := tx.Run(ctx, cypherStats, nil)
		if err != nil {
			return nil, err
		}
		return driver.ExtractSingleRecord(ctx, res, func(rec *neo4j.Record) (*GraphStats, error) {
			return &GraphStats{
				Companies: int64Field(rec, "companies"),
				Supplies:  int64Field(rec, "supplies"),
				Chains:    int64Field(rec, "chains"),
			}, nil
		})
	})
	if err != nil {
		return nil, err
	}
	return out.(*GraphStats), nil
}

// NetworkExporter adapts a repository to the analysis service sink.
type NetworkExporter struct {
	repo NetworkRepository
}

// NewNetworkExporter wraps repo.
func NewNetworkExporter(repo NetworkRepository) *NetworkExporter {
	return &NetworkExporter{repo: repo}
}

// ExportNetwork forwards to the repository.
func (e *NetworkExporter) ExportNetwork(ctx context.Context, entities []symbiosis.Entity, res *symbiosis.Result) error {
	return e.repo.ExportNetwork(ctx, entities, res)
}

// ---------------------------------------------------------------------------
// Row mapping
// ---------------------------------------------------------------------------

func companyRows(entities []symbiosis.Entity) []map[string]any {
	rows := make([]map[string]any, 0, len(entities))
	for i := range entities {
		e := &entities[i]
		if e.ID == "" {
			continue
		}
		rows = append(rows, map[string]any{
			"id":          e.ID,
			"name":        e.Name,
			"industry":    e.Industry,
			"location":    e.Location,
			"volume":      e.Volume.Amount,
			"volume_unit": e.Volume.Unit,
		})
	}
	return rows
}

func supplyRows(conns []symbiosis.Connection) []map[string]any {
	rows := make([]map[string]any, 0, len(conns))
	for i := range conns {
		c := &conns[i]
		rows = append(rows, map[string]any{
			"producer_id":      c.ProducerID,
			"consumer_id":      c.ConsumerID,
			"material":         c.Material,
			"confidence":       c.Confidence,
			"match_type":       string(c.MatchType()),
			"hop_count":        c.HopCount,
			"geographic_bonus": c.GeographicBonus,
			"industry_synergy": c.IndustrySynergy,
		})
	}
	return rows
}

func chainRows(chains []symbiosis.Chain) []map[string]any {
	rows := make([]map[string]any, 0, len(chains))
	for i := range chains {
		ch := &chains[i]
		if len(ch.MemberIDs) == 0 {
			continue
		}
		rows = append(rows, map[string]any{
			"id":               ch.ID,
			"members":          ch.MemberIDs,
			"materials":        ch.Materials,
			"topology":         string(ch.Topology),
			"total_confidence": ch.TotalConfidence,
		})
	}
	return rows
}

func mapPartner(rec *neo4j.Record) (*Partner, error) {
	p := &Partner{}
	if v, ok := rec.Get("id"); ok {
		p.ID, _ = v.(string)
	}
	if p.ID == "" {
		return nil, errors.New(errors.ErrCodeGraphError, "partner record without id")
	}
	if v, ok := rec.Get("name"); ok {
		p.Name, _ = v.(string)
	}
	if v, ok := rec.Get("material"); ok {
		p.Material, _ = v.(string)
	}
	if v, ok := rec.Get("confidence"); ok {
		p.Confidence, _ = v.(float64)
	}
	if v, ok := rec.Get("outgoing"); ok {
		p.Outgoing, _ = v.(bool)
	}
	return p, nil
}

func int64Field(rec *neo4j.Record, key string) int64 {
	v, _ := rec.Get(key)
	n, _ := v.(int64)
	return n
}
