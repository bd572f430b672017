// Package symbiosis holds the data model of the matching engine: entities,
// connections, chains and the tagged match variants that explain each
// connection. Values in this package are plain data; the algorithms that
// produce them live under internal/intelligence.
package symbiosis

import (
	"strings"
)

// Volume is a declared throughput such as "1200 tons of steel slag".
type Volume struct {
	Amount      float64 `json:"amount"`
	Unit        string  `json:"unit,omitempty"`
	Description string  `json:"description,omitempty"`
}

// Entity is a company profile. Entities are never mutated by the engine.
type Entity struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Industry     string   `json:"industry,omitempty"`
	Location     string   `json:"location,omitempty"`
	Materials    []string `json:"materials,omitempty"`
	Products     []string `json:"products,omitempty"`
	WasteOutputs []string `json:"waste_outputs,omitempty"`
	Processes    []string `json:"processes,omitempty"`
	Volume       Volume   `json:"volume"`
}

// OutputText joins everything the entity produces or discards.
func (e *Entity) OutputText() string {
	parts := make([]string, 0, len(e.Products)+len(e.WasteOutputs))
	parts = append(parts, e.Products...)
	parts = append(parts, e.WasteOutputs...)
	return strings.Join(parts, ", ")
}

// InputText joins everything the entity consumes.
func (e *Entity) InputText() string {
	return strings.Join(e.Materials, ", ")
}

// HasOutputs reports whether the entity can act as a producer.
func (e *Entity) HasOutputs() bool {
	return len(e.Products) > 0 || len(e.WasteOutputs) > 0
}

// HasInputs reports whether the entity can act as a consumer.
func (e *Entity) HasInputs() bool {
	return len(e.Materials) > 0
}

// WasteType returns the stream named after " of " in the volume description,
// or "general".
func (e *Entity) WasteType() string {
	d := e.Volume.Description
	if i := strings.Index(strings.ToLower(d), " of "); i >= 0 {
		if t := strings.TrimSpace(d[i+4:]); t != "" {
			return t
		}
	}
	return "general"
}

// Rejected records why an input entity was dropped.
type Rejected struct {
	Index  int    `json:"index"`
	ID     string `json:"id"`
	Reason string `json:"reason"`
}

// Sanitize returns the entities usable by the engine in input order. Entities
// with an empty id or an id already seen are dropped and reported; all other
// fields may be missing.
func Sanitize(entities []Entity) ([]Entity, []Rejected) {
	out := make([]Entity, 0, len(entities))
	var rejected []Rejected
	seen := make(map[string]struct{}, len(entities))
	for i, e := range entities {
		id := strings.TrimSpace(e.ID)
		switch {
		case id == "":
			rejected = append(rejected, Rejected{Index: i, Reason: "empty id"})
			continue
		case hasKey(seen, id):
			rejected = append(rejected, Rejected{Index: i, ID: id, Reason: "duplicate id"})
			continue
		}
		seen[id] = struct{}{}
		e.ID = id
		out = append(out, e)
	}
	return out, rejected
}

func hasKey(m map[string]struct{}, k string) bool {
	_, ok := m[k]
	return ok
}

// Index maps entity ids to their position.
func Index(entities []Entity) map[string]int {
	idx := make(map[string]int, len(entities))
	for i := range entities {
		idx[entities[i].ID] = i
	}
	return idx
}
