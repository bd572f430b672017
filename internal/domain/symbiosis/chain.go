package symbiosis

import (
	"strings"

	"github.com/google/uuid"
)

// Topology classifies the shape of a chain.
type Topology string

const (
	TopologyLinear   Topology = "linear"
	TopologyCircular Topology = "circular"
	TopologyHubSpoke Topology = "hub_spoke"
)

// chainNamespace scopes chain ids so they never collide with other SHA-1 uuids.
var chainNamespace = uuid.MustParse("6f1c7a52-3f0e-4c55-9b5e-2b8f6f0d9a11")

// Chain is an ordered multi-party exchange path with no repeated member.
type Chain struct {
	ID              string    `json:"id"`
	MemberIDs       []string  `json:"member_ids"`
	Materials       []string  `json:"materials"`
	EdgeConfidences []float64 `json:"edge_confidences"`
	TotalConfidence float64   `json:"total_confidence"`
	Topology        Topology  `json:"topology"`
}

// ChainID derives a stable id from the ordered member list.
func ChainID(memberIDs []string) string {
	return uuid.NewSHA1(chainNamespace, []byte(strings.Join(memberIDs, "\x1f"))).String()
}

// Len is the number of members.
func (c *Chain) Len() int { return len(c.MemberIDs) }

// HasRepeats reports whether any member id appears twice.
func (c *Chain) HasRepeats() bool {
	seen := make(map[string]struct{}, len(c.MemberIDs))
	for _, id := range c.MemberIDs {
		if _, ok := seen[id]; ok {
			return true
		}
		seen[id] = struct{}{}
	}
	return false
}
