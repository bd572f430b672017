package symbiosis

import (
	"fmt"
	"strings"

	"github.com/turtacn/SymbioLink/pkg/errors"
)

// Violation describes one record that breaks the reference invariants.
type Violation struct {
	Kind   string // "connection" or "chain"
	Index  int
	Reason string
}

func (v Violation) String() string {
	return fmt.Sprintf("%s[%d]: %s", v.Kind, v.Index, v.Reason)
}

// CheckReferences lists every connection or chain that references an unknown
// entity id, loops onto itself or repeats a member.
func CheckReferences(entities []Entity, conns []Connection, chains []Chain) []Violation {
	idx := Index(entities)
	known := func(id string) bool { _, ok := idx[id]; return ok }

	var out []Violation
	for i := range conns {
		c := &conns[i]
		switch {
		case !known(c.ProducerID):
			out = append(out, Violation{"connection", i, "unknown producer " + c.ProducerID})
		case !known(c.ConsumerID):
			out = append(out, Violation{"connection", i, "unknown consumer " + c.ConsumerID})
		case c.ProducerID == c.ConsumerID:
			out = append(out, Violation{"connection", i, "self loop on " + c.ProducerID})
		}
	}
	for i := range chains {
		ch := &chains[i]
		if ch.HasRepeats() {
			out = append(out, Violation{"chain", i, "repeated member"})
			continue
		}
		for _, id := range ch.MemberIDs {
			if !known(id) {
				out = append(out, Violation{"chain", i, "unknown member " + id})
				break
			}
		}
	}
	return out
}

// EnforceReferences returns an invariant error when strict is set and any
// violation exists. Otherwise it returns conns and chains with the offending
// records removed, along with the violations found.
func EnforceReferences(strict bool, entities []Entity, conns []Connection, chains []Chain) ([]Connection, []Chain, []Violation, error) {
	violations := CheckReferences(entities, conns, chains)
	if len(violations) == 0 {
		return conns, chains, nil, nil
	}
	if strict {
		msgs := make([]string, len(violations))
		for i, v := range violations {
			msgs[i] = v.String()
		}
		return nil, nil, violations, errors.New(errors.ErrCodeInvariant, "reference invariant violated").
			WithDetail(strings.Join(msgs, "; "))
	}

	dropConn := map[int]bool{}
	dropChain := map[int]bool{}
	for _, v := range violations {
		if v.Kind == "connection" {
			dropConn[v.Index] = true
		} else {
			dropChain[v.Index] = true
		}
	}
	keptConns := make([]Connection, 0, len(conns)-len(dropConn))
	for i := range conns {
		if !dropConn[i] {
			keptConns = append(keptConns, conns[i])
		}
	}
	keptChains := make([]Chain, 0, len(chains)-len(dropChain))
	for i := range chains {
		if !dropChain[i] {
			keptChains = append(keptChains, chains[i])
		}
	}
	return keptConns, keptChains, violations, nil
}
