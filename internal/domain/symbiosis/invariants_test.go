package symbiosis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/SymbioLink/pkg/errors"
)

func invariantFixture() ([]Entity, []Connection, []Chain) {
	entities := []Entity{{ID: "a"}, {ID: "b"}, {ID: "c"}}
	conns := []Connection{
		{ProducerID: "a", ConsumerID: "b"},
		{ProducerID: "a", ConsumerID: "ghost"},
		{ProducerID: "c", ConsumerID: "c"},
	}
	chains := []Chain{
		{MemberIDs: []string{"a", "b", "c"}},
		{MemberIDs: []string{"a", "b", "a"}},
		{MemberIDs: []string{"a", "zz"}},
	}
	return entities, conns, chains
}

func TestCheckReferences(t *testing.T) {
	entities, conns, chains := invariantFixture()
	v := CheckReferences(entities, conns, chains)
	require.Len(t, v, 4)
	assert.Equal(t, "connection[1]: unknown consumer ghost", v[0].String())
	assert.Equal(t, "connection[2]: self loop on c", v[1].String())
	assert.Equal(t, "chain[1]: repeated member", v[2].String())
	assert.Equal(t, "chain[2]: unknown member zz", v[3].String())
}

func TestEnforceReferences_Lenient(t *testing.T) {
	entities, conns, chains := invariantFixture()
	keptConns, keptChains, v, err := EnforceReferences(false, entities, conns, chains)
	require.NoError(t, err)
	assert.Len(t, v, 4)
	require.Len(t, keptConns, 1)
	assert.Equal(t, "b", keptConns[0].ConsumerID)
	require.Len(t, keptChains, 1)
	assert.Equal(t, []string{"a", "b", "c"}, keptChains[0].MemberIDs)
}

func TestEnforceReferences_Strict(t *testing.T) {
	entities, conns, chains := invariantFixture()
	_, _, _, err := EnforceReferences(true, entities, conns, chains)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeInvariant))
	assert.Contains(t, err.Error(), "ghost")
}

func TestEnforceReferences_Clean(t *testing.T) {
	entities := []Entity{{ID: "a"}, {ID: "b"}}
	conns := []Connection{{ProducerID: "a", ConsumerID: "b"}}
	keptConns, _, v, err := EnforceReferences(true, entities, conns, nil)
	require.NoError(t, err)
	assert.Nil(t, v)
	assert.Equal(t, conns, keptConns)
}
