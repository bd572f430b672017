package symbiosis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEntity_TextAccessors(t *testing.T) {
	e := Entity{
		Products:     []string{"Steel Products"},
		WasteOutputs: []string{"Copper wire", "Aluminum offcuts"},
		Materials:    []string{"Fabrics", "Polymers"},
	}
	assert.Equal(t, "Steel Products, Copper wire, Aluminum offcuts", e.OutputText())
	assert.Equal(t, "Fabrics, Polymers", e.InputText())
	assert.True(t, e.HasOutputs())
	assert.True(t, e.HasInputs())
	assert.False(t, (&Entity{}).HasOutputs())
}

func TestEntity_WasteType(t *testing.T) {
	cases := map[string]string{
		"17569 metric tons of metal scraps":     "metal scraps",
		"453365 cubic meters OF chemical waste": "chemical waste",
		"1200 tons":                             "general",
		"":                                      "general",
		"5 tons of ":                            "general",
	}
	for desc, want := range cases {
		e := Entity{Volume: Volume{Description: desc}}
		assert.Equal(t, want, e.WasteType(), desc)
	}
}

func TestSanitize(t *testing.T) {
	in := []Entity{
		{ID: " a "},
		{ID: ""},
		{ID: "b"},
		{ID: "a"},
	}
	out, rejected := Sanitize(in)
	require.Len(t, out, 2)
	assert.Equal(t, "a", out[0].ID)
	assert.Equal(t, "b", out[1].ID)
	require.Len(t, rejected, 2)
	assert.Equal(t, Rejected{Index: 1, Reason: "empty id"}, rejected[0])
	assert.Equal(t, Rejected{Index: 3, ID: "a", Reason: "duplicate id"}, rejected[1])
	assert.Equal(t, " a ", in[0].ID, "input must not be mutated")
}

func TestChainID_Stable(t *testing.T) {
	a := ChainID([]string{"x", "y", "z"})
	assert.Equal(t, a, ChainID([]string{"x", "y", "z"}))
	assert.NotEqual(t, a, ChainID([]string{"z", "y", "x"}))
	assert.NotEqual(t, ChainID([]string{"xy", "z"}), ChainID([]string{"x", "yz"}))
}

func TestChain_HasRepeats(t *testing.T) {
	assert.False(t, (&Chain{MemberIDs: []string{"a", "b", "c"}}).HasRepeats())
	assert.True(t, (&Chain{MemberIDs: []string{"a", "b", "a"}}).HasRepeats())
}
