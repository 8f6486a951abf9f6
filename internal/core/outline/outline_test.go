package outline

import (
	"testing"

	"github.com/hay-kot/criterio"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateItems(t *testing.T) {
	assert.NoError(t, ValidateItems([]LeveledItem{{Title: "ok", Heading: 3, Color: 6}}))

	err := ValidateItems([]LeveledItem{
		{Title: "a", Heading: 4},
		{Title: "b", Color: -1},
	})

	var fieldErrs criterio.FieldErrors
	require.ErrorAs(t, err, &fieldErrs)
	require.Len(t, fieldErrs, 2)
	assert.Equal(t, "items[0].heading", fieldErrs[0].Field)
	assert.Equal(t, "items[1].color", fieldErrs[1].Field)
}

func TestValidateEdits(t *testing.T) {
	heading := 9

	err := ValidateEdits([]Edit{
		{NodeID: "", Changes: Changes{}},
		{NodeID: "n1", Changes: Changes{Heading: &heading}},
	})

	var fieldErrs criterio.FieldErrors
	require.ErrorAs(t, err, &fieldErrs)
	require.Len(t, fieldErrs, 2)
	assert.Equal(t, "edits[0].nodeId", fieldErrs[0].Field)
	assert.Equal(t, "edits[1].changes.heading", fieldErrs[1].Field)
}
