package validator

import (
	"testing"

	"github.com/sangkips/posync/pkg/apperror"
	"github.com/sangkips/posync/pkg/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type line struct {
	Quantity int `validate:"min=1"`
}

type sample struct {
	ID     string `validate:"omitempty,syncid"`
	Name   string `validate:"required"`
	Doc    string `validate:"document_type"`
	Status string `validate:"sale_status"`
	Kind   string `validate:"omitempty,transaction_kind"`
	Lines  []line `validate:"dive"`
}

func TestValidate(t *testing.T) {
	ok := sample{ID: utils.NewID(), Name: "x", Doc: "receipt", Status: "paid", Lines: []line{{Quantity: 1}}}
	assert.NoError(t, Validate(ok))

	bad := sample{ID: "p-1", Doc: "fax", Status: "maybe", Kind: "gift", Lines: []line{{Quantity: 0}}}
	err := Validate(bad)
	require.Error(t, err)

	appErr := apperror.GetAppError(err)
	assert.Equal(t, 422, appErr.Code)
	fields := map[string]string{}
	for _, f := range appErr.Errors {
		fields[f.Field] = f.Message
	}
	assert.Equal(t, "must be a version 4 UUID", fields["ID"])
	assert.Equal(t, "is required", fields["Name"])
	assert.Equal(t, "has an unsupported value", fields["Doc"])
	assert.Equal(t, "has an unsupported value", fields["Status"])
	assert.Equal(t, "has an unsupported value", fields["Kind"])
	assert.Equal(t, "must be at least 1", fields["Lines[0].Quantity"])
}
