package repository

import (
	"context"
	"testing"

	"github.com/sangkips/posync/pkg/apperror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func TestWithTenant(t *testing.T) {
	ctx := WithTenant(context.Background(), strPtr("t1"))
	id, ok := GetTenantID(ctx)
	assert.True(t, ok)
	assert.Equal(t, "t1", id)

	_, ok = GetTenantID(WithTenant(ctx, nil))
	assert.False(t, ok, "nil tenant overrides an outer one")

	_, ok = GetTenantID(context.Background())
	assert.False(t, ok)
}

func TestVisible(t *testing.T) {
	t1 := WithTenant(context.Background(), strPtr("t1"))
	degraded := context.Background()

	assert.True(t, Visible(t1, strPtr("t1")))
	assert.False(t, Visible(t1, strPtr("t2")))
	assert.False(t, Visible(t1, nil))
	assert.True(t, Visible(degraded, nil))
	assert.False(t, Visible(degraded, strPtr("t1")))
}

func TestAssignTenant(t *testing.T) {
	t1 := WithTenant(context.Background(), strPtr("t1"))

	var tenant *string
	require.NoError(t, AssignTenant(t1, &tenant))
	require.NotNil(t, tenant)
	assert.Equal(t, "t1", *tenant)

	other := strPtr("t2")
	assert.ErrorIs(t, AssignTenant(t1, &other), apperror.ErrTenantMismatch)

	tagged := strPtr("t1")
	assert.ErrorIs(t, AssignTenant(context.Background(), &tagged), apperror.ErrTenantMismatch)

	var untagged *string
	require.NoError(t, AssignTenant(context.Background(), &untagged))
	assert.Nil(t, untagged)
}
