package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWeightLedger_CanAdd(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	first := f.addAssessment(t, offeringID, 30)
	f.addAssessment(t, offeringID, 50)
	ledger := NewWeightLedger(f.store.Assessments())

	tests := []struct {
		name      string
		weight    int
		excluding *int64
		want      bool
	}{
		{name: "fills the remainder", weight: 20, want: true},
		{name: "overflows by one", weight: 21, want: false},
		{name: "zero always fits", weight: 0, want: true},
		{name: "edit in place frees own weight", weight: 50, excluding: &first, want: true},
		{name: "edit in place still bounded", weight: 51, excluding: &first, want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ok, err := ledger.CanAdd(ctx, offeringID, tt.weight, tt.excluding)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ok)
		})
	}

	total, err := ledger.TotalWeight(ctx, offeringID, nil)
	require.NoError(t, err)
	assert.Equal(t, 80, total)

	total, err = ledger.TotalWeight(ctx, otherOffering, nil)
	require.NoError(t, err)
	assert.Zero(t, total)
}
