package repositories

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRepositories_ExposesPostgresRepositories(t *testing.T) {
	var store Store = NewRepositories(nil)

	assert.IsType(t, &PgAssessmentRepository{}, store.Assessments())
	assert.IsType(t, &PgAssessmentResultRepository{}, store.Results())
	assert.IsType(t, &PgGradingRuleRepository{}, store.GradingRules())
	assert.IsType(t, &PgFinalizedResultRepository{}, store.FinalizedResults())
	assert.IsType(t, &PgAcademicRepository{}, store.Academics())
}

func TestWithinTransaction_ReusesOpenTransaction(t *testing.T) {
	inner := newRepositories(nil, nil, true)

	var got Store
	err := inner.WithinTransaction(context.Background(), TxOptions{Isolation: Serializable}, func(_ context.Context, tx Store) error {
		got = tx
		return nil
	})

	require.NoError(t, err)
	assert.Same(t, inner, got)
}

func TestToPgxOptions(t *testing.T) {
	tests := []struct {
		name string
		opts TxOptions
		want pgx.TxOptions
	}{
		{"default", TxOptions{}, pgx.TxOptions{IsoLevel: pgx.ReadCommitted}},
		{"repeatable read", TxOptions{Isolation: RepeatableRead}, pgx.TxOptions{IsoLevel: pgx.RepeatableRead}},
		{"serializable", TxOptions{Isolation: Serializable}, pgx.TxOptions{IsoLevel: pgx.Serializable}},
		{"read only", TxOptions{ReadOnly: true}, pgx.TxOptions{IsoLevel: pgx.ReadCommitted, AccessMode: pgx.ReadOnly}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, toPgxOptions(tt.opts))
		})
	}
}
