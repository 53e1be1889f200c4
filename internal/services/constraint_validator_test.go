package services

import (
	"testing"

	"github.com/fusecms/engine/internal/models"
	appErr "github.com/fusecms/engine/pkg/errors"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func intPtr(v int) *int { return &v }

func testDefinition(relType models.RelationType) *models.RelationDefinition {
	return &models.RelationDefinition{
		ID:              uuid.New(),
		Name:            "post_tags",
		SourceFieldName: "tags",
		RelationType:    relType,
		IsActive:        true,
	}
}

func kinds(list appErr.ViolationList) []appErr.ViolationKind {
	out := make([]appErr.ViolationKind, len(list))
	for i, v := range list {
		out[i] = v.Kind
	}
	return out
}

func newIDs(n int) []uuid.UUID {
	out := make([]uuid.UUID, n)
	for i := range out {
		out[i] = uuid.New()
	}
	return out
}

func TestValidateRelations_WithinLimits(t *testing.T) {
	def := testDefinition(models.RelationManyToMany)
	def.MaxRelations = intPtr(5)

	violations := ValidateRelations(def, uuid.New(), newIDs(5), nil)

	require.Empty(t, violations)
}

func TestValidateRelations_MaxExceeded(t *testing.T) {
	def := testDefinition(models.RelationManyToMany)
	def.MaxRelations = intPtr(5)

	violations := ValidateRelations(def, uuid.New(), newIDs(6), nil)

	require.Len(t, violations, 1)
	require.Equal(t, appErr.ViolationMaxRelationsExceeded, violations[0].Kind)
	require.Equal(t, "tags", violations[0].Field)
	require.Equal(t, 5, violations[0].Max)
}

func TestValidateRelations_MinNotMet(t *testing.T) {
	def := testDefinition(models.RelationManyToMany)
	def.MinRelations = 2

	violations := ValidateRelations(def, uuid.New(), newIDs(1), nil)

	require.Len(t, violations, 1)
	require.Equal(t, appErr.ViolationMinRelationsNotMet, violations[0].Kind)
	require.Equal(t, 2, violations[0].Min)
}

func TestValidateRelations_RequiredMissing(t *testing.T) {
	def := testDefinition(models.RelationOneToMany)
	def.IsRequired = true

	violations := ValidateRelations(def, uuid.New(), nil, nil)

	require.Contains(t, kinds(violations), appErr.ViolationRequiredRelationMissing)
}

func TestValidateRelations_RequiredWithMinZero(t *testing.T) {
	// A required relation with min_relations 0 still rejects an empty set.
	def := testDefinition(models.RelationOneToMany)
	def.IsRequired = true
	def.MinRelations = 0

	violations := ValidateRelations(def, uuid.New(), nil, nil)

	require.Equal(t, []appErr.ViolationKind{appErr.ViolationRequiredRelationMissing}, kinds(violations))
}

func TestValidateRelations_OneToOneCardinality(t *testing.T) {
	def := testDefinition(models.RelationOneToOne)

	violations := ValidateRelations(def, uuid.New(), newIDs(2), nil)

	require.Contains(t, kinds(violations), appErr.ViolationCardinality)
}

func TestValidateRelations_TargetAlreadyBound(t *testing.T) {
	def := testDefinition(models.RelationOneToMany)
	source := uuid.New()
	otherSource := uuid.New()
	target := uuid.New()

	violations := ValidateRelations(def, source, []uuid.UUID{target}, map[uuid.UUID]uuid.UUID{
		target: otherSource,
	})

	require.Len(t, violations, 1)
	require.Equal(t, appErr.ViolationTargetAlreadyBound, violations[0].Kind)
	require.Equal(t, target, violations[0].TargetID)
	require.Equal(t, otherSource, violations[0].ExistingSourceID)
}

func TestValidateRelations_TargetBoundToSameSource(t *testing.T) {
	// Re-saving an existing binding is not a conflict.
	def := testDefinition(models.RelationOneToMany)
	source := uuid.New()
	target := uuid.New()

	violations := ValidateRelations(def, source, []uuid.UUID{target}, map[uuid.UUID]uuid.UUID{
		target: source,
	})

	require.Empty(t, violations)
}

func TestValidateRelations_ManyToManyIgnoresBindings(t *testing.T) {
	def := testDefinition(models.RelationManyToMany)
	target := uuid.New()

	violations := ValidateRelations(def, uuid.New(), []uuid.UUID{target}, map[uuid.UUID]uuid.UUID{
		target: uuid.New(),
	})

	require.Empty(t, violations)
}

func TestValidateRelations_SelfReference(t *testing.T) {
	def := testDefinition(models.RelationManyToMany)
	source := uuid.New()

	violations := ValidateRelations(def, source, []uuid.UUID{source}, nil)

	require.Len(t, violations, 1)
	require.Equal(t, appErr.ViolationSelfReference, violations[0].Kind)
	require.Equal(t, source, violations[0].TargetID)
}

func TestValidateRelations_DuplicateTargets(t *testing.T) {
	def := testDefinition(models.RelationManyToMany)
	target := uuid.New()

	violations := ValidateRelations(def, uuid.New(), []uuid.UUID{target, uuid.New(), target}, nil)

	require.Len(t, violations, 1)
	require.Equal(t, appErr.ViolationDuplicateTarget, violations[0].Kind)
	require.Equal(t, target, violations[0].TargetID)
}

func TestValidateRelations_AccumulatesAllViolations(t *testing.T) {
	// One pass reports every violation, not just the first.
	def := testDefinition(models.RelationOneToOne)
	def.MaxRelations = intPtr(1)
	source := uuid.New()
	dup := uuid.New()

	violations := ValidateRelations(def, source, []uuid.UUID{dup, dup, source}, nil)

	got := kinds(violations)
	require.Contains(t, got, appErr.ViolationMaxRelationsExceeded)
	require.Contains(t, got, appErr.ViolationCardinality)
	require.Contains(t, got, appErr.ViolationSelfReference)
	require.Contains(t, got, appErr.ViolationDuplicateTarget)
}

func TestViolationList_Error(t *testing.T) {
	def := testDefinition(models.RelationManyToMany)
	def.MinRelations = 1

	violations := ValidateRelations(def, uuid.New(), nil, nil)

	var err error = violations
	require.Error(t, err)
	require.Contains(t, err.Error(), "constraint violation")
}
