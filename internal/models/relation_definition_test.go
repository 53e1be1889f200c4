package models

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestRelationTypeValid(t *testing.T) {
	require.True(t, RelationOneToOne.Valid())
	require.True(t, RelationOneToMany.Valid())
	require.True(t, RelationManyToMany.Valid())
	require.False(t, RelationType("one_to_some").Valid())
	require.False(t, RelationType("").Valid())
}

func TestDeleteBehaviorValid(t *testing.T) {
	for _, b := range []DeleteBehavior{DeleteCascade, DeleteRestrict, DeleteSetNull, DeleteNoAction} {
		require.True(t, b.Valid(), string(b))
	}
	require.False(t, DeleteBehavior("nullify").Valid())
}

func TestNameRe(t *testing.T) {
	valid := []string{"post_tags", "a", "rel_2", "tag"}
	for _, name := range valid {
		require.True(t, NameRe.MatchString(name), name)
	}
	invalid := []string{"", "Post_Tags", "post tags", "post-tags", "post.tags"}
	for _, name := range invalid {
		require.False(t, NameRe.MatchString(name), name)
	}
}

func TestSelfReferential(t *testing.T) {
	typeID := uuid.New()
	def := RelationDefinition{SourceContentTypeID: typeID, TargetContentTypeID: typeID}
	require.True(t, def.SelfReferential())

	def.TargetContentTypeID = uuid.New()
	require.False(t, def.SelfReferential())
}
