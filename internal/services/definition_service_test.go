package services

import (
	"context"
	"testing"

	"github.com/fusecms/engine/internal/models"
	appErr "github.com/fusecms/engine/pkg/errors"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type definitionFixture struct {
	defRepo   *mockDefinitionRepo
	entryRepo *mockEntryRepo
	svc       DefinitionService
}

func newDefinitionFixture(t *testing.T) *definitionFixture {
	t.Helper()
	f := &definitionFixture{
		defRepo:   new(mockDefinitionRepo),
		entryRepo: new(mockEntryRepo),
	}
	f.svc = NewDefinitionService(f.defRepo, f.entryRepo)
	return f
}

func validInput() *DefinitionInput {
	return &DefinitionInput{
		Name:                "post_tags",
		DisplayName:         "Tags",
		SourceContentTypeID: uuid.New(),
		SourceFieldName:     "tags",
		TargetContentTypeID: uuid.New(),
		RelationType:        models.RelationManyToMany,
		OnSourceDelete:      models.DeleteCascade,
		OnTargetDelete:      models.DeleteNoAction,
		IsActive:            true,
	}
}

func (f *definitionFixture) allowContentTypes(input *DefinitionInput) {
	f.entryRepo.On("ContentTypeExists", mock.Anything, input.SourceContentTypeID).Return(true, nil)
	f.entryRepo.On("ContentTypeExists", mock.Anything, input.TargetContentTypeID).Return(true, nil)
}

func TestDefinitionCreate_Valid(t *testing.T) {
	f := newDefinitionFixture(t)
	input := validInput()
	f.allowContentTypes(input)
	f.defRepo.On("FieldNameTaken", mock.Anything, input.SourceContentTypeID, "tags", uuid.Nil).Return(false, nil).Once()
	f.defRepo.On("Create", mock.Anything, mock.Anything).Return(nil).Once()

	def, err := f.svc.Create(context.Background(), input)

	require.NoError(t, err)
	require.Equal(t, "post_tags", def.Name)
	require.Equal(t, models.RelationManyToMany, def.RelationType)
}

func TestDefinitionCreate_AccumulatesValidationErrors(t *testing.T) {
	f := newDefinitionFixture(t)
	input := validInput()
	input.Name = "Post Tags!"
	input.SourceFieldName = ""
	input.RelationType = "one_to_some"
	input.MinRelations = 5
	input.MaxRelations = intPtr(2)
	f.allowContentTypes(input)

	_, err := f.svc.Create(context.Background(), input)

	var errs appErr.ValidationErrorList
	require.ErrorAs(t, err, &errs)
	fields := make(map[string]bool)
	for _, e := range errs {
		fields[e.Field] = true
	}
	require.True(t, fields["name"])
	require.True(t, fields["source_field_name"])
	require.True(t, fields["relation_type"])
	require.True(t, fields["min_relations"])
	f.defRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestDefinitionCreate_UnknownContentType(t *testing.T) {
	f := newDefinitionFixture(t)
	input := validInput()
	f.entryRepo.On("ContentTypeExists", mock.Anything, input.SourceContentTypeID).Return(true, nil).Once()
	f.entryRepo.On("ContentTypeExists", mock.Anything, input.TargetContentTypeID).Return(false, nil).Once()
	f.defRepo.On("FieldNameTaken", mock.Anything, input.SourceContentTypeID, "tags", uuid.Nil).Return(false, nil).Once()

	_, err := f.svc.Create(context.Background(), input)

	var errs appErr.ValidationErrorList
	require.ErrorAs(t, err, &errs)
	require.Len(t, errs, 1)
	require.Equal(t, "target_content_type_id", errs[0].Field)
}

func TestDefinitionCreate_DuplicateFieldName(t *testing.T) {
	f := newDefinitionFixture(t)
	input := validInput()
	f.allowContentTypes(input)
	f.defRepo.On("FieldNameTaken", mock.Anything, input.SourceContentTypeID, "tags", uuid.Nil).Return(true, nil).Once()

	_, err := f.svc.Create(context.Background(), input)

	var errs appErr.ValidationErrorList
	require.ErrorAs(t, err, &errs)
	require.Equal(t, "source_field_name", errs[0].Field)
}

func TestDefinitionCreate_SelfReferentialBidirectionalNeedsDistinctFields(t *testing.T) {
	f := newDefinitionFixture(t)
	input := validInput()
	input.TargetContentTypeID = input.SourceContentTypeID
	input.IsBidirectional = true
	input.TargetFieldName = "tags"
	f.entryRepo.On("ContentTypeExists", mock.Anything, input.SourceContentTypeID).Return(true, nil)
	f.defRepo.On("FieldNameTaken", mock.Anything, input.SourceContentTypeID, "tags", uuid.Nil).Return(false, nil).Once()

	_, err := f.svc.Create(context.Background(), input)

	var errs appErr.ValidationErrorList
	require.ErrorAs(t, err, &errs)
	require.Equal(t, "target_field_name", errs[0].Field)
}

func TestDefinitionUpdate_ExcludesSelfFromFieldNameCheck(t *testing.T) {
	f := newDefinitionFixture(t)
	id := uuid.New()
	input := validInput()
	existing := input.toModel()
	existing.ID = id

	f.defRepo.On("GetByID", mock.Anything, id).Return(existing, nil).Once()
	f.allowContentTypes(input)
	f.defRepo.On("FieldNameTaken", mock.Anything, input.SourceContentTypeID, "tags", id).Return(false, nil).Once()
	f.defRepo.On("Update", mock.Anything, mock.Anything).Return(nil).Once()

	def, err := f.svc.Update(context.Background(), id, input)

	require.NoError(t, err)
	require.Equal(t, id, def.ID)
	f.defRepo.AssertExpectations(t)
}

func TestDefinitionDelete_InUse(t *testing.T) {
	f := newDefinitionFixture(t)
	id := uuid.New()
	f.defRepo.On("DeleteGuarded", mock.Anything, id).Return(&appErr.DefinitionInUseError{Count: 4}).Once()

	err := f.svc.Delete(context.Background(), id)

	var inUse *appErr.DefinitionInUseError
	require.ErrorAs(t, err, &inUse)
	require.Equal(t, int64(4), inUse.Count)
}
