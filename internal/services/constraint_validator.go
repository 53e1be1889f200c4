package services

import (
	"fmt"

	"github.com/fusecms/engine/internal/models"
	appErr "github.com/fusecms/engine/pkg/errors"
	"github.com/google/uuid"
)

// ValidateRelations checks a proposed target set for one source entry
// against a definition's constraints. existing maps target entry ids to the
// source currently bound to them under the same definition (only consulted
// for to-one relation types); callers load it via
// InstanceRepository.TargetBindings.
//
// The function is pure: it touches no storage and returns every violation
// found, not just the first, so the caller can surface a complete list.
func ValidateRelations(def *models.RelationDefinition, sourceEntryID uuid.UUID, proposed []uuid.UUID, existing map[uuid.UUID]uuid.UUID) appErr.ViolationList {
	var out appErr.ViolationList
	field := def.SourceFieldName

	if def.MaxRelations != nil && len(proposed) > *def.MaxRelations {
		out = append(out, appErr.Violation{
			Kind:    appErr.ViolationMaxRelationsExceeded,
			Field:   field,
			Max:     *def.MaxRelations,
			Message: fmt.Sprintf("at most %d relation(s) allowed, got %d", *def.MaxRelations, len(proposed)),
		})
	}

	if len(proposed) < def.MinRelations {
		out = append(out, appErr.Violation{
			Kind:    appErr.ViolationMinRelationsNotMet,
			Field:   field,
			Min:     def.MinRelations,
			Message: fmt.Sprintf("at least %d relation(s) required, got %d", def.MinRelations, len(proposed)),
		})
	}

	if def.IsRequired && len(proposed) == 0 {
		out = append(out, appErr.Violation{
			Kind:    appErr.ViolationRequiredRelationMissing,
			Field:   field,
			Message: "relation is required",
		})
	}

	if def.RelationType == models.RelationOneToOne && len(proposed) > 1 {
		out = append(out, appErr.Violation{
			Kind:    appErr.ViolationCardinality,
			Field:   field,
			Message: "one_to_one relation allows a single target",
		})
	}

	// For to-one types a target may belong to at most one source.
	if def.RelationType == models.RelationOneToOne || def.RelationType == models.RelationOneToMany {
		for _, target := range proposed {
			boundTo, ok := existing[target]
			if ok && boundTo != sourceEntryID {
				out = append(out, appErr.Violation{
					Kind:             appErr.ViolationTargetAlreadyBound,
					Field:            field,
					TargetID:         target,
					ExistingSourceID: boundTo,
					Message:          fmt.Sprintf("target %s is already bound to source %s", target, boundTo),
				})
			}
		}
	}

	for _, target := range proposed {
		if target == sourceEntryID {
			out = append(out, appErr.Violation{
				Kind:     appErr.ViolationSelfReference,
				Field:    field,
				TargetID: target,
				Message:  "an entry cannot relate to itself",
			})
		}
	}

	seen := make(map[uuid.UUID]bool, len(proposed))
	for _, target := range proposed {
		if seen[target] {
			out = append(out, appErr.Violation{
				Kind:     appErr.ViolationDuplicateTarget,
				Field:    field,
				TargetID: target,
				Message:  fmt.Sprintf("target %s appears more than once", target),
			})
			continue
		}
		seen[target] = true
	}

	return out
}
