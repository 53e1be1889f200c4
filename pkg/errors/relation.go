package errors

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// ViolationKind identifies one of the relation constraint checks.
type ViolationKind string

const (
	ViolationMaxRelationsExceeded    ViolationKind = "max_relations_exceeded"
	ViolationMinRelationsNotMet      ViolationKind = "min_relations_not_met"
	ViolationRequiredRelationMissing ViolationKind = "required_relation_missing"
	ViolationCardinality             ViolationKind = "cardinality_violation"
	ViolationTargetAlreadyBound      ViolationKind = "target_already_bound"
	ViolationSelfReference           ViolationKind = "self_reference_not_allowed"
	ViolationDuplicateTarget         ViolationKind = "duplicate_target"
)

// Violation is a single constraint check failure for one relation field.
// All populated Violations from one validation pass are returned together
// so the caller can render a complete error list.
type Violation struct {
	Kind             ViolationKind `json:"kind"`
	Field            string        `json:"field"`
	Message          string        `json:"message"`
	Max              int           `json:"max,omitempty"`
	Min              int           `json:"min,omitempty"`
	TargetID         uuid.UUID     `json:"target_id,omitempty"`
	ExistingSourceID uuid.UUID     `json:"existing_source_id,omitempty"`
}

// ViolationList aggregates violations, possibly across multiple relation
// fields of one entry. It satisfies error so services can return it directly.
type ViolationList []Violation

func (v ViolationList) Error() string {
	if len(v) == 0 {
		return "no violations"
	}
	msgs := make([]string, len(v))
	for i, viol := range v {
		msgs[i] = fmt.Sprintf("%s: %s", viol.Field, viol.Message)
	}
	return fmt.Sprintf("%d constraint violation(s): %s", len(v), strings.Join(msgs, "; "))
}

// ValidationError reports a single invalid field on a relation definition.
type ValidationError struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid definition field %s: %s", e.Field, e.Reason)
}

// ValidationErrorList aggregates definition validation failures.
type ValidationErrorList []ValidationError

func (v ValidationErrorList) Error() string {
	msgs := make([]string, len(v))
	for i, e := range v {
		msgs[i] = fmt.Sprintf("%s: %s", e.Field, e.Reason)
	}
	return fmt.Sprintf("%d validation error(s): %s", len(v), strings.Join(msgs, "; "))
}

// DefinitionInUseError blocks deletion of a definition that still has instances.
type DefinitionInUseError struct {
	Count int64 `json:"count"`
}

func (e *DefinitionInUseError) Error() string {
	return fmt.Sprintf("definition has %d relation instance(s); delete instances first", e.Count)
}

// CascadeRestrictError blocks entry deletion when a definition with a
// restrict on-delete behavior still references the entry.
type CascadeRestrictError struct {
	DefinitionID uuid.UUID `json:"definition_id"`
	Count        int64     `json:"count"`
}

func (e *CascadeRestrictError) Error() string {
	return fmt.Sprintf("deletion restricted by definition %s: %d instance(s) reference the entry", e.DefinitionID, e.Count)
}
