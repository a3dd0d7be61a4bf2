package sharingd

import (
	"github.com/google/uuid"
)

// AssociationLabel names a directed edge between two resources. Labels come
// in fixed pairs; writing an edge always writes its inverse, and removing
// either removes both.
type AssociationLabel string

const (
	AssociationLabelParentOf     AssociationLabel = "parent_of"
	AssociationLabelChildOf      AssociationLabel = "child_of"
	AssociationLabelHasPart      AssociationLabel = "has_part"
	AssociationLabelPartOf       AssociationLabel = "part_of"
	AssociationLabelDependsOn    AssociationLabel = "depends_on"
	AssociationLabelDependencyOf AssociationLabel = "dependency_of"
	AssociationLabelReferences   AssociationLabel = "references"
	AssociationLabelReferencedBy AssociationLabel = "referenced_by"
	AssociationLabelOwnedBy      AssociationLabel = "owned_by"
	AssociationLabelOwnerOf      AssociationLabel = "owner_of"
)

var associationInverses = map[AssociationLabel]AssociationLabel{
	AssociationLabelParentOf:     AssociationLabelChildOf,
	AssociationLabelChildOf:      AssociationLabelParentOf,
	AssociationLabelHasPart:      AssociationLabelPartOf,
	AssociationLabelPartOf:       AssociationLabelHasPart,
	AssociationLabelDependsOn:    AssociationLabelDependencyOf,
	AssociationLabelDependencyOf: AssociationLabelDependsOn,
	AssociationLabelReferences:   AssociationLabelReferencedBy,
	AssociationLabelReferencedBy: AssociationLabelReferences,
	AssociationLabelOwnedBy:      AssociationLabelOwnerOf,
	AssociationLabelOwnerOf:      AssociationLabelOwnedBy,
}

// Valid reports whether l is one of the known association labels.
func (l AssociationLabel) Valid() bool {
	_, ok := associationInverses[l]
	return ok
}

// Inverse returns the paired label. The mapping is total over the valid set;
// the zero label is returned for unknown input.
func (l AssociationLabel) Inverse() AssociationLabel {
	return associationInverses[l]
}

// Association is a directed, labeled edge between two stored resources.
type Association struct {
	From       uuid.UUID
	Label      AssociationLabel
	To         uuid.UUID
	Properties map[string]interface{}
}
