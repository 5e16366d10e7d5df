package editor

import (
	"context"
	"fmt"

	"quiltcore/pkg/design"
	"quiltcore/pkg/design/unitdef"
)

// NewDocumentStructureRule returns the rule checking stored documents against
// the structural vocabulary: unit types must be registered, spans must match
// the type at its orientation, rotations and border enums must hold supported
// values, and ids must be unique within a document. The editors only produce
// well-formed documents, so findings here mean the document arrived from
// outside the editing flow; breaches warn so the document can be saved and
// repaired. A palette past the role cap is reported at log severity because
// it only gates future role creation.
func NewDocumentStructureRule() design.Rule {
	return documentStructureRule{}
}

type documentStructureRule struct{}

func (documentStructureRule) Name() string { return "document_structure" }

func (documentStructureRule) Evaluate(_ context.Context, view design.RuleView, _ []design.Change) (design.Result, error) {
	res := design.Result{}

	for _, record := range view.ListBlockDesigns() {
		doc := record.Document
		res.Violations = append(res.Violations, blockStructureViolations(record, doc)...)
		if len(doc.Palette) > design.MaxPaletteRoles {
			res.Violations = append(res.Violations, structureViolation(design.EntityBlockDesign, record.ID, design.SeverityLog,
				fmt.Sprintf("block design %s palette holds %d roles, above the cap of %d", record.Name, len(doc.Palette), design.MaxPaletteRoles)))
		}
	}

	for _, record := range view.ListPatternDesigns() {
		doc := record.Document
		res.Violations = append(res.Violations, patternStructureViolations(record, doc)...)
		if len(doc.Palette) > design.MaxPaletteRoles {
			res.Violations = append(res.Violations, structureViolation(design.EntityPatternDesign, record.ID, design.SeverityLog,
				fmt.Sprintf("pattern design %s palette holds %d roles, above the cap of %d", record.Name, len(doc.Palette), design.MaxPaletteRoles)))
		}
	}

	return res, nil
}

func blockStructureViolations(record design.BlockDesign, doc design.BlockDocument) []design.Violation {
	var out []design.Violation
	warn := func(format string, args ...any) {
		out = append(out, structureViolation(design.EntityBlockDesign, record.ID, design.SeverityWarn, fmt.Sprintf(format, args...)))
	}

	seen := make(map[string]bool, len(doc.Units))
	for _, unit := range doc.Units {
		if seen[unit.ID] {
			warn("block design %s declares duplicate unit id %q", record.Name, unit.ID)
		}
		seen[unit.ID] = true

		def, ok := unitdef.Lookup(unit.Type)
		if !ok {
			warn("block design %s unit %s has unregistered type %q", record.Name, unit.ID, unit.Type)
			continue
		}
		if len(def.Orientations) == 0 {
			if unit.Orientation != "" {
				warn("block design %s unit %s carries orientation %q but type %q has no rotation cycle", record.Name, unit.ID, unit.Orientation, unit.Type)
			}
		} else if !orientationInCycle(def.Orientations, unit.Orientation) {
			warn("block design %s unit %s orientation %q is not valid for type %q", record.Name, unit.ID, unit.Orientation, unit.Type)
		}
		if want := def.SpanFor(unit.Orientation); unit.Span != want {
			warn("block design %s unit %s span %dx%d does not match type %q at orientation %q (want %dx%d)",
				record.Name, unit.ID, unit.Span.Rows, unit.Span.Cols, unit.Type, unit.Orientation, want.Rows, want.Cols)
		}
		for part := range unit.Roles {
			if !def.HasPart(part) {
				warn("block design %s unit %s assigns a role to undeclared part %q of type %q", record.Name, unit.ID, part, unit.Type)
			}
		}
	}
	return out
}

func patternStructureViolations(record design.PatternDesign, doc design.PatternDocument) []design.Violation {
	var out []design.Violation
	warn := func(format string, args ...any) {
		out = append(out, structureViolation(design.EntityPatternDesign, record.ID, design.SeverityWarn, fmt.Sprintf(format, args...)))
	}

	seen := make(map[string]bool, len(doc.Instances))
	for _, instance := range doc.Instances {
		if seen[instance.ID] {
			warn("pattern design %s declares duplicate instance id %q", record.Name, instance.ID)
		}
		seen[instance.ID] = true

		switch instance.Rotation {
		case design.Rotation0, design.Rotation90, design.Rotation180, design.Rotation270:
		default:
			warn("pattern design %s instance %s has unsupported rotation %d", record.Name, instance.ID, instance.Rotation)
		}
	}

	if doc.Borders == nil {
		return out
	}
	borderIDs := make(map[string]bool, len(doc.Borders.Borders))
	for _, border := range doc.Borders.Borders {
		if borderIDs[border.ID] {
			warn("pattern design %s declares duplicate border id %q", record.Name, border.ID)
		}
		borderIDs[border.ID] = true

		if border.WidthInches < 0 {
			warn("pattern design %s border %s has negative width %.2f", record.Name, border.ID, border.WidthInches)
		}
		if !border.Style.Valid() {
			warn("pattern design %s border %s has unsupported style %q", record.Name, border.ID, border.Style)
		}
		if !border.CornerStyle.Valid() {
			warn("pattern design %s border %s has unsupported corner style %q", record.Name, border.ID, border.CornerStyle)
		}
	}
	return out
}

func orientationInCycle(cycle []design.Orientation, o design.Orientation) bool {
	for _, candidate := range cycle {
		if candidate == o {
			return true
		}
	}
	return false
}

func structureViolation(entity design.EntityType, id string, severity design.Severity, message string) design.Violation {
	return design.Violation{
		Rule:     "document_structure",
		Severity: severity,
		Message:  message,
		Entity:   entity,
		EntityID: id,
	}
}
