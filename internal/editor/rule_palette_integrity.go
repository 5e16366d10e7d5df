package editor

import (
	"context"
	"fmt"

	"quiltcore/pkg/design"
)

// NewPaletteIntegrityRule returns the default in-transaction rule enforcing
// palette consistency: every stored document must keep a non-empty palette
// with unique role ids, and every role reference from a unit slot, instance
// override, or border fabric must resolve to a palette entry.
func NewPaletteIntegrityRule() design.Rule {
	return paletteIntegrityRule{}
}

type paletteIntegrityRule struct{}

func (paletteIntegrityRule) Name() string { return "palette_integrity" }

func (paletteIntegrityRule) Evaluate(_ context.Context, view design.RuleView, _ []design.Change) (design.Result, error) {
	res := design.Result{}

	for _, record := range view.ListBlockDesigns() {
		doc := record.Document
		roles, violations := paletteIndex(record.Name, design.EntityBlockDesign, record.ID, doc.Palette)
		res.Violations = append(res.Violations, violations...)
		for _, unit := range doc.Units {
			for part, roleID := range unit.Roles {
				if roles[roleID] {
					continue
				}
				res.Violations = append(res.Violations, paletteViolation(design.EntityBlockDesign, record.ID,
					fmt.Sprintf("block design %s unit %s part %s references unknown role %q", record.Name, unit.ID, part, roleID)))
			}
		}
	}

	for _, record := range view.ListPatternDesigns() {
		doc := record.Document
		roles, violations := paletteIndex(record.Name, design.EntityPatternDesign, record.ID, doc.Palette)
		res.Violations = append(res.Violations, violations...)
		for _, instance := range doc.Instances {
			for roleID := range instance.Overrides {
				if roles[roleID] {
					continue
				}
				res.Violations = append(res.Violations, paletteViolation(design.EntityPatternDesign, record.ID,
					fmt.Sprintf("pattern design %s instance %s overrides unknown role %q", record.Name, instance.ID, roleID)))
			}
		}
		if doc.Borders == nil {
			continue
		}
		for _, border := range doc.Borders.Borders {
			if roles[border.FabricRole] {
				continue
			}
			res.Violations = append(res.Violations, paletteViolation(design.EntityPatternDesign, record.ID,
				fmt.Sprintf("pattern design %s border %s references unknown fabric role %q", record.Name, border.ID, border.FabricRole)))
		}
	}

	return res, nil
}

func paletteIndex(name string, entity design.EntityType, id string, palette []design.Role) (map[string]bool, []design.Violation) {
	var violations []design.Violation
	if len(palette) == 0 {
		violations = append(violations, paletteViolation(entity, id,
			fmt.Sprintf("%s %s has an empty palette", entity, name)))
	}
	roles := make(map[string]bool, len(palette))
	for _, role := range palette {
		if roles[role.ID] {
			violations = append(violations, paletteViolation(entity, id,
				fmt.Sprintf("%s %s declares duplicate role id %q", entity, name, role.ID)))
			continue
		}
		roles[role.ID] = true
	}
	return roles, violations
}

func paletteViolation(entity design.EntityType, id, message string) design.Violation {
	return design.Violation{
		Rule:     "palette_integrity",
		Severity: design.SeverityBlock,
		Message:  message,
		Entity:   entity,
		EntityID: id,
	}
}
