package design

import (
	"encoding/json"
	"fmt"
	"strings"
)

// SchemaVersion is the current on-disk document schema. Version 2 introduced
// the palette role variant flag; version 3 introduced border configs on
// pattern documents. Migrations are additive and default-filling only: a
// document decoded from an older version gains defaults for the fields it
// predates and loses nothing.
const SchemaVersion = 3

// DefaultBorderWidthInches is filled in for stored borders missing a width.
const DefaultBorderWidthInches = 2.5

type storedBlockDocument struct {
	SchemaVersion int `json:"schema_version"`
	BlockDocument
}

type storedPatternDocument struct {
	SchemaVersion int `json:"schema_version"`
	PatternDocument
}

// EncodeBlockDocument serializes a block document stamped with the current
// schema version.
func EncodeBlockDocument(doc BlockDocument) ([]byte, error) {
	payload, err := json.Marshal(storedBlockDocument{SchemaVersion: SchemaVersion, BlockDocument: doc})
	if err != nil {
		return nil, fmt.Errorf("encode block document: %w", err)
	}
	return payload, nil
}

// DecodeBlockDocument deserializes a block document, migrating older schema
// versions forward. Documents written by a newer schema are rejected.
func DecodeBlockDocument(data []byte) (BlockDocument, error) {
	var stored storedBlockDocument
	if err := json.Unmarshal(data, &stored); err != nil {
		return BlockDocument{}, fmt.Errorf("decode block document: %w", err)
	}
	if stored.SchemaVersion > SchemaVersion {
		return BlockDocument{}, fmt.Errorf("block document schema version %d is newer than supported version %d", stored.SchemaVersion, SchemaVersion)
	}
	return MigrateBlockDocument(stored.BlockDocument, stored.SchemaVersion), nil
}

// EncodePatternDocument serializes a pattern document stamped with the
// current schema version.
func EncodePatternDocument(doc PatternDocument) ([]byte, error) {
	payload, err := json.Marshal(storedPatternDocument{SchemaVersion: SchemaVersion, PatternDocument: doc})
	if err != nil {
		return nil, fmt.Errorf("encode pattern document: %w", err)
	}
	return payload, nil
}

// DecodePatternDocument deserializes a pattern document, migrating older
// schema versions forward. Documents written by a newer schema are rejected.
func DecodePatternDocument(data []byte) (PatternDocument, error) {
	var stored storedPatternDocument
	if err := json.Unmarshal(data, &stored); err != nil {
		return PatternDocument{}, fmt.Errorf("decode pattern document: %w", err)
	}
	if stored.SchemaVersion > SchemaVersion {
		return PatternDocument{}, fmt.Errorf("pattern document schema version %d is newer than supported version %d", stored.SchemaVersion, SchemaVersion)
	}
	return MigratePatternDocument(stored.PatternDocument, stored.SchemaVersion), nil
}

// MigrateBlockDocument migrates a block document decoded at the given schema
// version forward to the current one. Used directly by stores that persist
// documents inside larger snapshots.
func MigrateBlockDocument(doc BlockDocument, version int) BlockDocument {
	if version < 2 {
		doc.Palette = stampVariantRoles(doc.Palette)
	}
	if doc.Size <= 0 {
		doc.Size = DefaultBlockSize
	}
	if len(doc.Palette) == 0 {
		doc.Palette = DefaultPalette()
	}
	return doc
}

// MigratePatternDocument migrates a pattern document decoded at the given
// schema version forward to the current one.
func MigratePatternDocument(doc PatternDocument, version int) PatternDocument {
	if version < 2 {
		doc.Palette = stampVariantRoles(doc.Palette)
	}
	if doc.Rows <= 0 {
		doc.Rows = DefaultPatternRows
	}
	if doc.Cols <= 0 {
		doc.Cols = DefaultPatternCols
	}
	if len(doc.Palette) == 0 {
		doc.Palette = DefaultPalette()
	}
	doc.Borders = fillBorderDefaults(doc.Borders, doc.Palette)
	return doc
}

// stampVariantRoles recovers the variant flag for palette entries written
// before the flag existed. Variant entries are identified by their derived
// id prefix.
func stampVariantRoles(palette []Role) []Role {
	next := ClonePalette(palette)
	for i, role := range next {
		if !role.Variant && strings.HasPrefix(role.ID, variantRolePrefix) {
			next[i].Variant = true
		}
	}
	return next
}

// fillBorderDefaults fills zero-valued border fields with defaults. A config
// holding no borders collapses to nil so documents written before borders
// existed round-trip exactly.
func fillBorderDefaults(cfg *BorderConfig, palette []Role) *BorderConfig {
	if cfg == nil || len(cfg.Borders) == 0 {
		return nil
	}
	next := CloneBorderConfig(cfg)
	for i, b := range next.Borders {
		if b.WidthInches <= 0 {
			next.Borders[i].WidthInches = DefaultBorderWidthInches
		}
		if b.Style == "" {
			next.Borders[i].Style = BorderStyleSolid
		}
		if b.CornerStyle == "" {
			next.Borders[i].CornerStyle = CornerStyleOverlap
		}
		if b.FabricRole == "" && len(palette) > 0 {
			next.Borders[i].FabricRole = palette[0].ID
		}
	}
	return next
}
