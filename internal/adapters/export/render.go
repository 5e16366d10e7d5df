package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"quiltcore/pkg/design"
)

// renderBlock encodes a block document in the requested format. JSON is the
// versioned document envelope; CSV is one row per placed unit.
func renderBlock(doc design.BlockDocument, format Format) ([]byte, error) {
	switch format {
	case FormatJSON:
		return design.EncodeBlockDocument(doc)
	case FormatCSV:
		return blockCSV(doc)
	default:
		return nil, fmt.Errorf("unsupported export format %s", format)
	}
}

// renderPattern encodes a pattern document in the requested format. JSON is
// the versioned document envelope; CSV is one row per placed block instance.
func renderPattern(doc design.PatternDocument, format Format) ([]byte, error) {
	switch format {
	case FormatJSON:
		return design.EncodePatternDocument(doc)
	case FormatCSV:
		return patternCSV(doc)
	default:
		return nil, fmt.Errorf("unsupported export format %s", format)
	}
}

func blockCSV(doc design.BlockDocument) ([]byte, error) {
	buf := &bytes.Buffer{}
	writer := csv.NewWriter(buf)
	header := []string{"unit_id", "type", "row", "col", "row_span", "col_span", "orientation", "roles"}
	if err := writer.Write(header); err != nil {
		return nil, err
	}
	for _, u := range doc.Units {
		row := []string{
			u.ID,
			string(u.Type),
			strconv.Itoa(u.Position.Row),
			strconv.Itoa(u.Position.Col),
			strconv.Itoa(u.Span.Rows),
			strconv.Itoa(u.Span.Cols),
			string(u.Orientation),
			joinRoleAssignments(u.Roles),
		}
		if err := writer.Write(row); err != nil {
			return nil, err
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func patternCSV(doc design.PatternDocument) ([]byte, error) {
	buf := &bytes.Buffer{}
	writer := csv.NewWriter(buf)
	header := []string{"instance_id", "block_id", "row", "col", "rotation", "flip_horizontal", "flip_vertical", "overrides"}
	if err := writer.Write(header); err != nil {
		return nil, err
	}
	for _, in := range doc.Instances {
		row := []string{
			in.ID,
			in.BlockID,
			strconv.Itoa(in.Position.Row),
			strconv.Itoa(in.Position.Col),
			strconv.Itoa(int(in.Rotation)),
			strconv.FormatBool(in.FlipHorizontal),
			strconv.FormatBool(in.FlipVertical),
			joinOverrides(in.Overrides),
		}
		if err := writer.Write(row); err != nil {
			return nil, err
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// joinRoleAssignments flattens a part-to-role map into a stable cell value.
func joinRoleAssignments(roles map[design.PartID]string) string {
	if len(roles) == 0 {
		return ""
	}
	parts := make([]string, 0, len(roles))
	for part := range roles {
		parts = append(parts, string(part))
	}
	sort.Strings(parts)
	pairs := make([]string, 0, len(parts))
	for _, part := range parts {
		pairs = append(pairs, part+"="+roles[design.PartID(part)])
	}
	return strings.Join(pairs, ";")
}

func joinOverrides(overrides map[string]string) string {
	if len(overrides) == 0 {
		return ""
	}
	keys := make([]string, 0, len(overrides))
	for key := range overrides {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	pairs := make([]string, 0, len(keys))
	for _, key := range keys {
		pairs = append(pairs, key+"="+overrides[key])
	}
	return strings.Join(pairs, ";")
}
