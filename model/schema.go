package model

import (
	"fmt"
	"strings"

	"github.com/hangxie/parquet-go/v2/parquet"
)

// LeafColumn describes one leaf of the schema tree together with the level
// bounds computed along its path.
type LeafColumn struct {
	Path               []string
	Element            *parquet.SchemaElement
	MaxDefinitionLevel int
	MaxRepetitionLevel int
}

// Name returns the dotted path of the leaf.
func (c LeafColumn) Name() string {
	return strings.Join(c.Path, ".")
}

// SchemaHelper answers level and repetition questions about the flat
// preorder schema list from the footer. The schema is stored as a flat list
// in depth-first pre-order; children of an element follow it immediately,
// their count given by NumChildren.
type SchemaHelper struct {
	elements []*parquet.SchemaElement
	leaves   []LeafColumn
	byPath   map[string]int
	byName   map[string]*parquet.SchemaElement
}

// NewSchemaHelper walks the flat schema list once and indexes every leaf.
func NewSchemaHelper(schema []*parquet.SchemaElement) (*SchemaHelper, error) {
	if len(schema) == 0 {
		return nil, fmt.Errorf("%w: empty schema", ErrCorruptMetadata)
	}
	h := &SchemaHelper{
		elements: schema,
		byPath:   map[string]int{},
		byName:   map[string]*parquet.SchemaElement{},
	}
	next := 1
	root := schema[0]
	for i := 0; i < numChildren(root); i++ {
		n, err := h.walk(schema, next, nil, 0, 0)
		if err != nil {
			return nil, err
		}
		next = n
	}
	if next != len(schema) {
		return nil, fmt.Errorf("%w: schema has %d elements, tree covers %d", ErrCorruptMetadata, len(schema), next)
	}
	return h, nil
}

func (h *SchemaHelper) walk(schema []*parquet.SchemaElement, idx int, prefix []string, maxDef, maxRep int) (int, error) {
	if idx >= len(schema) {
		return 0, fmt.Errorf("%w: schema tree extends past element list", ErrCorruptMetadata)
	}
	elem := schema[idx]
	path := append(append([]string{}, prefix...), elem.Name)
	dotted := strings.Join(path, ".")
	if _, ok := h.byPath[dotted]; ok {
		return 0, fmt.Errorf("%w: duplicate schema element %q", ErrCorruptMetadata, dotted)
	}

	rep := parquet.FieldRepetitionType_REQUIRED
	if elem.RepetitionType != nil {
		rep = *elem.RepetitionType
	}
	if rep != parquet.FieldRepetitionType_REQUIRED {
		maxDef++
	}
	if rep == parquet.FieldRepetitionType_REPEATED {
		maxRep++
	}

	next := idx + 1
	if n := numChildren(elem); n > 0 {
		h.byPath[dotted] = -1
		for i := 0; i < n; i++ {
			var err error
			next, err = h.walk(schema, next, path, maxDef, maxRep)
			if err != nil {
				return 0, err
			}
		}
	} else {
		h.byPath[dotted] = len(h.leaves)
		h.leaves = append(h.leaves, LeafColumn{
			Path:               path,
			Element:            elem,
			MaxDefinitionLevel: maxDef,
			MaxRepetitionLevel: maxRep,
		})
	}
	if _, ok := h.byName[elem.Name]; !ok {
		h.byName[elem.Name] = elem
	}
	return next, nil
}

func numChildren(elem *parquet.SchemaElement) int {
	if elem.NumChildren == nil {
		return 0
	}
	return int(*elem.NumChildren)
}

// Leaves returns all leaf columns in schema order.
func (h *SchemaHelper) Leaves() []LeafColumn {
	return h.leaves
}

// Leaf resolves a path to its leaf column.
func (h *SchemaHelper) Leaf(path []string) (LeafColumn, error) {
	idx, ok := h.byPath[strings.Join(path, ".")]
	if !ok || idx < 0 {
		return LeafColumn{}, fmt.Errorf("%w: %s", ErrUnknownColumn, strings.Join(path, "."))
	}
	return h.leaves[idx], nil
}

// MaxDefinitionLevel counts the non-REQUIRED elements along the path,
// excluding the root.
func (h *SchemaHelper) MaxDefinitionLevel(path []string) (int, error) {
	leaf, err := h.Leaf(path)
	if err != nil {
		return 0, err
	}
	return leaf.MaxDefinitionLevel, nil
}

// MaxRepetitionLevel counts the REPEATED elements along the path.
func (h *SchemaHelper) MaxRepetitionLevel(path []string) (int, error) {
	leaf, err := h.Leaf(path)
	if err != nil {
		return 0, err
	}
	return leaf.MaxRepetitionLevel, nil
}

// IsRequired reports whether the named element has REQUIRED repetition.
// Unknown names count as required, matching how absent level streams are
// treated.
func (h *SchemaHelper) IsRequired(name string) bool {
	elem, ok := h.byName[name]
	if !ok {
		return true
	}
	return elem.RepetitionType == nil || *elem.RepetitionType == parquet.FieldRepetitionType_REQUIRED
}
