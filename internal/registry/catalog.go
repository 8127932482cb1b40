// Package registry holds the certifying-body configurations: each
// registry defines protocols, and each protocol defines the formula
// tree a session is filled against.
package registry

import (
	"github.com/rotisserie/eris"

	"github.com/terraledger/mrv-cli/internal/model"
)

// ErrNotFound is returned when a registry or protocol id cannot be
// resolved.
var ErrNotFound = eris.New("registry: not found")

// Registry is one certifying body (e.g. Verra) and its protocols.
type Registry struct {
	ID          string     `json:"registry_id" yaml:"registry_id"`
	Name        string     `json:"registry_name" yaml:"registry_name"`
	Description string     `json:"description,omitempty" yaml:"description,omitempty"`
	Protocols   []Protocol `json:"protocols" yaml:"protocols"`
}

// Protocol is one methodology within a registry, carrying the formula
// tree that drives calculation and gap analysis.
type Protocol struct {
	ID          string             `json:"protocol_id" yaml:"protocol_id"`
	Name        string             `json:"protocol_name" yaml:"protocol_name"`
	Methodology string             `json:"methodology,omitempty" yaml:"methodology,omitempty"`
	Description string             `json:"description,omitempty" yaml:"description,omitempty"`
	Root        *model.FormulaNode `json:"formula_tree" yaml:"formula_tree"`
}

// FieldRef is a flattened field definition plus the node that declares it.
type FieldRef struct {
	Field    model.InputField
	NodeID   string
	NodeName string
}

// Index is the flattened field lookup for one protocol tree.
type Index struct {
	byID     map[string]FieldRef
	ordered  []FieldRef
	required []FieldRef
}

// NewIndex flattens a protocol tree into an indexed field lookup. It
// fails when a field id appears more than once: field ids key the
// session's flat value map and must be unique across the whole tree.
func NewIndex(root *model.FormulaNode) (*Index, error) {
	idx := &Index{byID: make(map[string]FieldRef)}
	var dup string
	root.Walk(func(n *model.FormulaNode) bool {
		for _, f := range n.RequiredInputs {
			if _, ok := idx.byID[f.ID]; ok {
				dup = f.ID
				return false
			}
			ref := FieldRef{Field: f, NodeID: n.ID, NodeName: n.Name}
			idx.byID[f.ID] = ref
			idx.ordered = append(idx.ordered, ref)
			if f.Required {
				idx.required = append(idx.required, ref)
			}
		}
		return true
	})
	if dup != "" {
		return nil, eris.Errorf("registry: duplicate field id %q in tree %s", dup, root.ID)
	}
	return idx, nil
}

// ByID returns the field reference for a field id.
func (i *Index) ByID(id string) (FieldRef, bool) {
	ref, ok := i.byID[id]
	return ref, ok
}

// Fields returns all fields in tree pre-order.
func (i *Index) Fields() []FieldRef { return i.ordered }

// Required returns all fields marked required.
func (i *Index) Required() []FieldRef { return i.required }

// Catalog is an indexed collection of registries.
type Catalog struct {
	registries []Registry
	byID       map[string]*Registry
	protocols  map[[2]string]*Protocol
	indexes    map[[2]string]*Index
}

// NewCatalog indexes the given registries and validates every protocol
// tree (presence of a root, field-id uniqueness).
func NewCatalog(regs ...Registry) (*Catalog, error) {
	c := &Catalog{
		registries: regs,
		byID:       make(map[string]*Registry, len(regs)),
		protocols:  make(map[[2]string]*Protocol),
		indexes:    make(map[[2]string]*Index),
	}
	for ri := range c.registries {
		r := &c.registries[ri]
		if r.ID == "" {
			return nil, eris.New("registry: missing registry_id")
		}
		c.byID[r.ID] = r
		for pi := range r.Protocols {
			p := &r.Protocols[pi]
			if p.Root == nil {
				return nil, eris.Errorf("registry: protocol %s/%s has no formula tree", r.ID, p.ID)
			}
			idx, err := NewIndex(p.Root)
			if err != nil {
				return nil, eris.Wrapf(err, "registry: protocol %s/%s", r.ID, p.ID)
			}
			key := [2]string{r.ID, p.ID}
			c.protocols[key] = p
			c.indexes[key] = idx
		}
	}
	return c, nil
}

// Builtin returns the catalog of the three shipped registry
// configurations: Verra VM0042, Puro.earth Biochar, and Isometric
// Enhanced Weathering.
func Builtin() *Catalog {
	c, err := NewCatalog(Verra(), Puro(), Isometric())
	if err != nil {
		// The builtin trees are static; a broken one is a programming
		// error caught by the package tests.
		panic(err)
	}
	return c
}

// Registries lists all registries in the catalog.
func (c *Catalog) Registries() []Registry { return c.registries }

// Registry resolves a registry by id.
func (c *Catalog) Registry(id string) (*Registry, bool) {
	r, ok := c.byID[id]
	return r, ok
}

// Protocol resolves a protocol by registry and protocol id.
func (c *Catalog) Protocol(registryID, protocolID string) (*Protocol, bool) {
	p, ok := c.protocols[[2]string{registryID, protocolID}]
	return p, ok
}

// FieldIndex returns the flattened field index for a protocol.
func (c *Catalog) FieldIndex(registryID, protocolID string) (*Index, bool) {
	idx, ok := c.indexes[[2]string{registryID, protocolID}]
	return idx, ok
}
