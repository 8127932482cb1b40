// Package model defines the registry-supplied formula tree and the
// session-scoped state derived from it.
package model

// NodeType classifies a formula tree node.
type NodeType string

const (
	NodeInput      NodeType = "input"
	NodeCalculated NodeType = "calculated"
	NodeOperator   NodeType = "operator"
)

// FieldType is the declared type of an input field.
type FieldType string

const (
	FieldNumber  FieldType = "number"
	FieldString  FieldType = "string"
	FieldBoolean FieldType = "boolean"
	FieldDate    FieldType = "date"
	FieldFile    FieldType = "file"
	FieldArray   FieldType = "array"
	FieldObject  FieldType = "object"
)

// InputMethod is a way a field value may enter the session.
type InputMethod string

const (
	MethodAPI    InputMethod = "api"
	MethodExcel  InputMethod = "excel"
	MethodManual InputMethod = "manual"
	MethodUpload InputMethod = "upload"
)

// RuleType identifies a validation rule. All rules are advisory: they
// annotate the field state but never block an update.
type RuleType string

const (
	RuleMin      RuleType = "min"
	RuleMax      RuleType = "max"
	RuleRange    RuleType = "range"
	RuleEnum     RuleType = "enum"
	RuleFileType RuleType = "file_type"
	RuleFileSize RuleType = "file_size"
	RuleRequired RuleType = "required"
)

// ValidationRule is a typed constraint on an input field's value.
type ValidationRule struct {
	Type      RuleType `json:"type" yaml:"type"`
	Min       *float64 `json:"min,omitempty" yaml:"min,omitempty"`
	Max       *float64 `json:"max,omitempty" yaml:"max,omitempty"`
	Values    []string `json:"values,omitempty" yaml:"values,omitempty"`
	FileTypes []string `json:"file_types,omitempty" yaml:"file_types,omitempty"`
	MaxSizeMB float64  `json:"max_size_mb,omitempty" yaml:"max_size_mb,omitempty"`
	Message   string   `json:"message,omitempty" yaml:"message,omitempty"`
}

// InputField describes one required or optional input of a formula node.
// Field ids are unique across the entire tree: they double as keys into
// the session's flat field-value map.
type InputField struct {
	ID              string           `json:"field_id" yaml:"field_id"`
	Name            string           `json:"field_name" yaml:"field_name"`
	Type            FieldType        `json:"field_type" yaml:"field_type"`
	Required        bool             `json:"required" yaml:"required"`
	Unit            string           `json:"unit,omitempty" yaml:"unit,omitempty"`
	InputMethods    []InputMethod    `json:"input_methods,omitempty" yaml:"input_methods,omitempty"`
	ValidationRules []ValidationRule `json:"validation_rules,omitempty" yaml:"validation_rules,omitempty"`
	DefaultValue    *FieldValue      `json:"default_value,omitempty" yaml:"default_value,omitempty"`
	NestedFields    []InputField     `json:"nested_fields,omitempty" yaml:"nested_fields,omitempty"`
	HelpText        string           `json:"help_text,omitempty" yaml:"help_text,omitempty"`
}

// FormulaNode is one node of a protocol's calculation tree. The tree is
// immutable shared configuration: many sessions reference the same tree.
//
// Operator nodes carry no inputs and no children; they are rendered
// between their siblings. The Formula string is documentation only and
// is never evaluated.
type FormulaNode struct {
	ID             string         `json:"node_id" yaml:"node_id"`
	Name           string         `json:"node_name" yaml:"node_name"`
	Type           NodeType       `json:"node_type" yaml:"node_type"`
	Formula        string         `json:"formula,omitempty" yaml:"formula,omitempty"`
	Operator       string         `json:"operator,omitempty" yaml:"operator,omitempty"`
	RequiredInputs []InputField   `json:"required_inputs,omitempty" yaml:"required_inputs,omitempty"`
	Children       []*FormulaNode `json:"children,omitempty" yaml:"children,omitempty"`
}

// Walk visits n and its descendants in pre-order. It stops early if fn
// returns false.
func (n *FormulaNode) Walk(fn func(*FormulaNode) bool) bool {
	if n == nil {
		return true
	}
	if !fn(n) {
		return false
	}
	for _, c := range n.Children {
		if !c.Walk(fn) {
			return false
		}
	}
	return true
}

// Fields returns every input field declared anywhere in the tree, in
// pre-order.
func (n *FormulaNode) Fields() []InputField {
	var out []InputField
	n.Walk(func(node *FormulaNode) bool {
		out = append(out, node.RequiredInputs...)
		return true
	})
	return out
}
