package model

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// ValueKind tags the variant held by a FieldValue.
type ValueKind string

const (
	KindEmpty  ValueKind = ""
	KindNumber ValueKind = "number"
	KindText   ValueKind = "text"
	KindBool   ValueKind = "bool"
	KindDate   ValueKind = "date"
	KindFile   ValueKind = "file"
	KindList   ValueKind = "list"
	KindRecord ValueKind = "record"
)

// FieldValue is a tagged union over the value shapes a field can hold.
// Exactly one variant is meaningful, selected by Kind. The zero value
// is the empty value.
type FieldValue struct {
	Kind   ValueKind             `json:"kind"`
	Num    float64               `json:"number,omitempty"`
	Text   string                `json:"text,omitempty"`
	Bool   bool                  `json:"bool,omitempty"`
	Date   time.Time             `json:"date,omitzero"`
	File   *UploadedFile         `json:"file,omitempty"`
	List   []FieldValue          `json:"list,omitempty"`
	Record map[string]FieldValue `json:"record,omitempty"`
}

// UploadedFile describes a stored evidence document. The blob itself
// lives behind StorageURL; the session only keeps the descriptor.
type UploadedFile struct {
	FileID     string    `json:"file_id"`
	FileName   string    `json:"file_name"`
	FileType   string    `json:"file_type"`
	FileSize   int64     `json:"file_size"`
	UploadDate time.Time `json:"upload_date"`
	StorageURL string    `json:"storage_url"`
}

func Number(v float64) FieldValue      { return FieldValue{Kind: KindNumber, Num: v} }
func Text(v string) FieldValue         { return FieldValue{Kind: KindText, Text: v} }
func Boolean(v bool) FieldValue        { return FieldValue{Kind: KindBool, Bool: v} }
func Date(v time.Time) FieldValue      { return FieldValue{Kind: KindDate, Date: v} }
func File(f *UploadedFile) FieldValue  { return FieldValue{Kind: KindFile, File: f} }
func List(vs ...FieldValue) FieldValue { return FieldValue{Kind: KindList, List: vs} }

// RecordOf builds a record value from a field map.
func RecordOf(m map[string]FieldValue) FieldValue { return FieldValue{Kind: KindRecord, Record: m} }

// IsEmpty reports whether the value counts as unset. Empty text counts
// as unset, matching the filled-status rule for field states.
func (v FieldValue) IsEmpty() bool {
	switch v.Kind {
	case KindEmpty:
		return true
	case KindText:
		return v.Text == ""
	case KindDate:
		return v.Date.IsZero()
	case KindFile:
		return v.File == nil
	case KindList:
		return len(v.List) == 0
	case KindRecord:
		return len(v.Record) == 0
	default:
		return false
	}
}

// AsNumber coerces the value to a float64. Text is parsed; anything
// non-numeric coerces to 0 silently, which is what the evaluator
// expects for absent or malformed inputs.
func (v FieldValue) AsNumber() float64 {
	switch v.Kind {
	case KindNumber:
		return v.Num
	case KindText:
		f, err := strconv.ParseFloat(strings.TrimSpace(v.Text), 64)
		if err != nil {
			return 0
		}
		return f
	default:
		return 0
	}
}

// AsText renders the value for display and export.
func (v FieldValue) AsText() string {
	switch v.Kind {
	case KindNumber:
		return strconv.FormatFloat(v.Num, 'f', -1, 64)
	case KindText:
		return v.Text
	case KindBool:
		return strconv.FormatBool(v.Bool)
	case KindDate:
		return v.Date.Format(time.RFC3339)
	case KindFile:
		if v.File == nil {
			return ""
		}
		return v.File.FileName
	default:
		return ""
	}
}

// ParseValue coerces a raw string into a FieldValue of the declared
// field type. Used by the manual CLI path and the Excel importer.
func ParseValue(ft FieldType, raw string) (FieldValue, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return FieldValue{}, nil
	}
	switch ft {
	case FieldNumber:
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return FieldValue{}, eris.Wrapf(err, "model: parse number %q", raw)
		}
		return Number(f), nil
	case FieldBoolean:
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return FieldValue{}, eris.Wrapf(err, "model: parse bool %q", raw)
		}
		return Boolean(b), nil
	case FieldDate:
		for _, layout := range []string{time.RFC3339, "2006-01-02"} {
			if t, err := time.Parse(layout, raw); err == nil {
				return Date(t), nil
			}
		}
		return FieldValue{}, eris.Errorf("model: parse date %q", raw)
	case FieldFile:
		return FieldValue{}, eris.New("model: file fields require an upload, not a raw value")
	default:
		return Text(raw), nil
	}
}

// UnmarshalYAML accepts scalar defaults in registry fixture files:
// numbers, booleans, and strings map onto the matching variant.
func (v *FieldValue) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return eris.New("model: field value defaults must be scalars")
	}
	switch node.Tag {
	case "!!int", "!!float":
		var f float64
		if err := node.Decode(&f); err != nil {
			return eris.Wrap(err, "model: decode numeric default")
		}
		*v = Number(f)
	case "!!bool":
		var b bool
		if err := node.Decode(&b); err != nil {
			return eris.Wrap(err, "model: decode bool default")
		}
		*v = Boolean(b)
	default:
		var s string
		if err := node.Decode(&s); err != nil {
			return eris.Wrap(err, "model: decode default value")
		}
		*v = Text(s)
	}
	return nil
}

// Equal reports deep equality of two values, ignoring nothing. Used by
// the tracker to keep updates idempotent.
func (v FieldValue) Equal(o FieldValue) bool {
	a, err1 := json.Marshal(v)
	b, err2 := json.Marshal(o)
	return err1 == nil && err2 == nil && string(a) == string(b)
}
