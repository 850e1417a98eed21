// Package registry provides the console variable registry for inicache.
//
// A console variable is a named, typed runtime setting. Definitions carry a
// type, default and optional range; values arrive as text (from the
// [ConsoleVariables] and [SystemSettings] sections of Engine, or the CLI)
// and are parsed and validated against the definition.
package registry

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/dshills/inicache/internal/config/ini"
)

// Variable defines a console variable with its metadata.
type Variable struct {
	// Name is the variable name (e.g., "r.VSync"). Lookups ignore case.
	Name string

	// Type is the variable's data type.
	Type VarType

	// Default is the default value, of the Go type matching Type.
	Default any

	// Description is human-readable documentation.
	Description string

	// Enum lists allowed values for string variables.
	Enum []string

	// Minimum for numeric types (nil means no minimum).
	Minimum *float64

	// Maximum for numeric types (nil means no maximum).
	Maximum *float64

	// Tags for filtering/grouping variables.
	Tags []string
}

// Parse converts text to a value of the variable's type and validates it.
func (v *Variable) Parse(text string) (any, error) {
	var value any
	switch v.Type {
	case TypeString:
		value = text
	case TypeInt:
		n, ok := ini.ParseInt(text, 64)
		if !ok {
			return nil, fmt.Errorf("expected integer, got %q", text)
		}
		value = int(n)
	case TypeFloat:
		f, ok := ini.ParseFloat(text, 64)
		if !ok {
			return nil, fmt.Errorf("expected number, got %q", text)
		}
		value = f
	case TypeBool:
		b, ok := ini.ParseBool(text)
		if !ok {
			return nil, fmt.Errorf("expected boolean, got %q", text)
		}
		value = b
	default:
		return nil, fmt.Errorf("unsupported type %s", v.Type)
	}
	if err := v.Validate(value); err != nil {
		return nil, err
	}
	return value, nil
}

// Validate checks if a value is valid for this variable.
func (v *Variable) Validate(value any) error {
	if err := v.validateType(value); err != nil {
		return err
	}

	if len(v.Enum) > 0 {
		s, _ := value.(string)
		found := false
		for _, e := range v.Enum {
			if strings.EqualFold(e, s) {
				found = true
				break
			}
		}
		if !found {
			return fmt.Errorf("value must be one of: %v", v.Enum)
		}
	}

	if v.Type == TypeInt || v.Type == TypeFloat {
		return v.validateRange(value)
	}
	return nil
}

func (v *Variable) validateType(value any) error {
	switch v.Type {
	case TypeString:
		if _, ok := value.(string); !ok {
			return fmt.Errorf("expected string, got %T", value)
		}
	case TypeInt:
		if _, ok := value.(int); !ok {
			return fmt.Errorf("expected integer, got %T", value)
		}
	case TypeFloat:
		switch value.(type) {
		case float64, int:
			// Valid (integers are acceptable for float)
		default:
			return fmt.Errorf("expected number, got %T", value)
		}
	case TypeBool:
		if _, ok := value.(bool); !ok {
			return fmt.Errorf("expected boolean, got %T", value)
		}
	}
	return nil
}

// validateRange checks if a numeric value is within the allowed range.
func (v *Variable) validateRange(value any) error {
	var f float64
	switch n := value.(type) {
	case int:
		f = float64(n)
	case float64:
		f = n
	default:
		return nil
	}

	if v.Minimum != nil && f < *v.Minimum {
		return fmt.Errorf("value %v is less than minimum %v", value, *v.Minimum)
	}
	if v.Maximum != nil && f > *v.Maximum {
		return fmt.Errorf("value %v is greater than maximum %v", value, *v.Maximum)
	}
	return nil
}

// Format renders a value of this variable as configuration text.
func Format(value any) string {
	switch n := value.(type) {
	case string:
		return n
	case int:
		return strconv.Itoa(n)
	case float64:
		return ini.FormatFloat(n, 64)
	case bool:
		return ini.FormatBool(n)
	default:
		return fmt.Sprint(value)
	}
}

// VarType represents the data type of a console variable.
type VarType uint8

const (
	// TypeString represents a string value.
	TypeString VarType = iota
	// TypeInt represents an integer value.
	TypeInt
	// TypeFloat represents a floating-point value.
	TypeFloat
	// TypeBool represents a boolean value.
	TypeBool
)

// String returns the string representation of the type.
func (t VarType) String() string {
	switch t {
	case TypeString:
		return "string"
	case TypeInt:
		return "int"
	case TypeFloat:
		return "float"
	case TypeBool:
		return "bool"
	default:
		return "unknown"
	}
}

// MinValue creates a pointer to a float64 for use as Minimum.
func MinValue(v float64) *float64 {
	return &v
}

// MaxValue creates a pointer to a float64 for use as Maximum.
func MaxValue(v float64) *float64 {
	return &v
}
