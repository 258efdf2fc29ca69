package param

import (
	"encoding/json"
	"fmt"
	"math"
	"time"
)

// Type is the wire type of a parameter value. VRChat sends exactly one
// scalar argument per parameter message, tagged as one of these three.
type Type int

const (
	TypeBool Type = iota
	TypeInt
	TypeFloat
)

func (t Type) String() string {
	switch t {
	case TypeBool:
		return "Bool"
	case TypeInt:
		return "Int"
	case TypeFloat:
		return "Float"
	}
	return fmt.Sprintf("Type(%d)", int(t))
}

// ParseType maps the type kind declared in an avatar config file to a Type.
func ParseType(kind string) (Type, bool) {
	switch kind {
	case "Bool":
		return TypeBool, true
	case "Int":
		return TypeInt, true
	case "Float":
		return TypeFloat, true
	}
	return 0, false
}

// Direction tells whether a parameter can be written to the application,
// read back from it, or both.
type Direction int

const (
	DirInput Direction = 1 << iota
	DirOutput
)

func (d Direction) String() string {
	switch d {
	case DirInput:
		return "input"
	case DirOutput:
		return "output"
	case DirInput | DirOutput:
		return "input/output"
	}
	return fmt.Sprintf("Direction(%d)", int(d))
}

// Origin distinguishes the static platform schema from parameters
// discovered in an avatar's config file.
type Origin int

const (
	OriginBuiltin Origin = iota
	OriginCustom
)

func (o Origin) String() string {
	if o == OriginCustom {
		return "custom"
	}
	return "builtin"
}

// Value is a tagged variant over the three wire types. Comparisons and
// mismatch checks operate on the tag only; there is no implicit coercion.
type Value struct {
	typ Type
	b   bool
	i   int32
	f   float32
}

func Bool(v bool) Value     { return Value{typ: TypeBool, b: v} }
func Int(v int32) Value     { return Value{typ: TypeInt, i: v} }
func Float(v float32) Value { return Value{typ: TypeFloat, f: v} }

func (v Value) Type() Type     { return v.typ }
func (v Value) Bool() bool     { return v.b }
func (v Value) Int() int32     { return v.i }
func (v Value) Float() float32 { return v.f }

// Interface returns the underlying scalar as bool, int32 or float32,
// matching what the OSC codec expects.
func (v Value) Interface() any {
	switch v.typ {
	case TypeInt:
		return v.i
	case TypeFloat:
		return v.f
	}
	return v.b
}

func (v Value) String() string {
	switch v.typ {
	case TypeInt:
		return fmt.Sprintf("%d", v.i)
	case TypeFloat:
		return fmt.Sprintf("%g", v.f)
	}
	return fmt.Sprintf("%t", v.b)
}

// MarshalJSON emits the bare scalar so clients see a JSON bool or number.
func (v Value) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.Interface())
}

// FromOSC converts a decoded OSC argument into a Value. Arguments of any
// other wire type (strings, blobs, timetags) are rejected.
func FromOSC(arg any) (Value, bool) {
	switch a := arg.(type) {
	case bool:
		return Bool(a), true
	case int32:
		return Int(a), true
	case float32:
		return Float(a), true
	}
	return Value{}, false
}

// FromJSON converts a value decoded by encoding/json (bool or float64)
// into a Value of the declared type. JSON has a single number type, so an
// integral float64 is accepted for an Int parameter; everything else is a
// mismatch.
func FromJSON(t Type, raw any) (Value, error) {
	switch t {
	case TypeBool:
		if b, ok := raw.(bool); ok {
			return Bool(b), nil
		}
	case TypeInt:
		if f, ok := raw.(float64); ok && f == math.Trunc(f) {
			return Int(int32(f)), nil
		}
	case TypeFloat:
		if f, ok := raw.(float64); ok {
			return Float(float32(f)), nil
		}
	}
	return Value{}, fmt.Errorf("value %v is not a %s", raw, t)
}

// Parameter is one controllable or observable address. Value is nil until
// the first update is observed or injected.
type Parameter struct {
	Name      string
	Address   string
	Type      Type
	Direction Direction
	Origin    Origin
	Category  string
	Min       float64
	Max       float64
	Value     *Value
	UpdatedAt time.Time
}
