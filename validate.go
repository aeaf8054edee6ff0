package smolagent

import (
	"encoding/json"
	"fmt"
	"math"
	"reflect"

	"github.com/m-mizutani/goerr/v2"
)

// ValidateToolArguments checks args against the inputs of spec. It returns nil when every key is declared,
// every non-nullable input is present and every value has a compatible type.
func ValidateToolArguments(spec ToolSpec, args any) error {
	if obj, ok := args.(map[string]any); ok {
		for _, key := range sortedKeys(obj) {
			param, ok := spec.Parameters[key]
			if !ok {
				return goerr.New(fmt.Sprintf("Argument %s is not in the tool's input schema.", key),
					goerr.V("tool", spec.Name), goerr.V("argument", key))
			}

			actual := valueType(obj[key])
			if !typeAccepted(actual, param.AllowedTypes()) && !(actual == TypeNull && param.Nullable) {
				return goerr.New(fmt.Sprintf("Argument %s has type '%s' but should be '%s'.", key, actual, param.typeLabel()),
					goerr.V("tool", spec.Name), goerr.V("argument", key), goerr.V("value", obj[key]))
			}
		}

		for _, name := range spec.ParameterNames() {
			if _, ok := obj[name]; !ok && !spec.Parameters[name].Nullable {
				return goerr.New(fmt.Sprintf("Argument %s is required.", name),
					goerr.V("tool", spec.Name), goerr.V("argument", name))
			}
		}
		return nil
	}

	names := spec.ParameterNames()
	if len(names) == 0 {
		if args == nil {
			return nil
		}
		return goerr.New("Tool takes no arguments.", goerr.V("tool", spec.Name), goerr.V("args", args))
	}

	param := spec.Parameters[names[0]]
	actual := valueType(args)
	if !typeAccepted(actual, param.AllowedTypes()) && !(actual == TypeNull && param.Nullable) {
		return goerr.New(fmt.Sprintf("Argument has type '%s' but should be '%s'.", actual, param.typeLabel()),
			goerr.V("tool", spec.Name), goerr.V("value", args))
	}
	return nil
}

func typeAccepted(actual ParameterType, expected []ParameterType) bool {
	for _, t := range expected {
		switch {
		case t == TypeAny, t == actual:
			return true
		case t == TypeNumber && actual == TypeInteger:
			return true
		}
	}
	return false
}

// valueType returns the tool type of a runtime value. Integral floats, as produced by JSON decoding, count as integers.
func valueType(v any) ParameterType {
	switch x := v.(type) {
	case nil:
		return TypeNull
	case string:
		return TypeString
	case bool:
		return TypeBoolean
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return TypeInteger
	case float32:
		return floatType(float64(x))
	case float64:
		return floatType(x)
	case json.Number:
		if _, err := x.Int64(); err == nil {
			return TypeInteger
		}
		return TypeNumber
	case Image, *Image, *AgentImage:
		return TypeImage
	}

	switch reflect.ValueOf(v).Kind() {
	case reflect.Slice, reflect.Array:
		return TypeArray
	case reflect.Map, reflect.Struct:
		return TypeObject
	case reflect.Pointer:
		if reflect.ValueOf(v).IsNil() {
			return TypeNull
		}
		return valueType(reflect.ValueOf(v).Elem().Interface())
	}
	return TypeString
}

func floatType(f float64) ParameterType {
	if f == math.Trunc(f) && !math.IsInf(f, 0) {
		return TypeInteger
	}
	return TypeNumber
}
