// Shared helpers for tagmon commands.
package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/edgefoundry/tag-runtime/tag"
)

// valueTypes lists the element types the CLI can decode, for error
// messages.
var valueTypes = []string{
	"bool", "int8", "uint8", "int16", "uint16",
	"int32", "uint32", "int64", "uint64", "float32", "float64",
}

var valueTypesStr = strings.Join(valueTypes, ", ")

// readTyped refreshes the tag and decodes one element as typ.
func readTyped(ctx context.Context, e *tag.Entry, typ string, offset uint32) (string, error) {
	switch typ {
	case "bool":
		return format(tag.ReadValue[bool](ctx, e, offset))
	case "int8":
		return format(tag.ReadValue[int8](ctx, e, offset))
	case "uint8":
		return format(tag.ReadValue[uint8](ctx, e, offset))
	case "int16":
		return format(tag.ReadValue[int16](ctx, e, offset))
	case "uint16":
		return format(tag.ReadValue[uint16](ctx, e, offset))
	case "int32":
		return format(tag.ReadValue[int32](ctx, e, offset))
	case "uint32":
		return format(tag.ReadValue[uint32](ctx, e, offset))
	case "int64":
		return format(tag.ReadValue[int64](ctx, e, offset))
	case "uint64":
		return format(tag.ReadValue[uint64](ctx, e, offset))
	case "float32":
		return format(tag.ReadValue[float32](ctx, e, offset))
	case "float64":
		return format(tag.ReadValue[float64](ctx, e, offset))
	default:
		return "", fmt.Errorf("unknown type %q (valid: %s)", typ, valueTypesStr)
	}
}

func format[T any](v T, err error) (string, error) {
	if err != nil {
		return "", err
	}
	return fmt.Sprint(v), nil
}

// writeTyped parses raw as typ and writes it through the tag.
func writeTyped(ctx context.Context, e *tag.Entry, typ string, offset uint32, raw string) error {
	switch typ {
	case "bool":
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return fmt.Errorf("parse %q as bool: %w", raw, err)
		}
		return tag.WriteValue(ctx, e, offset, v)
	case "int8", "int16", "int32", "int64":
		v, err := strconv.ParseInt(raw, 0, bits(typ))
		if err != nil {
			return fmt.Errorf("parse %q as %s: %w", raw, typ, err)
		}
		switch typ {
		case "int8":
			return tag.WriteValue(ctx, e, offset, int8(v))
		case "int16":
			return tag.WriteValue(ctx, e, offset, int16(v))
		case "int32":
			return tag.WriteValue(ctx, e, offset, int32(v))
		default:
			return tag.WriteValue(ctx, e, offset, v)
		}
	case "uint8", "uint16", "uint32", "uint64":
		v, err := strconv.ParseUint(raw, 0, bits(typ))
		if err != nil {
			return fmt.Errorf("parse %q as %s: %w", raw, typ, err)
		}
		switch typ {
		case "uint8":
			return tag.WriteValue(ctx, e, offset, uint8(v))
		case "uint16":
			return tag.WriteValue(ctx, e, offset, uint16(v))
		case "uint32":
			return tag.WriteValue(ctx, e, offset, uint32(v))
		default:
			return tag.WriteValue(ctx, e, offset, v)
		}
	case "float32", "float64":
		v, err := strconv.ParseFloat(raw, bits(typ))
		if err != nil {
			return fmt.Errorf("parse %q as %s: %w", raw, typ, err)
		}
		if typ == "float32" {
			return tag.WriteValue(ctx, e, offset, float32(v))
		}
		return tag.WriteValue(ctx, e, offset, v)
	default:
		return fmt.Errorf("unknown type %q (valid: %s)", typ, valueTypesStr)
	}
}

func bits(typ string) int {
	switch {
	case strings.HasSuffix(typ, "8"):
		return 8
	case strings.HasSuffix(typ, "16"):
		return 16
	case strings.HasSuffix(typ, "32"):
		return 32
	default:
		return 64
	}
}

// tagAttributes resolves the engine attribute string: the --attrs flag
// when given, the configured default otherwise.
func tagAttributes(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	return cfg.GetString(cfgKeyAttributes)
}
