// Package scenario decodes valuation requests written by people or produced by upstream tools.
//
// Hand-written inputs are often not valid JSON. Decoding tries the strict format first and
// then falls back to progressively more lenient parsers:
//  1. YAML (by extension or content type)
//  2. Standard JSON
//  3. Hjson (comments, unquoted keys, optional commas)
//  4. JSON repair (unclosed brackets, single quotes, markdown code fences)
package scenario

import (
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"reflect"
	"strings"

	jsonrepair "github.com/RealAlexandreAI/json-repair"
	hjson "github.com/hjson/hjson-go/v4"
	"gopkg.in/yaml.v2"

	"valuation_synthesis/pkg/core/synthesis"
)

var (
	// ErrUndecodable is returned when no parser accepted the input.
	ErrUndecodable = errors.New("input could not be decoded")
	// ErrMissingTarget is returned when a decoded request names no target company.
	ErrMissingTarget = errors.New("request has no target")
)

// Format is the declared or detected input format.
type Format string

const (
	FormatAuto     Format = ""
	FormatJSON     Format = "json"
	FormatYAML     Format = "yaml"
	FormatHJSON    Format = "hjson"
	FormatRepaired Format = "repaired-json"
)

// FormatFromPath picks the format from a file extension.
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	case ".hjson":
		return FormatHJSON
	case ".json":
		return FormatJSON
	}
	return FormatAuto
}

// FormatFromContentType picks the format from an HTTP Content-Type header.
func FormatFromContentType(ct string) Format {
	ct = strings.ToLower(strings.TrimSpace(strings.Split(ct, ";")[0]))
	switch ct {
	case "application/yaml", "application/x-yaml", "text/yaml", "text/x-yaml":
		return FormatYAML
	case "application/hjson", "text/hjson":
		return FormatHJSON
	case "application/json":
		return FormatJSON
	}
	return FormatAuto
}

// Decode parses a full synthesis request.
func Decode(data []byte, format Format) (*synthesis.Request, error) {
	var req synthesis.Request
	if _, err := DecodeInto(data, format, &req); err != nil {
		return nil, err
	}
	if strings.TrimSpace(req.Target.Name) == "" && strings.TrimSpace(req.Target.Ticker) == "" {
		return nil, ErrMissingTarget
	}
	return &req, nil
}

// DecodeInto parses data into v, a non-nil pointer, and reports which parser accepted it.
// Each parser decodes into a fresh value; v is only overwritten by the one that succeeds.
func DecodeInto(data []byte, format Format, v interface{}) (Format, error) {
	if rv := reflect.ValueOf(v); rv.Kind() != reflect.Ptr || rv.IsNil() {
		return "", fmt.Errorf("%w: decode target must be a non-nil pointer, got %T", ErrUndecodable, v)
	}
	if format == FormatAuto {
		format = detect(data)
	}

	if format == FormatYAML {
		if err := attempt(v, func(dst interface{}) error { return yaml.Unmarshal(data, dst) }); err != nil {
			return "", fmt.Errorf("%w: yaml: %v", ErrUndecodable, err)
		}
		return FormatYAML, nil
	}

	// Try 1: Standard JSON, unless the caller declared Hjson
	var jsonErr error
	if format != FormatHJSON {
		if jsonErr = attempt(v, func(dst interface{}) error { return json.Unmarshal(data, dst) }); jsonErr == nil {
			return FormatJSON, nil
		}
	}

	// Try 2: Hjson, normalised through encoding/json so json tags apply
	if normalized, err := hjsonToJSON(data); err == nil {
		if err := attempt(v, func(dst interface{}) error { return json.Unmarshal(normalized, dst) }); err == nil {
			return FormatHJSON, nil
		}
	}

	// Try 3: JSON repair
	repaired, err := jsonrepair.RepairJSON(string(data))
	if err == nil {
		if err := attempt(v, func(dst interface{}) error { return json.Unmarshal([]byte(repaired), dst) }); err == nil {
			return FormatRepaired, nil
		}
	}

	if jsonErr != nil {
		return "", fmt.Errorf("%w: %v", ErrUndecodable, jsonErr)
	}
	return "", ErrUndecodable
}

// attempt runs unmarshal against a zero value of v's element type and copies the result
// into v on success, so a parser that fails halfway leaves nothing behind.
func attempt(v interface{}, unmarshal func(dst interface{}) error) error {
	target := reflect.ValueOf(v)
	fresh := reflect.New(target.Type().Elem())
	if err := unmarshal(fresh.Interface()); err != nil {
		return err
	}
	target.Elem().Set(fresh.Elem())
	return nil
}

// detect treats anything that opens with a brace or bracket as JSON-like, the rest as YAML.
func detect(data []byte) Format {
	trimmed := strings.TrimSpace(string(data))
	trimmed = strings.TrimPrefix(trimmed, "```json")
	trimmed = strings.TrimPrefix(trimmed, "```")
	trimmed = strings.TrimSpace(trimmed)
	if strings.HasPrefix(trimmed, "{") || strings.HasPrefix(trimmed, "[") {
		return FormatJSON
	}
	return FormatYAML
}

func hjsonToJSON(data []byte) ([]byte, error) {
	var tree interface{}
	if err := hjson.Unmarshal(data, &tree); err != nil {
		return nil, err
	}
	return json.Marshal(tree)
}
