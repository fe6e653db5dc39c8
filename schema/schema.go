// Package schema validates structured LLM output against JSON Schemas.
//
// A compiled Schema extracts the first JSON value from raw model text
// (code-fenced or bare), validates it, and unmarshals it into a caller
// struct. Both failure modes — no JSON present, and JSON the schema
// rejects — are retryable, since re-prompting the model frequently
// produces a valid object on the next attempt.
//
//	sch := schema.MustCompile("person", `{
//	    "type": "object",
//	    "properties": {
//	        "name": {"type": "string"},
//	        "age":  {"type": "integer", "minimum": 0}
//	    },
//	    "required": ["name", "age"]
//	}`)
//
//	var p Person
//	if err := sch.Parse(resp.Content, &p); err != nil {
//	    // retry.Retryable(err) == true for model-output problems
//	}
package schema

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"

	llmerrors "github.com/hobbsb/llmkit/errors"
)

// ErrNoObject is returned when model output contains no JSON value at all.
var ErrNoObject = llmerrors.FromCode(llmerrors.ErrCodeNoObject)

// ValidationError reports JSON that parsed but failed the schema.
// It is retryable.
type ValidationError struct {
	Schema string
	cause  error
}

// Error returns the error message.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("output failed schema %q: %v", e.Schema, e.cause)
}

// Retryable reports that validation failures are worth another attempt.
func (e *ValidationError) Retryable() bool { return true }

// Unwrap returns the underlying jsonschema error.
func (e *ValidationError) Unwrap() error { return e.cause }

// Schema is a compiled JSON Schema plus its source definition.
type Schema struct {
	name       string
	definition string
	compiled   *jsonschema.Schema
}

// Compile compiles a JSON Schema definition under a name. The name appears
// in validation errors and prompt instructions.
func Compile(name, definition string) (*Schema, error) {
	if name == "" {
		return nil, llmerrors.InvalidInput("schema name is required")
	}

	compiler := jsonschema.NewCompiler()
	url := name + ".schema.json"
	if err := compiler.AddResource(url, strings.NewReader(definition)); err != nil {
		return nil, llmerrors.WrapWithCode(err, llmerrors.ErrCodeConfig,
			fmt.Sprintf("schema %q is not valid JSON", name))
	}
	compiled, err := compiler.Compile(url)
	if err != nil {
		return nil, llmerrors.WrapWithCode(err, llmerrors.ErrCodeConfig,
			fmt.Sprintf("schema %q failed to compile", name))
	}

	return &Schema{name: name, definition: definition, compiled: compiled}, nil
}

// MustCompile is Compile that panics on error, for package-level schemas.
func MustCompile(name, definition string) *Schema {
	s, err := Compile(name, definition)
	if err != nil {
		panic(err)
	}
	return s
}

// Name returns the schema name.
func (s *Schema) Name() string { return s.name }

// Definition returns the JSON Schema source, suitable for embedding in a
// prompt that instructs the model on the expected shape.
func (s *Schema) Definition() string { return s.definition }

// Parse extracts the first JSON value from text, validates it against the
// schema, and unmarshals it into v. Returns ErrNoObject when text holds no
// JSON, or a *ValidationError when the schema rejects it.
func (s *Schema) Parse(text string, v interface{}) error {
	raw, ok := ExtractJSON(text)
	if !ok {
		return llmerrors.Wrapf(ErrNoObject, "schema %q", s.name)
	}

	var decoded interface{}
	if err := json.Unmarshal([]byte(raw), &decoded); err != nil {
		return llmerrors.Wrapf(ErrNoObject, "schema %q: candidate is not valid JSON", s.name)
	}

	if err := s.compiled.Validate(decoded); err != nil {
		return &ValidationError{Schema: s.name, cause: err}
	}

	return json.Unmarshal([]byte(raw), v)
}

// Validate checks already-extracted JSON bytes against the schema without
// unmarshaling into a target.
func (s *Schema) Validate(data []byte) error {
	var decoded interface{}
	if err := json.Unmarshal(data, &decoded); err != nil {
		return llmerrors.Wrapf(ErrNoObject, "schema %q: not valid JSON", s.name)
	}
	if err := s.compiled.Validate(decoded); err != nil {
		return &ValidationError{Schema: s.name, cause: err}
	}
	return nil
}

// ExtractJSON returns the first complete JSON object or array in text.
// Model output often wraps JSON in prose or markdown fences; a fenced
// block is preferred when present.
func ExtractJSON(text string) (string, bool) {
	if fenced, ok := extractFenced(text); ok {
		text = fenced
	}

	start := strings.IndexAny(text, "{[")
	if start < 0 {
		return "", false
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		c := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{', '[':
			depth++
		case '}', ']':
			depth--
			if depth == 0 {
				return text[start : i+1], true
			}
		}
	}
	return "", false
}

// extractFenced returns the content of the first markdown code fence.
func extractFenced(text string) (string, bool) {
	open := strings.Index(text, "```")
	if open < 0 {
		return "", false
	}
	rest := text[open+3:]
	if nl := strings.IndexByte(rest, '\n'); nl >= 0 {
		// Skip the language tag line ("json", "JSON", or empty).
		rest = rest[nl+1:]
	}
	end := strings.Index(rest, "```")
	if end < 0 {
		return "", false
	}
	return rest[:end], true
}
