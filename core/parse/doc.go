// Package parse recovers structured data from model-generated text. Models
// frequently emit tool arguments as almost-JSON: single quotes, trailing
// commas, markdown code fences, or values wrapped in schema-style
// {"type": ..., "value": ...} envelopes. [ParseStringAs] strips fences,
// repairs the JSON with jsonrepair and unwraps such envelopes before giving up
// with a descriptive error.
package parse
