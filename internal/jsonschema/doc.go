// Package jsonschema provides the small subset of JSON Schema needed to
// describe tool parameters to a completion service.
//
// Schemas are assembled explicitly from declared properties with [Object]
// rather than derived from Go types, so the advertised parameter order and
// descriptions are exactly what the tool author registered.
package jsonschema
