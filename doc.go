package goflat

// Package goflat provides:
//
// - Flatten: depth-first linearization of nested containers into their leaves
// - Unflatten: model-directed reconstruction of a nested structure from a flat sequence
// - Compile: a reusable, immutable model (closed node union) for repeated reconstruction
// - A stable error model via Issues (JSON Pointer of the model position, code, message)
//
// Containers are []any (ordered sequence), Tuple (fixed arity), *Array (numeric
// n-dimensional array, or object-dtype for ragged content) and any other Go
// slice or array type. Leaves are Go numbers and symbolic placeholders
// (Symbolic); placeholders are never cast.
//
// Design policy:
// - Keep only the codec in the root package; documents live under wire/, the cty
//   bridge under ctyconv/, vector codecs under codec/ and the CLI under cmd/goflat.
// - Both directions are pure: inputs are never mutated and results are freshly allocated.
//
// Typical usage:
//
//	flat := goflat.FlattenSlice(params)
//	// ... update flat ...
//	next, err := goflat.Unflatten(flat, params)
//
//	m, err := goflat.Compile(params)
//	next, err = m.Unflatten(flat)
