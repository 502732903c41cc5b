// Package errors provides the closed error taxonomy for tag operations.
//
// Every asynchronous operation resolves with either a value or exactly
// one member of the taxonomy:
//
//	engine_error   engine-reported code, surfaced verbatim
//	timeout        local poll deadline exceeded
//	out_of_bounds  codec window outside the tag buffer
//	not_ready      operation before creation resolved
//	closed         operation on a destroyed entry
//	unsupported    value type the codec cannot marshal
//	invalid_input  malformed argument caught locally
//
// The engine's Pending status is consumed internally by the completion
// bridge and never appears as an error.
//
// Errors support errors.Is matching by Kind:
//
//	if errors.Is(err, &errors.Error{Kind: errors.KindTimeout}) { ... }
//
// or the shorter predicate form:
//
//	if errors.IsTimeout(err) { ... }
package errors
