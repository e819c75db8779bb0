// Package logging provides the process-wide leveled logging facility used
// across the image cache. It abstracts the underlying implementation behind
// a small capability interface, allowing alternative sinks (zerolog, an
// in-memory capture, a platform log service) to be installed at runtime
// without changing call sites.
//
// Message payloads are passed as thunks so that construction cost is only
// paid when the configured level actually permits emission. Callers must not
// rely on side effects inside a payload thunk always running.
package logging
