// Package controller contains the HTTP middleware and helper handlers used by
// the debug server that runs next to a hunt.
//
// Provided middlewares:
//   - WithLogger: Attaches a request-scoped logger and request ID to the context and logs access info.
//
// Provided helpers:
//   - PprofMux: Returns a ServeMux exposing net/http/pprof handlers under a prefix.
package controller
