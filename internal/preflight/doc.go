// Package preflight provides readiness checks for the external programs,
// filesystem paths, and endpoints that subforge depends on.
//
// `subforge check` runs every check and renders the results; `subforge serve`
// runs RunAll at startup and logs failures without refusing to start, since
// most features work without translation or a default model.
package preflight
