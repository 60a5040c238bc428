// Package capi is the C ABI Surface (spec.md §4.6): the six stable entry
// points a native C host links against, plus the arena accessors a caller
// uses to stage and retrieve payload bytes (see arena.go). cmd/wadge-header
// reflects over this package's //export comments to produce include/wadge.h;
// nothing outside this package ever sees a cgo type.
package capi
