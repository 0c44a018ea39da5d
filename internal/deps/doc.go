// Package deps reports whether the external binaries banshee shells out to
// can be resolved.
package deps
