// Package fuse bridges a types.Mount into the kernel via go-fuse, so an
// archive subpath can be browsed like any other read-only directory.
package fuse
