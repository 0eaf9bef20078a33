// Package types defines the public contract of archivefs: the Mount
// interface consumed by the sandbox layer, the ByteSource returned by reads,
// and the shared statistics types.
package types
