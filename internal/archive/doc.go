// Package archive wraps an open zip container behind a small lookup and
// streaming surface. All decompression in archivefs funnels through here,
// which is also where the instrumentation counter for it lives.
package archive
