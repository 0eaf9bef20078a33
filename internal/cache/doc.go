// Package cache implements the process-wide content cache: a weight-bounded,
// idle-expiring LRU from node id to decompressed file bytes, shared by every
// mount in the process.
package cache
