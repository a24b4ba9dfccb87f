// Package cache stores synthesized audio in a pluggable key-value backend.
// Backends include a zstd-compressed disk store, an in-memory LRU, Redis,
// a NATS JetStream bucket and SQLite. Open selects one from Config and can
// front it with an L1 memory tier. AudioStore layers the artifact encoding
// and best-effort semantics on top.
package cache
