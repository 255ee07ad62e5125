// Package fallback provides a deterministic local embedder used when no
// model backend is reachable. Vectors are derived from hashed word and
// trigram features plus global text statistics, so identical text always
// embeds identically and similarity search keeps working in degraded mode.
package fallback
