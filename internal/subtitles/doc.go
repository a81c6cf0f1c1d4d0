// Package subtitles reads and writes SRT documents and manages the
// per-media subtitle cache.
//
// Parsing recognizes bilingual blocks (translation line above source text)
// and degrades malformed timestamps to zero. Rendering supports source-only,
// translation-only, and bilingual exports. Cache writes are atomic and
// serialized with an advisory file lock.
package subtitles
