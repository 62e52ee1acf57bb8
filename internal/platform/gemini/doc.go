// Package gemini adapts the Gemini Batch API to the transcriber
// interface: one batch job per submission, the batch resource name as
// the opaque handle, and batch states mapped onto the internal
// running/succeeded/failed vocabulary.
package gemini
