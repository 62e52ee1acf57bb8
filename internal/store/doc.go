// Package store defines the persistence interfaces for transcription
// jobs, the queue index, and transcript artifacts, along with the
// sentinel errors every backend returns. Implementations live under
// internal/platform.
package store
