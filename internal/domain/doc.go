// Package domain contains the core entities of the transcription
// subsystem: the TranscriptionJob lifecycle record and the Transcript
// artifact it produces. Domain types validate themselves and own their
// state transitions; persistence and orchestration live elsewhere.
package domain
