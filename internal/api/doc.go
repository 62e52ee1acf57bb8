// Package api exposes the collaborator-facing HTTP surface: creating
// transcription jobs and querying their status. Handlers translate
// service errors into HTTP status codes and never leak internals.
package api
