// Package sentiment wraps the external text-analysis collaborator behind a
// bounded-time, always-succeeds annotation step.
//
// The Annotator never returns an error to the send pipeline: any timeout,
// transport failure, open circuit, or malformed response degrades to the
// neutral label and a logged warning.
package sentiment
