// Package ingest decodes the raw event stream, one JSON object per line,
// into track.Event values.
//
// Dependency rule: ingest depends on track only. It applies no cuts.
package ingest
