// Package connectors provides document sources that feed the ingestion
// pipeline. Each connector knows how to turn files from one kind of location
// into domain.UploadedDocument values.
package connectors
