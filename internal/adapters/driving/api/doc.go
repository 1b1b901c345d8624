// Package api exposes the study buddy over HTTP.
//
// The router is built with gin. Answers stream as server-sent events and the
// MCP streamable transport can be mounted under /mcp on the same listener.
package api
