// Package memory provides an in-process vector store.
//
// Each collection keeps its chunks in a map guarded by a read-write mutex
// and answers queries with exact cosine k-nearest-neighbour search.
// Nothing is persisted; the store lives as long as the process.
package memory
