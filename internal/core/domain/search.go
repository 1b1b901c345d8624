package domain

// DefaultTopK is the number of chunks retrieved per question.
const DefaultTopK = 4

// DefaultCollection is the collection used when none is configured.
const DefaultCollection = "study_buddy_collection"

// NoContextSentinel is the context block used when retrieval finds nothing.
const NoContextSentinel = "No relevant context found."

// ScoredChunk is a retrieved chunk with its relevance to the question.
type ScoredChunk struct {
	// Chunk is the matched chunk.
	Chunk Chunk

	// Score is the cosine similarity, higher is more relevant.
	Score float64
}

// RetrievalResult is an ordered list of chunks, most relevant first.
type RetrievalResult []ScoredChunk

// Chunks returns the chunks in retrieval order.
func (r RetrievalResult) Chunks() []Chunk {
	chunks := make([]Chunk, len(r))
	for i := range r {
		chunks[i] = r[i].Chunk
	}
	return chunks
}
