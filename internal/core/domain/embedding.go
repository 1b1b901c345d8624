package domain

// TaskType is a hint telling the embedding backend how a vector will be used.
// Backends that do not model task types ignore it.
type TaskType string

// Known task types.
const (
	// TaskQuestionAnswering is used for both chunks and questions by default.
	TaskQuestionAnswering TaskType = "QUESTION_ANSWERING"

	// TaskRetrievalDocument marks index-time document text.
	TaskRetrievalDocument TaskType = "RETRIEVAL_DOCUMENT"

	// TaskRetrievalQuery marks query-time question text.
	TaskRetrievalQuery TaskType = "RETRIEVAL_QUERY"
)

// IsValid returns true if the task type is recognised.
func (t TaskType) IsValid() bool {
	switch t {
	case TaskQuestionAnswering, TaskRetrievalDocument, TaskRetrievalQuery:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (t TaskType) String() string {
	return string(t)
}
