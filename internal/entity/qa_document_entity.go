package entity

type QADocument struct {
	ThreadId      int64
	Topic         string
	Question      string
	Answer        string
	Date          string
	ContentVector []float32
}

// Embedded reports whether the document can take part in similarity search.
func (d *QADocument) Embedded() bool {
	return len(d.ContentVector) > 0
}
