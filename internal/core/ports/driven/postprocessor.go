package driven

// Chunk is an intermediate processing chunk flowing through the
// post-processor pipeline. Offsets are into the original content and are in
// the pipeline's configured unit (characters or words).
type Chunk struct {
	Content     string
	Position    int
	StartOffset int
	EndOffset   int
}

// PostProcessor transforms chunks during document processing.
type PostProcessor interface {
	// Process transforms the input chunks
	Process(chunks []Chunk) ([]Chunk, error)

	// Name returns the processor name
	Name() string

	// Order determines pipeline position (lower runs first)
	Order() int
}

// PostProcessorPipeline runs content through all registered processors.
type PostProcessorPipeline interface {
	// Process turns raw (redacted) document content into chunks ready
	// for embedding and indexing
	Process(content string) ([]Chunk, error)

	// List returns processor names in order
	List() []string
}
