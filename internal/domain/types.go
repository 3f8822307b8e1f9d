package domain

// Payload field names shared by the indexer and the retrieval side.
const (
	FieldPath       = "path"
	FieldChunkIndex = "chunk_index"
	FieldContent    = "content"
	FieldSourceURL  = "source_url"
)

// Chunk is a positional slice of one document's text.
type Chunk struct {
	Path       string `json:"path"`
	ChunkIndex int    `json:"chunk_index"`
	Content    string `json:"content"`
	SourceURL  string `json:"source_url"`
}

// Point is the persisted unit in the vector store: an identifier, an
// embedding and the chunk it was computed from.
type Point struct {
	ID      string
	Vector  []float32
	Payload Chunk
}

// ScoredPoint is a nearest-neighbour hit returned by a VectorStore.
type ScoredPoint struct {
	ID      string
	Score   float64
	Payload Chunk
}

// Distance names the similarity metric of a collection.
type Distance string

// Cosine is the only metric the indexer creates collections with.
const Cosine Distance = "Cosine"

// CollectionSpec describes the collection created by Recreate.
type CollectionSpec struct {
	Dimension int
	Distance  Distance
}

// ScrollRequest asks for one page of a full collection scan.
// An empty Cursor starts from the beginning. Fields limits the payload
// fields returned; nil returns all of them.
type ScrollRequest struct {
	Limit  int
	Cursor string
	Fields []string
}

// ScrollPage is one page of a scan. Next is empty once the scan is done.
type ScrollPage struct {
	Payloads []Chunk
	Next     string
}

// SearchHit is a single search_docs result.
type SearchHit struct {
	Path       string  `json:"path"`
	Score      float64 `json:"score"`
	Content    string  `json:"content"`
	ChunkIndex int     `json:"chunk_index"`
}

// Document is the result of get_document. Size is in UTF-8 bytes.
type Document struct {
	Path    string `json:"path"`
	URL     string `json:"url"`
	Content string `json:"content"`
	Size    int    `json:"size"`
}

// Tree is the nested directory view of indexed paths. Directory names map
// to sub-trees; document names map to a nil Tree, which encodes as null.
type Tree map[string]Tree

// Listing is the result of list_documents.
type Listing struct {
	TotalDocuments int      `json:"total_documents"`
	TotalChunks    int      `json:"total_chunks"`
	Tree           Tree     `json:"tree"`
	FlatList       []string `json:"flat_list"`
}
