package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"ragdocs/internal/chunker"
	"ragdocs/internal/docpath"
	"ragdocs/internal/domain"
)

// DefaultBatchSize is the number of points written per upsert call.
const DefaultBatchSize = 100

// Source lists and serves raw documents. *content.Client implements it.
type Source interface {
	Root() string
	URL(rel string) string
	Discover(ctx context.Context, root string) ([]string, error)
	Fetch(ctx context.Context, path string) (string, error)
}

// IndexerOptions tunes a rebuild.
type IndexerOptions struct {
	BatchSize int
	// Workers > 1 fetches, chunks and embeds that many documents at once.
	Workers int
}

// Report summarises one rebuild.
type Report struct {
	Discovered int           `json:"discovered"`
	Indexed    int           `json:"indexed"`
	Skipped    int           `json:"skipped"`
	Chunks     int           `json:"chunks"`
	PointCount int           `json:"point_count"`
	Elapsed    time.Duration `json:"elapsed"`
}

// Indexer rebuilds the vector store from the document source.
type Indexer struct {
	source    Source
	chunker   *chunker.Chunker
	embedder  domain.Embedder
	store     domain.VectorStore
	paths     docpath.Normalizer
	batchSize int
	workers   int
	log       zerolog.Logger
}

func NewIndexer(src Source, ch *chunker.Chunker, emb domain.Embedder, store domain.VectorStore, opts IndexerOptions, log zerolog.Logger) *Indexer {
	if opts.BatchSize <= 0 {
		opts.BatchSize = DefaultBatchSize
	}
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	return &Indexer{
		source:    src,
		chunker:   ch,
		embedder:  emb,
		store:     store,
		paths:     docpath.New(src.Root()),
		batchSize: opts.BatchSize,
		workers:   opts.Workers,
		log:       log,
	}
}

// document is the outcome of ingesting one discovered path.
type document struct {
	path    string
	points  []domain.Point
	skipped bool
}

// Rebuild drops and recreates the collection, then crawls, chunks, embeds
// and upserts every document. A crawl, embedding or store failure aborts
// the run; a document that cannot be fetched is logged and skipped.
func (ix *Indexer) Rebuild(ctx context.Context) (*Report, error) {
	start := time.Now()
	report := &Report{}

	ix.log.Info().Int("dimension", ix.embedder.Dimension()).Str("embedder", ix.embedder.Name()).Msg("recreating collection")
	if err := ix.store.Recreate(ctx, domain.CollectionSpec{Dimension: ix.embedder.Dimension(), Distance: domain.Cosine}); err != nil {
		return nil, fmt.Errorf("recreate collection: %w", err)
	}

	ix.log.Info().Str("root", ix.source.Root()).Msg("crawling documents")
	paths, err := ix.source.Discover(ctx, ix.source.Root())
	if err != nil {
		return nil, err
	}
	report.Discovered = len(paths)
	ix.log.Info().Int("documents", len(paths)).Msg("discovery finished")

	// Every point is collected before the first upsert, so a fatal ingest
	// error leaves the recreated collection empty.
	var pending []domain.Point

	// Documents are processed in windows of ix.workers so that output order
	// matches discovery order regardless of concurrency.
	for lo := 0; lo < len(paths); lo += ix.workers {
		hi := min(lo+ix.workers, len(paths))
		docs, err := ix.ingestWindow(ctx, paths[lo:hi])
		if err != nil {
			return nil, err
		}
		for _, d := range docs {
			if d.skipped {
				report.Skipped++
				continue
			}
			report.Indexed++
			report.Chunks += len(d.points)
			pending = append(pending, d.points...)
		}
	}

	for lo := 0; lo < len(pending); lo += ix.batchSize {
		hi := min(lo+ix.batchSize, len(pending))
		if err := ix.store.Upsert(ctx, pending[lo:hi]); err != nil {
			return nil, fmt.Errorf("upsert: %w", err)
		}
	}

	count, err := ix.store.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("count points: %w", err)
	}
	report.PointCount = count
	report.Elapsed = time.Since(start)

	ix.log.Info().
		Int("discovered", report.Discovered).
		Int("indexed", report.Indexed).
		Int("skipped", report.Skipped).
		Int("chunks", report.Chunks).
		Int("points", report.PointCount).
		Dur("elapsed", report.Elapsed).
		Msg("rebuild finished")
	return report, nil
}

func (ix *Indexer) ingestWindow(ctx context.Context, paths []string) ([]document, error) {
	out := make([]document, len(paths))
	if len(paths) == 1 {
		d, err := ix.ingest(ctx, paths[0])
		out[0] = d
		return out, err
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(ix.workers)
	for i, p := range paths {
		g.Go(func() error {
			d, err := ix.ingest(gctx, p)
			out[i] = d
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func (ix *Indexer) ingest(ctx context.Context, listingPath string) (document, error) {
	doc := document{path: listingPath}
	rel, err := ix.paths.Normalize(listingPath)
	if err != nil {
		ix.log.Warn().Err(err).Str("path", listingPath).Msg("skipping document")
		doc.skipped = true
		return doc, nil
	}
	doc.path = rel

	text, err := ix.source.Fetch(ctx, listingPath)
	if err != nil {
		if ctx.Err() != nil {
			return doc, ctx.Err()
		}
		var fe *domain.FetchError
		if errors.As(err, &fe) || errors.Is(err, domain.ErrInvalidPath) {
			ix.log.Warn().Err(err).Str("path", rel).Msg("skipping document")
			doc.skipped = true
			return doc, nil
		}
		return doc, err
	}

	chunks := ix.chunker.Chunks(rel, ix.source.URL(rel), text)
	ix.log.Debug().Str("path", rel).Int("chunks", len(chunks)).Msg("fetched document")
	if len(chunks) == 0 {
		return doc, nil
	}

	vectors, err := ix.embed(ctx, chunks)
	if err != nil {
		return doc, fmt.Errorf("embed %s: %w", rel, err)
	}
	doc.points = make([]domain.Point, len(chunks))
	for i, c := range chunks {
		doc.points[i] = domain.Point{ID: uuid.NewString(), Vector: vectors[i], Payload: c}
	}
	return doc, nil
}

// embed embeds chunk contents in slices of at most batchSize texts.
func (ix *Indexer) embed(ctx context.Context, chunks []domain.Chunk) ([][]float32, error) {
	out := make([][]float32, 0, len(chunks))
	for lo := 0; lo < len(chunks); lo += ix.batchSize {
		hi := min(lo+ix.batchSize, len(chunks))
		texts := make([]string, 0, hi-lo)
		for _, c := range chunks[lo:hi] {
			texts = append(texts, c.Content)
		}
		vecs, err := ix.embedder.EmbedBatch(ctx, texts)
		if err != nil {
			return nil, err
		}
		if len(vecs) != len(texts) {
			return nil, fmt.Errorf("embedder returned %d vectors for %d texts", len(vecs), len(texts))
		}
		out = append(out, vecs...)
	}
	return out, nil
}
