package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/contexta-labs/contexta/internal/core/domain"
	"github.com/contexta-labs/contexta/internal/core/ports/driven"
)

func testScope() domain.Scope {
	return domain.Scope{Tenant: "acme", Assistant: "support"}
}

func newTestEngine(store driven.TextStore, backend *mockBackend, opts ...EngineOption) *Engine {
	return NewEngine(store, newTestEmbedder(backend), opts...)
}

// ingestDoc is sized well above the chunker's minimum token floor so
// ingestion always produces at least one chunk.
const ingestDoc = `Our refund policy allows returns within thirty days of purchase for any reason. ` +
	`Customers receive the full amount back on the original payment method once the ` +
	`returned item reaches our warehouse and passes inspection. Shipping costs are not ` +
	`refunded unless the item arrived damaged or the wrong product was sent. Exchanges ` +
	`follow the same thirty day window and are processed as a refund followed by a new ` +
	`order. Gift purchases are refunded as store credit issued to the recipient. Requests ` +
	`made after the window closes are reviewed case by case by the support team, and ` +
	`approved exceptions are refunded as store credit rather than cash.`

func TestEngine_IngestAndRetrieve(t *testing.T) {
	store := &mockTextStore{}
	eng := newTestEngine(store, newMockBackend(8))
	ctx := context.Background()

	result, err := eng.Ingest(ctx, ingestDoc, "refunds.md", testScope())

	require.NoError(t, err)
	assert.NotEmpty(t, result.DocumentID)
	assert.Greater(t, result.ChunksCreated, 0)
	assert.Equal(t, result.ChunksCreated, result.ChunksStored)
	assert.Equal(t, result.ChunksCreated, result.EmbeddingsGenerated)
	assert.Greater(t, result.TokensIngested, 0)
	typed := 0
	for _, n := range result.ChunkTypes {
		typed += n
	}
	assert.Equal(t, result.ChunksCreated, typed)
	assert.Len(t, store.docs, 1)
	assert.Len(t, store.chunks, result.ChunksStored)

	out := eng.Retrieve(ctx, "refund policy", testScope(), domain.DefaultRetrieveOptions())

	require.NotNil(t, out)
	assert.NotEmpty(t, out.ContextText)
	assert.Greater(t, out.Confidence, 0.0)
	assert.Greater(t, out.TokenCount, 0)
	assert.Equal(t, len(out.Retrieved), out.SourceCount)
}

func TestEngine_IngestRejectsMissingTenant(t *testing.T) {
	store := &mockTextStore{}
	eng := newTestEngine(store, newMockBackend(8))

	_, err := eng.Ingest(context.Background(), "some text", "f.md", domain.Scope{})

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrMissingScope)
	assert.Empty(t, store.docs, "rejected before any write")
	assert.Empty(t, store.chunks)
}

func TestEngine_IngestSubMinimumDocument(t *testing.T) {
	// a fragment below the chunker's minimum token floor yields no
	// chunks; the document itself is still recorded
	store := &mockTextStore{}
	eng := newTestEngine(store, newMockBackend(8))

	result, err := eng.Ingest(context.Background(), "Too short to keep.", "note.md", testScope())

	require.NoError(t, err)
	assert.Zero(t, result.ChunksCreated)
	assert.Zero(t, result.ChunksStored)
	assert.Zero(t, result.EmbeddingsGenerated)
	assert.Len(t, store.docs, 1)
	assert.Empty(t, store.chunks)
}

func TestEngine_IngestChunkMetadata(t *testing.T) {
	store := &mockTextStore{}
	eng := newTestEngine(store, newMockBackend(8))

	result, err := eng.Ingest(context.Background(), ingestDoc, "refunds.md", testScope())

	require.NoError(t, err)
	require.NotEmpty(t, store.chunks)
	for _, c := range store.chunks {
		assert.Equal(t, result.DocumentID, c.DocID)
		assert.Equal(t, "refunds.md", c.Metadata["filename"])
		assert.Equal(t, "acme", c.Metadata["tenant"])
		assert.Equal(t, "support", c.Metadata["assistant"])
		assert.NotEmpty(t, c.Metadata["chunk_type"])
	}
}

func TestEngine_IngestBackendOutage(t *testing.T) {
	// Embedding failures degrade to zero vectors; the document still
	// lands in the store.
	store := &mockTextStore{}
	backend := newMockBackend(8)
	backend.genErr = errors.New("backend down")
	eng := newTestEngine(store, backend)

	result, err := eng.Ingest(context.Background(), ingestDoc, "refunds.md", testScope())

	require.NoError(t, err)
	assert.Greater(t, result.ChunksCreated, 0)
	assert.Equal(t, result.ChunksCreated, result.ChunksStored)
	assert.Zero(t, result.EmbeddingsGenerated)
}

func TestEngine_IngestSaveFailure(t *testing.T) {
	store := &mockTextStore{saveErr: errors.New("disk full")}
	eng := newTestEngine(store, newMockBackend(8))

	_, err := eng.Ingest(context.Background(), ingestDoc, "refunds.md", testScope())

	assert.Error(t, err)
}

func TestEngine_RetrieveEmptyQuery(t *testing.T) {
	eng := newTestEngine(&mockTextStore{}, newMockBackend(8))

	out := eng.Retrieve(context.Background(), "   ", testScope(), domain.DefaultRetrieveOptions())

	require.NotNil(t, out)
	assert.Empty(t, out.ContextText)
	assert.Zero(t, out.Confidence)
	assert.Zero(t, out.SourceCount)
}

func TestEngine_RetrieveNoData(t *testing.T) {
	eng := newTestEngine(&mockTextStore{}, newMockBackend(8))

	out := eng.Retrieve(context.Background(), "refund policy", testScope(), domain.DefaultRetrieveOptions())

	require.NotNil(t, out)
	assert.Empty(t, out.ContextText)
	assert.Zero(t, out.Confidence)
	assert.Zero(t, out.TokenCount)
	assert.Empty(t, out.ContextSources)
}

func TestEngine_RetrieveExactOnly(t *testing.T) {
	training := &mockTraining{context: "Q: refund?\nA: thirty days."}
	eng := newTestEngine(&mockTextStore{}, newMockBackend(8), WithTrainingData(training))

	out := eng.Retrieve(context.Background(), "refund policy", testScope(), domain.DefaultRetrieveOptions())

	require.NotNil(t, out)
	assert.True(t, strings.HasPrefix(out.ContextText, "AUTHORITATIVE CONTEXT:"))
	assert.Contains(t, out.ContextText, "thirty days")
	assert.Equal(t, []string{"training_data"}, out.ContextSources)
	// exact factor plus simplicity factor only
	assert.Greater(t, out.Confidence, 0.36)
	assert.Less(t, out.Confidence, 0.5)
}

func TestEngine_RetrieveFallbackOnStoreFailure(t *testing.T) {
	store := &mockTextStore{
		queryErr: errors.New("store down"),
		kwErr:    errors.New("store down"),
	}
	training := &mockTraining{context: "curated answer"}
	eng := newTestEngine(store, newMockBackend(8), WithTrainingData(training))

	out := eng.Retrieve(context.Background(), "refund policy", testScope(), domain.DefaultRetrieveOptions())

	require.NotNil(t, out)
	assert.Contains(t, out.ContextText, "curated answer")
	assert.InDelta(t, 0.5, out.Confidence, 1e-9)
	assert.Equal(t, []string{"training_data"}, out.ContextSources)
}

func TestEngine_RetrieveFallbackWithoutExact(t *testing.T) {
	store := &mockTextStore{
		queryErr: errors.New("store down"),
		kwErr:    errors.New("store down"),
	}
	eng := newTestEngine(store, newMockBackend(8))

	out := eng.Retrieve(context.Background(), "refund policy", testScope(), domain.DefaultRetrieveOptions())

	require.NotNil(t, out)
	assert.Empty(t, out.ContextText)
	assert.InDelta(t, 0.1, out.Confidence, 1e-9)
}

func TestEngine_RetrieveTimeoutFallsBack(t *testing.T) {
	// both legs wait on the query context, so an expired deadline is
	// treated like any other retrieval failure
	store := &mockTextStore{blocking: true}
	training := &mockTraining{context: "curated answer"}
	eng := newTestEngine(store, newMockBackend(8),
		WithTrainingData(training),
		WithQueryTimeout(time.Nanosecond),
	)

	out := eng.Retrieve(context.Background(), "refund policy", testScope(), domain.DefaultRetrieveOptions())

	require.NotNil(t, out)
	assert.Contains(t, out.ContextText, "curated answer")
	assert.InDelta(t, 0.5, out.Confidence, 1e-9)

	bare := newTestEngine(&mockTextStore{blocking: true}, newMockBackend(8),
		WithQueryTimeout(time.Nanosecond))

	out = bare.Retrieve(context.Background(), "refund policy", testScope(), domain.DefaultRetrieveOptions())

	require.NotNil(t, out)
	assert.Empty(t, out.ContextText)
	assert.InDelta(t, 0.1, out.Confidence, 1e-9)
}

func TestEngine_RetrieveTrainingErrorIsAbsorbed(t *testing.T) {
	store := &mockTextStore{}
	training := &mockTraining{err: errors.New("training source down")}
	eng := newTestEngine(store, newMockBackend(8), WithTrainingData(training))
	ctx := context.Background()

	_, err := eng.Ingest(ctx, ingestDoc, "refunds.md", testScope())
	require.NoError(t, err)

	out := eng.Retrieve(ctx, "refund policy", testScope(), domain.DefaultRetrieveOptions())

	require.NotNil(t, out)
	assert.NotContains(t, out.ContextSources, "training_data")
}

func TestEngine_RetrieveSourceOrder(t *testing.T) {
	store := &mockTextStore{}
	training := &mockTraining{context: "curated answer"}
	eng := newTestEngine(store, newMockBackend(8), WithTrainingData(training))
	ctx := context.Background()

	_, err := eng.Ingest(ctx, ingestDoc, "refunds.md", testScope())
	require.NoError(t, err)

	out := eng.Retrieve(ctx, "refund policy", testScope(), domain.DefaultRetrieveOptions())

	require.NotEmpty(t, out.ContextSources)
	assert.Equal(t, "training_data", out.ContextSources[0])
	if len(out.ContextSources) > 1 {
		assert.Equal(t, "hybrid", out.ContextSources[1])
	}
}

func TestEngine_Stats(t *testing.T) {
	store := &mockTextStore{}
	eng := newTestEngine(store, newMockBackend(8))
	ctx := context.Background()

	_, err := eng.Ingest(ctx, ingestDoc, "refunds.md", testScope())
	require.NoError(t, err)

	stats, err := eng.Stats(ctx)

	require.NoError(t, err)
	assert.Equal(t, 1, stats.Documents)
	assert.Greater(t, stats.Chunks, 0)
	assert.Equal(t, "mock-embed", stats.EmbeddingModel)
	assert.Greater(t, stats.CacheSize, 0)
}

func TestEngine_RetrieveNeverPanicsWithNilBackend(t *testing.T) {
	store := &mockTextStore{
		chunks: []driven.StoredChunk{
			{ChunkID: "c1", DocID: "d1", Text: "refund policy text"},
		},
	}
	eng := NewEngine(store, NewEmbedder(nil))

	out := eng.Retrieve(context.Background(), "refund policy", testScope(), domain.DefaultRetrieveOptions())

	// keyword leg still answers
	require.NotNil(t, out)
	assert.NotEmpty(t, out.ContextText)
}
