// Package memory implements the Memory Store (§4.4): durable, append-only
// episodic memories plus similarity+recency retrieval and the periodic
// decay batch job.
package memory

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/gridiron/council/internal/embedding"
	"github.com/gridiron/council/internal/model"
	"github.com/gridiron/council/internal/search"
)

const (
	// DefaultAlpha favors recency over raw similarity (§4.4 step 5).
	DefaultAlpha = 0.8
	// DefaultK is the default number of memories returned per retrieval.
	DefaultK = 15
	// MaxAgeDays bounds the retrieval candidate window to one year (§4.4 step 1).
	MaxAgeDays = 365
	// MinDecay excludes memories that have decayed past usefulness (§4.4 step 1).
	MinDecay = 0.1
)

// Repository is the storage contract the Memory Store needs: durable
// append-only writes and id-keyed hydration. internal/storage provides
// the Postgres-backed implementation.
type Repository interface {
	InsertMemory(ctx context.Context, m model.EpisodicMemory) error
	GetMemory(ctx context.Context, id uuid.UUID) (model.EpisodicMemory, error)
	GetMemories(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]model.EpisodicMemory, error)
	IncrementRetrieval(ctx context.Context, ids []uuid.UUID) error
	ListCandidates(ctx context.Context, filter model.RetrievalFilter) ([]model.EpisodicMemory, error)
	ListDecayCandidates(ctx context.Context) ([]model.EpisodicMemory, error)
	UpdateDecay(ctx context.Context, id uuid.UUID, decay float64) error
}

// Store implements the Memory Store's three operations over a Repository,
// an embedding provider, and an ANN index.
type Store struct {
	repo     Repository
	embed    embedding.Provider
	index    search.Searcher
	upserter interface {
		Upsert(ctx context.Context, points []search.Point) error
	}
	logger *slog.Logger
}

// New constructs a Store. index and upserter may be the same concrete
// value (e.g. *search.QdrantIndex implements both); upserter may be nil
// to run retrieval-only (substring fallback, no ANN writes).
func New(repo Repository, embed embedding.Provider, index search.Searcher, upserter interface {
	Upsert(ctx context.Context, points []search.Point) error
}, logger *slog.Logger) *Store {
	return &Store{repo: repo, embed: embed, index: index, upserter: upserter, logger: logger}
}

// ComputeID derives the deterministic memory id required by §3's
// EpisodicMemory invariant: hash(expert + game + timestamp).
func ComputeID(expertID uuid.UUID, gameID string, ts time.Time) uuid.UUID {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s|%s|%s", expertID, gameID, ts.Format(time.RFC3339Nano))))
	return uuid.NewSHA1(uuid.NameSpaceOID, sum[:])
}

// Store appends a new EpisodicMemory, embeds its combined text if a
// provider is configured, and indexes it for retrieval. Re-storing a
// memory with an already-assigned ID is rejected (§8 invariant 7).
func (s *Store) Store(ctx context.Context, m model.EpisodicMemory) (uuid.UUID, error) {
	if m.ID == uuid.Nil {
		m.ID = ComputeID(m.ExpertID, m.GameID, m.CreatedAt)
	}
	if _, err := s.repo.GetMemory(ctx, m.ID); err == nil {
		return uuid.Nil, fmt.Errorf("memory: id %s already stored (append-only)", m.ID)
	}
	if m.Decay == 0 {
		m.Decay = 1.0
	}

	text := combinedText(m)
	if s.embed != nil && text != "" {
		vec, err := s.embed.Embed(ctx, text)
		if err != nil {
			s.logger.Warn("memory: embedding failed, storing without vector", "memory_id", m.ID, "error", err)
		} else {
			m.CombinedEmbedding = &vec
		}
	}

	if err := s.repo.InsertMemory(ctx, m); err != nil {
		return uuid.Nil, fmt.Errorf("memory: insert: %w", err)
	}

	if s.upserter != nil && m.CombinedEmbedding != nil {
		point := search.Point{
			ID:             m.ID,
			ExpertID:       m.ExpertID,
			RunID:          m.RunID,
			GameID:         m.GameID,
			MemoryType:     m.Type,
			Vividness:      float32(m.Vividness),
			Decay:          float32(m.Decay),
			RetrievalCount: int32(m.RetrievalCount),
			CreatedAt:      m.CreatedAt,
			Embedding:      m.CombinedEmbedding.Slice(),
		}
		if err := s.upserter.Upsert(ctx, []search.Point{point}); err != nil {
			s.logger.Warn("memory: ANN upsert failed, memory remains retrievable via substring fallback", "memory_id", m.ID, "error", err)
		}
	}

	return m.ID, nil
}

// combinedText is the text basis for the combined embedding: lessons
// learned plus contextual factors, the fields most predictive of "is
// this memory relevant to a similar future situation".
func combinedText(m model.EpisodicMemory) string {
	parts := make([]string, 0, len(m.LessonsLearned)+len(m.ContextualFactors))
	parts = append(parts, m.LessonsLearned...)
	parts = append(parts, m.ContextualFactors...)
	return strings.Join(parts, " ")
}

// Retrieve runs the §4.4 retrieval algorithm: filter, similarity (ANN or
// substring fallback), recency, blend, rank, and retrieval-count bump on
// the returned rows.
func (s *Store) Retrieve(ctx context.Context, expertID, runID uuid.UUID, queryText string, k int, alpha float64) ([]model.Scored, error) {
	if k <= 0 {
		k = DefaultK
	}
	if alpha <= 0 {
		alpha = DefaultAlpha
	}

	filter := model.RetrievalFilter{ExpertID: expertID, RunID: runID, MaxAgeDays: MaxAgeDays, MinDecay: MinDecay}
	candidates, err := s.repo.ListCandidates(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("memory: list candidates: %w", err)
	}
	if len(candidates) == 0 {
		return nil, nil
	}

	byID := make(map[uuid.UUID]model.EpisodicMemory, len(candidates))
	for _, m := range candidates {
		byID[m.ID] = m
	}

	var results []search.Result
	if s.index != nil && s.embed != nil && queryText != "" {
		if vec, embErr := s.embed.Embed(ctx, queryText); embErr == nil {
			annResults, searchErr := s.index.Search(ctx, expertID, vec.Slice(), filter, k)
			if searchErr == nil {
				results = annResults
			} else {
				s.logger.Warn("memory: ANN search failed, falling back to substring match", "error", searchErr)
			}
		}
	}
	if results == nil {
		results = substringFallback(queryText, candidates)
	}

	now := time.Now()
	scored := search.Rank(results, byID, now, alpha, k)

	if len(scored) > 0 {
		ids := make([]uuid.UUID, len(scored))
		for i, sc := range scored {
			ids[i] = sc.Memory.ID
		}
		if err := s.repo.IncrementRetrieval(ctx, ids); err != nil {
			s.logger.Warn("memory: failed to bump retrieval_count", "error", err)
		}
	}

	return scored, nil
}

// substringFallback scores candidates by weighted term overlap with
// queryText when no embedding is available (§4.4 step 2). Score is the
// fraction of query terms found in the memory's combined text, mapped
// into a cosine-like [0,1] range expected by search.Rank.
func substringFallback(queryText string, candidates []model.EpisodicMemory) []search.Result {
	terms := strings.Fields(strings.ToLower(queryText))
	results := make([]search.Result, 0, len(candidates))
	for _, m := range candidates {
		haystack := strings.ToLower(combinedText(m))
		if len(terms) == 0 || haystack == "" {
			results = append(results, search.Result{MemoryID: m.ID, Score: 0})
			continue
		}
		var hits int
		for _, term := range terms {
			if strings.Contains(haystack, term) {
				hits++
			}
		}
		results = append(results, search.Result{MemoryID: m.ID, Score: float32(hits) / float32(len(terms))})
	}
	sort.Slice(results, func(i, j int) bool { return results[i].Score > results[j].Score })
	return results
}

// decayStep and reinforceStep are the per-pass adjustments applied by
// Decay: rarely-retrieved memories weaken, frequently-retrieved ones
// strengthen (§4.4 "decay()" operation).
const (
	decayStep     = 0.05
	reinforceStep = 0.03
	retrievalHighWaterMark = 3
)

// Decay runs the periodic batch job over memories eligible for a decay
// pass: it reduces decay for memories with low retrieval_count and
// increases it (capped at 1.0) for frequently-retrieved ones.
func (s *Store) Decay(ctx context.Context) error {
	candidates, err := s.repo.ListDecayCandidates(ctx)
	if err != nil {
		return fmt.Errorf("memory: list decay candidates: %w", err)
	}

	for _, m := range candidates {
		next := m.Decay
		if m.RetrievalCount >= retrievalHighWaterMark {
			next = min(1.0, m.Decay+reinforceStep)
		} else {
			next = max(0.0, m.Decay-decayStep)
		}
		if next == m.Decay {
			continue
		}
		if err := s.repo.UpdateDecay(ctx, m.ID, next); err != nil {
			s.logger.Warn("memory: decay update failed", "memory_id", m.ID, "error", err)
		}
	}
	return nil
}
