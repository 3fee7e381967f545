package service

import (
	"context"
	"fmt"
	"sync"

	"github.com/kristianfreeman/aii/internal/embedding"
	"github.com/kristianfreeman/aii/internal/history"
	"github.com/kristianfreeman/aii/internal/llm"
	"github.com/kristianfreeman/aii/internal/memory/facts"
	"github.com/kristianfreeman/aii/internal/models"
	"github.com/kristianfreeman/aii/internal/rag"
	"github.com/kristianfreeman/aii/pkg/logger"
)

// TurnPublisher publishes a completed turn for out-of-band fact ingestion.
type TurnPublisher interface {
	Publish(ctx context.Context, turn models.IngestedTurn) error
}

// Service orchestrates one chat turn: persist the query, mirror its
// embedding, assemble recency and relevance context, read the user's facts,
// and invoke generation. All state is parameterized by userID; nothing is
// shared between concurrent queries of different users.
//
// Failure policy: anything that only enriches context (embedding, vector
// upsert, recent history, relevant history, facts) degrades to an empty
// contribution. Persisting the query and the generation call itself are
// fatal and propagate.
type Service struct {
	messages    history.Store
	embedder    embedding.Embedding
	retriever   *rag.ContextBuilder
	facts       *facts.Manager
	llm         llm.LLM
	prompts     *PromptBuilder
	publisher   TurnPublisher // optional; nil disables turn publishing
	recentLimit int
	topK        int
	logger      *logger.Logger
}

// NewService creates a new chat Service.
func NewService(
	messages history.Store,
	embedder embedding.Embedding,
	retriever *rag.ContextBuilder,
	factManager *facts.Manager,
	llmClient llm.LLM,
	prompts *PromptBuilder,
	pub TurnPublisher,
	recentLimit, topK int,
	log *logger.Logger,
) *Service {
	return &Service{
		messages:    messages,
		embedder:    embedder,
		retriever:   retriever,
		facts:       factManager,
		llm:         llmClient,
		prompts:     prompts,
		publisher:   pub,
		recentLimit: recentLimit,
		topK:        topK,
		logger:      log,
	}
}

// HandleQuery runs the full context-assembly pipeline for one query and
// returns the generated reply. The reply is not persisted, not embedded, and
// not scanned for facts here; fact ingestion is a separate path.
func (s *Service) HandleQuery(ctx context.Context, userID, query, preferences string) (string, error) {
	log := s.logger.WithUser(userID)

	// 1. Persist the query first so its embedding can be tied to a durable id.
	msgID, err := s.messages.Insert(ctx, userID, query, models.RoleUser)
	if err != nil {
		return "", fmt.Errorf("failed to persist query: %w", err)
	}
	if msgID == 0 {
		// An insert that reports success but yields no id is an integration
		// error, not a transient store failure.
		return "", fmt.Errorf("message insert returned no id")
	}

	// 2. Embed the query (single-item batch).
	var queryVec []float32
	vectors, err := s.embedder.EmbedBatch(ctx, []string{query})
	if err != nil || len(vectors) == 0 {
		log.WithError(models.ErrorInfo{
			Message: fmt.Sprintf("embedding failed: %v", err),
			Type:    "store_unavailable",
		}).Warn("continuing without semantic recall")
	} else {
		queryVec = vectors[0]
	}

	// 3. Mirror the embedding in the message namespace, keyed by message id.
	if queryVec != nil {
		if err := s.retriever.StoreEmbedding(ctx, userID, msgID, queryVec); err != nil {
			log.WithError(models.ErrorInfo{
				Message: err.Error(),
				Type:    "store_unavailable",
			}).Warn("failed to store query embedding")
		}
	}

	// 4/5. Recency and relevance fetches are independent once the embedding
	// exists, so they run concurrently.
	var recent, relevant []string
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		r, err := s.messages.SelectRecent(ctx, userID, s.recentLimit)
		if err != nil {
			log.WithError(models.ErrorInfo{
				Message: err.Error(),
				Type:    "store_unavailable",
			}).Warn("failed to fetch recent messages")
			return
		}
		recent = r
	}()

	if queryVec != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			relevant = s.retriever.RetrieveRelevantTexts(ctx, userID, queryVec, s.topK)
		}()
	}
	wg.Wait()

	// 6. Union the two context sets; a message appearing in both collapses.
	contextTexts := unionTexts(recent, relevant)

	// 7. Live facts.
	factList := s.facts.GetFacts(ctx, userID)

	// 8. One generation call per query. Backend failure is fatal.
	instruction := s.prompts.Build(preferences, factList, contextTexts)
	reply, err := s.llm.Generate(ctx, instruction, query)
	if err != nil {
		return "", fmt.Errorf("generation failed: %w", err)
	}

	// Hand the completed turn to the ingestion topic; the memory service
	// extracts facts from it later.
	if s.publisher != nil {
		turn := models.IngestedTurn{
			UserID: userID,
			Text:   fmt.Sprintf("User: %s\nAssistant: %s", query, reply),
		}
		if err := s.publisher.Publish(ctx, turn); err != nil {
			log.WithError(models.ErrorInfo{
				Message: err.Error(),
				Type:    "store_unavailable",
			}).Warn("failed to publish turn for ingestion")
		}
	}

	return reply, nil
}

// unionTexts merges recency context and relevance context with set
// semantics: duplicates collapse even when a message appears in both.
func unionTexts(recent, relevant []string) []string {
	seen := make(map[string]struct{}, len(recent)+len(relevant))
	out := make([]string, 0, len(recent)+len(relevant))
	for _, texts := range [][]string{recent, relevant} {
		for _, t := range texts {
			if _, ok := seen[t]; ok {
				continue
			}
			seen[t] = struct{}{}
			out = append(out, t)
		}
	}
	return out
}
