package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"hash/fnv"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"github.com/producelens/backend/internal/domain"
)

const (
	// AnswerPlan is the fixed plan recorded in conversation summaries.
	AnswerPlan = "retrieve matching products with FAQ and crop facts, then rank by user preferences"

	// NoProductsConclusion is the draft conclusion when nothing matched.
	NoProductsConclusion = "no suitable products found"

	maxQueryLength      = 512
	conclusionTopN      = 3
	intentTopN          = 3
	defaultMaxResults   = 10
)

// RetrievalServiceConfig holds configuration for the retrieval service.
// EvidenceTopK <= 0 keeps the full evidence list.
type RetrievalServiceConfig struct {
	DefaultRegion string
	DefaultUserID string
	EvidenceTopK  int
	MaxResults    int
	CacheTTL      time.Duration
}

// RetrievalService is the single entry point of the engine: keyword extraction,
// scoring and evidence collection over the current reference snapshot, plus the
// user-memory side effects of each call.
type RetrievalService struct {
	loader    *SnapshotLoader
	snapshot  atomic.Pointer[domain.Snapshot]
	reloadMu  sync.Mutex
	extractor *KeywordExtractor
	scorer    *RelevanceScorer
	collector *EvidenceCollector
	memory    *MemoryService
	cache     domain.CacheRepository
	config    RetrievalServiceConfig
	logger    zerolog.Logger
	now       func() time.Time
}

// NewRetrievalService loads the initial snapshot and wires the pipeline. A load
// failure is returned as is: the service cannot run without reference data.
// cache may be nil.
func NewRetrievalService(
	ctx context.Context,
	loader *SnapshotLoader,
	memory *MemoryService,
	cache domain.CacheRepository,
	config RetrievalServiceConfig,
	logger zerolog.Logger,
) (*RetrievalService, error) {
	if config.MaxResults <= 0 {
		config.MaxResults = defaultMaxResults
	}
	if config.DefaultUserID == "" {
		config.DefaultUserID = "default"
	}
	if config.CacheTTL <= 0 {
		config.CacheTTL = 10 * time.Minute
	}

	s := &RetrievalService{
		loader:    loader,
		extractor: NewKeywordExtractor(logger),
		scorer:    NewRelevanceScorer(logger),
		collector: NewEvidenceCollector(logger),
		memory:    memory,
		cache:     cache,
		config:    config,
		logger:    logger,
		now:       time.Now,
	}

	if _, err := s.Reload(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

// Snapshot returns the reference data currently served.
func (s *RetrievalService) Snapshot() *domain.Snapshot {
	return s.snapshot.Load()
}

// Reload builds a fresh snapshot and swaps it in. Queries in flight keep the
// snapshot they started with; a failed reload leaves the current one in place.
func (s *RetrievalService) Reload(ctx context.Context) (*domain.Snapshot, error) {
	s.reloadMu.Lock()
	defer s.reloadMu.Unlock()

	snap, err := s.loader.Load(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("reference data reload failed")
		return nil, err
	}
	s.snapshot.Store(snap)
	return snap, nil
}

// retrieval is the cacheable part of a query result.
type retrieval struct {
	Keywords []string               `json:"keywords"`
	Products []domain.ScoredProduct `json:"products"`
	Evidence []domain.EvidenceItem  `json:"evidence"`
}

// Retrieve runs keyword extraction, scoring and evidence collection. It has no
// memory side effects. topK <= 0 returns the full evidence list.
func (s *RetrievalService) Retrieve(
	ctx context.Context,
	query, userRegion, season string,
	prefs domain.Preferences,
	topK int,
) ([]domain.ScoredProduct, []domain.EvidenceItem, []string, error) {
	snap := s.Snapshot()
	if snap == nil {
		return nil, nil, nil, domain.ErrSnapshotUnavailable
	}
	season = normalizeSeason(season)
	if season == "" {
		season = SeasonFor(s.now())
	}

	keywords := s.extractor.Extract(query, snap.Aliases)
	cacheKey := s.generateCacheKey(snap, keywords, userRegion, season, prefs, topK)

	if cached, err := s.getFromCache(ctx, cacheKey); err == nil {
		return cached.Products, cached.Evidence, cached.Keywords, nil
	}

	products := s.scorer.Score(snap.Catalog, ScoreQuery{
		Keywords:    keywords,
		UserRegion:  userRegion,
		Season:      season,
		Preferences: prefs,
	})
	evidence := s.collector.Collect(snap, EvidenceQuery{
		Keywords:   keywords,
		UserRegion: userRegion,
		Season:     season,
		Products:   products,
	})
	evidence = TruncateEvidence(evidence, topK)

	s.setInCache(ctx, cacheKey, &retrieval{Keywords: keywords, Products: products, Evidence: evidence})
	return products, evidence, keywords, nil
}

// Search is the search endpoint: retrieval plus search-history and
// purchase-intent logging. Memory failures are reported, not returned.
func (s *RetrievalService) Search(ctx context.Context, req *domain.SearchRequest) (*domain.SearchResult, error) {
	result, err := s.run(ctx, req, s.config.EvidenceTopK)
	if err != nil {
		return nil, err
	}
	userID := s.userID(req)

	if err := s.memory.AddSearchHistory(ctx, userID, req.Query, result.ResultCount); err != nil {
		result.Memory.Errors = append(result.Memory.Errors, err.Error())
	} else {
		result.Memory.HistorySaved = true
	}

	intent := DetectPurchaseIntent(req.Query)
	if err := s.memory.AddPurchaseIntent(ctx, userID, intent, topNames(result.Products, intentTopN)); err != nil {
		result.Memory.Errors = append(result.Memory.Errors, err.Error())
	} else {
		result.Memory.IntentSaved = true
	}

	return result, nil
}

// Answer is the evidence-first endpoint: retrieval plus a draft conclusion built
// from the top products, recorded as a short-term conversation summary.
func (s *RetrievalService) Answer(ctx context.Context, req *domain.SearchRequest) (*domain.AnswerResult, error) {
	result, err := s.run(ctx, req, s.config.EvidenceTopK)
	if err != nil {
		return nil, err
	}

	answer := &domain.AnswerResult{
		SearchResult: *result,
		Plan:         AnswerPlan,
		Conclusion:   DraftConclusion(result.Products),
	}

	saved := true
	if err := s.memory.AddConversationSummary(ctx, s.userID(req), req.Query, AnswerPlan, answer.Conclusion, 0); err != nil {
		saved = false
		answer.Memory.Errors = append(answer.Memory.Errors, err.Error())
	}
	answer.Memory.SummarySaved = &saved

	return answer, nil
}

// run validates the request, reads preferences and retrieves.
func (s *RetrievalService) run(ctx context.Context, req *domain.SearchRequest, defaultTopK int) (*domain.SearchResult, error) {
	if req == nil {
		return nil, domain.ErrInvalidRequest
	}
	if utf8.RuneCountInString(req.Query) > maxQueryLength {
		return nil, fmt.Errorf("%w: query longer than %d characters", domain.ErrInvalidRequest, maxQueryLength)
	}

	region := req.UserRegion
	if region == "" {
		region = s.config.DefaultRegion
	}
	season := normalizeSeason(req.Season)
	if season == "" {
		season = SeasonFor(s.now())
	}
	topK := defaultTopK
	if req.EvidenceTopK != nil {
		topK = *req.EvidenceTopK
	}

	prefs, outcome, err := s.memory.Preferences(ctx, s.userID(req))
	report := domain.MemoryReport{Read: outcome}
	if err != nil {
		report.Errors = append(report.Errors, err.Error())
	}

	products, evidence, keywords, err := s.Retrieve(ctx, req.Query, region, season, prefs, topK)
	if err != nil {
		return nil, err
	}

	return &domain.SearchResult{
		Products:    limitProducts(products, s.config.MaxResults),
		Evidence:    evidence,
		Query:       req.Query,
		UserRegion:  region,
		Season:      season,
		Keywords:    keywords,
		ResultCount: len(products),
		Memory:      report,
	}, nil
}

// normalizeSeason lower-cases a season name to match the crop facts keys.
func normalizeSeason(season string) string {
	return strings.ToLower(strings.TrimSpace(season))
}

func (s *RetrievalService) userID(req *domain.SearchRequest) string {
	if req.UserID == "" {
		return s.config.DefaultUserID
	}
	return req.UserID
}

// DraftConclusion joins the top products as "name (¥price)".
func DraftConclusion(products []domain.ScoredProduct) string {
	n := min(len(products), conclusionTopN)
	if n == 0 {
		return NoProductsConclusion
	}
	items := make([]string, 0, n)
	for _, p := range products[:n] {
		items = append(items, fmt.Sprintf("%s (¥%s)", p.Name, p.Price))
	}
	return strings.Join(items, "; ")
}

func topNames(products []domain.ScoredProduct, n int) []string {
	n = min(len(products), n)
	names := make([]string, 0, n)
	for _, p := range products[:n] {
		names = append(names, p.Name)
	}
	return names
}

func limitProducts(products []domain.ScoredProduct, n int) []domain.ScoredProduct {
	if len(products) > n {
		return products[:n]
	}
	return products
}

// generateCacheKey creates a cache key from everything a retrieval depends on.
// Format: "retrieval:{content fingerprint}:{season}:{region}:{topK}:{prefs hash}:{sorted keywords}"
func (s *RetrievalService) generateCacheKey(
	snap *domain.Snapshot,
	keywords []string,
	region, season string,
	prefs domain.Preferences,
	topK int,
) string {
	sorted := append([]string(nil), keywords...)
	sort.Strings(sorted)
	return fmt.Sprintf("retrieval:%016x:%s:%s:%d:%x:%s",
		snap.Fingerprint, season, region, topK, preferenceFingerprint(prefs), strings.Join(sorted, "|"))
}

// preferenceFingerprint hashes the scoring-relevant preference fields.
func preferenceFingerprint(prefs domain.Preferences) uint64 {
	prefs.LastUpdated = time.Time{}
	data, _ := json.Marshal(prefs)
	h := fnv.New64a()
	_, _ = h.Write(data)
	return h.Sum64()
}

// getFromCache retrieves a retrieval result from cache
func (s *RetrievalService) getFromCache(ctx context.Context, key string) (*retrieval, error) {
	if s.cache == nil {
		return nil, domain.ErrCacheMiss
	}
	data, err := s.cache.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	var cached retrieval
	if err := json.Unmarshal(data, &cached); err != nil {
		return nil, domain.ErrCacheMiss
	}
	return &cached, nil
}

// setInCache stores a retrieval result; failures are logged and ignored.
func (s *RetrievalService) setInCache(ctx context.Context, key string, value *retrieval) {
	if s.cache == nil {
		return
	}
	data, err := json.Marshal(value)
	if err != nil {
		s.logger.Warn().Err(err).Msg("failed to encode retrieval for cache")
		return
	}
	if err := s.cache.Set(ctx, key, data, s.config.CacheTTL); err != nil {
		s.logger.Warn().Err(err).Str("key", key).Msg("failed to cache retrieval")
	}
}
