package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/producelens/backend/internal/domain"
)

// Default retention limits
const (
	DefaultHistoryLimit = 50
	DefaultSummaryLimit = 10
	DefaultRecentN      = 5
)

// MemoryServiceConfig holds configuration for the memory service
type MemoryServiceConfig struct {
	HistoryLimit int
	SummaryLimit int
}

// MemoryService reads and updates per-user memory on top of a MemoryStore.
// Every mutation is read-modify-write and stamps last_updated.
type MemoryService struct {
	store        domain.MemoryStore
	historyLimit int
	summaryLimit int
	logger       zerolog.Logger
	now          func() time.Time
}

// NewMemoryService creates a new memory service
func NewMemoryService(store domain.MemoryStore, config MemoryServiceConfig, logger zerolog.Logger) *MemoryService {
	historyLimit := config.HistoryLimit
	if historyLimit <= 0 {
		historyLimit = DefaultHistoryLimit
	}
	summaryLimit := config.SummaryLimit
	if summaryLimit <= 0 {
		summaryLimit = DefaultSummaryLimit
	}

	return &MemoryService{
		store:        store,
		historyLimit: historyLimit,
		summaryLimit: summaryLimit,
		logger:       logger,
		now:          time.Now,
	}
}

// Load returns the user's memory and where it came from. A store failure still
// returns the default memory, tagged MemoryFallback, alongside the error.
func (m *MemoryService) Load(ctx context.Context, userID string) (*domain.UserMemory, domain.MemoryReadOutcome, error) {
	memory, err := m.store.Read(ctx, userID)
	switch {
	case err == nil:
		if memory.UserID == "" {
			memory.UserID = userID
		}
		return memory, domain.MemoryFound, nil
	case errors.Is(err, domain.ErrUserNotFound):
		return domain.DefaultMemory(userID, m.now()), domain.MemoryDefault, nil
	default:
		m.logger.Warn().Err(err).Str("user_id", userID).Msg("memory read failed, using defaults")
		return domain.DefaultMemory(userID, m.now()), domain.MemoryFallback, fmt.Errorf("%w: read %s: %v", domain.ErrMemoryStore, userID, err)
	}
}

// Preferences returns the user's preference profile.
func (m *MemoryService) Preferences(ctx context.Context, userID string) (domain.Preferences, domain.MemoryReadOutcome, error) {
	memory, outcome, err := m.Load(ctx, userID)
	return memory.Preferences, outcome, err
}

// UpdatePreferences shallow-merges patch into the stored preferences.
// Patch values of an unexpected type end up absent, as with any stored value.
func (m *MemoryService) UpdatePreferences(ctx context.Context, userID string, patch map[string]interface{}) (domain.Preferences, error) {
	var updated domain.Preferences
	err := m.mutate(ctx, userID, func(memory *domain.UserMemory) error {
		merged, err := MergePreferences(memory.Preferences, patch)
		if err != nil {
			return err
		}
		merged.LastUpdated = m.now()
		memory.Preferences = merged
		updated = merged
		return nil
	})
	return updated, err
}

// AddSearchHistory appends a search entry, keeping the most recent historyLimit.
func (m *MemoryService) AddSearchHistory(ctx context.Context, userID, query string, resultCount int) error {
	return m.mutate(ctx, userID, func(memory *domain.UserMemory) error {
		memory.SearchHistory = append(memory.SearchHistory, domain.SearchHistoryEntry{
			Query:        query,
			ResultsCount: resultCount,
			Timestamp:    m.now(),
		})
		memory.SearchHistory = keepLast(memory.SearchHistory, m.historyLimit)
		return nil
	})
}

// AddPurchaseIntent appends a purchase-intent entry.
func (m *MemoryService) AddPurchaseIntent(ctx context.Context, userID, intent string, products []string) error {
	if products == nil {
		products = []string{}
	}
	return m.mutate(ctx, userID, func(memory *domain.UserMemory) error {
		memory.PurchaseIntents = append(memory.PurchaseIntents, domain.PurchaseIntent{
			Intent:    intent,
			Products:  products,
			Timestamp: m.now(),
		})
		return nil
	})
}

// AddConversationSummary appends a question -> plan -> conclusion summary, keeping
// the most recent maxKeep (the configured summary limit when maxKeep <= 0).
func (m *MemoryService) AddConversationSummary(ctx context.Context, userID, question, plan, conclusion string, maxKeep int) error {
	if maxKeep <= 0 {
		maxKeep = m.summaryLimit
	}
	return m.mutate(ctx, userID, func(memory *domain.UserMemory) error {
		memory.ShortTermSummaries = append(memory.ShortTermSummaries, domain.ConversationSummary{
			Question:   question,
			Plan:       plan,
			Conclusion: conclusion,
			Timestamp:  m.now(),
		})
		memory.ShortTermSummaries = keepLast(memory.ShortTermSummaries, maxKeep)
		return nil
	})
}

// RecentSummaries returns up to n of the most recent summaries, oldest first.
func (m *MemoryService) RecentSummaries(ctx context.Context, userID string, n int) ([]domain.ConversationSummary, domain.MemoryReadOutcome, error) {
	if n <= 0 {
		n = DefaultRecentN
	}
	memory, outcome, err := m.Load(ctx, userID)
	summaries := keepLast(memory.ShortTermSummaries, n)
	if summaries == nil {
		summaries = []domain.ConversationSummary{}
	}
	return summaries, outcome, err
}

// mutate reads, applies fn and writes back. A failed read aborts the write so
// stored memory is never replaced by defaults.
func (m *MemoryService) mutate(ctx context.Context, userID string, fn func(*domain.UserMemory) error) error {
	memory, outcome, err := m.Load(ctx, userID)
	if err != nil {
		return err
	}
	if outcome == domain.MemoryDefault {
		memory.CreatedAt = m.now()
	}

	if err := fn(memory); err != nil {
		return err
	}
	memory.UserID = userID
	memory.LastUpdated = m.now()

	if err := m.store.Write(ctx, userID, memory); err != nil {
		m.logger.Warn().Err(err).Str("user_id", userID).Msg("memory write failed")
		return fmt.Errorf("%w: write %s: %v", domain.ErrMemoryStore, userID, err)
	}
	return nil
}

// MergePreferences overlays patch keys onto base, like a dict update.
func MergePreferences(base domain.Preferences, patch map[string]interface{}) (domain.Preferences, error) {
	data, err := json.Marshal(base)
	if err != nil {
		return base, fmt.Errorf("encode preferences: %w", err)
	}
	fields := make(map[string]interface{})
	if err := json.Unmarshal(data, &fields); err != nil {
		return base, fmt.Errorf("decode preferences: %w", err)
	}
	for k, v := range patch {
		fields[k] = v
	}

	data, err = json.Marshal(fields)
	if err != nil {
		return base, fmt.Errorf("%w: preferences patch: %v", domain.ErrInvalidRequest, err)
	}
	var merged domain.Preferences
	if err := json.Unmarshal(data, &merged); err != nil {
		return base, fmt.Errorf("decode merged preferences: %w", err)
	}
	return merged, nil
}

func keepLast[T any](items []T, n int) []T {
	if len(items) > n {
		return items[len(items)-n:]
	}
	return items
}
