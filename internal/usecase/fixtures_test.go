package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/producelens/backend/internal/domain"
)

var errStoreDown = errors.New("store unavailable")

func testRows() []domain.CatalogRow {
	return []domain.CatalogRow{
		{ID: "1", Name: "Tomato", Aliases: "西红柿, 番茄", Category: "vegetable", Price: "12", Region: "Beijing", Season: "summer", IsOrganic: "true", IsLocal: "yes", Store: "North Market", UpdateTime: "2024-06-01"},
		{ID: "2", Name: "Lettuce", Category: "vegetable", Price: "8", Region: "Shanghai", Season: "summer", IsOrganic: "false", Store: "East Market", UpdateTime: "2024-06-02"},
		{ID: "3", Name: "Apple", Aliases: "苹果", Category: "fruit", Price: "25", Region: "Shandong", Season: "autumn", IsOrganic: "unknown", Store: "North Market", UpdateTime: "2024-05-20"},
		{ID: "4", Name: "Cucumber", Aliases: "黄瓜", Category: "vegetable", Price: "n/a", Region: "Beijing", Season: "summer,autumn", Store: "North Market"},
		{ID: "5", Name: "Pear", Aliases: "梨", Category: "fruit", Price: "18", Region: "Beijing", Season: "autumn", IsOrganic: "no", Store: "West Market", UpdateTime: "2024-09-01"},
	}
}

func testCatalog() []domain.ProductRecord {
	catalog, err := NormalizeCatalog(testRows())
	if err != nil {
		panic(err)
	}
	return catalog
}

func testFacts() *domain.SeasonalFacts {
	return &domain.SeasonalFacts{
		SeasonalCrops: map[string][]string{
			"summer": {"Tomato", "Cucumber", "Watermelon"},
			"autumn": {"Apple", "Pear"},
		},
		RegionalSpecialties: map[string][]string{
			"Beijing":  {"Jingxi rice", "Pinggu peach"},
			"Shanghai": {},
		},
		LastUpdated: "2024-06",
	}
}

const testFAQText = `<!-- Last updated: 2024-06-15 -->
# Produce FAQ

Q: How do I keep tomato fresh?
A: Store at room temperature.
A: Refrigerate only when fully ripe.
Q: Are apples better in autumn?
A: Yes, autumn is apple season.
`

func testSnapshot() *domain.Snapshot {
	catalog := testCatalog()
	return &domain.Snapshot{
		Version:       1,
		CatalogSource: "products.csv",
		FactsSource:   "crops.json",
		FAQSource:     "faq.md",
		Catalog:       catalog,
		Facts:         *testFacts(),
		FAQ:           ParseFAQ(testFAQText),
		Aliases:       BuildAliasMap(catalog),
	}
}

type stubCatalog struct {
	mu   sync.Mutex
	rows []domain.CatalogRow
	err  error
}

func (s *stubCatalog) ListProducts(ctx context.Context) ([]domain.CatalogRow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	return s.rows, nil
}

func (s *stubCatalog) Name() string { return "products.csv" }

func (s *stubCatalog) set(rows []domain.CatalogRow, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows, s.err = rows, err
}

type stubFacts struct {
	facts *domain.SeasonalFacts
	err   error
}

func (s *stubFacts) LoadFacts(ctx context.Context) (*domain.SeasonalFacts, error) {
	return s.facts, s.err
}

func (s *stubFacts) Name() string { return "crops.json" }

type stubFAQ struct {
	text string
	err  error
}

func (s *stubFAQ) LoadFAQ(ctx context.Context) (string, error) {
	return s.text, s.err
}

func (s *stubFAQ) Name() string { return "faq.md" }

// memoryStore keeps users as JSON so reads go through the same decoding as a real store.
type memoryStore struct {
	mu       sync.Mutex
	users    map[string][]byte
	readErr  error
	writeErr error
	writes   int
}

func newMemoryStore() *memoryStore {
	return &memoryStore{users: make(map[string][]byte)}
}

func (s *memoryStore) Read(ctx context.Context, userID string) (*domain.UserMemory, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.readErr != nil {
		return nil, s.readErr
	}
	data, ok := s.users[userID]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	var memory domain.UserMemory
	if err := json.Unmarshal(data, &memory); err != nil {
		return nil, err
	}
	return &memory, nil
}

func (s *memoryStore) Write(ctx context.Context, userID string, memory *domain.UserMemory) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.writeErr != nil {
		return s.writeErr
	}
	data, err := json.Marshal(memory)
	if err != nil {
		return err
	}
	s.users[userID] = data
	s.writes++
	return nil
}

func (s *memoryStore) put(userID, raw string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[userID] = []byte(raw)
}

// mapCache is an in-process CacheRepository that counts hits.
type mapCache struct {
	mu   sync.Mutex
	data map[string][]byte
	hits int
	sets int
}

func newMapCache() *mapCache {
	return &mapCache{data: make(map[string][]byte)}
}

func (c *mapCache) Get(ctx context.Context, key string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.data[key]
	if !ok {
		return nil, domain.ErrCacheMiss
	}
	c.hits++
	return v, nil
}

func (c *mapCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = value
	c.sets++
	return nil
}

func (c *mapCache) Delete(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, key)
	return nil
}

func (c *mapCache) Exists(ctx context.Context, key string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.data[key]
	return ok, nil
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func intPtr(v int) *int { return &v }

func floatPtr(v float64) *float64 { return &v }

func boolPtr(v bool) *bool { return &v }
