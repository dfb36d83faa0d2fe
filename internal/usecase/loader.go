package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"hash/fnv"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/producelens/backend/internal/domain"
)

// SnapshotLoader reads the catalog, facts and FAQ sources and builds an
// immutable snapshot. The three sources are fetched concurrently.
type SnapshotLoader struct {
	catalog domain.CatalogProvider
	facts   domain.FactsProvider
	faq     domain.FAQProvider
	logger  zerolog.Logger
	version atomic.Int64
	now     func() time.Time
}

// NewSnapshotLoader creates a loader over the given providers.
func NewSnapshotLoader(
	catalog domain.CatalogProvider,
	facts domain.FactsProvider,
	faq domain.FAQProvider,
	logger zerolog.Logger,
) *SnapshotLoader {
	return &SnapshotLoader{
		catalog: catalog,
		facts:   facts,
		faq:     faq,
		logger:  logger,
		now:     time.Now,
	}
}

// Load builds a new snapshot. Any missing, malformed or invalid source fails
// the whole load with a DataLoadError.
func (l *SnapshotLoader) Load(ctx context.Context) (*domain.Snapshot, error) {
	var (
		rows    []domain.CatalogRow
		facts   *domain.SeasonalFacts
		faqText string
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		if rows, err = l.catalog.ListProducts(gctx); err != nil {
			return domain.NewDataLoadError(l.catalog.Name(), err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		if facts, err = l.facts.LoadFacts(gctx); err != nil {
			return domain.NewDataLoadError(l.facts.Name(), err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		if faqText, err = l.faq.LoadFAQ(gctx); err != nil {
			return domain.NewDataLoadError(l.faq.Name(), err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	catalog, err := NormalizeCatalog(rows)
	if err != nil {
		return nil, domain.NewDataLoadError(l.catalog.Name(), err)
	}
	if err := validateFacts(facts); err != nil {
		return nil, domain.NewDataLoadError(l.facts.Name(), err)
	}

	if collisions := AliasCollisions(catalog); len(collisions) > 0 {
		l.logger.Warn().Strs("aliases", collisions).Msg("aliases shared by several products; last catalog entry wins")
	}

	faq := ParseFAQ(faqText)
	fingerprint, err := contentFingerprint(catalog, facts, faq)
	if err != nil {
		return nil, domain.NewDataLoadError(l.catalog.Name(), err)
	}

	snap := &domain.Snapshot{
		Version:       l.version.Add(1),
		Fingerprint:   fingerprint,
		LoadedAt:      l.now(),
		CatalogSource: l.catalog.Name(),
		FactsSource:   l.facts.Name(),
		FAQSource:     l.faq.Name(),
		Catalog:       catalog,
		Facts:         *facts,
		FAQ:           faq,
		Aliases:       BuildAliasMap(catalog),
	}

	l.logger.Info().
		Int64("version", snap.Version).
		Str("fingerprint", fmt.Sprintf("%016x", snap.Fingerprint)).
		Int("products", len(snap.Catalog)).
		Int("aliases", len(snap.Aliases)).
		Int("faq_entries", len(snap.FAQ.Entries)).
		Msg("reference data loaded")

	return snap, nil
}

// contentFingerprint hashes the normalized reference data. Map keys are
// encoded in sorted order, so the hash depends on content only.
func contentFingerprint(catalog []domain.ProductRecord, facts *domain.SeasonalFacts, faq domain.FAQCorpus) (uint64, error) {
	h := fnv.New64a()
	enc := json.NewEncoder(h)
	for _, v := range []interface{}{catalog, facts, faq} {
		if err := enc.Encode(v); err != nil {
			return 0, fmt.Errorf("fingerprint reference data: %w", err)
		}
	}
	return h.Sum64(), nil
}

// NormalizeCatalog converts provider rows into product records. Every row needs
// an integer id and a name, and ids must be unique.
func NormalizeCatalog(rows []domain.CatalogRow) ([]domain.ProductRecord, error) {
	catalog := make([]domain.ProductRecord, 0, len(rows))
	seen := make(map[int64]bool, len(rows))

	for i, row := range rows {
		rawID := strings.TrimSpace(row.ID)
		if rawID == "" {
			return nil, fmt.Errorf("row %d: missing id", i+1)
		}
		id, err := parseID(rawID)
		if err != nil {
			return nil, fmt.Errorf("row %d: invalid id %q", i+1, rawID)
		}
		name := strings.TrimSpace(row.Name)
		if name == "" {
			return nil, fmt.Errorf("row %d (id %d): missing name", i+1, id)
		}
		if seen[id] {
			return nil, fmt.Errorf("row %d: duplicate id %d", i+1, id)
		}
		seen[id] = true

		catalog = append(catalog, domain.ProductRecord{
			ID:         id,
			Name:       name,
			Aliases:    domain.SplitAliases(row.Aliases),
			Category:   strings.TrimSpace(row.Category),
			Price:      domain.ParsePrice(row.Price),
			Region:     strings.TrimSpace(row.Region),
			Season:     strings.TrimSpace(row.Season),
			IsOrganic:  domain.ParseTriState(row.IsOrganic),
			IsLocal:    domain.ParseTriState(row.IsLocal),
			Store:      strings.TrimSpace(row.Store),
			UpdateTime: strings.TrimSpace(row.UpdateTime),
		})
	}

	return catalog, nil
}

// parseID accepts integers and integral floats such as "3.0".
func parseID(raw string) (int64, error) {
	if id, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return id, nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || f != float64(int64(f)) {
		return 0, errors.New("not an integer")
	}
	return int64(f), nil
}

func validateFacts(facts *domain.SeasonalFacts) error {
	if facts == nil {
		return errors.New("no facts returned")
	}
	if facts.SeasonalCrops == nil {
		return errors.New("missing seasonal_crops")
	}
	if facts.RegionalSpecialties == nil {
		return errors.New("missing regional_specialties")
	}
	return nil
}
