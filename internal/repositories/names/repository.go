package names

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/Gobusters/ectologger"

	"github.com/owid/lc-reconcile/pkg/database"
	"github.com/owid/lc-reconcile/pkg/models"
	"github.com/owid/lc-reconcile/pkg/tracing"
)

// NamesRepository reads the reference names the service reconciles against
type NamesRepository interface {
	LoadCanonicalRecords(ctx context.Context) ([]models.CanonicalRecord, error)
	Suggest(ctx context.Context, text string, limit int) ([]models.SuggestResult, error)
	GetCountryByID(ctx context.Context, id string) (*models.Country, error)
}

// Repository implements NamesRepository on postgres
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

// NewRepository creates a new names repository
func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

const (
	countryDataTable  = "country_data"
	countryNamesTable = "country_names"
	entitiesTable     = "entities"
)

type nameRow struct {
	ID            string `db:"id"`
	RawName       string `db:"raw_name"`
	CanonicalName string `db:"canonical_name"`
}

// LoadCanonicalRecords returns every country name variant joined to its canonical country,
// followed by every entity. Entities are their own canonical name.
func (r *Repository) LoadCanonicalRecords(ctx context.Context) ([]models.CanonicalRecord, error) {
	ctx, span := tracing.StartSpan(ctx, "NamesRepository.LoadCanonicalRecords")
	defer span.End()

	countries := database.NewSelectBuilder()
	countries.Select(
		"CAST(cd.id AS TEXT) AS id",
		"cn.name AS raw_name",
		"cd.canonical_name AS canonical_name",
	)
	countries.Distinct()
	countries.From(countryNamesTable + " cn")
	countries.Join(countryDataTable+" cd", "cd.id = cn.country_id")
	countries.OrderBy("id", "raw_name")

	var countryRows []nameRow
	if err := r.selectRows(ctx, countries, &countryRows); err != nil {
		return nil, r.storeError(ctx, err, "failed to load country names")
	}

	entities := database.NewSelectBuilder()
	entities.Select(
		"CAST(e.id AS TEXT) AS id",
		"e.name AS raw_name",
		"e.name AS canonical_name",
	)
	entities.Distinct()
	entities.From(entitiesTable + " e")
	entities.OrderBy("id", "raw_name")

	var entityRows []nameRow
	if err := r.selectRows(ctx, entities, &entityRows); err != nil {
		return nil, r.storeError(ctx, err, "failed to load entities")
	}

	records := make([]models.CanonicalRecord, 0, len(countryRows)+len(entityRows))
	for _, row := range countryRows {
		records = append(records, row.record(models.KindCountry))
	}
	for _, row := range entityRows {
		records = append(records, row.record(models.KindEntity))
	}

	r.logger.WithContext(ctx).WithFields(map[string]any{
		"countries": len(countryRows),
		"entities":  len(entityRows),
	}).Debug("Loaded canonical records")

	return records, nil
}

// Suggest returns the countries and entities with a name containing text, case-insensitively.
// Countries come first, each group ordered by name; duplicates are dropped. A limit of 0
// returns everything.
func (r *Repository) Suggest(ctx context.Context, text string, limit int) ([]models.SuggestResult, error) {
	ctx, span := tracing.StartSpan(ctx, "NamesRepository.Suggest")
	defer span.End()

	pattern := database.ContainsPattern(strings.ToLower(text))

	countries := database.NewSelectBuilder()
	countries.Select("CAST(cd.id AS TEXT) AS id", "cd.canonical_name AS name")
	countries.Distinct()
	countries.From(countryDataTable + " cd")
	countries.Join(countryNamesTable+" cn", "cn.country_id = cd.id")
	countries.Where(countries.Like("LOWER(cn.name)", pattern))
	countries.OrderBy("name", "id")
	if limit > 0 {
		countries.Limit(limit)
	}

	var countryRows []models.SuggestResult
	if err := r.selectRows(ctx, countries, &countryRows); err != nil {
		return nil, r.storeError(ctx, err, "failed to suggest countries")
	}

	entities := database.NewSelectBuilder()
	entities.Select("CAST(e.id AS TEXT) AS id", "e.name AS name")
	entities.Distinct()
	entities.From(entitiesTable + " e")
	entities.Where(entities.Like("LOWER(e.name)", pattern))
	entities.OrderBy("name", "id")
	if limit > 0 {
		entities.Limit(limit)
	}

	var entityRows []models.SuggestResult
	if err := r.selectRows(ctx, entities, &entityRows); err != nil {
		return nil, r.storeError(ctx, err, "failed to suggest entities")
	}

	return mergeSuggestions(limit, countryRows, entityRows), nil
}

// GetCountryByID returns the canonical country with the given id, or models.ErrNotFound
func (r *Repository) GetCountryByID(ctx context.Context, id string) (*models.Country, error) {
	ctx, span := tracing.StartSpan(ctx, "NamesRepository.GetCountryByID")
	defer span.End()

	numericID, err := strconv.ParseInt(strings.TrimSpace(id), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("country %q: %w", id, models.ErrNotFound)
	}

	sb := database.NewSelectBuilder()
	sb.Select("CAST(cd.id AS TEXT) AS id", "cd.canonical_name AS canonical_name")
	sb.From(countryDataTable + " cd")
	sb.Where(sb.Equal("cd.id", numericID))

	query, args := sb.Build()

	var country models.Country
	if err := r.db.GetContext(ctx, &country, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("country %q: %w", id, models.ErrNotFound)
		}
		return nil, r.storeError(ctx, err, "failed to get country")
	}

	return &country, nil
}

func (r *Repository) selectRows(ctx context.Context, sb *database.SelectBuilder, dest any) error {
	query, args := sb.Build()
	return r.db.SelectContext(ctx, dest, query, args...)
}

func (r *Repository) storeError(ctx context.Context, err error, msg string) error {
	r.logger.WithContext(ctx).WithError(err).Error(msg)
	return fmt.Errorf("%w: %s: %w", models.ErrStoreUnavailable, msg, err)
}

func (row nameRow) record(kind models.Kind) models.CanonicalRecord {
	return models.CanonicalRecord{
		ID:            row.ID,
		RawName:       row.RawName,
		CanonicalName: row.CanonicalName,
		Kind:          kind,
	}
}

func mergeSuggestions(limit int, groups ...[]models.SuggestResult) []models.SuggestResult {
	seen := make(map[models.SuggestResult]struct{})
	out := make([]models.SuggestResult, 0)
	for _, group := range groups {
		for _, s := range group {
			if limit > 0 && len(out) >= limit {
				return out
			}
			if _, ok := seen[s]; ok {
				continue
			}
			seen[s] = struct{}{}
			out = append(out, s)
		}
	}
	return out
}
