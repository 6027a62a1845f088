package directory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
	"gorm.io/datatypes"

	"github.com/chalkboardhq/chalkboard/internal/models"
	"github.com/chalkboardhq/chalkboard/pkg/logger"
	"github.com/chalkboardhq/chalkboard/pkg/metrics"
)

// Config describes the upstream dataset edition and cache behaviour. It is
// constructed once by the process entry point and injected here; the service
// never reads configuration from globals.
type Config struct {
	BaseURL      string
	Dataset      string
	DataOrigin   string
	DatasetYear  int
	CacheTTLDays int
}

// Validate checks the configuration is usable.
func (c Config) Validate() error {
	if strings.TrimSpace(c.BaseURL) == "" {
		return errors.New("directory: base URL is required")
	}
	if strings.TrimSpace(c.Dataset) == "" {
		return errors.New("directory: dataset is required")
	}
	if strings.TrimSpace(c.DataOrigin) == "" {
		return errors.New("directory: data origin is required")
	}
	if c.DatasetYear <= 0 {
		return errors.New("directory: dataset year must be positive")
	}
	if c.CacheTTLDays <= 0 {
		return errors.New("directory: cache TTL days must be positive")
	}
	return nil
}

// DistrictOption is the projection returned to callers of DistrictsByFIPS.
type DistrictOption struct {
	LEAID   string `json:"leaid"`
	LEAName string `json:"lea_name"`
}

// SchoolOption is the projection returned to callers of SchoolsByLEAID.
type SchoolOption struct {
	NCESSCH    string `json:"ncessch"`
	SchoolName string `json:"school_name"`
	LEAID      string `json:"leaid"`
}

// Service resolves directory lookups cache-aside: fresh rows are served from
// the database; a miss or fully stale set pulls the complete upstream set for
// the key, upserts every row, and returns the pulled set. Rows are never
// deleted here; staleness is evaluated at read time only.
type Service struct {
	cfg    Config
	repo   Repository
	client HTTPDoer
	now    func() time.Time
	flight singleflight.Group
	log    *zap.Logger
}

// Option customises the Service.
type Option func(*Service)

// WithHTTPClient overrides the upstream fetch client.
func WithHTTPClient(client HTTPDoer) Option {
	return func(s *Service) {
		if client != nil {
			s.client = client
		}
	}
}

// WithNow overrides the clock, primarily for freshness tests.
func WithNow(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// NewService constructs the resolver for both directory resources.
func NewService(cfg Config, repo Repository, opts ...Option) (*Service, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if repo == nil {
		return nil, errors.New("directory: repository is required")
	}

	s := &Service{
		cfg:    cfg,
		repo:   repo,
		client: http.DefaultClient,
		now:    time.Now,
		log:    logger.WithModule("directory"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// DistrictsByFIPS returns the districts for a state FIPS code, name-sorted.
// The cache-hit path performs no network I/O.
func (s *Service) DistrictsByFIPS(ctx context.Context, fips int) ([]DistrictOption, error) {
	cached, err := s.repo.FreshDistricts(ctx, fips, s.filter(), s.freshnessCutoff())
	if err != nil {
		return nil, err
	}

	if len(cached) > 0 {
		metrics.DirectoryLookups.WithLabelValues("districts", "hit").Inc()
		out := make([]DistrictOption, 0, len(cached))
		for _, row := range cached {
			out = append(out, DistrictOption{LEAID: row.LEAID, LEAName: row.LEAName})
		}
		sortDistrictOptions(out)
		return out, nil
	}

	// Concurrent misses for the same code share one upstream pull.
	v, err, _ := s.flight.Do("districts:"+strconv.Itoa(fips), func() (any, error) {
		return s.refreshDistricts(ctx, fips)
	})
	if err != nil {
		metrics.DirectoryLookups.WithLabelValues("districts", "error").Inc()
		return nil, err
	}

	metrics.DirectoryLookups.WithLabelValues("districts", "refresh").Inc()
	return v.([]DistrictOption), nil
}

// SchoolsByLEAID returns the schools in a district, name-sorted. Structural
// twin of DistrictsByFIPS.
func (s *Service) SchoolsByLEAID(ctx context.Context, leaid string) ([]SchoolOption, error) {
	cached, err := s.repo.FreshSchools(ctx, leaid, s.filter(), s.freshnessCutoff())
	if err != nil {
		return nil, err
	}

	if len(cached) > 0 {
		metrics.DirectoryLookups.WithLabelValues("schools", "hit").Inc()
		out := make([]SchoolOption, 0, len(cached))
		for _, row := range cached {
			out = append(out, SchoolOption{NCESSCH: row.NCESSCH, SchoolName: row.SchoolName, LEAID: row.LEAID})
		}
		sortSchoolOptions(out)
		return out, nil
	}

	v, err, _ := s.flight.Do("schools:"+leaid, func() (any, error) {
		return s.refreshSchools(ctx, leaid)
	})
	if err != nil {
		metrics.DirectoryLookups.WithLabelValues("schools", "error").Inc()
		return nil, err
	}

	metrics.DirectoryLookups.WithLabelValues("schools", "refresh").Inc()
	return v.([]SchoolOption), nil
}

type districtRecord struct {
	LEAID   string `json:"leaid"`
	LEAName string `json:"lea_name"`
	FIPS    *int   `json:"fips"`
}

func (s *Service) refreshDistricts(ctx context.Context, fips int) ([]DistrictOption, error) {
	pullURL := fmt.Sprintf("%s/school-districts/%s/directory/%d/?fips=%d",
		strings.TrimRight(s.cfg.BaseURL, "/"), s.cfg.Dataset, s.cfg.DatasetYear, fips)

	rows, err := FetchAllPages(ctx, s.client, pullURL)
	if err != nil {
		return nil, err
	}

	// A valid key with no upstream rows is a legitimate empty result; it is
	// not persisted, so the next call pulls again.
	if len(rows) == 0 {
		return []DistrictOption{}, nil
	}

	fetchedAt := s.now()
	out := make([]DistrictOption, 0, len(rows))

	var persistErr error
	for _, raw := range rows {
		var rec districtRecord
		if err := json.Unmarshal(raw, &rec); err != nil {
			persistErr = multierr.Append(persistErr, fmt.Errorf("directory: decode district row: %w", err))
			continue
		}

		hash, err := HashRow(raw)
		if err != nil {
			persistErr = multierr.Append(persistErr, fmt.Errorf("directory: hash district %s: %w", rec.LEAID, err))
			continue
		}

		rowFIPS := fips
		if rec.FIPS != nil {
			rowFIPS = *rec.FIPS
		}

		row := &models.DistrictCacheRow{
			LEAID:         rec.LEAID,
			LEAName:       rec.LEAName,
			FIPS:          rowFIPS,
			DataOrigin:    s.cfg.DataOrigin,
			Dataset:       s.cfg.Dataset,
			DatasetYear:   s.cfg.DatasetYear,
			SourceRowHash: hash,
			Raw:           datatypes.JSON(raw),
			FetchedAt:     fetchedAt,
		}

		// One failed upsert must not skip the rows after it.
		if err := s.repo.UpsertDistrict(ctx, row); err != nil {
			persistErr = multierr.Append(persistErr, fmt.Errorf("directory: upsert district %s: %w", rec.LEAID, err))
			continue
		}

		metrics.DirectoryRowsUpserted.WithLabelValues("districts").Inc()
		out = append(out, DistrictOption{LEAID: rec.LEAID, LEAName: rec.LEAName})
	}

	if persistErr != nil {
		s.log.Error("district refresh incomplete", zap.Int("fips", fips), zap.Error(persistErr))
		return nil, persistErr
	}

	s.log.Debug("district cache refreshed", zap.Int("fips", fips), zap.Int("rows", len(out)))
	sortDistrictOptions(out)
	return out, nil
}

type schoolRecord struct {
	NCESSCH    string `json:"ncessch"`
	SchoolName string `json:"school_name"`
	LEAID      string `json:"leaid"`
}

func (s *Service) refreshSchools(ctx context.Context, leaid string) ([]SchoolOption, error) {
	pullURL := fmt.Sprintf("%s/schools/%s/directory/%d/?leaid=%s",
		strings.TrimRight(s.cfg.BaseURL, "/"), s.cfg.Dataset, s.cfg.DatasetYear, url.QueryEscape(leaid))

	rows, err := FetchAllPages(ctx, s.client, pullURL)
	if err != nil {
		return nil, err
	}

	if len(rows) == 0 {
		return []SchoolOption{}, nil
	}

	fetchedAt := s.now()
	out := make([]SchoolOption, 0, len(rows))

	var persistErr error
	for _, raw := range rows {
		var rec schoolRecord
		if err := json.Unmarshal(raw, &rec); err != nil {
			persistErr = multierr.Append(persistErr, fmt.Errorf("directory: decode school row: %w", err))
			continue
		}

		hash, err := HashRow(raw)
		if err != nil {
			persistErr = multierr.Append(persistErr, fmt.Errorf("directory: hash school %s: %w", rec.NCESSCH, err))
			continue
		}

		row := &models.SchoolCacheRow{
			NCESSCH:       rec.NCESSCH,
			SchoolName:    rec.SchoolName,
			LEAID:         rec.LEAID,
			DataOrigin:    s.cfg.DataOrigin,
			Dataset:       s.cfg.Dataset,
			DatasetYear:   s.cfg.DatasetYear,
			SourceRowHash: hash,
			Raw:           datatypes.JSON(raw),
			FetchedAt:     fetchedAt,
		}

		if err := s.repo.UpsertSchool(ctx, row); err != nil {
			persistErr = multierr.Append(persistErr, fmt.Errorf("directory: upsert school %s: %w", rec.NCESSCH, err))
			continue
		}

		metrics.DirectoryRowsUpserted.WithLabelValues("schools").Inc()
		out = append(out, SchoolOption{NCESSCH: rec.NCESSCH, SchoolName: rec.SchoolName, LEAID: rec.LEAID})
	}

	if persistErr != nil {
		s.log.Error("school refresh incomplete", zap.String("leaid", leaid), zap.Error(persistErr))
		return nil, persistErr
	}

	s.log.Debug("school cache refreshed", zap.String("leaid", leaid), zap.Int("rows", len(out)))
	sortSchoolOptions(out)
	return out, nil
}

func (s *Service) filter() DatasetFilter {
	return DatasetFilter{
		Origin: s.cfg.DataOrigin,
		Name:   s.cfg.Dataset,
		Year:   s.cfg.DatasetYear,
	}
}

// freshnessCutoff derives the read-time staleness boundary: rows fetched
// strictly after now minus the TTL are fresh.
func (s *Service) freshnessCutoff() time.Time {
	return s.now().AddDate(0, 0, -s.cfg.CacheTTLDays)
}

func sortDistrictOptions(opts []DistrictOption) {
	// Collators carry internal buffers, so build one per sort.
	c := collate.New(language.English)
	sort.SliceStable(opts, func(i, j int) bool {
		return c.CompareString(opts[i].LEAName, opts[j].LEAName) < 0
	})
}

func sortSchoolOptions(opts []SchoolOption) {
	c := collate.New(language.English)
	sort.SliceStable(opts, func(i, j int) bool {
		return c.CompareString(opts[i].SchoolName, opts[j].SchoolName) < 0
	})
}
