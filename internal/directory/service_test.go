package directory

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/chalkboardhq/chalkboard/internal/models"
)

type fakeRepo struct {
	districts []models.DistrictCacheRow
	schools   []models.SchoolCacheRow

	districtUpserts []models.DistrictCacheRow
	schoolUpserts   []models.SchoolCacheRow

	failUpsertLEAID string
}

func (f *fakeRepo) FreshDistricts(_ context.Context, fips int, filter DatasetFilter, cutoff time.Time) ([]models.DistrictCacheRow, error) {
	var out []models.DistrictCacheRow
	for _, row := range f.districts {
		if row.FIPS != fips || row.DataOrigin != filter.Origin || row.Dataset != filter.Name || row.DatasetYear != filter.Year {
			continue
		}
		if !row.FetchedAt.After(cutoff) {
			continue
		}
		out = append(out, row)
	}
	return out, nil
}

func (f *fakeRepo) UpsertDistrict(_ context.Context, row *models.DistrictCacheRow) error {
	f.districtUpserts = append(f.districtUpserts, *row)
	if f.failUpsertLEAID != "" && row.LEAID == f.failUpsertLEAID {
		return errors.New("disk full")
	}
	return nil
}

func (f *fakeRepo) FreshSchools(_ context.Context, leaid string, filter DatasetFilter, cutoff time.Time) ([]models.SchoolCacheRow, error) {
	var out []models.SchoolCacheRow
	for _, row := range f.schools {
		if row.LEAID != leaid || row.DataOrigin != filter.Origin || row.Dataset != filter.Name || row.DatasetYear != filter.Year {
			continue
		}
		if !row.FetchedAt.After(cutoff) {
			continue
		}
		out = append(out, row)
	}
	return out, nil
}

func (f *fakeRepo) UpsertSchool(_ context.Context, row *models.SchoolCacheRow) error {
	f.schoolUpserts = append(f.schoolUpserts, *row)
	return nil
}

// stubDoer serves canned JSON bodies keyed by exact request URL.
type stubDoer struct {
	bodies   map[string]string
	requests []string
}

func (d *stubDoer) Do(req *http.Request) (*http.Response, error) {
	url := req.URL.String()
	d.requests = append(d.requests, url)

	body, ok := d.bodies[url]
	if !ok {
		return &http.Response{
			StatusCode: http.StatusNotFound,
			Body:       io.NopCloser(strings.NewReader("not found")),
		}, nil
	}

	return &http.Response{
		StatusCode: http.StatusOK,
		Body:       io.NopCloser(strings.NewReader(body)),
	}, nil
}

func testConfig() Config {
	return Config{
		BaseURL:      "https://educationdata.example.org/api/v1",
		Dataset:      "ccd",
		DataOrigin:   "urban_educationdata_ccd_api",
		DatasetYear:  2023,
		CacheTTLDays: 30,
	}
}

func TestConfigValidate(t *testing.T) {
	require.NoError(t, testConfig().Validate())

	bad := testConfig()
	bad.CacheTTLDays = 0
	require.Error(t, bad.Validate())

	bad = testConfig()
	bad.BaseURL = " "
	require.Error(t, bad.Validate())

	bad = testConfig()
	bad.DatasetYear = 0
	require.Error(t, bad.Validate())
}

func TestDistrictsCacheHitAvoidsNetwork(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	repo := &fakeRepo{districts: []models.DistrictCacheRow{
		{LEAID: "0800020", LEAName: "Beta", FIPS: 8, DataOrigin: "urban_educationdata_ccd_api", Dataset: "ccd", DatasetYear: 2023, FetchedAt: now.AddDate(0, 0, -1)},
		{LEAID: "0800010", LEAName: "Alpha", FIPS: 8, DataOrigin: "urban_educationdata_ccd_api", Dataset: "ccd", DatasetYear: 2023, FetchedAt: now.AddDate(0, 0, -1)},
	}}
	doer := &stubDoer{}

	svc, err := NewService(testConfig(), repo, WithHTTPClient(doer), WithNow(func() time.Time { return now }))
	require.NoError(t, err)

	got, err := svc.DistrictsByFIPS(context.Background(), 8)
	require.NoError(t, err)
	require.Equal(t, []DistrictOption{
		{LEAID: "0800010", LEAName: "Alpha"},
		{LEAID: "0800020", LEAName: "Beta"},
	}, got)

	require.Empty(t, doer.requests, "cache hit must not reach upstream")
	require.Empty(t, repo.districtUpserts)
}

func TestDistrictsCacheMissPullsAndPersists(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	cfg := testConfig()

	firstPage := cfg.BaseURL + "/school-districts/ccd/directory/2023/?fips=8"
	secondPage := cfg.BaseURL + "/school-districts/ccd/directory/2023/?fips=8&page=2"

	repo := &fakeRepo{}
	doer := &stubDoer{bodies: map[string]string{
		firstPage:  fmt.Sprintf(`{"results":[{"leaid":"0800020","lea_name":"Beta","fips":8}],"next":%q}`, secondPage),
		secondPage: `{"results":[{"leaid":"0800010","lea_name":"Alpha","fips":8}],"next":null}`,
	}}

	svc, err := NewService(cfg, repo, WithHTTPClient(doer), WithNow(func() time.Time { return now }))
	require.NoError(t, err)

	got, err := svc.DistrictsByFIPS(context.Background(), 8)
	require.NoError(t, err)
	require.Equal(t, []DistrictOption{
		{LEAID: "0800010", LEAName: "Alpha"},
		{LEAID: "0800020", LEAName: "Beta"},
	}, got, "returned set is name-sorted regardless of persist order")

	require.Len(t, doer.requests, 2)
	require.Len(t, repo.districtUpserts, 2)

	persisted := repo.districtUpserts[0]
	require.Equal(t, "0800020", persisted.LEAID)
	require.Equal(t, 8, persisted.FIPS)
	require.Equal(t, "ccd", persisted.Dataset)
	require.Equal(t, 2023, persisted.DatasetYear)
	require.Equal(t, now, persisted.FetchedAt)
	require.NotEmpty(t, persisted.SourceRowHash)
	require.JSONEq(t, `{"leaid":"0800020","lea_name":"Beta","fips":8}`, string(persisted.Raw))
}

func TestDistrictsStaleRowsForceRefetch(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	cfg := testConfig()

	repo := &fakeRepo{districts: []models.DistrictCacheRow{
		// One day past the 30-day TTL: treated exactly like a missing row.
		{LEAID: "0800010", LEAName: "Alpha", FIPS: 8, DataOrigin: cfg.DataOrigin, Dataset: cfg.Dataset, DatasetYear: cfg.DatasetYear, FetchedAt: now.AddDate(0, 0, -31)},
	}}
	doer := &stubDoer{bodies: map[string]string{
		cfg.BaseURL + "/school-districts/ccd/directory/2023/?fips=8": `{"results":[{"leaid":"0800010","lea_name":"Alpha Renamed","fips":8}],"next":null}`,
	}}

	svc, err := NewService(cfg, repo, WithHTTPClient(doer), WithNow(func() time.Time { return now }))
	require.NoError(t, err)

	got, err := svc.DistrictsByFIPS(context.Background(), 8)
	require.NoError(t, err)
	require.Equal(t, []DistrictOption{{LEAID: "0800010", LEAName: "Alpha Renamed"}}, got)
	require.Len(t, doer.requests, 1)
	require.Len(t, repo.districtUpserts, 1)
}

func TestDistrictsDatasetChangeInvalidatesCache(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	cfg := testConfig()
	cfg.DatasetYear = 2024

	repo := &fakeRepo{districts: []models.DistrictCacheRow{
		{LEAID: "0800010", LEAName: "Alpha", FIPS: 8, DataOrigin: cfg.DataOrigin, Dataset: cfg.Dataset, DatasetYear: 2023, FetchedAt: now.AddDate(0, 0, -1)},
	}}
	doer := &stubDoer{bodies: map[string]string{
		cfg.BaseURL + "/school-districts/ccd/directory/2024/?fips=8": `{"results":[],"next":null}`,
	}}

	svc, err := NewService(cfg, repo, WithHTTPClient(doer), WithNow(func() time.Time { return now }))
	require.NoError(t, err)

	got, err := svc.DistrictsByFIPS(context.Background(), 8)
	require.NoError(t, err)
	require.Empty(t, got, "rows from another dataset year never satisfy the read")
	require.Len(t, doer.requests, 1)
}

func TestDistrictsEmptyUpstreamIsNotAnError(t *testing.T) {
	cfg := testConfig()
	repo := &fakeRepo{}
	doer := &stubDoer{bodies: map[string]string{
		cfg.BaseURL + "/school-districts/ccd/directory/2023/?fips=56": `{"results":[],"next":null}`,
	}}

	svc, err := NewService(cfg, repo, WithHTTPClient(doer))
	require.NoError(t, err)

	got, err := svc.DistrictsByFIPS(context.Background(), 56)
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Empty(t, got)
	require.Empty(t, repo.districtUpserts, "empty result is not cached")

	// The empty result is re-pulled on every call until rows exist.
	_, err = svc.DistrictsByFIPS(context.Background(), 56)
	require.NoError(t, err)
	require.Len(t, doer.requests, 2)
}

func TestDistrictsUpstreamFailurePropagates(t *testing.T) {
	cfg := testConfig()
	repo := &fakeRepo{}
	doer := &stubDoer{} // every URL answers 404

	svc, err := NewService(cfg, repo, WithHTTPClient(doer))
	require.NoError(t, err)

	got, err := svc.DistrictsByFIPS(context.Background(), 8)
	require.Error(t, err)
	require.Nil(t, got)
	require.Contains(t, err.Error(), "404")
	require.Empty(t, repo.districtUpserts)
}

func TestDistrictsUpsertFailureSurfacesWithoutSkippingRows(t *testing.T) {
	cfg := testConfig()
	repo := &fakeRepo{failUpsertLEAID: "0800010"}
	doer := &stubDoer{bodies: map[string]string{
		cfg.BaseURL + "/school-districts/ccd/directory/2023/?fips=8": `{"results":[{"leaid":"0800010","lea_name":"Alpha","fips":8},{"leaid":"0800020","lea_name":"Beta","fips":8}],"next":null}`,
	}}

	svc, err := NewService(cfg, repo, WithHTTPClient(doer))
	require.NoError(t, err)

	_, err = svc.DistrictsByFIPS(context.Background(), 8)
	require.Error(t, err)
	require.Contains(t, err.Error(), "0800010")
	require.Len(t, repo.districtUpserts, 2, "the failing row must not stop later rows from being recorded")
}

func TestSchoolsCacheMissPullsAndPersists(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	cfg := testConfig()

	repo := &fakeRepo{}
	doer := &stubDoer{bodies: map[string]string{
		cfg.BaseURL + "/schools/ccd/directory/2023/?leaid=0800010": `{"results":[{"ncessch":"080001000002","school_name":"Zinnia Elementary","leaid":"0800010"},{"ncessch":"080001000001","school_name":"Aspen Middle","leaid":"0800010"}],"next":null}`,
	}}

	svc, err := NewService(cfg, repo, WithHTTPClient(doer), WithNow(func() time.Time { return now }))
	require.NoError(t, err)

	got, err := svc.SchoolsByLEAID(context.Background(), "0800010")
	require.NoError(t, err)
	require.Equal(t, []SchoolOption{
		{NCESSCH: "080001000001", SchoolName: "Aspen Middle", LEAID: "0800010"},
		{NCESSCH: "080001000002", SchoolName: "Zinnia Elementary", LEAID: "0800010"},
	}, got)
	require.Len(t, repo.schoolUpserts, 2)
	require.Equal(t, now, repo.schoolUpserts[0].FetchedAt)
}

func TestSchoolsCacheHitAvoidsNetwork(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	cfg := testConfig()

	repo := &fakeRepo{schools: []models.SchoolCacheRow{
		{NCESSCH: "080001000001", SchoolName: "Aspen Middle", LEAID: "0800010", DataOrigin: cfg.DataOrigin, Dataset: cfg.Dataset, DatasetYear: cfg.DatasetYear, FetchedAt: now.AddDate(0, 0, -2)},
	}}
	doer := &stubDoer{}

	svc, err := NewService(cfg, repo, WithHTTPClient(doer), WithNow(func() time.Time { return now }))
	require.NoError(t, err)

	got, err := svc.SchoolsByLEAID(context.Background(), "0800010")
	require.NoError(t, err)
	require.Equal(t, []SchoolOption{{NCESSCH: "080001000001", SchoolName: "Aspen Middle", LEAID: "0800010"}}, got)
	require.Empty(t, doer.requests)
}

func TestSchoolsLookupKeyIsQueryEscaped(t *testing.T) {
	cfg := testConfig()
	repo := &fakeRepo{}
	doer := &stubDoer{bodies: map[string]string{
		cfg.BaseURL + "/schools/ccd/directory/2023/?leaid=08+10": `{"results":[],"next":null}`,
	}}

	svc, err := NewService(cfg, repo, WithHTTPClient(doer))
	require.NoError(t, err)

	_, err = svc.SchoolsByLEAID(context.Background(), "08 10")
	require.NoError(t, err)
	require.Len(t, doer.requests, 1)
}
