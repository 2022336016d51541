package usecase

import (
	"errors"
	"testing"
	"time"

	"github.com/riskibarqy/fixture-ingestion/internal/domain/fixture"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type extractorFunc func(record RawFixtureRecord) (FixtureFields, error)

func (f extractorFunc) ExtractFields(record RawFixtureRecord) (FixtureFields, error) {
	return f(record)
}

func fixedFields(fields FixtureFields) extractorFunc {
	return func(RawFixtureRecord) (FixtureFields, error) { return fields, nil }
}

func TestFixtureNormalizer_BuildsProviderIDAndDefaults(t *testing.T) {
	t.Parallel()

	normalizer := NewFixtureNormalizer(map[string]FieldExtractor{
		"espn": fixedFields(FixtureFields{
			NativeID:      "5551",
			HomeTeam:      "Arsenal",
			Kickoff:       "2024-08-16T19:00Z",
			KickoffLayout: "2006-01-02T15:04Z07:00",
			Status:        "STATUS_SCHEDULED",
		}),
	})

	item, err := normalizer.Normalize("ESPN", RawFixtureRecord{
		Provider:   "espn",
		LeagueHint: "English Premier League",
		Payload:    []byte(`{"id":"5551"}`),
	})
	require.NoError(t, err)

	assert.Equal(t, "espn_5551", item.ProviderID)
	assert.Equal(t, "espn", item.Provider)
	assert.Equal(t, "English Premier League", item.League)
	assert.Equal(t, "Arsenal", item.HomeTeam)
	assert.Equal(t, fixture.UnknownName, item.AwayTeam)
	assert.Equal(t, "STATUS_SCHEDULED", item.Status)
	assert.Equal(t, fixture.StatusScheduled, item.StatusCanonical)
	require.NotNil(t, item.Kickoff)
	assert.True(t, item.Kickoff.Equal(time.Date(2024, 8, 16, 19, 0, 0, 0, time.UTC)))
	assert.JSONEq(t, `{"id":"5551"}`, string(item.RawPayload))
}

func TestFixtureNormalizer_MissingIdentity(t *testing.T) {
	t.Parallel()

	normalizer := NewFixtureNormalizer(map[string]FieldExtractor{
		"thesportsdb": fixedFields(FixtureFields{NativeID: "  ", HomeTeam: "Leeds"}),
	})

	_, err := normalizer.Normalize("thesportsdb", RawFixtureRecord{Provider: "thesportsdb"})
	var normErr *NormalizeError
	require.True(t, errors.As(err, &normErr))
	assert.Equal(t, NormalizeErrorMissingIdentity, normErr.Kind)
	assert.True(t, normErr.Drops())
}

func TestFixtureNormalizer_UnparsableDateKeepsRecord(t *testing.T) {
	t.Parallel()

	normalizer := NewFixtureNormalizer(map[string]FieldExtractor{
		"thesportsdb": fixedFields(FixtureFields{NativeID: "9991", Kickoff: "next saturday", Status: "NS"}),
	})

	item, err := normalizer.Normalize("thesportsdb", RawFixtureRecord{Provider: "thesportsdb"})
	var normErr *NormalizeError
	require.True(t, errors.As(err, &normErr))
	assert.Equal(t, NormalizeErrorUnparsableDate, normErr.Kind)
	assert.False(t, normErr.Drops())
	assert.Equal(t, "thesportsdb_9991", item.ProviderID)
	assert.Nil(t, item.Kickoff)
	assert.Equal(t, fixture.UnknownName, item.League)
}

func TestFixtureNormalizer_ExtractorFailureIsMalformed(t *testing.T) {
	t.Parallel()

	normalizer := NewFixtureNormalizer(map[string]FieldExtractor{
		"apifootball": extractorFunc(func(RawFixtureRecord) (FixtureFields, error) {
			return FixtureFields{}, errors.New("decode fixture: unexpected end of input")
		}),
	})

	_, err := normalizer.Normalize("apifootball", RawFixtureRecord{Provider: "apifootball"})
	var normErr *NormalizeError
	require.True(t, errors.As(err, &normErr))
	assert.Equal(t, NormalizeErrorMalformedRecord, normErr.Kind)

	_, err = normalizer.Normalize("unregistered", RawFixtureRecord{})
	require.True(t, errors.As(err, &normErr))
	assert.Equal(t, NormalizeErrorMalformedRecord, normErr.Kind)
}

func TestParseKickoff(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name   string
		fields FixtureFields
		want   time.Time
		ok     bool
	}{
		{
			name:   "rfc3339 with offset",
			fields: FixtureFields{Kickoff: "2024-08-17T14:00:00+01:00"},
			want:   time.Date(2024, 8, 17, 13, 0, 0, 0, time.UTC),
			ok:     true,
		},
		{
			name:   "espn minute precision",
			fields: FixtureFields{Kickoff: "2024-08-16T19:00Z"},
			want:   time.Date(2024, 8, 16, 19, 0, 0, 0, time.UTC),
			ok:     true,
		},
		{
			name:   "timestamp without zone",
			fields: FixtureFields{Kickoff: "2024-08-17T11:30:00"},
			want:   time.Date(2024, 8, 17, 11, 30, 0, 0, time.UTC),
			ok:     true,
		},
		{
			name:   "separate date and time",
			fields: FixtureFields{Kickoff: "2024-08-17", KickoffTime: "15:00:00"},
			want:   time.Date(2024, 8, 17, 15, 0, 0, 0, time.UTC),
			ok:     true,
		},
		{
			name:   "separate date and time with offset",
			fields: FixtureFields{Kickoff: "2024-08-17", KickoffTime: "15:00:00+00:00"},
			want:   time.Date(2024, 8, 17, 15, 0, 0, 0, time.UTC),
			ok:     true,
		},
		{
			name:   "date only is midnight utc",
			fields: FixtureFields{Kickoff: "2024-08-17"},
			want:   time.Date(2024, 8, 17, 0, 0, 0, 0, time.UTC),
			ok:     true,
		},
		{
			name:   "provider layout wins",
			fields: FixtureFields{Kickoff: "17/08/2024 20:00", KickoffLayout: "02/01/2006 15:04"},
			want:   time.Date(2024, 8, 17, 20, 0, 0, 0, time.UTC),
			ok:     true,
		},
		{
			name:   "primary timestamp wins over date and time",
			fields: FixtureFields{KickoffPrimary: "2024-08-17T19:45:00+00:00", Kickoff: "2024-08-17", KickoffTime: "15:00:00"},
			want:   time.Date(2024, 8, 17, 19, 45, 0, 0, time.UTC),
			ok:     true,
		},
		{
			name:   "bad primary falls through to date and time",
			fields: FixtureFields{KickoffPrimary: "17/08/2024 15:00", Kickoff: "2024-08-17", KickoffTime: "15:00:00"},
			want:   time.Date(2024, 8, 17, 15, 0, 0, 0, time.UTC),
			ok:     true,
		},
		{
			name:   "empty",
			fields: FixtureFields{},
		},
		{
			name:   "garbage",
			fields: FixtureFields{Kickoff: "TBD", KickoffTime: "later"},
		},
	}

	for _, tc := range cases {
		got, ok := parseKickoff(tc.fields)
		if ok != tc.ok {
			t.Fatalf("%s: parse ok=%v want=%v", tc.name, ok, tc.ok)
		}
		if ok && !got.Equal(tc.want) {
			t.Fatalf("%s: got=%s want=%s", tc.name, got, tc.want)
		}
		if ok && got.Location() != time.UTC {
			t.Fatalf("%s: expected UTC location, got %s", tc.name, got.Location())
		}
	}
}
