package usecase

import (
	"fmt"
	"strings"
	"time"

	"github.com/riskibarqy/fixture-ingestion/internal/domain/fixture"
)

var kickoffLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04Z07:00",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
}

const dateOnlyLayout = "2006-01-02"

// FixtureNormalizer turns provider records into fixtures using the
// extractor registered for each provider.
type FixtureNormalizer struct {
	extractors map[string]FieldExtractor
}

func NewFixtureNormalizer(extractors map[string]FieldExtractor) *FixtureNormalizer {
	registered := make(map[string]FieldExtractor, len(extractors))
	for name, extractor := range extractors {
		registered[normalizeProviderName(name)] = extractor
	}
	return &FixtureNormalizer{extractors: registered}
}

// Normalize returns a *NormalizeError alongside a usable fixture when only
// the kickoff could not be parsed; other NormalizeError kinds drop the record.
func (n *FixtureNormalizer) Normalize(providerName string, raw RawFixtureRecord) (fixture.Fixture, error) {
	name := normalizeProviderName(providerName)
	extractor, ok := n.extractors[name]
	if !ok {
		return fixture.Fixture{}, &NormalizeError{
			Provider: name,
			Kind:     NormalizeErrorMalformedRecord,
			Err:      fmt.Errorf("no extractor registered for provider %q", name),
		}
	}

	fields, err := extractor.ExtractFields(raw)
	if err != nil {
		return fixture.Fixture{}, &NormalizeError{Provider: name, Kind: NormalizeErrorMalformedRecord, Err: err}
	}

	nativeID := strings.TrimSpace(fields.NativeID)
	providerID := fixture.BuildProviderID(name, nativeID)
	if providerID == "" {
		return fixture.Fixture{}, &NormalizeError{Provider: name, Kind: NormalizeErrorMissingIdentity}
	}

	item := fixture.Fixture{
		ProviderID:      providerID,
		Provider:        name,
		NativeID:        nativeID,
		League:          firstNonBlank(fields.League, raw.LeagueHint, fixture.UnknownName),
		HomeTeam:        firstNonBlank(fields.HomeTeam, fixture.UnknownName),
		AwayTeam:        firstNonBlank(fields.AwayTeam, fixture.UnknownName),
		Status:          strings.TrimSpace(fields.Status),
		StatusCanonical: fixture.CanonicalStatus(name, fields.Status),
		RawPayload:      raw.Payload,
	}

	kickoff, ok := parseKickoff(fields)
	if !ok {
		return item, &NormalizeError{
			Provider:   name,
			ProviderID: providerID,
			Kind:       NormalizeErrorUnparsableDate,
			Err:        fmt.Errorf("timestamp %q kickoff %q time %q", fields.KickoffPrimary, fields.Kickoff, fields.KickoffTime),
		}
	}
	item.Kickoff = &kickoff
	return item, nil
}

func parseKickoff(fields FixtureFields) (time.Time, bool) {
	value := strings.TrimSpace(fields.Kickoff)
	clock := strings.TrimSpace(fields.KickoffTime)
	layout := strings.TrimSpace(fields.KickoffLayout)

	if parsed, ok := parseTimestamp(layout, strings.TrimSpace(fields.KickoffPrimary)); ok {
		return parsed, true
	}
	if parsed, ok := parseTimestamp(layout, value); ok {
		return parsed, true
	}
	if clock != "" && value != "" {
		if parsed, ok := parseWithLayouts(value + " " + clock); ok {
			return parsed, true
		}
	}
	if value != "" {
		if parsed, err := time.Parse(dateOnlyLayout, value); err == nil {
			return parsed.UTC(), true
		}
	}
	return time.Time{}, false
}

func parseTimestamp(layout, value string) (time.Time, bool) {
	if layout != "" && value != "" {
		if parsed, err := time.Parse(layout, value); err == nil {
			return parsed.UTC(), true
		}
	}
	return parseWithLayouts(value)
}

func parseWithLayouts(value string) (time.Time, bool) {
	if value == "" {
		return time.Time{}, false
	}
	for _, layout := range kickoffLayouts {
		if parsed, err := time.Parse(layout, value); err == nil {
			return parsed.UTC(), true
		}
	}
	return time.Time{}, false
}

func normalizeProviderName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

func firstNonBlank(values ...string) string {
	for _, value := range values {
		if trimmed := strings.TrimSpace(value); trimmed != "" {
			return trimmed
		}
	}
	return ""
}
