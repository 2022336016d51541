package fixture

import (
	"strings"
	"time"
)

// UnknownName fills team and league names a provider did not report.
const UnknownName = "Unknown"

// Fixture is one match as reported by a single provider. Two providers
// describing the same match produce two fixtures.
type Fixture struct {
	ID              int64
	ProviderID      string
	Provider        string
	NativeID        string
	League          string
	HomeTeam        string
	AwayTeam        string
	Kickoff         *time.Time
	Status          string
	StatusCanonical Status
	RawPayload      []byte
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// BuildProviderID returns the dedup key "{provider}_{native_id}", or "" when
// either part is blank.
func BuildProviderID(provider, nativeID string) string {
	provider = strings.ToLower(strings.TrimSpace(provider))
	nativeID = strings.TrimSpace(nativeID)
	if provider == "" || nativeID == "" {
		return ""
	}
	return provider + "_" + nativeID
}

// NormalizeProviderID lowercases the provider prefix of a
// "<provider>_<native id>" key and leaves the native id untouched.
func NormalizeProviderID(providerID string) string {
	providerID = strings.TrimSpace(providerID)
	provider, nativeID, ok := strings.Cut(providerID, "_")
	if !ok {
		return providerID
	}
	return strings.ToLower(provider) + "_" + nativeID
}

// ApplyRefresh copies the fields an ingestion may change on a known fixture.
func (f *Fixture) ApplyRefresh(incoming Fixture) {
	f.Status = incoming.Status
	f.StatusCanonical = incoming.StatusCanonical
	f.RawPayload = incoming.RawPayload
}

// ListFilter narrows List. Zero values mean "no filter". League matches
// case-insensitively anywhere in the stored league name.
type ListFilter struct {
	League       string
	Provider     string
	KickoffFrom  *time.Time
	KickoffUntil *time.Time
	Limit        int
}

type Stats struct {
	Total      int            `json:"total"`
	Recent     int            `json:"recent"`
	ByProvider map[string]int `json:"by_provider"`
}
