package fixture

import "strings"

type Status string

const (
	StatusScheduled Status = "SCHEDULED"
	StatusLive      Status = "LIVE"
	StatusFinished  Status = "FINISHED"
	StatusPostponed Status = "POSTPONED"
	StatusCancelled Status = "CANCELLED"
	StatusUnknown   Status = "UNKNOWN"
)

// statusByProvider maps each provider's raw vocabulary (upper-cased) to
// the canonical status. Providers share many codes, so "" holds the
// generic fallback table consulted after the provider's own.
var statusByProvider = map[string]map[string]Status{
	"espn": {
		"STATUS_SCHEDULED":   StatusScheduled,
		"STATUS_IN_PROGRESS": StatusLive,
		"STATUS_FIRST_HALF":  StatusLive,
		"STATUS_SECOND_HALF": StatusLive,
		"STATUS_HALFTIME":    StatusLive,
		"STATUS_END_PERIOD":  StatusLive,
		"STATUS_OVERTIME":    StatusLive,
		"STATUS_SHOOTOUT":    StatusLive,
		"STATUS_FULL_TIME":   StatusFinished,
		"STATUS_FINAL":       StatusFinished,
		"STATUS_FINAL_AET":   StatusFinished,
		"STATUS_FINAL_PEN":   StatusFinished,
		"STATUS_POSTPONED":   StatusPostponed,
		"STATUS_DELAYED":     StatusPostponed,
		"STATUS_CANCELED":    StatusCancelled,
		"STATUS_ABANDONED":   StatusCancelled,
		"STATUS_FORFEIT":     StatusCancelled,
	},
	"thesportsdb": {
		"NOT STARTED":    StatusScheduled,
		"MATCH FINISHED": StatusFinished,
		"AFTER PEN.":     StatusFinished,
		"AFTER EXTRA":    StatusFinished,
		"FIRST HALF":     StatusLive,
		"SECOND HALF":    StatusLive,
		"HALFTIME":       StatusLive,
	},
	"apifootball": {
		"TBD":  StatusScheduled,
		"BT":   StatusLive,
		"P":    StatusLive,
		"SUSP": StatusPostponed,
		"INT":  StatusPostponed,
		"ABD":  StatusCancelled,
		"AWD":  StatusFinished,
		"WO":   StatusFinished,
	},
	"footballdata": {
		"TIMED":     StatusScheduled,
		"IN_PLAY":   StatusLive,
		"PAUSED":    StatusLive,
		"SUSPENDED": StatusPostponed,
		"AWARDED":   StatusFinished,
	},
	"sportmonks": {
		"INPLAY_1ST_HALF":  StatusLive,
		"INPLAY_2ND_HALF":  StatusLive,
		"INPLAY_ET":        StatusLive,
		"INPLAY_PENALTIES": StatusLive,
		"BREAK":            StatusLive,
		"EXTRA_TIME_BREAK": StatusLive,
		"PEN_BREAK":        StatusLive,
		"FT_PEN":           StatusFinished,
		"AWARDED":          StatusFinished,
		"WO":               StatusFinished,
		"TBA":              StatusScheduled,
		"DELAYED":          StatusPostponed,
		"SUSPENDED":        StatusPostponed,
		"INTERRUPTED":      StatusPostponed,
		"AWAITING_UPDATES": StatusUnknown,
		"DELETED":          StatusCancelled,
	},
	"": {
		"SCHEDULED": StatusScheduled,
		"NS":        StatusScheduled,
		"LIVE":      StatusLive,
		"1H":        StatusLive,
		"HT":        StatusLive,
		"2H":        StatusLive,
		"ET":        StatusLive,
		"FT":        StatusFinished,
		"AET":       StatusFinished,
		"PEN":       StatusFinished,
		"FINISHED":  StatusFinished,
		"PST":       StatusPostponed,
		"POSTPONED": StatusPostponed,
		"CANC":      StatusCancelled,
		"CANCELED":  StatusCancelled,
		"CANCELLED": StatusCancelled,
		"ABANDONED": StatusCancelled,
	},
}

// CanonicalStatus maps a provider's raw status text to the canonical enum.
// Unrecognized text yields StatusUnknown; blank text means not started yet.
func CanonicalStatus(provider, raw string) Status {
	key := strings.ToUpper(strings.TrimSpace(raw))
	if key == "" {
		return StatusScheduled
	}
	if table, ok := statusByProvider[strings.ToLower(strings.TrimSpace(provider))]; ok {
		if status, ok := table[key]; ok {
			return status
		}
	}
	if status, ok := statusByProvider[""][key]; ok {
		return status
	}
	return StatusUnknown
}

func (s Status) IsLive() bool {
	return s == StatusLive
}

func (s Status) IsFinished() bool {
	return s == StatusFinished
}

func (s Status) IsCancelledLike() bool {
	return s == StatusCancelled || s == StatusPostponed
}
