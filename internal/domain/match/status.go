package match

import (
	"strings"
	"time"
)

// Status is the canonical match lifecycle state, independent of the raw
// vocabulary used by the upstream feed.
type Status string

const (
	StatusScheduled Status = "SCHEDULED"
	StatusLive      Status = "LIVE"
	StatusPaused    Status = "PAUSED"
	StatusFinished  Status = "FINISHED"
	StatusPostponed Status = "POSTPONED"
	StatusSuspended Status = "SUSPENDED"
	StatusCancelled Status = "CANCELLED"
	StatusAwarded   Status = "AWARDED"
	StatusNoPlay    Status = "NO_PLAY"
)

// Feeds occasionally freeze in a live-like state. Elapsed-time ceilings force
// such matches to FINISHED: hardCeiling unconditionally, softCeiling once a
// score is known, pausedCeiling for feeds stuck at halftime.
const (
	hardFinishCeiling   = 240 * time.Minute
	softFinishCeiling   = 180 * time.Minute
	pausedFinishCeiling = 155 * time.Minute
)

// Resolution is the normalized view of a raw feed status combined with
// locally observed time and score data.
type Resolution struct {
	Canonical  Status
	IsLive     bool
	IsFinished bool
	IsBettable bool
}

// Resolve normalizes a raw feed status against kickoff time, the current
// time and the optionally known score. It is pure and total: identical
// inputs always produce identical output, and no input panics.
//
// The betting lock on the write path and the client display both go through
// this function so they cannot disagree on whether a bet is still open.
func Resolve(rawStatus string, kickoffAt, now time.Time, homeScore, awayScore *int) Resolution {
	raw := strings.ToUpper(strings.TrimSpace(rawStatus))
	hasScore := homeScore != nil && awayScore != nil
	elapsed := now.Sub(kickoffAt)
	kickedOff := !now.Before(kickoffAt)

	canonical := resolveCanonical(raw, hasScore, elapsed, kickedOff)

	return Resolution{
		Canonical:  canonical,
		IsLive:     canonical == StatusLive || canonical == StatusPaused,
		IsFinished: canonical == StatusFinished,
		IsBettable: !kickedOff && !isTerminal(canonical),
	}
}

func resolveCanonical(raw string, hasScore bool, elapsed time.Duration, kickedOff bool) Status {
	// Administrative decisions from the feed always win; a stale clock or a
	// leftover score must not turn a postponed match into a finished one.
	if terminal, ok := terminalStatus(raw); ok {
		return terminal
	}

	// A known result implies completion even when the feed has not flipped
	// its status field yet, unless the feed still claims pre-kickoff.
	if hasScore && kickedOff && !isPreKickoff(raw) {
		return StatusFinished
	}
	if elapsed >= hardFinishCeiling {
		return StatusFinished
	}
	if elapsed >= softFinishCeiling && hasScore {
		return StatusFinished
	}

	switch {
	case isPreKickoff(raw):
		if !kickedOff {
			return StatusScheduled
		}
		// The feed says not started but kickoff already passed.
		return StatusLive
	case isLiveFamily(raw):
		return StatusLive
	case raw == "PAUSED" || raw == "HT":
		if elapsed >= pausedFinishCeiling {
			return StatusFinished
		}
		return StatusPaused
	case isFinishedFamily(raw):
		return StatusFinished
	default:
		// Unrecognized code: fall back to score presence, then time.
		if hasScore && kickedOff {
			return StatusFinished
		}
		if !kickedOff {
			return StatusScheduled
		}
		return StatusLive
	}
}

func terminalStatus(raw string) (Status, bool) {
	switch raw {
	case "CANCELLED", "CANCELED":
		return StatusCancelled, true
	case "POSTPONED":
		return StatusPostponed, true
	case "SUSPENDED":
		return StatusSuspended, true
	case "AWARDED":
		return StatusAwarded, true
	case "NO_PLAY":
		return StatusNoPlay, true
	default:
		return "", false
	}
}

func isTerminal(status Status) bool {
	switch status {
	case StatusCancelled, StatusPostponed, StatusSuspended, StatusAwarded, StatusNoPlay:
		return true
	default:
		return false
	}
}

func isPreKickoff(raw string) bool {
	switch raw {
	case "", "SCHEDULED", "TIMED":
		return true
	default:
		return false
	}
}

func isLiveFamily(raw string) bool {
	switch raw {
	case "LIVE", "IN_PLAY", "1H", "2H", "ET", "PEN_SHOOTOUT":
		return true
	default:
		return false
	}
}

func isFinishedFamily(raw string) bool {
	switch raw {
	case "FINISHED", "FT", "AET", "PEN", "FULL_TIME":
		return true
	default:
		return false
	}
}
