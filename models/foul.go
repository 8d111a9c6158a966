package models

import (
	"time"
)

// Foul severities and their XP-penalty percentages of the 2500 base.
const (
	FoulSeverityLow    = "low"    // 5%  → 125 XP
	FoulSeverityMedium = "medium" // 15% → 375 XP
	FoulSeverityHigh   = "high"   // 25% → 625 XP
)

// Well-known foul codes referenced by the lifecycle.
const (
	FoulCodeNoSubmission    = "no_submission"     // registers but does not submit
	FoulCodeQuitsBeforeLive = "quits_before_live" // withdraws before the bounty goes live
	FoulCodeAbandonsBounty  = "abandons_active_bounty"
	FoulCodePlagiarism      = "plagiarized_submission"
	FoulCodeConduct         = "inappropriate_conduct"
)

// FoulType: static catalog (seeded at boot)
type FoulType struct {
	ID          string `gorm:"primaryKey;type:uuid" json:"id"`
	Code        string `gorm:"uniqueIndex;not null" json:"code"`
	Name        string `gorm:"not null" json:"name"`
	Description string `json:"description"`
	Severity    string `gorm:"type:varchar(16);not null" json:"severity"`

	// TracksOccurrences: 2nd+ occurrence per (hunter, type) counts a strike.
	TracksOccurrences bool `json:"tracks_occurrences" gorm:"default:false"`

	// ZeroPenalty: no XP deduction regardless of severity.
	ZeroPenalty bool `json:"zero_penalty" gorm:"default:false"`

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
}

// FoulRecord is an immutable audit entry; post-creation mutation is limited
// to the explicit admin/pass flags below.
type FoulRecord struct {
	ID         string  `gorm:"primaryKey;type:uuid" json:"id"`
	HunterID   string  `gorm:"index;not null" json:"hunter_id"`
	FoulTypeID string  `gorm:"index;not null" json:"foul_type_id"`
	FoulCode   string  `gorm:"index;not null" json:"foul_code"` // denormalized for occurrence counting
	BountyID   *string `gorm:"index" json:"bounty_id,omitempty"`

	XPPenalty        int64     `json:"xp_penalty"`
	OccurrenceNumber int       `json:"occurrence_number"` // 1-based per (hunter, foul type)
	IsStrike         bool      `json:"is_strike"`
	AppliedAt        time.Time `json:"applied_at"`

	// Admin / pass actions
	Removed        bool `json:"removed" gorm:"default:false"`
	ReducedPenalty bool `json:"reduced_penalty" gorm:"default:false"`
	IsCleared      bool `json:"is_cleared" gorm:"default:false"` // cleared by a clean-slate pass

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// Predefined foul catalog (seeded if missing)
var DefaultFoulTypes = []FoulType{
	{
		Code:              FoulCodeNoSubmission,
		Name:              "Registers but does not submit",
		Description:       "Joined a bounty roster and never submitted work before the result was posted",
		Severity:          FoulSeverityHigh,
		TracksOccurrences: true,
	},
	{
		Code:              FoulCodeQuitsBeforeLive,
		Name:              "Quits before live",
		Description:       "Withdrew from a bounty before it went live",
		Severity:          FoulSeverityLow,
		TracksOccurrences: true,
		ZeroPenalty:       true,
	},
	{
		Code:              FoulCodeAbandonsBounty,
		Name:              "Abandons active bounty",
		Description:       "Withdrew from a bounty while it was live",
		Severity:          FoulSeverityMedium,
		TracksOccurrences: true,
	},
	{
		Code:              FoulCodePlagiarism,
		Name:              "Plagiarized submission",
		Description:       "Submitted work that was not their own",
		Severity:          FoulSeverityHigh,
		TracksOccurrences: true,
	},
	{
		Code:     FoulCodeConduct,
		Name:     "Inappropriate conduct",
		Severity: FoulSeverityLow,
	},
}
