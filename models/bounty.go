package models

import (
	"time"
)

// Bounty statuses — part of the wire contract, do not rename.
const (
	BountyStatusDraft     = "draft"
	BountyStatusYTS       = "yts" // yet to start: published, awaiting startTime
	BountyStatusActive    = "active"
	BountyStatusClosed    = "closed"
	BountyStatusCompleted = "completed" // result posted
	BountyStatusCancelled = "cancelled"
)

// Participation statuses
const (
	ParticipationActive    = "active"
	ParticipationCompleted = "completed"
	ParticipationWithdrawn = "withdrawn"
)

// Review statuses
const (
	ReviewStatusDraft     = "draft"
	ReviewStatusPublished = "published"
)

// Bounty is a time-boxed task posted by a lord. RewardPrize of 0 means a
// non-profit (voluntary) bounty.
type Bounty struct {
	ID           string  `gorm:"primaryKey;type:uuid" json:"id"`
	LordID       string  `gorm:"index;not null" json:"lord_id"` // ExternalUserID of the creator
	Title        string  `gorm:"not null" json:"title"`
	Slug         string  `gorm:"index" json:"slug"`
	Description  string  `gorm:"type:text" json:"description"`
	Requirements string  `gorm:"type:text" json:"requirements"`
	Category     string  `json:"category"`
	MainPhotoURL string  `json:"main_photo_url"`
	RewardPrize  float64 `json:"reward_prize" gorm:"default:0"`
	MaxHunters   int     `json:"max_hunters" gorm:"default:0"`

	Status     string    `gorm:"type:varchar(16);default:'draft';index" json:"status"`
	StartTime  time.Time `json:"start_time"`
	EndTime    time.Time `json:"end_time"`
	ResultTime time.Time `json:"result_time"`

	// Set exactly once when the result is posted; never cleared.
	ResultID *string `gorm:"index" json:"result_id,omitempty"`

	Participations []BountyParticipation `json:"participations,omitempty" gorm:"foreignKey:BountyID"`

	// Calculated fields (not stored in DB)
	ParticipantsCount int64 `json:"participants_count,omitempty" gorm:"-"`
	AvailableSlots    int64 `json:"available_slots,omitempty" gorm:"-"`

	Timestamps
}

// IsNonProfit reports whether the bounty pays no cash prize.
func (b *Bounty) IsNonProfit() bool { return b.RewardPrize <= 0 }

// BountyParticipation is one hunter's membership on a bounty roster.
// Normalized out of the bounty (one row per hunter per bounty).
type BountyParticipation struct {
	ID       string `gorm:"primaryKey;type:uuid" json:"id"`
	BountyID string `gorm:"index:idx_bounty_hunter,unique;not null" json:"bounty_id"`
	HunterID string `gorm:"index:idx_bounty_hunter,unique;not null" json:"hunter_id"`

	JoinedAt time.Time `json:"joined_at"`
	Status   string    `gorm:"type:varchar(16);default:'active'" json:"status"`

	// Personal deadline override from a time-extension pass. The bounty's
	// shared EndTime is never mutated by a pass.
	ExtendedEndTime *time.Time `json:"extended_end_time,omitempty"`

	// Flag from a booster pass, set before submission.
	BoosterActive bool `json:"booster_active" gorm:"default:false"`

	Submission *Submission `json:"submission,omitempty" gorm:"foreignKey:ParticipationID"`

	Timestamps
}

// EffectiveDeadline returns the hunter's personal deadline for a bounty.
func (p *BountyParticipation) EffectiveDeadline(bountyEnd time.Time) time.Time {
	if p.ExtendedEndTime != nil && p.ExtendedEndTime.After(bountyEnd) {
		return *p.ExtendedEndTime
	}
	return bountyEnd
}

// Submission is immutable once created, except for its nested review.
type Submission struct {
	ID              string    `gorm:"primaryKey;type:uuid" json:"id"`
	ParticipationID string    `gorm:"uniqueIndex;not null" json:"participation_id"`
	Description     string    `gorm:"type:text" json:"description"`
	SubmittedAt     time.Time `json:"submitted_at"`

	Files  []SubmissionFile `json:"files,omitempty" gorm:"foreignKey:SubmissionID"`
	Review *Review          `json:"review,omitempty" gorm:"foreignKey:SubmissionID"`

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
}

type SubmissionFile struct {
	ID           string `gorm:"primaryKey;type:uuid" json:"id"`
	SubmissionID string `gorm:"index;not null" json:"submission_id"`
	URL          string `gorm:"type:text" json:"url"`
	FileName     string `json:"file_name"`
	SortOrder    int    `json:"sort_order" gorm:"column:sort_order;default:0"`
}

// Review criterion bounds — wire contract.
const (
	ReviewScoreMin = 0
	ReviewScoreMax = 5
)

// Review is a lord's scoring of one submission across five criteria,
// each in [0,5]. TotalScore is the arithmetic sum.
type Review struct {
	ID           string `gorm:"primaryKey;type:uuid" json:"id"`
	SubmissionID string `gorm:"uniqueIndex;not null" json:"submission_id"`

	AdherenceToBrief      int `json:"adherence_to_brief"`
	ConceptualThinking    int `json:"conceptual_thinking"`
	TechnicalExecution    int `json:"technical_execution"`
	OriginalityCreativity int `json:"originality_creativity"`
	Documentation         int `json:"documentation"`
	TotalScore            int `json:"total_score"`

	ReviewStatus string    `gorm:"type:varchar(16);default:'draft'" json:"review_status"`
	ReviewedBy   string    `gorm:"not null" json:"reviewed_by"`
	ReviewedAt   time.Time `json:"reviewed_at"`

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// CriterionScores returns the five scores in canonical order.
func (r *Review) CriterionScores() [5]int {
	return [5]int{
		r.AdherenceToBrief,
		r.ConceptualThinking,
		r.TechnicalExecution,
		r.OriginalityCreativity,
		r.Documentation,
	}
}

// MiniBounty is a brief summary of a bounty for listing
type MiniBounty struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Slug         string    `json:"slug"`
	Status       string    `json:"status"`
	Category     string    `json:"category,omitempty"`
	RewardPrize  float64   `json:"reward_prize"`
	MaxHunters   int       `json:"max_hunters"`
	MainPhotoURL string    `json:"main_photo_url"`
	StartTime    time.Time `json:"start_time"`
	EndTime      time.Time `json:"end_time"`
	ResultTime   time.Time `json:"result_time"`
	CreatedAt    time.Time `json:"created_at"`
}
