package models

import "time"

// Tipe target challenge
const (
	TargetSalesCount   = "SALES_COUNT"
	TargetRevenue      = "REVENUE"
	TargetConversions  = "CONVERSIONS"
	TargetNewCustomers = "NEW_CUSTOMERS"
	TargetClicks       = "CLICKS"
)

// Tipe reward challenge
const (
	RewardBonusCommission = "BONUS_COMMISSION" // Naikin rate komisi affiliate (persen poin)
	RewardTierUpgrade     = "TIER_UPGRADE"     // Naikin tier affiliate
	RewardCashBonus       = "CASH_BONUS"       // Kredit tunai ke wallet
)

// Status progress challenge. Urutannya kaku:
// ENROLLED -> ACCRUING -> TARGET_MET -> REWARD_CLAIMED
const (
	ProgressEnrolled      = "ENROLLED"
	ProgressAccruing      = "ACCRUING"
	ProgressTargetMet     = "TARGET_MET"
	ProgressRewardClaimed = "REWARD_CLAIMED"
)

// Challenge definisi tantangan berhadiah untuk affiliate dalam rentang waktu tertentu.
// Setelah ada yang enroll dan mulai akrual, isi challenge dianggap beku,
// admin cuma boleh nonaktifin atau perpanjang tanggal.
type Challenge struct {
	ID          uint64 `gorm:"primaryKey" json:"id"`
	Name        string `gorm:"size:150;not null" json:"name"`
	Description string `gorm:"type:text" json:"description"`

	TargetType  string `gorm:"size:20;not null" json:"target_type"`
	TargetValue int64  `gorm:"not null" json:"target_value"`
	RewardType  string `gorm:"size:20;not null" json:"reward_type"`
	RewardValue int64  `gorm:"not null" json:"reward_value"`

	// Scope opsional ke satu produk/membership. NULL = berlaku semua produk.
	ProductID *uint64 `gorm:"index" json:"product_id,omitempty"`

	StartDate time.Time `gorm:"not null" json:"start_date"`
	EndDate   time.Time `gorm:"not null" json:"end_date"`
	IsActive  bool      `gorm:"default:true" json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ChallengeProgress progress satu affiliate di satu challenge.
// Index gabungan unik menjamin satu affiliate cuma punya satu baris per challenge,
// dan CompletedAt yang cuma boleh terisi sekali jadi kunci reward exactly-once.
type ChallengeProgress struct {
	ID           uint64     `gorm:"primaryKey" json:"id"`
	ChallengeID  uint64     `gorm:"not null;uniqueIndex:idx_progress_unique" json:"challenge_id"`
	AffiliateID  uint64     `gorm:"not null;uniqueIndex:idx_progress_unique;index" json:"affiliate_id"`
	Status       string     `gorm:"size:20;default:ENROLLED" json:"status"`
	CurrentValue int64      `gorm:"default:0" json:"current_value"`
	EnrolledAt   time.Time  `json:"enrolled_at"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`
	RewardClaimed bool      `gorm:"default:false" json:"reward_claimed"`
	UpdatedAt    time.Time  `json:"updated_at"`

	Challenge Challenge `gorm:"foreignKey:ChallengeID" json:"challenge,omitempty"`
}

// Input bikin challenge baru dari admin
type CreateChallengeInput struct {
	Name        string    `json:"name" binding:"required"`
	Description string    `json:"description"`
	TargetType  string    `json:"target_type" binding:"required,oneof=SALES_COUNT REVENUE CONVERSIONS NEW_CUSTOMERS CLICKS"`
	TargetValue int64     `json:"target_value" binding:"required,min=1"`
	RewardType  string    `json:"reward_type" binding:"required,oneof=BONUS_COMMISSION TIER_UPGRADE CASH_BONUS"`
	RewardValue int64     `json:"reward_value" binding:"required,min=1"`
	ProductID   *uint64   `json:"product_id"`
	StartDate   time.Time `json:"start_date" binding:"required"`
	EndDate     time.Time `json:"end_date" binding:"required"`
}
