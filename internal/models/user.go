package models

import (
	"time"

	"gorm.io/gorm"
)

// User merepresentasikan tabel 'users' di database.
// Semua pemegang uang (member, mentor, affiliate, admin, founder) ada di sini.
type User struct {
	ID           uint64 `gorm:"primaryKey" json:"id"`
	RoleID       uint   `gorm:"not null" json:"role_id"`
	FullName     string `gorm:"size:100;not null" json:"full_name"`
	Email        string `gorm:"uniqueIndex;size:100;not null" json:"email"`
	PasswordHash string `gorm:"not null" json:"-"` // json:"-" artinya field ini TIDAK AKAN dikirim balik ke frontend (rahasia)
	Phone        string `gorm:"column:phone_number;size:20;unique" json:"phone"`
	FCMToken     string `gorm:"size:255" json:"-"`

	// Flag founder-class. Share persen dipakai waktu bagi hasil revenue.
	// Contoh: Founder 60, Co-Founder 40. Diubah hanya oleh admin.
	IsFounder           bool  `gorm:"default:false" json:"is_founder"`
	IsCoFounder         bool  `gorm:"default:false" json:"is_co_founder"`
	RevenueSharePercent int64 `gorm:"default:0" json:"revenue_share_percent"`

	IsActive  bool           `gorm:"default:true" json:"is_active"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"` // User tidak pernah dihapus beneran, cuma dinonaktifkan

	// Relasi (Has One)
	AffiliateProfile *AffiliateProfile `gorm:"foreignKey:UserID" json:"affiliate_profile,omitempty"`
}

// AffiliateProfile data khusus affiliate: tier dan rate komisi.
// Tier hanya bisa naik lewat reward challenge atau tangan admin,
// tidak pernah diubah oleh mesin komisi sendiri.
type AffiliateProfile struct {
	ID               uint64    `gorm:"primaryKey" json:"id"`
	UserID           uint64    `gorm:"uniqueIndex;not null" json:"user_id"`
	Tier             int       `gorm:"default:1" json:"tier"`
	CommissionRate   int64     `gorm:"default:0" json:"commission_rate"` // Persen. 0 = pakai default global
	IsActive         bool      `gorm:"default:true" json:"is_active"`
	TotalEarnings    int64     `gorm:"default:0" json:"total_earnings"`
	TotalConversions int64     `gorm:"default:0" json:"total_conversions"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`

	User User `gorm:"foreignKey:UserID" json:"user_data,omitempty"`
}

// Struct untuk menangkap Input Register dari user
type RegisterInput struct {
	FullName string `json:"full_name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
	RoleID   uint   `json:"role_id" binding:"required"` // 1:Admin, 2:Finance, 3:Mentor, 4:Member
	Phone    string `json:"phone" binding:"required"`
}

// Struct untuk menangkap Input Login
type LoginInput struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
	FCMToken string `json:"fcm_token"` // Opsional, buat push notification
}
