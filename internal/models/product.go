package models

import "time"

// Tipe produk yang bisa dijual
const (
	ProductMembership = "MEMBERSHIP"
	ProductCourse     = "COURSE"
	ProductGeneric    = "PRODUCT"
)

// Tipe komisi affiliate per produk
const (
	CommissionPercentage = "PERCENTAGE"
	CommissionFlat       = "FLAT"
)

// Product merepresentasikan barang yang dijual: membership, kelas (course), atau produk biasa.
// Course punya mentor; mentor dapat komisi duluan sebelum bagi hasil founder.
type Product struct {
	ID    uint64 `gorm:"primaryKey" json:"id"`
	Type  string `gorm:"size:20;not null" json:"type"` // MEMBERSHIP, COURSE, PRODUCT
	Name  string `gorm:"size:150;not null" json:"name"`
	Price int64  `gorm:"not null" json:"price"` // Rupiah bulat, JANGAN pakai float

	// Setting komisi affiliate. FLAT = nominal tetap per penjualan,
	// PERCENTAGE = persen dari harga. Kalau 0, pakai default global.
	CommissionType          string `gorm:"size:20;default:PERCENTAGE" json:"commission_type"`
	AffiliateCommissionRate int64  `gorm:"default:0" json:"affiliate_commission_rate"`

	// Khusus COURSE: mentor pemilik kelas + persen komisinya
	MentorID                *uint64 `json:"mentor_id,omitempty"`
	MentorCommissionPercent int64   `gorm:"default:0" json:"mentor_commission_percent"`

	IsActive  bool      `gorm:"default:true" json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Mentor *User `gorm:"foreignKey:MentorID" json:"mentor,omitempty"`
}
