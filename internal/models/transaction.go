package models

import "time"

// Status transaksi
const (
	TrxPending = "PENDING"
	TrxSuccess = "SUCCESS"
	TrxFailed  = "FAILED"
)

// Jenis commission entry (satu baris bagi hasil per penerima)
const (
	KindAdminFee  = "ADMIN_FEE"
	KindFounder   = "FOUNDER_SHARE"
	KindMentor    = "MENTOR_COMMISSION"
	KindAffiliate = "AFFILIATE_COMMISSION"
)

// Status commission entry. Transisi satu arah:
// LOCKED -> PAID atau LOCKED -> REVERSED. Tidak pernah dibuka lagi.
const (
	EntryLocked   = "LOCKED"
	EntryPaid     = "PAID"
	EntryReversed = "REVERSED"
)

// Transaction catatan penjualan. Setelah SUCCESS, amount dan payer tidak boleh
// berubah lagi; status hanya boleh pindah sekali ke status terminal.
type Transaction struct {
	ID             uint64  `gorm:"primaryKey" json:"id"`
	InvoiceNo      string  `gorm:"uniqueIndex;size:50" json:"invoice_no"`
	PayerID        uint64  `gorm:"index;not null" json:"payer_id"`
	ProductID      uint64  `gorm:"index;not null" json:"product_id"`
	Amount         int64   `gorm:"not null" json:"amount"` // Gross, Rupiah bulat
	Status         string  `gorm:"size:20;default:PENDING;index" json:"status"`
	AffiliateID    *uint64 `gorm:"index" json:"affiliate_id,omitempty"` // Affiliate-of-record, boleh kosong
	ExternalID     *string `gorm:"uniqueIndex;size:100" json:"external_id,omitempty"` // Diisi kalau hasil import sistem lama
	PaymentChannel string  `gorm:"size:30" json:"payment_channel"`

	PaidAt    *time.Time `json:"paid_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`

	// Relasi (Preload) biar pas query datanya lengkap
	Product   Product           `gorm:"foreignKey:ProductID" json:"product,omitempty"`
	Payer     User              `gorm:"foreignKey:PayerID" json:"payer,omitempty"`
	Entries   []CommissionEntry `gorm:"foreignKey:TransactionID" json:"entries,omitempty"`
}

// PaidTime waktu bayar efektif, fallback ke created_at kalau paid_at kosong
// (misal data import lama yang tidak bawa timestamp pembayaran).
func (t Transaction) PaidTime() time.Time {
	if t.PaidAt != nil {
		return *t.PaidAt
	}
	return t.CreatedAt
}

// CommissionEntry satu baris hasil split dari satu transaksi.
// Unik per (transaksi, penerima, jenis), index gabungan di bawah yang jaga
// supaya satu transaksi tidak bisa menghasilkan dua entry yang sama.
// Rate dicatat di sini untuk audit, jadi walau setting global berubah
// nanti, kita tetap tahu transaksi ini dihitung pakai rate berapa.
type CommissionEntry struct {
	ID            uint64 `gorm:"primaryKey" json:"id"`
	TransactionID uint64 `gorm:"not null;index;uniqueIndex:idx_entry_unique" json:"transaction_id"`
	BeneficiaryID uint64 `gorm:"not null;index;uniqueIndex:idx_entry_unique" json:"beneficiary_id"`
	Kind          string `gorm:"size:30;not null;uniqueIndex:idx_entry_unique" json:"kind"`
	Amount        int64  `gorm:"not null" json:"amount"`
	RateBasis     string `gorm:"size:20;not null" json:"rate_basis"` // FLAT atau PERCENTAGE
	RateValue     int64  `gorm:"not null" json:"rate_value"`         // Persen atau nominal flat yang dipakai saat hitung
	Status        string `gorm:"size:20;default:LOCKED;index" json:"status"`

	PaidAt     *time.Time `json:"paid_at,omitempty"`
	ReversedAt *time.Time `json:"reversed_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// AffiliateConversion catatan konversi per transaksi affiliate.
// Satu transaksi maksimal satu konversi (uniqueIndex di transaction_id).
// Dipakai dashboard admin dan jadi sumber metric challenge CONVERSIONS.
type AffiliateConversion struct {
	ID               uint64     `gorm:"primaryKey" json:"id"`
	AffiliateID      uint64     `gorm:"index;not null" json:"affiliate_id"`
	TransactionID    uint64     `gorm:"uniqueIndex;not null" json:"transaction_id"`
	CommissionAmount int64      `gorm:"not null" json:"commission_amount"`
	CommissionRate   int64      `json:"commission_rate"`
	CommissionType   string     `gorm:"size:20" json:"commission_type"`
	PaidOut          bool       `gorm:"default:false" json:"paid_out"`
	PaidOutAt        *time.Time `json:"paid_out_at,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
}

// AffiliateLink kode referral milik affiliate. Klik dihitung buat challenge CLICKS.
type AffiliateLink struct {
	ID        uint64    `gorm:"primaryKey" json:"id"`
	UserID    uint64    `gorm:"index;not null" json:"user_id"`
	Code      string    `gorm:"uniqueIndex;size:50;not null" json:"code"`
	TargetURL string    `gorm:"size:255" json:"target_url"`
	Clicks    int64     `gorm:"default:0" json:"clicks"`
	CreatedAt time.Time `json:"created_at"`
}

// Input checkout dari member
type CheckoutInput struct {
	ProductID uint64 `json:"product_id" binding:"required"`
	RefCode   string `json:"ref_code"` // Kode affiliate, opsional
}
