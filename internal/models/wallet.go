package models

import "time"

// Field dompet yang bisa dikenai posting
const (
	FieldBalance = "balance" // Saldo siap pakai/tarik
	FieldPending = "pending" // Saldo nunggu approval admin
)

// Jenis posting ledger. Menentukan counter mana yang ikut bergerak.
const (
	PostingCredit   = "CREDIT"   // Pendapatan baru -> total_earnings naik
	PostingPayout   = "PAYOUT"   // Penarikan dana -> total_payout naik (refund = PAYOUT dengan amount positif)
	PostingRelease  = "RELEASE"  // Pindah pending -> balance, counter tidak bergerak
	PostingReversal = "REVERSAL" // Pembatalan pendapatan -> total_earnings turun
)

// Status permintaan penarikan
const (
	WithdrawalPending  = "PENDING"
	WithdrawalSuccess  = "SUCCESS"
	WithdrawalRejected = "REJECTED"
)

// Wallet satu-satu dengan User. Saldo TIDAK PERNAH diubah langsung lewat Save,
// semua mutasi wajib lewat services.PostBatch biar tercatat di ledger.
// Invariant yang harus selalu jaga:
//   balance >= 0
//   total_earnings - total_payout == balance + balance_pending
type Wallet struct {
	ID             uint64    `gorm:"primaryKey" json:"id"`
	UserID         uint64    `gorm:"uniqueIndex;not null" json:"user_id"`
	Balance        int64     `gorm:"default:0" json:"balance"`
	BalancePending int64     `gorm:"default:0" json:"balance_pending"`
	TotalEarnings  int64     `gorm:"default:0" json:"total_earnings"`
	TotalPayout    int64     `gorm:"default:0" json:"total_payout"`
	Seq            int64     `gorm:"default:0" json:"seq"` // Nomor urut posting terakhir, sekalian jadi version buat optimistic lock
	UpdatedAt      time.Time `json:"updated_at"`

	// Relasi ke riwayat posting
	Postings []LedgerPosting `gorm:"foreignKey:WalletID" json:"postings,omitempty"`
}

// LedgerPosting baris ledger append-only. Tidak pernah diupdate/dihapus;
// koreksi selalu berupa posting baru yang membalikkan.
// IdempotencyKey unik = senjata utama anti dobel kredit waktu event di-replay.
type LedgerPosting struct {
	ID             uint64    `gorm:"primaryKey" json:"id"`
	IdempotencyKey string    `gorm:"uniqueIndex;size:120;not null" json:"idempotency_key"`
	WalletID       uint64    `gorm:"index;not null" json:"wallet_id"`
	Amount         int64     `gorm:"not null" json:"amount"` // Signed. Negatif = debit
	Field          string    `gorm:"size:10;not null" json:"field"`
	Kind           string    `gorm:"size:10;not null" json:"kind"`
	Sequence       int64     `json:"sequence"`      // Urutan per wallet, buat audit
	BalanceAfter   int64     `json:"balance_after"` // Snapshot saldo field setelah posting, dikembalikan lagi kalau key-nya di-replay
	Reference      string    `gorm:"size:100" json:"reference"`
	CreatedAt      time.Time `json:"created_at"`
}

// WithdrawalRequest permintaan tarik dana affiliate/mentor.
// Saldo langsung dipotong (lock) waktu request dibuat, dibalikin kalau Finance tolak.
type WithdrawalRequest struct {
	ID        uint64    `gorm:"primaryKey" json:"id"`
	WalletID  uint64    `gorm:"index;not null" json:"wallet_id"`
	Amount    int64     `gorm:"not null" json:"amount"`
	Bank      string    `gorm:"size:50" json:"bank"`
	AccountNo string    `gorm:"size:50" json:"account_no"`
	Status    string    `gorm:"size:20;default:PENDING" json:"status"` // PENDING, SUCCESS, REJECTED
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Input request withdrawal
type WithdrawalInput struct {
	Amount    int64  `json:"amount" binding:"required,min=10000"` // Minimal tarik 10rb
	Bank      string `json:"bank" binding:"required"`
	AccountNo string `json:"account_no" binding:"required"`
}
