package services

import (
	"errors"
	"fmt"
	"log"

	"gorm.io/gorm"

	"membership-backend/internal/models"
)

// Batas retry optimistic lock di wallet. Kalau sampai habis berarti
// kontensi per-wallet parah banget, lebih baik gagal daripada spin terus.
const maxCASRetry = 8

// Posting satu mutasi wallet yang mau diterapkan.
type Posting struct {
	Key       string // Idempotency key, unik per operasi logis
	AccountID uint64 // User pemilik wallet
	Amount    int64  // Signed, Rupiah bulat
	Field     string // models.FieldBalance / models.FieldPending
	Kind      string // models.PostingCredit / PostingPayout / PostingRelease / PostingReversal
	Reference string // Bebas, buat audit (nomor invoice, id entry, dll)
}

// PostingResult hasil satu posting.
// Applied=false artinya key-nya sudah pernah diproses; BalanceAfter
// berisi hasil lama, bukan efek baru.
type PostingResult struct {
	Key          string `json:"key"`
	Applied      bool   `json:"applied"`
	BalanceAfter int64  `json:"balance_after"`
}

// PostBatch menerapkan semua posting untuk SATU operasi logis secara atomik:
// semua masuk atau tidak ada sama sekali. Posting yang key-nya sudah ada
// di-skip per baris (aman buat resume setelah crash di tengah batch),
// tapi error apapun (termasuk saldo kurang) membatalkan seluruh batch.
func PostBatch(db *gorm.DB, postings []Posting) ([]PostingResult, error) {
	if len(postings) == 0 {
		return nil, nil
	}
	for _, p := range postings {
		if err := p.validate(); err != nil {
			return nil, err
		}
	}

	results := make([]PostingResult, len(postings))
	err := db.Transaction(func(tx *gorm.DB) error {
		for i, p := range postings {
			res, err := applyPosting(tx, p)
			if err != nil {
				return fmt.Errorf("posting %s: %w", p.Key, err)
			}
			results[i] = res
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return results, nil
}

// Post versi satu baris dari PostBatch, buat operasi tunggal
// (reward challenge, release pending, refund withdrawal).
func Post(db *gorm.DB, key string, accountID uint64, amount int64, field, kind, ref string) (PostingResult, error) {
	results, err := PostBatch(db, []Posting{{
		Key:       key,
		AccountID: accountID,
		Amount:    amount,
		Field:     field,
		Kind:      kind,
		Reference: ref,
	}})
	if err != nil {
		return PostingResult{}, err
	}
	return results[0], nil
}

func (p Posting) validate() error {
	if p.Key == "" || p.AccountID == 0 || p.Amount == 0 {
		return fmt.Errorf("%w: posting butuh key, account, dan amount != 0", ErrValidation)
	}
	if p.Field != models.FieldBalance && p.Field != models.FieldPending {
		return fmt.Errorf("%w: field %q tidak dikenal", ErrValidation, p.Field)
	}
	switch p.Kind {
	case models.PostingCredit, models.PostingPayout, models.PostingRelease, models.PostingReversal:
		return nil
	}
	return fmt.Errorf("%w: kind %q tidak dikenal", ErrValidation, p.Kind)
}

// applyPosting urutan kerjanya penting:
//  1. Insert baris ledger DULUAN. Unique index di idempotency_key jadi
//     "klaim" atas operasi ini; kalau kena duplikat berarti sudah pernah
//     diproses dan kita kembalikan hasil lama TANPA menyentuh wallet.
//  2. Baru update saldo wallet pakai compare-and-swap di kolom seq.
//     Dua caller yang balapan di wallet sama bakal kalah satu di WHERE seq,
//     lalu baca ulang dan coba lagi.
// Kalau transaksi batch di-rollback, baris ledger ikut batal, jadi klaimnya
// tidak bocor.
func applyPosting(tx *gorm.DB, p Posting) (PostingResult, error) {
	// Jalur cepat: key sudah ada?
	var existing models.LedgerPosting
	err := tx.Where("idempotency_key = ?", p.Key).First(&existing).Error
	if err == nil {
		return PostingResult{Key: p.Key, Applied: false, BalanceAfter: existing.BalanceAfter}, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return PostingResult{}, err
	}

	wallet, err := getOrCreateWallet(tx, p.AccountID)
	if err != nil {
		return PostingResult{}, err
	}

	posting := models.LedgerPosting{
		IdempotencyKey: p.Key,
		WalletID:       wallet.ID,
		Amount:         p.Amount,
		Field:          p.Field,
		Kind:           p.Kind,
		Reference:      p.Reference,
	}
	if err := tx.Create(&posting).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			// Kalah balapan dengan caller lain yang pegang key sama.
			// Ambil hasil dia, jangan sentuh wallet.
			if ferr := tx.Where("idempotency_key = ?", p.Key).First(&existing).Error; ferr != nil {
				return PostingResult{}, fmt.Errorf("%w: gagal baca posting lama: %v", ErrDuplicatePosting, ferr)
			}
			return PostingResult{Key: p.Key, Applied: false, BalanceAfter: existing.BalanceAfter}, nil
		}
		return PostingResult{}, err
	}

	// CAS loop update saldo
	for attempt := 0; attempt < maxCASRetry; attempt++ {
		newBalance := wallet.Balance
		newPending := wallet.BalancePending
		newEarnings := wallet.TotalEarnings
		newPayout := wallet.TotalPayout

		if p.Field == models.FieldBalance {
			newBalance += p.Amount
		} else {
			newPending += p.Amount
		}

		// Saldo spendable tidak boleh minus. Pending boleh minus sementara
		// (uang sudah diakui tapi belum dilepas).
		if newBalance < 0 {
			return PostingResult{}, ErrInsufficientFunds
		}

		switch p.Kind {
		case models.PostingCredit, models.PostingReversal:
			newEarnings += p.Amount
		case models.PostingPayout:
			newPayout += -p.Amount
		case models.PostingRelease:
			// Pindah kantong doang, counter diam
		}

		newSeq := wallet.Seq + 1
		res := tx.Model(&models.Wallet{}).
			Where("id = ? AND seq = ?", wallet.ID, wallet.Seq).
			Updates(map[string]interface{}{
				"balance":         newBalance,
				"balance_pending": newPending,
				"total_earnings":  newEarnings,
				"total_payout":    newPayout,
				"seq":             newSeq,
			})
		if res.Error != nil {
			return PostingResult{}, res.Error
		}
		if res.RowsAffected == 1 {
			fieldAfter := newBalance
			if p.Field == models.FieldPending {
				fieldAfter = newPending
			}
			updates := map[string]interface{}{
				"sequence":      newSeq,
				"balance_after": fieldAfter,
			}
			if err := tx.Model(&posting).Updates(updates).Error; err != nil {
				return PostingResult{}, err
			}
			return PostingResult{Key: p.Key, Applied: true, BalanceAfter: fieldAfter}, nil
		}

		// Seq bergeser karena ada posting lain, baca ulang lalu ulangi
		if err := tx.First(wallet, wallet.ID).Error; err != nil {
			return PostingResult{}, err
		}
	}

	log.Printf("[ledger] WARNING: CAS wallet %d mentok %d percobaan (key=%s)", wallet.ID, maxCASRetry, p.Key)
	return PostingResult{}, fmt.Errorf("wallet %d terlalu ramai, coba lagi", wallet.ID)
}

// getOrCreateWallet ambil wallet user, buatkan kosong kalau belum punya
// (user baru daftar belum tentu punya wallet).
func getOrCreateWallet(tx *gorm.DB, userID uint64) (*models.Wallet, error) {
	var wallet models.Wallet
	err := tx.Where("user_id = ?", userID).First(&wallet).Error
	if err == nil {
		return &wallet, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	wallet = models.Wallet{UserID: userID}
	if err := tx.Create(&wallet).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			// Ada yang keduluan bikin, pakai punya dia
			if ferr := tx.Where("user_id = ?", userID).First(&wallet).Error; ferr != nil {
				return nil, ferr
			}
			return &wallet, nil
		}
		return nil, err
	}
	return &wallet, nil
}
