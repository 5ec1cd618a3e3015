package services

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"gorm.io/gorm"

	"membership-backend/internal/config"
	"membership-backend/internal/models"
)

// ExternalTransaction satu record transaksi dari sistem lama.
// Bentuknya longgar di sumbernya, makanya divalidasi ketat di sini
// sebelum boleh nyentuh ledger.
type ExternalTransaction struct {
	OrderID        string    `json:"order_id"`
	Timestamp      time.Time `json:"timestamp"`
	ProductID      uint64    `json:"product_id"`
	PayerID        uint64    `json:"payer_id"`
	AffiliateID    *uint64   `json:"affiliate_id,omitempty"`
	GrossAmount    int64     `json:"gross_amount"`
	Status         string    `json:"status"`
	PaymentChannel string    `json:"payment_channel"`
}

// ExternalCommission satu record komisi affiliate dari sistem lama.
// Nominalnya dipakai apa adanya, TIDAK dihitung ulang pakai rate sekarang;
// uang yang sudah dibayar di dunia nyata bukan buat dikoreksi mundur.
type ExternalCommission struct {
	ID          string    `json:"id"`
	Timestamp   time.Time `json:"timestamp"`
	OrderID     string    `json:"order_id"`
	AffiliateID uint64    `json:"affiliate_id"`
	ProductID   uint64    `json:"product_id"`
	Tier        int64     `json:"tier"`
	Amount      int64     `json:"amount"`
	Status      string    `json:"status"`
	Paid        bool      `json:"paid"`
}

// ImportBatch muatan satu panggilan reconcile.
type ImportBatch struct {
	Transactions []ExternalTransaction `json:"transactions"`
	Commissions  []ExternalCommission  `json:"commissions"`
}

// ImportResult rekap hasil reconcile. Errors berisi record yang ditolak
// per baris; record lain di batch yang sama tetap jalan.
type ImportResult struct {
	Created int      `json:"created"`
	Skipped int      `json:"skipped"`
	Errors  []string `json:"errors,omitempty"`
}

// Reconcile memproses batch import dari sistem lama. Idempoten total:
// replay batch yang sama tidak bikin record baru dan tidak mengubah saldo,
// karena transaksi di-dedup lewat external_id dan posting wallet pakai
// key import:<orderID>:<affiliateID>. Crash di tengah aman di-resume.
//
// Dipecah per chunk (cfg.ImportBatchSize) cuma buat throughput; jaminan
// atomik tetap per record, bukan per chunk.
func Reconcile(db *gorm.DB, batch ImportBatch, cfg config.SplitConfig) (ImportResult, error) {
	var result ImportResult

	size := cfg.ImportBatchSize
	if size <= 0 {
		size = 50
	}

	for start := 0; start < len(batch.Transactions); start += size {
		end := start + size
		if end > len(batch.Transactions) {
			end = len(batch.Transactions)
		}
		for _, rec := range batch.Transactions[start:end] {
			importTransaction(db, rec, &result)
		}
	}

	for start := 0; start < len(batch.Commissions); start += size {
		end := start + size
		if end > len(batch.Commissions) {
			end = len(batch.Commissions)
		}
		for _, rec := range batch.Commissions[start:end] {
			importCommission(db, rec, &result)
		}
	}

	log.Printf("[reconcile] Selesai: %d dibuat, %d dilewati, %d error",
		result.Created, result.Skipped, len(result.Errors))
	return result, nil
}

func (r ExternalTransaction) validate() error {
	switch {
	case r.OrderID == "":
		return fmt.Errorf("%w: order_id kosong", ErrValidation)
	case r.ProductID == 0 || r.PayerID == 0:
		return fmt.Errorf("%w: product_id dan payer_id wajib", ErrValidation)
	case r.GrossAmount <= 0:
		return fmt.Errorf("%w: gross_amount harus positif, dapat %d", ErrValidation, r.GrossAmount)
	case r.Timestamp.IsZero():
		return fmt.Errorf("%w: timestamp kosong", ErrValidation)
	}
	return nil
}

func (r ExternalCommission) validate() error {
	switch {
	case r.ID == "" || r.OrderID == "":
		return fmt.Errorf("%w: id dan order_id wajib", ErrValidation)
	case r.AffiliateID == 0:
		return fmt.Errorf("%w: affiliate_id wajib", ErrValidation)
	case r.Amount <= 0:
		return fmt.Errorf("%w: amount harus positif, dapat %d", ErrValidation, r.Amount)
	}
	return nil
}

// importTransaction satu record transaksi. Dedup ketat di external_id:
// sudah ada dan nominal sama berarti replay, skip diam-diam; sudah ada
// tapi nominal beda berarti datanya bermasalah, dicatat dan TIDAK ditimpa.
func importTransaction(db *gorm.DB, rec ExternalTransaction, result *ImportResult) {
	if err := rec.validate(); err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("trx %s: %v", rec.OrderID, err))
		return
	}

	var existing models.Transaction
	err := db.Where("external_id = ?", rec.OrderID).First(&existing).Error
	if err == nil {
		if existing.Amount != rec.GrossAmount {
			msg := fmt.Sprintf("trx %s: %v (lama %d, import %d)",
				rec.OrderID, ErrExternalRecordConflict, existing.Amount, rec.GrossAmount)
			log.Printf("[reconcile] %s", msg)
			result.Errors = append(result.Errors, msg)
			return
		}
		result.Skipped++
		return
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		result.Errors = append(result.Errors, fmt.Sprintf("trx %s: %v", rec.OrderID, err))
		return
	}

	extID := rec.OrderID
	paidAt := rec.Timestamp
	trx := models.Transaction{
		InvoiceNo:      "IMP-" + rec.OrderID,
		PayerID:        rec.PayerID,
		ProductID:      rec.ProductID,
		Amount:         rec.GrossAmount,
		Status:         mapImportedTrxStatus(rec.Status),
		AffiliateID:    rec.AffiliateID,
		ExternalID:     &extID,
		PaymentChannel: rec.PaymentChannel,
	}
	if trx.Status == models.TrxSuccess {
		trx.PaidAt = &paidAt
	}
	if err := db.Create(&trx).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			// Balapan dengan importer lain yang pegang record sama
			result.Skipped++
			return
		}
		result.Errors = append(result.Errors, fmt.Sprintf("trx %s: %v", rec.OrderID, err))
		return
	}
	result.Created++
}

// importCommission satu record komisi. Status final ikut keputusan sistem
// lama (historis itu otoritatif): PAID langsung masuk balance, LOCKED masuk
// pending, REVERSED cuma dicatat tanpa posting.
func importCommission(db *gorm.DB, rec ExternalCommission, result *ImportResult) {
	if err := rec.validate(); err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("komisi %s: %v", rec.ID, err))
		return
	}

	err := db.Transaction(func(tx *gorm.DB) error {
		var trx models.Transaction
		if err := tx.Where("external_id = ?", rec.OrderID).First(&trx).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: transaksi induk %s belum diimport", ErrValidation, rec.OrderID)
			}
			return err
		}

		status := mapImportedCommissionStatus(rec.Status, rec.Paid)
		now := time.Now()
		entry := models.CommissionEntry{
			TransactionID: trx.ID,
			BeneficiaryID: rec.AffiliateID,
			Kind:          models.KindAffiliate,
			Amount:        rec.Amount,
			RateBasis:     models.CommissionFlat, // Nominal historis, bukan hasil rate
			RateValue:     rec.Amount,
			Status:        status,
		}
		switch status {
		case models.EntryPaid:
			entry.PaidAt = &now
		case models.EntryReversed:
			entry.ReversedAt = &now
		}

		if err := tx.Create(&entry).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				result.Skipped++
				return nil
			}
			return err
		}

		// REVERSED berarti sistem lama sudah membatalkan, jangan posting
		if status != models.EntryReversed {
			field := models.FieldPending
			if status == models.EntryPaid {
				field = models.FieldBalance
			}
			key := fmt.Sprintf("import:%s:%d", rec.OrderID, rec.AffiliateID)
			if _, err := Post(tx, key, rec.AffiliateID, rec.Amount, field, models.PostingCredit,
				"import komisi "+rec.ID); err != nil {
				return err
			}
		}

		result.Created++
		return nil
	})
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("komisi %s: %v", rec.ID, err))
	}
}

func mapImportedTrxStatus(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "success", "paid", "settlement", "capture", "completed":
		return models.TrxSuccess
	case "cancel", "cancelled", "deny", "expire", "expired", "failed", "failure":
		return models.TrxFailed
	default:
		return models.TrxPending
	}
}

func mapImportedCommissionStatus(raw string, paidFlag bool) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "added", "paid":
		return models.EntryPaid
	case "cancelled", "canceled":
		return models.EntryReversed
	}
	if paidFlag {
		return models.EntryPaid
	}
	return models.EntryLocked
}
