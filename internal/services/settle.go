package services

import (
	"errors"
	"fmt"
	"log"
	"time"

	"gorm.io/gorm"

	"membership-backend/internal/config"
	"membership-backend/internal/models"
)

// SettleTransaction memproses satu transaksi yang sudah dibayar:
// tandai SUCCESS, hitung split, bikin commission entries, posting ke ledger,
// catat konversi affiliate, dan update progress challenge. Semua dalam satu
// transaksi database.
//
// Aman dipanggil berulang (webhook Midtrans suka kirim notifikasi dobel):
//   - transisi PENDING -> SUCCESS pakai conditional update, cuma satu
//     caller yang lihat "baru settle";
//   - entries dijaga index unik (trx, penerima, jenis);
//   - posting ledger pakai key deterministik trx:<id>:<penerima>:<jenis>;
//   - progress challenge cuma naik di jalur "baru settle".
func SettleTransaction(db *gorm.DB, trxID uint64, cfg config.SplitConfig) ([]models.CommissionEntry, error) {
	var entries []models.CommissionEntry

	err := db.Transaction(func(tx *gorm.DB) error {
		var trx models.Transaction
		if err := tx.Preload("Product").First(&trx, trxID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: transaksi %d tidak ada", ErrValidation, trxID)
			}
			return err
		}
		if trx.Status == models.TrxFailed {
			return fmt.Errorf("%w: transaksi %d sudah FAILED, tidak bisa settle", ErrValidation, trxID)
		}

		// Klaim transisi ke SUCCESS. RowsAffected=1 artinya kita yang pertama.
		now := time.Now()
		res := tx.Model(&models.Transaction{}).
			Where("id = ? AND status = ?", trxID, models.TrxPending).
			Updates(map[string]interface{}{"status": models.TrxSuccess, "paid_at": now})
		if res.Error != nil {
			return res.Error
		}
		newlySettled := res.RowsAffected == 1
		if newlySettled {
			trx.Status = models.TrxSuccess
			trx.PaidAt = &now
		}

		parties, err := resolveParties(tx, trx, trx.Product)
		if err != nil {
			return err
		}

		computed, err := Split(trx, trx.Product, parties, cfg)
		if err != nil {
			return err
		}

		// Affiliate dan mentor langsung PAID, admin dan founder nunggu
		// approval finance dulu (LOCKED).
		for i := range computed {
			switch computed[i].Kind {
			case models.KindAffiliate, models.KindMentor:
				computed[i].Status = models.EntryPaid
				computed[i].PaidAt = &now
			}
		}

		for i := range computed {
			if err := tx.Create(&computed[i]).Error; err != nil {
				if errors.Is(err, gorm.ErrDuplicatedKey) {
					// Retry settle, ambil entry yang sudah ada
					var old models.CommissionEntry
					ferr := tx.Where("transaction_id = ? AND beneficiary_id = ? AND kind = ?",
						computed[i].TransactionID, computed[i].BeneficiaryID, computed[i].Kind).
						First(&old).Error
					if ferr != nil {
						return ferr
					}
					computed[i] = old
					continue
				}
				return err
			}
		}

		// Posting ledger, key deterministik per entry. Entry PAID masuk
		// balance, entry LOCKED masuk pending.
		var postings []Posting
		for _, e := range computed {
			field := models.FieldPending
			if e.Status == models.EntryPaid {
				field = models.FieldBalance
			}
			if e.Status == models.EntryReversed {
				continue // Entry lama yang sudah dibatalkan jangan diposting lagi
			}
			postings = append(postings, Posting{
				Key:       fmt.Sprintf("trx:%d:%d:%s", trx.ID, e.BeneficiaryID, e.Kind),
				AccountID: e.BeneficiaryID,
				Amount:    e.Amount,
				Field:     field,
				Kind:      models.PostingCredit,
				Reference: trx.InvoiceNo,
			})
		}
		if _, err := PostBatch(tx, postings); err != nil {
			return err
		}

		if trx.AffiliateID != nil && parties.Affiliate != nil {
			if err := recordConversion(tx, trx, computed); err != nil {
				return err
			}
		}

		if newlySettled {
			if err := RecordSale(tx, trx); err != nil {
				return err
			}
		}

		entries = computed
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Printf("[settle] Transaksi %d settle, %d entry", trxID, len(entries))
	return entries, nil
}

// resolveParties cari siapa saja yang kebagian: admin pertama, semua
// founder-class beserta share-nya, mentor produk (kecuali dia founder),
// dan profil affiliate-of-record.
func resolveParties(tx *gorm.DB, trx models.Transaction, product models.Product) (SplitParties, error) {
	var parties SplitParties

	var admin models.User
	err := tx.Where("role_id = ? AND is_active = ?", 1, true).Order("id ASC").First(&admin).Error
	if err != nil {
		return parties, fmt.Errorf("akun admin tidak ketemu: %w", err)
	}
	parties.AdminID = admin.ID

	var founders []models.User
	err = tx.Where("(is_founder = ? OR is_co_founder = ?) AND is_active = ?", true, true, true).
		Order("id ASC").Find(&founders).Error
	if err != nil {
		return parties, err
	}
	founderSet := make(map[uint64]bool, len(founders))
	for _, f := range founders {
		founderSet[f.ID] = true
		parties.Founders = append(parties.Founders, FounderShare{
			UserID:       f.ID,
			SharePercent: f.RevenueSharePercent,
		})
	}

	// Mentor yang juga founder tidak dapat komisi mentor terpisah
	if product.MentorID != nil && !founderSet[*product.MentorID] {
		parties.MentorID = product.MentorID
	}

	if trx.AffiliateID != nil {
		var profile models.AffiliateProfile
		err := tx.Where("user_id = ? AND is_active = ?", *trx.AffiliateID, true).First(&profile).Error
		if err == nil {
			parties.Affiliate = &profile
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return parties, err
		}
		// Profil nonaktif / hilang: transaksi tetap settle tanpa komisi affiliate
	}

	return parties, nil
}

// recordConversion catat konversi affiliate plus naikin counter profilnya.
// Unique index di transaction_id bikin retry tidak dobel hitung.
func recordConversion(tx *gorm.DB, trx models.Transaction, entries []models.CommissionEntry) error {
	var affEntry *models.CommissionEntry
	for i := range entries {
		if entries[i].Kind == models.KindAffiliate {
			affEntry = &entries[i]
			break
		}
	}
	if affEntry == nil {
		return nil // Komisi affiliate nol (misal habis kepotong), tidak ada konversi
	}

	now := time.Now()
	conv := models.AffiliateConversion{
		AffiliateID:      *trx.AffiliateID,
		TransactionID:    trx.ID,
		CommissionAmount: affEntry.Amount,
		CommissionRate:   affEntry.RateValue,
		CommissionType:   affEntry.RateBasis,
		PaidOut:          affEntry.Status == models.EntryPaid,
	}
	if conv.PaidOut {
		conv.PaidOutAt = &now
	}
	if err := tx.Create(&conv).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil // Sudah tercatat dari settle sebelumnya
		}
		return err
	}

	return tx.Model(&models.AffiliateProfile{}).
		Where("user_id = ?", *trx.AffiliateID).
		Updates(map[string]interface{}{
			"total_earnings":    gorm.Expr("total_earnings + ?", affEntry.Amount),
			"total_conversions": gorm.Expr("total_conversions + ?", 1),
		}).Error
}

// ApproveEntry melepas satu entry LOCKED jadi PAID: uangnya pindah dari
// balance_pending ke balance lewat sepasang posting RELEASE. Cuma entry
// LOCKED yang bisa dilepas; entry PAID/REVERSED ditolak.
func ApproveEntry(db *gorm.DB, entryID uint64) error {
	return db.Transaction(func(tx *gorm.DB) error {
		var entry models.CommissionEntry
		if err := tx.First(&entry, entryID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: entry %d tidak ada", ErrValidation, entryID)
			}
			return err
		}

		now := time.Now()
		res := tx.Model(&models.CommissionEntry{}).
			Where("id = ? AND status = ?", entryID, models.EntryLocked).
			Updates(map[string]interface{}{"status": models.EntryPaid, "paid_at": now})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("%w: entry %d statusnya %s, cuma LOCKED yang bisa di-approve",
				ErrValidation, entryID, entry.Status)
		}

		// Sepasang posting: keluar dari pending, masuk ke balance.
		// Counter earnings tidak disentuh, sudah dihitung waktu settle.
		_, err := PostBatch(tx, []Posting{
			{
				Key:       fmt.Sprintf("approve:%d:out", entryID),
				AccountID: entry.BeneficiaryID,
				Amount:    -entry.Amount,
				Field:     models.FieldPending,
				Kind:      models.PostingRelease,
				Reference: fmt.Sprintf("release entry %d", entryID),
			},
			{
				Key:       fmt.Sprintf("approve:%d:in", entryID),
				AccountID: entry.BeneficiaryID,
				Amount:    entry.Amount,
				Field:     models.FieldBalance,
				Kind:      models.PostingRelease,
				Reference: fmt.Sprintf("release entry %d", entryID),
			},
		})
		return err
	})
}

// ReverseEntry membatalkan satu entry LOCKED (refund, fraud, salah hitung).
// Uangnya ditarik lagi dari pending dan progress challenge affiliate ikut
// dikoreksi. Entry yang sudah PAID tidak bisa dibatalkan lewat sini.
func ReverseEntry(db *gorm.DB, entryID uint64) error {
	return db.Transaction(func(tx *gorm.DB) error {
		var entry models.CommissionEntry
		if err := tx.First(&entry, entryID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: entry %d tidak ada", ErrValidation, entryID)
			}
			return err
		}

		now := time.Now()
		res := tx.Model(&models.CommissionEntry{}).
			Where("id = ? AND status = ?", entryID, models.EntryLocked).
			Updates(map[string]interface{}{"status": models.EntryReversed, "reversed_at": now})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("%w: entry %d statusnya %s, cuma LOCKED yang bisa dibatalkan",
				ErrValidation, entryID, entry.Status)
		}

		_, err := Post(tx,
			fmt.Sprintf("reverse:%d", entryID),
			entry.BeneficiaryID,
			-entry.Amount,
			models.FieldPending,
			models.PostingReversal,
			fmt.Sprintf("reversal entry %d", entryID),
		)
		if err != nil {
			return err
		}

		if entry.Kind == models.KindAffiliate {
			var trx models.Transaction
			if err := tx.First(&trx, entry.TransactionID).Error; err != nil {
				return err
			}
			if err := ReverseProgress(tx, entry, trx); err != nil {
				return err
			}
		}
		return nil
	})
}
