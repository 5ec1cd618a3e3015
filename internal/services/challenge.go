package services

import (
	"errors"
	"fmt"
	"log"
	"time"

	"gorm.io/gorm"

	"membership-backend/internal/models"
)

// Enroll mendaftarkan affiliate ke challenge yang masih berjalan.
// Unique index (challenge_id, affiliate_id) jaga supaya enroll dobel
// dari dua request paralel cuma jadi satu baris.
func Enroll(db *gorm.DB, challengeID, affiliateID uint64) (*models.ChallengeProgress, error) {
	var challenge models.Challenge
	if err := db.First(&challenge, challengeID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: challenge %d tidak ada", ErrValidation, challengeID)
		}
		return nil, err
	}

	now := time.Now()
	if !challenge.IsActive || now.Before(challenge.StartDate) || now.After(challenge.EndDate) {
		return nil, fmt.Errorf("%w: challenge %d tidak aktif atau di luar periode", ErrValidation, challengeID)
	}

	progress := models.ChallengeProgress{
		ChallengeID: challengeID,
		AffiliateID: affiliateID,
		Status:      models.ProgressEnrolled,
		EnrolledAt:  now,
	}
	if err := db.Create(&progress).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			// Sudah pernah enroll, balikin yang lama
			if ferr := db.Where("challenge_id = ? AND affiliate_id = ?", challengeID, affiliateID).
				First(&progress).Error; ferr != nil {
				return nil, ferr
			}
			return &progress, nil
		}
		return nil, err
	}
	return &progress, nil
}

// RecordSale menambah progress SEMUA enrollment aktif milik affiliate transaksi
// ini yang scope-nya cocok. Challenge scoped-produk dan challenge semua-produk
// yang jalan barengan sama-sama naik, sengaja tidak saling eksklusif.
// Dipanggil dari jalur settle di dalam transaksi database yang sama,
// jadi akrual ikut atomik dengan posting komisinya.
func RecordSale(tx *gorm.DB, trx models.Transaction) error {
	if trx.AffiliateID == nil || trx.Status != models.TrxSuccess {
		return nil
	}
	affiliateID := *trx.AffiliateID

	challenges, err := activeChallenges(tx, trx.PaidTime())
	if err != nil {
		return err
	}

	for _, ch := range challenges {
		if ch.ProductID != nil && *ch.ProductID != trx.ProductID {
			continue
		}

		var delta int64
		switch ch.TargetType {
		case models.TargetSalesCount, models.TargetConversions:
			delta = 1
		case models.TargetRevenue:
			delta = trx.Amount
		case models.TargetNewCustomers:
			first, err := isFirstCustomer(tx, affiliateID, trx)
			if err != nil {
				return err
			}
			if first {
				delta = 1
			}
		case models.TargetClicks:
			// Klik datang dari jalur RecordClicks, bukan dari penjualan
			continue
		}
		if delta == 0 {
			continue
		}

		if err := accrue(tx, ch, affiliateID, delta); err != nil {
			return fmt.Errorf("challenge %d: %w", ch.ID, err)
		}
	}
	return nil
}

// RecordClicks jalur akrual untuk challenge bertarget CLICKS,
// dipanggil dari endpoint redirect link affiliate.
func RecordClicks(db *gorm.DB, affiliateID uint64, n int64) error {
	if n <= 0 {
		return nil
	}
	return db.Transaction(func(tx *gorm.DB) error {
		challenges, err := activeChallenges(tx, time.Now())
		if err != nil {
			return err
		}
		for _, ch := range challenges {
			if ch.TargetType != models.TargetClicks {
				continue
			}
			if err := accrue(tx, ch, affiliateID, n); err != nil {
				return fmt.Errorf("challenge %d: %w", ch.ID, err)
			}
		}
		return nil
	})
}

// ReverseProgress mengurangi progress gara-gara satu commission entry
// dibatalkan (REVERSED). Progress yang sudah selesai tidak dibuka lagi,
// dan nilai tidak pernah turun di bawah nol.
func ReverseProgress(db *gorm.DB, entry models.CommissionEntry, trx models.Transaction) error {
	if trx.AffiliateID == nil {
		return nil
	}
	affiliateID := *trx.AffiliateID

	return db.Transaction(func(tx *gorm.DB) error {
		var progresses []models.ChallengeProgress
		err := tx.Preload("Challenge").
			Where("affiliate_id = ? AND completed_at IS NULL", affiliateID).
			Find(&progresses).Error
		if err != nil {
			return err
		}

		for _, pr := range progresses {
			ch := pr.Challenge
			if ch.ProductID != nil && *ch.ProductID != trx.ProductID {
				continue
			}
			var delta int64
			switch ch.TargetType {
			case models.TargetSalesCount, models.TargetConversions:
				delta = 1
			case models.TargetRevenue:
				delta = trx.Amount
			default:
				continue
			}
			res := tx.Model(&models.ChallengeProgress{}).
				Where("id = ? AND completed_at IS NULL AND current_value >= ?", pr.ID, delta).
				Update("current_value", gorm.Expr("current_value - ?", delta))
			if res.Error != nil {
				return res.Error
			}
		}
		return nil
	})
}

// activeChallenges semua challenge yang aktif dan periode-nya mencakup waktu t.
// Challenge kadaluarsa otomatis berhenti menerima progress di sini.
func activeChallenges(tx *gorm.DB, t time.Time) ([]models.Challenge, error) {
	var challenges []models.Challenge
	err := tx.Where("is_active = ? AND start_date <= ? AND end_date >= ?", true, t, t).
		Find(&challenges).Error
	return challenges, err
}

// accrue menaikkan progress satu enrollment lalu cek target.
//
// Kunci exactly-once reward ada di dua lapis:
//   - UPDATE akrual dan UPDATE penyelesaian dua-duanya pakai syarat
//     completed_at IS NULL, jadi progress yang sudah tuntas kebal
//     terhadap penjualan berikutnya;
//   - transisi TARGET_MET pakai compare-and-set: dari N caller paralel
//     yang sama-sama melewati target, cuma satu yang RowsAffected=1
//     dan cuma dia yang menerbitkan reward.
func accrue(tx *gorm.DB, ch models.Challenge, affiliateID uint64, delta int64) error {
	var progress models.ChallengeProgress
	err := tx.Where("challenge_id = ? AND affiliate_id = ?", ch.ID, affiliateID).
		First(&progress).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil // Belum enroll, tidak ada yang dicatat
	}
	if err != nil {
		return err
	}
	if progress.CompletedAt != nil {
		return nil
	}

	res := tx.Model(&models.ChallengeProgress{}).
		Where("id = ? AND completed_at IS NULL", progress.ID).
		Updates(map[string]interface{}{
			"current_value": gorm.Expr("current_value + ?", delta),
			"status":        models.ProgressAccruing,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return nil // Keduluan selesai oleh caller lain
	}

	// Baca ulang nilai terbaru lalu cek target
	if err := tx.First(&progress, progress.ID).Error; err != nil {
		return err
	}
	if progress.CurrentValue < ch.TargetValue {
		return nil
	}

	now := time.Now()
	res = tx.Model(&models.ChallengeProgress{}).
		Where("id = ? AND completed_at IS NULL", progress.ID).
		Updates(map[string]interface{}{
			"completed_at": now,
			"status":       models.ProgressTargetMet,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return nil // Ada caller lain yang menang CAS, dia yang bagi reward
	}

	return issueReward(tx, ch, progress.ID, affiliateID)
}

// issueReward menerbitkan hadiah TEPAT SEKALI per (challenge, affiliate).
// Dipanggil hanya oleh pemenang CAS completed_at. Kredit tunai lewat ledger
// dengan key deterministik, jadi retry pun tidak bisa dobel bayar.
func issueReward(tx *gorm.DB, ch models.Challenge, progressID, affiliateID uint64) error {
	switch ch.RewardType {
	case models.RewardCashBonus:
		key := fmt.Sprintf("challenge:%d:%d", ch.ID, affiliateID)
		ref := fmt.Sprintf("reward challenge %q", ch.Name)
		if _, err := Post(tx, key, affiliateID, ch.RewardValue, models.FieldBalance, models.PostingCredit, ref); err != nil {
			return fmt.Errorf("kredit reward: %w", err)
		}

	case models.RewardBonusCommission:
		// Rate komisi affiliate naik permanen sebesar reward (persen poin), mentok 100
		err := tx.Model(&models.AffiliateProfile{}).
			Where("user_id = ?", affiliateID).
			Update("commission_rate", gorm.Expr(
				"CASE WHEN commission_rate + ? > 100 THEN 100 ELSE commission_rate + ? END",
				ch.RewardValue, ch.RewardValue)).Error
		if err != nil {
			return fmt.Errorf("naikin rate komisi: %w", err)
		}

	case models.RewardTierUpgrade:
		err := tx.Model(&models.AffiliateProfile{}).
			Where("user_id = ?", affiliateID).
			Update("tier", gorm.Expr("tier + ?", ch.RewardValue)).Error
		if err != nil {
			return fmt.Errorf("naikin tier: %w", err)
		}
	}

	err := tx.Model(&models.ChallengeProgress{}).
		Where("id = ?", progressID).
		Updates(map[string]interface{}{
			"status":         models.ProgressRewardClaimed,
			"reward_claimed": true,
		}).Error
	if err != nil {
		return err
	}

	log.Printf("[challenge] Reward %s (%d) terbit untuk affiliate %d di challenge %d",
		ch.RewardType, ch.RewardValue, affiliateID, ch.ID)
	return nil
}

// isFirstCustomer true kalau payer transaksi ini belum pernah beli lewat
// affiliate yang sama sebelumnya (buat target NEW_CUSTOMERS).
func isFirstCustomer(tx *gorm.DB, affiliateID uint64, trx models.Transaction) (bool, error) {
	var count int64
	err := tx.Model(&models.Transaction{}).
		Where("affiliate_id = ? AND payer_id = ? AND status = ? AND id <> ?",
			affiliateID, trx.PayerID, models.TrxSuccess, trx.ID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count == 0, nil
}
