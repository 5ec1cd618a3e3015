package services

import (
	"fmt"

	"membership-backend/internal/config"
	"membership-backend/internal/models"
)

// FounderShare satu penerima bagi hasil founder-class
type FounderShare struct {
	UserID       uint64
	SharePercent int64
}

// SplitParties siapa saja yang kebagian dari satu transaksi.
// Di-resolve dulu oleh caller (settle/handler) dari database,
// supaya fungsi Split sendiri tetap murni dan gampang dites.
type SplitParties struct {
	AdminID  uint64
	Founders []FounderShare

	// Mentor produk, nil kalau bukan course atau mentornya founder
	// (founder tidak dobel gaji: sudah kebagian dari share founder).
	MentorID *uint64

	// Profil affiliate-of-record, nil kalau transaksi tanpa affiliate
	Affiliate *models.AffiliateProfile
}

// Split menghitung pembagian gross satu transaksi jadi daftar CommissionEntry.
// Murni: tidak nulis apa-apa, posting ke wallet urusan terpisah.
//
// Urutan potongan:
//  1. Admin fee persen dari gross
//  2. Komisi mentor persen dari sisa setelah admin fee
//  3. Komisi affiliate (flat atau persen dari gross, hasil ResolveRate)
//  4. Sisa dibagi founder-class proporsional revenue_share_percent
//
// Semua hitungan integer Rupiah; remainder pembulatan selalu nempel
// ke entry admin supaya total seluruh entry == gross persis.
func Split(trx models.Transaction, product models.Product, parties SplitParties, cfg config.SplitConfig) ([]models.CommissionEntry, error) {
	gross := trx.Amount
	if gross <= 0 {
		return nil, fmt.Errorf("%w: gross harus positif, dapat %d", ErrValidation, gross)
	}
	if parties.AdminID == 0 {
		return nil, fmt.Errorf("%w: akun admin wajib ada", ErrValidation)
	}

	var entries []models.CommissionEntry

	// 1. Admin fee dari gross
	adminFee := gross * cfg.AdminFeePercent / 100
	remaining := gross - adminFee

	// 2. Komisi mentor dari sisa
	if parties.MentorID != nil && product.MentorCommissionPercent > 0 {
		mentorAmount := remaining * product.MentorCommissionPercent / 100
		if mentorAmount > 0 {
			entries = append(entries, models.CommissionEntry{
				TransactionID: trx.ID,
				BeneficiaryID: *parties.MentorID,
				Kind:          models.KindMentor,
				Amount:        mentorAmount,
				RateBasis:     models.CommissionPercentage,
				RateValue:     product.MentorCommissionPercent,
				Status:        models.EntryLocked,
			})
			remaining -= mentorAmount
		}
	}

	// 3. Komisi affiliate
	if parties.Affiliate != nil && trx.AffiliateID != nil {
		rate := ResolveRate(*parties.Affiliate, product, cfg)
		affAmount := CommissionAmount(rate, gross)
		// Jangan sampai makan jatah yang sudah dibagi: cap di sisa
		if affAmount > remaining {
			affAmount = remaining
		}
		if affAmount > 0 {
			entries = append(entries, models.CommissionEntry{
				TransactionID: trx.ID,
				BeneficiaryID: *trx.AffiliateID,
				Kind:          models.KindAffiliate,
				Amount:        affAmount,
				RateBasis:     rate.Basis,
				RateValue:     rate.Value,
				Status:        models.EntryLocked,
			})
			remaining -= affAmount
		}
	}

	// 4. Bagi hasil founder-class. Tanpa founder, sisa ikut ke admin.
	var totalShare int64
	for _, f := range parties.Founders {
		totalShare += f.SharePercent
	}
	if totalShare > 0 && remaining > 0 {
		distributed := int64(0)
		for _, f := range parties.Founders {
			amount := remaining * f.SharePercent / totalShare
			if amount <= 0 {
				continue
			}
			entries = append(entries, models.CommissionEntry{
				TransactionID: trx.ID,
				BeneficiaryID: f.UserID,
				Kind:          models.KindFounder,
				Amount:        amount,
				RateBasis:     models.CommissionPercentage,
				RateValue:     f.SharePercent,
				Status:        models.EntryLocked,
			})
			distributed += amount
		}
		// Sisa pembulatan pembagian founder nempel ke admin
		adminFee += remaining - distributed
	} else {
		adminFee += remaining
	}

	if adminFee > 0 {
		entries = append(entries, models.CommissionEntry{
			TransactionID: trx.ID,
			BeneficiaryID: parties.AdminID,
			Kind:          models.KindAdminFee,
			Amount:        adminFee,
			RateBasis:     models.CommissionPercentage,
			RateValue:     cfg.AdminFeePercent,
			Status:        models.EntryLocked,
		})
	}

	// Pengecekan terakhir: total entry HARUS sama dengan gross.
	// Kalau meleset berarti ada bug hitungan, lebih baik gagal total
	// daripada posting ledger yang berat sebelah.
	var sum int64
	for _, e := range entries {
		sum += e.Amount
	}
	if sum != gross {
		return nil, fmt.Errorf("%w: total entry %d != gross %d (trx %d)", ErrInconsistentSplit, sum, gross, trx.ID)
	}

	return entries, nil
}
