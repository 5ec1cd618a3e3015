package services

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"membership-backend/internal/models"
)

func seedChallenge(t *testing.T, db *gorm.DB, targetType string, targetValue int64, rewardType string, rewardValue int64, productID *uint64) models.Challenge {
	t.Helper()
	now := time.Now()
	ch := models.Challenge{
		Name:        "Challenge " + targetType,
		TargetType:  targetType,
		TargetValue: targetValue,
		RewardType:  rewardType,
		RewardValue: rewardValue,
		ProductID:   productID,
		StartDate:   now.Add(-time.Hour),
		EndDate:     now.Add(24 * time.Hour),
		IsActive:    true,
	}
	if err := db.Create(&ch).Error; err != nil {
		t.Fatalf("seed challenge: %v", err)
	}
	return ch
}

func getProgress(t *testing.T, db *gorm.DB, challengeID, affiliateID uint64) models.ChallengeProgress {
	t.Helper()
	var pr models.ChallengeProgress
	err := db.Where("challenge_id = ? AND affiliate_id = ?", challengeID, affiliateID).First(&pr).Error
	require.NoError(t, err)
	return pr
}

// Skenario inti: target 5 penjualan, 4 sudah terkumpul, penjualan ke-5
// memicu reward TEPAT SEKALI, penjualan ke-6 tidak memicu lagi.
func TestSalesCountRewardSekaliSaja(t *testing.T) {
	db := newTestDB(t)
	buyer := seedUser(t, db, 4, "pembeli@test.id")
	aff, _ := seedAffiliate(t, db, "aff@test.id", 30, 1)
	ch := seedChallenge(t, db, models.TargetSalesCount, 5, models.RewardCashBonus, 250_000, nil)

	_, err := Enroll(db, ch.ID, aff.ID)
	require.NoError(t, err)

	for i := 0; i < 4; i++ {
		trx := successTrx(t, db, buyer.ID, 1, 100_000, &aff.ID)
		require.NoError(t, RecordSale(db, trx))
	}
	pr := getProgress(t, db, ch.ID, aff.ID)
	require.Equal(t, int64(4), pr.CurrentValue)
	require.Equal(t, models.ProgressAccruing, pr.Status)
	require.Nil(t, pr.CompletedAt)

	// Penjualan ke-5: target tercapai, reward cair
	trx := successTrx(t, db, buyer.ID, 1, 100_000, &aff.ID)
	require.NoError(t, RecordSale(db, trx))

	pr = getProgress(t, db, ch.ID, aff.ID)
	require.Equal(t, models.ProgressRewardClaimed, pr.Status)
	require.True(t, pr.RewardClaimed)
	require.NotNil(t, pr.CompletedAt)

	wallet := getWallet(t, db, aff.ID)
	require.Equal(t, int64(250_000), wallet.Balance)

	// Penjualan ke-6: progress beku, reward tidak dobel
	trx = successTrx(t, db, buyer.ID, 1, 100_000, &aff.ID)
	require.NoError(t, RecordSale(db, trx))

	pr = getProgress(t, db, ch.ID, aff.ID)
	require.Equal(t, int64(5), pr.CurrentValue)
	wallet = getWallet(t, db, aff.ID)
	require.Equal(t, int64(250_000), wallet.Balance)
}

func TestChallengeKadaluarsa(t *testing.T) {
	db := newTestDB(t)
	buyer := seedUser(t, db, 4, "pembeli@test.id")
	aff, _ := seedAffiliate(t, db, "aff@test.id", 30, 1)
	ch := seedChallenge(t, db, models.TargetSalesCount, 3, models.RewardCashBonus, 100_000, nil)

	_, err := Enroll(db, ch.ID, aff.ID)
	require.NoError(t, err)

	// Challenge keburu habis masa berlakunya
	db.Model(&ch).Update("end_date", time.Now().Add(-time.Minute))

	trx := successTrx(t, db, buyer.ID, 1, 100_000, &aff.ID)
	require.NoError(t, RecordSale(db, trx))

	pr := getProgress(t, db, ch.ID, aff.ID)
	require.Zero(t, pr.CurrentValue, "challenge kadaluarsa berhenti menerima progress")

	// Enroll ke challenge yang sudah habis juga ditolak
	_, err = Enroll(db, ch.ID, aff.ID+999)
	require.ErrorIs(t, err, ErrValidation)
}

func TestChallengeScopeProduk(t *testing.T) {
	db := newTestDB(t)
	buyer := seedUser(t, db, 4, "pembeli@test.id")
	aff, _ := seedAffiliate(t, db, "aff@test.id", 30, 1)

	productA := uint64(7)
	scoped := seedChallenge(t, db, models.TargetSalesCount, 10, models.RewardCashBonus, 100_000, &productA)
	global := seedChallenge(t, db, models.TargetSalesCount, 10, models.RewardCashBonus, 100_000, nil)

	_, err := Enroll(db, scoped.ID, aff.ID)
	require.NoError(t, err)
	_, err = Enroll(db, global.ID, aff.ID)
	require.NoError(t, err)

	// Penjualan produk lain: cuma challenge global yang naik
	trx := successTrx(t, db, buyer.ID, 99, 100_000, &aff.ID)
	require.NoError(t, RecordSale(db, trx))
	require.Zero(t, getProgress(t, db, scoped.ID, aff.ID).CurrentValue)
	require.Equal(t, int64(1), getProgress(t, db, global.ID, aff.ID).CurrentValue)

	// Penjualan produk yang di-scope: dua-duanya naik, sengaja tidak eksklusif
	trx = successTrx(t, db, buyer.ID, productA, 100_000, &aff.ID)
	require.NoError(t, RecordSale(db, trx))
	require.Equal(t, int64(1), getProgress(t, db, scoped.ID, aff.ID).CurrentValue)
	require.Equal(t, int64(2), getProgress(t, db, global.ID, aff.ID).CurrentValue)
}

func TestTargetRevenue(t *testing.T) {
	db := newTestDB(t)
	buyer := seedUser(t, db, 4, "pembeli@test.id")
	aff, _ := seedAffiliate(t, db, "aff@test.id", 30, 1)
	ch := seedChallenge(t, db, models.TargetRevenue, 1_500_000, models.RewardCashBonus, 500_000, nil)

	_, err := Enroll(db, ch.ID, aff.ID)
	require.NoError(t, err)

	trx := successTrx(t, db, buyer.ID, 1, 1_000_000, &aff.ID)
	require.NoError(t, RecordSale(db, trx))
	require.Equal(t, int64(1_000_000), getProgress(t, db, ch.ID, aff.ID).CurrentValue)

	trx = successTrx(t, db, buyer.ID, 1, 600_000, &aff.ID)
	require.NoError(t, RecordSale(db, trx))

	pr := getProgress(t, db, ch.ID, aff.ID)
	require.Equal(t, models.ProgressRewardClaimed, pr.Status)
	require.Equal(t, int64(500_000), getWallet(t, db, aff.ID).Balance)
}

func TestTargetNewCustomers(t *testing.T) {
	db := newTestDB(t)
	buyerA := seedUser(t, db, 4, "a@test.id")
	buyerB := seedUser(t, db, 4, "b@test.id")
	aff, _ := seedAffiliate(t, db, "aff@test.id", 30, 1)
	ch := seedChallenge(t, db, models.TargetNewCustomers, 2, models.RewardCashBonus, 100_000, nil)

	_, err := Enroll(db, ch.ID, aff.ID)
	require.NoError(t, err)

	// Pembeli A dua kali: cuma yang pertama dihitung customer baru
	trx := successTrx(t, db, buyerA.ID, 1, 100_000, &aff.ID)
	require.NoError(t, RecordSale(db, trx))
	trx = successTrx(t, db, buyerA.ID, 1, 100_000, &aff.ID)
	require.NoError(t, RecordSale(db, trx))
	require.Equal(t, int64(1), getProgress(t, db, ch.ID, aff.ID).CurrentValue)

	// Pembeli B: customer baru kedua, target tercapai
	trx = successTrx(t, db, buyerB.ID, 1, 100_000, &aff.ID)
	require.NoError(t, RecordSale(db, trx))
	require.Equal(t, models.ProgressRewardClaimed, getProgress(t, db, ch.ID, aff.ID).Status)
}

func TestTargetClicks(t *testing.T) {
	db := newTestDB(t)
	aff, _ := seedAffiliate(t, db, "aff@test.id", 30, 1)
	ch := seedChallenge(t, db, models.TargetClicks, 100, models.RewardCashBonus, 50_000, nil)

	_, err := Enroll(db, ch.ID, aff.ID)
	require.NoError(t, err)

	require.NoError(t, RecordClicks(db, aff.ID, 60))
	require.Equal(t, int64(60), getProgress(t, db, ch.ID, aff.ID).CurrentValue)

	require.NoError(t, RecordClicks(db, aff.ID, 40))
	require.Equal(t, models.ProgressRewardClaimed, getProgress(t, db, ch.ID, aff.ID).Status)
	require.Equal(t, int64(50_000), getWallet(t, db, aff.ID).Balance)
}

func TestRewardBonusCommission(t *testing.T) {
	db := newTestDB(t)
	buyer := seedUser(t, db, 4, "pembeli@test.id")
	aff, _ := seedAffiliate(t, db, "aff@test.id", 30, 1)
	ch := seedChallenge(t, db, models.TargetSalesCount, 1, models.RewardBonusCommission, 10, nil)

	_, err := Enroll(db, ch.ID, aff.ID)
	require.NoError(t, err)

	trx := successTrx(t, db, buyer.ID, 1, 100_000, &aff.ID)
	require.NoError(t, RecordSale(db, trx))

	var profile models.AffiliateProfile
	require.NoError(t, db.Where("user_id = ?", aff.ID).First(&profile).Error)
	require.Equal(t, int64(40), profile.CommissionRate, "rate naik permanen sebesar reward")
}

func TestRewardBonusCommissionMentok100(t *testing.T) {
	db := newTestDB(t)
	buyer := seedUser(t, db, 4, "pembeli@test.id")
	aff, _ := seedAffiliate(t, db, "aff@test.id", 95, 1)
	ch := seedChallenge(t, db, models.TargetSalesCount, 1, models.RewardBonusCommission, 20, nil)

	_, err := Enroll(db, ch.ID, aff.ID)
	require.NoError(t, err)

	trx := successTrx(t, db, buyer.ID, 1, 100_000, &aff.ID)
	require.NoError(t, RecordSale(db, trx))

	var profile models.AffiliateProfile
	require.NoError(t, db.Where("user_id = ?", aff.ID).First(&profile).Error)
	require.Equal(t, int64(100), profile.CommissionRate)
}

func TestRewardTierUpgrade(t *testing.T) {
	db := newTestDB(t)
	buyer := seedUser(t, db, 4, "pembeli@test.id")
	aff, _ := seedAffiliate(t, db, "aff@test.id", 30, 1)
	ch := seedChallenge(t, db, models.TargetSalesCount, 1, models.RewardTierUpgrade, 2, nil)

	_, err := Enroll(db, ch.ID, aff.ID)
	require.NoError(t, err)

	trx := successTrx(t, db, buyer.ID, 1, 100_000, &aff.ID)
	require.NoError(t, RecordSale(db, trx))

	var profile models.AffiliateProfile
	require.NoError(t, db.Where("user_id = ?", aff.ID).First(&profile).Error)
	require.Equal(t, 3, profile.Tier)
}

// N caller paralel sama-sama melewati target: reward tetap satu.
func TestConcurrentCrossing(t *testing.T) {
	db := newTestDB(t)
	buyer := seedUser(t, db, 4, "pembeli@test.id")
	aff, _ := seedAffiliate(t, db, "aff@test.id", 30, 1)
	ch := seedChallenge(t, db, models.TargetSalesCount, 1, models.RewardCashBonus, 100_000, nil)

	_, err := Enroll(db, ch.ID, aff.ID)
	require.NoError(t, err)

	const workers = 6
	trxs := make([]models.Transaction, workers)
	for i := range trxs {
		trxs[i] = successTrx(t, db, buyer.ID, 1, 100_000, &aff.ID)
	}

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_ = RecordSale(db, trxs[i])
		}(i)
	}
	wg.Wait()

	pr := getProgress(t, db, ch.ID, aff.ID)
	require.True(t, pr.RewardClaimed)
	require.Equal(t, int64(100_000), getWallet(t, db, aff.ID).Balance, "reward harus cair tepat sekali")
}

func TestReverseProgressTurun(t *testing.T) {
	db := newTestDB(t)
	buyer := seedUser(t, db, 4, "pembeli@test.id")
	aff, _ := seedAffiliate(t, db, "aff@test.id", 30, 1)
	ch := seedChallenge(t, db, models.TargetSalesCount, 10, models.RewardCashBonus, 100_000, nil)

	_, err := Enroll(db, ch.ID, aff.ID)
	require.NoError(t, err)

	var lastTrx models.Transaction
	for i := 0; i < 3; i++ {
		lastTrx = successTrx(t, db, buyer.ID, 1, 100_000, &aff.ID)
		require.NoError(t, RecordSale(db, lastTrx))
	}
	require.Equal(t, int64(3), getProgress(t, db, ch.ID, aff.ID).CurrentValue)

	entry := models.CommissionEntry{
		TransactionID: lastTrx.ID,
		BeneficiaryID: aff.ID,
		Kind:          models.KindAffiliate,
		Amount:        30_000,
		RateBasis:     models.CommissionPercentage,
		RateValue:     30,
		Status:        models.EntryReversed,
	}
	require.NoError(t, ReverseProgress(db, entry, lastTrx))
	require.Equal(t, int64(2), getProgress(t, db, ch.ID, aff.ID).CurrentValue)
}

func TestEnrollDobelAman(t *testing.T) {
	db := newTestDB(t)
	aff, _ := seedAffiliate(t, db, "aff@test.id", 30, 1)
	ch := seedChallenge(t, db, models.TargetSalesCount, 5, models.RewardCashBonus, 100_000, nil)

	first, err := Enroll(db, ch.ID, aff.ID)
	require.NoError(t, err)

	second, err := Enroll(db, ch.ID, aff.ID)
	require.NoError(t, err)
	require.Equal(t, first.ID, second.ID, "enroll dobel balikin baris yang sama")

	var count int64
	db.Model(&models.ChallengeProgress{}).Count(&count)
	require.Equal(t, int64(1), count)
}
