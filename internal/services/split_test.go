package services

import (
	"testing"

	"github.com/stretchr/testify/require"

	"membership-backend/internal/models"
)

func entryByKind(entries []models.CommissionEntry, kind string) *models.CommissionEntry {
	for i := range entries {
		if entries[i].Kind == kind {
			return &entries[i]
		}
	}
	return nil
}

func sumEntries(entries []models.CommissionEntry) int64 {
	var sum int64
	for _, e := range entries {
		sum += e.Amount
	}
	return sum
}

// Skenario lengkap: gross 1jt, admin 15%, mentor 10% dari sisa,
// affiliate flat 50rb, sisanya founder 60/40.
func TestSplitSkenarioLengkap(t *testing.T) {
	mentorID := uint64(30)
	affiliateID := uint64(40)

	trx := models.Transaction{ID: 1, Amount: 1_000_000, AffiliateID: &affiliateID}
	product := models.Product{
		ID:                      1,
		Type:                    models.ProductCourse,
		Price:                   1_000_000,
		CommissionType:          models.CommissionFlat,
		AffiliateCommissionRate: 50_000,
		MentorID:                &mentorID,
		MentorCommissionPercent: 10,
	}
	parties := SplitParties{
		AdminID: 10,
		Founders: []FounderShare{
			{UserID: 20, SharePercent: 60},
			{UserID: 21, SharePercent: 40},
		},
		MentorID:  &mentorID,
		Affiliate: &models.AffiliateProfile{UserID: affiliateID, Tier: 1},
	}

	entries, err := Split(trx, product, parties, testSplitConfig())
	require.NoError(t, err)
	require.Len(t, entries, 5)

	require.Equal(t, int64(150_000), entryByKind(entries, models.KindAdminFee).Amount)
	require.Equal(t, int64(85_000), entryByKind(entries, models.KindMentor).Amount)
	require.Equal(t, int64(50_000), entryByKind(entries, models.KindAffiliate).Amount)

	var founderAmounts []int64
	for _, e := range entries {
		if e.Kind == models.KindFounder {
			founderAmounts = append(founderAmounts, e.Amount)
		}
	}
	require.ElementsMatch(t, []int64{429_000, 286_000}, founderAmounts)

	require.Equal(t, int64(1_000_000), sumEntries(entries), "total entry harus sama persis dengan gross")
}

func TestSplitTanpaFounder(t *testing.T) {
	trx := models.Transaction{ID: 2, Amount: 500_000}
	product := models.Product{ID: 1, Price: 500_000}
	parties := SplitParties{AdminID: 10}

	entries, err := Split(trx, product, parties, testSplitConfig())
	require.NoError(t, err)
	require.Len(t, entries, 1)

	// Tanpa founder semuanya jatuh ke admin
	require.Equal(t, int64(500_000), entryByKind(entries, models.KindAdminFee).Amount)
}

func TestSplitPembulatanTidakBocor(t *testing.T) {
	// Angka ganjil yang pasti menyisakan remainder pembagian
	trx := models.Transaction{ID: 3, Amount: 999_999}
	product := models.Product{ID: 1, Price: 999_999}
	parties := SplitParties{
		AdminID: 10,
		Founders: []FounderShare{
			{UserID: 20, SharePercent: 60},
			{UserID: 21, SharePercent: 40},
		},
	}

	entries, err := Split(trx, product, parties, testSplitConfig())
	require.NoError(t, err)
	require.Equal(t, int64(999_999), sumEntries(entries), "remainder pembulatan harus nempel ke admin, bukan hilang")
}

func TestSplitAffiliatePersen(t *testing.T) {
	affiliateID := uint64(40)
	trx := models.Transaction{ID: 4, Amount: 1_000_000, AffiliateID: &affiliateID}
	product := models.Product{ID: 1, Price: 1_000_000} // Tidak set rate, pakai profil
	parties := SplitParties{
		AdminID:   10,
		Affiliate: &models.AffiliateProfile{UserID: affiliateID, Tier: 1, CommissionRate: 25},
	}

	entries, err := Split(trx, product, parties, testSplitConfig())
	require.NoError(t, err)

	// Persen dihitung dari gross, bukan dari sisa setelah admin fee
	require.Equal(t, int64(250_000), entryByKind(entries, models.KindAffiliate).Amount)
	require.Equal(t, int64(1_000_000), sumEntries(entries))
}

func TestSplitGrossNol(t *testing.T) {
	trx := models.Transaction{ID: 5, Amount: 0}
	_, err := Split(trx, models.Product{}, SplitParties{AdminID: 10}, testSplitConfig())
	require.ErrorIs(t, err, ErrValidation)
}

func TestSplitRateDicatatBuatAudit(t *testing.T) {
	affiliateID := uint64(40)
	trx := models.Transaction{ID: 6, Amount: 200_000, AffiliateID: &affiliateID}
	product := models.Product{
		ID:                      1,
		Price:                   200_000,
		CommissionType:          models.CommissionFlat,
		AffiliateCommissionRate: 30_000,
	}
	parties := SplitParties{
		AdminID:   10,
		Affiliate: &models.AffiliateProfile{UserID: affiliateID, Tier: 1},
	}

	entries, err := Split(trx, product, parties, testSplitConfig())
	require.NoError(t, err)

	aff := entryByKind(entries, models.KindAffiliate)
	require.Equal(t, models.CommissionFlat, aff.RateBasis)
	require.Equal(t, int64(30_000), aff.RateValue)
}
