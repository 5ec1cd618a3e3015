package services

import (
	"fmt"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"membership-backend/internal/config"
	"membership-backend/internal/models"
)

// newTestDB bikin database SQLite in-memory segar per test.
// TranslateError wajib nyala, logika idempotency ledger bergantung
// pada gorm.ErrDuplicatedKey.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("buka sqlite: %v", err)
	}

	// Satu koneksi saja: tiap koneksi SQLite in-memory dapat database
	// sendiri-sendiri, lebih dari satu koneksi = tabel "hilang"
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("ambil koneksi dasar: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	config.Migrate(db)
	return db
}

func testSplitConfig() config.SplitConfig {
	return config.SplitConfig{
		AdminFeePercent:      15,
		DefaultAffiliateRate: 30,
		ImportBatchSize:      50,
	}
}

func seedUser(t *testing.T, db *gorm.DB, roleID uint, email string) models.User {
	t.Helper()
	user := models.User{
		RoleID:   roleID,
		FullName: "User " + email,
		Email:    email,
		Phone:    email, // Unik aja, isinya bebas buat test
		IsActive: true,
	}
	user.PasswordHash = "x"
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("seed user %s: %v", email, err)
	}
	return user
}

func seedFounder(t *testing.T, db *gorm.DB, email string, sharePercent int64, coFounder bool) models.User {
	t.Helper()
	user := seedUser(t, db, 4, email)
	updates := map[string]interface{}{"revenue_share_percent": sharePercent}
	if coFounder {
		updates["is_co_founder"] = true
	} else {
		updates["is_founder"] = true
	}
	if err := db.Model(&user).Updates(updates).Error; err != nil {
		t.Fatalf("seed founder: %v", err)
	}
	return user
}

func seedAffiliate(t *testing.T, db *gorm.DB, email string, rate int64, tier int) (models.User, models.AffiliateProfile) {
	t.Helper()
	user := seedUser(t, db, 4, email)
	profile := models.AffiliateProfile{
		UserID:         user.ID,
		Tier:           tier,
		CommissionRate: rate,
		IsActive:       true,
	}
	if err := db.Create(&profile).Error; err != nil {
		t.Fatalf("seed affiliate: %v", err)
	}
	return user, profile
}

func getWallet(t *testing.T, db *gorm.DB, userID uint64) models.Wallet {
	t.Helper()
	var wallet models.Wallet
	if err := db.Where("user_id = ?", userID).First(&wallet).Error; err != nil {
		t.Fatalf("ambil wallet user %d: %v", userID, err)
	}
	return wallet
}

// checkWalletInvariant total_earnings - total_payout == balance + balance_pending
func checkWalletInvariant(t *testing.T, db *gorm.DB, userID uint64) {
	t.Helper()
	w := getWallet(t, db, userID)
	if w.TotalEarnings-w.TotalPayout != w.Balance+w.BalancePending {
		t.Fatalf("invariant wallet user %d rusak: earnings=%d payout=%d balance=%d pending=%d",
			userID, w.TotalEarnings, w.TotalPayout, w.Balance, w.BalancePending)
	}
}

var invoiceSeq uint64

func successTrx(t *testing.T, db *gorm.DB, payerID, productID uint64, amount int64, affiliateID *uint64) models.Transaction {
	t.Helper()
	now := time.Now()
	invoiceSeq++
	trx := models.Transaction{
		InvoiceNo:   fmt.Sprintf("INV-TEST-%d", invoiceSeq),
		PayerID:     payerID,
		ProductID:   productID,
		Amount:      amount,
		Status:      models.TrxSuccess,
		AffiliateID: affiliateID,
		PaidAt:      &now,
	}
	if err := db.Create(&trx).Error; err != nil {
		t.Fatalf("seed transaksi: %v", err)
	}
	return trx
}
