package config

import (
	"fmt"
	"log"
	"os"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"

	"membership-backend/internal/models"
)

// DB koneksi global, dipakai semua handler
var DB *gorm.DB

// SetDB mengganti koneksi global. Dipakai di test biar bisa inject SQLite in-memory.
func SetDB(db *gorm.DB) {
	DB = db
}

// ConnectDB buka koneksi MySQL dan jalankan migrasi
func ConnectDB() {
	host := os.Getenv("DB_HOST")
	port := os.Getenv("DB_PORT")
	user := os.Getenv("DB_USER")
	password := os.Getenv("DB_PASSWORD")
	dbname := os.Getenv("DB_NAME")

	dsn := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		user, password, host, port, dbname)

	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		// TranslateError WAJIB nyala: logika idempotency ledger bergantung pada
		// gorm.ErrDuplicatedKey waktu insert kena unique index
		TranslateError: true,
	})
	if err != nil {
		log.Fatalf("Gagal konek database: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		log.Fatalf("Gagal ambil koneksi dasar: %v", err)
	}

	// Setting connection pool
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetConnMaxLifetime(time.Hour)

	DB = db
	log.Printf("Database terkoneksi ke %s:%s/%s", host, port, dbname)

	Migrate(db)
}

// Migrate auto-migrate semua tabel. Urutan ngikutin dependensi relasi.
func Migrate(db *gorm.DB) {
	err := db.AutoMigrate(
		&models.User{},
		&models.AffiliateProfile{},
		&models.Product{},
		&models.Wallet{},
		&models.LedgerPosting{},
		&models.WithdrawalRequest{},
		&models.Transaction{},
		&models.CommissionEntry{},
		&models.AffiliateConversion{},
		&models.AffiliateLink{},
		&models.Challenge{},
		&models.ChallengeProgress{},
	)
	if err != nil {
		log.Fatalf("Migrasi database gagal: %v", err)
	}

	log.Println("Migrasi database sukses")
}
