package config

import (
	"os"
	"strconv"
)

// SplitConfig snapshot konfigurasi bagi hasil.
// SENGAJA berupa value yang di-pass ke fungsi split, bukan lookup global live:
// transaksi lama harus tetap bisa direproduksi/diaudit walau rate sudah diganti admin.
type SplitConfig struct {
	AdminFeePercent      int64 // Fee perusahaan, persen dari gross
	DefaultAffiliateRate int64 // Rate komisi affiliate kalau profil/produk tidak menentukan
	ImportBatchSize      int   // Ukuran batch import data lama, murni buat throughput
}

// Tabel pengali tier. Tier lebih tinggi = rate persen lebih gede.
// Pengali dalam persen biar tetap integer: 100 = 1x, 125 = 1.25x.
// Hanya berlaku untuk komisi PERCENTAGE, flat tidak tersentuh tier.
var TierMultiplierPercent = map[int]int64{
	1: 100,
	2: 110,
	3: 125,
	4: 150,
}

// LoadSplitConfig baca konfigurasi dari env dengan default aman
func LoadSplitConfig() SplitConfig {
	return SplitConfig{
		AdminFeePercent:      envInt64("ADMIN_FEE_PERCENT", 15),
		DefaultAffiliateRate: envInt64("DEFAULT_AFFILIATE_RATE", 30),
		ImportBatchSize:      int(envInt64("IMPORT_BATCH_SIZE", 50)),
	}
}

func envInt64(key string, def int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 {
			return n
		}
	}
	return def
}
