package services

import (
	"membership-backend/internal/config"
	"membership-backend/internal/models"
)

// Rate hasil resolve aturan komisi untuk satu (affiliate, produk).
type Rate struct {
	Basis string // models.CommissionFlat atau models.CommissionPercentage
	Value int64  // Nominal Rupiah kalau FLAT, persen kalau PERCENTAGE
}

// ResolveRate menentukan aturan komisi yang berlaku.
//
// Prioritasnya:
//  1. Produk set FLAT -> nominal flat dipakai apa adanya, tier tidak ngaruh
//  2. Produk set rate persen sendiri -> itu basisnya
//  3. Kalau tidak, rate dari profil affiliate; masih kosong juga -> default global
//
// Tier cuma menyentuh rate persen: rate dasar dikali pengali tier,
// hasil dibulatkan ke bawah dan dipatok maksimal 100%.
func ResolveRate(profile models.AffiliateProfile, product models.Product, cfg config.SplitConfig) Rate {
	if product.CommissionType == models.CommissionFlat && product.AffiliateCommissionRate > 0 {
		return Rate{Basis: models.CommissionFlat, Value: product.AffiliateCommissionRate}
	}

	base := product.AffiliateCommissionRate
	if base <= 0 {
		base = profile.CommissionRate
	}
	if base <= 0 {
		base = cfg.DefaultAffiliateRate
	}

	multiplier, ok := config.TierMultiplierPercent[profile.Tier]
	if !ok {
		multiplier = 100
	}
	effective := base * multiplier / 100
	if effective > 100 {
		effective = 100
	}

	return Rate{Basis: models.CommissionPercentage, Value: effective}
}

// CommissionAmount menghitung nominal komisi dari rate yang sudah di-resolve.
// FLAT dipakai verbatim tapi dipatok maksimal gross (komisi mustahil
// melebihi uang yang masuk).
func CommissionAmount(rate Rate, gross int64) int64 {
	if rate.Basis == models.CommissionFlat {
		if rate.Value > gross {
			return gross
		}
		return rate.Value
	}
	return gross * rate.Value / 100
}
