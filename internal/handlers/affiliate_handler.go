package handlers

import (
	"net/http"

	"membership-backend/internal/config"
	"membership-backend/internal/models"
	"membership-backend/internal/services"
	"membership-backend/pkg/utils"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// GetMyAffiliateProfile profil affiliate user yang login
func GetMyAffiliateProfile(c *gin.Context) {
	userID, _ := c.Get("userID")

	var profile models.AffiliateProfile
	if err := config.DB.Where("user_id = ?", userID).First(&profile).Error; err != nil {
		utils.APIResponse(c, http.StatusNotFound, false, "Kamu belum terdaftar sebagai affiliate", nil)
		return
	}

	var link models.AffiliateLink
	config.DB.Where("user_id = ?", userID).First(&link)

	utils.APIResponse(c, http.StatusOK, true, "Profil Affiliate Saya", gin.H{
		"profile": profile,
		"link":    link,
	})
}

// GetMyConversions riwayat konversi (penjualan yang menghasilkan komisi)
func GetMyConversions(c *gin.Context) {
	userID, _ := c.Get("userID")

	var conversions []models.AffiliateConversion
	config.DB.
		Where("affiliate_id = ?", userID).
		Order("created_at desc").
		Find(&conversions)

	utils.APIResponse(c, http.StatusOK, true, "Riwayat Konversi Saya", conversions)
}

// GetMyCommissionEntries daftar komisi per transaksi, termasuk yang masih LOCKED
func GetMyCommissionEntries(c *gin.Context) {
	userID, _ := c.Get("userID")
	status := c.Query("status") // Filter opsional ?status=LOCKED

	var entries []models.CommissionEntry
	query := config.DB.Where("beneficiary_id = ?", userID).Order("created_at desc")
	if status != "" {
		query = query.Where("status = ?", status)
	}
	query.Find(&entries)

	utils.APIResponse(c, http.StatusOK, true, "Daftar Komisi Saya", entries)
}

// ClickRedirect jalur link referral publik: GET /r/:code
// Hitung klik (buat challenge CLICKS) lalu lempar ke target URL.
func ClickRedirect(c *gin.Context) {
	code := c.Param("code")

	var link models.AffiliateLink
	if err := config.DB.Where("code = ?", code).First(&link).Error; err != nil {
		utils.APIResponse(c, http.StatusNotFound, false, "Link tidak ditemukan", nil)
		return
	}

	// Counter klik di link-nya sendiri
	config.DB.Model(&link).Update("clicks", gorm.Expr("clicks + ?", 1))

	// Progress challenge CLICKS. Gagal di sini jangan sampai matiin redirect,
	// cukup dicatat di log oleh service-nya.
	_ = services.RecordClicks(config.DB, link.UserID, 1)

	target := link.TargetURL
	if target == "" {
		target = "/"
	}
	c.Redirect(http.StatusFound, target+"?ref="+link.Code)
}
