package handlers

import (
	"errors"
	"net/http"
	"time"

	"membership-backend/internal/config"
	"membership-backend/internal/models"
	"membership-backend/internal/services"
	"membership-backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// CreateChallenge admin bikin challenge baru
func CreateChallenge(c *gin.Context) {
	var input models.CreateChallengeInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.APIResponse(c, http.StatusBadRequest, false, "Input challenge salah", err.Error())
		return
	}

	if !input.EndDate.After(input.StartDate) {
		utils.APIResponse(c, http.StatusBadRequest, false, "Tanggal selesai harus setelah tanggal mulai", nil)
		return
	}

	challenge := models.Challenge{
		Name:        input.Name,
		Description: input.Description,
		TargetType:  input.TargetType,
		TargetValue: input.TargetValue,
		RewardType:  input.RewardType,
		RewardValue: input.RewardValue,
		ProductID:   input.ProductID,
		StartDate:   input.StartDate,
		EndDate:     input.EndDate,
		IsActive:    true,
	}

	if err := config.DB.Create(&challenge).Error; err != nil {
		utils.APIResponse(c, http.StatusInternalServerError, false, "Gagal menyimpan challenge", err.Error())
		return
	}

	utils.APIResponse(c, http.StatusCreated, true, "Challenge Berhasil Dibuat", challenge)
}

// GetChallenges daftar challenge yang masih berjalan (buat affiliate)
func GetChallenges(c *gin.Context) {
	now := time.Now()
	var challenges []models.Challenge
	config.DB.
		Where("is_active = ? AND end_date >= ?", true, now).
		Order("end_date asc").
		Find(&challenges)

	utils.APIResponse(c, http.StatusOK, true, "Daftar Challenge Aktif", challenges)
}

// JoinChallenge affiliate daftar ikut challenge
func JoinChallenge(c *gin.Context) {
	userID, _ := c.Get("userID")
	challengeID := utils.StringToUint64(c.Param("id"))

	// Cuma yang punya profil affiliate aktif yang boleh ikutan
	var profile models.AffiliateProfile
	err := config.DB.Where("user_id = ? AND is_active = ?", userID, true).First(&profile).Error
	if err != nil {
		utils.APIResponse(c, http.StatusForbidden, false, "Kamu belum terdaftar sebagai affiliate", nil)
		return
	}

	progress, err := services.Enroll(config.DB, challengeID, userID.(uint64))
	if err != nil {
		if errors.Is(err, services.ErrValidation) {
			utils.APIResponse(c, http.StatusBadRequest, false, err.Error(), nil)
			return
		}
		utils.APIResponse(c, http.StatusInternalServerError, false, "Gagal join challenge", err.Error())
		return
	}

	utils.APIResponse(c, http.StatusCreated, true, "Berhasil Join Challenge! Semangat!", progress)
}

// GetMyProgress progress semua challenge yang diikuti affiliate
func GetMyProgress(c *gin.Context) {
	userID, _ := c.Get("userID")

	var progresses []models.ChallengeProgress
	config.DB.
		Preload("Challenge").
		Where("affiliate_id = ?", userID).
		Order("updated_at desc").
		Find(&progresses)

	utils.APIResponse(c, http.StatusOK, true, "Progress Challenge Saya", progresses)
}

// DeactivateChallenge admin mematikan challenge.
// Challenge yang sudah ada pesertanya tidak boleh diedit isinya,
// cuma boleh dimatikan atau diperpanjang tanggalnya.
func DeactivateChallenge(c *gin.Context) {
	id := c.Param("id")

	var challenge models.Challenge
	if err := config.DB.First(&challenge, id).Error; err != nil {
		utils.APIResponse(c, http.StatusNotFound, false, "Challenge tidak ditemukan", nil)
		return
	}

	config.DB.Model(&challenge).Update("is_active", false)
	utils.APIResponse(c, http.StatusOK, true, "Challenge Dinonaktifkan", nil)
}

// ExtendChallenge admin memperpanjang deadline challenge
func ExtendChallenge(c *gin.Context) {
	id := c.Param("id")
	var input struct {
		EndDate time.Time `json:"end_date" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.APIResponse(c, http.StatusBadRequest, false, "Input salah", err.Error())
		return
	}

	var challenge models.Challenge
	if err := config.DB.First(&challenge, id).Error; err != nil {
		utils.APIResponse(c, http.StatusNotFound, false, "Challenge tidak ditemukan", nil)
		return
	}

	if !input.EndDate.After(challenge.EndDate) {
		utils.APIResponse(c, http.StatusBadRequest, false, "Tanggal baru harus lebih panjang dari yang lama", nil)
		return
	}

	config.DB.Model(&challenge).Update("end_date", input.EndDate)
	utils.APIResponse(c, http.StatusOK, true, "Deadline Challenge Diperpanjang", challenge)
}
