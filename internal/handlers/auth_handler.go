package handlers

import (
	"fmt"
	"net/http"

	"membership-backend/internal/config"
	"membership-backend/internal/models"
	"membership-backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// REGISTER
func Register(c *gin.Context) {
	var input models.RegisterInput

	// 1. Validasi Input JSON
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.APIResponse(c, http.StatusBadRequest, false, "Input tidak valid", err.Error())
		return
	}

	// 2. Cek Password Hash
	hashedPassword, err := utils.HashPassword(input.Password)
	if err != nil {
		utils.APIResponse(c, http.StatusInternalServerError, false, "Gagal memproses password", nil)
		return
	}

	// 3. Siapkan Data User
	user := models.User{
		FullName:     input.FullName,
		Email:        input.Email,
		PasswordHash: hashedPassword,
		RoleID:       input.RoleID,
		Phone:        input.Phone,
		IsActive:     true,
	}

	// 4. Simpan ke Database
	// Note: Role ID 3=Mentor, 4=Member. Pastikan Role ID valid.
	if err := config.DB.Create(&user).Error; err != nil {
		utils.APIResponse(c, http.StatusBadRequest, false, "Email atau Nomor HP sudah terdaftar!", nil)
		return
	}

	// 5. Member otomatis dapat profil affiliate + link referral
	if user.RoleID == 4 {
		profile := models.AffiliateProfile{UserID: user.ID, Tier: 1, IsActive: true}
		if err := config.DB.Create(&profile).Error; err == nil {
			link := models.AffiliateLink{
				UserID: user.ID,
				Code:   fmt.Sprintf("AF%06d", user.ID),
			}
			config.DB.Create(&link)
		}
	}

	// 6. Sukses
	utils.APIResponse(c, http.StatusCreated, true, "Registrasi Berhasil! Silakan Login.", user)
}

// LOGIN
func Login(c *gin.Context) {
	var input models.LoginInput

	// 1. Validasi Input
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.APIResponse(c, http.StatusBadRequest, false, "Input tidak valid", nil)
		return
	}

	// 2. Cari User berdasarkan Email
	var user models.User
	if err := config.DB.Where("email = ?", input.Email).First(&user).Error; err != nil {
		utils.APIResponse(c, http.StatusUnauthorized, false, "Email atau Password salah", nil)
		return
	}

	// 3. Cek Password
	if !utils.CheckPassword(input.Password, user.PasswordHash) {
		utils.APIResponse(c, http.StatusUnauthorized, false, "Email atau Password salah", nil)
		return
	}

	// Jika frontend mengirim token FCM, simpan ke database
	if input.FCMToken != "" {
		user.FCMToken = input.FCMToken
		// Kita hanya update kolom fcm_token agar efisien
		config.DB.Model(&user).Update("fcm_token", input.FCMToken)
	}

	// 4. Generate JWT Token
	token, err := utils.GenerateToken(user.ID, user.RoleID)
	if err != nil {
		utils.APIResponse(c, http.StatusInternalServerError, false, "Gagal generate token", nil)
		return
	}

	// 5. Sukses & Kirim Token
	utils.APIResponse(c, http.StatusOK, true, "Login Berhasil", gin.H{
		"token": token,
		"user": gin.H{
			"id":        user.ID,
			"full_name": user.FullName,
			"role_id":   user.RoleID,
			"email":     user.Email,
		},
	})
}
