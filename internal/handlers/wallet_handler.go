package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"membership-backend/internal/config"
	"membership-backend/internal/models"
	"membership-backend/internal/services"
	"membership-backend/pkg/utils"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// GetMyWallet menampilkan saldo saat ini & riwayat posting ledger
func GetMyWallet(c *gin.Context) {
	userID, _ := c.Get("userID")

	// 1. Ambil Data Wallet
	var wallet models.Wallet
	// Preload posting history biar sekalian tampil
	err := config.DB.
		Preload("Postings", func(db *gorm.DB) *gorm.DB {
			return db.Order("sequence desc").Limit(50)
		}).
		Where("user_id = ?", userID).First(&wallet).Error
	if err != nil {
		// Jika belum punya wallet (baru daftar), buatkan wallet kosong
		wallet = models.Wallet{UserID: userID.(uint64)}
		config.DB.Create(&wallet)
	}

	utils.APIResponse(c, http.StatusOK, true, "Dompet Saya", wallet)
}

// RequestWithdrawal mengajukan penarikan dana.
// Saldo langsung dipotong lewat ledger (PAYOUT) supaya tidak bisa
// ditarik dobel; kalau admin menolak nanti, saldo dikembalikan
// lewat posting refund.
func RequestWithdrawal(c *gin.Context) {
	userID, _ := c.Get("userID")

	var input models.WithdrawalInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.APIResponse(c, http.StatusBadRequest, false, "Input salah", err.Error())
		return
	}

	var wallet models.Wallet
	if err := config.DB.Where("user_id = ?", userID).First(&wallet).Error; err != nil {
		utils.APIResponse(c, http.StatusNotFound, false, "Wallet tidak ditemukan", nil)
		return
	}

	var request models.WithdrawalRequest
	err := config.DB.Transaction(func(tx *gorm.DB) error {
		request = models.WithdrawalRequest{
			WalletID:  wallet.ID,
			Amount:    input.Amount,
			Bank:      input.Bank,
			AccountNo: input.AccountNo,
			Status:    models.WithdrawalPending,
		}
		if err := tx.Create(&request).Error; err != nil {
			return err
		}

		// Potong saldo sekarang juga. Key pakai ID request, jadi
		// retry request yang sama tidak motong dua kali.
		_, err := services.Post(tx,
			fmt.Sprintf("withdraw:%d", request.ID),
			userID.(uint64),
			-input.Amount,
			models.FieldBalance,
			models.PostingPayout,
			fmt.Sprintf("penarikan ke %s %s", input.Bank, input.AccountNo),
		)
		return err
	})
	if err != nil {
		if errors.Is(err, services.ErrInsufficientFunds) {
			utils.APIResponse(c, http.StatusBadRequest, false, "Saldo tidak cukup!", nil)
			return
		}
		utils.APIResponse(c, http.StatusInternalServerError, false, "Gagal memproses penarikan", err.Error())
		return
	}

	utils.APIResponse(c, http.StatusCreated, true, "Permintaan penarikan berhasil diajukan. Tunggu konfirmasi Admin.", request)
}

// GetMyWithdrawals riwayat penarikan user
func GetMyWithdrawals(c *gin.Context) {
	userID, _ := c.Get("userID")

	var wallet models.Wallet
	if err := config.DB.Where("user_id = ?", userID).First(&wallet).Error; err != nil {
		utils.APIResponse(c, http.StatusOK, true, "Riwayat Penarikan", []models.WithdrawalRequest{})
		return
	}

	var requests []models.WithdrawalRequest
	config.DB.Where("wallet_id = ?", wallet.ID).Order("created_at desc").Find(&requests)

	utils.APIResponse(c, http.StatusOK, true, "Riwayat Penarikan", requests)
}
