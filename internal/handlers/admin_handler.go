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

// GetDashboardStats menampilkan ringkasan performa bisnis
func GetDashboardStats(c *gin.Context) {
	var grossRevenue int64
	var activeAffiliates int64
	var lockedCommissions int64
	var pendingWithdrawals int64

	type Result struct {
		Total int64
	}
	var res Result
	// Pakai COALESCE biar kalau null jadi 0, dan AS TOTAL biar match struct
	config.DB.Table("transactions").
		Where("status = ?", models.TrxSuccess).
		Select("COALESCE(SUM(amount), 0) as total").
		Scan(&res)
	grossRevenue = res.Total

	config.DB.Model(&models.AffiliateProfile{}).Where("is_active = ?", true).Count(&activeAffiliates)

	config.DB.Model(&models.CommissionEntry{}).Where("status = ?", models.EntryLocked).Count(&lockedCommissions)

	config.DB.Model(&models.WithdrawalRequest{}).Where("status = ?", models.WithdrawalPending).Count(&pendingWithdrawals)

	utils.APIResponse(c, http.StatusOK, true, "Data Dashboard Admin", gin.H{
		"gross_revenue":           grossRevenue,
		"active_affiliates_count": activeAffiliates,
		"locked_commissions":      lockedCommissions,
		"pending_withdrawals":     pendingWithdrawals,
	})
}

// GetAllTransactions melihat semua transaksi di sistem
func GetAllTransactions(c *gin.Context) {
	// Filter status (Opsional) ?status=SUCCESS
	status := c.Query("status")

	var trxs []models.Transaction
	query := config.DB.
		Preload("Product").
		Preload("Payer").
		Preload("Entries").
		Order("created_at desc")

	if status != "" {
		query = query.Where("status = ?", status)
	}

	query.Find(&trxs)

	utils.APIResponse(c, http.StatusOK, true, "Data Semua Transaksi", trxs)
}

// === FITUR FINANCE: APPROVAL KOMISI ===

// GetLockedEntries daftar komisi yang masih nunggu approval
func GetLockedEntries(c *gin.Context) {
	var entries []models.CommissionEntry
	config.DB.
		Where("status = ?", models.EntryLocked).
		Order("created_at asc").
		Find(&entries)

	utils.APIResponse(c, http.StatusOK, true, "Daftar Komisi Pending", entries)
}

// DecideCommissionEntry approve (rilis ke saldo) atau reverse (batalkan) satu entry
func DecideCommissionEntry(c *gin.Context) {
	entryID := utils.StringToUint64(c.Param("id"))
	var input struct {
		Action string `json:"action" binding:"required,oneof=approve reverse"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.APIResponse(c, http.StatusBadRequest, false, "Input salah", err.Error())
		return
	}

	var err error
	if input.Action == "approve" {
		err = services.ApproveEntry(config.DB, entryID)
	} else {
		err = services.ReverseEntry(config.DB, entryID)
	}
	if err != nil {
		if errors.Is(err, services.ErrValidation) {
			utils.APIResponse(c, http.StatusBadRequest, false, err.Error(), nil)
			return
		}
		utils.APIResponse(c, http.StatusInternalServerError, false, "Gagal memproses entry", err.Error())
		return
	}

	utils.APIResponse(c, http.StatusOK, true, "Status Komisi Diupdate", nil)
}

// === FITUR FINANCE: WITHDRAWAL ===

// GetPendingWithdrawals melihat request tarik dana
func GetPendingWithdrawals(c *gin.Context) {
	var withdrawals []models.WithdrawalRequest

	config.DB.
		Where("status = ?", models.WithdrawalPending).
		Order("created_at asc").
		Find(&withdrawals)

	utils.APIResponse(c, http.StatusOK, true, "Daftar Penarikan Pending", withdrawals)
}

// DecideWithdrawal menyetujui atau menolak penarikan.
// Saldonya sudah dipotong waktu request dibuat; approve tinggal tandai
// sukses, reject berarti kembalikan saldo lewat posting refund.
func DecideWithdrawal(c *gin.Context) {
	requestID := utils.StringToUint64(c.Param("id"))
	var input struct {
		Action string `json:"action" binding:"required,oneof=approve reject"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.APIResponse(c, http.StatusBadRequest, false, "Input salah", err.Error())
		return
	}

	err := config.DB.Transaction(func(tx *gorm.DB) error {
		var request models.WithdrawalRequest
		if err := tx.First(&request, requestID).Error; err != nil {
			return fmt.Errorf("%w: request %d tidak ada", services.ErrValidation, requestID)
		}

		newStatus := models.WithdrawalSuccess
		if input.Action == "reject" {
			newStatus = models.WithdrawalRejected
		}

		// Conditional update: request yang sudah diproses tidak bisa diproses lagi
		res := tx.Model(&models.WithdrawalRequest{}).
			Where("id = ? AND status = ?", requestID, models.WithdrawalPending).
			Update("status", newStatus)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("%w: request %d sudah diproses sebelumnya", services.ErrValidation, requestID)
		}

		if input.Action == "approve" {
			// Di dunia nyata: panggil API Disbursement Midtrans/Xendit di sini
			return nil
		}

		// Reject: kembalikan saldo. PAYOUT dengan amount positif = refund,
		// total_payout turun lagi.
		var wallet models.Wallet
		if err := tx.First(&wallet, request.WalletID).Error; err != nil {
			return err
		}
		_, err := services.Post(tx,
			fmt.Sprintf("withdraw-refund:%d", requestID),
			wallet.UserID,
			request.Amount,
			models.FieldBalance,
			models.PostingPayout,
			fmt.Sprintf("refund penarikan %d ditolak", requestID),
		)
		return err
	})
	if err != nil {
		if errors.Is(err, services.ErrValidation) {
			utils.APIResponse(c, http.StatusBadRequest, false, err.Error(), nil)
			return
		}
		utils.APIResponse(c, http.StatusInternalServerError, false, "Gagal memproses penarikan", err.Error())
		return
	}

	utils.APIResponse(c, http.StatusOK, true, "Status Penarikan Diupdate", nil)
}

// === FITUR ADMIN: PRODUK & USER ===

// CreateProduct admin menambah produk/membership baru
func CreateProduct(c *gin.Context) {
	var input models.Product
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.APIResponse(c, http.StatusBadRequest, false, "Input produk salah", err.Error())
		return
	}
	if input.Price <= 0 {
		utils.APIResponse(c, http.StatusBadRequest, false, "Harga harus positif", nil)
		return
	}
	if input.CommissionType == "" {
		input.CommissionType = models.CommissionPercentage
	}
	input.IsActive = true

	if err := config.DB.Create(&input).Error; err != nil {
		utils.APIResponse(c, http.StatusInternalServerError, false, "Gagal menyimpan produk", err.Error())
		return
	}
	utils.APIResponse(c, http.StatusCreated, true, "Produk Berhasil Dibuat", input)
}

// UpdateUserShare admin mengatur revenue share / tier / rate seorang user
func UpdateUserShare(c *gin.Context) {
	id := c.Param("id")
	var input struct {
		RevenueSharePercent *int64 `json:"revenue_share_percent"`
		IsFounder           *bool  `json:"is_founder"`
		IsCoFounder         *bool  `json:"is_co_founder"`
		CommissionRate      *int64 `json:"commission_rate"`
		Tier                *int   `json:"tier"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.APIResponse(c, http.StatusBadRequest, false, "Input salah", err.Error())
		return
	}

	var user models.User
	if err := config.DB.First(&user, id).Error; err != nil {
		utils.APIResponse(c, http.StatusNotFound, false, "User tidak ditemukan", nil)
		return
	}

	userUpdates := map[string]interface{}{}
	if input.RevenueSharePercent != nil {
		userUpdates["revenue_share_percent"] = *input.RevenueSharePercent
	}
	if input.IsFounder != nil {
		userUpdates["is_founder"] = *input.IsFounder
	}
	if input.IsCoFounder != nil {
		userUpdates["is_co_founder"] = *input.IsCoFounder
	}
	if len(userUpdates) > 0 {
		config.DB.Model(&user).Updates(userUpdates)
	}

	profileUpdates := map[string]interface{}{}
	if input.CommissionRate != nil {
		profileUpdates["commission_rate"] = *input.CommissionRate
	}
	if input.Tier != nil {
		profileUpdates["tier"] = *input.Tier
	}
	if len(profileUpdates) > 0 {
		config.DB.Model(&models.AffiliateProfile{}).
			Where("user_id = ?", user.ID).
			Updates(profileUpdates)
	}

	utils.APIResponse(c, http.StatusOK, true, "Data User Diupdate", nil)
}

// === FITUR ADMIN: IMPORT DATA LAMA ===

// ImportLegacyData terima batch transaksi+komisi dari sistem lama.
// Aman dipanggil ulang dengan batch yang sama (record yang sudah masuk di-skip).
func ImportLegacyData(c *gin.Context) {
	var batch services.ImportBatch
	if err := c.ShouldBindJSON(&batch); err != nil {
		utils.APIResponse(c, http.StatusBadRequest, false, "Format batch salah", err.Error())
		return
	}

	result, err := services.Reconcile(config.DB, batch, config.LoadSplitConfig())
	if err != nil {
		utils.APIResponse(c, http.StatusInternalServerError, false, "Import gagal", err.Error())
		return
	}

	utils.APIResponse(c, http.StatusOK, true, "Import Selesai", result)
}
