package handlers

import (
	"errors"
	"fmt"
	"log"
	"net/http"

	"membership-backend/internal/config"
	"membership-backend/internal/models"
	"membership-backend/internal/services"
	"membership-backend/pkg/utils"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// Struct sederhana untuk menangkap body notifikasi Midtrans
// Midtrans mengirim JSON banyak field, tapi kita cuma butuh ini dulu
type MidtransNotification struct {
	TransactionStatus string `json:"transaction_status"`
	OrderID           string `json:"order_id"`
	FraudStatus       string `json:"fraud_status"`
	PaymentType       string `json:"payment_type"`
}

func HandleMidtransNotification(c *gin.Context) {
	var notification MidtransNotification

	// 1. Decode JSON dari Midtrans
	if err := c.ShouldBindJSON(&notification); err != nil {
		utils.APIResponse(c, http.StatusBadRequest, false, "Invalid JSON", nil)
		return
	}

	// 2. Tentukan Status Internal berdasarkan Status Midtrans
	var newStatus string

	switch notification.TransactionStatus {
	case "capture":
		if notification.FraudStatus == "challenge" {
			newStatus = models.TrxPending // Masih diverifikasi bank
		} else if notification.FraudStatus == "accept" {
			newStatus = models.TrxSuccess // Sukses CC
		}
	case "settlement":
		newStatus = models.TrxSuccess // Sukses Transfer Bank/Gopay
	case "deny", "cancel", "expire":
		newStatus = models.TrxFailed
	case "pending":
		newStatus = models.TrxPending
	default:
		newStatus = models.TrxPending
	}

	log.Printf("[Webhook] Midtrans notification - OrderID: %s, TransactionStatus: %s, FraudStatus: %s, MappedStatus: %s",
		notification.OrderID, notification.TransactionStatus, notification.FraudStatus, newStatus)

	// 3. Cari transaksi berdasarkan invoice (Midtrans kirim INV-xxxx)
	var trx models.Transaction
	if err := config.DB.Where("invoice_no = ?", notification.OrderID).First(&trx).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			log.Printf("[Webhook] Transaksi tidak ketemu: %s", notification.OrderID)
			utils.APIResponse(c, http.StatusNotFound, false, "Transaction Not Found", nil)
			return
		}
		log.Printf("[Webhook] DB error: %v", err)
		utils.APIResponse(c, http.StatusInternalServerError, false, "Database error", err.Error())
		return
	}

	if notification.PaymentType != "" && trx.PaymentChannel == "" {
		config.DB.Model(&trx).Update("payment_channel", notification.PaymentType)
	}

	switch newStatus {
	case models.TrxSuccess:
		// 4. Settle: split revenue, posting wallet, catat konversi,
		// update progress challenge. Idempoten, jadi notifikasi dobel
		// dari Midtrans aman.
		entries, err := services.SettleTransaction(config.DB, trx.ID, config.LoadSplitConfig())
		if err != nil {
			log.Printf("[Webhook] Settle gagal untuk %s: %v", notification.OrderID, err)
			utils.APIResponse(c, http.StatusInternalServerError, false, "Settlement gagal", err.Error())
			return
		}

		// 5. Kirim notifikasi (goroutine biar webhook cepat balas)
		go notifySettlement(trx, entries)

	case models.TrxFailed:
		res := config.DB.Model(&models.Transaction{}).
			Where("id = ? AND status = ?", trx.ID, models.TrxPending).
			Update("status", models.TrxFailed)
		if res.RowsAffected == 1 {
			var payer models.User
			if err := config.DB.First(&payer, trx.PayerID).Error; err == nil {
				go utils.SendNotification(
					payer.FCMToken,
					"Pembayaran Gagal/Expired ❌",
					"Maaf, pembelian Anda dibatalkan karena pembayaran gagal atau waktu habis.",
					map[string]string{"invoice_no": trx.InvoiceNo, "type": "payment_failed"},
				)
			}
		}
	}

	// 6. Response OK ke Midtrans (Wajib biar Midtrans tau kita udah terima)
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// notifySettlement kabari pembeli dan semua penerima komisi
func notifySettlement(trx models.Transaction, entries []models.CommissionEntry) {
	var payer models.User
	if err := config.DB.First(&payer, trx.PayerID).Error; err == nil {
		utils.SendNotification(
			payer.FCMToken,
			"Pembayaran Berhasil! ✅",
			"Terima kasih! Pembayaran Anda telah diterima dan akses membership sudah aktif.",
			map[string]string{"invoice_no": trx.InvoiceNo, "type": "payment_success"},
		)
	}

	for _, e := range entries {
		if e.Kind != models.KindAffiliate && e.Kind != models.KindMentor {
			continue // Admin/founder lihat dari dashboard, tidak perlu push
		}
		var beneficiary models.User
		if err := config.DB.First(&beneficiary, e.BeneficiaryID).Error; err != nil {
			continue
		}
		utils.SendNotification(
			beneficiary.FCMToken,
			"Komisi Masuk! 💰",
			fmt.Sprintf("Kamu dapat komisi %s dari penjualan %s.", utils.FormatRupiah(e.Amount), trx.InvoiceNo),
			map[string]string{"invoice_no": trx.InvoiceNo, "type": "commission_in"},
		)
	}
}
