package handlers

import (
	"fmt"
	"net/http"
	"os"
	"time"

	"membership-backend/internal/config"
	"membership-backend/internal/models"
	"membership-backend/pkg/utils"

	"github.com/gin-gonic/gin"

	"github.com/midtrans/midtrans-go"
	"github.com/midtrans/midtrans-go/snap"
)

// GetProducts daftar produk/membership yang bisa dibeli (publik)
func GetProducts(c *gin.Context) {
	var products []models.Product
	config.DB.Where("is_active = ?", true).Find(&products)
	utils.APIResponse(c, http.StatusOK, true, "Daftar Produk", products)
}

// Checkout membuat transaksi baru (status PENDING) plus token pembayaran Midtrans
func Checkout(c *gin.Context) {
	payerID, _ := c.Get("userID")

	// Kita perlu ambil data user lengkap (Nama & Email) untuk dikirim ke Midtrans
	var payer models.User
	config.DB.First(&payer, payerID)

	var input models.CheckoutInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.APIResponse(c, http.StatusBadRequest, false, "Input Checkout Salah", err.Error())
		return
	}

	// 1. Cek Produk & Ambil Harga
	var product models.Product
	if err := config.DB.Where("id = ? AND is_active = ?", input.ProductID, true).First(&product).Error; err != nil {
		utils.APIResponse(c, http.StatusNotFound, false, "Produk tidak ditemukan", nil)
		return
	}

	// 2. Atribusi affiliate dari kode referral (boleh dari body atau ?ref=)
	refCode := input.RefCode
	if refCode == "" {
		refCode = c.Query("ref")
	}
	var affiliateID *uint64
	if refCode != "" {
		var link models.AffiliateLink
		if err := config.DB.Where("code = ?", refCode).First(&link).Error; err == nil {
			// Beli lewat link sendiri tidak dihitung komisi
			if link.UserID != payer.ID {
				affiliateID = &link.UserID
			}
		}
	}

	invoiceNo := fmt.Sprintf("INV-%d", time.Now().UnixNano()) // Unik per checkout

	// 3. Simpan Transaksi ke DB (Status PENDING)
	trx := models.Transaction{
		InvoiceNo:   invoiceNo,
		PayerID:     payer.ID,
		ProductID:   product.ID,
		Amount:      product.Price,
		Status:      models.TrxPending,
		AffiliateID: affiliateID,
	}

	if err := config.DB.Create(&trx).Error; err != nil {
		utils.APIResponse(c, http.StatusInternalServerError, false, "Gagal menyimpan transaksi", err.Error())
		return
	}

	// 4. INTEGRASI MIDTRANS SNAP

	// A. Init Client Midtrans
	var s = snap.Client{}
	s.New(os.Getenv("MIDTRANS_SERVER_KEY"), midtrans.Sandbox)

	// B. Siapkan Request Snap
	req := &snap.Request{
		TransactionDetails: midtrans.TransactionDetails{
			OrderID:  invoiceNo,
			GrossAmt: product.Price,
		},
		CreditCard: &snap.CreditCardDetails{
			Secure: true,
		},
		CustomerDetail: &midtrans.CustomerDetails{
			FName: payer.FullName,
			Email: payer.Email,
			Phone: payer.Phone,
		},
		Items: &[]midtrans.ItemDetails{
			{
				ID:    fmt.Sprintf("PRD-%d", product.ID),
				Name:  product.Name,
				Price: product.Price,
				Qty:   1,
			},
		},
	}

	// C. Minta Token ke Midtrans
	snapResp, errSnap := s.CreateTransaction(req)
	if errSnap != nil {
		utils.APIResponse(c, http.StatusInternalServerError, false, "Midtrans Error", errSnap.GetMessage())
		return
	}

	// 5. Return Response dengan Token
	utils.APIResponse(c, http.StatusCreated, true, "Checkout Berhasil! Silakan Bayar.", gin.H{
		"transaction_id": trx.ID,
		"invoice_no":     trx.InvoiceNo,
		"amount":         trx.Amount,
		"snap_token":     snapResp.Token,       // <--- INI YG DIPAKAI FRONTEND
		"redirect_url":   snapResp.RedirectURL, // <--- Link pembayaran web
	})
}

// GetMyTransactions history pembelian member
func GetMyTransactions(c *gin.Context) {
	userID, _ := c.Get("userID")

	var trxs []models.Transaction
	config.DB.
		Preload("Product").
		Where("payer_id = ?", userID).
		Order("created_at desc").
		Find(&trxs)

	utils.APIResponse(c, http.StatusOK, true, "History Transaksi", trxs)
}

// GetTransactionDetail detail satu transaksi beserta entry bagi hasilnya
func GetTransactionDetail(c *gin.Context) {
	userID, _ := c.Get("userID")
	trxID := c.Param("id")

	var trx models.Transaction
	err := config.DB.
		Preload("Product").
		Preload("Entries").
		Where("id = ? AND payer_id = ?", trxID, userID). // Pastikan ini transaksi milik dia sendiri
		First(&trx).Error
	if err != nil {
		utils.APIResponse(c, http.StatusNotFound, false, "Transaksi tidak ditemukan", nil)
		return
	}

	utils.APIResponse(c, http.StatusOK, true, "Detail Transaksi", trx)
}
