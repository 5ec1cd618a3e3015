package routes

import (
	"membership-backend/internal/handlers"
	"membership-backend/internal/middleware"

	"github.com/gin-gonic/gin"
)

func SetupRoutes(r *gin.Engine) {

	r.Use(middleware.CORSMiddleware())
	r.Use(middleware.RateLimitMiddleware())
	// Grouping API dengan Versi (v1)
	api := r.Group("/api/v1")
	{
		// Grouping Auth
		auth := api.Group("/auth")
		{
			auth.POST("/register", handlers.Register)
			auth.POST("/login", handlers.Login)
		}

		// Route publik (orang bisa liat produk dulu sebelum login)
		api.GET("/products", handlers.GetProducts)
		api.POST("/payment/notification", handlers.HandleMidtransNotification)

		// Link referral publik, dipencet orang dari mana aja
		r.GET("/r/:code", handlers.ClickRedirect)

		// 2. PROTECTED ROUTES (Harus Login / Punya Token)
		protected := api.Group("/")
		protected.Use(middleware.AuthMiddleware()) // <--- PASANG SATPAM DISINI
		{
			// Semua route di dalam kurung kurawal ini otomatis terjaga
			protected.GET("/profile", handlers.GetUserProfile)

			// MODULE CHECKOUT
			protected.POST("/checkout", handlers.Checkout)
			protected.GET("/transactions", handlers.GetMyTransactions)
			protected.GET("/transactions/:id", handlers.GetTransactionDetail)

			// MODULE WALLET
			protected.GET("/wallet", handlers.GetMyWallet)
			protected.POST("/wallet/withdraw", handlers.RequestWithdrawal)
			protected.GET("/wallet/withdrawals", handlers.GetMyWithdrawals)

			// MODULE AFFILIATE
			affiliate := protected.Group("/affiliate")
			{
				affiliate.GET("/profile", handlers.GetMyAffiliateProfile)
				affiliate.GET("/conversions", handlers.GetMyConversions)
				affiliate.GET("/commissions", handlers.GetMyCommissionEntries)
			}

			// MODULE CHALLENGE
			challenges := protected.Group("/challenges")
			{
				challenges.GET("", handlers.GetChallenges)
				challenges.POST("/:id/join", handlers.JoinChallenge)
				challenges.GET("/my-progress", handlers.GetMyProgress)
			}

			// Group Khusus Admin
			admin := protected.Group("/admin")
			admin.Use(middleware.AdminOnly())
			{
				admin.GET("/dashboard", handlers.GetDashboardStats)
				admin.GET("/transactions", handlers.GetAllTransactions)
				admin.POST("/products", handlers.CreateProduct)
				admin.PUT("/users/:id/share", handlers.UpdateUserShare)

				admin.POST("/challenges", handlers.CreateChallenge)
				admin.PATCH("/challenges/:id/deactivate", handlers.DeactivateChallenge)
				admin.PATCH("/challenges/:id/extend", handlers.ExtendChallenge)

				admin.POST("/import", handlers.ImportLegacyData)
			}

			// Group Finance (Admin juga boleh masuk)
			finance := protected.Group("/finance")
			finance.Use(middleware.FinanceOnly())
			{
				finance.GET("/commissions/locked", handlers.GetLockedEntries)
				finance.POST("/commissions/:id/decide", handlers.DecideCommissionEntry)

				finance.GET("/withdrawals/pending", handlers.GetPendingWithdrawals)
				finance.POST("/withdrawals/:id/decide", handlers.DecideWithdrawal)
			}
		}

	}
}
