package main

import (
	"log"
	"os"

	"membership-backend/internal/config"
	"membership-backend/internal/routes"
	"membership-backend/pkg/utils"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func main() {
	// 1. Load Env
	err := godotenv.Load()
	if err != nil {
		log.Println("Warning: .env file not found")
	}

	// 2. Connect DB
	config.ConnectDB()

	// Init Firebase
	utils.InitFCM()

	// 3. Init Router
	r := gin.Default()

	// 4. Setup Routes (middleware global sudah dipasang di dalamnya)
	routes.SetupRoutes(r)

	// 5. Test Ping
	r.GET("/ping", func(c *gin.Context) {
		utils.APIResponse(c, 200, true, "Server OK!", nil)
	})

	// 6. Run Server
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	log.Println("Server berjalan di port " + port)
	r.Run(":" + port)
}
