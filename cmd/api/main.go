package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"go-khata-ledger/internal/handler"
	"go-khata-ledger/internal/middleware"
	"go-khata-ledger/internal/model"
	"go-khata-ledger/internal/repository"
	"go-khata-ledger/internal/service"
	"go-khata-ledger/internal/ws"
	"go-khata-ledger/pkg/database"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
)

func main() {
	// 1. Load Env
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found")
	}

	// 2. Setup backends. The remote store is optional: without credentials
	// the app degrades to local-only mode instead of crashing.
	var remote repository.Store
	if database.Configured() {
		db, err := database.ConnectDB()
		if err != nil {
			log.Printf("Warning: remote database unreachable, running local-only: %v", err)
		} else {
			db.AutoMigrate(&model.User{}, &model.Contact{}, &model.Transaction{})
			remote = repository.NewPostgresStore(db)
		}
	} else {
		log.Println("No remote database configured, running local-only")
	}

	localPath := os.Getenv("LOCAL_STORE_PATH")
	if localPath == "" {
		localPath = "data/khata.json"
	}
	local, err := repository.OpenLocalStore(localPath)
	if err != nil {
		log.Fatal("Failed to open local fallback store: ", err)
	}
	defer local.Close()

	gateway := repository.NewGateway(remote, local)

	// 3. Setup WebSocket Hub
	wsHub := ws.NewHub()
	go wsHub.Run()

	// 4. Dependency Injection (Wiring Layers)
	authService := service.NewAuthService(gateway)
	khataService := service.NewKhataService(gateway, wsHub)

	authHandler := handler.NewAuthHandler(authService)
	khataHandler := handler.NewKhataHandler(khataService)

	// 5. Setup Fiber
	app := fiber.New(fiber.Config{
		AppName: "Khata Ledger v1.0",
	})

	// Middleware
	app.Use(logger.New())  // Logging request
	app.Use(recover.New()) // Panic recovery
	app.Use(cors.New())    // CORS

	// 6. Routes
	api := app.Group("/api/v1")

	// ============ PUBLIC ROUTES ============
	auth := api.Group("/auth")
	auth.Post("/signup", authHandler.SignUp)
	auth.Post("/confirm", authHandler.ConfirmSignUp)
	auth.Post("/signin", authHandler.SignIn)

	// ============ PROTECTED ROUTES ============
	protected := api.Group("", middleware.RequireAuth(authService))

	protected.Post("/auth/signout", authHandler.SignOut)
	protected.Get("/auth/me", authHandler.Me)

	protected.Get("/dashboard", khataHandler.GetDashboard)

	protected.Get("/contacts", khataHandler.GetContacts)
	protected.Post("/contacts", khataHandler.CreateContact)
	protected.Get("/contacts/:id", khataHandler.GetContact)
	protected.Put("/contacts/:id", khataHandler.UpdateContact)
	protected.Delete("/contacts/:id", khataHandler.DeleteContact)

	protected.Get("/contacts/:id/settlement", khataHandler.GetSettlement)
	protected.Post("/contacts/:id/settlement", khataHandler.SettleUp)

	protected.Get("/transactions", khataHandler.GetTransactions)
	protected.Post("/transactions", khataHandler.CreateTransaction)

	// WebSocket Route: authenticated via ?token= since browsers cannot set
	// headers on websocket upgrades.
	app.Use("/ws", func(c *fiber.Ctx) error {
		if !websocket.IsWebSocketUpgrade(c) {
			return c.SendStatus(fiber.StatusUpgradeRequired)
		}
		user, err := authService.CurrentUser(c.Query("token"))
		if err != nil || user == nil {
			return c.SendStatus(fiber.StatusUnauthorized)
		}
		c.Locals("user_id", user.ID.String())
		return c.Next()
	})
	app.Get("/ws", websocket.New(func(c *websocket.Conn) {
		userID, err := uuid.Parse(c.Locals("user_id").(string))
		if err != nil {
			return
		}
		wsHub.Register <- ws.Client{Conn: c, UserID: userID}
		defer func() { wsHub.Unregister <- c }()

		for {
			// Keep alive loop
			if _, _, err := c.ReadMessage(); err != nil {
				break
			}
		}
	}))

	// 7. Graceful Shutdown
	go func() {
		port := os.Getenv("PORT")
		if port == "" {
			port = "3000"
		}
		if err := app.Listen(":" + port); err != nil {
			log.Panic(err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")
	if err := app.Shutdown(); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server exited")
}
