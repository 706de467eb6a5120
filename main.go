package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"proof-of-hygiene/config"
	"proof-of-hygiene/handlers"
	"proof-of-hygiene/services"
	"proof-of-hygiene/utils"
	"proof-of-hygiene/workers"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func main() {
	cfg := config.LoadConfig()
	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL environment variable not set")
	}
	if cfg.JWTSecret == "" {
		log.Fatal("JWT_SECRET environment variable not set")
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := gorm.Open(postgres.Open(cfg.DatabaseURL), &gorm.Config{TranslateError: true})
	if err != nil {
		log.Fatal("failed to connect to database:", err)
	}

	ledger := services.NewLedger(db)
	if err := ledger.Migrate(); err != nil {
		log.Fatal("failed to migrate database:", err)
	}

	services.RegisterMetrics()

	// --- Wallet + chain (optional) ---
	var provider services.WalletProvider
	var chain services.ChainInvoker = services.NoChain{}
	var receipts *ethclient.Client
	if cfg.WalletRPCURL != "" {
		if !common.IsHexAddress(cfg.ContractAddress) {
			log.Fatal("CONTRACT_ADDRESS must be a hex address when WALLET_RPC_URL is set")
		}
		wallet, err := services.DialWallet(ctx, cfg.WalletRPCURL)
		if err != nil {
			log.Fatal("failed to dial wallet provider:", err)
		}
		defer wallet.Close()

		receipts, err = ethclient.DialContext(ctx, cfg.ChainRPCURL)
		if err != nil {
			log.Fatal("failed to dial chain node:", err)
		}
		defer receipts.Close()

		client, err := services.NewChainClient(wallet, receipts, common.HexToAddress(cfg.ContractAddress), services.ChainOptions{
			SlashMethod:    cfg.SlashMethod,
			ConfirmTimeout: cfg.ConfirmTimeout,
			PollInterval:   cfg.ReceiptPollInterval,
			Logger:         logger,
		})
		if err != nil {
			log.Fatal("failed to build chain client:", err)
		}
		provider = wallet
		chain = client
	} else {
		log.Println("⚠️  WALLET_RPC_URL not set, wallet connect will report no provider")
	}

	// --- Avatar storage (optional) ---
	var avatars services.AvatarUploader
	if cfg.R2Enabled() {
		store, err := utils.NewR2Store(ctx, utils.R2Config{
			AccountID:       cfg.CloudflareAccountID,
			AccessKeyID:     cfg.R2AccessKeyID,
			AccessKeySecret: cfg.R2AccessKeySecret,
			Bucket:          cfg.R2Bucket,
			CDNBaseURL:      cfg.CDNBaseURL,
		})
		if err != nil {
			log.Fatal("failed to initialize R2 client:", err)
		}
		avatars = store
	}

	hub := services.NewNotificationHub()
	wallets := services.NewWalletRegistry()
	auth := services.NewAuthService(ledger, cfg.JWTSecret, cfg.SessionTTL)
	auth.OnSignOut = wallets.Remove

	connector := services.NewWalletConnector(provider)
	hygiene := services.NewHygieneService(ledger, chain, ledger, hub, logger)
	profiles := services.NewProfileService(ledger, ledger, avatars, logger)
	games := services.NewGameService(ledger, logger)
	leaderboard := services.NewLeaderboardService(ledger, logger)

	sched, err := games.StartSettlementScheduler(cfg.SettlementInterval)
	if err != nil {
		log.Fatal("failed to start settlement scheduler:", err)
	}
	defer sched.Shutdown()

	if receipts != nil {
		go workers.PollReceipts(ctx, workers.NewReceiptReconciler(ledger, receipts), cfg.ReceiptPollInterval)
	}

	app := fiber.New(fiber.Config{
		BodyLimit: services.MaxAvatarBytes + 64*1024,
	})
	app.Use(cors.New(cors.Config{
		AllowOrigins:     strings.Join(cfg.AllowedOrigins, ","),
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS,PATCH,HEAD",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, X-Requested-With, Cache-Control",
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	handlers.SetupOpsRoutes(app, db, cfg.MetricsToken)
	handlers.SetupAuthRoutes(app, auth)
	handlers.SetupProfileRoutes(app, auth, profiles)
	handlers.SetupWalletRoutes(app, auth, connector, wallets)
	handlers.SetupHygieneRoutes(app, auth, hygiene, wallets, ledger)
	handlers.SetupLeaderboardRoutes(app, leaderboard)
	handlers.SetupGameRoutes(app, auth, games)
	handlers.SetupNotificationRoutes(app, auth, hub)

	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Printf("Server error: %v", err)
		}
	}()

	log.Printf("✅ Server running on http://localhost:%s", cfg.Port)
	log.Printf("✅ Game settlement every %s", cfg.SettlementInterval)
	log.Printf("✅ CORS configured for origins: %s", strings.Join(cfg.AllowedOrigins, ","))

	<-ctx.Done()
	log.Println("Shutting down server...")
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		log.Printf("Shutdown error: %v", err)
	}
}
