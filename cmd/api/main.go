package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/joho/godotenv"
	"github.com/studygroup-api/internal/application/auth"
	"github.com/studygroup-api/internal/config"
	"github.com/studygroup-api/internal/infrastructure/dynamo"
	firebaseauth "github.com/studygroup-api/internal/infrastructure/firebase"
	jwtinfra "github.com/studygroup-api/internal/infrastructure/jwt"
	"github.com/studygroup-api/internal/infrastructure/localauth"
	"github.com/studygroup-api/internal/infrastructure/memory"
	"github.com/studygroup-api/internal/infrastructure/sendgrid"
	"github.com/studygroup-api/internal/infrastructure/smtp"
	"github.com/studygroup-api/internal/pkg/logger"
	"github.com/studygroup-api/internal/pkg/otpcode"
	transporthttp "github.com/studygroup-api/internal/transport/http"
	"go.uber.org/zap"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, reading from environment")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if err := logger.Init(cfg.LogLevel, cfg.AppEnv); err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()
	lg := logger.WithModule("main")

	if err := cfg.Validate(); err != nil {
		lg.Fatal("invalid configuration", zap.Error(err))
	}

	ctx := context.Background()
	deps, err := buildDeps(ctx, cfg)
	if err != nil {
		lg.Fatal("startup failed", zap.Error(err))
	}

	router := transporthttp.NewRouter(cfg, deps)
	defer router.Close()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.AppPort),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		lg.Info("server starting",
			zap.String("port", cfg.AppPort),
			zap.String("env", cfg.AppEnv),
			zap.String("identity", cfg.IdentityBackend),
			zap.String("mail", cfg.MailProvider),
			zap.String("otp_store", cfg.OTPStore),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			lg.Fatal("server error", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	lg.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		lg.Error("forced shutdown", zap.Error(err))
		return
	}
	lg.Info("server stopped")
}

// buildDeps selects the ledger, credential store and mailer named by cfg.
func buildDeps(ctx context.Context, cfg *config.Config) (*transporthttp.Deps, error) {
	var dynamoClient *dynamodb.Client
	if cfg.NeedsDynamo() {
		c, err := dynamo.NewClient(ctx, cfg)
		if err != nil {
			return nil, err
		}
		// Creates the tables if they don't exist.
		dynamo.Bootstrap(ctx, c, cfg.DynamoTables)
		dynamoClient = c
	}

	var ledger auth.OTPLedger
	switch cfg.OTPStore {
	case config.OTPStoreDynamo:
		ledger = dynamo.NewOTPCodeRepo(dynamoClient, cfg.DynamoTables.OTPCodes)
	default:
		ledger = memory.NewOTPLedger()
	}

	var creds auth.CredentialStore
	switch cfg.IdentityBackend {
	case config.IdentityLocal:
		tokens, err := jwtinfra.NewProvider(cfg.JWTPrivateKeyPath, cfg.JWTPublicKeyPath, cfg.JWTExpiry)
		if err != nil {
			return nil, fmt.Errorf("jwt provider: %w", err)
		}
		creds = localauth.New(dynamo.NewUserRepo(dynamoClient, cfg.DynamoTables.Users), tokens)
	default:
		store, err := firebaseauth.New(ctx, []byte(cfg.FirebaseCredentials))
		if err != nil {
			return nil, err
		}
		creds = store
	}

	var mailer auth.Mailer
	switch cfg.MailProvider {
	case config.MailSMTP:
		mailer = smtp.NewMailer(smtp.Settings{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			From:     cfg.SenderEmail,
			FromName: cfg.SenderName,
			Username: cfg.SMTPUsername,
			Password: cfg.SMTPPassword,
		})
	default:
		mailer = sendgrid.NewMailer(cfg.SendGridAPIKey, cfg.SenderEmail, cfg.SenderName)
	}

	return &transporthttp.Deps{
		Ledger:      ledger,
		Credentials: creds,
		Mailer:      mailer,
		Codes:       otpcode.NewGenerator(cfg.OTPIssuer, cfg.OTPTTL),
	}, nil
}
