package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/tyemirov/picdash/internal/docstore"
	"github.com/tyemirov/picdash/internal/docstorepg"
	"github.com/tyemirov/picdash/internal/identity"
	"github.com/tyemirov/picdash/internal/uploads"
	"github.com/tyemirov/picdash/internal/web"
	webassets "github.com/tyemirov/picdash/web"
)

var serveHTTP = func(server *http.Server) error {
	return server.ListenAndServe()
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:     "picdash",
		Short:   "Profile dashboard with email and Google sign-in, JWT cookie sessions, and presigned image uploads",
		PreRunE: prepareServerConfig,
		RunE:    runServer,
	}

	rootCmd.Flags().String("listen_addr", ":8080", "HTTP listen address")
	rootCmd.Flags().String("cookie_domain", "", "Cookie domain; empty for host-only")
	rootCmd.Flags().String("google_web_client_id", "", "Google Web OAuth Client ID; empty disables Google sign-in verification")
	rootCmd.Flags().String("jwt_signing_key", "", "HS256 signing secret for the session JWT")
	rootCmd.Flags().Duration("session_ttl", 24*time.Hour, "Session token TTL")
	rootCmd.Flags().Bool("dev_insecure_http", false, "Allow insecure HTTP for local dev")
	rootCmd.Flags().String("database_url", "", "Database URL for accounts and documents (postgres:// or sqlite://; leave empty for in-memory stores)")
	rootCmd.Flags().String("document_store", "gorm", "Document store backend: gorm or pgx (pgx requires a postgres database_url)")
	rootCmd.Flags().Bool("enable_cors", false, "Enable CORS for cross-origin clients (required to set SameSite=None cookies)")
	rootCmd.Flags().StringSlice("cors_allowed_origins", []string{}, "Allowed origins when CORS is enabled (required if enable_cors is true)")
	rootCmd.Flags().String("s3_region", "us-east-1", "Object store region")
	rootCmd.Flags().String("s3_access_key_id", "", "Object store access key id")
	rootCmd.Flags().String("s3_secret_access_key", "", "Object store secret access key")
	rootCmd.Flags().String("s3_bucket", "", "Bucket holding profile images")
	rootCmd.Flags().String("s3_endpoint", "", "Custom object store endpoint for minio-style deployments; empty for AWS")
	rootCmd.Flags().String("image_base_url", "", "Public base URL for stored images; empty derives the AWS bucket URL")

	_ = viper.BindPFlag("listen_addr", rootCmd.Flags().Lookup("listen_addr"))
	_ = viper.BindPFlag("cookie_domain", rootCmd.Flags().Lookup("cookie_domain"))
	_ = viper.BindPFlag("google_web_client_id", rootCmd.Flags().Lookup("google_web_client_id"))
	_ = viper.BindPFlag("jwt_signing_key", rootCmd.Flags().Lookup("jwt_signing_key"))
	_ = viper.BindPFlag("session_ttl", rootCmd.Flags().Lookup("session_ttl"))
	_ = viper.BindPFlag("dev_insecure_http", rootCmd.Flags().Lookup("dev_insecure_http"))
	_ = viper.BindPFlag("database_url", rootCmd.Flags().Lookup("database_url"))
	_ = viper.BindPFlag("document_store", rootCmd.Flags().Lookup("document_store"))
	_ = viper.BindPFlag("enable_cors", rootCmd.Flags().Lookup("enable_cors"))
	_ = viper.BindPFlag("cors_allowed_origins", rootCmd.Flags().Lookup("cors_allowed_origins"))
	_ = viper.BindPFlag("s3_region", rootCmd.Flags().Lookup("s3_region"))
	_ = viper.BindPFlag("s3_access_key_id", rootCmd.Flags().Lookup("s3_access_key_id"))
	_ = viper.BindPFlag("s3_secret_access_key", rootCmd.Flags().Lookup("s3_secret_access_key"))
	_ = viper.BindPFlag("s3_bucket", rootCmd.Flags().Lookup("s3_bucket"))
	_ = viper.BindPFlag("s3_endpoint", rootCmd.Flags().Lookup("s3_endpoint"))
	_ = viper.BindPFlag("image_base_url", rootCmd.Flags().Lookup("image_base_url"))

	viper.SetEnvPrefix("APP")
	viper.AutomaticEnv()

	return rootCmd
}

const (
	sessionCookieName = "picdash_session"

	configCodeMissingJWTSigningKey    = "config.missing_jwt_signing_key"
	configCodeInvalidSessionTTL       = "config.invalid_session_ttl"
	configCodeMissingBucket           = "config.missing_s3_bucket"
	configCodeUninitializedServerConf = "config.uninitialized_server_config"
)

type contextKey string

const serverConfigContextKey contextKey = "serverConfig"

func prepareServerConfig(command *cobra.Command, arguments []string) error {
	serverConfig, loadErr := LoadServerConfig()
	if loadErr != nil {
		return loadErr
	}
	existingContext := command.Context()
	if existingContext == nil {
		existingContext = context.Background()
	}
	command.SetContext(context.WithValue(existingContext, serverConfigContextKey, serverConfig))
	return nil
}

func configError(code, message string) error {
	return fmt.Errorf("%s: %s", code, message)
}

// LoadServerConfig assembles the identity configuration from viper.
func LoadServerConfig() (identity.ServerConfig, error) {
	jwtSigningKey := viper.GetString("jwt_signing_key")
	if jwtSigningKey == "" {
		return identity.ServerConfig{}, configError(configCodeMissingJWTSigningKey, "jwt_signing_key must be provided")
	}

	sessionTTL := viper.GetDuration("session_ttl")
	if sessionTTL <= 0 {
		return identity.ServerConfig{}, configError(configCodeInvalidSessionTTL, "session_ttl must be greater than zero")
	}

	return identity.ServerConfig{
		GoogleWebClientID: viper.GetString("google_web_client_id"),
		AppJWTSigningKey:  []byte(jwtSigningKey),
		AppJWTIssuer:      "picdash",
		CookieDomain:      viper.GetString("cookie_domain"),
		SessionCookieName: sessionCookieName,
		SessionTTL:        sessionTTL,
	}, nil
}

// LoadUploadsConfig assembles the object store configuration from viper.
func LoadUploadsConfig() (uploads.Config, error) {
	bucket := viper.GetString("s3_bucket")
	if bucket == "" {
		return uploads.Config{}, configError(configCodeMissingBucket, "s3_bucket must be provided")
	}
	publicBaseURL := viper.GetString("image_base_url")
	if publicBaseURL == "" {
		publicBaseURL = fmt.Sprintf("https://%s.s3.amazonaws.com", bucket)
	}
	return uploads.Config{
		Region:          viper.GetString("s3_region"),
		AccessKeyID:     viper.GetString("s3_access_key_id"),
		SecretAccessKey: viper.GetString("s3_secret_access_key"),
		Bucket:          bucket,
		BaseEndpoint:    viper.GetString("s3_endpoint"),
		PublicBaseURL:   publicBaseURL,
	}, nil
}

func runServer(command *cobra.Command, arguments []string) error {
	logger, loggerErr := zap.NewProduction()
	if loggerErr != nil {
		return loggerErr
	}
	defer func() { _ = logger.Sync() }()

	commandContext := command.Context()
	var contextValue any
	if commandContext != nil {
		contextValue = commandContext.Value(serverConfigContextKey)
	}
	serverConfig, ok := contextValue.(identity.ServerConfig)
	if !ok {
		return configError(configCodeUninitializedServerConf, "server configuration not prepared; PreRunE must execute before RunE")
	}

	uploadsConfig, uploadsErr := LoadUploadsConfig()
	if uploadsErr != nil {
		return uploadsErr
	}

	listenAddr := viper.GetString("listen_addr")
	devInsecureHTTP := viper.GetBool("dev_insecure_http")
	databaseURL := viper.GetString("database_url")
	enableCORS := viper.GetBool("enable_cors")
	corsAllowedOrigins := viper.GetStringSlice("cors_allowed_origins")

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(zapLoggerMiddleware(logger))

	if enableCORS {
		corsMiddleware, corsErr := web.ConfigureCORS(logger, corsAllowedOrigins)
		if corsErr != nil {
			return corsErr
		}
		router.Use(corsMiddleware)
	}

	router.GET("/static/dashboard-client.js", func(contextGin *gin.Context) {
		web.ServeEmbeddedStaticJS(contextGin, webassets.FS, "dashboard-client.js")
	})
	router.GET("/config.js", func(contextGin *gin.Context) {
		web.ServeDashboardConfig(contextGin, web.DashboardConfig{
			GoogleClientID: serverConfig.GoogleWebClientID,
			ImageBaseURL:   uploadsConfig.PublicBaseURL,
		})
	})
	router.GET("/", func(contextGin *gin.Context) {
		web.ServeEmbeddedHTML(contextGin, webassets.FS, "index.html")
	})
	router.GET("/dashboard", func(contextGin *gin.Context) {
		web.ServeEmbeddedHTML(contextGin, webassets.FS, "dashboard.html")
	})

	var accountStore identity.AccountStore
	var documentStore docstore.Store

	if databaseURL != "" {
		persistentAccounts, accountsErr := identity.NewDatabaseAccountStore(context.Background(), databaseURL)
		if accountsErr != nil {
			return accountsErr
		}
		accountStore = persistentAccounts

		if viper.GetString("document_store") == "pgx" {
			pool, poolErr := docstorepg.BuildPool(context.Background(), databaseURL)
			if poolErr != nil {
				return poolErr
			}
			if schemaErr := docstorepg.EnsureSchema(context.Background(), pool); schemaErr != nil {
				return schemaErr
			}
			documentStore = docstorepg.NewPostgresStore(pool)
			logger.Info("using persistent stores",
				zap.String("driver", persistentAccounts.Driver()),
				zap.String("document_store", "pgx"))
		} else {
			persistentDocuments, documentsErr := docstore.NewDatabaseStore(context.Background(), databaseURL)
			if documentsErr != nil {
				return documentsErr
			}
			documentStore = persistentDocuments
			logger.Info("using persistent stores",
				zap.String("driver", persistentAccounts.Driver()),
				zap.String("document_store", "gorm"))
		}
	} else {
		accountStore = identity.NewMemoryAccountStore()
		documentStore = docstore.NewMemoryStore()
		logger.Info("using in-memory stores")
	}

	serverConfig.AllowInsecureHTTP = devInsecureHTTP
	serverConfig.SameSiteMode = http.SameSiteStrictMode
	if enableCORS {
		serverConfig.SameSiteMode = http.SameSiteNoneMode
	}

	metricsRecorder := identity.NewCounterMetrics()

	identity.MountAuthRoutes(router, serverConfig, accountStore, identity.RouteOptions{
		Logger:  logger,
		Metrics: metricsRecorder,
	})
	docstore.MountDocumentRoutes(router, serverConfig, documentStore, logger)
	uploads.MountUploadRoutes(router, uploads.NewS3Presigner(uploadsConfig), logger)

	server := &http.Server{
		Addr:              listenAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	shutdownCtx, shutdownCancel := context.WithCancel(context.Background())
	defer shutdownCancel()

	go func() {
		stopSignals := make(chan os.Signal, 1)
		signal.Notify(stopSignals, syscall.SIGINT, syscall.SIGTERM)
		<-stopSignals
		graceCtx, graceCancel := context.WithTimeout(shutdownCtx, 10*time.Second)
		defer graceCancel()
		if err := server.Shutdown(graceCtx); err != nil {
			logger.Error("server shutdown error", zap.Error(err))
		}
	}()

	logger.Info("listening", zap.String("addr", listenAddr))
	if err := serveHTTP(server); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("listen error: %w", err)
	}
	return nil
}

func zapLoggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(contextGin *gin.Context) {
		startTime := time.Now()
		contextGin.Next()
		duration := time.Since(startTime)
		logger.Info("http",
			zap.String("method", contextGin.Request.Method),
			zap.String("path", contextGin.Request.URL.Path),
			zap.Int("status", contextGin.Writer.Status()),
			zap.String("ip", contextGin.ClientIP()),
			zap.Duration("elapsed", duration),
		)
	}
}
