package identity

import (
	"errors"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/tyemirov/picdash/pkg/credentials"
)

// MessageEmailAlreadyRegistered is surfaced verbatim to signup callers.
const MessageEmailAlreadyRegistered = "email is already registered"

// RouteOptions carries the ambient dependencies for the auth routes.
type RouteOptions struct {
	Logger  *zap.Logger
	Metrics MetricsRecorder
}

func (options RouteOptions) normalized() RouteOptions {
	if options.Logger == nil {
		options.Logger = zap.NewNop()
	}
	if options.Metrics == nil {
		options.Metrics = nopMetrics{}
	}
	return options
}

// MountAuthRoutes registers /auth/signup, /auth/login, /auth/logout,
// /auth/google, and /auth/me.
//
// Signup failures carry the account store's message verbatim so callers can
// show the exact reason; login failures collapse to a single generic payload.
func MountAuthRoutes(router gin.IRouter, configuration ServerConfig, accounts AccountStore, options RouteOptions) {
	options = options.normalized()

	router.POST("/auth/signup", func(contextGin *gin.Context) {
		var inbound struct {
			Email    string `json:"email"`
			Password string `json:"password"`
		}
		if err := contextGin.BindJSON(&inbound); err != nil {
			options.Metrics.Increment(metricSignupRejected)
			contextGin.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid_json"})
			return
		}
		if !credentials.IsValidEmail(inbound.Email) {
			options.Metrics.Increment(metricSignupRejected)
			contextGin.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": credentials.MessageInvalidEmail})
			return
		}
		if !credentials.IsValidPassword(inbound.Password) {
			options.Metrics.Increment(metricSignupRejected)
			contextGin.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": credentials.MessageInvalidPassword})
			return
		}

		passwordHash, hashErr := HashPassword(inbound.Password)
		if hashErr != nil {
			options.Logger.Error("password hash failed",
				zap.String("code", "auth.signup.hash_failed"),
				zap.Error(hashErr))
			contextGin.AbortWithStatus(http.StatusInternalServerError)
			return
		}

		account, createErr := accounts.CreateAccount(contextGin, inbound.Email, passwordHash)
		if createErr != nil {
			options.Metrics.Increment(metricSignupRejected)
			if errors.Is(createErr, ErrEmailAlreadyRegistered) {
				contextGin.AbortWithStatusJSON(http.StatusConflict, gin.H{"error": MessageEmailAlreadyRegistered})
				return
			}
			options.Logger.Error("account creation failed",
				zap.String("code", "auth.signup.store_failed"),
				zap.Error(createErr))
			contextGin.AbortWithStatus(http.StatusInternalServerError)
			return
		}

		if !issueSession(contextGin, configuration, options, account) {
			return
		}
		options.Metrics.Increment(metricSignupSucceeded)
		contextGin.JSON(http.StatusOK, gin.H{
			"user_id":    account.ID,
			"user_email": account.Email,
		})
	})

	router.POST("/auth/login", func(contextGin *gin.Context) {
		var inbound struct {
			Email    string `json:"email"`
			Password string `json:"password"`
		}
		if err := contextGin.BindJSON(&inbound); err != nil {
			options.Metrics.Increment(metricLoginRejected)
			contextGin.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid_credentials"})
			return
		}

		account, findErr := accounts.FindByEmail(contextGin, inbound.Email)
		if findErr != nil {
			options.Metrics.Increment(metricLoginRejected)
			options.Logger.Info("login rejected",
				zap.String("code", "auth.login.unknown_email"))
			contextGin.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid_credentials"})
			return
		}
		if account.PasswordHash == "" || VerifyPassword(account.PasswordHash, inbound.Password) != nil {
			options.Metrics.Increment(metricLoginRejected)
			options.Logger.Info("login rejected",
				zap.String("code", "auth.login.password_mismatch"),
				zap.String("user_id", account.ID))
			contextGin.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid_credentials"})
			return
		}

		if !issueSession(contextGin, configuration, options, account) {
			return
		}
		options.Metrics.Increment(metricLoginSucceeded)
		contextGin.JSON(http.StatusOK, gin.H{
			"user_id":    account.ID,
			"user_email": account.Email,
		})
	})

	router.POST("/auth/logout", func(contextGin *gin.Context) {
		clearSessionCookie(contextGin, configuration)
		options.Metrics.Increment(metricLogout)
		contextGin.Status(http.StatusNoContent)
	})

	router.POST("/auth/google", func(contextGin *gin.Context) {
		var inbound struct {
			GoogleIDToken string `json:"google_id_token"`
		}
		if err := contextGin.BindJSON(&inbound); err != nil || strings.TrimSpace(inbound.GoogleIDToken) == "" {
			options.Metrics.Increment(metricGoogleRejected)
			contextGin.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid_json"})
			return
		}

		if !configuration.AllowInsecureHTTP && !isHTTPS(contextGin.Request) {
			options.Metrics.Increment(metricGoogleRejected)
			contextGin.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "https_required"})
			return
		}

		validator, validatorErr := buildGoogleTokenValidator(contextGin)
		if validatorErr != nil {
			options.Logger.Error("google validator unavailable",
				zap.String("code", "auth.google.validator_failed"),
				zap.Error(validatorErr))
			contextGin.AbortWithStatus(http.StatusInternalServerError)
			return
		}
		payload, validateErr := validator.Validate(contextGin, inbound.GoogleIDToken, configuration.GoogleWebClientID)
		if validateErr != nil {
			options.Metrics.Increment(metricGoogleRejected)
			contextGin.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid_google_token"})
			return
		}
		issuerValue, okIssuer := payload.Claims["iss"].(string)
		if !okIssuer || (issuerValue != "https://accounts.google.com" && issuerValue != "accounts.google.com") {
			options.Metrics.Increment(metricGoogleRejected)
			contextGin.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid_issuer"})
			return
		}
		googleSub, _ := payload.Claims["sub"].(string)
		userEmail, _ := payload.Claims["email"].(string)
		emailVerified, _ := payload.Claims["email_verified"].(bool)
		userDisplayName, _ := payload.Claims["name"].(string)

		if googleSub == "" || userEmail == "" || !emailVerified {
			options.Metrics.Increment(metricGoogleRejected)
			contextGin.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unverified_identity"})
			return
		}

		account, upsertErr := accounts.UpsertGoogleAccount(contextGin, googleSub, userEmail, userDisplayName)
		if upsertErr != nil || account.ID == "" {
			options.Logger.Error("google account upsert failed",
				zap.String("code", "auth.google.store_failed"),
				zap.Error(upsertErr))
			contextGin.AbortWithStatus(http.StatusInternalServerError)
			return
		}

		if !issueSession(contextGin, configuration, options, account) {
			return
		}
		options.Metrics.Increment(metricGoogleSucceeded)
		contextGin.JSON(http.StatusOK, gin.H{
			"user_id":    account.ID,
			"user_email": account.Email,
			"display":    account.DisplayName,
		})
	})

	router.GET("/auth/me", func(contextGin *gin.Context) {
		sessionCookie, cookieErr := contextGin.Request.Cookie(configuration.SessionCookieName)
		if cookieErr != nil || sessionCookie == nil || strings.TrimSpace(sessionCookie.Value) == "" {
			contextGin.AbortWithStatus(http.StatusUnauthorized)
			return
		}
		claims, valid := parseSessionClaims(sessionCookie.Value, configuration)
		if !valid {
			contextGin.AbortWithStatus(http.StatusUnauthorized)
			return
		}
		contextGin.JSON(http.StatusOK, gin.H{
			"user_id":    claims.UserID,
			"user_email": claims.UserEmail,
			"display":    claims.UserDisplayName,
			"expires":    claims.ExpiresAt.Time,
		})
	})
}

func issueSession(contextGin *gin.Context, configuration ServerConfig, options RouteOptions, account Account) bool {
	sessionToken, sessionExpiresAt, mintErr := MintSessionJWT(account.ID, account.Email, account.DisplayName, configuration.AppJWTIssuer, configuration.AppJWTSigningKey, configuration.SessionTTL)
	if mintErr != nil {
		options.Logger.Error("session mint failed",
			zap.String("code", "auth.session.mint_failed"),
			zap.Error(mintErr))
		contextGin.AbortWithStatus(http.StatusInternalServerError)
		return false
	}
	writeSessionCookie(contextGin, configuration, sessionToken, sessionExpiresAt)
	return true
}

func writeSessionCookie(contextGin *gin.Context, configuration ServerConfig, sessionToken string, expiresAt time.Time) {
	http.SetCookie(contextGin.Writer, &http.Cookie{
		Name:     configuration.SessionCookieName,
		Value:    sessionToken,
		Path:     "/",
		Domain:   configuration.CookieDomain,
		Expires:  expiresAt,
		Secure:   !configuration.AllowInsecureHTTP,
		HttpOnly: true,
		SameSite: configuration.SameSiteMode,
	})
}

func clearSessionCookie(contextGin *gin.Context, configuration ServerConfig) {
	http.SetCookie(contextGin.Writer, &http.Cookie{
		Name:     configuration.SessionCookieName,
		Value:    "",
		Path:     "/",
		Domain:   configuration.CookieDomain,
		MaxAge:   -1,
		Secure:   !configuration.AllowInsecureHTTP,
		HttpOnly: true,
		SameSite: configuration.SameSiteMode,
	})
}

func isHTTPS(request *http.Request) bool {
	if request.TLS != nil {
		return true
	}
	scheme := request.Header.Get("X-Forwarded-Proto")
	if strings.EqualFold(scheme, "https") {
		return true
	}
	forwarded := request.Header.Get("Forwarded")
	if forwarded != "" && strings.Contains(strings.ToLower(forwarded), "proto=https") {
		return true
	}
	host, _, splitErr := net.SplitHostPort(request.Host)
	if splitErr == nil && host == "localhost" {
		return true
	}
	return false
}
