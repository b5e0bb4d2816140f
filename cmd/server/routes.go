package main

import (
	"github.com/gin-gonic/gin"

	"esign.backend/internal/config"
	"esign.backend/internal/domain/entities"
	"esign.backend/internal/infrastructure/ratelimit"
	"esign.backend/internal/interfaces/http/handlers"
	"esign.backend/internal/interfaces/http/middleware"
	"esign.backend/internal/usecases"
)

type routeDeps struct {
	signatureHandler *handlers.SignatureHandler
	apiKeyHandler    *handlers.ApiKeyHandler
	apiKeyAuth       gin.HandlerFunc
	staffAuth        gin.HandlerFunc
	internalAuth     gin.HandlerFunc
	limiters         *ratelimit.Limiters
	rateLimit        config.RateLimitConfig
}

func registerAPIV1Routes(r *gin.Engine, d routeDeps) {
	limiters := d.limiters
	if limiters == nil {
		limiters = &ratelimit.Limiters{}
	}
	signLimit := middleware.RateLimitMiddleware(ratelimit.ClassSign, limiters.Sign, d.rateLimit.Sign.Window)
	statusLimit := middleware.RateLimitMiddleware(ratelimit.ClassStatus, limiters.Status, d.rateLimit.Status.Window)
	consentLimit := middleware.RateLimitMiddleware(ratelimit.ClassConsent, limiters.Consent, d.rateLimit.Consent.Window)

	v1 := r.Group("/api/v1")
	{
		signatures := v1.Group("/signatures")
		{
			signatures.POST("",
				d.apiKeyAuth,
				middleware.RequireApiKeyPermission(entities.PermissionCreateSignatures, entities.PermissionSignAgreements),
				middleware.IdempotencyMiddleware(),
				d.signatureHandler.CreateSignature,
			)
			signatures.POST("/internal", d.staffAuth, d.signatureHandler.CreateInternalSignature)

			// Signer-facing, reached from the signing portal by signature id
			signatures.POST("/:signatureId/consent/intent", consentLimit, d.signatureHandler.GrantIntent)
			signatures.POST("/:signatureId/consent/electronic-business", consentLimit, d.signatureHandler.GrantElectronicConsent)
			signatures.POST("/:signatureId/sign", signLimit, d.signatureHandler.SubmitSignature)
			signatures.GET("/:signatureId/status", statusLimit, d.signatureHandler.GetStatus)

			internal := signatures.Group("")
			internal.Use(d.internalAuth)
			{
				internal.GET("", d.signatureHandler.ListByDocument)
				internal.GET("/:signatureId/compliance", d.signatureHandler.GetCompliance)
				internal.POST("/:signatureId/verify", d.signatureHandler.VerifySignature)
				internal.POST("/:signatureId/revoke", d.signatureHandler.RevokeSignature)
				internal.POST("/:signatureId/signed-document", d.signatureHandler.GenerateSignedDocument)
			}
		}

		v1.POST("/api-keys/validate", d.apiKeyAuth, d.apiKeyHandler.ValidateApiKey)

		admin := v1.Group("/admin")
		admin.Use(d.staffAuth, middleware.RequireAdmin(usecases.StaffRoleAdmin))
		{
			admin.POST("/api-keys", d.apiKeyHandler.CreateApiKey)
			admin.GET("/api-keys", d.apiKeyHandler.ListApiKeys)
			admin.GET("/api-keys/:id", d.apiKeyHandler.GetApiKey)
			admin.PUT("/api-keys/:id", d.apiKeyHandler.UpdateApiKey)
			admin.DELETE("/api-keys/:id", d.apiKeyHandler.DeleteApiKey)
			admin.POST("/api-keys/:id/regenerate", d.apiKeyHandler.RegenerateApiKey)
		}
	}
}
