package handlers

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"esign.backend/internal/domain/entities"
	domainerrors "esign.backend/internal/domain/errors"
	"esign.backend/internal/domain/services"
	"esign.backend/internal/interfaces/http/middleware"
	"esign.backend/internal/interfaces/http/response"
	"esign.backend/internal/usecases"
)

type SignatureHandler struct {
	signatureUsecase *usecases.SignatureUsecase
}

func NewSignatureHandler(signatureUsecase *usecases.SignatureUsecase) *SignatureHandler {
	return &SignatureHandler{signatureUsecase: signatureUsecase}
}

// CreateSignature opens a signature request for an API key caller
// POST /api/v1/signatures
func (h *SignatureHandler) CreateSignature(c *gin.Context) {
	var input entities.CreateSignatureInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, domainerrors.BadRequest(err.Error()))
		return
	}

	identity, _ := middleware.GetApiKeyIdentity(c)
	sig, err := h.signatureUsecase.CreateSignature(c.Request.Context(), &input, identity, middleware.ClientInfo(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"signature": sig})
}

// CreateInternalSignature opens a request for an employee or finance signer
// POST /api/v1/signatures/internal
func (h *SignatureHandler) CreateInternalSignature(c *gin.Context) {
	var input entities.CreateSignatureInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, domainerrors.BadRequest(err.Error()))
		return
	}

	staff, _ := middleware.GetStaffIdentity(c)
	sig, err := h.signatureUsecase.CreateInternalSignature(c.Request.Context(), &input, staff, middleware.ClientInfo(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"signature": sig})
}

// GrantIntent POST /api/v1/signatures/:signatureId/consent/intent
func (h *SignatureHandler) GrantIntent(c *gin.Context) {
	view, err := h.signatureUsecase.GrantIntent(c.Request.Context(), c.Param("signatureId"), middleware.ClientInfo(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"status": view})
}

// GrantElectronicConsent POST /api/v1/signatures/:signatureId/consent/electronic-business
func (h *SignatureHandler) GrantElectronicConsent(c *gin.Context) {
	view, err := h.signatureUsecase.GrantElectronicConsent(c.Request.Context(), c.Param("signatureId"), middleware.ClientInfo(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"status": view})
}

// SubmitSignature applies the signer's mark
// POST /api/v1/signatures/:signatureId/sign
func (h *SignatureHandler) SubmitSignature(c *gin.Context) {
	var input entities.SubmitSignatureInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, domainerrors.BadRequest(err.Error()))
		return
	}

	view, err := h.signatureUsecase.SubmitSignature(c.Request.Context(), c.Param("signatureId"), &input, middleware.ClientInfo(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"status": view})
}

// GetStatus GET /api/v1/signatures/:signatureId/status
func (h *SignatureHandler) GetStatus(c *gin.Context) {
	view, err := h.signatureUsecase.GetStatus(c.Request.Context(), c.Param("signatureId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"status": view})
}

// GetCompliance GET /api/v1/signatures/:signatureId/compliance
func (h *SignatureHandler) GetCompliance(c *gin.Context) {
	report, err := h.signatureUsecase.GetCompliance(c.Request.Context(), c.Param("signatureId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, report)
}

// VerifySignature POST /api/v1/signatures/:signatureId/verify
func (h *SignatureHandler) VerifySignature(c *gin.Context) {
	report, err := h.signatureUsecase.VerifySignature(c.Request.Context(), c.Param("signatureId"), middleware.ClientInfo(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, report)
}

type revokeRequest struct {
	Reason string `json:"reason"`
}

// RevokeSignature POST /api/v1/signatures/:signatureId/revoke
func (h *SignatureHandler) RevokeSignature(c *gin.Context) {
	var req revokeRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		response.Error(c, domainerrors.BadRequest(err.Error()))
		return
	}

	sig, err := h.signatureUsecase.RevokeSignature(c.Request.Context(), c.Param("signatureId"), req.Reason, middleware.Actor(c), middleware.ClientInfo(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"signature": sig})
}

// ListByDocument GET /api/v1/signatures?documentId=&documentType=
func (h *SignatureHandler) ListByDocument(c *gin.Context) {
	sigs, err := h.signatureUsecase.ListByDocument(c.Request.Context(), c.Query("documentId"), entities.DocumentType(c.Query("documentType")))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"signatures": sigs})
}

// GenerateSignedDocument burns the mark into the document. The PDF bytes are
// returned unless ?format=json asks for the metadata only.
// POST /api/v1/signatures/:signatureId/signed-document
func (h *SignatureHandler) GenerateSignedDocument(c *gin.Context) {
	var override *services.PlacementOverride
	if c.Request.ContentLength != 0 {
		override = &services.PlacementOverride{}
		if err := c.ShouldBindJSON(override); err != nil {
			if !errors.Is(err, io.EOF) {
				response.Error(c, domainerrors.BadRequest(err.Error()))
				return
			}
			override = nil
		}
	}

	doc, err := h.signatureUsecase.GenerateSignedDocument(c.Request.Context(), c.Param("signatureId"), override, middleware.ClientInfo(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	if c.Query("format") == "json" {
		response.Success(c, http.StatusOK, gin.H{"document": doc})
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+doc.SignatureID+`.pdf"`)
	c.Header("X-Original-Size", strconv.Itoa(doc.OriginalSize))
	c.Header("X-Signed-Size", strconv.Itoa(doc.SignedSize))
	c.Header("X-Document-Hash", doc.DocumentHash)
	c.Data(http.StatusOK, "application/pdf", doc.Content)
}
