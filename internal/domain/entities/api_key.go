package entities

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/volatiletech/null/v8"
)

// ApiKeyType classifies who owns a key
type ApiKeyType string

const (
	ApiKeyTypeInternal ApiKeyType = "internal"
	ApiKeyTypeCustomer ApiKeyType = "customer"
	ApiKeyTypeDealer   ApiKeyType = "dealer"
	ApiKeyTypeSystem   ApiKeyType = "system"
)

func (t ApiKeyType) Valid() bool {
	switch t {
	case ApiKeyTypeInternal, ApiKeyTypeCustomer, ApiKeyTypeDealer, ApiKeyTypeSystem:
		return true
	}
	return false
}

// Trusted reports whether the key may call internal-only endpoints
func (t ApiKeyType) Trusted() bool {
	return t == ApiKeyTypeInternal || t == ApiKeyTypeSystem
}

// EntityKind names the closed set of entities a key can belong to
type EntityKind string

const (
	EntityKindUser   EntityKind = "User"
	EntityKindDealer EntityKind = "Dealer"
	EntityKindDeal   EntityKind = "Deal"
)

// EntityRef points at the entity a key acts for
type EntityRef struct {
	Kind EntityKind `json:"kind"`
	ID   string     `json:"id"`
}

func (r EntityRef) Validate() error {
	switch r.Kind {
	case EntityKindUser, EntityKindDealer, EntityKindDeal:
	default:
		return fmt.Errorf("unknown entity kind %q", r.Kind)
	}
	if r.ID == "" {
		return fmt.Errorf("entity id is required")
	}
	return nil
}

// Permission is a single capability granted to a key
type Permission string

const (
	PermissionSignAgreements   Permission = "signAgreements"
	PermissionViewDocuments    Permission = "viewDocuments"
	PermissionCreateSignatures Permission = "createSignatures"
)

// Permissions is the fixed capability set of a key
type Permissions struct {
	SignAgreements   bool `json:"signAgreements"`
	ViewDocuments    bool `json:"viewDocuments"`
	CreateSignatures bool `json:"createSignatures"`
}

func (p Permissions) Has(perm Permission) bool {
	switch perm {
	case PermissionSignAgreements:
		return p.SignAgreements
	case PermissionViewDocuments:
		return p.ViewDocuments
	case PermissionCreateSignatures:
		return p.CreateSignatures
	}
	return false
}

// HasAny reports whether at least one of perms is granted
func (p Permissions) HasAny(perms ...Permission) bool {
	for _, perm := range perms {
		if p.Has(perm) {
			return true
		}
	}
	return false
}

// ApiKey is a long-lived credential for non-interactive callers.
// Only the sha256 of the raw key is stored.
type ApiKey struct {
	ID          uuid.UUID     `json:"id"`
	Name        string        `json:"name"`
	KeyPrefix   string        `json:"keyPrefix"`
	KeyHash     string        `json:"-"`
	Type        ApiKeyType    `json:"type"`
	Entity      EntityRef     `json:"entity"`
	Permissions Permissions   `json:"permissions"`
	IsActive    bool          `json:"isActive"`
	ExpiresAt   null.Time     `json:"expiresAt,omitempty"`
	UsageCount  int64         `json:"usageCount"`
	LastUsed    null.Time     `json:"lastUsed,omitempty"`
	CreatedBy   uuid.NullUUID `json:"createdBy,omitempty"`
	CreatedAt   time.Time     `json:"createdAt"`
	UpdatedAt   time.Time     `json:"updatedAt"`
}

// IsExpired reports whether the key has an expiry at or before now
func (k *ApiKey) IsExpired(now time.Time) bool {
	return k.ExpiresAt.Valid && !now.Before(k.ExpiresAt.Time)
}

// IsValid reports whether the key may authenticate at now
func (k *ApiKey) IsValid(now time.Time) bool {
	return k.IsActive && !k.IsExpired(now)
}

// Identity is the view of a key attached to an authenticated request
func (k *ApiKey) Identity() *ApiKeyIdentity {
	return &ApiKeyIdentity{
		KeyID:       k.ID,
		Name:        k.Name,
		Type:        k.Type,
		Entity:      k.Entity,
		Permissions: k.Permissions,
	}
}

// ApiKeyIdentity is attached to request context after key authentication
type ApiKeyIdentity struct {
	KeyID       uuid.UUID   `json:"keyId"`
	Name        string      `json:"name"`
	Type        ApiKeyType  `json:"type"`
	Entity      EntityRef   `json:"entity"`
	Permissions Permissions `json:"permissions"`
}

type CreateApiKeyInput struct {
	Name        string      `json:"name" binding:"required"`
	Type        ApiKeyType  `json:"type" binding:"required"`
	Entity      EntityRef   `json:"entity"`
	Permissions Permissions `json:"permissions"`
	ExpiresAt   *time.Time  `json:"expiresAt"`
}

type UpdateApiKeyInput struct {
	Name        *string      `json:"name"`
	Permissions *Permissions `json:"permissions"`
	IsActive    *bool        `json:"isActive"`
	ExpiresAt   *time.Time   `json:"expiresAt"`
}

// CreateApiKeyResponse carries the raw key, shown once
type CreateApiKeyResponse struct {
	ApiKey *ApiKey `json:"apiKey"`
	RawKey string  `json:"key"`
}

// StaffIdentity is attached after staff bearer token authentication
type StaffIdentity struct {
	UserID uuid.UUID `json:"userId"`
	Email  string    `json:"email"`
	Role   string    `json:"role"`
	Name   string    `json:"name,omitempty"`
}
