package models

import "time"

// Identity is the externally authenticated principal as reported by the
// hosted auth platform. The platform owns its lifecycle; we only observe it.
type Identity struct {
	ID       string                 `json:"id"`
	Email    string                 `json:"email"`
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}

// Session pairs an Identity with a validity window. It is replaced wholesale
// on every auth-state change and never mutated in place.
type Session struct {
	AccessToken string    `json:"accessToken"`
	ExpiresAt   time.Time `json:"expiresAt"`
	Identity    *Identity `json:"identity,omitempty"`
}

// Profile is the display profile row kept in the profiles collection.
// Exactly one document per identity id; created on first observation.
type Profile struct {
	ID          string    `bson:"_id,omitempty" json:"id"`
	UserID      string    `bson:"user_id" json:"userId"`
	DisplayName string    `bson:"display_name" json:"displayName"`
	AvatarKey   string    `bson:"avatar_key,omitempty" json:"avatarKey,omitempty"`
	CreatedAt   time.Time `bson:"created_at" json:"createdAt"`
	UpdatedAt   time.Time `bson:"updated_at" json:"updatedAt"`
}

// RoleAssignment grants a single named privilege to an identity. Multiple
// rows per identity are permitted; no rows means no privileges.
type RoleAssignment struct {
	ID        string    `bson:"_id,omitempty" json:"id"`
	UserID    string    `bson:"user_id" json:"userId"`
	Role      string    `bson:"role" json:"role"`
	CreatedAt time.Time `bson:"created_at" json:"createdAt"`
}

// Photo is the metadata row written for each uploaded car photo. ThumbKey
// holds the same key as Key even when the thumbnail upload failed; the
// thumbnail bucket is best-effort and consumers fall back to the full image.
type Photo struct {
	ID        string            `bson:"_id,omitempty" json:"id"`
	UserID    string            `bson:"user_id" json:"userId"`
	CarID     string            `bson:"car_id" json:"carId"`
	Key       string            `bson:"key" json:"key"`
	ThumbKey  string            `bson:"thumb_key" json:"thumbKey"`
	Caption   string            `bson:"caption" json:"caption"`
	Tags      []string          `bson:"tags" json:"tags"`
	Specs     map[string]string `bson:"specs" json:"specs"`
	CreatedAt time.Time         `bson:"created_at" json:"createdAt"`
}
