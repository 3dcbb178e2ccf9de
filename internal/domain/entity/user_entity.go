package entity

import (
	"time"
)

// Subscription plan constants. The free tier is always available; every paid
// unit of balance extends the limits.
const (
	FreeToolLimit   = 20
	FreeFolderLimit = 3
	ToolsPerUnit    = 10
	FoldersPerUnit  = 1

	MaxToolsPerFolder = 5
	MaxSavedTools     = 200
)

// SavedTool is a denormalized snapshot of a catalog tool kept inside a user
// document. ToolID keys cleanup; Name is retained for older documents that
// predate the id field.
type SavedTool struct {
	ToolID      string    `bson:"tool_id,omitempty" json:"tool_id,omitempty"`
	Name        string    `bson:"name" json:"name"`
	LogoURL     string    `bson:"logo_url" json:"logo_url"`
	WebsiteURL  string    `bson:"website_url" json:"website_url"`
	Description string    `bson:"description,omitempty" json:"description,omitempty"`
	Category    string    `bson:"category,omitempty" json:"category,omitempty"`
	SavedAt     time.Time `bson:"saved_at" json:"saved_at"`
}

// Folder is a user-defined named grouping of saved tools.
type Folder struct {
	Name      string      `bson:"name" json:"name"`
	Tools     []SavedTool `bson:"tools" json:"tools"`
	CreatedAt time.Time   `bson:"created_at" json:"created_at"`
}

// PaymentRecord is immutable once created. PaymentID is the idempotency key:
// a given payment id appears at most once in a user's history.
type PaymentRecord struct {
	OrderID    string    `bson:"order_id" json:"order_id"`
	PaymentID  string    `bson:"payment_id" json:"payment_id"`
	Amount     int64     `bson:"amount" json:"amount"` // minor currency units
	Currency   string    `bson:"currency" json:"currency"`
	Status     string    `bson:"status" json:"status"`
	PlanAmount int       `bson:"plan_amount" json:"plan_amount"` // major units credited
	CreatedAt  time.Time `bson:"created_at" json:"created_at"`
}

// User mirrors an identity-provider account and carries all tool references,
// folders and the accumulated subscription balance. PlanAmount only grows
// outside of explicit administrative action.
type User struct {
	ID            string          `bson:"_id,omitempty" json:"id"`
	ClerkID       string          `bson:"clerk_id" json:"clerk_id"`
	Email         string          `bson:"email" json:"email"`
	Name          string          `bson:"name,omitempty" json:"name,omitempty"`
	Image         string          `bson:"image,omitempty" json:"image,omitempty"`
	EmailVerified *time.Time      `bson:"email_verified,omitempty" json:"email_verified,omitempty"`
	IsActive      bool            `bson:"is_active" json:"-"`
	LastLogin     *time.Time      `bson:"last_login,omitempty" json:"-"`
	LikedTools    []string        `bson:"liked_tools" json:"liked_tools"`
	SavedTools    []SavedTool     `bson:"saved_tools" json:"saved_tools"`
	Folders       []Folder        `bson:"folders" json:"folders"`
	IsSubscribed  bool            `bson:"is_subscribed" json:"is_subscribed"`
	PlanAmount    int             `bson:"plan_amount" json:"plan_amount"`
	PaymentHist   []PaymentRecord `bson:"payment_history" json:"payment_history"`
	CreatedAt     time.Time       `bson:"created_at" json:"created_at"`
	UpdatedAt     time.Time       `bson:"updated_at" json:"updated_at"`
}

// ToolLimit derives the saved-tool cap from the current balance. Entitlements
// are always recomputed, never stored as the source of truth.
func (u *User) ToolLimit() int {
	if u.IsSubscribed && u.PlanAmount > 0 {
		return FreeToolLimit + u.PlanAmount*ToolsPerUnit
	}
	return FreeToolLimit
}

// FolderLimit derives the folder cap from the current balance.
func (u *User) FolderLimit() int {
	if u.IsSubscribed && u.PlanAmount > 0 {
		return FreeFolderLimit + u.PlanAmount*FoldersPerUnit
	}
	return FreeFolderLimit
}

// TotalSavedTools counts unsorted saved tools plus every folder entry.
func (u *User) TotalSavedTools() int {
	n := len(u.SavedTools)
	for _, f := range u.Folders {
		n += len(f.Tools)
	}
	return n
}

func (u *User) CanSaveMoreTools() bool {
	return u.TotalSavedTools() < u.ToolLimit()
}

func (u *User) CanCreateMoreFolders() bool {
	return len(u.Folders) < u.FolderLimit()
}

// FindFolder returns the folder with the given name, or nil.
func (u *User) FindFolder(name string) *Folder {
	for i := range u.Folders {
		if u.Folders[i].Name == name {
			return &u.Folders[i]
		}
	}
	return nil
}

// HasLiked reports whether the tool id is in the user's likes.
func (u *User) HasLiked(toolID string) bool {
	for _, id := range u.LikedTools {
		if id == toolID {
			return true
		}
	}
	return false
}

// HasSaved reports whether the tool is referenced from the unsorted list or
// any folder, matching by id when present and by name snapshot otherwise.
func (u *User) HasSaved(toolID, title string) bool {
	match := func(st SavedTool) bool {
		return (st.ToolID != "" && st.ToolID == toolID) || st.Name == title
	}
	for _, st := range u.SavedTools {
		if match(st) {
			return true
		}
	}
	for _, f := range u.Folders {
		for _, st := range f.Tools {
			if match(st) {
				return true
			}
		}
	}
	return false
}

// HasPayment reports whether a payment id is already recorded.
func (u *User) HasPayment(paymentID string) bool {
	for _, p := range u.PaymentHist {
		if p.PaymentID == paymentID {
			return true
		}
	}
	return false
}
