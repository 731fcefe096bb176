package dto

import "github.com/ignatzorin/freelance-proposals/internal/models"

// ErrorResponse represents a standardized error payload
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// SuccessResponse represents a standardized success payload
type SuccessResponse struct {
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// ProfileView represents a profile as seen by a specific viewer.
// The proposal account is attached only for the owner.
type ProfileView struct {
	Profile         *models.Profile         `json:"profile"`
	IsOwner         bool                    `json:"is_owner"`
	ProposalAccount *models.ProposalAccount `json:"proposal_account,omitempty"`
	Source          string                  `json:"source,omitempty"`
}

// ProfilesResponse represents the cached profile listing
type ProfilesResponse struct {
	Profiles []*models.Profile `json:"profiles"`
	Source   string            `json:"source"`
}

// ProvisionResponse represents a freshly provisioned profile and account
type ProvisionResponse struct {
	Profile         *models.Profile         `json:"profile"`
	ProposalAccount *models.ProposalAccount `json:"proposal_account"`
}

// ProposalResponse represents a proposal annotated with its read source
type ProposalResponse struct {
	Proposal *models.Proposal `json:"proposal"`
	Source   string           `json:"source,omitempty"`
}

// UploadResponse represents a stored attachment
type UploadResponse struct {
	Path string `json:"path"`
	Size int64  `json:"size"`
}
