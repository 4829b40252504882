package school

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/Aarth-Web/ss-backend/core"
)

type School struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	RegistrationID string    `json:"registrationId"`
	Address        string    `json:"address,omitempty"`
	CreatedBy      string    `json:"createdBy,omitempty"`
	IsActive       bool      `json:"isActive"`
	CreatedAt      time.Time `json:"createdAt"` // UTC
	UpdatedAt      time.Time `json:"updatedAt"` // UTC
}

// LimitedInfo is the reduced view exposed to teachers.
type LimitedInfo struct {
	Name    string `json:"name"`
	Address string `json:"address,omitempty"`
}

func (s School) LimitedInfo() LimitedInfo {
	return LimitedInfo{Name: s.Name, Address: s.Address}
}

// NewSchool contains information needed to register a new School.
type NewSchool struct {
	Name    string `json:"name" validate:"required"`
	Address string `json:"address"`
}

func (ns *NewSchool) Validate(validate *validator.Validate) error {
	ns.Name = core.CleanString(ns.Name)
	ns.Address = core.CleanString(ns.Address)
	return validate.Struct(ns)
}

// UpdateSchool defines what information may be provided to modify an existing
// School. The caller decides which fields actually apply via an allowed-field
// set.
type UpdateSchool struct {
	Name     string `json:"name"`
	Address  string `json:"address"`
	IsActive *bool  `json:"isActive"`
}

func (us *UpdateSchool) Validate(validate *validator.Validate) error {
	us.Name = core.CleanString(us.Name)
	us.Address = core.CleanString(us.Address)
	return validate.Struct(us)
}

type QueryFilter struct {
	Search string
	Page   core.Page
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
	qf.Page.Clean()
}
