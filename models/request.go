package models

import (
	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// CreateDepartmentRequest represents the request body for creating a department
type CreateDepartmentRequest struct {
	Name     string `json:"name" validate:"required,min=1,max=100"`
	ParentID *int64 `json:"parentId,omitempty" validate:"omitempty,gt=0"`
}

// RenameDepartmentRequest represents the request body for renaming a department
type RenameDepartmentRequest struct {
	Name string `json:"name" validate:"required,min=1,max=100"`
}

// ReparentRequest represents the request body for moving a department.
// A null or missing parentId promotes the department to a root.
type ReparentRequest struct {
	ParentID *int64 `json:"parentId" validate:"omitempty,gt=0"`
}

// Validate validates the create request
func (r *CreateDepartmentRequest) Validate() error {
	return validate.Struct(r)
}

// Validate validates the rename request
func (r *RenameDepartmentRequest) Validate() error {
	return validate.Struct(r)
}

// Validate validates the reparent request
func (r *ReparentRequest) Validate() error {
	return validate.Struct(r)
}
