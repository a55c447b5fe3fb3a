//nolint:revive // types is a standard Go package name pattern
package types

import (
	"github.com/go-playground/validator/v10"
)

// GenerateReportRequest is the body of POST /reports.
type GenerateReportRequest struct {
	JobID      string `json:"job_id" validate:"required,uuid"`
	IncludeAll bool   `json:"include_all,omitempty"`
	Notify     bool   `json:"notify,omitempty"`
}

// GenerateReportResponse is returned immediately when a report is accepted.
type GenerateReportResponse struct {
	ReportID string      `json:"report_id"`
	State    ReportState `json:"state"`
}

// Validate validates the GenerateReportRequest using the validator.
func (r *GenerateReportRequest) Validate() error {
	validate := validator.New()
	return validate.Struct(r)
}
