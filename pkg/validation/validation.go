package validation

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	"asset-buyback-api/internal/model"
	"asset-buyback-api/pkg/datetime"
)

// Field names used as keys in ValidationError.Fields.
const (
	FieldPCName         = "pcName"
	FieldEmployeeNumber = "employeeNumber"
	FieldUsername       = "username"
	FieldSerialNumber   = "serialNumber"
	FieldMACAddress     = "macAddress"
	FieldBuybackStatus  = "buybackStatus"
	FieldDate           = "date"
	FieldStatus         = "status"
)

// MaxFieldLength bounds the free-text identity fields.
const MaxFieldLength = 255

var macRegex = regexp.MustCompile(`^([0-9A-Fa-f]{2}[:-]){5}([0-9A-Fa-f]{2})$`)

// ValidationError lists every field that failed validation for one record.
type ValidationError struct {
	Fields map[string]string
}

// NewValidationError creates an empty ValidationError.
func NewValidationError() *ValidationError {
	return &ValidationError{Fields: make(map[string]string)}
}

// Add records a failure for field. The first message for a field wins.
func (e *ValidationError) Add(field, message string) {
	if _, exists := e.Fields[field]; !exists {
		e.Fields[field] = message
	}
}

// HasErrors reports whether any field failed.
func (e *ValidationError) HasErrors() bool {
	return len(e.Fields) > 0
}

// Error implements the error interface with fields in a stable order.
func (e *ValidationError) Error() string {
	fields := make([]string, 0, len(e.Fields))
	for field := range e.Fields {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	parts := make([]string, 0, len(fields))
	for _, field := range fields {
		parts = append(parts, fmt.Sprintf("%s: %s", field, e.Fields[field]))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// ValidateMAC checks the XX:XX:XX:XX:XX:XX or XX-XX-XX-XX-XX-XX format.
// The value is not normalised; duplicates are compared verbatim.
func ValidateMAC(mac string) error {
	if mac == "" {
		return fmt.Errorf("MAC address is required")
	}
	if !macRegex.MatchString(mac) {
		return fmt.Errorf("invalid MAC address format (e.g., 00:1A:2B:3C:4D:5E)")
	}
	return nil
}

// ValidateRequired checks if a string field is not empty
func ValidateRequired(label, value string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("%s is required", label)
	}
	if len(value) > MaxFieldLength {
		return fmt.Errorf("%s cannot exceed %d characters", label, MaxFieldLength)
	}
	return nil
}

// ValidateBuybackStatus parses one of the four literal status values.
func ValidateBuybackStatus(status string) (model.BuybackStatus, error) {
	s := model.BuybackStatus(status)
	if !s.Valid() {
		return "", fmt.Errorf("invalid buyback status %q (expected Pending, Approved, In Process or Completed)", status)
	}
	return s, nil
}

// ValidateDate parses a calendar date within the range the export format
// can represent.
func ValidateDate(value string) (time.Time, error) {
	if strings.TrimSpace(value) == "" {
		return time.Time{}, fmt.Errorf("date is required")
	}
	day, err := datetime.ParseDate(value)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q", value)
	}
	if !datetime.InDisplayRange(day) {
		return time.Time{}, fmt.Errorf("date %s is outside %s to %s",
			datetime.ISODate(day), datetime.ISODate(datetime.MinDisplayDay), datetime.ISODate(datetime.MaxDisplayDay))
	}
	return day, nil
}

// ValidateAssetRequest validates every field of a candidate and converts it
// into an AssetInput. On failure no input is returned and the error is a
// *ValidationError naming all failing fields.
func ValidateAssetRequest(req model.AssetRequest) (model.AssetInput, error) {
	verr := NewValidationError()

	required := []struct {
		field, label, value string
	}{
		{FieldPCName, "PC name", req.PCName},
		{FieldEmployeeNumber, "Employee number", req.EmployeeNumber},
		{FieldUsername, "Username", req.Username},
		{FieldSerialNumber, "Serial number", req.SerialNumber},
	}
	for _, r := range required {
		if err := ValidateRequired(r.label, r.value); err != nil {
			verr.Add(r.field, err.Error())
		}
	}

	if err := ValidateMAC(req.MACAddress); err != nil {
		verr.Add(FieldMACAddress, err.Error())
	}

	status, err := ValidateBuybackStatus(req.BuybackStatus)
	if err != nil {
		verr.Add(FieldBuybackStatus, err.Error())
	}

	day, err := ValidateDate(req.Date)
	if err != nil {
		verr.Add(FieldDate, err.Error())
	}

	if verr.HasErrors() {
		return model.AssetInput{}, verr
	}

	return model.AssetInput{
		PCName:         req.PCName,
		EmployeeNumber: req.EmployeeNumber,
		Username:       req.Username,
		SerialNumber:   req.SerialNumber,
		MACAddress:     req.MACAddress,
		BuybackStatus:  status,
		Date:           day,
	}, nil
}
