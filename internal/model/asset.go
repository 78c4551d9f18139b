package model

import (
	"time"

	"github.com/google/uuid"
)

// BuybackStatus is the lifecycle stage of an asset in the buyback process.
type BuybackStatus string

const (
	StatusPending   BuybackStatus = "Pending"
	StatusApproved  BuybackStatus = "Approved"
	StatusInProcess BuybackStatus = "In Process"
	StatusCompleted BuybackStatus = "Completed"
)

// BuybackStatuses returns every status in lifecycle order.
func BuybackStatuses() []BuybackStatus {
	return []BuybackStatus{StatusPending, StatusApproved, StatusInProcess, StatusCompleted}
}

// Valid reports whether s is one of the four known statuses.
func (s BuybackStatus) Valid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusInProcess, StatusCompleted:
		return true
	}
	return false
}

// EntryStatus marks whether a record is live or kept only for the audit export.
type EntryStatus string

const (
	EntryActive  EntryStatus = "Active"
	EntryDeleted EntryStatus = "Deleted"
)

// Asset represents one tracked hardware unit.
type Asset struct {
	ID             uuid.UUID     `json:"id"`
	PCName         string        `json:"pcName"`
	EmployeeNumber string        `json:"employeeNumber"`
	Username       string        `json:"username"`
	SerialNumber   string        `json:"serialNumber"`
	MACAddress     string        `json:"macAddress"`
	BuybackStatus  BuybackStatus `json:"buybackStatus"`
	Date           time.Time     `json:"date"`
	CreatedAt      time.Time     `json:"createdAt"`
	UpdatedAt      time.Time     `json:"updatedAt"`
	StatusLog      EntryStatus   `json:"statusLog"`
}

// Input returns the mutable fields of the asset.
func (a Asset) Input() AssetInput {
	return AssetInput{
		PCName:         a.PCName,
		EmployeeNumber: a.EmployeeNumber,
		Username:       a.Username,
		SerialNumber:   a.SerialNumber,
		MACAddress:     a.MACAddress,
		BuybackStatus:  a.BuybackStatus,
		Date:           a.Date,
	}
}

// Deleted reports whether the asset only survives as an audit entry.
func (a Asset) Deleted() bool {
	return a.StatusLog == EntryDeleted
}

// AssetInput holds validated candidate fields for a create or full update.
// Date is a calendar day at UTC midnight.
type AssetInput struct {
	PCName         string
	EmployeeNumber string
	Username       string
	SerialNumber   string
	MACAddress     string
	BuybackStatus  BuybackStatus
	Date           time.Time
}

// AssetRequest is the unvalidated wire shape of a candidate asset, as it
// arrives in a JSON body or a spreadsheet row.
type AssetRequest struct {
	PCName         string `json:"pcName"`
	EmployeeNumber string `json:"employeeNumber"`
	Username       string `json:"username"`
	SerialNumber   string `json:"serialNumber"`
	MACAddress     string `json:"macAddress"`
	BuybackStatus  string `json:"buybackStatus"`
	Date           string `json:"date"`
}
