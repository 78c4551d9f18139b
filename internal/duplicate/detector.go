// Package duplicate flags identity-field collisions between a candidate asset
// and the assets already on record. The result is advisory: callers decide
// whether to block or let an operator confirm.
package duplicate

import (
	"github.com/google/uuid"

	"asset-buyback-api/internal/model"
)

// Result describes which identity fields collided and with which records.
type Result struct {
	IsDuplicate      bool                  `json:"isDuplicate"`
	DuplicateFields  []model.IdentityField `json:"duplicateFields"`
	DuplicateLabels  []string              `json:"duplicateLabels"`
	CollidingRecords []model.Asset         `json:"collidingRecords"`
}

// Check compares candidate against every record in existing, skipping the
// record whose ID equals excludeID (pass uuid.Nil to compare against all).
// Values are compared with exact, case-sensitive equality. Each field and each
// colliding record is reported once, fields in model.IdentityFields order and
// records in the order they appear in existing.
func Check(candidate model.AssetInput, existing []model.Asset, excludeID uuid.UUID) Result {
	matched := make(map[model.IdentityField]bool)
	result := Result{
		DuplicateFields:  []model.IdentityField{},
		DuplicateLabels:  []string{},
		CollidingRecords: []model.Asset{},
	}

	seen := make(map[uuid.UUID]bool)
	for _, record := range existing {
		if excludeID != uuid.Nil && record.ID == excludeID {
			continue
		}

		collides := false
		for _, field := range model.IdentityFields() {
			if record.Value(field) == candidate.Value(field) {
				matched[field] = true
				collides = true
			}
		}

		if collides && !seen[record.ID] {
			seen[record.ID] = true
			result.CollidingRecords = append(result.CollidingRecords, record)
		}
	}

	for _, field := range model.IdentityFields() {
		if matched[field] {
			result.DuplicateFields = append(result.DuplicateFields, field)
			result.DuplicateLabels = append(result.DuplicateLabels, field.Label())
		}
	}
	result.IsDuplicate = len(result.DuplicateFields) > 0

	return result
}
