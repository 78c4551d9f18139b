package model

// IdentityField names one of the fields compared when looking for duplicates.
type IdentityField string

const (
	FieldSerialNumber   IdentityField = "serialNumber"
	FieldMACAddress     IdentityField = "macAddress"
	FieldPCName         IdentityField = "pcName"
	FieldEmployeeNumber IdentityField = "employeeNumber"
	FieldUsername       IdentityField = "username"
)

// IdentityFields returns the identity fields in reporting order.
func IdentityFields() []IdentityField {
	return []IdentityField{
		FieldSerialNumber,
		FieldMACAddress,
		FieldPCName,
		FieldEmployeeNumber,
		FieldUsername,
	}
}

// Label is the human readable column name, shared with the spreadsheet header.
func (f IdentityField) Label() string {
	switch f {
	case FieldSerialNumber:
		return "Serial Number"
	case FieldMACAddress:
		return "MAC Address"
	case FieldPCName:
		return "PC Name"
	case FieldEmployeeNumber:
		return "Employee Number"
	case FieldUsername:
		return "Username"
	}
	return string(f)
}

// Value returns the input's value for the identity field.
func (in AssetInput) Value(f IdentityField) string {
	switch f {
	case FieldSerialNumber:
		return in.SerialNumber
	case FieldMACAddress:
		return in.MACAddress
	case FieldPCName:
		return in.PCName
	case FieldEmployeeNumber:
		return in.EmployeeNumber
	case FieldUsername:
		return in.Username
	}
	return ""
}

// Value returns the asset's value for the identity field.
func (a Asset) Value(f IdentityField) string {
	return a.Input().Value(f)
}
