package logging

// Standardized field names for structured logging, so that every component
// writes the same key for the same concept.
const (
	FieldRuleID        = "rule_id"
	FieldNewRuleID     = "new_rule_id"
	FieldUserID        = "user_id"
	FieldTransactionID = "transaction_id"
	FieldCategoryID    = "category_id"
	FieldMerchantID    = "merchant_id"
	FieldDate          = "date"
	FieldStatus        = "status"
	FieldMode          = "mode"
	FieldFrequency     = "frequency"
	FieldInterval      = "interval"
	FieldCount         = "count"
	FieldRangeStart    = "range_start"
	FieldRangeEnd      = "range_end"
	FieldDuration      = "duration_ms"
	FieldComponent     = "component"
	FieldMethod        = "method"
	FieldPath          = "path"
	FieldRequestID     = "request_id"
	FieldDatabase      = "database"
	FieldAddr          = "addr"
	FieldFormat        = "format"
	FieldError         = "error"
)
