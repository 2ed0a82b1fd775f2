package dynamo

// DynamoDB attribute names used in keys, conditions and the TTL setting.
// Using constants prevents silent runtime bugs caused by key typos.
const (
	fieldEmail       = "email"
	fieldCode        = "code"
	fieldExpiresAt   = "expires_at" // Unix seconds, DynamoDB TTL attribute
	fieldExpiresAtMs = "expires_at_ms"
	fieldUserID      = "user_id"
	fieldOwner       = "owner_id"

	// emailGuardPrefix keys the item that reserves an email in the users
	// table. Guard items carry no email attribute, so the GSI skips them.
	emailGuardPrefix = "EMAIL#"

	indexEmail = "email-index"
)
