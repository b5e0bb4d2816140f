package models

// Owned lists the tables this service migrates
func Owned() []interface{} {
	return []interface{}{
		&ApiKey{},
		&DigitalSignature{},
		&SignatureAuditEvent{},
	}
}
