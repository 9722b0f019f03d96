package handler

const (
	errInternalServer     = "Internal server error"
	errInvalidBody        = "Invalid request body"
	errValidation         = "Validation failed"
	errEmailRegistered    = "Email already registered"
	errInvalidCredentials = "Invalid credentials"
)
