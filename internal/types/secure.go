package types

// redactedPlaceholder replaces secret values in logs and serialization.
const redactedPlaceholder = "***REDACTED***"

// redactedJSON is the pre-computed JSON encoding of the redacted placeholder.
var redactedJSON = []byte(`"***REDACTED***"`)

// SecretString prevents accidental logging or serialization of sensitive
// values (database URLs, upstream API keys). It overrides String() and
// MarshalJSON() to return a redacted placeholder.
//
// Use Unmask() where the plaintext is genuinely needed, e.g. when building
// the pgx connection string or an upstream Authorization header.
type SecretString string

// String returns a redacted placeholder instead of the raw value. Invoked
// by fmt functions via the fmt.Stringer interface.
func (s SecretString) String() string {
	return redactedPlaceholder
}

// MarshalJSON returns the redacted placeholder as a JSON string so secrets
// never appear in config dumps or structured log entries.
func (s SecretString) MarshalJSON() ([]byte, error) {
	return redactedJSON, nil
}

// Unmask returns the raw plaintext value of the secret.
func (s SecretString) Unmask() string {
	return string(s)
}
