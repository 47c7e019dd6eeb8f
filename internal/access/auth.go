package access

import "crypto/subtle"

// VerifySecret compares a presented admin secret against the configured
// one in constant time.
//
// On mismatch it returns ErrAuthFailed and nothing else: the error never
// reveals whether a secret is configured or how close the guess was.
func VerifySecret(configured, presented string) error {
	if configured == "" {
		return ErrAuthFailed
	}
	if subtle.ConstantTimeCompare([]byte(configured), []byte(presented)) != 1 {
		return ErrAuthFailed
	}
	return nil
}
