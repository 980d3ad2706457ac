package ids

// GenerateDeviceID returns a 16-character URL-safe high-entropy string,
// generated fresh per agent session (never persisted across restarts).
func GenerateDeviceID() (string, error) {
	// 12 bytes of entropy base64url-encodes to exactly 16 characters.
	return randomStringURLSafe(12)
}
