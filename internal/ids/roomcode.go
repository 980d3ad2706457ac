package ids

import "regexp"

const roomCodeAlphabet = "ABCDEFGHJKMNPQRSTUVWXYZ23456789" // 31 chars, ambiguity-free

var roomCodePattern = regexp.MustCompile(`^HIVE-[ABCDEFGHJKMNPQRSTUVWXYZ23456789]{6}$`)

// GenerateRoomCode returns a fresh HIVE-XXXXXX code. Each X is drawn
// uniformly from roomCodeAlphabet via rejection sampling so the
// distribution stays unbiased despite the alphabet not dividing 256 evenly.
func GenerateRoomCode() (string, error) {
	const n = 6
	alphabetLen := len(roomCodeAlphabet)
	maxUnbiased := 256 - (256 % alphabetLen)

	out := make([]byte, n)
	for i := 0; i < n; {
		b, err := randomBytes(1)
		if err != nil {
			return "", err
		}
		if int(b[0]) >= maxUnbiased {
			continue
		}
		out[i] = roomCodeAlphabet[int(b[0])%alphabetLen]
		i++
	}

	return "HIVE-" + string(out), nil
}

// IsValidRoomCode reports whether s matches the room-code grammar.
func IsValidRoomCode(s string) bool {
	return roomCodePattern.MatchString(s)
}
