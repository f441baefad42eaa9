package utils

import (
	"crypto/rand"
	"math/big"
	"strings"

	"github.com/google/uuid"
)

// =============================================================================
// UTILITY FUNCTIONS
// =============================================================================

// Room codes avoid characters that are easy to misread aloud (0/O, 1/I/L).
const roomCodeAlphabet = "ABCDEFGHJKMNPQRSTUVWXYZ23456789"

const RoomCodeLength = 6

// GenerateID returns a fresh room or connection id.
func GenerateID() string {
	return uuid.NewString()
}

// GenerateRoomCode returns a random code of RoomCodeLength characters.
func GenerateRoomCode() string {
	var b strings.Builder
	b.Grow(RoomCodeLength)
	limit := big.NewInt(int64(len(roomCodeAlphabet)))
	for range RoomCodeLength {
		n, err := rand.Int(rand.Reader, limit)
		if err != nil {
			// crypto/rand only fails when the OS source is unavailable.
			panic(err)
		}
		b.WriteByte(roomCodeAlphabet[n.Int64()])
	}
	return b.String()
}

// NormalizeRoomCode upper-cases and trims a code typed by a player.
func NormalizeRoomCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// ValidRoomCode reports whether code could have come from GenerateRoomCode.
func ValidRoomCode(code string) bool {
	if len(code) != RoomCodeLength {
		return false
	}
	for i := 0; i < len(code); i++ {
		if strings.IndexByte(roomCodeAlphabet, code[i]) < 0 {
			return false
		}
	}
	return true
}
