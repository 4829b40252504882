package user

import "math/rand"

const (
	regIDAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	regIDLength   = 8
)

// GenerateRegistrationID returns a random 8-character registration ID.
func GenerateRegistrationID() string {
	id := make([]byte, regIDLength)
	for i := range id {
		id[i] = regIDAlphabet[rand.Intn(len(regIDAlphabet))]
	}
	return string(id)
}
