// Package authcode derives the rotating per-request authorization token from
// the application seed, the user's personal seed and a message counter. The
// token is recomputed on both sides and never stored.
package authcode

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/dmitrijs2005/syncapi/internal/common"
)

// DefaultModulo is the prime modulus of the token function.
const DefaultModulo int64 = 10000019

// MinPersonalSeed is the lower bound of a valid personal seed.
const MinPersonalSeed int64 = 1000

// Token computes the rotating token for one message. Both seeds must be
// positive; the counter increases by one per sent message.
func Token(applicationSeed, personalSeed, counter int64) int64 {
	m := DefaultModulo
	return ((applicationSeed%m)*(personalSeed%m)%m + counter%m) % m
}

// Format renders counter and token into the wire form carried in the
// AuthorizationCode envelope field.
func Format(counter, token int64) string {
	return fmt.Sprintf("%d-%d", counter, token)
}

// Parse splits a wire authorization code into counter and token.
func Parse(code string) (counter, token int64, err error) {
	before, after, found := strings.Cut(code, "-")
	if !found {
		return 0, 0, common.ErrUnauthorized
	}
	counter, err = strconv.ParseInt(before, 10, 64)
	if err != nil {
		return 0, 0, common.ErrUnauthorized
	}
	token, err = strconv.ParseInt(after, 10, 64)
	if err != nil {
		return 0, 0, common.ErrUnauthorized
	}
	return counter, token, nil
}

// Verify recomputes the token from the stored seeds and the claimed counter
// and rejects on mismatch.
func Verify(code string, applicationSeed, personalSeed int64) error {
	counter, token, err := Parse(code)
	if err != nil {
		return err
	}
	if Token(applicationSeed, personalSeed, counter) != token {
		return common.ErrUnauthorized
	}
	return nil
}

// ValidatePersonalSeed checks a personal seed supplied at user creation:
// it must be present, numeric and not below MinPersonalSeed.
func ValidatePersonalSeed(seed string) (int64, error) {
	if seed == "" {
		return 0, common.ErrPersonalSeedMissing
	}
	n, err := strconv.ParseInt(seed, 10, 64)
	if err != nil {
		return 0, common.ErrPersonalSeedNotNumeric
	}
	if n < MinPersonalSeed {
		return 0, common.ErrPersonalSeedTooSmall
	}
	return n, nil
}
