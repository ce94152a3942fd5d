package auth

import (
	"context"
	"errors"
	"math/rand"
	"strings"
	"time"

	"github.com/dmitrijs2005/syncapi/internal/common"
	"github.com/dmitrijs2005/syncapi/internal/dbx"
	"github.com/dmitrijs2005/syncapi/internal/server/models"
	"github.com/dmitrijs2005/syncapi/internal/server/repositories/repomanager"
)

// Alphabets for human-typeable pairing codes. Only consonants that sound
// unique are used, so a code can be read over the phone.
const (
	Consonants = "bcdghklnprstxz"
	Vowels     = "aeiou"
)

// ReadableCode builds a pronounceable code of length/2 consonant+vowel pairs.
func ReadableCode(length int) string {
	var b strings.Builder
	for i := 0; i < length/2; i++ {
		b.WriteByte(Consonants[rand.Intn(len(Consonants))])
		b.WriteByte(Vowels[rand.Intn(len(Vowels))])
	}
	return b.String()
}

// PairingService issues and redeems one-time pairing codes.
type PairingService struct {
	manager    repomanager.RepositoryManager
	codeLength int
	ttl        time.Duration
	now        func() time.Time
}

func NewPairingService(manager repomanager.RepositoryManager, codeLength int, ttl time.Duration) *PairingService {
	return &PairingService{manager: manager, codeLength: codeLength, ttl: ttl, now: time.Now}
}

// GenerateCode creates a pairing code for the caller's account. Only an
// authenticated device may invite further devices.
func (s *PairingService) GenerateCode(ctx context.Context, tx dbx.DBTX, rc *RequestContext) (string, error) {
	if rc.User == nil {
		return "", common.ErrUserNotFound
	}
	if rc.Device == nil {
		return "", common.ErrDeviceNotFound
	}
	if !rc.Device.IsAuthenticated {
		return "", common.ErrDeviceNotAuthorized
	}

	code := &models.PairingCode{
		UserGUID:   rc.User.GUID,
		Code:       ReadableCode(s.codeLength),
		ValidUntil: s.now().Add(s.ttl),
	}
	if err := s.manager.PairingCodes(tx).Insert(ctx, code); err != nil {
		return "", err
	}
	return code.Code, nil
}

// RedeemCode consumes a pairing code and marks the requesting device as
// authenticated. Expired codes are swept before the lookup, so an expired
// code and an unknown one are indistinguishable to the caller.
func (s *PairingService) RedeemCode(ctx context.Context, tx dbx.DBTX, rc *RequestContext, code string) error {
	if rc.User == nil {
		return common.ErrUserNotFound
	}

	repo := s.manager.PairingCodes(tx)
	if err := repo.DeleteExpired(ctx, s.now()); err != nil {
		return err
	}

	stored, err := repo.Find(ctx, code, rc.User.GUID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return common.ErrAuthorizationCodeInvalid
		}
		return err
	}

	if rc.Device == nil {
		return common.ErrDeviceNotFound
	}

	// Single use: the code is gone before the device flag flips.
	if err := repo.Delete(ctx, stored.ID); err != nil {
		return err
	}
	return s.manager.Devices(tx).SetAuthenticated(ctx, rc.Device.GUID, true)
}
