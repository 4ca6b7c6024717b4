package collab

import (
	"errors"
	"math"
	"time"

	"github.com/scode/cryptvault/vault"
	"github.com/scode/cryptvault/vaultcrypto"
)

// ErrTooManyTries is returned by ReadWithRetry once the configured number
// of password attempts has been exhausted.
var ErrTooManyTries = errors.New("collab: too many incorrect password attempts")

// RetryOptions configures ReadWithRetry's backoff and wipe behavior.
type RetryOptions struct {
	MaxTries     int
	WipeOnMax    bool
	Params       vaultcrypto.Argon2Params
	SaltSeed     []byte
	DeviceSerial string
	Sleep        func(time.Duration)
}

// ReadWithRetry prompts for a password (via reader) up to opts.MaxTries
// times, deriving a phash for each attempt and trying to read the slot.
// Between failed tries it sleeps 1.2^try seconds, mirroring the backoff
// used against brute-force guessing. If every try fails and WipeOnMax is
// set, the vault is wiped before returning ErrTooManyTries.
func ReadWithRetry(v *vault.Vault, reader PasswordReader, opts RetryOptions) (*vault.ReadResult, error) {
	sleep := opts.Sleep
	if sleep == nil {
		sleep = time.Sleep
	}

	saltDigest, err := v.SaltDigest(opts.SaltSeed, opts.DeviceSerial)
	if err != nil {
		return nil, err
	}

	for try := 1; ; try++ {
		password, err := reader.ReadPassword()
		if err != nil {
			return nil, err
		}
		phash, err := vaultcrypto.DeriveHash([]byte(password), saltDigest, opts.Params)
		if err != nil {
			return nil, err
		}
		if err := v.SetPhash(phash, true); err != nil {
			return nil, err
		}

		result, err := v.ReadSlot()
		if err != nil {
			return nil, err
		}
		if result != nil {
			return result, nil
		}

		if try >= opts.MaxTries {
			if opts.WipeOnMax {
				if err := v.Wipe(); err != nil {
					return nil, err
				}
			}
			return nil, ErrTooManyTries
		}
		sleep(backoff(try))
	}
}

func backoff(try int) time.Duration {
	seconds := math.Pow(1.2, float64(try))
	return time.Duration(seconds * float64(time.Second))
}
