package vault

import "errors"

// Configuration errors (§7.1): surfaced immediately, before any I/O.
var (
	// ErrFileTooSmall is returned when the file's slot area cannot hold
	// at least 10 slots.
	ErrFileTooSmall = errors.New("vault: file too small to hold at least 10 slots")
	// ErrPhashExhausted is returned when the tracker's reservations would
	// overrun the phash buffer, indicating a misconfigured Argon2 buflen.
	ErrPhashExhausted = errors.New("vault: phash exhausted by tracker reservations")
	// ErrPayloadTooLarge is returned when a payload exceeds the VBA
	// maximum (255 bytes). A payload too wide for a Shamir share is not
	// rejected; WriteSlot writes it in replicated mode instead.
	ErrPayloadTooLarge = errors.New("vault: payload too large")
)

// Layout search errors (§7.3).
var (
	// ErrLayoutSearchExhausted is returned when no non-overlapping Shamir
	// offset configuration was found after the bounded search; the file
	// must be enlarged or a different password/salt used.
	ErrLayoutSearchExhausted = errors.New("vault: exhausted search for a non-overlapping slot layout")
)

// Verification errors (§7.5).
var (
	// ErrVerificationFailed is returned when the post-write readback does
	// not validate; the on-disk state is now indeterminate.
	ErrVerificationFailed = errors.New("vault: post-write verification failed")
)

// ErrNoSpareSlot is not a failure: it signals that a read succeeded but
// found only one valid copy of the data, so a rewrite is recommended to
// restore redundancy. Surfaced via ReadResult.NoSpareSlot rather than as
// an error return, since the read itself succeeded.
var ErrNoSpareSlot = errors.New("vault: no spare slot found, rewrite recommended")
