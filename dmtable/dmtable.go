// Package dmtable packs and unpacks device-mapper crypt table lines —
// the output of `dmsetup table --showkeys` for a crypt target — into a
// compact binary form suitable for storing inside a vault slot. It does
// not talk to the kernel device-mapper itself; Target is the seam a
// caller wires up to actually apply or query a live mapping.
package dmtable

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/scode/cryptvault/bitpack"
)

// Table is a decoded `dmsetup table --showkeys` crypt line, minus the
// device name, which callers supply separately (it depends on which
// /dev/mapper slot the table is being loaded into, not on anything
// derivable from the table itself).
type Table struct {
	Start      uint64
	Length     uint64
	CipherMode string
	KeyHex     string
	IVOffset   uint64
	Offset     uint64
}

// Target is implemented by whatever talks to the real device-mapper on
// a given platform; this package only knows how to pack and unpack
// Table values.
type Target interface {
	// GetTable retrieves the live crypt table for devname.
	GetTable(devname string) (Table, error)
	// SetTable activates a crypt mapping at mapperName using table,
	// against the device at devname.
	SetTable(table Table, devname, mapperName string) error
}

// ParseTable parses a raw `dmsetup table --showkeys` line of the form
// "<start> <length> crypt <cipher> <key> <iv_offset> <device> <offset>".
func ParseTable(line string) (Table, string, error) {
	fields := strings.Fields(line)
	if len(fields) != 8 {
		return Table{}, "", fmt.Errorf("dmtable: expected 8 fields, got %d", len(fields))
	}
	if strings.ToLower(fields[2]) != "crypt" {
		return Table{}, "", fmt.Errorf("dmtable: unsupported target type %q", fields[2])
	}
	start, err := strconv.ParseUint(fields[0], 10, 64)
	if err != nil {
		return Table{}, "", fmt.Errorf("dmtable: parsing start: %w", err)
	}
	length, err := strconv.ParseUint(fields[1], 10, 64)
	if err != nil {
		return Table{}, "", fmt.Errorf("dmtable: parsing length: %w", err)
	}
	ivOffset, err := strconv.ParseUint(fields[5], 10, 64)
	if err != nil {
		return Table{}, "", fmt.Errorf("dmtable: parsing iv_offset: %w", err)
	}
	offset, err := strconv.ParseUint(fields[7], 10, 64)
	if err != nil {
		return Table{}, "", fmt.Errorf("dmtable: parsing offset: %w", err)
	}
	for _, c := range fields[4] {
		if !strings.ContainsRune("0123456789abcdefABCDEF", c) {
			return Table{}, "", fmt.Errorf("dmtable: key field contains non-hex data, refusing (possible LUKS device)")
		}
	}
	return Table{
		Start:      start,
		Length:     length,
		CipherMode: fields[3],
		KeyHex:     fields[4],
		IVOffset:   ivOffset,
		Offset:     offset,
	}, fields[6], nil
}

// Format renders a Table back into a `dmsetup table` line, given the
// device name to splice back in at field index 6.
func (t Table) Format(devname string) string {
	fields := []string{
		strconv.FormatUint(t.Start, 10),
		strconv.FormatUint(t.Length, 10),
		"crypt",
		t.CipherMode,
		t.KeyHex,
		strconv.FormatUint(t.IVOffset, 10),
		devname,
		strconv.FormatUint(t.Offset, 10),
	}
	return strings.Join(fields, " ")
}

// Pack compresses a Table into bytes: start/length and iv_offset/offset
// are each packed as a nibble-prefixed dual-int, the cipher/mode string
// is dictionary-compressed, and the key is packed as raw hex bytes with
// a one-byte length prefix.
func Pack(t Table) ([]byte, error) {
	var out []byte

	startLen, err := bitpack.DualIntPack(t.Start, t.Length)
	if err != nil {
		return nil, fmt.Errorf("dmtable: packing start/length: %w", err)
	}
	out = append(out, startLen...)

	cipherMode, err := bitpack.PackCipherMode(t.CipherMode)
	if err != nil {
		return nil, fmt.Errorf("dmtable: packing cipher mode: %w", err)
	}
	out = append(out, cipherMode...)

	key, err := bitpack.PackHex(t.KeyHex)
	if err != nil {
		return nil, fmt.Errorf("dmtable: packing key: %w", err)
	}
	out = append(out, key...)

	ivOffset, err := bitpack.DualIntPack(t.IVOffset, t.Offset)
	if err != nil {
		return nil, fmt.Errorf("dmtable: packing iv_offset/offset: %w", err)
	}
	out = append(out, ivOffset...)

	return out, nil
}

// Unpack reverses Pack.
func Unpack(data []byte) (Table, error) {
	ptr := 0

	start, length, n, err := bitpack.DualIntUnpack(data[ptr:])
	if err != nil {
		return Table{}, fmt.Errorf("dmtable: unpacking start/length: %w", err)
	}
	ptr += n

	cipherMode, n, err := bitpack.UnpackCipherMode(data[ptr:])
	if err != nil {
		return Table{}, fmt.Errorf("dmtable: unpacking cipher mode: %w", err)
	}
	ptr += n

	keyHex, n, err := bitpack.UnpackHex(data[ptr:])
	if err != nil {
		return Table{}, fmt.Errorf("dmtable: unpacking key: %w", err)
	}
	ptr += n

	ivOffset, offset, n, err := bitpack.DualIntUnpack(data[ptr:])
	if err != nil {
		return Table{}, fmt.Errorf("dmtable: unpacking iv_offset/offset: %w", err)
	}
	ptr += n

	return Table{
		Start:      start,
		Length:     length,
		CipherMode: cipherMode,
		KeyHex:     keyHex,
		IVOffset:   ivOffset,
		Offset:     offset,
	}, nil
}
