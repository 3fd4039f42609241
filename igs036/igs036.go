/*
Package igs036 implements the program ROM encryption scheme used by the
IGS036 ASIC found on PGM2 arcade boards.

The scheme operates on 16-bit words and depends on up to 24 bits of word
address. A fixed, title-independent obfuscation rotates every word by an
address-derived amount and then applies a global bitswap. Layered on top
is a per-title encryption built from 16 one-bit XORs, each gated by a
combination of the high address bits; the title key masks those XORs on
or off for every combination of the low 8 address bits, so a complete
key is 256 16-bit values. A final constant XOR covers the whole word.
*/
package igs036

import (
	"encoding/binary"
	"errors"
	"math/bits"
)

var (
	errKeyLength = errors.New("igs036: key table must hold 256 entries")
	errOddLength = errors.New("igs036: image does not hold a whole number of words")
)

// A Decryptor transforms IGS036 program ROM words using a per-title key
// table. The zero value is unkeyed and not usable; construct one with
// NewDecryptor or NewGameDecryptor.
type Decryptor struct {
	key KeyTable
}

// NewDecryptor returns a Decryptor using the supplied key table, which
// must hold exactly KeyEntries values. The table is copied.
func NewDecryptor(key []uint16) (*Decryptor, error) {
	if len(key) != KeyEntries {
		return nil, errKeyLength
	}

	d := new(Decryptor)
	copy(d.key[:], key)

	return d, nil
}

// Decrypt returns the plaintext for a single ciphertext word located at
// the given word address.
func (d *Decryptor) Decrypt(word uint16, address int) uint16 {
	return d.xorStage(deobfuscate(word, address), address) ^ fixedXor
}

// Encrypt is the inverse of Decrypt, returning the ciphertext that would
// decrypt to the given word at the given word address.
func (d *Decryptor) Encrypt(word uint16, address int) uint16 {
	return obfuscate(d.xorStage(word^fixedXor, address), address)
}

// DecryptROM decrypts a whole program ROM image in place. The image is
// a sequence of little-endian words and the word at byte offset 2*i is
// transformed using word address i, so decrypting an image in slices
// only works if the slice boundaries and word addresses are kept in
// sync. The image must hold a whole number of words.
func (d *Decryptor) DecryptROM(image []byte) error {
	if len(image)%2 != 0 {
		return errOddLength
	}

	for i := 0; i < len(image); i += 2 {
		binary.LittleEndian.PutUint16(image[i:], d.Decrypt(binary.LittleEndian.Uint16(image[i:]), i/2))
	}

	return nil
}

// EncryptROM is the inverse of DecryptROM, re-encrypting a whole plain
// image in place.
func (d *Decryptor) EncryptROM(image []byte) error {
	if len(image)%2 != 0 {
		return errOddLength
	}

	for i := 0; i < len(image); i += 2 {
		binary.LittleEndian.PutUint16(image[i:], d.Encrypt(binary.LittleEndian.Uint16(image[i:]), i/2))
	}

	return nil
}

// fixedXor is applied to every word after the key-controlled XORs.
const fixedXor = 0x1a3a

// triggers describes under what conditions each of the 16 key-controlled
// XORs fires: bit i of the word may only flip when the high address
// bits, masked with mask, equal pattern. The entry at index 10 is a
// guess; its effect is not observed in any known title.
var triggers = [16]struct{ mask, pattern int }{
	{0x0001, 0x0000}, {0x0008, 0x0008}, {0x0002, 0x0000}, {0x0004, 0x0004},
	{0x0100, 0x0000}, {0x0200, 0x0000}, {0x0400, 0x0000}, {0x0800, 0x0800},
	{0x1001, 0x0001}, {0x2002, 0x2000}, {0x4004, 0x4000}, {0x8008, 0x0000},
	{0x0010, 0x0010}, {0x0020, 0x0020}, {0x0040, 0x0000}, {0x0081, 0x0081},
}

// xorStage applies the key-controlled XORs for the given word address.
// It is its own inverse so it serves both directions.
func (d *Decryptor) xorStage(word uint16, address int) uint16 {
	mask := d.key[address&0xff]
	for i := 0; i < 16; i++ {
		if mask&(1<<i) != 0 && address>>8&triggers[i].mask == triggers[i].pattern {
			word ^= 1 << i
		}
	}

	return word
}

// deobfuscate undoes the title-independent layer, a rotation by an
// address-derived amount followed by a global bitswap.
func deobfuscate(word uint16, address int) uint16 {
	return bitswapUint16(bits.RotateLeft16(word, rotation(address)), 10, 9, 8, 7, 0, 15, 6, 5, 14, 13, 4, 3, 12, 11, 2, 1)
}

// obfuscate reapplies the title-independent layer, the inverse bitswap
// followed by the rotation back the other way.
func obfuscate(word uint16, address int) uint16 {
	return bits.RotateLeft16(bitswapUint16(word, 10, 7, 6, 3, 2, 15, 14, 13, 12, 9, 8, 5, 4, 1, 0, 11), -rotation(address))
}

// rotGroups splits the high address bits into the four groups that each
// control a rotation of the given magnitude. The highest set bit of a
// group picks, through rotEnabling, whether the group fires at all.
var rotGroups = [4]struct {
	offsets   [4]int
	magnitude int
}{
	{[4]int{15, 11, 7, 5}, 9}, // offset 15 is a guess
	{[4]int{14, 9, 3, 2}, 1},  // offset 14 is a guess
	{[4]int{13, 10, 6, 1}, 2},
	{[4]int{12, 8, 4, 0}, 4},
}

// rotation computes the amount the word at the given address is rotated
// by. The group of magnitude 9 interacts with the other three, inverting
// their enables when it fires itself, and a further term depending only
// on the low 8 address bits is added before reducing modulo 16.
func rotation(address int) int {
	enabled0 := groupEnabled(address, rotGroups[0].offsets)
	rot := enabled0 * groupDirection(address, rotGroups[0].offsets) * rotGroups[0].magnitude

	for _, g := range rotGroups[1:] {
		enabled := enabled0 ^ groupEnabled(address, g.offsets)
		rot += enabled * groupDirection(address, g.offsets) * g.magnitude
	}

	b0, b1 := address&1, address>>1&1
	b3, b4 := address>>3&1, address>>4&1
	b7 := address >> 7 & 1

	rot2 := 4 * b0
	rot2 += b4 * (b0*2 - 1)
	rot2 += 4 * b3 * (b0*2 - 1)
	rot2 *= (b7|(b0^b1^1))*2 - 1
	rot2 += 2 * ((b0 ^ b1) & (b7 ^ 1))

	return (rot + rot2) & 0xf
}

// groupEnabled scans a group's offsets from highest to lowest for the
// first one whose address bit is set and evaluates its enabling function
// over the adjusted low address bits. A group with no bit set never
// fires.
func groupEnabled(address int, offsets [4]int) int {
	for _, o := range offsets {
		if address&(1<<(8+o)) != 0 {
			aux := address
			if address&(1<<2) != 0 {
				aux ^= 0x1b
			}

			return rotEnabling[o][aux&3](aux)
		}
	}

	return 0
}

// groupDirection returns the direction, +1 or -1, a firing group rotates
// in.
func groupDirection(address int, offsets [4]int) int {
	return rotDirection[offsets[0]&3][address&7](address)*2 - 1
}
