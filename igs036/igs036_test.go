package igs036

import (
	"encoding/binary"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"golang.org/x/sync/errgroup"
)

func TestBitswapUint16(t *testing.T) {
	assert.Equal(t, uint16(0xabcd), bitswapUint16(0xabcd, 15, 14, 13, 12, 11, 10, 9, 8, 7, 6, 5, 4, 3, 2, 1, 0))
	assert.Equal(t, uint16(0x8000), bitswapUint16(0x0001, 0, 15, 14, 13, 12, 11, 10, 9, 8, 7, 6, 5, 4, 3, 2, 1))
}

func TestRotation(t *testing.T) {
	assert.Equal(t, 0, rotation(0x0000))
	assert.Equal(t, 14, rotation(0x0001))
	assert.Equal(t, 12, rotation(0x0008))
	assert.Equal(t, 0, rotation(0x0100))
	assert.Equal(t, 0, rotation(0x0108))
	assert.Equal(t, 10, rotation(0x0109))

	// bit 13 fires the magnitude 9 group which inverts the other three,
	// so all four rotate by -9-1-2-4
	assert.Equal(t, 0, rotation(0x2000))
	assert.Equal(t, 14, rotation(0x2001))
}

func TestRotationRange(t *testing.T) {
	r := rand.New(rand.NewSource(6))

	for i := 0; i < 100000; i++ {
		address := r.Intn(1 << 24)
		if rot := rotation(address); rot < 0 || rot > 15 {
			t.Fatalf("address %#x rotates by %d", address, rot)
		}
	}
}

func TestUnknownEnablingRows(t *testing.T) {
	for _, row := range [2]int{14, 15} {
		for _, f := range rotEnabling[row] {
			for address := 0; address < 0x100; address++ {
				if f(address) != 0 {
					t.Fatalf("row %d fired at address %#x", row, address)
				}
			}
		}
	}
}

func TestNewDecryptor(t *testing.T) {
	for _, n := range []int{0, KeyEntries - 1, KeyEntries + 1} {
		_, err := NewDecryptor(make([]uint16, n))
		assert.Equal(t, errKeyLength, err)
	}

	key := make([]uint16, KeyEntries)

	d, err := NewDecryptor(key)
	assert.NoError(t, err)

	// the table is copied so later changes have no effect
	before := d.Decrypt(0x1234, 0)
	key[0] = 0xffff
	assert.Equal(t, before, d.Decrypt(0x1234, 0))
}

func TestDecryptZeroKey(t *testing.T) {
	d, err := NewDecryptor(make([]uint16, KeyEntries))
	assert.NoError(t, err)

	assert.Equal(t, uint16(0x1a3a), d.Decrypt(0x0000, 0))
	assert.Equal(t, uint16(0x1aba), d.Decrypt(0x0001, 1))
}

func TestDecryptOrleg2(t *testing.T) {
	d, err := NewGameDecryptor("orleg2")
	assert.NoError(t, err)

	// key entry 0 is 0x8100 so of the 16 XORs only the one on bit 8
	// fires at address 0x100
	assert.Equal(t, uint16(0x1b3a), d.Decrypt(0x0000, 0x0100))

	for _, word := range []uint16{0x1234, 0x5a5a, 0xffff} {
		assert.Equal(t, deobfuscate(word, 0x0100)^0x0100^fixedXor, d.Decrypt(word, 0x0100))
	}
}

func TestTriggers(t *testing.T) {
	zero, err := NewDecryptor(make([]uint16, KeyEntries))
	assert.NoError(t, err)

	const word = 0x5a5a

	for i, trigger := range triggers {
		key := make([]uint16, KeyEntries)
		key[0] = 1 << i

		d, err := NewDecryptor(key)
		assert.NoError(t, err)

		fires := trigger.pattern << 8
		assert.Equal(t, zero.Decrypt(word, fires)^1<<i, d.Decrypt(word, fires))

		idle := (trigger.pattern ^ trigger.mask) << 8
		assert.Equal(t, zero.Decrypt(word, idle), d.Decrypt(word, idle))
	}
}

func TestRoundTrip(t *testing.T) {
	d, err := NewGameDecryptor("kov3")
	assert.NoError(t, err)

	for word := 0; word < 0x10000; word++ {
		if got := d.Decrypt(d.Encrypt(uint16(word), 0x77), 0x77); got != uint16(word) {
			t.Fatalf("word %#x came back as %#x", word, got)
		}
	}

	r := rand.New(rand.NewSource(1))

	for address := 0; address < 0x10000; address++ {
		word := uint16(r.Uint32())
		if got := d.Encrypt(d.Decrypt(word, address), address); got != word {
			t.Fatalf("address %#x: word %#x came back as %#x", address, word, got)
		}
	}

	for i := 0; i < 10000; i++ {
		word, address := uint16(r.Uint32()), r.Intn(1<<24)
		if got := d.Encrypt(d.Decrypt(word, address), address); got != word {
			t.Fatalf("address %#x: word %#x came back as %#x", address, word, got)
		}
		if got := d.Decrypt(d.Encrypt(word, address), address); got != word {
			t.Fatalf("address %#x: word %#x came back as %#x", address, word, got)
		}
	}
}

func TestKeyOnlyAffectsXORs(t *testing.T) {
	d1, err := NewGameDecryptor("orleg2")
	assert.NoError(t, err)

	d2, err := NewGameDecryptor("kof98umh")
	assert.NoError(t, err)

	r := rand.New(rand.NewSource(2))

	// two keys may only ever disagree by a per-address XOR difference,
	// never in how the word is permuted
	for i := 0; i < 1000; i++ {
		address := r.Intn(1 << 22)
		diff := d1.Decrypt(0, address) ^ d2.Decrypt(0, address)
		for j := 0; j < 16; j++ {
			word := uint16(r.Uint32())
			if got := d1.Decrypt(word, address) ^ d2.Decrypt(word, address); got != diff {
				t.Fatalf("address %#x word %#x: difference %#x, want %#x", address, word, got, diff)
			}
		}
	}
}

func TestDecryptROM(t *testing.T) {
	d, err := NewGameDecryptor("orleg2")
	assert.NoError(t, err)

	r := rand.New(rand.NewSource(3))

	image := make([]byte, 0x1000)
	r.Read(image)

	words := make([]uint16, len(image)/2)
	for i := range words {
		words[i] = binary.LittleEndian.Uint16(image[2*i:])
	}

	assert.NoError(t, d.DecryptROM(image))

	for i, word := range words {
		if got := binary.LittleEndian.Uint16(image[2*i:]); got != d.Decrypt(word, i) {
			t.Fatalf("word %d: got %#x, want %#x", i, got, d.Decrypt(word, i))
		}
	}

	assert.Equal(t, errOddLength, d.DecryptROM(make([]byte, 3)))
	assert.Equal(t, errOddLength, d.EncryptROM(make([]byte, 3)))
}

func TestEncryptROM(t *testing.T) {
	d, err := NewGameDecryptor("ddpdoj")
	assert.NoError(t, err)

	r := rand.New(rand.NewSource(4))

	image := make([]byte, 0x2000)
	r.Read(image)

	original := append([]byte(nil), image...)

	assert.NoError(t, d.EncryptROM(image))
	assert.NoError(t, d.DecryptROM(image))
	assert.Equal(t, original, image)
}

func TestDecryptConcurrent(t *testing.T) {
	d, err := NewGameDecryptor("kov2")
	assert.NoError(t, err)

	r := rand.New(rand.NewSource(5))

	image := make([]byte, 0x4000)
	r.Read(image)

	sequential := append([]byte(nil), image...)
	assert.NoError(t, d.DecryptROM(sequential))

	// a Decryptor is read-only after construction so disjoint slices of
	// the same image can be decrypted concurrently
	parallel := append([]byte(nil), image...)

	var g errgroup.Group

	const parts = 4
	chunk := len(parallel) / parts

	for p := 0; p < parts; p++ {
		offset := p * chunk
		g.Go(func() error {
			for i := offset; i < offset+chunk; i += 2 {
				binary.LittleEndian.PutUint16(parallel[i:], d.Decrypt(binary.LittleEndian.Uint16(parallel[i:]), i/2))
			}
			return nil
		})
	}

	assert.NoError(t, g.Wait())
	assert.Equal(t, sequential, parallel)
}
