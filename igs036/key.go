package igs036

import (
	"bytes"
	"encoding/binary"
	"io"
	"io/ioutil"
	"path/filepath"
	"strings"

	"github.com/bodgit/igs/quality"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

const (
	// KeyEntries is the number of entries in a per-title key table,
	// one for every combination of the low 8 bits of the word address
	KeyEntries = 256

	// KeySize is the size of a key table in its flat binary form
	KeySize = KeyEntries * 2
)

var errTooMuch = errors.New("igs036: too much data")

// A KeyTable holds the per-title key data. Entry i masks the 16
// conditional XORs on or off for every word whose address ends in the
// 8 bits i. The table is all that distinguishes decryption between
// titles.
type KeyTable [KeyEntries]uint16

// MarshalBinary encodes the table into its flat binary form, KeyEntries
// little-endian values in address order
func (k *KeyTable) MarshalBinary() ([]byte, error) {
	w := new(bytes.Buffer)
	// Writes to bytes.Buffer never error
	_ = binary.Write(w, binary.LittleEndian, k)

	return w.Bytes(), nil
}

// UnmarshalBinary decodes the table from its flat binary form
func (k *KeyTable) UnmarshalBinary(b []byte) error {
	r := bytes.NewReader(b)
	if err := binary.Read(r, binary.LittleEndian, k); err != nil {
		return err
	}

	// There should be no more data to read
	if n, _ := io.CopyN(ioutil.Discard, r, 1); n != 0 {
		return errTooMuch
	}

	return nil
}

// A KeyFile is the YAML document wrapping an externally recovered key
// table, carrying provenance alongside the data itself.
type KeyFile struct {
	Game    string          `yaml:"game,omitempty"`
	Title   string          `yaml:"title,omitempty"`
	Quality quality.Quality `yaml:"quality,omitempty"`
	Key     []uint16        `yaml:"key"`
}

// LoadKeyFile reads a key table from path. Files ending in .yml or
// .yaml are parsed as a KeyFile document, anything else is read as the
// flat binary form which carries no metadata.
func LoadKeyFile(path string) (*KeyFile, error) {
	b, err := ioutil.ReadFile(path)
	if err != nil {
		return nil, err
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yml", ".yaml":
		f := new(KeyFile)
		if err := yaml.Unmarshal(b, f); err != nil {
			return nil, errors.Wrap(err, "igs036: cannot parse key file")
		}

		if len(f.Key) != KeyEntries {
			return nil, errKeyLength
		}

		return f, nil
	default:
		k := new(KeyTable)
		if err := k.UnmarshalBinary(b); err != nil {
			return nil, err
		}

		return &KeyFile{Key: k[:]}, nil
	}
}

// Save writes the document in YAML form to path
func (k *KeyFile) Save(path string) error {
	b, err := yaml.Marshal(k)
	if err != nil {
		return err
	}

	return ioutil.WriteFile(path, b, 0666)
}

// Decryptor returns a Decryptor keyed with the table in the file
func (k *KeyFile) Decryptor() (*Decryptor, error) {
	return NewDecryptor(k.Key)
}
