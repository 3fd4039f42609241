package igs036

import (
	"io/ioutil"
	"path/filepath"
	"testing"

	"github.com/bodgit/igs/quality"
	"github.com/stretchr/testify/assert"
)

func TestKeyTableBinary(t *testing.T) {
	b, err := orleg2Key.MarshalBinary()
	assert.NoError(t, err)
	assert.Len(t, b, KeySize)
	assert.Equal(t, []byte{0x00, 0x81, 0x02, 0x92}, b[0:4])

	var k KeyTable
	assert.NoError(t, k.UnmarshalBinary(b))
	assert.Equal(t, orleg2Key, k)

	assert.Error(t, k.UnmarshalBinary(b[:KeySize-1]))
	assert.Equal(t, errTooMuch, k.UnmarshalBinary(append(b, 0x00)))
}

func TestLoadKeyFileBinary(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kov3.key")

	b, err := kov3Key.MarshalBinary()
	assert.NoError(t, err)
	assert.NoError(t, ioutil.WriteFile(path, b, 0666))

	f, err := LoadKeyFile(path)
	assert.NoError(t, err)
	assert.Equal(t, quality.Unknown, f.Quality)
	assert.Equal(t, kov3Key[:], f.Key)

	d, err := f.Decryptor()
	assert.NoError(t, err)
	assert.NotNil(t, d)
}

func TestLoadKeyFileYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "orleg2.yml")

	f, err := GameKeyFile("orleg2")
	assert.NoError(t, err)
	assert.NoError(t, f.Save(path))

	g, err := LoadKeyFile(path)
	assert.NoError(t, err)
	assert.Equal(t, f, g)

	assert.NoError(t, ioutil.WriteFile(path, []byte("key:\n- 1\n- 2\n"), 0666))
	_, err = LoadKeyFile(path)
	assert.Equal(t, errKeyLength, err)

	assert.NoError(t, ioutil.WriteFile(path, []byte("key: [not a number]\n"), 0666))
	_, err = LoadKeyFile(path)
	assert.Error(t, err)
}

func TestLoadKeyFileMissing(t *testing.T) {
	_, err := LoadKeyFile(filepath.Join(t.TempDir(), "missing.key"))
	assert.Error(t, err)
}
