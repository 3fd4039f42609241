package igs036

import (
	"testing"

	"github.com/bodgit/igs/quality"
	"github.com/stretchr/testify/assert"
)

func TestGames(t *testing.T) {
	assert.Equal(t, []string{"cjddzsp", "cjdh2", "ddpdoj", "kof98umh", "kov2", "kov3", "m312cn", "orleg2", "orleg2o"}, Games())
}

func TestGameInfo(t *testing.T) {
	g, err := GameInfo("orleg2")
	assert.NoError(t, err)
	assert.Equal(t, "Oriental Legend 2", g.Title)
	assert.Equal(t, quality.Confirmed, g.Quality)
	assert.Equal(t, int64(0x76c77c), g.HashOffset)

	g, err = GameInfo("ddpdoj")
	assert.NoError(t, err)
	assert.Equal(t, quality.Suspect, g.Quality)
	assert.Equal(t, int64(-1), g.HashOffset)

	g, err = GameInfo("kof98umh")
	assert.NoError(t, err)
	assert.Equal(t, quality.Wrong, g.Quality)

	_, err = GameInfo("neogeo")
	assert.Equal(t, errGameNotFound, err)
}

func TestKeyData(t *testing.T) {
	for _, x := range []struct {
		key         *KeyTable
		first, last uint16
	}{
		{&orleg2Key, 0x8100, 0x4264},
		{&m312cnKey, 0x1102, 0x80b0},
		{&cjddzspKey, 0x0142, 0xc9bd},
		{&cjdh2Key, 0x1180, 0x0125},
		{&kov3Key, 0x9100, 0xc3d5},
		{&kov2Key, 0x1000, 0xcbcd},
		{&ddpdojKey, 0xb102, 0x0020},
		{&kof98umhKey, 0x9202, 0x8ab8},
	} {
		assert.Equal(t, x.first, x.key[0])
		assert.Equal(t, x.last, x.key[KeyEntries-1])
	}
}

func TestNewGameDecryptor(t *testing.T) {
	parent, err := NewGameDecryptor("orleg2")
	assert.NoError(t, err)

	// orleg2o shares the key of its parent
	clone, err := NewGameDecryptor("orleg2o")
	assert.NoError(t, err)

	for _, address := range []int{0, 0x100, 0x12345} {
		assert.Equal(t, parent.Decrypt(0x5a5a, address), clone.Decrypt(0x5a5a, address))
	}

	_, err = NewGameDecryptor("kov")
	assert.Equal(t, errGameNotFound, err)
}

func TestGameKeyFile(t *testing.T) {
	f, err := GameKeyFile("orleg2o")
	assert.NoError(t, err)
	assert.Equal(t, "orleg2o", f.Game)
	assert.Equal(t, quality.Confirmed, f.Quality)
	assert.Len(t, f.Key, KeyEntries)
	assert.Equal(t, uint16(0x8100), f.Key[0])

	_, err = GameKeyFile("mslug")
	assert.Equal(t, errGameNotFound, err)
}
