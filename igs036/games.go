package igs036

import (
	"errors"
	"sort"

	"github.com/bodgit/igs/quality"
)

var errGameNotFound = errors.New("game not found")

// A Game describes a PGM2 title with a recovered key table
type Game struct {
	Name         string
	Parent       string
	Title        string
	Year         uint32
	Manufacturer string
	Quality      quality.Quality
	// HashOffset is the byte offset of the 20-byte value hidden in the
	// pattern-filled tail of the ROM, possibly a SHA-1 hash, or -1
	// where it has not been located. The position varies per set.
	HashOffset int64
}

type game struct {
	parent       string
	key          *KeyTable
	title        string
	year         uint32
	manufacturer string
	quality      quality.Quality
	hashOffset   int64
}

// A nil key means the set shares the key of its parent.
//
// TODO: locate the trailing 20-byte values for the remaining sets
var games = map[string]game{
	"orleg2": {
		"",
		&orleg2Key,
		"Oriental Legend 2",
		2007,
		"IGS",
		quality.Confirmed,
		0x76c77c,
	},
	"orleg2o": {
		"orleg2",
		nil,
		"Oriental Legend 2 (older)",
		2007,
		"IGS",
		quality.Confirmed,
		0x763984,
	},
	"m312cn": {
		"",
		&m312cnKey,
		"Majiang Wang 312 (China)",
		0,
		"IGS",
		quality.Confirmed,
		-1,
	},
	"cjddzsp": {
		"",
		&cjddzspKey,
		"Chao Ji Dou Di Zhu Special",
		0,
		"IGS",
		quality.Confirmed,
		-1,
	},
	"cjdh2": {
		"",
		&cjdh2Key,
		"Chao Ji Da Heng 2",
		0,
		"IGS",
		quality.Confirmed,
		-1,
	},
	"kov3": {
		"",
		&kov3Key,
		"Knights of Valour 3",
		2011,
		"IGS",
		quality.Confirmed,
		0x718040,
	},
	"kov2": {
		"",
		&kov2Key,
		"Knights of Valour 2 New Legend",
		2008,
		"IGS",
		quality.Confirmed,
		-1,
	},
	"ddpdoj": {
		"",
		&ddpdojKey,
		"DoDonPachi DaiOuJou Tamashii",
		2010,
		"IGS",
		quality.Suspect,
		-1,
	},
	"kof98umh": {
		"",
		&kof98umhKey,
		"The King of Fighters '98: Ultimate Match HERO",
		2011,
		"IGS / SNK Playmore",
		quality.Wrong,
		-1,
	},
}

// Games returns the names of all known sets in order
func Games() []string {
	names := make([]string, 0, len(games))
	for name := range games {
		names = append(names, name)
	}
	sort.Strings(names)

	return names
}

// GameInfo returns the metadata for the named set
func GameInfo(name string) (Game, error) {
	g, ok := games[name]
	if !ok {
		return Game{}, errGameNotFound
	}

	return Game{
		Name:         name,
		Parent:       g.parent,
		Title:        g.title,
		Year:         g.year,
		Manufacturer: g.manufacturer,
		Quality:      g.quality,
		HashOffset:   g.hashOffset,
	}, nil
}

// gameKey returns the key table for the named set, following the parent
// link for sets that share the key of their parent
func gameKey(name string) (*KeyTable, error) {
	g, ok := games[name]
	if !ok {
		return nil, errGameNotFound
	}

	if g.key == nil {
		return gameKey(g.parent)
	}

	return g.key, nil
}

// GameKeyFile returns the key table for the named set wrapped in a
// KeyFile document carrying the set's metadata
func GameKeyFile(name string) (*KeyFile, error) {
	g, err := GameInfo(name)
	if err != nil {
		return nil, err
	}

	k, err := gameKey(name)
	if err != nil {
		return nil, err
	}

	return &KeyFile{
		Game:    g.Name,
		Title:   g.Title,
		Quality: g.Quality,
		Key:     k[:],
	}, nil
}

// NewGameDecryptor returns a Decryptor keyed for the named set
func NewGameDecryptor(name string) (*Decryptor, error) {
	k, err := gameKey(name)
	if err != nil {
		return nil, err
	}

	return NewDecryptor(k[:])
}
