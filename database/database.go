/*
Package database uses SQLite to index the known encrypted program ROM
images by checksum so that dumps can be identified by content rather
than by filename. The index is populated from the XML hash files in the
same shape as MAME software lists.
*/
package database

import (
	"database/sql"
	"encoding/xml"
	"fmt"
	"io/ioutil"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	// Database driver
	_ "github.com/mattn/go-sqlite3"
)

// Database holds the SQLite database handle
type Database struct {
	db *sql.DB
}

// NewDatabase opens an existing database or returns a new empty one
func NewDatabase(file string) (*Database, error) {
	if file == "" {
		return nil, errors.New("no file")
	}

	db, err := sql.Open("sqlite3", fmt.Sprintf("%s?_foreign_keys=on", file))
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(10)

	if _, err = db.Exec("CREATE TABLE IF NOT EXISTS game (id INTEGER PRIMARY KEY NOT NULL, name STRING NOT NULL UNIQUE, description TEXT)"); err != nil {
		return nil, err
	}

	if _, err = db.Exec("CREATE TABLE IF NOT EXISTS rom (game_id INTEGER NOT NULL, name TEXT NOT NULL, size INTEGER NOT NULL, crc TEXT NOT NULL UNIQUE, sha1 TEXT NOT NULL UNIQUE, FOREIGN KEY(game_id) REFERENCES game(id))"); err != nil {
		return nil, err
	}

	return &Database{
		db: db,
	}, nil
}

type softwareLists struct {
	XMLName      xml.Name       `xml:"softwarelists"`
	SoftwareList []softwareList `xml:"softwarelist"`
}

type softwareList struct {
	XMLName  xml.Name   `xml:"softwarelist"`
	Software []software `xml:"software"`
}

type software struct {
	XMLName     xml.Name   `xml:"software"`
	Name        string     `xml:"name,attr"`
	CloneOf     string     `xml:"cloneof,attr"`
	Description string     `xml:"description"`
	DataArea    []dataArea `xml:"part>dataarea"`
}

func (s software) findDataArea(area string) *dataArea {
	if area == "maincpu" {
		// Some lists name the program area user1 instead
		if da := s.findDataArea("user1"); da != nil {
			return da
		}
	}
	for _, da := range s.DataArea {
		if da.Name == area {
			return &da
		}
	}
	return nil
}

type size uint64

func (v *size) UnmarshalXMLAttr(attr xml.Attr) error {
	i, err := strconv.ParseUint(attr.Value, 0, 64)
	if err != nil {
		return err
	}
	*v = size(i)
	return nil
}

type dataArea struct {
	XMLName xml.Name `xml:"dataarea"`
	Name    string   `xml:"name,attr"`
	Size    size     `xml:"size,attr"`
	ROM     []rom    `xml:"rom"`
}

type rom struct {
	XMLName xml.Name `xml:"rom"`
	Name    string   `xml:"name,attr"`
	Size    size     `xml:"size,attr"`
	CRC     string   `xml:"crc,attr"`
	SHA1    string   `xml:"sha1,attr"`
	Status  string   `xml:"status,attr"`
}

// ImportXML wipes any existing data and imports the entries from an XML
// file. Only the program ROM areas are indexed, the encryption does not
// touch any other area.
func (db *Database) ImportXML(file string) error {
	b, err := ioutil.ReadFile(file)
	if err != nil {
		return err
	}

	var lists softwareLists
	if err := xml.Unmarshal(b, &lists); err != nil {
		return errors.Wrap(err, file)
	}

	if _, err = db.db.Exec("DELETE FROM rom"); err != nil {
		return err
	}

	if _, err = db.db.Exec("DELETE FROM game"); err != nil {
		return err
	}

	for _, list := range lists.SoftwareList {
		for _, s := range list.Software {
			da := s.findDataArea("maincpu")
			if da == nil {
				continue
			}

			game, err := db.addGame(s.Name, s.Description)
			if err != nil {
				return err
			}

			for _, r := range da.ROM {
				if r.Status == "nodump" || r.CRC == "" {
					continue
				}

				if err := db.addROM(game, r.Name, uint64(r.Size), fmt.Sprintf("%08s", strings.ToUpper(r.CRC)), strings.ToUpper(r.SHA1)); err != nil {
					return err
				}
			}
		}
	}

	return nil
}

// Close closes the database rendering it unusable
func (db *Database) Close() error {
	return db.db.Close()
}

func (db *Database) addGame(name, description string) (int64, error) {
	var id int64
	switch err := db.db.QueryRow("SELECT id FROM game WHERE name = ?", name).Scan(&id); err {
	case sql.ErrNoRows:
		result, err := db.db.Exec("INSERT INTO game (name, description) VALUES (?, ?)", name, description)
		if err != nil {
			return 0, err
		}
		return result.LastInsertId()
	case nil:
		return id, nil
	default:
		return 0, err
	}
}

func (db *Database) addROM(game int64, name string, size uint64, crc, sha string) error {
	if _, err := db.db.Exec("INSERT OR REPLACE INTO rom (game_id, name, size, crc, sha1) VALUES (?, ?, ?, ?, ?)", game, name, size, crc, sha); err != nil {
		return err
	}
	return nil
}

// FindGameByCRC searches the database for a program ROM matching the
// CRC and returns the set name and description, or empty strings if
// there is no match
func (db *Database) FindGameByCRC(crc string) (string, string, error) {
	return db.findGame("crc", fmt.Sprintf("%08s", strings.ToUpper(crc)))
}

// FindGameBySHA1 searches the database for a program ROM matching the
// SHA1 and returns the set name and description, or empty strings if
// there is no match
func (db *Database) FindGameBySHA1(sha string) (string, string, error) {
	return db.findGame("sha1", strings.ToUpper(sha))
}

func (db *Database) findGame(column, value string) (string, string, error) {
	var name string
	var description sql.NullString
	switch err := db.db.QueryRow("SELECT g.name, g.description FROM rom AS r JOIN game AS g ON r.game_id = g.id WHERE r."+column+" = ?", value).Scan(&name, &description); err {
	case sql.ErrNoRows:
		return "", "", nil
	case nil:
		return name, description.String, nil
	default:
		return "", "", err
	}
}
