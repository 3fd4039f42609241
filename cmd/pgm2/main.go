package main

import (
	"archive/zip"
	"bytes"
	"crypto/sha1"
	"fmt"
	"hash/crc32"
	"io/ioutil"
	"os"
	"path/filepath"
	"strconv"

	"github.com/bodgit/igs/database"
	"github.com/bodgit/igs/igs036"
	"github.com/bodgit/igs/quality"
	"github.com/bodgit/plumbing"
	"github.com/dustin/go-humanize"
	"github.com/gabriel-vasile/mimetype"
	"github.com/olekukonko/tablewriter"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"
)

func init() {
	cli.VersionFlag = &cli.BoolFlag{
		Name:    "version",
		Aliases: []string{"V"},
		Usage:   "print the version",
	}
}

func readZippedImage(path, member string) ([]byte, error) {
	r, err := zip.OpenReader(path)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	var f *zip.File
	switch {
	case member != "":
		for _, x := range r.File {
			if x.Name == member {
				f = x
				break
			}
		}
		if f == nil {
			return nil, errors.Errorf("%s has no member %s", path, member)
		}
	case len(r.File) == 1:
		f = r.File[0]
	default:
		return nil, errors.Errorf("%s holds more than one file, pick one with --rom", path)
	}

	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	return ioutil.ReadAll(rc)
}

func readImage(c *cli.Context, path string) ([]byte, error) {
	mime, err := mimetype.DetectFile(path)
	if err != nil {
		return nil, err
	}

	log.Debugf("%s detected as %s", path, mime)

	var b []byte

	switch mime.Extension() {
	case ".zip":
		b, err = readZippedImage(path, c.String("rom"))
	default:
		b, err = ioutil.ReadFile(path)
	}
	if err != nil {
		return nil, err
	}

	if size := c.Int64("size"); size > 0 {
		if int64(len(b)) > size {
			return nil, errors.Errorf("%s is already larger than %d bytes", path, size)
		}

		// Incomplete dumps are padded with erased flash so the output
		// is the size of the real part
		b, err = ioutil.ReadAll(plumbing.PaddedReader(bytes.NewReader(b), size, 0xff))
		if err != nil {
			return nil, err
		}
	}

	return b, nil
}

func gameDecryptor(name string) (*igs036.Decryptor, error) {
	g, err := igs036.GameInfo(name)
	if err != nil {
		return nil, err
	}

	if g.Quality != quality.Confirmed {
		log.Warnf("the %s key is marked %s, expect errors in the output", name, g.Quality)
	}

	return igs036.NewGameDecryptor(name)
}

func fileDecryptor(path string) (*igs036.Decryptor, error) {
	k, err := igs036.LoadKeyFile(path)
	if err != nil {
		return nil, err
	}

	switch k.Quality {
	case quality.Confirmed:
	case quality.Unknown:
		log.Warnf("%s carries no provenance", path)
	default:
		log.Warnf("the key in %s is marked %s, expect errors in the output", path, k.Quality)
	}

	return k.Decryptor()
}

func identify(db *database.Database, b []byte) (string, error) {
	name, _, err := db.FindGameByCRC(fmt.Sprintf("%08X", crc32.ChecksumIEEE(b)))
	if err != nil || name != "" {
		return name, err
	}

	sha := sha1.Sum(b)
	name, _, err = db.FindGameBySHA1(fmt.Sprintf("%X", sha[:]))

	return name, err
}

func transform(c *cli.Context, suffix string, apply func(*igs036.Decryptor, []byte) error) error {
	if c.NArg() < 1 {
		cli.ShowCommandHelpAndExit(c, c.Command.FullName(), 1)
	}

	var (
		shared *igs036.Decryptor
		err    error
	)

	switch {
	case c.IsSet("game") && c.IsSet("key"):
		return cli.NewExitError("use only one of --game or --key", 1)
	case c.IsSet("game"):
		shared, err = gameDecryptor(c.String("game"))
	case c.IsSet("key"):
		shared, err = fileDecryptor(c.String("key"))
	case !c.IsSet("database"):
		return cli.NewExitError("a key is required, use --game, --key or --database", 1)
	}
	if err != nil {
		return cli.NewExitError(err, 1)
	}

	var db *database.Database
	if shared == nil {
		if db, err = database.NewDatabase(c.String("database")); err != nil {
			return cli.NewExitError(err, 1)
		}
		defer db.Close()
	}

	var g errgroup.Group

	for _, path := range c.Args().Slice() {
		path := path
		g.Go(func() error {
			b, err := readImage(c, path)
			if err != nil {
				return errors.Wrap(err, path)
			}

			d := shared
			if d == nil {
				name, err := identify(db, b)
				if err != nil {
					return errors.Wrap(err, path)
				}
				if name == "" {
					return errors.Errorf("%s matches nothing in the database", path)
				}

				log.Infof("%s identified as %s", path, name)

				if d, err = gameDecryptor(name); err != nil {
					return errors.Wrap(err, path)
				}
			}

			if err := apply(d, b); err != nil {
				return errors.Wrap(err, path)
			}

			target := filepath.Join(c.String("directory"), filepath.Base(path)+suffix)

			if err := ioutil.WriteFile(target, b, 0666); err != nil {
				return err
			}

			log.Infof("wrote %s (%s)", target, humanize.IBytes(uint64(len(b))))

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return cli.NewExitError(err, 1)
	}

	return nil
}

func decrypt(c *cli.Context) error {
	return transform(c, ".dec", (*igs036.Decryptor).DecryptROM)
}

func encrypt(c *cli.Context) error {
	return transform(c, ".enc", (*igs036.Decryptor).EncryptROM)
}

func list(c *cli.Context) error {
	table := tablewriter.NewWriter(os.Stdout)
	table.SetBorder(false)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")

	table.SetHeader([]string{"Set", "Title", "Year", "Manufacturer", "Key"})

	for _, name := range igs036.Games() {
		g, err := igs036.GameInfo(name)
		if err != nil {
			return cli.NewExitError(err, 1)
		}

		year := ""
		if g.Year != 0 {
			year = strconv.FormatUint(uint64(g.Year), 10)
		}

		table.Append([]string{g.Name, g.Title, year, g.Manufacturer, g.Quality.String()})
	}

	table.Render()

	return nil
}

func info(c *cli.Context) error {
	if c.NArg() < 1 {
		cli.ShowCommandHelpAndExit(c, c.Command.FullName(), 1)
	}

	path := c.Args().First()

	b, err := readImage(c, path)
	if err != nil {
		return cli.NewExitError(err, 1)
	}

	crc := crc32.ChecksumIEEE(b)
	sha := sha1.Sum(b)

	name, description := c.String("game"), ""

	if name == "" && c.IsSet("database") {
		db, err := database.NewDatabase(c.String("database"))
		if err != nil {
			return cli.NewExitError(err, 1)
		}
		defer db.Close()

		if name, description, err = db.FindGameByCRC(fmt.Sprintf("%08X", crc)); err != nil {
			return cli.NewExitError(err, 1)
		}

		if name == "" {
			if name, description, err = db.FindGameBySHA1(fmt.Sprintf("%X", sha[:])); err != nil {
				return cli.NewExitError(err, 1)
			}
		}
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.SetBorder(false)
	table.SetAutoWrapText(false)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetTablePadding(" ")
	table.SetNoWhiteSpace(true)

	table.Append([]string{"Size:", fmt.Sprintf("%s (%d words)", humanize.IBytes(uint64(len(b))), len(b)/2)})
	table.Append([]string{"CRC32:", fmt.Sprintf("%08x", crc)})
	table.Append([]string{"SHA1:", fmt.Sprintf("%x", sha[:])})

	if name != "" {
		table.Append([]string{"Set:", name})

		if description != "" {
			table.Append([]string{"Title:", description})
		}

		if g, err := igs036.GameInfo(name); err == nil {
			if description == "" {
				table.Append([]string{"Title:", g.Title})
			}

			table.Append([]string{"Key:", g.Quality.String()})

			if g.HashOffset >= 0 && g.HashOffset+20 <= int64(len(b)) {
				table.Append([]string{"Hidden value:", fmt.Sprintf("%x", b[g.HashOffset:g.HashOffset+20])})
			}
		} else {
			table.Append([]string{"Key:", "none"})
		}
	}

	table.Render()

	return nil
}

func export(c *cli.Context) error {
	if c.NArg() < 1 {
		cli.ShowCommandHelpAndExit(c, c.Command.FullName(), 1)
	}

	for _, name := range c.Args().Slice() {
		k, err := igs036.GameKeyFile(name)
		if err != nil {
			return cli.NewExitError(err, 1)
		}

		target := filepath.Join(c.String("directory"), name+".yml")

		if err := k.Save(target); err != nil {
			return cli.NewExitError(err, 1)
		}

		log.Infof("wrote %s", target)
	}

	return nil
}

func importGames(c *cli.Context) error {
	if c.NArg() < 1 {
		cli.ShowCommandHelpAndExit(c, c.Command.FullName(), 1)
	}

	db, err := database.NewDatabase(c.String("database"))
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	defer db.Close()

	if err := db.ImportXML(c.Args().First()); err != nil {
		return cli.NewExitError(err, 1)
	}

	return nil
}

func main() {
	app := cli.NewApp()

	app.Name = "pgm2"
	app.Usage = "IGS PGM2 program ROM utility"
	app.Version = "1.0.0"

	app.Flags = []cli.Flag{
		&cli.BoolFlag{
			Name:  "debug",
			Usage: "enable debug logging",
		},
	}

	app.Before = func(c *cli.Context) error {
		if c.Bool("debug") {
			log.SetLevel(log.DebugLevel)
		}
		return nil
	}

	cwd, err := os.Getwd()
	if err != nil {
		log.Fatal(err)
	}

	gameFlag := &cli.StringFlag{
		Name:    "game",
		Aliases: []string{"g"},
		Usage:   "use the key for the MAME set `NAME`",
	}

	keyFlag := &cli.StringFlag{
		Name:    "key",
		Aliases: []string{"k"},
		Usage:   "use the key table read from `FILE`",
	}

	databaseFlag := &cli.StringFlag{
		Name:  "database",
		Usage: "identify images against the SQLite database `FILE`",
	}

	romFlag := &cli.StringFlag{
		Name:    "rom",
		Aliases: []string{"r"},
		Usage:   "read the archive member `NAME`",
	}

	sizeFlag := &cli.Int64Flag{
		Name:    "size",
		Aliases: []string{"s"},
		Usage:   "pad the image with erased flash up to `BYTES`",
	}

	directoryFlag := &cli.StringFlag{
		Name:    "directory",
		Aliases: []string{"d"},
		Usage:   "output directory",
		Value:   cwd,
	}

	app.Commands = []*cli.Command{
		{
			Name:        "list",
			Usage:       "List the games with known keys",
			Description: "",
			Action:      list,
		},
		{
			Name:        "info",
			Usage:       "Show details of a program ROM image",
			Description: "",
			Action:      info,
			Flags: []cli.Flag{
				gameFlag,
				databaseFlag,
				romFlag,
				sizeFlag,
			},
		},
		{
			Name:        "decrypt",
			Usage:       "Decrypt program ROM images",
			Description: "",
			Action:      decrypt,
			Flags: []cli.Flag{
				gameFlag,
				keyFlag,
				databaseFlag,
				romFlag,
				sizeFlag,
				directoryFlag,
			},
		},
		{
			Name:        "encrypt",
			Usage:       "Encrypt program ROM images",
			Description: "",
			Action:      encrypt,
			Flags: []cli.Flag{
				gameFlag,
				keyFlag,
				databaseFlag,
				romFlag,
				sizeFlag,
				directoryFlag,
			},
		},
		{
			Name:        "export",
			Usage:       "Write the key for a known game to a file",
			Description: "",
			Action:      export,
			Flags: []cli.Flag{
				directoryFlag,
			},
		},
		{
			Name:        "import",
			Usage:       "Import program ROM checksums from XML hash files",
			Description: "",
			Action:      importGames,
			Flags: []cli.Flag{
				databaseFlag,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
