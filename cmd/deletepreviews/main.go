package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"camera-raw-previews/internal/cache"
	"camera-raw-previews/internal/database"
	"camera-raw-previews/internal/mediatypes"

	"golang.org/x/term"
)

const (
	defaultDatabaseDir = "/database"
	defaultCacheDir    = "/cache"
	databaseFile       = "previews.db"
)

// mimeList collects repeated --mime flags.
type mimeList []string

func (m *mimeList) String() string { return strings.Join(*m, ",") }

func (m *mimeList) Set(v string) error {
	v = strings.TrimSpace(v)
	if v == "" {
		return errors.New("empty mime type")
	}
	*m = append(*m, v)
	return nil
}

type options struct {
	mimeTypes   []string
	force       bool
	yes         bool
	databaseDir string
	cacheDir    string
}

// console is the terminal the command talks to.
type console struct {
	in          io.Reader
	out         io.Writer
	errOut      io.Writer
	interactive bool
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	opts, err := parseArgs(os.Args[1:], os.Stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		os.Exit(2)
	}

	c := console{
		in:          os.Stdin,
		out:         os.Stdout,
		errOut:      os.Stderr,
		interactive: term.IsTerminal(int(os.Stdin.Fd())),
	}
	os.Exit(run(ctx, opts, c))
}

func parseArgs(args []string, errOut io.Writer) (options, error) {
	fs := flag.NewFlagSet("deletepreviews", flag.ContinueOnError)
	fs.SetOutput(errOut)

	var mimes mimeList
	opts := options{
		databaseDir: envOr("DATABASE_DIR", defaultDatabaseDir),
		cacheDir:    envOr("CACHE_DIR", defaultCacheDir),
	}
	fs.Var(&mimes, "mime", "mime type whose previews are deleted (repeatable)")
	fs.BoolVar(&opts.force, "force", false, "delete previews instead of listing them")
	fs.BoolVar(&opts.yes, "yes", false, "do not ask for confirmation")
	fs.Usage = func() {
		fmt.Fprintln(errOut, "Usage: deletepreviews [--mime TYPE]... [--force] [--yes]")
		fmt.Fprintln(errOut, "")
		fs.PrintDefaults()
		fmt.Fprintln(errOut, "")
		fmt.Fprintln(errOut, "Environment:")
		fmt.Fprintf(errOut, "  DATABASE_DIR - Path to database directory (default: %s)\n", defaultDatabaseDir)
		fmt.Fprintf(errOut, "  CACHE_DIR    - Path to preview cache directory (default: %s)\n", defaultCacheDir)
	}

	if err := fs.Parse(args); err != nil {
		return options{}, err
	}
	if fs.NArg() > 0 {
		fmt.Fprintf(errOut, "Unexpected argument: %s\n", fs.Arg(0))
		fs.Usage()
		return options{}, fmt.Errorf("unexpected argument %q", fs.Arg(0))
	}

	opts.mimeTypes = mimes
	if len(opts.mimeTypes) == 0 {
		opts.mimeTypes = append([]string(nil), mediatypes.DefaultPurgeMimeTypes...)
	}
	return opts, nil
}

func run(ctx context.Context, opts options, c console) int {
	if opts.force && !opts.yes && c.interactive {
		if !confirm(c, opts.mimeTypes) {
			fmt.Fprintln(c.out, "Aborted.")
			return 1
		}
	}

	dbPath := filepath.Join(opts.databaseDir, databaseFile)
	if _, err := os.Stat(dbPath); err != nil {
		fmt.Fprintf(c.errOut, "Error: no preview database at %s: %v\n", dbPath, err)
		fmt.Fprintf(c.errOut, "Make sure DATABASE_DIR is set correctly (current: %s)\n", opts.databaseDir)
		return 1
	}

	db, err := database.New(ctx, dbPath)
	if err != nil {
		fmt.Fprintf(c.errOut, "Error: Failed to connect to database: %v\n", err)
		return 1
	}
	defer func() {
		if err := db.Close(); err != nil {
			fmt.Fprintf(c.errOut, "Warning: failed to close database: %v\n", err)
		}
	}()

	store := cache.New(db, opts.cacheDir)
	n, err := store.Purge(ctx, cache.PurgeOptions{
		MimeTypes: opts.mimeTypes,
		Force:     opts.force,
		Out:       c.out,
	})
	if err != nil {
		if ctx.Err() != nil {
			fmt.Fprintln(c.errOut, "Interrupted.")
		} else {
			fmt.Fprintf(c.errOut, "Error: %v\n", err)
		}
		return 1
	}

	switch {
	case n == 0:
		fmt.Fprintln(c.out, "Nothing to delete.")
	case opts.force:
		fmt.Fprintf(c.out, "Deleted previews for %d file(s).\n", n)
	default:
		fmt.Fprintf(c.out, "Would delete previews for %d file(s). Run with --force to delete.\n", n)
	}
	return 0
}

func confirm(c console, mimeTypes []string) bool {
	fmt.Fprintf(c.out, "Delete cached previews for %s? [y/N]: ", strings.Join(mimeTypes, ", "))
	line, err := bufio.NewReader(c.in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	}
	return false
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
