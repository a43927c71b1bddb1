// Package repl is the line-oriented console: one command per line, results
// printed for a human.
package repl

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"
	"unicode"

	"ttfs/internal/validation"
	"ttfs/internal/version"

	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"go.uber.org/zap"
)

const usage = "Available commands: CREATE, READ, INSERT, UPDATE, SNAPSHOT, ROLLBACK, HISTORY, RECENT_FILES, BIGGEST_TREES, STATS, EXIT"

// timeLayout renders timestamps the way ctime(3) does.
const timeLayout = time.ANSIC

type Session struct {
	backend Backend
	out     io.Writer
	logger  *zap.Logger

	errColor *color.Color
	okColor  *color.Color
}

func New(backend Backend, out io.Writer, logger *zap.Logger) *Session {
	return &Session{
		backend:  backend,
		out:      out,
		logger:   logger,
		errColor: color.New(color.FgRed),
		okColor:  color.New(color.FgGreen),
	}
}

// Run executes commands read from in until EXIT, end of input, or ctx is
// done.
func (s *Session) Run(ctx context.Context, in io.Reader) error {
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)

	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		if !s.Execute(scanner.Text()) {
			return nil
		}
	}
	return scanner.Err()
}

// Execute runs a single command line. It returns false once the session
// should end.
func (s *Session) Execute(line string) bool {
	command, rest := cut(line)
	if command == "" {
		return true
	}
	s.logger.Debug("command", zap.String("command", command))

	var err error
	switch strings.ToUpper(command) {
	case "EXIT":
		return false
	case "CREATE":
		err = s.create(rest)
	case "READ":
		err = s.read(rest)
	case "INSERT":
		err = s.write(rest, s.backend.Insert)
	case "UPDATE":
		err = s.write(rest, s.backend.Update)
	case "SNAPSHOT":
		err = s.snapshot(rest)
	case "ROLLBACK":
		err = s.rollback(rest)
	case "HISTORY":
		err = s.history(rest)
	case "RECENT_FILES":
		err = s.recent(rest)
	case "BIGGEST_TREES":
		err = s.biggest(rest)
	case "STATS":
		err = s.stats()
	default:
		fmt.Fprintf(s.out, "Unknown command: %s\n", command)
		fmt.Fprintln(s.out, usage)
	}

	if err != nil {
		s.errColor.Fprintf(s.out, "Error: %s\n", err)
	}
	return true
}

func (s *Session) create(args string) error {
	name, _, err := filename(args)
	if err != nil {
		return err
	}
	if err := s.backend.CreateFile(name); err != nil {
		return err
	}
	s.okColor.Fprintf(s.out, "File '%s' created successfully.\n", name)
	return nil
}

func (s *Session) read(args string) error {
	name, _, err := filename(args)
	if err != nil {
		return err
	}
	content, err := s.backend.ReadFile(name)
	if err != nil {
		return err
	}
	fmt.Fprintln(s.out, content)
	return nil
}

func (s *Session) write(args string, apply func(name, text string) error) error {
	name, text, err := filename(args)
	if err != nil {
		return err
	}
	return apply(name, text)
}

func (s *Session) snapshot(args string) error {
	name, message, err := filename(args)
	if err != nil {
		return err
	}
	return s.backend.Snapshot(name, message)
}

// rollback goes to the parent unless the argument after the filename is a
// non-negative version id. Negative ids, -1 in particular, also mean parent.
func (s *Session) rollback(args string) error {
	name, rest, err := filename(args)
	if err != nil {
		return err
	}

	target := version.Parent()
	if tok, _ := cut(rest); tok != "" {
		if id, err := strconv.Atoi(tok); err == nil && id >= 0 {
			target = version.At(id)
		}
	}
	return s.backend.Rollback(name, target)
}

func (s *Session) history(args string) error {
	name, _, err := filename(args)
	if err != nil {
		return err
	}
	entries, err := s.backend.History(name)
	if err != nil {
		return err
	}

	t := table.NewWriter()
	t.AppendHeader(table.Row{"Version", "Snapshot", "Message"})
	for _, e := range entries {
		t.AppendRow(table.Row{e.ID, e.SnapshotAt.Local().Format(timeLayout), e.Message})
	}

	fmt.Fprintf(s.out, "History for file '%s':\n", name)
	fmt.Fprintln(s.out, t.Render())
	return nil
}

func (s *Session) recent(args string) error {
	files, err := s.backend.TopRecent(count(args))
	if err != nil {
		return err
	}

	t := table.NewWriter()
	t.AppendHeader(table.Row{"File", "Modified"})
	for _, f := range files {
		t.AppendRow(table.Row{f.Name, f.ModifiedAt.Local().Format(timeLayout)})
	}

	fmt.Fprintln(s.out, "Recent files:")
	fmt.Fprintln(s.out, t.Render())
	return nil
}

func (s *Session) biggest(args string) error {
	files, err := s.backend.TopBySize(count(args))
	if err != nil {
		return err
	}

	t := table.NewWriter()
	t.AppendHeader(table.Row{"File", "Versions"})
	for _, f := range files {
		t.AppendRow(table.Row{f.Name, f.Revisions})
	}

	fmt.Fprintln(s.out, "Biggest trees:")
	fmt.Fprintln(s.out, t.Render())
	return nil
}

func (s *Session) stats() error {
	st, err := s.backend.Stats()
	if err != nil {
		return err
	}

	t := table.NewWriter()
	t.AppendRows([]table.Row{
		{"Files", st.Files},
		{"Revisions", st.Revisions},
		{"Observations", st.Observations},
		{"Blobs", st.Blobs},
		{"Blob bytes", st.BlobBytes},
		{"Stored bytes", st.StoredBytes},
	})
	fmt.Fprintln(s.out, t.Render())
	return nil
}

// filename splits off the filename argument. The remainder is the payload,
// with the single separating space removed.
func filename(args string) (string, string, error) {
	name, rest := cut(args)
	if err := validation.Filename(name); err != nil {
		return "", "", err
	}
	return name, strings.TrimPrefix(rest, " "), nil
}

// count parses an optional ranking size, falling back to the default for
// anything that is not a number.
func count(args string) int {
	tok, _ := cut(args)
	n, err := strconv.Atoi(tok)
	if err != nil {
		return validation.DefaultCount
	}
	return n
}

// cut returns the first whitespace-delimited token of s and everything
// after it, untrimmed.
func cut(s string) (string, string) {
	s = strings.TrimLeftFunc(s, unicode.IsSpace)
	end := strings.IndexFunc(s, unicode.IsSpace)
	if end < 0 {
		return s, ""
	}
	return s[:end], s[end:]
}
