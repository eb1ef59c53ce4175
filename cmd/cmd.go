// Package cmd is the command-line front end: a thin shim over the engine's
// read surface, one subcommand per query.
package cmd

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/mattn/go-isatty"

	"github.com/repolens/repolens/internal/buildinfo"
	"github.com/repolens/repolens/internal/git"
	"github.com/repolens/repolens/internal/render"
	"github.com/repolens/repolens/internal/watch"
)

const usageText = `usage: repolens [flags] <command> [args]

commands:
  status                  working-tree status
  log [branch]            commit history, newest first
  branches                local and remote branches
  tags                    tags with their target commits
  stashes                 stash entries
  diff [-staged] [path]   changes as a colored diff
  watch                   report status whenever the repository changes

flags:
`

func Run() error {
	return run(os.Args[1:], os.Stdout)
}

func run(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("repolens", flag.ContinueOnError)
	repoPath := fs.String("C", ".", "repository path")
	limit := fs.Int("n", 50, "maximum number of commits to list")
	timeout := fs.Duration("timeout", git.DefaultTimeout, "timeout for git commands")
	colorMode := fs.String("color", "auto", "color output: auto, always, or never")
	verbose := fs.Bool("verbose", false, "enable verbose logging")
	showVersion := fs.Bool("version", false, "print version information and exit")
	fs.Usage = func() {
		fmt.Fprint(fs.Output(), usageText)
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return err
	}
	if *showVersion {
		fmt.Fprintln(out, buildinfo.Describe())
		return nil
	}
	if *verbose {
		slog.SetLogLoggerLevel(slog.LevelDebug)
	}
	rest := fs.Args()
	if len(rest) == 0 {
		fs.Usage()
		return errors.New("no command given")
	}

	svc, err := git.Open(*repoPath, git.WithTimeout(*timeout))
	if err != nil {
		return err
	}
	if err := svc.CheckVersion(); err != nil {
		slog.Warn("git version check", slog.Any("error", err))
	}
	color := useColor(*colorMode)

	command, rest := rest[0], rest[1:]
	switch command {
	case "status":
		return runStatus(out, svc)
	case "log":
		return runLog(out, svc, *limit, rest)
	case "branches":
		return runBranches(out, svc)
	case "tags":
		return runTags(out, svc)
	case "stashes":
		return runStashes(out, svc)
	case "diff":
		return runDiff(out, svc, color, rest)
	case "watch":
		return runWatch(out, svc)
	default:
		return fmt.Errorf("unknown command %q", command)
	}
}

func useColor(mode string) bool {
	switch mode {
	case "always":
		return true
	case "never":
		return false
	default:
		fd := os.Stdout.Fd()
		return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
	}
}

func runStatus(out io.Writer, svc *git.Service) error {
	st, err := svc.Status()
	if err != nil {
		return err
	}
	head := st.Branch
	if st.Upstream != "" {
		head += "..." + st.Upstream
	}
	fmt.Fprintf(out, "on %s%s\n", head, trackingSummary(st.Ahead, st.Behind))
	if !st.HasChanges() {
		fmt.Fprintln(out, "working tree clean")
		return nil
	}
	for _, c := range st.Changes {
		mark := " "
		if c.Staged {
			mark = "*"
		}
		path := c.Path
		if c.OldPath != "" {
			path = c.OldPath + " -> " + c.Path
		}
		fmt.Fprintf(out, "%s %-10s %s\n", mark, c.Code, path)
	}
	return nil
}

func trackingSummary(ahead, behind int) string {
	switch {
	case ahead > 0 && behind > 0:
		return fmt.Sprintf(" [ahead %d, behind %d]", ahead, behind)
	case ahead > 0:
		return fmt.Sprintf(" [ahead %d]", ahead)
	case behind > 0:
		return fmt.Sprintf(" [behind %d]", behind)
	default:
		return ""
	}
}

func runLog(out io.Writer, svc *git.Service, limit int, args []string) error {
	opts := git.LogOptions{MaxCount: limit}
	if len(args) > 0 {
		opts.Branch = args[0]
	}
	stream, err := svc.LogStream(opts)
	if err != nil {
		return err
	}
	defer stream.Close()
	for {
		c, err := stream.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "%s  %s  (%s, %s)\n",
			c.ShortHash, c.Subject, c.Author, humanize.Time(c.Timestamp))
	}
}

func runBranches(out io.Writer, svc *git.Service) error {
	branches, err := svc.Branches(true)
	if err != nil {
		return err
	}
	for _, b := range branches {
		mark := " "
		if b.IsCurrent {
			mark = "*"
		}
		line := fmt.Sprintf("%s %s", mark, b.Name)
		if b.Upstream != "" {
			line += " -> " + b.Upstream + trackingSummary(b.Ahead, b.Behind)
		}
		if b.LastHash != "" {
			line += fmt.Sprintf("  %s %s (%s)", b.LastHash, b.LastSubject, humanize.Time(b.LastCommitAt))
		}
		fmt.Fprintln(out, line)
	}
	return nil
}

func runTags(out io.Writer, svc *git.Service) error {
	tags, err := svc.Tags()
	if err != nil {
		return err
	}
	for _, tag := range tags {
		kind := "lightweight"
		if tag.IsAnnotated {
			kind = "annotated"
		}
		line := fmt.Sprintf("%s  %s  %s (%s)", tag.Name, shortHash(tag.Hash), kind, humanize.Time(tag.CreatedAt))
		if tag.Message != "" {
			line += "  " + tag.Message
		}
		fmt.Fprintln(out, line)
	}
	return nil
}

func shortHash(hash string) string {
	if len(hash) > 7 {
		return hash[:7]
	}
	return hash
}

func runStashes(out io.Writer, svc *git.Service) error {
	stashes, err := svc.Stashes()
	if err != nil {
		return err
	}
	for _, st := range stashes {
		branch := ""
		if st.Branch != "" {
			branch = " on " + st.Branch
		}
		fmt.Fprintf(out, "%s%s  %s (%s)\n", st.Name, branch, st.Message, humanize.Time(st.CreatedAt))
	}
	return nil
}

func runDiff(out io.Writer, svc *git.Service, color bool, args []string) error {
	fs := flag.NewFlagSet("diff", flag.ContinueOnError)
	staged := fs.Bool("staged", false, "show staged changes instead of unstaged")
	noHighlight := fs.Bool("nohighlight", false, "disable syntax highlighting")
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return err
	}
	r := render.New(render.WithColor(color), render.WithHighlight(!*noHighlight))
	if path := fs.Arg(0); path != "" {
		d, err := svc.Diff(path, *staged)
		if err != nil {
			return err
		}
		fmt.Fprint(out, r.Diff(d))
		return nil
	}
	diffs, err := svc.DiffAll(*staged)
	if err != nil {
		return err
	}
	fmt.Fprint(out, r.Diffs(diffs))
	return nil
}

func runWatch(out io.Writer, svc *git.Service) error {
	report := func() {
		st, err := svc.Status()
		if err != nil {
			slog.Error("status after change", slog.Any("error", err))
			return
		}
		staged, unstaged := 0, 0
		for _, c := range st.Changes {
			if c.Code == git.StatusIgnored {
				continue
			}
			if c.Staged {
				staged++
			} else {
				unstaged++
			}
		}
		fmt.Fprintf(out, "%s  %s: %d staged, %d unstaged\n",
			time.Now().Format(time.TimeOnly), st.Branch, staged, unstaged)
	}

	w, err := watch.New(svc.RepoPath(), report)
	if err != nil {
		return err
	}
	defer w.Close()
	report()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	<-sig
	return nil
}
