package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/fenilsonani/dupcleaner/internal/cleaner"
	"github.com/fenilsonani/dupcleaner/internal/config"
	"github.com/fenilsonani/dupcleaner/internal/eventlog"
	"github.com/fenilsonani/dupcleaner/internal/progress"
	"github.com/fenilsonani/dupcleaner/internal/reporter"
	"github.com/fenilsonani/dupcleaner/internal/retention"
	"github.com/fenilsonani/dupcleaner/internal/scanner"
	"github.com/fenilsonani/dupcleaner/internal/session"
	"github.com/fenilsonani/dupcleaner/internal/ui"
	"github.com/fenilsonani/dupcleaner/pkg/utils"
	"github.com/spf13/cobra"
)

// errNoTargets is returned when neither arguments nor saved settings name
// a folder to scan
var errNoTargets = errors.New("no paths given and no saved target paths; run e.g. `dupcleaner scan ~/Pictures`")

// app bundles what one command invocation needs
type app struct {
	cfg  *config.Config
	log  *eventlog.Logger
	sess *session.Session

	out    io.Writer
	status io.Writer
	in     io.Reader
}

// openApp loads configuration, opens the event log and creates a session
// over args, or over the saved targets when args is empty
func openApp(cmd *cobra.Command, args []string) (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if cmd.Flags().Changed("dry-run") {
		cfg.DryRun = dryRun
	}

	logPath := cfg.LogFile
	if logPath == "" {
		logPath = eventlog.DefaultPath()
	}
	var mirror io.Writer
	if verbose || cfg.Verbose {
		mirror = os.Stderr
	}
	log, err := eventlog.Open(logPath, mirror)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
	}

	sess, err := session.New(session.Options{Config: cfg, Log: log, Context: cmd.Context()})
	if err != nil {
		log.Close()
		return nil, err
	}

	a := &app{cfg: cfg, log: log, sess: sess, out: os.Stdout, status: os.Stderr, in: os.Stdin}
	if err := a.addTargets(args); err != nil {
		a.Close()
		return nil, err
	}
	if err := applyPolicyFlags(cmd, sess); err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

// applyPolicyFlags lets --policy, then --keep-newest, override the saved
// retention policy
func applyPolicyFlags(cmd *cobra.Command, sess *session.Session) error {
	if cmd.Flags().Changed("policy") {
		policy, err := retention.ParsePolicy(policyName)
		if err != nil {
			return err
		}
		sess.SetPolicy(policy)
	}
	if cmd.Flags().Changed("keep-newest") {
		sess.SetPolicy(retention.FromKeepNewest(keepNewest))
	}
	return nil
}

// addTargets registers args, or restores the saved settings when there are
// none. Unusable paths are reported and skipped.
func (a *app) addTargets(args []string) error {
	if len(args) == 0 {
		if err := a.sess.LoadSettings(); err != nil {
			fmt.Fprintf(a.status, "Warning: %v\n", err)
		}
	} else {
		// the policy persists even when the paths come from the command line
		if saved, _ := config.LoadSettings(config.SettingsPath()); saved.KeepNewest {
			a.sess.SetPolicy(retention.KeepNewest)
		}
		for _, p := range args {
			if err := a.sess.AddPath(p); err != nil {
				fmt.Fprintf(a.status, "Warning: %v\n", err)
			}
		}
	}

	if len(a.sess.Targets()) == 0 {
		return errNoTargets
	}
	return nil
}

// Close persists the settings and releases the session and log
func (a *app) Close() {
	if len(a.sess.Targets()) > 0 {
		if err := a.sess.SaveSettings(); err != nil {
			fmt.Fprintf(a.status, "Warning: settings not saved: %v\n", err)
		}
	}
	a.sess.Close()
	a.log.Close()
}

// Scan waits for enumeration and runs one scan with live progress
func (a *app) Scan(ctx context.Context) (scanner.ScanFinished, error) {
	fmt.Fprintf(a.status, "Collecting files under %s...\n", strings.Join(a.sess.Targets(), ", "))
	if err := a.sess.WaitEnumeration(ctx); err != nil {
		fmt.Fprintln(a.status, "Collection cancelled.")
		return scanner.ScanFinished{State: scanner.StateCancelled}, fmt.Errorf("file collection interrupted: %w", err)
	}
	fmt.Fprintf(a.status, "Found %s files\n", utils.FormatCount(a.sess.FileCount()))

	events, err := a.sess.StartScan(ctx)
	if err != nil {
		if errors.Is(err, scanner.ErrNoInput) {
			fmt.Fprintln(a.status, "Nothing to scan: no files found under the target paths.")
			return scanner.ScanFinished{State: scanner.StateCompleted}, nil
		}
		return scanner.ScanFinished{}, err
	}

	live := ui.NewLiveProgress(a.status)
	var finished scanner.ScanFinished
	for ev := range events {
		switch ev := ev.(type) {
		case progress.ScanProgress:
			live.UpdateScan(ev)
		case scanner.ScanFinished:
			finished = ev
		}
	}
	live.Finish()

	switch finished.State {
	case scanner.StateFailed:
		return finished, fmt.Errorf("scan failed: %w", finished.Err)
	case scanner.StateCancelled:
		fmt.Fprintln(a.status, "Scan cancelled; results are partial.")
	}
	if finished.Errors > 0 {
		fmt.Fprintf(a.status, "Warning: %d files could not be read (see %s)\n", finished.Errors, eventlog.DefaultFileName)
	}
	return finished, nil
}

// Clean scans, confirms, deletes and prints the deletion summary
func (a *app) Clean(ctx context.Context) error {
	fin, err := a.Scan(ctx)
	if err != nil {
		return err
	}
	if fin.State == scanner.StateCancelled {
		return ctx.Err()
	}

	groups := a.sess.Groups()
	if len(groups) == 0 {
		fmt.Fprintln(a.out, "\n✨ No duplicates found.")
		return nil
	}

	if err := reporter.New(a.out, reporter.FormatSummary, Version).Report(groups); err != nil {
		return fmt.Errorf("failed to generate report: %w", err)
	}
	fmt.Fprintf(a.out, "Policy: %s\n", a.sess.Policy())

	perm := a.sess.Preflight()
	if perm.AsRoot {
		fmt.Fprintln(a.status, "Warning: running as root; permission checks are skipped.")
	}
	if len(perm.Blocked) > 0 || len(perm.Inaccessible) > 0 {
		fmt.Fprintf(a.out, "\n📋 Permission Analysis:\n")
		fmt.Fprintf(a.out, "   ✅ Deletable: %d (%s)\n", len(perm.Deletable), utils.FormatSize(perm.TotalDeletable))
		fmt.Fprintf(a.out, "   🔒 Blocked: %d (%s)\n", len(perm.Blocked), utils.FormatSize(perm.TotalBlockedSize))
		if len(perm.Inaccessible) > 0 {
			fmt.Fprintf(a.out, "   ⚠️  Inaccessible: %d files\n", len(perm.Inaccessible))
		}
	}

	if a.cfg.DryRun {
		fmt.Fprintln(a.out, "\n[DRY RUN MODE] No files will be deleted.")
	} else if !force && !a.confirm(ctx, "\nMove duplicate copies to the trash? (y/N): ") {
		if err := ctx.Err(); err != nil {
			return err
		}
		fmt.Fprintln(a.out, "Cleanup cancelled")
		return nil
	}

	report, err := a.deleteWithProgress(ctx)
	if err != nil {
		return err
	}

	fmt.Fprintln(a.out)
	reporter.PrintDeletionSummary(a.out, report)

	if manifestPath != "" {
		if err := cleaner.NewDeletionManifest(report).Save(manifestPath); err != nil {
			return fmt.Errorf("failed to write manifest: %w", err)
		}
		fmt.Fprintf(a.out, "\nManifest written to %s\n", manifestPath)
	}
	return nil
}

// deleteWithProgress runs Delete while a listener draws its progress
func (a *app) deleteWithProgress(ctx context.Context) (*cleaner.DeletionReport, error) {
	live := ui.NewLiveProgress(a.status)
	updates := a.sess.Progress().Subscribe()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for ev := range updates {
			if p, ok := ev.(progress.DeleteProgress); ok {
				live.UpdateDelete(p)
			}
		}
	}()

	report, err := a.sess.Delete(ctx)
	a.sess.Progress().Unsubscribe(updates)
	wg.Wait()

	// the listener may have missed the final snapshot
	if p, ok := a.sess.Progress().Last().(progress.DeleteProgress); ok {
		live.UpdateDelete(p)
	}
	live.Finish()

	return report, err
}

// confirm asks a yes/no question on the input stream. An interrupt while
// waiting for the answer counts as no.
func (a *app) confirm(ctx context.Context, prompt string) bool {
	fmt.Fprint(a.out, prompt)

	answer := make(chan string, 1)
	go func() {
		response, _ := bufio.NewReader(a.in).ReadString('\n')
		answer <- response
	}()

	select {
	case <-ctx.Done():
		fmt.Fprintln(a.out)
		return false
	case response := <-answer:
		response = strings.ToLower(strings.TrimSpace(response))
		return response == "y" || response == "yes"
	}
}
