// Package batch identifies every audio file in a directory and optionally
// fixes their title and artist tags.
package batch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/fatih/color"
	"github.com/google/uuid"
	"github.com/mihirpathak97/Rainbow/internal/acoustid"
	"github.com/mihirpathak97/Rainbow/internal/fingerprint"
	"github.com/mihirpathak97/Rainbow/internal/model"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

type Fingerprinter interface {
	Fingerprint(ctx context.Context, path string) (fingerprint.Result, bool, error)
}

type Lookuper interface {
	Lookup(ctx context.Context, fingerprint []byte, duration float64, meta string) (*acoustid.Response, error)
}

type Tagger interface {
	Supported(filePath string) bool
	ParseFile(filePath string) (*model.FileTags, error)
	UpdateTags(filePath string, title, artist, album *string) error
}

type Options struct {
	// Fingerprint enables identification. Without it files are only listed.
	Fingerprint bool
	// FixMetadata writes the matched title and artist into each file.
	FixMetadata bool
	Meta        string
	SkipFile    string
	Interval    time.Duration
}

type Report struct {
	Attempted int
	Matched   int
	Skipped   int
}

type Driver struct {
	fp      Fingerprinter
	lookup  Lookuper
	tags    Tagger
	opts    Options
	limiter *rate.Limiter
	log     logrus.FieldLogger
	out     io.Writer
}

func New(fp Fingerprinter, lookup Lookuper, tags Tagger, opts Options, log logrus.FieldLogger, out io.Writer) *Driver {
	if opts.SkipFile == "" {
		opts.SkipFile = "skipped.txt"
	}
	if out == nil {
		out = color.Output
	}

	limit := rate.Inf
	if opts.Interval > 0 {
		limit = rate.Every(opts.Interval)
	}

	return &Driver{
		fp:      fp,
		lookup:  lookup,
		tags:    tags,
		opts:    opts,
		limiter: rate.NewLimiter(limit, 1),
		log:     log,
		out:     out,
	}
}

// Run processes the supported files in dir, one at a time in name order.
// Per-file failures are recorded in the skip log and never stop the run;
// cancelling ctx stops it between files.
func (d *Driver) Run(ctx context.Context, dir string) (Report, error) {
	var report Report

	files, err := d.listFiles(dir)
	if err != nil {
		return report, err
	}

	log := d.log.WithFields(logrus.Fields{"run_id": uuid.NewString(), "dir": dir})
	log.WithField("files", len(files)).Info("batch started")

	for _, path := range files {
		if ctx.Err() != nil {
			log.Warn("batch cancelled")
			break
		}

		if !d.opts.Fingerprint {
			d.list(path)
			continue
		}

		report.Attempted++
		fileLog := log.WithField("file", filepath.Base(path))

		if err := d.process(ctx, path, fileLog); err != nil {
			if ctx.Err() != nil {
				report.Attempted--
				log.Warn("batch cancelled")
				break
			}
			fileLog.WithError(err).Warn("file skipped")
			color.New(color.FgYellow).Fprintf(d.out, "Skipped %s\n", path)
			if err := d.recordSkip(path); err != nil {
				fileLog.WithError(err).Error("failed to record skipped file")
			}
			report.Skipped++
			continue
		}
		report.Matched++
	}

	if d.opts.Fingerprint {
		color.New(color.FgCyan, color.Bold).Fprintf(d.out, "Matched %d of %d files\n", report.Matched, report.Attempted)
	}
	log.WithFields(logrus.Fields{
		"attempted": report.Attempted,
		"matched":   report.Matched,
		"skipped":   report.Skipped,
	}).Info("batch finished")

	return report, nil
}

var errNoMatch = errors.New("no candidate with title and artist")

func (d *Driver) process(ctx context.Context, path string, log logrus.FieldLogger) error {
	res, ok, err := d.fp.Fingerprint(ctx, path)
	if err != nil {
		return fmt.Errorf("failed to fingerprint: %w", err)
	}
	if !ok {
		return acoustid.ErrNoFingerprint
	}

	if err := d.limiter.Wait(ctx); err != nil {
		return err
	}

	resp, err := d.lookup.Lookup(ctx, res.Fingerprint, res.Duration, d.opts.Meta)
	if err != nil {
		return fmt.Errorf("failed to look up fingerprint: %w", err)
	}
	candidates, err := acoustid.ParseLookupResult(resp)
	if err != nil {
		return fmt.Errorf("failed to parse lookup result: %w", err)
	}

	best, ok := acoustid.BestMatch(candidates)
	if !ok {
		return errNoMatch
	}

	log.WithFields(logrus.Fields{
		"recording_id": best.RecordingID,
		"score":        best.Score,
	}).Debug("candidate selected")
	color.New(color.FgGreen).Fprintf(d.out, "%s: %s - %s (%.2f)\n",
		filepath.Base(path), *best.Artist, *best.Title, best.Score)

	if d.opts.FixMetadata {
		return d.fix(path, best, log)
	}
	return nil
}

// fix writes the candidate's title and artist unless the file already
// carries exactly those values.
func (d *Driver) fix(path string, best acoustid.Candidate, log logrus.FieldLogger) error {
	current, err := d.tags.ParseFile(path)
	if err == nil && current.Title == *best.Title && current.Artist == *best.Artist {
		log.Debug("tags already match")
		return nil
	}

	if err := d.tags.UpdateTags(path, best.Title, best.Artist, nil); err != nil {
		return fmt.Errorf("failed to update tags: %w", err)
	}

	fields := logrus.Fields{}
	if current != nil {
		fields["title_similarity"] = similarity(current.Title, *best.Title)
		fields["artist_similarity"] = similarity(current.Artist, *best.Artist)
	}
	log.WithFields(fields).Info("tags updated")
	return nil
}

func (d *Driver) list(path string) {
	tags, err := d.tags.ParseFile(path)
	if err != nil || tags.Title == "" {
		fmt.Fprintln(d.out, filepath.Base(path))
		return
	}
	fmt.Fprintf(d.out, "%s: %s - %s\n", filepath.Base(path), tags.Artist, tags.Title)
}

func (d *Driver) listFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory: %w", err)
	}

	var files []string
	for _, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}
		if d.tags.Supported(e.Name()) {
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(files)
	return files, nil
}

// recordSkip appends path to the skip log. The log is created on the first
// skip and never truncated.
func (d *Driver) recordSkip(path string) error {
	f, err := os.OpenFile(d.opts.SkipFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open skip log: %w", err)
	}
	defer f.Close()

	if _, err := fmt.Fprintln(f, path); err != nil {
		return fmt.Errorf("failed to write skip log: %w", err)
	}
	return nil
}
