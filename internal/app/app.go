package app

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/mihirpathak97/Rainbow/internal/acoustid"
	"github.com/mihirpathak97/Rainbow/internal/batch"
	"github.com/mihirpathak97/Rainbow/internal/catalog"
	"github.com/mihirpathak97/Rainbow/internal/config"
	"github.com/mihirpathak97/Rainbow/internal/embed"
	"github.com/mihirpathak97/Rainbow/internal/fingerprint"
	"github.com/mihirpathak97/Rainbow/internal/logging"
	"github.com/mihirpathak97/Rainbow/internal/model"
	"github.com/mihirpathak97/Rainbow/internal/service/audio"
	"github.com/sirupsen/logrus"
)

// App holds configuration and the services shared by every command.
// Network clients are built on demand so that commands which do not need
// them also do not need their credentials.
type App struct {
	config *config.Config
	log    *logrus.Logger
	tags   *audio.AudioService
	out    io.Writer
}

func New(cfg *config.Config, log *logrus.Logger, out io.Writer) *App {
	if log == nil {
		log = logging.New(cfg.App.LogLevel, cfg.App.LogFormat)
	}
	if out == nil {
		out = os.Stdout
	}
	return &App{
		config: cfg,
		log:    log,
		tags:   audio.NewAudioService(),
		out:    out,
	}
}

// Run calls fn with a context that is cancelled on SIGINT or SIGTERM.
func (a *App) Run(fn func(ctx context.Context) error) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := fn(ctx); err != nil {
		return err
	}
	if ctx.Err() != nil {
		a.log.Info("interrupted")
	}
	return nil
}

type ScanOptions struct {
	Fingerprint bool
	FixMetadata bool
}

func (a *App) Scan(ctx context.Context, dir string, opts ScanOptions) (batch.Report, error) {
	var (
		fp     *fingerprint.Client
		lookup *acoustid.Client
		err    error
	)
	if opts.Fingerprint {
		if err := a.config.AcoustID.Validate(); err != nil {
			return batch.Report{}, err
		}
		fp, err = a.fingerprinter()
		if err != nil {
			return batch.Report{}, err
		}
		lookup = a.lookupClient()
	}

	driver := batch.New(fp, lookup, a.tags, batch.Options{
		Fingerprint: opts.Fingerprint,
		FixMetadata: opts.FixMetadata,
		Meta:        a.config.AcoustID.Meta,
		SkipFile:    a.config.Batch.SkipFile,
		Interval:    a.config.Batch.RequestInterval,
	}, a.log, a.out)

	return driver.Run(ctx, dir)
}

// Embed writes the catalog record trackID into filePath. The boolean is the
// embed outcome; the error is reserved for configuration problems.
func (a *App) Embed(ctx context.Context, filePath, trackID string) (bool, error) {
	if err := a.config.Catalog.Validate(); err != nil {
		return false, err
	}
	if _, err := os.Stat(filePath); err != nil {
		return false, fmt.Errorf("failed to stat file: %w", err)
	}

	c := catalog.New(a.config.Catalog.ClientID, a.config.Catalog.ClientSecret,
		catalog.WithTokenURL(a.config.Catalog.TokenURL),
		catalog.WithAPIURL(a.config.Catalog.APIURL),
		catalog.WithTimeout(a.config.Catalog.Timeout),
	)

	return embed.New(c, a.tags, a.log, a.out).FetchAndWrite(ctx, filePath, trackID), nil
}

func (a *App) Inspect(filePath string) (*model.FileTags, error) {
	return a.tags.ParseFile(filePath)
}

// Submit fingerprints filePath and contributes it to the lookup service,
// optionally linked to a MusicBrainz recording.
func (a *App) Submit(ctx context.Context, filePath, mbid string) error {
	if err := a.config.AcoustID.Validate(); err != nil {
		return err
	}
	fp, err := a.fingerprinter()
	if err != nil {
		return err
	}

	res, ok, err := fp.Fingerprint(ctx, filePath)
	if err != nil {
		return fmt.Errorf("failed to fingerprint file: %w", err)
	}
	if !ok {
		return acoustid.ErrNoFingerprint
	}

	return a.lookupClient().Submit(ctx, a.config.AcoustID.UserKey, []acoustid.Submission{{
		Duration:    res.Duration,
		Fingerprint: res.Fingerprint,
		MBID:        mbid,
	}})
}

func (a *App) fingerprinter() (*fingerprint.Client, error) {
	fp, err := fingerprint.New(a.config.Fingerprint.FpcalcPath,
		fingerprint.WithMaxLength(a.config.Fingerprint.MaxLength))
	if err != nil {
		return nil, fmt.Errorf("failed to locate %s: %w", a.config.Fingerprint.FpcalcPath, err)
	}
	a.log.WithField("path", fp.Path()).Debug("fpcalc resolved")
	return fp, nil
}

func (a *App) lookupClient() *acoustid.Client {
	return acoustid.New(a.config.AcoustID.APIKey,
		acoustid.WithBaseURL(a.config.AcoustID.BaseURL),
		acoustid.WithTimeout(a.config.AcoustID.Timeout),
	)
}
