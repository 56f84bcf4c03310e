// Package imageinbox attaches image files dropped into a directory to the
// relics named by their file names. A file called "<public_id>.png" or
// "<public_id>_side.jpg" becomes a new image of that relic; the file is
// then moved to processed/ or, when it cannot be attached, to failed/.
package imageinbox

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"adoptm3/models"
	"adoptm3/pkg/logging"
	"adoptm3/pkg/records"
	"adoptm3/pkg/storage"

	"github.com/fsnotify/fsnotify"
	"gorm.io/gorm"
)

const (
	ProcessedDir = "processed"
	FailedDir    = "failed"

	settleDelay = 300 * time.Millisecond
)

// ErrBadName is returned for files whose name carries no relic id.
var ErrBadName = errors.New("file name does not start with a relic id")

type Ingestor struct {
	DB     *gorm.DB
	Store  storage.Store
	Rules  storage.ImageRules
	Actor  *models.User
	Logger logging.Logger

	Dir     string
	Workers int
}

// PublicIDFromName extracts the relic public id from an inbox file name.
func PublicIDFromName(name string) (string, error) {
	base := strings.TrimSuffix(filepath.Base(name), filepath.Ext(name))
	id, _, _ := strings.Cut(base, "_")
	if id == "" {
		return "", ErrBadName
	}
	return id, nil
}

func isInboxFile(name string) bool {
	if strings.HasPrefix(name, ".") {
		return false
	}
	return storage.AllowedImageExt(name)
}

// IngestFile attaches one file of the inbox and moves it out of the way.
func (in *Ingestor) IngestFile(ctx context.Context, name string) (*models.RelicImage, error) {
	img, err := in.attach(ctx, name)
	dest := ProcessedDir
	if err != nil {
		dest = FailedDir
	}
	if mvErr := in.move(name, dest); mvErr != nil {
		in.Logger.Warn(ctx, "inbox move failed", "file", name, "dest", dest, "error", mvErr)
	}
	return img, err
}

func (in *Ingestor) attach(ctx context.Context, name string) (*models.RelicImage, error) {
	publicID, err := PublicIDFromName(name)
	if err != nil {
		return nil, err
	}
	relic, err := records.GetRelicByPublicID(ctx, in.DB, publicID)
	if err != nil {
		return nil, fmt.Errorf("relic %s: %w", publicID, err)
	}

	f, err := os.Open(filepath.Join(in.Dir, name))
	if err != nil {
		return nil, err
	}
	defer f.Close()
	stored, err := storage.SaveImage(ctx, in.Store, "relics", name, f, in.Rules)
	if err != nil {
		return nil, err
	}
	images, err := records.AddRelicImages(ctx, in.DB, in.Actor, relic.ID, []records.NewImage{{
		StorePath:   stored.Key,
		ContentType: stored.ContentType,
		Width:       stored.Width,
		Height:      stored.Height,
		Size:        stored.Size,
	}})
	if err != nil {
		_ = in.Store.Delete(ctx, stored.Key)
		return nil, err
	}
	for i := range images {
		if images[i].StorePath == stored.Key {
			in.Logger.Info(ctx, "inbox image attached", "file", name, "relic_id", relic.ID, "image_id", images[i].ID)
			return &images[i], nil
		}
	}
	return nil, fmt.Errorf("image %s missing after insert", stored.Key)
}

func (in *Ingestor) move(name, sub string) error {
	dir := filepath.Join(in.Dir, sub)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	return os.Rename(filepath.Join(in.Dir, name), filepath.Join(dir, name))
}

// pending lists inbox files in name order.
func (in *Ingestor) pending() ([]string, error) {
	entries, err := os.ReadDir(in.Dir)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() || !isInboxFile(e.Name()) {
			continue
		}
		out = append(out, e.Name())
	}
	sort.Strings(out)
	return out, nil
}

// Scan processes every file currently in the inbox and reports how many
// were attached.
func (in *Ingestor) Scan(ctx context.Context) (int, error) {
	names, err := in.pending()
	if err != nil {
		return 0, err
	}
	ch := make(chan string, len(names))
	for _, n := range names {
		ch <- n
	}
	close(ch)
	return in.runWorkers(ctx, ch), nil
}

func (in *Ingestor) runWorkers(ctx context.Context, files <-chan string) int {
	workers := in.Workers
	if workers < 1 {
		workers = 1
	}
	var (
		wg sync.WaitGroup
		mu sync.Mutex
		ok int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for name := range files {
				if ctx.Err() != nil {
					continue
				}
				if _, err := in.IngestFile(ctx, name); err != nil {
					in.Logger.Warn(ctx, "inbox file rejected", "file", name, "error", err)
					continue
				}
				mu.Lock()
				ok++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	return ok
}

// Watch scans the inbox once and then processes new files as they settle,
// until ctx is cancelled.
func (in *Ingestor) Watch(ctx context.Context) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()
	if err := w.Add(in.Dir); err != nil {
		return err
	}
	if _, err := in.Scan(ctx); err != nil {
		return err
	}
	in.Logger.Info(ctx, "watching image inbox", "dir", in.Dir)

	files := make(chan string, 256)
	done := make(chan struct{})
	go func() {
		in.runWorkers(ctx, files)
		close(done)
	}()
	defer func() {
		close(files)
		<-done
	}()

	// files are handed over once no write happened for settleDelay
	pending := map[string]time.Time{}
	ticker := time.NewTicker(settleDelay / 2)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Write) {
				continue
			}
			name := filepath.Base(ev.Name)
			if filepath.Dir(ev.Name) != filepath.Clean(in.Dir) || !isInboxFile(name) {
				continue
			}
			pending[name] = time.Now()
		case <-ticker.C:
			now := time.Now()
			for name, t := range pending {
				if now.Sub(t) < settleDelay {
					continue
				}
				delete(pending, name)
				select {
				case files <- name:
				case <-ctx.Done():
					return nil
				}
			}
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			in.Logger.Warn(ctx, "inbox watch error", "error", err)
		}
	}
}
