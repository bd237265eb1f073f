// Package cloudsync mirrors song files between a cloud folder and the library.
package cloudsync

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/starford/chordsheet/internal/apperr"
	"github.com/starford/chordsheet/internal/models"
	"github.com/starford/chordsheet/internal/parser"
	"github.com/starford/chordsheet/internal/songservice"
)

// RemoteFile is a file in the cloud folder. Hash changes whenever the
// content does.
type RemoteFile struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Hash string `json:"hash"`
}

// Provider is a cloud folder holding song files.
type Provider interface {
	Name() string
	List(ctx context.Context) ([]RemoteFile, error)
	Fetch(ctx context.Context, f RemoteFile) ([]byte, error)
	Push(ctx context.Context, name string, content []byte, previous *RemoteFile) (RemoteFile, error)
}

// Library is where pulled songs are written and pushed songs are read.
type Library interface {
	WriteRaw(ctx context.Context, id string, content []byte) (*songservice.SongDetail, bool, error)
	ReadRaw(ctx context.Context, id string) ([]byte, error)
}

// Mappings records which remote file each song came from.
type Mappings interface {
	RemoteFiles(provider string) (map[string]models.RemoteFile, error)
	RemoteFileForSong(provider, songID string) (*models.RemoteFile, error)
	UpsertRemoteFile(rf models.RemoteFile) error
}

// ProgressFunc reports completed and total downloads. Calls never overlap
// and current only grows, even though downloads run concurrently.
type ProgressFunc func(current, total int)

// Result summarises a pull.
type Result struct {
	Downloaded int `json:"downloaded"`
	Skipped    int `json:"skipped"`
	Failed     int `json:"failed"`
}

// Syncer pulls and pushes songs through a Provider.
type Syncer struct {
	provider    Provider
	lib         Library
	maps        Mappings
	ext         string
	concurrency int
	logger      *slog.Logger
}

// NewSyncer creates a Syncer. ext is the library song file extension.
func NewSyncer(p Provider, lib Library, maps Mappings, ext string, concurrency int, logger *slog.Logger) *Syncer {
	if concurrency <= 0 {
		concurrency = 4
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Syncer{provider: p, lib: lib, maps: maps, ext: ext, concurrency: concurrency, logger: logger}
}

// Pull downloads every remote song whose hash differs from the recorded one.
// A failed download is logged and counted; the others still complete and
// the first error is returned.
func (s *Syncer) Pull(ctx context.Context, progress ProgressFunc) (Result, error) {
	files, err := s.provider.List(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("cloudsync: list: %w", err)
	}
	known, err := s.maps.RemoteFiles(s.provider.Name())
	if err != nil {
		return Result{}, err
	}

	var res Result
	var todo []RemoteFile
	for _, f := range files {
		if m, ok := known[f.ID]; ok && m.Hash == f.Hash {
			res.Skipped++
			continue
		}
		todo = append(todo, f)
	}

	s.logger.Info("cloudsync: pull",
		slog.String("provider", s.provider.Name()),
		slog.Int("changed", len(todo)),
		slog.Int("unchanged", res.Skipped))

	var failed, downloaded atomic.Int64
	total := len(todo)
	var (
		progressMu sync.Mutex
		done       int
	)
	step := func() {
		progressMu.Lock()
		defer progressMu.Unlock()
		done++
		if progress != nil {
			progress(done, total)
		}
	}
	if progress != nil {
		progress(0, total)
	}

	var g errgroup.Group
	g.SetLimit(s.concurrency)
	for _, f := range todo {
		g.Go(func() error {
			defer step()
			if err := s.pullOne(ctx, f, known); err != nil {
				failed.Add(1)
				s.logger.Warn("cloudsync: download failed",
					slog.String("name", f.Name),
					slog.String("error", err.Error()))
				return err
			}
			downloaded.Add(1)
			return nil
		})
	}
	err = g.Wait()

	res.Downloaded = int(downloaded.Load())
	res.Failed = int(failed.Load())
	return res, err
}

func (s *Syncer) pullOne(ctx context.Context, f RemoteFile, known map[string]models.RemoteFile) error {
	data, err := s.provider.Fetch(ctx, f)
	if err != nil {
		return err
	}
	id := songservice.FileName(parser.TitleFromID(f.Name), s.ext)
	if m, ok := known[f.ID]; ok && m.SongID != "" {
		id = m.SongID
	}
	if _, _, err := s.lib.WriteRaw(ctx, id, data); err != nil {
		return fmt.Errorf("cloudsync: write %s: %w", id, err)
	}
	return s.maps.UpsertRemoteFile(models.RemoteFile{
		Provider: s.provider.Name(),
		RemoteID: f.ID,
		SongID:   id,
		Hash:     f.Hash,
	})
}

// Push uploads one library song, replacing its previous remote copy.
func (s *Syncer) Push(ctx context.Context, songID string) (RemoteFile, error) {
	data, err := s.lib.ReadRaw(ctx, songID)
	if err != nil {
		return RemoteFile{}, err
	}

	var previous *RemoteFile
	m, err := s.maps.RemoteFileForSong(s.provider.Name(), songID)
	switch {
	case err == nil:
		previous = &RemoteFile{ID: m.RemoteID, Hash: m.Hash}
	case !errors.Is(err, apperr.ErrNotFound):
		return RemoteFile{}, err
	}

	name := path.Base(songID)
	if path.Ext(name) != ".txt" {
		name = parser.TitleFromID(name) + ".txt"
	}
	rf, err := s.provider.Push(ctx, name, data, previous)
	if err != nil {
		return RemoteFile{}, fmt.Errorf("cloudsync: push %s: %w", songID, err)
	}
	if err := s.maps.UpsertRemoteFile(models.RemoteFile{
		Provider: s.provider.Name(),
		RemoteID: rf.ID,
		SongID:   songID,
		Hash:     rf.Hash,
	}); err != nil {
		return RemoteFile{}, err
	}
	s.logger.Info("cloudsync: pushed", slog.String("id", songID), slog.String("remote_id", rf.ID))
	return rf, nil
}
