package services

import (
	"context"
	"errors"
	"time"

	"github.com/dmitrijs2005/gophlocker/internal/common"
)

// SweepOrphans removes blobs that no item and no profile references and
// that were last modified more than olderThan ago. The grace period keeps
// blobs whose metadata insert is still in flight. It returns the removed
// names.
func (s *LockerService) SweepOrphans(ctx context.Context, olderThan time.Duration) ([]string, error) {
	referenced := make(map[string]struct{})

	names, err := s.items.BlobNames(ctx)
	if err != nil {
		return nil, storageError("list item blobs", err)
	}
	for _, n := range names {
		referenced[n] = struct{}{}
	}

	photos, err := s.users.PhotoNames(ctx)
	if err != nil {
		return nil, storageError("list photos", err)
	}
	for _, n := range photos {
		referenced[n] = struct{}{}
	}

	store := s.blobs.Store()
	blobs, err := store.List(ctx)
	if err != nil {
		return nil, storageError("list blobs", err)
	}

	cutoff := s.now().Add(-olderThan)
	removed := make([]string, 0)
	for _, b := range blobs {
		if _, ok := referenced[b.Name]; ok {
			continue
		}
		if b.ModTime.After(cutoff) {
			continue
		}
		if err := store.Remove(ctx, b.Name); err != nil {
			if errors.Is(err, common.ErrNotFound) {
				continue
			}
			if ctx.Err() != nil {
				return removed, ctx.Err()
			}
			s.logger.Warn(ctx, "could not remove orphan blob", "blob", b.Name, "error", err)
			continue
		}
		removed = append(removed, b.Name)
	}

	if len(removed) > 0 {
		s.logger.Info(ctx, "orphan blobs removed", "count", len(removed))
	}
	return removed, nil
}

// RunSweeper calls SweepOrphans every interval until ctx is done.
func (s *LockerService) RunSweeper(ctx context.Context, interval, grace time.Duration) {
	if interval <= 0 {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	s.logger.Info(ctx, "Starting orphan sweeper", "interval", interval.String(), "grace", grace.String())
	for {
		select {
		case <-ctx.Done():
			s.logger.Info(ctx, "Stopping orphan sweeper...")
			return
		case <-ticker.C:
			if _, err := s.SweepOrphans(ctx, grace); err != nil && ctx.Err() == nil {
				s.logger.Error(ctx, "orphan sweep failed", "error", err)
			}
		}
	}
}
