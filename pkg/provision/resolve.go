package provision

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/olimci/lakeprep/pkg/digest"
	"github.com/olimci/lakeprep/pkg/store"
)

type outcome int

const (
	outcomeAccepted outcome = iota
	outcomeRegistered
	outcomeDownloaded
)

// resolve runs with the lock held. It stops at the first file that cannot be
// provided; entries gathered before that point are not persisted.
func (p *Provisioner) resolve(ctx context.Context, req Request) (Result, error) {
	m, readErr := p.store.ReadManifest()
	if readErr != nil {
		p.logger.Warn("manifest unreadable, rebuilding entries from disk", "err", readErr)
	}

	var (
		res     Result
		changed bool
	)
	for _, name := range req.Files {
		before, hadEntry := m[name]

		out, err := p.resolveFile(ctx, m, name, req.Expected[name])
		if err != nil {
			return Result{}, err
		}

		if after, ok := m[name]; ok != hadEntry || after != before {
			changed = true
		}

		switch out {
		case outcomeAccepted:
			res.Accepted = append(res.Accepted, name)
		case outcomeRegistered:
			res.Registered = append(res.Registered, name)
		case outcomeDownloaded:
			res.Downloaded = append(res.Downloaded, name)
		}
	}

	// a manifest that failed to read cleanly is rewritten even if no entry changed
	if readErr != nil {
		changed = true
	}

	if changed {
		if err := p.store.SaveManifest(m); err != nil {
			return Result{}, err
		}
	}
	if err := p.store.SetMarker(req.Fingerprint()); err != nil {
		return Result{}, err
	}

	p.logger.Info("data files ready",
		"dir", p.store.Root,
		"downloaded", len(res.Downloaded),
		"registered", len(res.Registered),
		"accepted", len(res.Accepted),
	)
	return res, nil
}

func (p *Provisioner) resolveFile(ctx context.Context, m store.Manifest, name string, expected digest.Digest) (outcome, error) {
	path := p.store.FilePath(name)

	present, size, err := p.store.HasFile(name)
	if err != nil {
		return 0, err
	}

	if present {
		entry, recorded := m[name]
		if recorded && !p.verify && entry.Size == size && entryMatches(entry, expected) {
			return outcomeAccepted, nil
		}

		d, n, err := digest.ForFile(path)
		if err != nil {
			return 0, err
		}
		fresh := store.NewEntry(d, n)

		switch {
		case !expected.IsZero() && d.Equal(expected):
			m[name] = fresh
			if recorded && entry == fresh {
				return outcomeAccepted, nil
			}
			return outcomeRegistered, nil
		case !expected.IsZero():
			p.logger.Warn("file does not match expected digest, downloading again", "file", name, "expected", expected.String(), "got", d.String())
		case recorded && entry == fresh:
			return outcomeAccepted, nil
		case recorded:
			p.logger.Warn("file changed since it was recorded, downloading again", "file", name, "recorded", entry.Digest, "got", d.String())
		default:
			p.logger.Debug("registering existing file", "file", name)
			m[name] = fresh
			return outcomeRegistered, nil
		}

		delete(m, name)
		if err := removeIfExists(path); err != nil {
			return 0, err
		}
	}

	if err := p.download(ctx, name, path, expected, m); err != nil {
		return 0, err
	}
	return outcomeDownloaded, nil
}

func (p *Provisioner) download(ctx context.Context, name, path string, expected digest.Digest, m store.Manifest) error {
	p.logger.Info("downloading", "file", name)

	if err := p.downloader.Download(ctx, name, path); err != nil {
		if rmErr := removeIfExists(path); rmErr != nil {
			p.logger.Error("remove partial download", "file", name, "err", rmErr)
		}
		p.logger.Error("download failed", "file", name, "err", err)
		return &DownloadError{Name: name, Err: err}
	}

	d, n, err := digest.ForFile(path)
	if err != nil {
		return &DownloadError{Name: name, Err: fmt.Errorf("downloader reported success: %w", err)}
	}
	if !expected.IsZero() && !d.Equal(expected) {
		if rmErr := removeIfExists(path); rmErr != nil {
			p.logger.Error("remove mismatched download", "file", name, "err", rmErr)
		}
		return &ChecksumError{Name: name, Expected: expected.String(), Got: d.String()}
	}

	m[name] = store.NewEntry(d, n)
	return nil
}

// entryMatches reports whether a recorded entry agrees with the expected digest, if any.
func entryMatches(entry store.Entry, expected digest.Digest) bool {
	if expected.IsZero() {
		return true
	}
	recorded, err := entry.ParsedDigest()
	return err == nil && recorded.Equal(expected)
}

func removeIfExists(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove %s: %w", path, err)
	}
	return nil
}
