package aur

import (
	"archive/tar"
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/polnio/unipac-features/pkg/pacman"
)

// SnapshotDir returns where the snapshot of base is extracted
func (pm *PackageManager) SnapshotDir(base string) string {
	return filepath.Join(pm.config.CacheDir, base)
}

// PkgbuildPath returns the PKGBUILD of an extracted snapshot
func (pm *PackageManager) PkgbuildPath(base string) string {
	return filepath.Join(pm.SnapshotDir(base), "PKGBUILD")
}

// DownloadSnapshot downloads the snapshot tarball of base and extracts it
// into the cache, replacing any previous copy
func (pm *PackageManager) DownloadSnapshot(ctx context.Context, base string) error {
	pm.logger.Printf("Downloading snapshot of %s", base)

	var buf bytes.Buffer
	if err := pm.client.http.Download(ctx, pm.client.SnapshotURL(base), &buf); err != nil {
		return fmt.Errorf("downloading %s: %w", base, err)
	}

	if err := os.RemoveAll(pm.SnapshotDir(base)); err != nil {
		return fmt.Errorf("clearing snapshot of %s: %w", base, err)
	}
	if err := extractTarball(&buf, pm.config.CacheDir); err != nil {
		return fmt.Errorf("extracting %s: %w", base, err)
	}
	return nil
}

// ensureSnapshot downloads the snapshot unless a PKGBUILD is already cached
func (pm *PackageManager) ensureSnapshot(ctx context.Context, base string) error {
	if _, err := os.Stat(pm.PkgbuildPath(base)); err == nil {
		return nil
	}
	return pm.DownloadSnapshot(ctx, base)
}

// extractTarball unpacks a (compressed) tar stream into dest. Entries
// escaping dest, links leaving the archive and entries written through a
// link are rejected.
func extractTarball(r io.Reader, dest string) error {
	dr, err := pacman.Decompress(r)
	if err != nil {
		return err
	}
	defer dr.Close()

	if err := os.MkdirAll(dest, 0755); err != nil {
		return err
	}

	tr := tar.NewReader(dr)
	for {
		header, err := tr.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}

		if !filepath.IsLocal(header.Name) {
			return fmt.Errorf("unsafe path in archive: %s", header.Name)
		}
		if err := checkParents(dest, header.Name); err != nil {
			return err
		}
		target := filepath.Join(dest, header.Name)

		switch header.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, 0755); err != nil {
				return err
			}
		case tar.TypeReg:
			if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
				return err
			}
			if fi, err := os.Lstat(target); err == nil && fi.Mode()&os.ModeSymlink != 0 {
				os.Remove(target)
			}
			if err := writeFile(target, tr, os.FileMode(header.Mode)&0777); err != nil {
				return err
			}
		case tar.TypeSymlink:
			// Links only point down: with "..", a chain through other links could climb out of dest
			if !filepath.IsLocal(header.Linkname) {
				return fmt.Errorf("unsafe link in archive: %s -> %s", header.Name, header.Linkname)
			}
			if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
				return err
			}
			os.Remove(target)
			if err := os.Symlink(header.Linkname, target); err != nil {
				return err
			}
		}
	}
}

// checkParents refuses entries whose parent directories, as already
// extracted under dest, include a symlink
func checkParents(dest, name string) error {
	dir := dest
	parts := strings.Split(filepath.Dir(filepath.Clean(name)), string(filepath.Separator))
	for _, part := range parts {
		if part == "." || part == "" {
			continue
		}
		dir = filepath.Join(dir, part)
		fi, err := os.Lstat(dir)
		if os.IsNotExist(err) {
			return nil
		}
		if err != nil {
			return err
		}
		if fi.Mode()&os.ModeSymlink != 0 {
			return fmt.Errorf("unsafe path in archive: %s crosses a link", name)
		}
	}
	return nil
}

func writeFile(path string, r io.Reader, mode os.FileMode) error {
	if mode == 0 {
		mode = 0644
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, mode)
	if err != nil {
		return err
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
