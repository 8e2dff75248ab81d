package mpibuild

import (
	"archive/tar"
	"compress/gzip"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

// extract replaces the source tree with the tarball contents. Upstream
// publishes no checksums, so only path escapes are rejected.
func (b *Builder) extract() error {
	if err := os.RemoveAll(b.SourcePath()); err != nil {
		return fmt.Errorf("mpibuild: clear source tree: %w", err)
	}

	f, err := os.Open(b.TarballPath())
	if err != nil {
		return fmt.Errorf("mpibuild: open tarball: %w", err)
	}
	defer f.Close()

	gz, err := gzip.NewReader(f)
	if err != nil {
		return fmt.Errorf("mpibuild: open gzip stream: %w", err)
	}
	defer gz.Close()

	tr := tar.NewReader(gz)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("mpibuild: read archive: %w", err)
		}

		target, err := b.entryPath(hdr.Name)
		if err != nil {
			return err
		}
		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, 0o755); err != nil {
				return fmt.Errorf("mpibuild: extract dir %s: %w", hdr.Name, err)
			}
		case tar.TypeReg:
			if err := writeEntry(target, tr, hdr.FileInfo().Mode().Perm()); err != nil {
				return fmt.Errorf("mpibuild: extract file %s: %w", hdr.Name, err)
			}
		case tar.TypeSymlink:
			if err := b.checkLinkTarget(hdr.Name, hdr.Linkname, target); err != nil {
				return err
			}
			if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
				return fmt.Errorf("mpibuild: extract symlink %s: %w", hdr.Name, err)
			}
			os.Remove(target)
			if err := os.Symlink(hdr.Linkname, target); err != nil {
				return fmt.Errorf("mpibuild: extract symlink %s: %w", hdr.Name, err)
			}
		case tar.TypeLink:
			// hardlink targets are archive paths, guarded like entry names
			source, err := b.entryPath(hdr.Linkname)
			if err != nil {
				return err
			}
			if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
				return fmt.Errorf("mpibuild: extract hardlink %s: %w", hdr.Name, err)
			}
			os.Remove(target)
			if err := os.Link(source, target); err != nil {
				return fmt.Errorf("mpibuild: extract hardlink %s: %w", hdr.Name, err)
			}
		default:
			// pax headers and device nodes are skipped
		}
	}
	return nil
}

func (b *Builder) entryPath(name string) (string, error) {
	target := filepath.Join(b.installRoot, filepath.FromSlash(name))
	if !isWithin(target, b.installRoot) {
		return "", fmt.Errorf("%w: %q", ErrUnsafeEntry, name)
	}
	return target, nil
}

// checkLinkTarget rejects symlink targets that resolve outside the
// extract root. Relative targets resolve against the link's own dir.
func (b *Builder) checkLinkTarget(name, linkname, target string) error {
	if filepath.IsAbs(linkname) {
		return fmt.Errorf("%w: %q -> %q", ErrUnsafeEntry, name, linkname)
	}
	resolved := filepath.Join(filepath.Dir(target), filepath.FromSlash(linkname))
	if !isWithin(resolved, b.installRoot) {
		return fmt.Errorf("%w: %q -> %q", ErrUnsafeEntry, name, linkname)
	}
	return nil
}

func writeEntry(target string, r io.Reader, perm os.FileMode) error {
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return err
	}
	out, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, perm)
	if err != nil {
		return err
	}
	defer out.Close()
	if _, err := io.Copy(out, r); err != nil {
		return err
	}
	return nil
}

func copyAndClose(tmp *os.File, resp *http.Response) error {
	if _, err := io.Copy(tmp, resp.Body); err != nil {
		tmp.Close()
		return err
	}
	return tmp.Close()
}

func isWithin(path string, root string) bool {
	rel, err := filepath.Rel(filepath.Clean(root), filepath.Clean(path))
	if err != nil {
		return false
	}
	return rel == "." || (!strings.HasPrefix(rel, ".."+string(os.PathSeparator)) && rel != "..")
}
