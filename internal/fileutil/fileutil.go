package fileutil

import (
	"bytes"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"pictor/internal/services"
)

// Export copies the image at src into destDir under its own base name,
// preserving the source mode and verifying the copy with SHA256 + size.
// It refuses to overwrite an existing file and removes a bad copy. The
// destination path is returned.
func Export(src, destDir string) (string, error) {
	info, err := os.Stat(src)
	if err != nil {
		return "", services.Classify("fileutil", "export", err)
	}
	if info.IsDir() {
		return "", services.Wrap(services.ErrValidation, "fileutil", "export", "source is a directory", nil)
	}

	dest := filepath.Join(destDir, filepath.Base(src))
	if _, err := os.Stat(dest); err == nil {
		return "", services.Wrap(services.ErrValidation, "fileutil", "export",
			fmt.Sprintf("destination already exists: %s", dest), nil)
	} else if !errors.Is(err, fs.ErrNotExist) {
		return "", services.Classify("fileutil", "export", err)
	}

	if err := copyVerified(src, dest, info.Size(), info.Mode()); err != nil {
		return "", err
	}
	return dest, nil
}

func copyVerified(src, dest string, size int64, mode os.FileMode) error {
	in, err := os.Open(src)
	if err != nil {
		return services.Classify("fileutil", "export", err)
	}
	defer in.Close()

	out, err := os.OpenFile(dest, os.O_CREATE|os.O_WRONLY|os.O_EXCL, mode)
	if err != nil {
		return services.Classify("fileutil", "export", err)
	}
	defer func() {
		_ = out.Close()
	}()

	srcHasher := sha256.New()
	destHasher := sha256.New()
	tee := io.TeeReader(in, srcHasher)
	multi := io.MultiWriter(out, destHasher)

	written, err := io.Copy(multi, tee)
	if err != nil {
		_ = os.Remove(dest)
		return services.Classify("fileutil", "export", err)
	}
	if err := out.Close(); err != nil {
		_ = os.Remove(dest)
		return services.Classify("fileutil", "export", err)
	}

	if written != size {
		_ = os.Remove(dest)
		return fmt.Errorf("copy size mismatch: source %d bytes, copied %d bytes", size, written)
	}
	if !bytes.Equal(srcHasher.Sum(nil), destHasher.Sum(nil)) {
		_ = os.Remove(dest)
		return fmt.Errorf("copy hash mismatch: file corrupted during copy")
	}
	return nil
}
