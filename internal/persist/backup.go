package persist

import (
	"archive/tar"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Source is the slice of the engine client a backup needs. Kept narrow
// so tests can fake it.
type Source interface {
	CopyFromContainer(ctx context.Context, name, srcPath string) (io.ReadCloser, error)
	InspectRaw(ctx context.Context, name string) ([]byte, error)
	Logs(ctx context.Context, name string, follow bool, w io.Writer) error
}

// dataDirs are the in-container directories worth preserving.
var dataDirs = []string{"/analysis", "/outputs"}

// Report describes what one backup run copied and what it skipped.
type Report struct {
	Dir     string
	Copied  []string
	Skipped []string
}

// Run copies container data into a fresh timestamped directory under
// backupsRoot. Individual copy failures are recorded in the report and
// skipped; only failures to create the backup directory itself are
// fatal.
func Run(ctx context.Context, src Source, containerName, backupsRoot string, now time.Time) (*Report, error) {
	dest, err := uniqueBackupDir(backupsRoot, now)
	if err != nil {
		return nil, err
	}

	report := &Report{Dir: dest}

	for _, dir := range dataDirs {
		if err := copyDir(ctx, src, containerName, dir, dest); err != nil {
			report.Skipped = append(report.Skipped, fmt.Sprintf("%s: no data found", dir))
			continue
		}
		report.Copied = append(report.Copied, dir)
	}

	if err := snapshotLogs(ctx, src, containerName, dest); err != nil {
		report.Skipped = append(report.Skipped, "logs: no data found")
	} else {
		report.Copied = append(report.Copied, "logs")
	}

	if err := dumpInspect(ctx, src, containerName, dest); err != nil {
		report.Skipped = append(report.Skipped, "inspect: no data found")
	} else {
		report.Copied = append(report.Copied, "inspect")
	}

	return report, nil
}

// uniqueBackupDir creates backups/<timestamp>, appending a counter
// suffix when two backups land in the same second so neither
// overwrites the other.
func uniqueBackupDir(root string, now time.Time) (string, error) {
	base := filepath.Join(root, now.Format("20060102-150405"))

	dest := base
	for i := 1; ; i++ {
		err := os.Mkdir(dest, 0755)
		if err == nil {
			return dest, nil
		}
		if !os.IsExist(err) {
			if mkErr := os.MkdirAll(root, 0755); mkErr != nil {
				return "", fmt.Errorf("failed to create backup root: %w", mkErr)
			}
			if err := os.Mkdir(dest, 0755); err == nil {
				return dest, nil
			}
			return "", fmt.Errorf("failed to create backup directory: %w", err)
		}
		dest = fmt.Sprintf("%s-%d", base, i)
	}
}

func copyDir(ctx context.Context, src Source, containerName, containerPath, dest string) error {
	reader, err := src.CopyFromContainer(ctx, containerName, containerPath)
	if err != nil {
		return err
	}
	defer reader.Close()

	return untar(reader, dest)
}

// untar extracts a tar stream under dest, refusing entries that would
// escape it.
func untar(r io.Reader, dest string) error {
	tr := tar.NewReader(r)

	for {
		header, err := tr.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to read archive: %w", err)
		}

		target := filepath.Join(dest, filepath.Clean(header.Name))
		if !strings.HasPrefix(target, filepath.Clean(dest)+string(os.PathSeparator)) {
			return fmt.Errorf("archive entry escapes backup directory: %s", header.Name)
		}

		switch header.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, 0755); err != nil {
				return err
			}
		case tar.TypeReg:
			if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
				return err
			}
			f, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, os.FileMode(header.Mode)&0777)
			if err != nil {
				return err
			}
			if _, err := io.Copy(f, tr); err != nil {
				f.Close()
				return err
			}
			f.Close()
		case tar.TypeSymlink:
			// Link targets get the same containment check as entry
			// names, resolved against the link's own directory.
			link := header.Linkname
			if !filepath.IsAbs(link) {
				link = filepath.Join(filepath.Dir(target), link)
			}
			if !strings.HasPrefix(filepath.Clean(link), filepath.Clean(dest)+string(os.PathSeparator)) {
				return fmt.Errorf("archive link escapes backup directory: %s", header.Name)
			}
			if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
				return err
			}
			if err := os.Symlink(header.Linkname, target); err != nil && !os.IsExist(err) {
				return err
			}
		}
	}
}

func snapshotLogs(ctx context.Context, src Source, containerName, dest string) error {
	f, err := os.Create(filepath.Join(dest, "container.log"))
	if err != nil {
		return err
	}
	defer f.Close()

	return src.Logs(ctx, containerName, false, f)
}

func dumpInspect(ctx context.Context, src Source, containerName, dest string) error {
	raw, err := src.InspectRaw(ctx, containerName)
	if err != nil {
		return err
	}

	var pretty bytes.Buffer
	if err := json.Indent(&pretty, raw, "", "  "); err != nil {
		// Dump verbatim when the engine hands us something odd.
		pretty.Reset()
		pretty.Write(raw)
	}

	return os.WriteFile(filepath.Join(dest, "inspect.json"), pretty.Bytes(), 0644)
}
