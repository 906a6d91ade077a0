package fetch

import (
	"compress/gzip"
	"io"
	"os"

	"github.com/rotisserie/eris"
)

// extractGZIP decompresses a .gz file to destPath and returns the number of
// bytes written.
func extractGZIP(gzPath, destPath string) (int64, error) {
	in, err := os.Open(gzPath)
	if err != nil {
		return 0, eris.Wrapf(err, "gzip: open %s", gzPath)
	}
	defer in.Close() //nolint:errcheck

	gz, err := gzip.NewReader(in)
	if err != nil {
		return 0, eris.Wrapf(err, "gzip: read header of %s", gzPath)
	}
	defer gz.Close() //nolint:errcheck

	out, err := os.Create(destPath)
	if err != nil {
		return 0, eris.Wrapf(err, "gzip: create %s", destPath)
	}
	defer out.Close() //nolint:errcheck

	n, err := io.Copy(out, gz)
	if err != nil {
		return n, eris.Wrapf(err, "gzip: extract %s", gzPath)
	}
	return n, nil
}
