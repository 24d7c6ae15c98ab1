package watermark

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// writeAtomic streams into a temporary file next to output and renames it
// into place once write succeeds. On failure nothing is left behind.
func writeAtomic(output string, write func(io.Writer) error) error {
	return writeAtomicPath(context.Background(), output, func(tmp string) error {
		f, err := os.OpenFile(tmp, os.O_WRONLY|os.O_TRUNC, 0o644)
		if err != nil {
			return err
		}
		if err := write(f); err != nil {
			f.Close()
			return err
		}
		return f.Close()
	})
}

// writeAtomicPath is writeAtomic for writers that need a path, such as an
// external encoder. The temporary name keeps the extension of output.
func writeAtomicPath(ctx context.Context, output string, write func(tmp string) error) (err error) {
	dir, base := filepath.Split(output)
	if dir == "" {
		dir = "."
	}
	ext := filepath.Ext(base)
	f, err := os.CreateTemp(dir, "."+strings.TrimSuffix(base, ext)+"-*"+ext)
	if err != nil {
		return err
	}
	tmp := f.Name()
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	defer func() {
		if err != nil {
			os.Remove(tmp)
		}
	}()

	if err := write(tmp); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return os.Rename(tmp, output)
}

// OutputName is the conventional destination of a marked copy:
// dir/<payload>_<base name of filename>. Path separators in payload are
// replaced and filename is reduced to its base name, so the result never
// leaves dir.
func OutputName(dir, payload, filename string) string {
	base := filepath.Base(strings.ReplaceAll(filename, `\`, "/"))
	safe := strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', 0:
			return '_'
		}
		return r
	}, payload)
	return filepath.Join(dir, safe+"_"+base)
}
