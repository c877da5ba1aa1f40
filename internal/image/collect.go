package image

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/maruel/natural"
)

// CollectImages expands files, directories and glob patterns into a
// naturally sorted, de-duplicated list of supported image paths.
// Arguments that do not exist are skipped.
func CollectImages(args []string) ([]string, error) {
	var out []string
	add := func(p string) {
		fi, err := os.Stat(p)
		if err != nil {
			return
		}
		if !fi.IsDir() {
			if IsSupportedFormat(p) {
				out = append(out, p)
			}
			return
		}
		filepath.WalkDir(p, func(path string, d fs.DirEntry, err error) error {
			if err == nil && !d.IsDir() && IsSupportedFormat(path) {
				out = append(out, path)
			}
			return nil
		})
	}

	for _, a := range args {
		if strings.ContainsAny(a, "*?[") {
			matches, err := filepath.Glob(a)
			if err != nil {
				return nil, fmt.Errorf("bad pattern %q: %w", a, err)
			}
			for _, m := range matches {
				add(m)
			}
			continue
		}
		add(a)
	}

	if len(out) == 0 {
		return nil, fmt.Errorf("no input images found")
	}

	sort.SliceStable(out, func(i, j int) bool { return natural.Less(out[i], out[j]) })

	dedup := out[:0]
	var last string
	for _, p := range out {
		if p != last {
			dedup = append(dedup, p)
			last = p
		}
	}
	return dedup, nil
}
