package notifications

import (
	"fmt"
	"path/filepath"
	"strings"

	"golang.org/x/sys/unix"
)

// NewestArtifacts returns, among files in dir whose name starts with prefix,
// the most recently changed `.log` file and, independently, the most
// recently changed `.err` file. Change time is the inode ctime.
func NewestArtifacts(dir, prefix string) ([]string, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, nil
	}
	matches, err := filepath.Glob(filepath.Join(dir, prefix+"*"))
	if err != nil {
		return nil, fmt.Errorf("list artifacts: %w", err)
	}

	type candidate struct {
		path string
		sec  int64
		nsec int64
	}
	newest := map[string]candidate{}
	for _, path := range matches {
		ext := strings.TrimPrefix(filepath.Ext(path), ".")
		if ext != "log" && ext != "err" {
			continue
		}
		var st unix.Stat_t
		if err := unix.Stat(path, &st); err != nil {
			continue
		}
		if st.Mode&unix.S_IFMT != unix.S_IFREG {
			continue
		}
		sec, nsec := st.Ctim.Unix()
		current, ok := newest[ext]
		if !ok || sec > current.sec || (sec == current.sec && nsec > current.nsec) {
			newest[ext] = candidate{path: path, sec: sec, nsec: nsec}
		}
	}

	var out []string
	for _, ext := range []string{"log", "err"} {
		if c, ok := newest[ext]; ok {
			out = append(out, c.path)
		}
	}
	return out, nil
}
