package server

import (
	"io/fs"
	"net/http"
	"strings"
)

// hiddenFilterFS hides every path with a segment starting with a dot, the same entries the
// walker skips by default.
type hiddenFilterFS struct {
	fs http.FileSystem
}

func (h hiddenFilterFS) Open(name string) (http.File, error) {
	if isHiddenPath(name) {
		return nil, fs.ErrNotExist
	}
	f, err := h.fs.Open(name)
	if err != nil {
		return nil, err
	}
	return hiddenFilterFile{f}, nil
}

// hiddenFilterFile drops hidden entries from directory listings.
type hiddenFilterFile struct {
	http.File
}

func (f hiddenFilterFile) Readdir(count int) ([]fs.FileInfo, error) {
	infos, err := f.File.Readdir(count)
	visible := infos[:0]
	for _, info := range infos {
		if !strings.HasPrefix(info.Name(), ".") {
			visible = append(visible, info)
		}
	}
	return visible, err
}

func isHiddenPath(name string) bool {
	for _, seg := range strings.Split(name, "/") {
		if strings.HasPrefix(seg, ".") && seg != "." && seg != ".." {
			return true
		}
	}
	return false
}
