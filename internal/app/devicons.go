package app

import (
	"os"
	"time"

	devicons "github.com/epilande/go-devicons"
)

// iconFileInfo lets devicons pick an icon from a name without touching the disk.
type iconFileInfo struct {
	name string
}

func (i iconFileInfo) Name() string { return i.name }

func (i iconFileInfo) Size() int64 { return 0 }

func (i iconFileInfo) Mode() os.FileMode { return 0 }

func (i iconFileInfo) ModTime() time.Time { return time.Time{} }

func (i iconFileInfo) IsDir() bool { return false }

func (i iconFileInfo) Sys() any { return nil }

// fileIcon returns the Nerd Font glyph for a file name.
func fileIcon(name string) string {
	if name == "" {
		return ""
	}
	return devicons.IconForInfo(iconFileInfo{name: name}).Icon
}

func iconWithSpace(icon string) string {
	if icon == "" {
		return ""
	}
	return icon + " "
}
