package validate

import (
	"os"
	"runtime"

	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/mem"
)

// Headroom floors. Acquisition buffers media to disk; analysis holds
// transcript plus model context in memory.
const (
	minDiskBytes = 2 << 30  // 2 GiB
	minMemBytes  = 512 << 20 // 512 MiB
)

// ResourceChecker reports host resource headroom. The second return is
// false when the measurement itself failed, which never vetoes a
// capability.
type ResourceChecker interface {
	DiskFreeBytes() (uint64, bool)
	MemAvailableBytes() (uint64, bool)
}

// HostChecker measures the local host via gopsutil.
type HostChecker struct {
	// WorkDir is the filesystem the downloader writes to. Defaults to
	// the process working directory's filesystem.
	WorkDir string
}

var _ ResourceChecker = (*HostChecker)(nil)

// DiskFreeBytes returns free bytes on the working filesystem.
func (h *HostChecker) DiskFreeBytes() (uint64, bool) {
	path := h.WorkDir
	if path == "" {
		path = rootDiskPath()
		if wd, err := os.Getwd(); err == nil {
			path = wd
		}
	}
	usage, err := disk.Usage(path)
	if err != nil {
		return 0, false
	}
	return usage.Free, true
}

// MemAvailableBytes returns available physical memory.
func (h *HostChecker) MemAvailableBytes() (uint64, bool) {
	vm, err := mem.VirtualMemory()
	if err != nil {
		return 0, false
	}
	return vm.Available, true
}

func rootDiskPath() string {
	if runtime.GOOS == "windows" {
		drive := os.Getenv("SystemDrive")
		if drive == "" {
			drive = "C:"
		}
		return drive + "\\"
	}
	return "/"
}

type nopChecker struct{}

func (nopChecker) DiskFreeBytes() (uint64, bool)     { return 0, false }
func (nopChecker) MemAvailableBytes() (uint64, bool) { return 0, false }
