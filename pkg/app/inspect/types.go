package inspect

import (
	"time"

	"github.com/deploymenttheory/go-simplefs/internal/filesystem"
	"github.com/deploymenttheory/go-simplefs/pkg/app"
)

// Request represents a debug dump request
type Request struct {
	// Target names the image; a non-zero Inumber limits the dump to that inode
	Target app.ImageTarget
}

// Response represents the debug dump of one image
type Response struct {
	ImagePath   string             `json:"image_path" yaml:"image_path"`
	Report      *filesystem.Report `json:"report" yaml:"report"`
	ElapsedTime time.Duration      `json:"elapsed_time" yaml:"elapsed_time"`
}

// UsedBlocks returns the data and pointer blocks owned by the reported inodes
func (r *Response) UsedBlocks() int {
	if r.Report == nil {
		return 0
	}
	used := 0
	for _, file := range r.Report.Files {
		used += len(file.DirectBlocks) + len(file.IndirectDataBlocks)
		if file.IndirectBlock.Allocated() {
			used++
		}
	}
	return used
}

// TotalBytes returns the sum of the reported file sizes
func (r *Response) TotalBytes() int64 {
	if r.Report == nil {
		return 0
	}
	var total int64
	for _, file := range r.Report.Files {
		total += file.Size
	}
	return total
}
