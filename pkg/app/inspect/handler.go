package inspect

import (
	"fmt"
	"time"

	"github.com/deploymenttheory/go-simplefs/internal/filesystem"
	"github.com/deploymenttheory/go-simplefs/pkg/app"
	"github.com/deploymenttheory/go-simplefs/pkg/services"
)

// Handle processes a debug dump request
func Handle(ctx *app.Context, svc services.FilesystemService, req *Request) (*Response, error) {
	startTime := time.Now()

	if err := req.Validate(); err != nil {
		return nil, err
	}

	ctx.Log(fmt.Sprintf("Reading superblock and inode table of %s", req.Target.ImagePath))
	ctx.Progress("Reading inode table...", 10)

	report, err := svc.Inspect(ctx, req.Target.ImagePath)
	if err != nil {
		return nil, app.WrapFSError("failed to inspect image", err)
	}

	if req.Target.Inumber != 0 && report.MagicValid {
		report, err = onlyInode(report, req)
		if err != nil {
			return nil, err
		}
	}

	response := &Response{
		ImagePath:   req.Target.ImagePath,
		Report:      report,
		ElapsedTime: time.Since(startTime),
	}

	ctx.Progress("Complete", 100)
	ctx.Log(fmt.Sprintf("Debug dump completed: %d inodes in use, %d blocks owned", len(report.Files), response.UsedBlocks()))

	return response, nil
}

// onlyInode narrows report down to the requested inode
func onlyInode(report *filesystem.Report, req *Request) (*filesystem.Report, error) {
	filtered := *report
	filtered.Files = nil
	for _, file := range report.Files {
		if file.Inumber == req.Target.Inumber {
			filtered.Files = append(filtered.Files, file)
		}
	}
	if len(filtered.Files) == 0 {
		return nil, app.NewError(app.ErrCodeInodeNotFound, fmt.Sprintf("inode %d is not in use", req.Target.Inumber), nil)
	}
	return &filtered, nil
}
