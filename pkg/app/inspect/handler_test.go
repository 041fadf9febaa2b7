package inspect

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deploymenttheory/go-simplefs/internal/device"
	"github.com/deploymenttheory/go-simplefs/internal/types"
	"github.com/deploymenttheory/go-simplefs/pkg/app"
	"github.com/deploymenttheory/go-simplefs/pkg/services"
)

// newPopulatedImage formats an image holding two files and returns its path
func newPopulatedImage(t *testing.T) (services.FilesystemService, string) {
	t.Helper()
	ctx := context.Background()
	logger, _ := logtest.NewNullLogger()
	factory := services.NewServiceFactory(logger, device.ImageConfig{})
	t.Cleanup(func() { _ = factory.Shutdown() })

	images, err := factory.ImageService()
	require.NoError(t, err)
	fsSvc, err := factory.FilesystemService()
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "disk.img")
	require.NoError(t, images.CreateImage(ctx, path, 64))
	require.NoError(t, fsSvc.Format(ctx, path))

	for _, content := range []string{"hello", strings.Repeat("x", 6*types.BlockSize)} {
		inumber, err := fsSvc.Create(ctx, path)
		require.NoError(t, err)
		_, err = fsSvc.WriteFile(ctx, path, inumber, strings.NewReader(content), 0)
		require.NoError(t, err)
	}
	return fsSvc, path
}

func TestHandle(t *testing.T) {
	fsSvc, path := newPopulatedImage(t)

	tests := []struct {
		name     string
		request  *Request
		wantErr  bool
		errCode  string
		validate func(*testing.T, *Response)
	}{
		{
			name:    "whole image",
			request: &Request{Target: app.ImageTarget{ImagePath: path}},
			validate: func(t *testing.T, resp *Response) {
				assert.True(t, resp.Report.MagicValid)
				assert.Equal(t, uint32(64), resp.Report.Blocks)
				require.Len(t, resp.Report.Files, 2)
				assert.Equal(t, []types.BlockNumber{8}, resp.Report.Files[0].DirectBlocks)
				assert.Equal(t, types.BlockNumber(14), resp.Report.Files[1].IndirectBlock)
				assert.Equal(t, 8, resp.UsedBlocks())
			},
		},
		{
			name:    "single inode",
			request: &Request{Target: app.ImageTarget{ImagePath: path, Inumber: 2}},
			validate: func(t *testing.T, resp *Response) {
				require.Len(t, resp.Report.Files, 1)
				assert.Equal(t, types.Inumber(2), resp.Report.Files[0].Inumber)
				assert.Equal(t, int64(6*types.BlockSize), resp.TotalBytes())
			},
		},
		{
			name:    "unused inode",
			request: &Request{Target: app.ImageTarget{ImagePath: path, Inumber: 5}},
			wantErr: true,
			errCode: app.ErrCodeInodeNotFound,
		},
		{
			name:    "missing image path",
			request: &Request{},
			wantErr: true,
			errCode: app.ErrCodeInvalidInput,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := app.NewContext()
			ctx.Quiet = true

			resp, err := Handle(ctx, fsSvc, tt.request)

			if tt.wantErr {
				require.Error(t, err)
				assert.Nil(t, resp)
				var common *app.CommonError
				require.ErrorAs(t, err, &common)
				assert.Equal(t, tt.errCode, common.Code)
				return
			}
			require.NoError(t, err)
			require.NotNil(t, resp)
			assert.Equal(t, path, resp.ImagePath)
			if tt.validate != nil {
				tt.validate(t, resp)
			}
		})
	}
}

func TestHandle_Progress(t *testing.T) {
	fsSvc, path := newPopulatedImage(t)

	logger, hook := logtest.NewNullLogger()
	ctx := app.NewContext()
	ctx.Logger = logger
	ctx.Verbose = true

	var percents []int
	ctx.SetProgress(func(_ string, percent int) { percents = append(percents, percent) })

	_, err := Handle(ctx, fsSvc, &Request{Target: app.ImageTarget{ImagePath: path}})
	require.NoError(t, err)
	assert.Equal(t, []int{10, 100}, percents)
	require.NotEmpty(t, hook.AllEntries())
	assert.Contains(t, hook.LastEntry().Message, "2 inodes in use")
}
