package client

import (
	"context"
	"fmt"
	"time"

	"github.com/gabriel-vasile/mimetype"
)

// UploadReceiptImage obtains an upload URL for a new receipt image, PUTs
// the bytes and returns the blob URL to store on the record. The file name
// extension and content type follow the detected image format.
func UploadReceiptImage(ctx context.Context, c Client, image []byte, now time.Time) (string, error) {
	mt := mimetype.Detect(image)
	ext := mt.Extension()
	if ext == "" {
		ext = ".bin"
	}
	fileName := fmt.Sprintf("receipt-%d%s", now.UnixMilli(), ext)

	u, err := c.GetUploadURL(ctx, fileName)
	if err != nil {
		return "", fmt.Errorf("get upload url: %w", err)
	}
	if err := c.UploadBlob(ctx, u.UploadURL, image, mt.String()); err != nil {
		return "", fmt.Errorf("upload blob: %w", err)
	}
	return u.BlobURL, nil
}
