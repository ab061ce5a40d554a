package services

import (
	"context"
	"fmt"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/dmitrijs2005/expensehub/internal/api"
	"github.com/dmitrijs2005/expensehub/internal/common"
	sc "github.com/dmitrijs2005/expensehub/internal/server/config"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

var (
	loadDefaultAWSConfig = config.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}

	newS3PresignClient = func(c *s3.Client) *s3.PresignClient {
		return s3.NewPresignClient(c)
	}

	presignPutObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return pc.PresignPutObject(ctx, in, optFns...)
	}
)

// BlobService hands out presigned URLs for receipt image uploads to the
// S3-compatible bucket.
type BlobService struct {
	config *sc.Config
	now    func() time.Time
}

func NewBlobService(config *sc.Config) *BlobService {
	return &BlobService{config: config, now: time.Now}
}

// BlobKey names the object of an upload: "<owner>/<unix millis>-<file>".
func BlobKey(ownerID, fileName string, at time.Time) string {
	base := path.Base(strings.ReplaceAll(fileName, "\\", "/"))
	return fmt.Sprintf("%s/%d-%s", ownerID, at.UnixMilli(), base)
}

func (s *BlobService) getPresignClient(ctx context.Context) (*s3.PresignClient, error) {
	cfg, err := loadDefaultAWSConfig(ctx,
		config.WithRegion(s.config.S3Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			s.config.S3RootUser,
			s.config.S3RootPassword,
			"",
		)))
	if err != nil {
		return nil, err
	}

	client := newS3ClientFromConfig(cfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(s.config.S3BaseEndpoint)
		o.UsePathStyle = true
	})

	return newS3PresignClient(client), nil
}

// UploadURL presigns a PUT for a new receipt image. BlobURL is the permanent
// address the client stores on the receipt once the upload succeeds.
func (s *BlobService) UploadURL(ctx context.Context, ownerID, fileName string) (*api.UploadURL, error) {
	if strings.TrimSpace(fileName) == "" {
		return nil, fmt.Errorf("%w: fileName is required", common.ErrorValidation)
	}

	presignClient, err := s.getPresignClient(ctx)
	if err != nil {
		return nil, err
	}

	now := s.now()
	bucket := s.config.S3Bucket
	key := BlobKey(ownerID, fileName, now)

	req, err := presignPutObject(presignClient, ctx, &s3.PutObjectInput{
		Bucket: &bucket,
		Key:    &key,
	}, s3.WithPresignExpires(s.config.UploadURLExpiry))
	if err != nil {
		return nil, err
	}

	blobURL, err := url.JoinPath(s.config.S3BaseEndpoint, bucket, key)
	if err != nil {
		return nil, fmt.Errorf("blob url: %w", err)
	}

	return &api.UploadURL{
		UploadURL: req.URL,
		BlobURL:   blobURL,
		ExpiresAt: now.Add(s.config.UploadURLExpiry).UTC(),
	}, nil
}
