package filestorage

import (
	"context"
	"io"

	"org-portal-backend/config"

	"github.com/minio/minio-go/v7"
	"github.com/pkg/errors"
)

type Provider interface {
	Upload(ctx context.Context, objectKey string, fileReader io.Reader, fileSize int64, contentType string) error
	Get(ctx context.Context, objectKey string) ([]byte, error)
	Delete(ctx context.Context, objectKey string) error
	MakeBucket(ctx context.Context) error
}

var Instance Provider

type impl struct {
	s3client   *minio.Client
	bucketName string
}

func NewInstance(s3client *minio.Client) {
	Instance = New(s3client, config.Conf.S3.BucketName)
}

func New(s3client *minio.Client, bucketName string) Provider {
	return &impl{
		s3client:   s3client,
		bucketName: bucketName,
	}
}

func (i impl) Upload(ctx context.Context, objectKey string, fileReader io.Reader, fileSize int64, contentType string) error {
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	_, err := i.s3client.PutObject(ctx, i.bucketName, objectKey, fileReader, fileSize, minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return errors.Wrap(err, "object upload failed")
	}
	return nil
}

func (i impl) Get(ctx context.Context, objectKey string) ([]byte, error) {
	object, err := i.s3client.GetObject(ctx, i.bucketName, objectKey, minio.GetObjectOptions{})
	if err != nil {
		return nil, errors.Wrap(err, "object get failed")
	}
	defer object.Close()
	body, err := io.ReadAll(object)
	if err != nil {
		return nil, errors.Wrap(err, "object read failed")
	}
	return body, nil
}

func (i impl) Delete(ctx context.Context, objectKey string) error {
	err := i.s3client.RemoveObject(ctx, i.bucketName, objectKey, minio.RemoveObjectOptions{})
	if err != nil {
		return errors.Wrap(err, "object delete failed")
	}
	return nil
}

func (i impl) MakeBucket(ctx context.Context) error {
	location := "us-east-1"
	exists, err := i.s3client.BucketExists(ctx, i.bucketName)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}
	return i.s3client.MakeBucket(ctx, i.bucketName, minio.MakeBucketOptions{Region: location})
}
