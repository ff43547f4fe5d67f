package initializers

import (
	"context"

	"org-portal-backend/config"
	filestorage "org-portal-backend/lib/file-storage"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	log "github.com/sirupsen/logrus"
)

func InitS3(ctx context.Context) {
	minioClient, err := minio.New(config.Conf.S3.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(config.Conf.S3.AccessKeyID, config.Conf.S3.SecretAccessKey, ""),
		Secure: *config.Conf.S3.UseSSL,
	})
	if err != nil {
		panic(err.Error())
	}
	filestorage.NewInstance(minioClient)

	if err = filestorage.Instance.MakeBucket(ctx); err != nil {
		log.WithError(err).Error("attachments bucket check failed")
		return
	}
	log.WithField("bucket", config.Conf.S3.BucketName).Info("s3 client initialized")
}
