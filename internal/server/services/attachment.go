package services

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/epicrunze/journal/internal/common"
	sc "github.com/epicrunze/journal/internal/server/config"
	"github.com/epicrunze/journal/internal/server/models"
	"github.com/epicrunze/journal/internal/server/repositories/repomanager"
	"github.com/google/uuid"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// Seams for testing the AWS presign flow without network access.
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
	presignGetObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return pc.PresignGetObject(ctx, in, optFns...)
	}
)

// AttachmentService links binary files to entries. Bytes never pass through
// the API server: uploads and downloads go straight to object storage via
// presigned URLs.
type AttachmentService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	config      *sc.Config
}

func NewAttachmentService(db *sql.DB, m repomanager.RepositoryManager, cfg *sc.Config) *AttachmentService {
	return &AttachmentService{db: db, repomanager: m, config: cfg}
}

// UploadTask pairs a freshly created attachment with the URL the client
// must PUT the file bytes to.
type UploadTask struct {
	Attachment *models.Attachment `json:"attachment"`
	UploadURL  string             `json:"upload_url"`
}

func randomStorageKey() string {
	d := time.Now()
	return fmt.Sprintf("users/%d/%d/%d/%v", d.Year(), d.Month(), d.Day(), uuid.New())
}

func (s *AttachmentService) getPresignClient() (*s3.PresignClient, error) {
	cfg, err := loadDefaultAWSConfig(context.Background(),
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
	})

	return newS3PresignClient(client), nil
}

// CreateUpload records attachment metadata and returns a presigned PUT URL.
// The attachment stays unconfirmed until ConfirmUpload.
func (s *AttachmentService) CreateUpload(ctx context.Context, userID, entryID uuid.UUID, fileName string) (*UploadTask, error) {
	// ownership check before handing out storage access
	if _, err := s.repomanager.Entries(s.db).GetByID(ctx, entryID, userID); err != nil {
		return nil, err
	}

	presignClient, err := s.getPresignClient()
	if err != nil {
		return nil, fmt.Errorf("error building presign client: %w", err)
	}

	bucket := s.config.S3Bucket
	key := randomStorageKey()
	req, err := presignPutObject(presignClient, ctx, &s3.PutObjectInput{
		Bucket: &bucket,
		Key:    &key,
	}, s3.WithPresignExpires(15*time.Minute))
	if err != nil {
		return nil, fmt.Errorf("error presigning upload: %w", err)
	}

	attachment := &models.Attachment{
		ID:         uuid.New(),
		EntryID:    entryID,
		UserID:     userID,
		FileName:   fileName,
		StorageKey: key,
		CreatedAt:  time.Now().UTC(),
	}
	if _, err := s.repomanager.Attachments(s.db).Create(ctx, attachment); err != nil {
		return nil, fmt.Errorf("error creating attachment: %w", err)
	}

	return &UploadTask{Attachment: attachment, UploadURL: req.URL}, nil
}

// ConfirmUpload marks an attachment as present in object storage.
func (s *AttachmentService) ConfirmUpload(ctx context.Context, userID, attachmentID uuid.UUID) error {
	repo := s.repomanager.Attachments(s.db)
	attachment, err := repo.GetByID(ctx, attachmentID)
	if err != nil {
		return err
	}
	if attachment.UserID != userID {
		return fmt.Errorf("attachment %s: %w", attachmentID, common.ErrUnauthorized)
	}
	return repo.MarkUploaded(ctx, attachmentID)
}

// GetDownloadURL returns a presigned GET URL for an uploaded attachment.
func (s *AttachmentService) GetDownloadURL(ctx context.Context, userID, attachmentID uuid.UUID) (string, error) {
	attachment, err := s.repomanager.Attachments(s.db).GetByID(ctx, attachmentID)
	if err != nil {
		return "", err
	}
	if attachment.UserID != userID {
		return "", fmt.Errorf("attachment %s: %w", attachmentID, common.ErrUnauthorized)
	}

	presignClient, err := s.getPresignClient()
	if err != nil {
		return "", fmt.Errorf("error building presign client: %w", err)
	}

	bucket := s.config.S3Bucket
	req, err := presignGetObject(presignClient, ctx, &s3.GetObjectInput{
		Bucket: &bucket,
		Key:    &attachment.StorageKey,
	}, s3.WithPresignExpires(15*time.Minute))
	if err != nil {
		return "", fmt.Errorf("error presigning download: %w", err)
	}
	return req.URL, nil
}

// ListByEntry returns an entry's attachments after an ownership check.
func (s *AttachmentService) ListByEntry(ctx context.Context, userID, entryID uuid.UUID) ([]*models.Attachment, error) {
	if _, err := s.repomanager.Entries(s.db).GetByID(ctx, entryID, userID); err != nil {
		return nil, err
	}
	return s.repomanager.Attachments(s.db).ListByEntry(ctx, entryID)
}
