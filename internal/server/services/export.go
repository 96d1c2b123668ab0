package services

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/dmitrijs2005/calckeeper/internal/dbx"
	"github.com/dmitrijs2005/calckeeper/internal/logging"
	"github.com/dmitrijs2005/calckeeper/internal/server/auth"
	"github.com/dmitrijs2005/calckeeper/internal/server/config"
	"github.com/dmitrijs2005/calckeeper/internal/server/models"
	"github.com/dmitrijs2005/calckeeper/internal/server/repositories/repomanager"
)

// ExportURLValidity is how long the download link of an export stays valid.
const ExportURLValidity = 15 * time.Minute

var (
	loadDefaultAWSConfig = awsconfig.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}

	newS3PresignClient = func(c *s3.Client) *s3.PresignClient {
		return s3.NewPresignClient(c)
	}

	putObject = func(c *s3.Client, ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
		return c.PutObject(ctx, in, optFns...)
	}
	presignGetObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return pc.PresignGetObject(ctx, in, optFns...)
	}
)

// ExportedUser is the profile part of an export document.
type ExportedUser struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	CreatedAt time.Time `json:"created_at"`
}

type ExportedCalculation struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	Inputs    []float64 `json:"inputs"`
	Result    float64   `json:"result"`
	Version   int64     `json:"version"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ExportDocument is the JSON object written to the bucket.
type ExportDocument struct {
	ExportedAt   time.Time             `json:"exported_at"`
	User         ExportedUser          `json:"user"`
	Calculations []ExportedCalculation `json:"calculations"`
}

// Export describes a finished export.
type Export struct {
	Key       string
	URL       string
	Count     int
	ExpiresAt time.Time
}

// ExportService snapshots a user's data into object storage.
type ExportService struct {
	store
	config *config.Config
}

func NewExportService(db *sql.DB, m repomanager.RepositoryManager, cfg *config.Config, logger logging.Logger) *ExportService {
	return &ExportService{
		store:  newStore(db, m, cfg.StatementTimeout, logger.With("module", "export")),
		config: cfg,
	}
}

// StorageKey places an export under the owner's prefix, partitioned by day.
func StorageKey(userID, exportID string, at time.Time) string {
	return fmt.Sprintf("users/%s/exports/%04d/%02d/%02d/%s.json", userID, at.Year(), at.Month(), at.Day(), exportID)
}

func (s *ExportService) getClients(ctx context.Context) (*s3.Client, *s3.PresignClient, error) {
	cfg, err := loadDefaultAWSConfig(ctx,
		awsconfig.WithRegion(s.config.S3Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			s.config.S3RootUser,
			s.config.S3RootPassword,
			"",
		)))
	if err != nil {
		return nil, nil, err
	}

	client := newS3ClientFromConfig(cfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(s.config.S3BaseEndpoint)
		o.UsePathStyle = true
	})

	return client, newS3PresignClient(client), nil
}

// snapshot reads the profile and every calculation in one transaction so
// the document is consistent.
func (s *ExportService) snapshot(ctx context.Context, id auth.Identity) (*ExportDocument, error) {
	var (
		user  *models.User
		calcs []*models.Calculation
	)
	err := s.write(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		var err error
		user, err = s.repomanager.Users(tx).GetByID(ctx, id.UserID)
		if err != nil {
			return err
		}
		calcs, err = s.repomanager.Calculations(tx).List(ctx, id.UserID, models.CalculationFilter{})
		return err
	})
	if err != nil {
		return nil, err
	}

	doc := &ExportDocument{
		ExportedAt: s.now(),
		User: ExportedUser{
			ID:        user.ID,
			Username:  user.Username,
			Email:     user.Email,
			FirstName: user.FirstName,
			LastName:  user.LastName,
			CreatedAt: user.CreatedAt,
		},
		Calculations: make([]ExportedCalculation, 0, len(calcs)),
	}
	for _, c := range calcs {
		doc.Calculations = append(doc.Calculations, ExportedCalculation{
			ID:        c.ID,
			Type:      c.Type,
			Inputs:    c.Inputs,
			Result:    c.Result,
			Version:   c.Version,
			CreatedAt: c.CreatedAt,
			UpdatedAt: c.UpdatedAt,
		})
	}
	return doc, nil
}

// Export uploads a JSON snapshot of the caller's data and returns a
// presigned download link for it.
func (s *ExportService) Export(ctx context.Context, id auth.Identity) (*Export, error) {
	doc, err := s.snapshot(ctx, id)
	if err != nil {
		return nil, err
	}

	body, err := json.Marshal(doc)
	if err != nil {
		return nil, asServiceError(err)
	}

	client, presignClient, err := s.getClients(ctx)
	if err != nil {
		s.logger.Error(ctx, "object storage client", "error", err)
		return nil, asServiceError(err)
	}

	bucket := s.config.S3Bucket
	key := StorageKey(id.UserID, s.newID(), doc.ExportedAt)

	_, err = putObject(client, ctx, &s3.PutObjectInput{
		Bucket:      &bucket,
		Key:         &key,
		Body:        bytes.NewReader(body),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		s.logger.Error(ctx, "export upload failed", "user_id", id.UserID, "key", key, "error", err)
		return nil, asServiceError(err)
	}

	req, err := presignGetObject(presignClient, ctx, &s3.GetObjectInput{
		Bucket: &bucket,
		Key:    &key,
	}, s3.WithPresignExpires(ExportURLValidity))
	if err != nil {
		return nil, asServiceError(err)
	}

	s.logger.Info(ctx, "export written", "user_id", id.UserID, "key", key, "calculations", len(doc.Calculations))
	return &Export{
		Key:       key,
		URL:       req.URL,
		Count:     len(doc.Calculations),
		ExpiresAt: doc.ExportedAt.Add(ExportURLValidity),
	}, nil
}
