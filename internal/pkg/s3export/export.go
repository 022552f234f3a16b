package s3export

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/gofiber/fiber/v2/log"

	"github.com/eduprompt/eduprompt/app/models"
	"github.com/eduprompt/eduprompt/app/repository"
)

// Client wraps the S3 client with export-specific functionality
type Client struct {
	s3Client *s3.Client
	config   *Config
}

// NewClient creates a new S3 export client
func NewClient(cfg *Config) (*Client, error) {
	if !cfg.IsEnabled() {
		return nil, fmt.Errorf("S3 export is disabled")
	}

	// Create AWS config
	awsConfig, err := config.LoadDefaultConfig(context.TODO(),
		config.WithRegion(cfg.Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKeyID,
			cfg.SecretAccessKey,
			"",
		)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	// Create S3 client
	s3Client := s3.NewFromConfig(awsConfig, func(o *s3.Options) {
		if cfg.EndpointURL != "" {
			o.BaseEndpoint = aws.String(cfg.EndpointURL)
			// Path-style URLs for S3-compatible services
			o.UsePathStyle = true
			o.UseAccelerate = false
		}
	})

	return &Client{
		s3Client: s3Client,
		config:   cfg,
	}, nil
}

// ExportMonth collects the paid payments of one calendar month, renders them
// as CSV and uploads the file to the configured bucket. Returns the object
// key and the number of exported rows.
func (c *Client) ExportMonth(ctx context.Context, repo repository.PaymentRepository, month time.Time) (string, int, error) {
	from := time.Date(month.Year(), month.Month(), 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 1, 0)

	payments, err := repo.ListPaidBetween(from, to)
	if err != nil {
		return "", 0, fmt.Errorf("failed to load payments: %w", err)
	}

	return c.upload(ctx, payments, c.config.GetObjectKey(from), from)
}

// ExportSchoolMonth is ExportMonth restricted to the payments of one
// school's members, stored under the school's export prefix.
func (c *Client) ExportSchoolMonth(ctx context.Context, repo repository.PaymentRepository, schoolID uint, month time.Time) (string, int, error) {
	from := time.Date(month.Year(), month.Month(), 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 1, 0)

	payments, err := repo.ListPaidBetweenForSchool(from, to, schoolID)
	if err != nil {
		return "", 0, fmt.Errorf("failed to load payments: %w", err)
	}

	return c.upload(ctx, payments, c.config.GetSchoolObjectKey(schoolID, from), from)
}

func (c *Client) upload(ctx context.Context, payments []models.Payment, objectKey string, from time.Time) (string, int, error) {
	body, err := renderCSV(payments)
	if err != nil {
		return "", 0, err
	}

	bucketName := c.config.GetBucketName()

	_, err = c.s3Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(bucketName),
		Key:           aws.String(objectKey),
		Body:          bytes.NewReader(body),
		ContentType:   aws.String("text/csv"),
		ContentLength: aws.Int64(int64(len(body))),
		Metadata: map[string]string{
			"export-month":  from.Format("2006-01"),
			"export-source": "eduprompt-billing",
		},
	})
	if err != nil {
		return "", 0, fmt.Errorf("failed to upload to S3: %w", err)
	}

	log.Infof("[S3Export] Uploaded %d payments: s3://%s/%s", len(payments), bucketName, objectKey)
	return objectKey, len(payments), nil
}

func renderCSV(payments []models.Payment) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	header := []string{"payment_id", "user_id", "user_email", "tier", "amount_vnd", "currency", "gateway", "gateway_txn_no", "paid_at"}
	if err := w.Write(header); err != nil {
		return nil, err
	}

	for _, p := range payments {
		paidAt := ""
		if p.PaidAt != nil {
			paidAt = p.PaidAt.UTC().Format(time.RFC3339)
		}
		row := []string{
			p.PublicID,
			strconv.FormatUint(uint64(p.UserID), 10),
			p.User.Email,
			p.TierID,
			strconv.FormatInt(p.AmountVND, 10),
			p.Currency,
			p.Gateway,
			p.GatewayTransactionNo,
			paidAt,
		}
		if err := w.Write(row); err != nil {
			return nil, err
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
