package backup

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog"

	"github.com/pratamalabs/sahamflow/internal/database"
	"github.com/pratamalabs/sahamflow/internal/events"
)

// Job uploads a consistent snapshot of the sqlite database to S3. It is
// registered only when a bucket is configured.
type Job struct {
	db     *database.DB
	bucket string
	region string
	events *events.Manager
	log    zerolog.Logger
}

// NewJob creates a backup job
func NewJob(db *database.DB, bucket, region string, ev *events.Manager, log zerolog.Logger) *Job {
	return &Job{
		db:     db,
		bucket: bucket,
		region: region,
		events: ev,
		log:    log.With().Str("component", "backup").Logger(),
	}
}

// Name implements scheduler.Job
func (j *Job) Name() string {
	return "database_backup"
}

// Run snapshots the database and uploads it. VACUUM INTO produces a
// consistent copy even while the WAL is active.
func (j *Job) Run() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	snapshot := filepath.Join(os.TempDir(), fmt.Sprintf("sahamflow-%s.db", time.Now().Format("20060102-150405")))
	defer os.Remove(snapshot)

	if _, err := j.db.Exec(`VACUUM INTO ?`, snapshot); err != nil {
		return fmt.Errorf("failed to snapshot database: %w", err)
	}

	key, err := j.upload(ctx, snapshot)
	if err != nil {
		return err
	}

	j.log.Info().Str("bucket", j.bucket).Str("key", key).Msg("Database backup uploaded")
	if j.events != nil {
		j.events.Emit("backup", events.BackupCompleted, map[string]interface{}{
			"bucket": j.bucket,
			"key":    key,
		})
	}

	return nil
}

func (j *Job) upload(ctx context.Context, path string) (string, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(j.region))
	if err != nil {
		return "", fmt.Errorf("failed to load AWS config: %w", err)
	}

	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open snapshot: %w", err)
	}
	defer f.Close()

	key := fmt.Sprintf("backups/%s/%s", time.Now().Format("2006-01-02"), filepath.Base(path))

	uploader := manager.NewUploader(s3.NewFromConfig(cfg))
	_, err = uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket: aws.String(j.bucket),
		Key:    aws.String(key),
		Body:   f,
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload snapshot: %w", err)
	}

	return key, nil
}
