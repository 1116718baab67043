package repository

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"lectura/model"

	"github.com/minio/minio-go/v7"
)

// minioTranscriptRepository stores transcripts as JSON objects in a MinIO
// bucket, one object per video id. Used when transcripts must outlive the
// local filesystem.
type minioTranscriptRepository struct {
	client *minio.Client
	bucket string
}

// NewMinioTranscriptRepository creates an object-storage-backed repository.
func NewMinioTranscriptRepository(client *minio.Client, bucket string) TranscriptRepository {
	return &minioTranscriptRepository{client: client, bucket: bucket}
}

func (r *minioTranscriptRepository) objectName(id string) string {
	return "transcripts/" + id + ".json"
}

func opCtx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 30*time.Second)
}

// Exists checks whether the transcript object is present.
func (r *minioTranscriptRepository) Exists(id string) bool {
	ctx, cancel := opCtx()
	defer cancel()

	_, err := r.client.StatObject(ctx, r.bucket, r.objectName(id), minio.StatObjectOptions{})
	return err == nil
}

// Load fetches and parses the transcript object for id.
func (r *minioTranscriptRepository) Load(id string) (*model.Transcript, error) {
	ctx, cancel := opCtx()
	defer cancel()

	object, err := r.client.GetObject(ctx, r.bucket, r.objectName(id), minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to get transcript object for %s: %w", id, err)
	}
	defer object.Close()

	data, err := io.ReadAll(object)
	if err != nil {
		return nil, fmt.Errorf("failed to read transcript object for %s: %w", id, err)
	}

	var t model.Transcript
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("failed to parse transcript object for %s: %w", id, err)
	}
	return &t, nil
}

// Save uploads the transcript for id. PutObject replaces the whole object, so
// readers never see a partial transcript.
func (r *minioTranscriptRepository) Save(id string, transcript *model.Transcript) error {
	data, err := json.MarshalIndent(transcript, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal transcript for %s: %w", id, err)
	}

	ctx, cancel := opCtx()
	defer cancel()

	_, err = r.client.PutObject(ctx, r.bucket, r.objectName(id),
		bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
			ContentType: "application/json",
		})
	if err != nil {
		return fmt.Errorf("failed to upload transcript for %s: %w", id, err)
	}
	return nil
}
