package s3

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	"github.com/Sukhmangill977/majoor2.0/internal/model"
)

const presignExpiry = 15 * time.Minute

// FilePresigner hands out short-lived PUT URLs so clients stream file bytes
// straight to object storage; the server only ever sees the resulting URL.
type FilePresigner struct {
	S3PresignClient *s3.PresignClient
	BucketName      string
	endpoint        string
}

func NewFilePresigner() (*FilePresigner, error) {
	endpoint := os.Getenv("S3_ENDPOINT")
	region := os.Getenv("AWS_REGION")
	bucketName := os.Getenv("S3_BUCKET_NAME")
	accessKey := os.Getenv("AWS_ACCESS_KEY_ID")
	secretKey := os.Getenv("AWS_SECRET_ACCESS_KEY")
	usePathStyle := os.Getenv("S3_USE_PATH_STYLE") == "true"

	cfg, err := config.LoadDefaultConfig(
		context.TODO(),
		config.WithRegion(region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(accessKey, secretKey, "")),
	)

	if err != nil {
		return nil, err
	}

	s3Client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}
		o.UsePathStyle = usePathStyle
	})

	return &FilePresigner{
		S3PresignClient: s3.NewPresignClient(s3Client),
		BucketName:      bucketName,
		endpoint:        endpoint,
	}, nil
}

// UploadTarget pairs the one-time upload URL with the durable public URL the
// object will have once the PUT completes.
type UploadTarget struct {
	UploadURL string
	FileURL   string
}

func (p *FilePresigner) PresignUpload(ctx context.Context, userID string, kind model.FileKind) (*UploadTarget, error) {
	objectKey := objectKeyFor(userID, kind)

	request, err := p.S3PresignClient.PresignPutObject(
		ctx,
		&s3.PutObjectInput{
			Bucket: aws.String(p.BucketName),
			Key:    aws.String(objectKey),
		},
		s3.WithPresignExpires(presignExpiry),
	)

	if err != nil {
		return nil, err
	}

	return &UploadTarget{
		UploadURL: request.URL,
		FileURL:   p.endpoint + "/" + p.BucketName + "/" + objectKey,
	}, nil
}

func objectKeyFor(userID string, kind model.FileKind) string {
	switch kind {
	case model.FileKindAvatar:
		return fmt.Sprintf("avatars/%s/%s.jpg", userID, uuid.New())
	default:
		return fmt.Sprintf("documents/%s/%s.pdf", userID, uuid.New())
	}
}
