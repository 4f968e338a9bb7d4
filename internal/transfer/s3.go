package transfer

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
	"github.com/rs/zerolog/log"
	"github.com/tanq16/dlspeed/internal/utils"
)

// S3API is the subset of *s3.Client used for measurements.
type S3API interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
}

// S3Source measures s3://bucket/key objects. The client is created on first
// use so runs without S3 URLs never touch AWS configuration.
type S3Source struct {
	profile string
	fixed   S3API // set by NewS3Source, skips config loading
	once    sync.Once
	client  S3API
	initErr error
}

func NewS3Source(client S3API) *S3Source {
	return &S3Source{fixed: client}
}

func NewS3SourceFromProfile(profile string) *S3Source {
	return &S3Source{profile: profile}
}

func (s *S3Source) getClient(ctx context.Context) (S3API, error) {
	if s.fixed != nil {
		return s.fixed, nil
	}
	s.once.Do(func() {
		opts := []func(*config.LoadOptions) error{config.WithRetryMode(aws.RetryModeAdaptive)}
		if s.profile != "" {
			opts = append(opts, config.WithSharedConfigProfile(s.profile))
		}
		cfg, err := config.LoadDefaultConfig(ctx, opts...)
		if err != nil {
			s.initErr = fmt.Errorf("error loading AWS config: %w", err)
			return
		}
		s.client = s3.NewFromConfig(cfg)
		log.Debug().Str("op", "transfer/s3").Str("profile", s.profile).Str("region", cfg.Region).Msg("S3 client created")
	})
	return s.client, s.initErr
}

func (s *S3Source) Open(ctx context.Context, req utils.Request) (*Response, error) {
	bucket, key, err := parseS3URL(req.URL)
	if err != nil {
		return nil, &utils.TransferError{Kind: utils.ErrorProtocol, Op: "parse url", URL: req.URL, Err: err}
	}
	client, err := s.getClient(ctx)
	if err != nil {
		return nil, &utils.TransferError{Kind: utils.ErrorConnection, Op: "configure", URL: req.URL, Err: err}
	}
	switch req.Method {
	case http.MethodHead:
		out, err := client.HeadObject(ctx, &s3.HeadObjectInput{Bucket: aws.String(bucket), Key: aws.String(key)})
		if err != nil {
			return s3Failure(req, "HeadObject", err)
		}
		log.Debug().Str("op", "transfer/s3").Str("url", req.URL).Int64("length", aws.ToInt64(out.ContentLength)).Msg("object head received")
		return &Response{Status: s3Status(http.StatusOK), StatusCode: http.StatusOK, ContentLength: 0}, nil
	case http.MethodGet:
		out, err := client.GetObject(ctx, &s3.GetObjectInput{Bucket: aws.String(bucket), Key: aws.String(key)})
		if err != nil {
			return s3Failure(req, "GetObject", err)
		}
		length := int64(-1)
		if out.ContentLength != nil {
			length = *out.ContentLength
		}
		return &Response{Status: s3Status(http.StatusOK), StatusCode: http.StatusOK, ContentLength: length, Body: out.Body}, nil
	default:
		return nil, &utils.TransferError{
			Kind: utils.ErrorProtocol,
			Op:   req.Method,
			URL:  req.URL,
			Err:  fmt.Errorf("%w: method %s is not available for s3", utils.ErrNotSupported, req.Method),
		}
	}
}

func s3Status(code int) string {
	return fmt.Sprintf("S3 %d %s", code, http.StatusText(code))
}

// s3Failure maps SDK errors: anything carrying an HTTP status is a protocol
// error, everything else failed before a response arrived.
func s3Failure(req utils.Request, op string, err error) (*Response, error) {
	var withStatus interface{ HTTPStatusCode() int }
	if errors.As(err, &withStatus) && withStatus.HTTPStatusCode() != 0 {
		code := withStatus.HTTPStatusCode()
		var apiErr smithy.APIError
		if errors.As(err, &apiErr) {
			err = fmt.Errorf("%s: %s", apiErr.ErrorCode(), apiErr.ErrorMessage())
		}
		return &Response{Status: s3Status(code), StatusCode: code, ContentLength: -1},
			&utils.TransferError{Kind: utils.ErrorProtocol, Op: op, URL: req.URL, StatusCode: code, Err: err}
	}
	return nil, &utils.TransferError{Kind: utils.ErrorConnection, Op: op, URL: req.URL, Err: err}
}

func parseS3URL(url string) (string, string, error) {
	url = strings.TrimPrefix(url, "s3://")
	parts := strings.SplitN(url, "/", 2)
	if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("invalid S3 URL format, expected s3://bucket/key")
	}
	return parts[0], parts[1], nil
}
