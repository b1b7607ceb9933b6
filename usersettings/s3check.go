// Copyright 2025 CostPilot
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package usersettings

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awscreds "github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// BucketChecker verifies that a profile's result output location exists.
type BucketChecker interface {
	Check(ctx context.Context, s *Settings) error
}

// S3BucketChecker checks the output bucket with a HeadBucket call using the
// profile's own credentials.
type S3BucketChecker struct{}

// NewS3BucketChecker creates a new S3 bucket checker
func NewS3BucketChecker() *S3BucketChecker {
	return &S3BucketChecker{}
}

// Check heads the bucket named in the profile's output location
func (c *S3BucketChecker) Check(ctx context.Context, s *Settings) error {
	bucket, err := bucketFromLocation(s.OutputLocation)
	if err != nil {
		return err
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(s.Region),
		awsconfig.WithCredentialsProvider(
			awscreds.NewStaticCredentialsProvider(s.AccessKey, s.SecretKey, s.SessionToken),
		),
	)
	if err != nil {
		return fmt.Errorf("failed to load AWS config: %w", err)
	}

	_, err = s3.NewFromConfig(cfg).HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(bucket),
	})
	if err != nil {
		return fmt.Errorf("output bucket %q is not reachable: %w", bucket, err)
	}
	return nil
}

// bucketFromLocation extracts the bucket name from an s3://bucket/prefix URI.
func bucketFromLocation(location string) (string, error) {
	trimmed := strings.TrimPrefix(location, "s3://")
	if trimmed == location || trimmed == "" {
		return "", fmt.Errorf("output location %q is not an s3:// URI", location)
	}
	if i := strings.Index(trimmed, "/"); i >= 0 {
		trimmed = trimmed[:i]
	}
	if trimmed == "" {
		return "", fmt.Errorf("output location %q has no bucket", location)
	}
	return trimmed, nil
}
