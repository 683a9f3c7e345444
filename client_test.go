package ddbmapper

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
)

func TestNewDynamoDBClient(t *testing.T) {
	tests := []struct {
		name            string
		opts            []func(*ClientOptions)
		wantCredentials bool
	}{
		{
			name: "anonymous credentials",
			opts: []func(*ClientOptions){
				WithRegion("eu-west-1"),
				WithEndpoint("http://localhost:8000"),
				WithAnonymousCredentials(),
			},
		},
		{
			name: "environment credentials",
			opts: []func(*ClientOptions){
				WithRegion("eu-west-1"),
				WithEndpoint("http://localhost:8000"),
			},
			wantCredentials: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			missing := filepath.Join(t.TempDir(), "none")
			t.Setenv("AWS_CONFIG_FILE", missing)
			t.Setenv("AWS_SHARED_CREDENTIALS_FILE", missing)
			t.Setenv("AWS_PROFILE", "")
			t.Setenv("AWS_ACCESS_KEY_ID", "AKIDEXAMPLE")
			t.Setenv("AWS_SECRET_ACCESS_KEY", "secret")

			client, err := NewDynamoDBClient(context.Background(), tt.opts...)
			if err != nil {
				t.Fatalf("NewDynamoDBClient failed: %v", err)
			}

			opts := client.Options()
			if opts.Region != "eu-west-1" {
				t.Errorf("expected region eu-west-1, got %s", opts.Region)
			}
			if aws.ToString(opts.BaseEndpoint) != "http://localhost:8000" {
				t.Errorf("expected local endpoint, got %s", aws.ToString(opts.BaseEndpoint))
			}
			// The client drops anonymous credentials so requests go unsigned.
			if tt.wantCredentials && opts.Credentials == nil {
				t.Error("expected a credentials provider")
			}
			if !tt.wantCredentials && opts.Credentials != nil {
				t.Errorf("expected no credentials provider, got %T", opts.Credentials)
			}
		})
	}
}
