package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	t.Run("requires JWT secret", func(t *testing.T) {
		t.Setenv("JWT_SECRET", "")
		t.Setenv("S3_BUCKET", "proofs")

		_, err := Load()
		assert.Error(t, err)
	})

	t.Run("requires bucket", func(t *testing.T) {
		t.Setenv("JWT_SECRET", "secret")
		t.Setenv("S3_BUCKET", "")

		_, err := Load()
		assert.Error(t, err)
	})

	t.Run("applies defaults and overrides", func(t *testing.T) {
		t.Setenv("JWT_SECRET", "secret")
		t.Setenv("S3_BUCKET", "proofs")
		t.Setenv("PORT", "9999")
		t.Setenv("JWT_EXPIRATION_HOURS", "not-a-number")
		t.Setenv("ALLOWED_ORIGINS", "http://a.test, http://b.test,")

		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, "9999", cfg.Port)
		assert.Equal(t, 24, cfg.JWTExpirationHours)
		assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.AllowedOrigins)
		assert.Equal(t, "us-east-1", cfg.S3Region)
	})
}

func TestPublicObjectBaseURL(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		want string
	}{
		{
			name: "explicit base wins",
			cfg:  Config{S3Bucket: "b", S3PublicBaseURL: "https://cdn.test/media/", S3Endpoint: "http://minio:9000"},
			want: "https://cdn.test/media",
		},
		{
			name: "custom endpoint uses path style",
			cfg:  Config{S3Bucket: "b", S3Endpoint: "http://minio:9000/"},
			want: "http://minio:9000/b",
		},
		{
			name: "aws virtual host",
			cfg:  Config{S3Bucket: "b", S3Region: "eu-west-1"},
			want: "https://b.s3.eu-west-1.amazonaws.com",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.cfg.PublicObjectBaseURL())
		})
	}
}
