package config

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFlags(t *testing.T) {
	tests := []struct {
		start       *Config
		expected    *Config
		name        string
		args        []string
		expectPanic bool
	}{
		{
			name: "all flags",
			args: []string{
				"-a", "127.0.0.1:9090", "-m", ":9100", "-d", "db", "-s", "secret", "-k", "sig",
				"-t", "1", "-r", "3", "-l", "7",
				"-u", "user", "-p", "password", "-b", "bucket", "-g", "us-west-1", "-e", "http://endpoint",
			},
			start: &Config{},
			expected: &Config{
				EndpointAddrGRPC:             "127.0.0.1:9090",
				MetricsAddr:                  ":9100",
				DatabaseDSN:                  "db",
				SecretKey:                    "secret",
				SignatureSecret:              "sig",
				AccessTokenValidityDuration:  1 * time.Minute,
				RefreshTokenValidityDuration: 3 * time.Minute,
				DefaultBallotDuration:        7 * 24 * time.Hour,
				S3RootUser:                   "user",
				S3RootPassword:               "password",
				S3Bucket:                     "bucket",
				S3Region:                     "us-west-1",
				S3BaseEndpoint:               "http://endpoint",
			},
		},
		{
			name:     "unset durations keep sub-minute values",
			args:     []string{"-c", "conf.json", "-d", "db"},
			start:    &Config{AccessTokenValidityDuration: 30 * time.Second},
			expected: &Config{DatabaseDSN: "db", AccessTokenValidityDuration: 30 * time.Second},
		},
		{
			name:        "bad integer",
			args:        []string{"-t", "soon"},
			start:       &Config{},
			expectPanic: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := tt.start

			if tt.expectPanic {
				require.Panics(t, func() { parseFlags(config, tt.args) })
				return
			}

			require.NotPanics(t, func() { parseFlags(config, tt.args) })
			assert.Empty(t, cmp.Diff(tt.expected, config))
		})
	}
}
