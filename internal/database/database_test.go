package database

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestWithConnectTimeout(t *testing.T) {
	tests := []struct {
		name    string
		dsn     string
		timeout time.Duration
		want    string
	}{
		{
			name:    "url form",
			dsn:     "postgres://u:p@localhost:5432/db?sslmode=disable",
			timeout: 2 * time.Second,
			want:    "postgres://u:p@localhost:5432/db?connect_timeout=2&sslmode=disable",
		},
		{
			name:    "keyword form",
			dsn:     "host=localhost dbname=db",
			timeout: 3 * time.Second,
			want:    "host=localhost dbname=db connect_timeout=3",
		},
		{
			name:    "sub-second rounds up to one",
			dsn:     "host=localhost",
			timeout: 200 * time.Millisecond,
			want:    "host=localhost connect_timeout=1",
		},
		{
			name:    "already set",
			dsn:     "postgres://localhost/db?connect_timeout=9",
			timeout: 2 * time.Second,
			want:    "postgres://localhost/db?connect_timeout=9",
		},
		{
			name:    "disabled",
			dsn:     "postgres://localhost/db",
			timeout: 0,
			want:    "postgres://localhost/db",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, withConnectTimeout(tt.dsn, tt.timeout))
		})
	}
}

func TestMigrationsEmbedded(t *testing.T) {
	entries, err := migrations.ReadDir("migrations")
	assert.NoError(t, err)
	assert.Len(t, entries, 3)
}
