package server_test

import (
	"testing"

	"timetable-sync/core/server"

	"github.com/stretchr/testify/assert"
)

func TestConfig_Address(t *testing.T) {
	tests := []struct {
		name string
		port string
		want string
	}{
		{"Default", "", ":8080"},
		{"Custom", "9090", ":9090"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := server.Config{Port: tt.port}
			assert.Equal(t, tt.want, c.Address())
		})
	}
}

func TestConfig_IsSecured(t *testing.T) {
	assert.False(t, server.Config{}.IsSecured())
	assert.True(t, server.Config{ApiKey: "secret"}.IsSecured())
}
