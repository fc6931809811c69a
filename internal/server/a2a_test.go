package server

import (
	"context"
	"strings"
	"testing"

	"github.com/ethanolivertroy/tmcheck/internal/llm"
)

func TestGetPort(t *testing.T) {
	tests := []struct {
		env  string
		want int
	}{
		{"", DefaultPort},
		{"9090", 9090},
		{"not-a-port", DefaultPort},
		{"-1", DefaultPort},
		{"70000", DefaultPort},
	}

	for _, tt := range tests {
		t.Run(tt.env, func(t *testing.T) {
			t.Setenv("A2A_PORT", tt.env)
			if got := GetPort(); got != tt.want {
				t.Errorf("GetPort() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestRunA2AServerRejectsInvalidConfig(t *testing.T) {
	err := RunA2AServer(context.Background(), A2AConfig{
		Port:      DefaultPort,
		LLMConfig: llm.Config{Provider: "gemini"},
	})
	if err == nil || !strings.Contains(err.Error(), "invalid LLM config") {
		t.Errorf("RunA2AServer() error = %v", err)
	}

	err = RunA2AServer(context.Background(), A2AConfig{
		Port:      DefaultPort,
		LLMConfig: llm.Config{Provider: "ollama", OllamaURL: "http://localhost:11434"},
	})
	if err == nil || !strings.Contains(err.Error(), "no toolset") {
		t.Errorf("RunA2AServer() error = %v", err)
	}
}
