package config

import (
	"os"
	"testing"
)

// BenchmarkConfig_Validate benchmarks configuration validation
func BenchmarkConfig_Validate(b *testing.B) {
	cfg := validBaseConfig()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = cfg.Validate()
	}
}

// BenchmarkConfig_LoadFromEnv benchmarks environment variable loading
func BenchmarkConfig_LoadFromEnv(b *testing.B) {
	os.Setenv("MATCH_THRESHOLD", "0.65")
	os.Setenv("MIN_CONFIDENCE_SCORE", "0.6")
	os.Setenv("MIN_EXECUTABLE_SIZE_USD", "10")
	os.Setenv("STORAGE_MODE", "console")
	defer func() {
		os.Unsetenv("MATCH_THRESHOLD")
		os.Unsetenv("MIN_CONFIDENCE_SCORE")
		os.Unsetenv("MIN_EXECUTABLE_SIZE_USD")
		os.Unsetenv("STORAGE_MODE")
	}()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = LoadFromEnv()
	}
}
