package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
)

// LoadEnvFileCandidates loads environment variables from known files for local
// runs. Existing process env vars are never overridden.
func LoadEnvFileCandidates() {
	candidates := make([]string, 0, 3)
	if explicit := strings.TrimSpace(os.Getenv("LEXTEAMS_ENV_FILE")); explicit != "" {
		candidates = append(candidates, explicit)
	}
	candidates = append(candidates, ".env")
	if home, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates, filepath.Join(home, ".config", "lexteams", "env"))
	}
	seen := map[string]struct{}{}
	for _, p := range candidates {
		abs := p
		if resolved, err := filepath.Abs(p); err == nil {
			abs = resolved
		}
		if _, ok := seen[abs]; ok {
			continue
		}
		seen[abs] = struct{}{}
		if _, err := os.Stat(abs); err != nil {
			continue
		}
		_ = godotenv.Load(abs)
	}
}
