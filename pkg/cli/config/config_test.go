package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	"github.com/mnemo-lab/mnemo/pkg/cli/config"
	"github.com/mnemo-lab/mnemo/pkg/domain/model"
)

func TestEmbedding_Configure(t *testing.T) {
	t.Run("returns nil client when project ID is empty", func(t *testing.T) {
		cfg := config.NewEmbeddingForTest("", "us-central1")
		client, err := cfg.Configure(t.Context())
		gt.NoError(t, err)
		gt.Value(t, client).Nil()
	})

	t.Run("returns flags", func(t *testing.T) {
		cfg := config.NewEmbeddingForTest("", "")
		flags := cfg.Flags()
		gt.Value(t, len(flags)).Equal(5)

		var names []string
		for _, flag := range flags {
			names = append(names, flag.Names()...)
		}
		gt.Array(t, names).
			Has("gemini-project").
			Has("gemini-location").
			Has("embedding-model").
			Has("embedding-dimension").
			Has("embedding-daily-budget")
	})
}

func TestPolicy_Configure(t *testing.T) {
	t.Run("returns defaults when no file given", func(t *testing.T) {
		cfg := config.NewPolicyForTest("")
		policy, err := cfg.Configure()
		gt.NoError(t, err).Required()
		gt.Value(t, *policy).Equal(*model.DefaultLifecyclePolicy())
	})

	t.Run("overlays values from TOML file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "policy.toml")
		content := `
compress_after_days = 7
archive_after_days = 30
retain_for_days = 180
similarity_threshold = 0.5
`
		gt.NoError(t, os.WriteFile(path, []byte(content), 0600)).Required()

		cfg := config.NewPolicyForTest(path)
		policy, err := cfg.Configure()
		gt.NoError(t, err).Required()

		gt.Value(t, policy.CompressAfter).Equal(7 * 24 * time.Hour)
		gt.Value(t, policy.ArchiveAfter).Equal(30 * 24 * time.Hour)
		gt.Value(t, policy.RetainFor).Equal(180 * 24 * time.Hour)
		gt.Value(t, policy.SimilarityThreshold).Equal(0.5)

		// untouched values keep defaults
		defaults := model.DefaultLifecyclePolicy()
		gt.Value(t, policy.CompressMaxAccess).Equal(defaults.CompressMaxAccess)
		gt.Value(t, policy.ScanLimit).Equal(defaults.ScanLimit)
	})

	t.Run("fails on missing file", func(t *testing.T) {
		cfg := config.NewPolicyForTest(filepath.Join(t.TempDir(), "absent.toml"))
		_, err := cfg.Configure()
		gt.Error(t, err)
	})

	t.Run("fails on malformed TOML", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "broken.toml")
		gt.NoError(t, os.WriteFile(path, []byte("compress_after_days = ["), 0600)).Required()

		cfg := config.NewPolicyForTest(path)
		_, err := cfg.Configure()
		gt.Error(t, err)
	})
}
