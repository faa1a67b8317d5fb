package config

import (
	"os"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/mnemo-lab/mnemo/pkg/domain/model"
	"github.com/pelletier/go-toml/v2"
	"github.com/urfave/cli/v3"
)

// Policy holds the CLI flag for the lifecycle policy file
type Policy struct {
	path string
}

// policyFile is the TOML shape of a lifecycle policy. Durations are day
// counts, matching how retention windows are usually discussed.
type policyFile struct {
	CompressAfterDays      int     `toml:"compress_after_days"`
	CompressMaxAccess      int64   `toml:"compress_max_access"`
	ArchiveAfterDays       int     `toml:"archive_after_days"`
	ArchiveMaxAccess       int64   `toml:"archive_max_access"`
	RetainForDays          int     `toml:"retain_for_days"`
	CompressedContentLimit int     `toml:"compressed_content_limit"`
	SimilarityThreshold    float64 `toml:"similarity_threshold"`
	ScanLimit              int     `toml:"scan_limit"`
}

// Flags returns CLI flags for policy configuration
func (p *Policy) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "policy-file",
			Usage:       "Path to a TOML lifecycle policy file (defaults apply when omitted)",
			Sources:     cli.EnvVars("MNEMO_POLICY_FILE"),
			Destination: &p.path,
		},
	}
}

// Configure loads the lifecycle policy, falling back to defaults. Values
// omitted from the file keep their defaults.
func (p *Policy) Configure() (*model.LifecyclePolicy, error) {
	policy := model.DefaultLifecyclePolicy()
	if p.path == "" {
		return policy, nil
	}

	// #nosec G304 - path is expected to be provided by CLI argument
	data, err := os.ReadFile(p.path)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read policy file", goerr.V("path", p.path))
	}

	var file policyFile
	if err := toml.Unmarshal(data, &file); err != nil {
		return nil, goerr.Wrap(err, "failed to parse TOML policy", goerr.V("path", p.path))
	}

	if file.CompressAfterDays > 0 {
		policy.CompressAfter = time.Duration(file.CompressAfterDays) * 24 * time.Hour
	}
	if file.CompressMaxAccess > 0 {
		policy.CompressMaxAccess = file.CompressMaxAccess
	}
	if file.ArchiveAfterDays > 0 {
		policy.ArchiveAfter = time.Duration(file.ArchiveAfterDays) * 24 * time.Hour
	}
	if file.ArchiveMaxAccess > 0 {
		policy.ArchiveMaxAccess = file.ArchiveMaxAccess
	}
	if file.RetainForDays > 0 {
		policy.RetainFor = time.Duration(file.RetainForDays) * 24 * time.Hour
	}
	if file.CompressedContentLimit > 0 {
		policy.CompressedContentLimit = file.CompressedContentLimit
	}
	if file.SimilarityThreshold > 0 {
		policy.SimilarityThreshold = file.SimilarityThreshold
	}
	if file.ScanLimit > 0 {
		policy.ScanLimit = file.ScanLimit
	}

	if err := policy.Validate(); err != nil {
		return nil, goerr.Wrap(err, "policy validation failed", goerr.V("path", p.path))
	}

	return policy, nil
}
