package identity

import (
	"context"
	"os"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/m-mizutani/goerr/v2"
	"github.com/mnemo-lab/mnemo/pkg/domain/interfaces"
	"github.com/mnemo-lab/mnemo/pkg/domain/types"
)

const DefaultSessionFile = ".mnemo_session"

// FileProvider persists a generated user ID in a local session file so the
// same identity is reused across process restarts.
type FileProvider struct {
	mu   sync.Mutex
	path string
}

var _ interfaces.IdentityProvider = &FileProvider{}

func NewFileProvider(path string) *FileProvider {
	if path == "" {
		path = DefaultSessionFile
	}
	return &FileProvider{path: path}
}

func (p *FileProvider) GetOrCreateUserID(_ context.Context) (types.UserID, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	raw, err := os.ReadFile(p.path)
	if err == nil {
		userID := types.UserID(strings.TrimSpace(string(raw)))
		if err := userID.Validate(); err == nil {
			return userID, nil
		}
	} else if !os.IsNotExist(err) {
		return "", goerr.Wrap(err, "failed to read session file", goerr.V("path", p.path))
	}

	userID := types.UserID(uuid.New().String())
	if err := os.WriteFile(p.path, []byte(userID), 0600); err != nil {
		return "", goerr.Wrap(err, "failed to write session file", goerr.V("path", p.path))
	}

	return userID, nil
}

// Static always returns a fixed user ID, for servers that resolve identity
// per request.
type Static types.UserID

var _ interfaces.IdentityProvider = Static("")

func (s Static) GetOrCreateUserID(_ context.Context) (types.UserID, error) {
	userID := types.UserID(s)
	if err := userID.Validate(); err != nil {
		return "", err
	}
	return userID, nil
}
