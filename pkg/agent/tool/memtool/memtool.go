// Package memtool exposes the memory store operations as gollem tools so
// that LLM agents can save, search and discard memories during a session.
package memtool

import (
	"fmt"

	"github.com/m-mizutani/gollem"
	"github.com/mnemo-lab/mnemo/pkg/domain/types"
	"github.com/mnemo-lab/mnemo/pkg/usecase"
)

// New builds the memory tools for the given user. All tool calls are scoped
// to that user's partition.
func New(uc *usecase.Memory, userID types.UserID) []gollem.Tool {
	return []gollem.Tool{
		&saveMemoryTool{uc: uc, userID: userID},
		&searchMemoryTool{uc: uc, userID: userID},
		&forgetMemoryTool{uc: uc, userID: userID},
		&memoryStatsTool{uc: uc, userID: userID},
	}
}

// extractInt64 extracts an int64 value from args map, accepting int, int64, or float64
func extractInt64(args map[string]any, key string) (int64, error) {
	v, ok := args[key]
	if !ok {
		return 0, fmt.Errorf("%s is required", key)
	}
	switch n := v.(type) {
	case int:
		return int64(n), nil
	case int64:
		return n, nil
	case float64:
		return int64(n), nil
	default:
		return 0, fmt.Errorf("%s must be an integer", key)
	}
}
