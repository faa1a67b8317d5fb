package memtool

import (
	"context"
	"fmt"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gollem"
	"github.com/mnemo-lab/mnemo/pkg/agent/tool"
	"github.com/mnemo-lab/mnemo/pkg/domain/model"
	"github.com/mnemo-lab/mnemo/pkg/domain/types"
	"github.com/mnemo-lab/mnemo/pkg/usecase"
)

// saveMemoryTool stores a new memory for the user
type saveMemoryTool struct {
	uc     *usecase.Memory
	userID types.UserID
}

func (t *saveMemoryTool) Spec() gollem.ToolSpec {
	return gollem.ToolSpec{
		Name:        "memory__save",
		Description: "Save a fact, preference, or observation about the user so it can be recalled in later sessions. An embedding is generated automatically for similarity search.",
		Parameters: map[string]*gollem.Parameter{
			"content": {
				Type:        gollem.TypeString,
				Description: "The fact or observation to remember",
				Required:    true,
			},
			"category": {
				Type:        gollem.TypeString,
				Description: "Optional category label (default: general)",
				Required:    false,
			},
		},
	}
}

func (t *saveMemoryTool) Run(ctx context.Context, args map[string]any) (map[string]any, error) {
	content, _ := args["content"].(string)
	if content == "" {
		return nil, fmt.Errorf("content is required")
	}
	category, _ := args["category"].(string)

	tool.Update(ctx, "Saving memory...")

	id, err := t.uc.Save(ctx, t.userID, content, nil, types.Category(category))
	if err != nil {
		return nil, goerr.Wrap(err, "failed to save memory",
			goerr.V("userID", t.userID),
		)
	}

	return map[string]any{"id": int64(id)}, nil
}

// searchMemoryTool retrieves memories relevant to a query
type searchMemoryTool struct {
	uc     *usecase.Memory
	userID types.UserID
}

func (t *searchMemoryTool) Spec() gollem.ToolSpec {
	return gollem.ToolSpec{
		Name:        "memory__search",
		Description: "Retrieve the user's stored memories most relevant to the given query. Falls back to the most recent memories when no semantically similar ones exist.",
		Parameters: map[string]*gollem.Parameter{
			"query": {
				Type:        gollem.TypeString,
				Description: "Search query text",
				Required:    true,
			},
			"limit": {
				Type:        gollem.TypeInteger,
				Description: "Maximum number of results to return (default: 5)",
				Required:    false,
			},
			"category": {
				Type:        gollem.TypeString,
				Description: "Restrict the search to a single category",
				Required:    false,
			},
		},
	}
}

func (t *searchMemoryTool) Run(ctx context.Context, args map[string]any) (map[string]any, error) {
	query, _ := args["query"].(string)
	if query == "" {
		return nil, fmt.Errorf("query is required")
	}

	tool.Update(ctx, fmt.Sprintf("Searching memories: %s", query))

	limit := 5
	if v, err := extractInt64(args, "limit"); err == nil && v > 0 {
		limit = int(v)
	}

	var opts []usecase.RetrieveOption
	if category, _ := args["category"].(string); category != "" {
		opts = append(opts, usecase.WithCategory(types.Category(category)))
	}

	results, err := t.uc.Retrieve(ctx, t.userID, query, limit, opts...)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to search memories",
			goerr.V("userID", t.userID),
		)
	}

	items := make([]map[string]any, len(results))
	for i, r := range results {
		items[i] = map[string]any{
			"id":         int64(r.ID),
			"content":    r.Content,
			"category":   r.Category.String(),
			"created_at": r.CreatedAt.String(),
		}
	}
	return map[string]any{"memories": items, "count": len(items)}, nil
}

// forgetMemoryTool deletes a memory by ID
type forgetMemoryTool struct {
	uc     *usecase.Memory
	userID types.UserID
}

func (t *forgetMemoryTool) Spec() gollem.ToolSpec {
	return gollem.ToolSpec{
		Name:        "memory__forget",
		Description: "Delete a stored memory by its ID. Use this when the user asks to forget something or a memory is outdated.",
		Parameters: map[string]*gollem.Parameter{
			"memory_id": {
				Type:        gollem.TypeInteger,
				Description: "The ID of the memory to delete",
				Required:    true,
			},
		},
	}
}

func (t *forgetMemoryTool) Run(ctx context.Context, args map[string]any) (map[string]any, error) {
	memoryID, err := extractInt64(args, "memory_id")
	if err != nil {
		return nil, err
	}

	tool.Update(ctx, fmt.Sprintf("Forgetting memory %d...", memoryID))

	if err := t.uc.Forget(ctx, t.userID, types.RecordID(memoryID)); err != nil {
		return nil, goerr.Wrap(err, "failed to forget memory",
			goerr.V("memoryID", memoryID),
		)
	}

	return map[string]any{"deleted": true}, nil
}

// memoryStatsTool reports how many memories the user has per lifecycle state
type memoryStatsTool struct {
	uc     *usecase.Memory
	userID types.UserID
}

func (t *memoryStatsTool) Spec() gollem.ToolSpec {
	return gollem.ToolSpec{
		Name:        "memory__stats",
		Description: "Report how many memories are stored for the user, broken down by lifecycle state",
		Parameters:  map[string]*gollem.Parameter{},
	}
}

func (t *memoryStatsTool) Run(ctx context.Context, args map[string]any) (map[string]any, error) {
	tool.Update(ctx, "Fetching memory stats...")

	stats, err := t.uc.Stats(ctx, t.userID)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to fetch memory stats",
			goerr.V("userID", t.userID),
		)
	}

	return statsResult(stats), nil
}

func statsResult(stats *model.UserStats) map[string]any {
	return map[string]any{
		"total":      stats.Total,
		"active":     stats.Active,
		"compressed": stats.Compressed,
		"archived":   stats.Archived,
	}
}
