package memtool_test

import (
	"context"
	"testing"

	"github.com/m-mizutani/gollem"
	"github.com/m-mizutani/gt"
	"github.com/mnemo-lab/mnemo/pkg/adapter/embedding"
	"github.com/mnemo-lab/mnemo/pkg/agent/tool"
	"github.com/mnemo-lab/mnemo/pkg/agent/tool/memtool"
	"github.com/mnemo-lab/mnemo/pkg/domain/types"
	"github.com/mnemo-lab/mnemo/pkg/repository/memory"
	"github.com/mnemo-lab/mnemo/pkg/usecase"
)

const testUserID = types.UserID("tool-test-user")

// tool order from memtool.New
const (
	idxSave = iota
	idxSearch
	idxForget
	idxStats
)

// newCtxWithUpdateCapture returns a context that captures all update messages
// and a pointer to the slice where they are appended.
func newCtxWithUpdateCapture() (context.Context, *[]string) {
	var messages []string
	ctx := tool.WithUpdate(context.Background(), func(_ context.Context, msg string) {
		messages = append(messages, msg)
	})
	return ctx, &messages
}

func newTestTools(t *testing.T) []gollem.Tool {
	t.Helper()
	uc := usecase.New(memory.New(), usecase.WithEmbedding(embedding.NewMock()))
	tools := memtool.New(uc, testUserID)
	gt.A(t, tools).Length(4)
	return tools
}

func memoriesOf(t *testing.T, result map[string]any) []map[string]any {
	t.Helper()
	items, ok := result["memories"].([]map[string]any)
	gt.True(t, ok)
	return items
}

func TestMemoryTools(t *testing.T) {
	t.Run("save then search returns the memory", func(t *testing.T) {
		ctx, messages := newCtxWithUpdateCapture()
		tools := newTestTools(t)

		saved, err := tools[idxSave].Run(ctx, map[string]any{
			"content":  "User prefers dark mode",
			"category": "Preferences",
		})
		gt.NoError(t, err).Required()
		gt.Value(t, saved["id"]).Equal(int64(1))

		result, err := tools[idxSearch].Run(ctx, map[string]any{
			"query": "what UI theme does the user like",
		})
		gt.NoError(t, err).Required()

		items := memoriesOf(t, result)
		gt.A(t, items).Length(1)
		gt.Value(t, items[0]["content"]).Equal("User prefers dark mode")
		// categories are stored verbatim, only empties default
		gt.Value(t, items[0]["category"]).Equal("Preferences")

		gt.A(t, *messages).Longer(1)
	})

	t.Run("save requires content", func(t *testing.T) {
		tools := newTestTools(t)

		_, err := tools[idxSave].Run(context.Background(), map[string]any{})
		gt.Error(t, err)
	})

	t.Run("search honors limit and category", func(t *testing.T) {
		ctx := context.Background()
		tools := newTestTools(t)

		for _, content := range []string{"likes Go", "likes Rust", "likes Python"} {
			_, err := tools[idxSave].Run(ctx, map[string]any{
				"content":  content,
				"category": "languages",
			})
			gt.NoError(t, err).Required()
		}
		_, err := tools[idxSave].Run(ctx, map[string]any{
			"content": "lives in Tokyo",
		})
		gt.NoError(t, err).Required()

		result, err := tools[idxSearch].Run(ctx, map[string]any{
			"query":    "programming languages",
			"limit":    float64(2), // JSON numbers arrive as float64
			"category": "languages",
		})
		gt.NoError(t, err).Required()

		items := memoriesOf(t, result)
		gt.A(t, items).Length(2)
		gt.Value(t, result["count"]).Equal(2)
	})

	t.Run("forget removes a memory", func(t *testing.T) {
		ctx := context.Background()
		tools := newTestTools(t)

		saved, err := tools[idxSave].Run(ctx, map[string]any{
			"content": "temporary note",
		})
		gt.NoError(t, err).Required()

		result, err := tools[idxForget].Run(ctx, map[string]any{
			"memory_id": saved["id"],
		})
		gt.NoError(t, err).Required()
		gt.Value(t, result["deleted"]).Equal(true)

		searched, err := tools[idxSearch].Run(ctx, map[string]any{
			"query": "temporary note",
		})
		gt.NoError(t, err).Required()
		gt.Value(t, searched["count"]).Equal(0)
	})

	t.Run("forget requires memory_id", func(t *testing.T) {
		tools := newTestTools(t)

		_, err := tools[idxForget].Run(context.Background(), map[string]any{})
		gt.Error(t, err)
	})

	t.Run("stats reflects saved memories", func(t *testing.T) {
		ctx := context.Background()
		tools := newTestTools(t)

		for i := 0; i < 3; i++ {
			_, err := tools[idxSave].Run(ctx, map[string]any{
				"content": "a fact",
			})
			gt.NoError(t, err).Required()
		}

		result, err := tools[idxStats].Run(ctx, map[string]any{})
		gt.NoError(t, err).Required()
		gt.Value(t, result["total"]).Equal(int64(3))
		gt.Value(t, result["active"]).Equal(int64(3))
	})
}
