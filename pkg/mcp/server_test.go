package mcp_test

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/macropower/rulekit/pkg/mcp"
	"github.com/macropower/rulekit/pkg/rule"
	"github.com/macropower/rulekit/pkg/store"
)

var testStore = store.MustNew(
	rule.MustNew("general", rule.ModeAlways,
		rule.WithDescription("General conventions"),
		rule.WithBody("Be nice.")),
	rule.MustNew("python", rule.ModeGlob,
		rule.WithDescription("Python conventions"),
		rule.WithGlobs("**/*.py"),
		rule.WithBody("Use type hints.")),
	rule.MustNew("migrations", rule.ModeAgentRequested,
		rule.WithDescription("Database migrations"),
		rule.WithBody("Write reversible migrations.")),
	rule.MustNew("release", rule.ModeManual,
		rule.WithBody("Bump the version.")),
)

func connect(t *testing.T, s *mcp.Server) *sdk.ClientSession {
	t.Helper()

	ctx := t.Context()
	clientTransport, serverTransport := sdk.NewInMemoryTransports()

	serverSession, err := s.Server().Connect(ctx, serverTransport, nil)
	require.NoError(t, err)

	client := sdk.NewClient(&sdk.Implementation{Name: "test", Version: "v0.0.1"}, nil)

	clientSession, err := client.Connect(ctx, clientTransport, nil)
	require.NoError(t, err)

	t.Cleanup(func() {
		assert.NoError(t, clientSession.Close())

		// The server session ends once the client disconnects.
		_ = serverSession.Wait()
	})

	return clientSession
}

func callTool[T any](t *testing.T, cs *sdk.ClientSession, name string, args map[string]any) (T, *sdk.CallToolResult) {
	t.Helper()

	res, err := cs.CallTool(t.Context(), &sdk.CallToolParams{
		Name:      name,
		Arguments: args,
	})
	require.NoError(t, err)

	var out T
	if res.StructuredContent != nil {
		b, err := json.Marshal(res.StructuredContent)
		require.NoError(t, err)
		require.NoError(t, json.Unmarshal(b, &out))
	}

	return out, res
}

func textOf(t *testing.T, res *sdk.CallToolResult) string {
	t.Helper()

	require.NotEmpty(t, res.Content)

	text, ok := res.Content[0].(*sdk.TextContent)
	require.True(t, ok)

	return text.Text
}

func TestServer_ListTools(t *testing.T) {
	t.Parallel()

	cs := connect(t, mcp.NewServer("", testStore))

	res, err := cs.ListTools(t.Context(), nil)
	require.NoError(t, err)

	names := make([]string, 0, len(res.Tools))
	for _, tool := range res.Tools {
		names = append(names, tool.Name)
	}

	assert.ElementsMatch(t, []string{"resolve_rules", "list_rules", "get_rule"}, names)
}

func TestServer_ResolveRules(t *testing.T) {
	t.Parallel()

	cs := connect(t, mcp.NewServer("", testStore))

	tcs := map[string]struct {
		args        map[string]any
		suggestions map[string][]string
		want        []string
		available   []string
		unknown     []string
	}{
		"python file": {
			args:      map[string]any{"path": "src/app.py"},
			want:      []string{"general", "python"},
			available: []string{"migrations", "release"},
		},
		"other file": {
			args:      map[string]any{"path": "src/app.ts"},
			want:      []string{"general"},
			available: []string{"migrations", "release"},
		},
		"requested": {
			args:      map[string]any{"path": "src/app.ts", "requested": []string{"migrations", "missing"}},
			want:      []string{"general", "migrations"},
			available: []string{"release"},
			unknown:   []string{"missing"},
		},
		"requested typo": {
			args:        map[string]any{"path": "src/app.ts", "requested": []string{"relase"}},
			want:        []string{"general"},
			available:   []string{"migrations", "release"},
			unknown:     []string{"relase"},
			suggestions: map[string][]string{"relase": {"release"}},
		},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			out, res := callTool[mcp.ResolveRulesResult](t, cs, "resolve_rules", tc.args)
			require.False(t, res.IsError, textOf(t, res))

			got := make([]string, 0, len(out.Rules))
			for _, r := range out.Rules {
				got = append(got, r.ID)
				assert.NotEmpty(t, r.Body)
			}

			available := make([]string, 0, len(out.Available))
			for _, r := range out.Available {
				available = append(available, r.ID)
			}

			assert.Equal(t, tc.want, got)
			assert.Equal(t, tc.available, available)
			assert.Equal(t, tc.unknown, out.Unknown)
			assert.Equal(t, tc.suggestions, out.Suggestions)
			assert.NotEmpty(t, out.Message)
			assert.Contains(t, textOf(t, res), "## general (always)")
		})
	}
}

func TestServer_ResolveRules_MissingPath(t *testing.T) {
	t.Parallel()

	cs := connect(t, mcp.NewServer("", testStore))

	_, res := callTool[mcp.ResolveRulesResult](t, cs, "resolve_rules", map[string]any{"path": " "})
	assert.True(t, res.IsError)
	assert.Contains(t, textOf(t, res), mcp.ErrPathRequired.Error())
}

func TestServer_ListRules(t *testing.T) {
	t.Parallel()

	cs := connect(t, mcp.NewServer("", testStore))

	out, res := callTool[mcp.ListRulesResult](t, cs, "list_rules", map[string]any{})
	require.False(t, res.IsError)

	assert.Equal(t, 4, out.RuleCount)
	require.Len(t, out.Rules, 4)
	assert.Equal(t, "general", out.Rules[0].ID)
	assert.Equal(t, "python", out.Rules[2].ID)
	assert.Equal(t, "glob", out.Rules[2].Mode)
	assert.Equal(t, []string{"**/*.py"}, out.Rules[2].Globs)
}

func TestServer_GetRule(t *testing.T) {
	t.Parallel()

	cs := connect(t, mcp.NewServer("", testStore))

	t.Run("found", func(t *testing.T) {
		t.Parallel()

		out, res := callTool[mcp.GetRuleResult](t, cs, "get_rule", map[string]any{"id": "migrations"})
		require.False(t, res.IsError)

		assert.True(t, out.Found)
		require.NotNil(t, out.Rule)
		assert.Equal(t, "agent-requested", out.Rule.Mode)
		assert.Equal(t, "Write reversible migrations.", out.Rule.Body)
		assert.Contains(t, textOf(t, res), "Write reversible migrations.")
	})

	t.Run("not found", func(t *testing.T) {
		t.Parallel()

		out, res := callTool[mcp.GetRuleResult](t, cs, "get_rule", map[string]any{"id": "nope"})
		require.False(t, res.IsError)

		assert.False(t, out.Found)
		assert.Nil(t, out.Rule)
		assert.Contains(t, out.Message, "not found")
	})

	t.Run("suggestions", func(t *testing.T) {
		t.Parallel()

		out, res := callTool[mcp.GetRuleResult](t, cs, "get_rule", map[string]any{"id": "migr"})
		require.False(t, res.IsError)

		assert.False(t, out.Found)
		assert.Equal(t, []string{"migrations"}, out.Suggestions)
		assert.Contains(t, textOf(t, res), "Did you mean: migrations?")
	})

	t.Run("empty id", func(t *testing.T) {
		t.Parallel()

		_, res := callTool[mcp.GetRuleResult](t, cs, "get_rule", map[string]any{"id": ""})
		assert.True(t, res.IsError)
	})
}

func TestServer_ListRules_Preview(t *testing.T) {
	t.Parallel()

	body := strings.Repeat("é", 250)
	s := store.MustNew(
		rule.MustNew("long", rule.ModeManual, rule.WithBody("\n"+body+"\n")),
		rule.MustNew("short", rule.ModeManual, rule.WithBody("  Keep it short.\n")),
	)

	cs := connect(t, mcp.NewServer("", s))

	out, res := callTool[mcp.ListRulesResult](t, cs, "list_rules", map[string]any{})
	require.False(t, res.IsError)
	require.Len(t, out.Rules, 2)

	assert.Equal(t, strings.Repeat("é", 200)+"...", out.Rules[0].Preview)
	assert.Equal(t, "Keep it short.", out.Rules[1].Preview)
}

func TestServer_WatcherSource(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "general.mdc"),
		[]byte("---\nalwaysApply: true\n---\nBe nice.\n"), 0o600))

	w, err := store.NewWatcher(t.Context(), []string{dir}, store.WithDebounce(10*time.Millisecond))
	require.NoError(t, err)

	events := make(chan store.Event, 16)
	w.Subscribe(events)

	ctx, cancel := context.WithCancel(context.Background())

	var wg sync.WaitGroup
	wg.Go(func() {
		w.Run(ctx)
	})

	t.Cleanup(func() {
		cancel()
		assert.NoError(t, w.Close())
		wg.Wait()
	})

	cs := connect(t, mcp.NewServer("", w))

	resolveIDs := func() []string {
		out, res := callTool[mcp.ResolveRulesResult](t, cs, "resolve_rules", map[string]any{"path": "src/app.py"})
		require.False(t, res.IsError, textOf(t, res))

		ids := []string{}
		for _, r := range out.Rules {
			ids = append(ids, r.ID)
		}

		return ids
	}

	assert.Equal(t, []string{"general"}, resolveIDs())

	require.NoError(t, os.WriteFile(filepath.Join(dir, "python.mdc"),
		[]byte("---\nglobs: \"**/*.py\"\nalwaysApply: false\n---\nUse type hints.\n"), 0o600))

	timeout := time.After(5 * time.Second)

	for {
		select {
		case evt := <-events:
			reload, ok := evt.(store.EventReload)
			if !ok || reload.Store.Len() != 2 {
				continue
			}

			assert.Equal(t, []string{"general", "python"}, resolveIDs())

			return

		case <-timeout:
			require.FailNow(t, "timed out waiting for reload")
		}
	}
}
