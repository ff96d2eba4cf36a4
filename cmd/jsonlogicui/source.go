package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/madpin/jsonlogicui/internal/evalbridge"
	"github.com/madpin/jsonlogicui/internal/library"
	"github.com/madpin/jsonlogicui/internal/render"
	"github.com/madpin/jsonlogicui/pkg/rule"
)

// openLibrary opens the rule library at the configured path, creating
// the directory and schema on first use. Callers own Close.
func (a *app) openLibrary(ctx context.Context) (library.Library, error) {
	if dir := filepath.Dir(a.cfg.DBPath); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, rule.NewErrorf(rule.ErrCodeStore, "create library dir %s", dir).WithCause(err)
		}
	}
	lib, err := library.NewLibSQLLibrary("file:" + a.cfg.DBPath)
	if err != nil {
		return nil, err
	}
	if err := lib.Migrate(ctx); err != nil {
		lib.Close()
		return nil, err
	}
	return lib, nil
}

// readSource resolves rule source text. Precedence: --name fetches from
// the library, a file argument reads that file, otherwise stdin. The
// second return is a display title, set only for library rules.
func (a *app) readSource(ctx context.Context, cmd *cobra.Command, args []string, name string) (string, string, error) {
	if name != "" {
		lib, err := a.openLibrary(ctx)
		if err != nil {
			return "", "", err
		}
		defer lib.Close()
		sr, err := lib.GetByName(ctx, name)
		if err != nil {
			return "", "", err
		}
		return sr.Source, sr.Name, nil
	}
	if len(args) == 1 && args[0] != "-" {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return "", "", err
		}
		return string(data), "", nil
	}
	data, err := io.ReadAll(cmd.InOrStdin())
	if err != nil {
		return "", "", fmt.Errorf("read stdin: %w", err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return "", "", rule.NewError(rule.ErrCodeValidation,
			"no rule given: pass a file, pipe JSON to stdin, or use --name")
	}
	return string(data), "", nil
}

// loadRule is readSource plus the JSONC parse.
func (a *app) loadRule(ctx context.Context, cmd *cobra.Command, args []string, name string) (*rule.Rule, string, error) {
	source, title, err := a.readSource(ctx, cmd, args, name)
	if err != nil {
		return nil, "", err
	}
	r, err := rule.ParseString(source)
	if err != nil {
		return nil, "", err
	}
	return r, title, nil
}

// loadData parses a data record from the --data / --data-file pair.
// Returns nil when neither is set.
func loadData(inline, file string) (map[string]any, error) {
	if inline != "" && file != "" {
		return nil, rule.NewError(rule.ErrCodeValidation, "use either --data or --data-file, not both")
	}
	raw := []byte(inline)
	if file != "" {
		var err error
		raw, err = os.ReadFile(file)
		if err != nil {
			return nil, err
		}
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, nil
	}
	var data map[string]any
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, rule.NewError(rule.ErrCodeParse, "data must be a JSON object").WithCause(err)
	}
	return data, nil
}

// readJSONFile reads a file that must hold valid JSON and returns it
// verbatim.
func readJSONFile(path string) (json.RawMessage, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if !json.Valid(bytes.TrimSpace(raw)) {
		return nil, rule.NewErrorf(rule.ErrCodeParse, "%s is not valid JSON", path)
	}
	return raw, nil
}

// engine returns the evaluation engine, letting a per-command --engine
// flag override the configured one.
func (a *app) engine(override string) (evalbridge.Engine, error) {
	name := a.cfg.Engine
	if override != "" {
		name = override
	}
	return evalbridge.New(name)
}

// renderOut runs one registered format and writes the document to the
// command's stdout.
func renderOut(ctx context.Context, cmd *cobra.Command, format string, req render.Request) error {
	rd, err := render.Default().Get(format)
	if err != nil {
		return err
	}
	res, err := rd.Render(ctx, req)
	if err != nil {
		return err
	}
	_, err = cmd.OutOrStdout().Write(res.Content)
	return err
}

// orientationFlag maps the --horizontal bool onto the render vocabulary.
func orientationFlag(horizontal bool) string {
	if horizontal {
		return "horizontal"
	}
	return "vertical"
}
