// gen-diagrams renders the built-in example rules into docs/assets for
// README documentation. Run: go run ./cmd/gen-diagrams
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/madpin/jsonlogicui/internal/evalbridge"
	"github.com/madpin/jsonlogicui/internal/library"
	"github.com/madpin/jsonlogicui/internal/render"
)

func main() {
	ctx := context.Background()
	reg := render.Default()
	engine, err := evalbridge.New(evalbridge.DefaultEngine)
	if err != nil {
		fmt.Fprintf(os.Stderr, "engine error: %v\n", err)
		os.Exit(1)
	}

	outDir := filepath.Join("docs", "assets")
	files := 0

	for _, ex := range library.Examples() {
		r, err := ex.Rule()
		if err != nil {
			fmt.Fprintf(os.Stderr, "parse %s: %v\n", ex.Name, err)
			os.Exit(1)
		}
		req := render.Request{Rule: r, Title: ex.Name}
		if data := sampleData(ex); data != nil {
			req.Data = data
			req.Evaluator = engine
		}

		for _, info := range reg.List() {
			rd, err := reg.Get(info.Name)
			if err != nil {
				fmt.Fprintf(os.Stderr, "format %s: %v\n", info.Name, err)
				os.Exit(1)
			}
			res, err := rd.Render(ctx, req)
			if err != nil {
				fmt.Fprintf(os.Stderr, "render %s as %s: %v\n", ex.Name, info.Name, err)
				os.Exit(1)
			}
			dir := filepath.Join(outDir, info.Name)
			os.MkdirAll(dir, 0o755)
			path := filepath.Join(dir, ex.Name+res.Ext)
			os.WriteFile(path, res.Content, 0o644)
			files++
		}
	}
	fmt.Printf("wrote %d diagram(s) under %s\n\n", files, outDir)

	// README blocks from the first example.
	showcase := library.Examples()[0]
	r, _ := showcase.Rule()
	req := render.Request{Rule: r, Title: showcase.Name}
	if data := sampleData(showcase); data != nil {
		req.Data = data
		req.Evaluator = engine
	}

	tree, err := mustFormat(reg, "tree").Render(ctx, req)
	if err != nil {
		fmt.Fprintf(os.Stderr, "render tree: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("=== Tree ===")
	fmt.Println(string(tree.Content))

	mermaid, err := mustFormat(reg, "mermaid").Render(ctx, req)
	if err != nil {
		fmt.Fprintf(os.Stderr, "render mermaid: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("=== Mermaid ===")
	fmt.Println(string(mermaid.Content))

	fenced := "```mermaid\n" + string(mermaid.Content) + "```\n"
	os.WriteFile(filepath.Join(outDir, "readme-mermaid.md"), []byte(fenced), 0o644)
}

func mustFormat(reg *render.Registry, name string) render.Renderer {
	rd, err := reg.Get(name)
	if err != nil {
		fmt.Fprintf(os.Stderr, "format %s: %v\n", name, err)
		os.Exit(1)
	}
	return rd
}

func sampleData(ex *library.StoredRule) map[string]any {
	if len(ex.SampleData) == 0 {
		return nil
	}
	var data map[string]any
	if err := json.Unmarshal(ex.SampleData, &data); err != nil {
		return nil
	}
	return data
}
