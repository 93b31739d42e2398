// Package render turns decoded commit snapshots into node-link diagrams.
//
// The input is the raw document form produced by the codec (plain maps,
// slices, and primitives with type tags intact), so diagrams can be drawn
// for any commit, including ones whose record types are no longer declared.
//
//	dot, err := render.ToDOT(doc, render.Options{Detailed: true})
//	svg, err := render.RenderSVG(dot)
package render

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/PainterQubits/paramdb/pkg/errors"
)

// Options configures diagram rendering.
type Options struct {
	// Detailed includes leaf values and update timestamps in node labels.
	// When false, only type tags and child names are shown.
	Detailed bool
}

// ToDOT converts a raw snapshot document to Graphviz DOT format. Every
// tagged object becomes a box; edges point from a node to its children and
// carry the field name, dict key, or list index.
func ToDOT(doc any, opts Options) (string, error) {
	var buf bytes.Buffer
	buf.WriteString("digraph params {\n")
	buf.WriteString("  rankdir=TB;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=14, margin=\"0.2,0.1\"];\n")
	buf.WriteString("  edge [fontsize=11];\n")
	buf.WriteString("\n")

	w := &dotWriter{buf: &buf, detailed: opts.Detailed}
	if _, err := w.walk(doc); err != nil {
		return "", err
	}

	buf.WriteString("}\n")
	return buf.String(), nil
}

type dotWriter struct {
	buf      *bytes.Buffer
	detailed bool
	next     int
}

// walk emits the node for v (a tagged object) and everything below it,
// returning the emitted node's DOT id.
func (w *dotWriter) walk(v any) (string, error) {
	obj, ok := v.(map[string]any)
	if !ok {
		return "", errors.New(errors.ErrCodeInvalidInput, "snapshot root is %T, expected a tagged object", v)
	}
	tag, _ := obj["__type"].(string)
	if tag == "" {
		return "", errors.New(errors.ErrCodeInvalidInput, "object has no type tag")
	}

	id := fmt.Sprintf("n%d", w.next)
	w.next++

	var leaves []string
	var children []edge
	switch tag {
	case "list":
		items, _ := obj["__items"].([]any)
		for i, item := range items {
			w.collect(fmt.Sprintf("[%d]", i), item, &leaves, &children)
		}
	case "dict":
		items, _ := obj["__items"].([]any)
		for _, raw := range items {
			pair, ok := raw.([]any)
			if !ok || len(pair) != 2 {
				continue
			}
			key, _ := pair[0].(string)
			w.collect(key, pair[1], &leaves, &children)
		}
	case "file":
		path, _ := obj["__path"].(string)
		format, _ := obj["__format"].(string)
		leaves = append(leaves, fmt.Sprintf("path: %s", path), fmt.Sprintf("format: %s", format))
	default:
		for _, key := range sortedFieldKeys(obj) {
			w.collect(key, obj[key], &leaves, &children)
		}
	}

	label := tag
	if w.detailed {
		if ts, ok := obj["__last_updated"].(string); ok {
			label += "\nupdated: " + ts
		}
		if len(leaves) > 0 {
			label += "\n" + strings.Join(leaves, "\n")
		}
	}
	fmt.Fprintf(w.buf, "  %s [label=%q];\n", id, label)

	for _, c := range children {
		childID, err := w.walk(c.value)
		if err != nil {
			return "", err
		}
		fmt.Fprintf(w.buf, "  %s -> %s [label=%q];\n", id, childID, c.name)
	}
	return id, nil
}

type edge struct {
	name  string
	value any
}

// collect sorts a named child into the leaf or subtree bucket. Tagged
// scalar wrappers (datetime, quantity) count as leaves.
func (w *dotWriter) collect(name string, v any, leaves *[]string, children *[]edge) {
	if obj, ok := v.(map[string]any); ok {
		tag, _ := obj["__type"].(string)
		switch tag {
		case "datetime":
			*leaves = append(*leaves, fmt.Sprintf("%s: %v", name, obj["__value"]))
		case "quantity":
			*leaves = append(*leaves, fmt.Sprintf("%s: %v %v", name, obj["__value"], obj["__unit"]))
		default:
			*children = append(*children, edge{name: name, value: v})
		}
		return
	}
	*leaves = append(*leaves, fmt.Sprintf("%s: %v", name, v))
}

func sortedFieldKeys(obj map[string]any) []string {
	keys := make([]string, 0, len(obj))
	for k := range obj {
		if !strings.HasPrefix(k, "__") {
			keys = append(keys, k)
		}
	}
	// Stable output keeps diagrams diffable across runs.
	sort.Strings(keys)
	return keys
}

// RenderSVG renders a DOT graph to SVG using Graphviz.
func RenderSVG(dot string) ([]byte, error) {
	ctx := context.Background()
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "init graphviz")
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "parse DOT")
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "render SVG")
	}
	return normalizeViewBox(buf.Bytes()), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox rewrites the top-level svg tag so the image scales
// cleanly when embedded.
func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	newSvg := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)

	return svgTagRe.ReplaceAll(svg, []byte(newSvg))
}
