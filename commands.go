package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// commandNode is one level of the command table: either a leaf of templates or a nested mapping
type commandNode struct {
	templates []string                // Ordered command templates, set on leaves
	children  map[string]*commandNode // Nested keys, set on mappings
	invalid   bool                    // Leaf of an unsupported shape
}

// CommandTable maps nested logical keys to device command templates. Read-only after load.
type CommandTable struct {
	root *commandNode
}

// loadCommandTable reads and parses the YAML command table file
func loadCommandTable(path string) (*CommandTable, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", ErrCommandTable, path, err)
	}
	return parseCommandTable(data)
}

// parseCommandTable builds a command table from YAML source whose root must be a mapping
func parseCommandTable(data []byte) (*CommandTable, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCommandTable, err)
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 || doc.Content[0].Kind != yaml.MappingNode {
		return nil, fmt.Errorf("%w: root must be a mapping", ErrCommandTable)
	}
	return &CommandTable{root: buildCommandNode(doc.Content[0])}, nil
}

// buildCommandNode converts a YAML node into a command node.
// Mapping keys are taken verbatim, so `true:` and `false:` keys become "true" and "false".
func buildCommandNode(n *yaml.Node) *commandNode {
	if n.Kind == yaml.AliasNode && n.Alias != nil {
		n = n.Alias
	}
	switch n.Kind {
	case yaml.MappingNode:
		node := &commandNode{children: make(map[string]*commandNode, len(n.Content)/2)}
		for i := 0; i+1 < len(n.Content); i += 2 {
			node.children[n.Content[i].Value] = buildCommandNode(n.Content[i+1])
		}
		return node
	case yaml.ScalarNode:
		if n.Tag == "!!null" {
			return &commandNode{invalid: true}
		}
		return &commandNode{templates: []string{n.Value}}
	case yaml.SequenceNode:
		node := &commandNode{templates: make([]string, 0, len(n.Content))}
		for _, item := range n.Content {
			if item.Kind != yaml.ScalarNode || item.Tag == "!!null" {
				return &commandNode{invalid: true}
			}
			node.templates = append(node.templates, item.Value)
		}
		return node
	default:
		return &commandNode{invalid: true}
	}
}

// Lookup resolves path to its command templates
func (t *CommandTable) Lookup(path []string) ([]string, error) {
	node := t.root
	for i, key := range path {
		if node == nil || node.children == nil {
			return nil, fmt.Errorf("%w: %s", ErrCommandNotFound, strings.Join(path[:i+1], "."))
		}
		next, ok := node.children[key]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrCommandNotFound, strings.Join(path[:i+1], "."))
		}
		node = next
	}
	if node == nil || node.invalid || node.children != nil || len(node.templates) == 0 {
		return nil, fmt.Errorf("%w: %s is not a command", ErrCommandNotFound, strings.Join(path, "."))
	}
	return node.templates, nil
}

// Has reports whether path resolves to a usable command
func (t *CommandTable) Has(path []string) bool {
	_, err := t.Lookup(path)
	return err == nil
}

// Dispatcher resolves logical command paths and runs them over a fresh device session
type Dispatcher struct {
	table     *CommandTable
	transport Transport
	markers   []string // Substrings that switch the rest of a sequence to no-wait mode
	metrics   *metrics
}

// newDispatcher creates a dispatcher over table and transport
func newDispatcher(table *CommandTable, transport Transport, subShellMarkers []string, m *metrics) *Dispatcher {
	if len(subShellMarkers) == 0 {
		subShellMarkers = []string{DefaultSubShellMarker}
	}
	return &Dispatcher{table: table, transport: transport, markers: subShellMarkers, metrics: m}
}

// Execute runs the command(s) at path and returns one output per template.
// Templates sent in no-wait mode contribute an empty output.
func (d *Dispatcher) Execute(ctx context.Context, path []string, stationMAC string) ([]string, error) {
	templates, err := d.table.Lookup(path)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, transportError("dispatch cancelled", err)
	}

	session, err := d.transport.Open(ctx)
	if err != nil {
		d.metrics.observeTransportError("open")
		return nil, err
	}
	defer func() {
		if cerr := session.Close(); cerr != nil {
			logger.Debug("Session close failed", zap.Error(cerr))
		}
	}()

	outputs := make([]string, 0, len(templates))
	noWait := false
	for _, tpl := range templates {
		cmd := tpl
		if stationMAC != "" {
			cmd = strings.ReplaceAll(cmd, StationPlaceholder, stationMAC)
		}
		if noWait {
			if err := session.SendNoWait(cmd); err != nil {
				d.metrics.observeTransportError("send")
				return nil, err
			}
			outputs = append(outputs, "")
			continue
		}
		out, err := session.Send(cmd)
		if err != nil {
			d.metrics.observeTransportError("send")
			return nil, err
		}
		outputs = append(outputs, out)
		if d.entersSubShell(cmd) {
			noWait = true
		}
	}

	logger.Debug("Command executed",
		zap.String("path", strings.Join(path, ".")),
		zap.Int("commands", len(templates)),
	)
	return outputs, nil
}

// ExecuteText runs the command(s) at path and joins their outputs with newlines
func (d *Dispatcher) ExecuteText(ctx context.Context, path []string, stationMAC string) (string, error) {
	outputs, err := d.Execute(ctx, path, stationMAC)
	if err != nil {
		return "", err
	}
	if len(outputs) == 1 {
		return outputs[0], nil
	}
	return strings.Join(outputs, "\n"), nil
}

// Has reports whether path resolves to a usable command
func (d *Dispatcher) Has(path []string) bool {
	return d.table.Has(path)
}

func (d *Dispatcher) entersSubShell(cmd string) bool {
	for _, m := range d.markers {
		if strings.Contains(cmd, m) {
			return true
		}
	}
	return false
}
