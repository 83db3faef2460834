package constraint

import (
	"fmt"
	"sort"
	"strings"
)

// Code accumulates the statements of one validation point. Lines are stored
// without a trailing newline; nesting is tracked with Open and Close.
type Code struct {
	lines   []string
	depth   int
	imports map[string]bool
}

// NewCode returns an empty code buffer.
func NewCode() *Code {
	return &Code{imports: make(map[string]bool)}
}

// Line appends one formatted statement at the current depth.
func (c *Code) Line(format string, args ...any) {
	line := format
	if len(args) > 0 {
		line = fmt.Sprintf(format, args...)
	}
	c.lines = append(c.lines, strings.Repeat("\t", c.depth)+line)
}

// Open appends "<header> {" and nests subsequent lines.
func (c *Code) Open(format string, args ...any) {
	c.Line(format+" {", args...)
	c.depth++
}

// Close ends the innermost block.
func (c *Code) Close() {
	if c.depth > 0 {
		c.depth--
	}
	c.Line("}")
}

// Import records a package the statements refer to.
func (c *Code) Import(path string) {
	c.imports[path] = true
}

// Lines returns the statements written so far.
func (c *Code) Lines() []string { return c.lines }

// Imports returns the recorded import paths, sorted.
func (c *Code) Imports() []string {
	out := make([]string, 0, len(c.imports))
	for path := range c.imports {
		out = append(out, path)
	}
	sort.Strings(out)
	return out
}

// Empty reports whether nothing has been written.
func (c *Code) Empty() bool { return len(c.lines) == 0 }

// String joins the lines with newlines.
func (c *Code) String() string {
	return strings.Join(c.lines, "\n")
}
