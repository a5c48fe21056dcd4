package interpret

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"testing/fstest"

	"github.com/traefik/yaegi/interp"
	"github.com/traefik/yaegi/stdlib"
	"go.uber.org/zap"
)

// facadeImportPath is the import the transform engine injects; the
// interpreter resolves it from the embedded facade source.
const facadeImportPath = "sorta/fuzzy"

// Executor runs transformed dialect programs in an embedded
// interpreter, so running a program needs no Go toolchain on the host.
// Interpreted code shares the process-wide runtime: mood, chaos, seed,
// and telemetry configured by the host apply to the program's draws.
//
// Execution is sandboxed: only an allowlisted slice of the standard
// library plus the dialect runtime can be imported. Filesystem,
// process, and network packages are rejected before evaluation.
type Executor struct {
	allowed map[string]bool
	log     *zap.Logger

	Stdout io.Writer
	Stderr io.Writer
}

func NewExecutor() *Executor {
	return &Executor{
		allowed: allowedImports(),
		log:     zap.NewNop(),
		Stdout:  os.Stdout,
		Stderr:  os.Stderr,
	}
}

func (e *Executor) SetLogger(log *zap.Logger) {
	if log != nil {
		e.log = log
	}
}

func allowedImports() map[string]bool {
	return map[string]bool{
		"bytes":           true,
		"encoding/base64": true,
		"encoding/json":   true,
		"errors":          true,
		"fmt":             true,
		"maps":            true,
		"math":            true,
		"path":            true,
		"regexp":          true,
		"slices":          true,
		"sort":            true,
		"strconv":         true,
		"strings":         true,
		"time":            true,
		"unicode":         true,
		"unicode/utf8":    true,

		facadeImportPath: true,
	}
}

// Run evaluates a transformed program and calls its main function.
// name is used in error messages. The call is abandoned when ctx
// expires; the interpreted goroutine cannot be forcibly stopped, so a
// timed-out program keeps its goroutine until it returns on its own.
func (e *Executor) Run(ctx context.Context, name string, src []byte) error {
	if err := e.validateImports(name, string(src)); err != nil {
		return err
	}

	fsys := fstest.MapFS{
		"gopath/src/" + facadeImportPath + "/fuzzy.go": &fstest.MapFile{
			Data: []byte(facadeSrc),
		},
	}
	i := interp.New(interp.Options{
		GoPath:               "gopath",
		SourcecodeFilesystem: fsys,
		Stdout:               e.Stdout,
		Stderr:               e.Stderr,
	})
	if err := i.Use(stdlib.Symbols); err != nil {
		return fmt.Errorf("load stdlib symbols: %w", err)
	}
	if err := i.Use(Symbols); err != nil {
		return fmt.Errorf("load runtime symbols: %w", err)
	}

	if _, err := i.Eval(string(src)); err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	entry, err := i.Eval("main.main")
	if err != nil {
		return fmt.Errorf("%s: no main function: %w", name, err)
	}
	mainFn, ok := entry.Interface().(func())
	if !ok {
		return fmt.Errorf("%s: main has the wrong signature", name)
	}

	e.log.Debug("running interpreted program", zap.String("name", name))

	done := make(chan error, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- fmt.Errorf("%s: panic: %v", name, r)
			}
		}()
		mainFn()
		done <- nil
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return fmt.Errorf("%s: interrupted: %w", name, ctx.Err())
	}
}

// validateImports scans import declarations and rejects anything
// outside the sandbox allowlist.
func (e *Executor) validateImports(name, code string) error {
	var forbidden []string
	inBlock := false
	for _, line := range strings.Split(code, "\n") {
		t := strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(t, "import ("):
			inBlock = true
			continue
		case inBlock && strings.HasPrefix(t, ")"):
			inBlock = false
			continue
		}

		var spec string
		switch {
		case inBlock:
			spec = t
		case strings.HasPrefix(t, "import "):
			spec = strings.TrimPrefix(t, "import ")
		default:
			continue
		}
		path := importPath(spec)
		if path == "" {
			continue
		}
		if !e.allowed[path] {
			forbidden = append(forbidden, path)
		}
	}
	if len(forbidden) > 0 {
		return fmt.Errorf("%s: imports not allowed in sandboxed programs: %s",
			name, strings.Join(forbidden, ", "))
	}
	return nil
}

// importPath extracts the quoted path from one import spec, tolerating
// aliases and comments.
func importPath(spec string) string {
	i := strings.IndexByte(spec, '"')
	if i < 0 {
		return ""
	}
	j := strings.IndexByte(spec[i+1:], '"')
	if j < 0 {
		return ""
	}
	return spec[i+1 : i+1+j]
}
