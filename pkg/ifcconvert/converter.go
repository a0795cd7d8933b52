// Package ifcconvert drives the IfcOpenShell IfcConvert executable to
// tessellate IFC files into binary glTF.
package ifcconvert

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"regexp"
	"strconv"
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/mattn/go-shellwords"
)

var (
	// ErrNotInstalled is returned when the converter binary cannot be found
	ErrNotInstalled = errors.New("IfcConvert not found")
	// ErrTooOld is returned when the converter is older than the configured minimum
	ErrTooOld = errors.New("IfcConvert version too old")
)

// DefaultBinary is looked up in PATH when no binary is configured
const DefaultBinary = "IfcConvert"

// Naming selects how IfcConvert names the glTF nodes of elements
type Naming string

const (
	NamingGUID   Naming = "guid"
	NamingStepID Naming = "stepid"
)

// Options configure a Converter
type Options struct {
	Binary          string
	MinVersion      string // empty disables the check
	Threads         int    // 0 lets IfcConvert decide
	DisableBooleans bool
	Naming          Naming
	ExtraArgs       string // shell words appended before the file names
	WorkDir         string
}

// Converter runs IfcConvert
type Converter struct {
	opts  Options
	extra []string
}

// New validates the options and returns a converter
func New(opts Options) (*Converter, error) {
	if opts.Binary == "" {
		opts.Binary = DefaultBinary
	}
	if opts.Naming == "" {
		opts.Naming = NamingGUID
	}
	if opts.Naming != NamingGUID && opts.Naming != NamingStepID {
		return nil, fmt.Errorf("unknown node naming %q", opts.Naming)
	}

	extra, err := shellwords.Parse(opts.ExtraArgs)
	if err != nil {
		return nil, fmt.Errorf("invalid extra arguments %q: %w", opts.ExtraArgs, err)
	}
	if opts.MinVersion != "" {
		if _, err := semver.NewVersion(opts.MinVersion); err != nil {
			return nil, fmt.Errorf("invalid minimum version %q: %w", opts.MinVersion, err)
		}
	}
	return &Converter{opts: opts, extra: extra}, nil
}

// Naming returns the node naming the converter asks for
func (c *Converter) Naming() Naming {
	return c.opts.Naming
}

// LookPath resolves the converter binary
func (c *Converter) LookPath() (string, error) {
	path, err := exec.LookPath(c.opts.Binary)
	if err != nil {
		return "", fmt.Errorf("%w: %s is not in PATH. Please install IfcOpenShell from https://ifcopenshell.org/", ErrNotInstalled, c.opts.Binary)
	}
	return path, nil
}

var versionPattern = regexp.MustCompile(`(\d+\.\d+(\.\d+)?)`)

// Version asks the converter for its version
func (c *Converter) Version(ctx context.Context) (*semver.Version, error) {
	bin, err := c.LookPath()
	if err != nil {
		return nil, err
	}
	out, err := exec.CommandContext(ctx, bin, "--version").CombinedOutput()
	if err != nil {
		return nil, fmt.Errorf("failed to query IfcConvert version: %w", err)
	}
	return parseVersion(string(out))
}

func parseVersion(out string) (*semver.Version, error) {
	m := versionPattern.FindString(out)
	if m == "" {
		return nil, fmt.Errorf("no version in %q", strings.TrimSpace(out))
	}
	return semver.NewVersion(m)
}

// CheckVersion verifies the converter against Options.MinVersion
func (c *Converter) CheckVersion(ctx context.Context) error {
	if c.opts.MinVersion == "" {
		_, err := c.LookPath()
		return err
	}
	v, err := c.Version(ctx)
	if err != nil {
		return err
	}
	minVersion := semver.MustParse(c.opts.MinVersion)
	if v.LessThan(minVersion) {
		return fmt.Errorf("%w: found %s, need %s", ErrTooOld, v, minVersion)
	}
	return nil
}

// Args returns the command line for converting input to output
func (c *Converter) Args(input, output string) []string {
	args := []string{"-y"}
	switch c.opts.Naming {
	case NamingGUID:
		args = append(args, "--use-element-guids")
	case NamingStepID:
		args = append(args, "--use-element-step-ids")
	}
	if c.opts.Threads > 0 {
		args = append(args, "-j", strconv.Itoa(c.opts.Threads))
	}
	if c.opts.DisableBooleans {
		args = append(args, "--disable-boolean-result")
	}
	args = append(args, c.extra...)
	return append(args, input, output)
}

// Convert tessellates input into output (a .glb path). progress, if not nil,
// receives the converter's completion in [0,1]. Cancelling ctx kills the process.
func (c *Converter) Convert(ctx context.Context, input, output string, progress func(float64)) error {
	bin, err := c.LookPath()
	if err != nil {
		return err
	}

	cmd := exec.CommandContext(ctx, bin, c.Args(input, output)...)
	cmd.Dir = c.opts.WorkDir

	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("failed to attach to IfcConvert: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start IfcConvert: %w", err)
	}
	tail := scanProgress(stdout, progress)
	err = cmd.Wait()

	if ctx.Err() != nil {
		return ctx.Err()
	}
	if err != nil {
		var errMsg strings.Builder
		errMsg.WriteString(fmt.Sprintf("failed to convert %s: %v", input, err))
		if stderr.Len() > 0 {
			errMsg.WriteString("\nstderr: ")
			errMsg.WriteString(strings.TrimSpace(stderr.String()))
		}
		if tail != "" {
			errMsg.WriteString("\nstdout: ")
			errMsg.WriteString(tail)
		}
		return errors.New(errMsg.String())
	}
	return nil
}

var (
	percentPattern = regexp.MustCompile(`(\d{1,3})\s*%`)
	barPattern     = regexp.MustCompile(`\[(#*)([ .]*)\]`)
)

// scanProgress reads the converter's output, reporting progress lines and
// returning the last non-progress line for error messages
func scanProgress(r io.Reader, progress func(float64)) string {
	scanner := bufio.NewScanner(r)
	scanner.Split(splitLines)
	var last string
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if f, ok := parseProgress(line); ok {
			if progress != nil {
				progress(f)
			}
			continue
		}
		last = line
	}
	if err := scanner.Err(); err != nil {
		slog.Warn("stopped reading IfcConvert output", "error", err)
		// keep the pipe drained so the converter never blocks on write
		if _, err := io.Copy(io.Discard, r); err != nil {
			slog.Debug("draining IfcConvert output failed", "error", err)
		}
	}
	return last
}

func parseProgress(line string) (float64, bool) {
	if m := percentPattern.FindStringSubmatch(line); m != nil {
		p, _ := strconv.Atoi(m[1])
		if p > 100 {
			p = 100
		}
		return float64(p) / 100, true
	}
	if m := barPattern.FindStringSubmatch(line); m != nil {
		done, todo := len(m[1]), len(m[2])
		if done+todo == 0 {
			return 0, false
		}
		return float64(done) / float64(done+todo), true
	}
	return 0, false
}

// splitLines splits at \n and at the \r IfcConvert uses to redraw its bar
func splitLines(data []byte, atEOF bool) (advance int, token []byte, err error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}
	if i := bytes.IndexAny(data, "\r\n"); i >= 0 {
		return i + 1, data[:i], nil
	}
	if atEOF {
		return len(data), data, nil
	}
	return 0, nil, nil
}
