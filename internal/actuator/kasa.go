package actuator

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// DefaultKasaTimeout bounds a single plug command.
const DefaultKasaTimeout = 4 * time.Second

// runFunc executes a command and returns its stdout.
type runFunc func(ctx context.Context, name string, args ...string) ([]byte, error)

func execRun(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var b bytes.Buffer
	cmd.Stdout = &b
	if err := cmd.Run(); err != nil {
		return b.Bytes(), err
	}
	return b.Bytes(), nil
}

// KasaController shells out to the python-kasa CLI to switch TP-Link plugs.
type KasaController struct {
	kasaPath string
	timeout  time.Duration
	run      runFunc
}

// NewKasa checks that the kasa executable answers --version.
func NewKasa(kasaPath string, timeout time.Duration) (*KasaController, error) {
	if timeout <= 0 {
		timeout = DefaultKasaTimeout
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if _, err := execRun(ctx, kasaPath, "--version"); err != nil {
		return nil, fmt.Errorf("kasa: %q not usable: %w", kasaPath, err)
	}
	return &KasaController{kasaPath: kasaPath, timeout: timeout, run: execRun}, nil
}

// Plug returns a Switch bound to one plug address.
func (k *KasaController) Plug(host string) *KasaPlug {
	return &KasaPlug{ctl: k, host: host}
}

func (k *KasaController) control(ctx context.Context, host string, cmd Command) error {
	if cmd.String() == "" {
		return fmt.Errorf("kasa: empty command")
	}
	ctx, cancel := context.WithTimeout(ctx, k.timeout)
	defer cancel()

	out, err := k.run(ctx, k.kasaPath, "--host", host, "--type", "plug", cmd.String())
	if err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("kasa %s %s: timed out after %s: %w", host, cmd, k.timeout, err)
		}
		return fmt.Errorf("kasa %s %s: %w", host, cmd, err)
	}
	// the CLI exits 0 on some device errors and only reports them on stdout
	if stdout := string(out); strings.Contains(strings.ToLower(stdout), "error") {
		return fmt.Errorf("kasa %s %s: device reported an error: %s", host, cmd, strings.TrimSpace(stdout))
	}
	return nil
}

// KasaPlug is one smart plug.
type KasaPlug struct {
	ctl  *KasaController
	host string
}

var _ Switch = (*KasaPlug)(nil)

func (p *KasaPlug) Host() string { return p.host }

func (p *KasaPlug) TurnOn(ctx context.Context) error {
	return p.ctl.control(ctx, p.host, CommandOn)
}

func (p *KasaPlug) TurnOff(ctx context.Context) error {
	return p.ctl.control(ctx, p.host, CommandOff)
}
