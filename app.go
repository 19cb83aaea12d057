package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"huecli/internal/discovery"
	"huecli/internal/lights"
	"huecli/internal/linker"
	"huecli/internal/logging"
	"huecli/internal/scenes"
	"huecli/internal/store"
)

type deviceLister interface {
	Devices(ctx context.Context) ([]lights.Device, error)
}

// App holds what one invocation needs. Settings come from flags (with
// environment fallbacks); collaborators that touch the network can be
// swapped out before the command runs.
type App struct {
	Stdout io.Writer
	Stderr io.Writer

	configPath string
	logLevel   string
	logFormat  string
	noColor    bool

	log   *logging.Logger
	store *store.Store

	finder  linker.Finder
	pairer  linker.Pairer
	connect func(address, user string) lights.Client
	catalog func(address, user string) (deviceLister, error)
}

func newApp(stdout, stderr io.Writer) *App {
	return &App{Stdout: stdout, Stderr: stderr}
}

// init runs once flags are parsed and fills in every collaborator that was
// not injected.
func (a *App) init() error {
	if a.configPath == "" {
		a.configPath = store.DefaultPath()
	}
	a.log = logging.New(logging.Config{
		Level:   a.logLevel,
		Format:  a.logFormat,
		NoColor: a.noColor,
		Output:  a.Stderr,
	}).WithRun()
	a.store = store.New(a.configPath, a.log)

	if a.finder == nil {
		a.finder = discovery.NewScanner(a.log)
	}
	if a.pairer == nil {
		a.pairer = linker.PairerFunc(func(ctx context.Context, address string) (string, error) {
			return lights.NewBridge(address, "", lights.WithLogger(a.log)).Register(ctx, linker.AppDescriptor)
		})
	}
	if a.connect == nil {
		a.connect = func(address, user string) lights.Client {
			return lights.NewBridge(address, user, lights.WithLogger(a.log))
		}
	}
	if a.catalog == nil {
		a.catalog = func(address, user string) (deviceLister, error) {
			return lights.NewCatalog(address, user, a.log)
		}
	}
	a.log.Debug("invocation configured", "config", a.configPath)
	return nil
}

// credentials reads the stored bridge address and user, failing with
// guidance when setup has not been completed.
func (a *App) credentials() (string, string, error) {
	cfg := a.store.Load()
	address, err := cfg.BridgeAddress()
	if err != nil {
		return "", "", err
	}
	user, err := cfg.Credential()
	if err != nil {
		return "", "", err
	}
	return address, user, nil
}

func (a *App) client() (lights.Client, error) {
	address, user, err := a.credentials()
	if err != nil {
		return nil, err
	}
	return a.connect(address, user), nil
}

func (a *App) linker() *linker.Linker {
	return linker.New(a.store, a.finder, a.pairer, a.log)
}

// --- Bridge ---

func (a *App) listBridges(ctx context.Context) error {
	bridges, err := a.linker().ListBridges(ctx)
	if err != nil {
		return err
	}
	for _, b := range bridges {
		fmt.Fprintln(a.Stdout, b.Address)
	}
	return nil
}

func (a *App) setupBridge(ctx context.Context, opts linker.SetupOptions) error {
	res, err := a.linker().Setup(ctx, a.store.Load(), opts)
	if res.Discovered {
		fmt.Fprintf(a.Stdout, "Hue bridge found at %s\n", res.Config.Bridge)
	}
	if err != nil {
		return err
	}

	switch res.Outcome {
	case linker.AlreadyLinked:
		fmt.Fprintf(a.Stderr, "Bridge already configured at %s\n", res.Config.Bridge)
	case linker.Linked:
		fmt.Fprintln(a.Stdout, "Linked bridge successfully")
	}
	return nil
}

// --- Lights ---

func (a *App) listLights(ctx context.Context, details bool) error {
	if details {
		return a.listDevices(ctx)
	}

	client, err := a.client()
	if err != nil {
		return err
	}
	all, err := lights.NewManager(client, a.log).List(ctx)
	if err != nil {
		return err
	}
	return lights.WriteLights(a.Stdout, all)
}

func (a *App) listDevices(ctx context.Context) error {
	address, user, err := a.credentials()
	if err != nil {
		return err
	}
	catalog, err := a.catalog(address, user)
	if err != nil {
		return err
	}
	devices, err := catalog.Devices(ctx)
	if err != nil {
		return err
	}
	return lights.WriteDevices(a.Stdout, devices)
}

func (a *App) setLight(ctx context.Context, id, rawState string) error {
	client, err := a.client()
	if err != nil {
		return err
	}
	state, err := lights.NewManager(client, a.log).Set(ctx, id, rawState)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.Stdout, "Setting light #%s to %s\n", id, state)
	return nil
}

func (a *App) switchLights(ctx context.Context, on bool) error {
	client, err := a.client()
	if err != nil {
		return err
	}
	return lights.NewManager(client, a.log).Switch(ctx, on)
}

// --- Scenes ---

func (a *App) resolver() (*scenes.Resolver, error) {
	client, err := a.client()
	if err != nil {
		return nil, err
	}
	return scenes.NewResolver(client, a.log), nil
}

func (a *App) listScenes(ctx context.Context, name string, max int) error {
	r, err := a.resolver()
	if err != nil {
		return err
	}
	return r.List(ctx, a.Stdout, name, max)
}

func (a *App) activateScene(ctx context.Context, name string) error {
	r, err := a.resolver()
	if err != nil {
		return err
	}
	_, err = r.Activate(ctx, name)
	return err
}

func (a *App) createScene(ctx context.Context, name string) error {
	r, err := a.resolver()
	if err != nil {
		return err
	}
	if _, err := r.Create(ctx, name); err != nil {
		return err
	}
	fmt.Fprintln(a.Stdout, "Created scene successfully")
	return nil
}

func envOr(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return fallback
}

