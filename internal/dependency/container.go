// Package dependency wires core tomekeeper services using go.uber.org/dig.
package dependency

import (
	"fmt"

	"go.uber.org/dig"
	"go.uber.org/zap"

	"github.com/crystaldolphin/tomekeeper/internal/agent"
	"github.com/crystaldolphin/tomekeeper/internal/character"
	"github.com/crystaldolphin/tomekeeper/internal/config"
	"github.com/crystaldolphin/tomekeeper/internal/providers"
	"github.com/crystaldolphin/tomekeeper/internal/schema"
	"github.com/crystaldolphin/tomekeeper/internal/session"
	"github.com/crystaldolphin/tomekeeper/internal/store"
	"github.com/crystaldolphin/tomekeeper/internal/tools"
)

// Container resolves core services on first use, so commands that never
// talk to a backend do not need an API key.
// Callers use the typed getter methods; they never need to import dig directly.
type Container struct {
	d *dig.Container
}

// New registers every constructor. Nothing is built until a getter asks.
func New(cfg *config.Config, logger *zap.Logger) (*Container, error) {
	d := dig.New()

	ctors := []any{
		func() *config.Config { return cfg },
		func() *zap.Logger { return logger },
		func() tools.Roller { return tools.RandRoller{} },
		newRegistry,
		newStore,
		newArchive,
		newProvider,
	}
	for _, ctor := range ctors {
		if err := d.Provide(ctor); err != nil {
			return nil, err
		}
	}
	return &Container{d: d}, nil
}

func resolve[T any](d *dig.Container) (T, error) {
	var out T
	err := d.Invoke(func(v T) { out = v })
	return out, err
}

func (c *Container) Config() *config.Config {
	cfg, _ := resolve[*config.Config](c.d)
	return cfg
}

func (c *Container) Logger() *zap.Logger {
	l, _ := resolve[*zap.Logger](c.d)
	return l
}

func (c *Container) Registry() (*tools.Registry, error)    { return resolve[*tools.Registry](c.d) }
func (c *Container) Store() (*store.YAMLStore, error)      { return resolve[*store.YAMLStore](c.d) }
func (c *Container) Archive() (*session.Manager, error)    { return resolve[*session.Manager](c.d) }
func (c *Container) Provider() (schema.LLMProvider, error) { return resolve[schema.LLMProvider](c.d) }

func newRegistry(logger *zap.Logger, roller tools.Roller) (*tools.Registry, error) {
	r := tools.NewRegistry(logger)
	if err := tools.RegisterBuiltins(r, roller); err != nil {
		return nil, err
	}
	return r, nil
}

func newStore(cfg *config.Config, logger *zap.Logger) (*store.YAMLStore, error) {
	return store.NewYAMLStore(cfg.CharactersPath(), cfg.Storage.MaxBackups, logger)
}

func newArchive(cfg *config.Config, logger *zap.Logger) (*session.Manager, error) {
	return session.NewManager(cfg.SessionsPath(), logger)
}

func newProvider(cfg *config.Config) (schema.LLMProvider, error) {
	p, err := providers.New(cfg.ProviderParams(""))
	if err != nil {
		return nil, fmt.Errorf("%w (edit %s)", err, config.ConfigPath())
	}
	return p, nil
}

// ---------------------------------------------------------------------------
// Sessions
// ---------------------------------------------------------------------------

// SessionParams are the per-conversation choices a command makes.
type SessionParams struct {
	Character   string // empty: no character bound
	Model       string // empty: agents.defaults.model
	Mode        string // empty: agents.defaults.mode
	AutoConfirm bool   // or agents.defaults.autoConfirm
	Confirm     tools.ConfirmFunc
	Resume      bool
	Progress    func(string)
}

// NewSession assembles an agent.Session bound to the named character.
func (c *Container) NewSession(p SessionParams) (*agent.Session, error) {
	cfg := c.Config()
	logger := c.Logger()

	registry, err := c.Registry()
	if err != nil {
		return nil, err
	}
	st, err := c.Store()
	if err != nil {
		return nil, err
	}
	archive, err := c.Archive()
	if err != nil {
		return nil, err
	}

	var provider schema.LLMProvider
	if p.Model != "" {
		provider, err = providers.New(cfg.ProviderParams(p.Model))
	} else {
		provider, err = c.Provider()
	}
	if err != nil {
		return nil, err
	}

	var subject *character.Character
	key := "default"
	if p.Character != "" {
		if subject, err = st.Load(p.Character); err != nil {
			return nil, err
		}
		key = store.Slug(subject.Name)
	}

	defaults := cfg.Agents.Defaults
	executor := tools.NewExecutor(registry, subject,
		tools.WithAutoConfirm(defaults.AutoConfirm || p.AutoConfirm),
		tools.WithConfirmFunc(p.Confirm),
		tools.WithLogger(logger),
	)

	mode := p.Mode
	if mode == "" {
		mode = defaults.Mode
	}
	opts := []agent.Option{
		agent.WithStore(st),
		agent.WithArchive(archive, key),
		agent.WithLogger(logger),
		agent.WithPrompt(agent.NewPromptBuilder(registry, agent.Mode(mode))),
		agent.WithProgress(p.Progress),
	}
	if p.Resume {
		if hist, ok := archive.Restore(key); ok {
			opts = append(opts, agent.WithHistory(hist))
		}
	}

	// The provider already carries the model; ChatOptions leave it empty.
	settings := schema.NewAgentSettings("", defaults.MaxToolIter, defaults.Temperature, defaults.MaxTokens, defaults.AutoSave)
	return agent.NewSession(provider, registry, executor, settings, opts...), nil
}
