// Binary render_page renders an HTML page template and fills
// in integrity attributes, bold and hide helpers.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/tools/clientcmd"
	"k8s.io/client-go/util/homedir"

	"github.com/byte4ever/taghelpers/integrity"
	"github.com/byte4ever/taghelpers/integrity/configmap"
	"github.com/byte4ever/taghelpers/manifest"
	"github.com/byte4ever/taghelpers/taghelper"
	"github.com/byte4ever/taghelpers/templating"
)

type arrayFlags []string

func (af *arrayFlags) String() string {
	return ""
}

func (af *arrayFlags) Set(value string) error {
	*af = append(*af, value)
	return nil
}

type config struct {
	stampInfoFiles  arrayFlags
	variables       arrayFlags
	imports         arrayFlags
	output          string
	tpl             string
	startTag        string
	endTag          string
	escapeVars      bool
	webRoot         string
	includeMinified bool
	manifestPath    string
	cacheConfigMap  string
	cacheNamespace  string
	kubeconfig      string
}

func parseFlags() config {
	var cfg config

	flag.Var(
		&cfg.stampInfoFiles,
		"stamp_info_file",
		"Stamp info file path (repeatable)",
	)

	flag.Var(
		&cfg.variables,
		"variable",
		"Variable in NAME=VALUE format (repeatable)",
	)

	flag.Var(
		&cfg.imports,
		"imports",
		"Partial in NAME=filename format (repeatable)",
	)

	flag.StringVar(
		&cfg.output, "output", "",
		"Output file path (stdout if empty)",
	)

	flag.StringVar(
		&cfg.tpl, "template", "",
		"Page template path (stdin if empty)",
	)

	flag.StringVar(
		&cfg.startTag, "start_tag", "{{",
		"Start tag for template placeholders",
	)

	flag.StringVar(
		&cfg.endTag, "end_tag", "}}",
		"End tag for template placeholders",
	)

	flag.BoolVar(
		&cfg.escapeVars, "escape_vars", false,
		"HTML-escape stamp and variable values",
	)

	flag.StringVar(
		&cfg.webRoot, "web_root", "wwwroot",
		"Directory asset paths are resolved against",
	)

	flag.BoolVar(
		&cfg.includeMinified, "include_minified", false,
		"Also hash the .min counterpart of each asset",
	)

	flag.StringVar(
		&cfg.manifestPath, "manifest", "",
		"Integrity manifest (.json or .yaml) to seed the cache",
	)

	flag.StringVar(
		&cfg.cacheConfigMap, "cache_configmap", "",
		"ConfigMap shared by replicas as integrity cache",
	)

	flag.StringVar(
		&cfg.cacheNamespace, "cache_namespace", "default",
		"Namespace of the cache ConfigMap",
	)

	flag.StringVar(
		&cfg.kubeconfig, "kubeconfig", "",
		"Path to kubernetes config file",
	)

	flag.Parse()

	return cfg
}

func run() error {
	const errCtx = "render_page"

	cfg := parseFlags()
	ctx := context.Background()

	store, err := newStore(cfg)
	if err != nil {
		return fmt.Errorf("%s: %w", errCtx, err)
	}

	if cfg.manifestPath != "" {
		if err := seed(ctx, store, cfg.manifestPath); err != nil {
			return fmt.Errorf("%s: %w", errCtx, err)
		}
	}

	re, err := integrity.NewResolver(integrity.Config{
		WebRoot:         cfg.webRoot,
		Store:           store,
		IncludeVariants: cfg.includeMinified,
	})
	if err != nil {
		return fmt.Errorf("%s: %w", errCtx, err)
	}

	en := templating.Engine{
		StartTag:       cfg.startTag,
		EndTag:         cfg.endTag,
		StampInfoFiles: cfg.stampInfoFiles,
		EscapeVars:     cfg.escapeVars,
		Rewriter: taghelper.NewRewriter(
			taghelper.Bold{},
			taghelper.HideParent{},
			taghelper.Integrity{Resolver: re},
		),
	}

	if err := en.Render(
		ctx, cfg.tpl, cfg.output, cfg.variables, cfg.imports,
	); err != nil {
		return fmt.Errorf("%s: %w", errCtx, err)
	}

	return nil
}

// newStore returns an in-process store, tiered in front of
// a ConfigMap when one is configured.
func newStore(cfg config) (integrity.Store, error) {
	const errCtx = "creating store"

	near := integrity.NewMemoryStore()
	if cfg.cacheConfigMap == "" {
		return near, nil
	}

	kubeconfig := cfg.kubeconfig
	if kubeconfig == "" {
		if _, ok := os.LookupEnv(
			"KUBERNETES_SERVICE_HOST",
		); !ok {
			kubeconfig = filepath.Join(
				homedir.HomeDir(),
				".kube", "config",
			)
		}
	}

	restConfig, err := clientcmd.BuildConfigFromFlags(
		"", kubeconfig,
	)
	if err != nil {
		return nil, fmt.Errorf(
			"%s: building kubeconfig: %w", errCtx, err,
		)
	}

	clientset, err := kubernetes.NewForConfig(restConfig)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", errCtx, err)
	}

	far, err := configmap.NewStore(configmap.Config{
		Client:    clientset,
		Namespace: cfg.cacheNamespace,
		Name:      cfg.cacheConfigMap,
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", errCtx, err)
	}

	return integrity.Tiered{Near: near, Far: far}, nil
}

func seed(
	ctx context.Context,
	store integrity.Store,
	path string,
) error {
	const errCtx = "seeding cache"

	m, err := manifest.ReadFile(path)
	if err != nil {
		return fmt.Errorf("%s: %w", errCtx, err)
	}

	n, err := manifest.Seed(ctx, store, integrity.DefaultKeyPrefix, m)
	if err != nil {
		return fmt.Errorf("%s: %w", errCtx, err)
	}

	slog.Info("seeded integrity cache", "entries", n, "manifest", path)

	return nil
}

func main() {
	if err := run(); err != nil {
		slog.Error(err.Error())
		os.Exit(1)
	}
}
