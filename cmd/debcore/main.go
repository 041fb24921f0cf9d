package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/alecthomas/kong"
	"golang.org/x/sync/errgroup"

	"github.com/debcore/debcore/auth"
	"github.com/debcore/debcore/cache"
	"github.com/debcore/debcore/depgraph"
	"github.com/debcore/debcore/fetcher/download"
	"github.com/debcore/debcore/installer"
	depotmetrics "github.com/debcore/debcore/metrics"
	"github.com/debcore/debcore/relation"
	"github.com/debcore/debcore/resolver"
	"github.com/debcore/debcore/scheduler"
	"github.com/debcore/debcore/sources"
	"github.com/debcore/debcore/storage"
	"github.com/debcore/debcore/version"
)

// Globals carries the flags every subcommand inherits, embedding one
// small struct into every command struct's Run argument rather than
// threading flags by hand.
type Globals struct {
	Verbose           bool   `help:"Enable debug logging" short:"v"`
	SourcesList       string `help:"Path to the repository sources list" default:"/etc/debcore/sources.list" env:"DEBCORE_SOURCES_LIST"`
	ListsDir          string `help:"Directory holding fetched index files" default:"/var/lib/debcore/lists" env:"DEBCORE_LISTS_DIR"`
	StatusFile        string `help:"Path to the dpkg status file" default:"/var/lib/dpkg/status" env:"DEBCORE_STATUS_FILE"`
	CredentialFile    string `help:"Path to a <host> <user> <password> credential file for private repositories" env:"DEBCORE_CREDENTIAL_FILE"`
	MetricsListenAddr string `help:"Address for the Prometheus metrics endpoint" default:":9090" env:"DEBCORE_METRICS_LISTEN_ADDR"`

	// S3 mirror flags let update push every freshly fetched Release/
	// Packages file into a shared object-store mirror alongside the
	// local lists directory, so other machines' fetchers can dial the
	// mirror directly instead of repeating the request against the
	// upstream archive.
	S3MirrorBucket          string `help:"Bucket to mirror fetched index files into (disabled if empty)" env:"DEBCORE_S3_MIRROR_BUCKET"`
	S3MirrorPrefix          string `help:"Key prefix within the mirror bucket" default:"debcore/" env:"DEBCORE_S3_MIRROR_PREFIX"`
	S3MirrorRegion          string `help:"Mirror bucket's region" env:"DEBCORE_S3_MIRROR_REGION"`
	S3MirrorEndpoint        string `help:"Custom S3-compatible endpoint for the mirror" env:"DEBCORE_S3_MIRROR_ENDPOINT"`
	S3MirrorAccessKeyID     string `help:"Mirror access key ID" env:"DEBCORE_S3_MIRROR_ACCESS_KEY_ID"`
	S3MirrorSecretAccessKey string `help:"Mirror secret access key" env:"DEBCORE_S3_MIRROR_SECRET_ACCESS_KEY"`
	S3MirrorForcePathStyle  bool   `help:"Force path-style S3 requests (needed for most non-AWS endpoints)"`
}

// openMirror builds the optional shared index mirror, or nil if no
// bucket was configured.
func openMirror(ctx context.Context, g *Globals) (*storage.S3, error) {
	if g.S3MirrorBucket == "" {
		return nil, nil
	}
	return storage.NewS3(ctx, storage.S3Config{
		Bucket:          g.S3MirrorBucket,
		Prefix:          g.S3MirrorPrefix,
		Region:          g.S3MirrorRegion,
		Endpoint:        g.S3MirrorEndpoint,
		AccessKeyID:     g.S3MirrorAccessKeyID,
		SecretAccessKey: g.S3MirrorSecretAccessKey,
		ForcePathStyle:  g.S3MirrorForcePathStyle,
	})
}

// mirrorUpload pushes a single fetched file to the mirror under key,
// leaving the local lists directory as the source of truth: a mirror
// upload failure is logged, not fatal, since the local fetch already
// succeeded.
func mirrorUpload(ctx context.Context, mirror *storage.S3, localPath, key string) error {
	f, err := os.Open(localPath)
	if err != nil {
		return fmt.Errorf("mirror: opening %s: %w", localPath, err)
	}
	defer f.Close()

	w, err := mirror.Put(ctx, key)
	if err != nil {
		return fmt.Errorf("mirror: opening upload for %s: %w", key, err)
	}
	if _, err := io.Copy(w, f); err != nil {
		w.Close()
		return fmt.Errorf("mirror: uploading %s: %w", key, err)
	}
	return w.Close()
}

func (g *Globals) logger() *slog.Logger {
	opts := &slog.HandlerOptions{}
	if g.Verbose {
		opts.Level = slog.LevelDebug
	}
	return slog.New(slog.NewJSONHandler(os.Stderr, opts))
}

// CLI is the top-level kong command: one embedded Globals plus one
// struct field per subcommand.
type CLI struct {
	Globals

	Version VersionCmd `cmd:"" help:"Show version information"`
	Update  UpdateCmd  `cmd:"" help:"Refresh repository indexes"`
	Install InstallCmd `cmd:"" help:"Resolve and (optionally) apply an install request"`
	Remove  RemoveCmd  `cmd:"" help:"Resolve and (optionally) apply a removal request"`
	Plan    PlanCmd    `cmd:"" help:"Print the install/remove plan without applying it"`
	Why     WhyCmd     `cmd:"" help:"Explain why a package would be installed"`
	Fetchd  FetchdCmd  `cmd:"" help:"Run the download manager daemon"`
}

type VersionCmd struct{}

func (cmd *VersionCmd) Run(globals *Globals) error {
	fmt.Println("debcore (package resolution core)")
	return nil
}

func main() {
	cli := CLI{}
	ctx := kong.Parse(&cli,
		kong.Name("debcore"),
		kong.Description("Resolve, schedule and fetch Debian-family package installs"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{Compact: true}),
	)
	err := ctx.Run(&cli.Globals)
	ctx.FatalIfErrorf(err)
}

// loadEntries loads the configured repository list, returning an empty
// set (not an error) when no sources list has been set up yet.
func loadEntries(globals *Globals) ([]sources.Entry, error) {
	if globals.SourcesList == "" {
		return nil, nil
	}
	if _, err := os.Stat(globals.SourcesList); os.IsNotExist(err) {
		return nil, nil
	}
	return sources.Load(globals.SourcesList)
}

// loadCache builds the Package Cache from whatever index files update has
// already fetched into ListsDir, plus the dpkg status file's installed
// set. A repository with no fetched Packages file yet is silently
// skipped; run update first.
func loadCache(globals *Globals, entries []sources.Entry) (*cache.Cache, error) {
	system, err := loadSystemState(globals.StatusFile)
	if err != nil {
		return nil, err
	}

	c := cache.New(system, nil)
	for i, e := range entries {
		repo := &cache.Repository{Index: i}
		base := listsPathFor(globals.ListsDir, e)
		for _, component := range e.Components {
			path := filepath.Join(base, component, "binary-amd64", "Packages")
			if err := addPackagesFile(c, repo, path); err != nil && !os.IsNotExist(err) {
				return nil, err
			}
		}
	}
	return c, nil
}

func listsPathFor(listsDir string, e sources.Entry) string {
	safe := strings.NewReplacer("/", "_", ":", "_").Replace(e.URI)
	return filepath.Join(listsDir, safe, e.Distribution)
}

func addPackagesFile(c *cache.Cache, repo *cache.Repository, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return cache.ScanStanzas(f, func(s *cache.Stanza) error {
		return c.AddBinaryStanza(s, repo)
	})
}

// loadSystemState parses the dpkg status file's "Status: install ok
// installed" stanzas into a SystemState, matching the Package Cache's
// source-of-truth for what's already on disk.
func loadSystemState(statusFile string) (*cache.SystemState, error) {
	system := cache.NewSystemState()
	f, err := os.Open(statusFile)
	if os.IsNotExist(err) {
		return system, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading dpkg status file: %w", err)
	}
	defer f.Close()

	installedRepo := &cache.Repository{}
	err = cache.ScanStanzas(f, func(s *cache.Stanza) error {
		status := strings.Fields(s.Get("Status"))
		if len(status) == 0 || status[len(status)-1] != "installed" {
			return nil
		}
		bv, err := cache.ParseBinaryVersion(s, installedRepo)
		if err != nil {
			return fmt.Errorf("parsing installed stanza for %s: %w", s.Get("Package"), err)
		}
		system.Installed[bv.Package] = bv
		if s.Get("Auto-Installed") == "1" {
			system.AutoInstalled[bv.Package] = true
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return system, nil
}

// resolveRequest turns a list of "pkgname" or "pkgname(>=1.2)"-style
// command-line arguments into depgraph roots alongside every already
// installed package, fills the graph, and resolves it against c.
func resolveRequest(cfg resolver.Config, c *cache.Cache, install bool, pkgArgs []string) (*depgraph.Builder, *resolver.Solution, error) {
	builder := depgraph.NewBuilder(c)

	var roots []depgraph.ElementID
	for _, v := range c.System.Installed {
		roots = append(roots, builder.InternVersion(v))
	}
	for _, arg := range pkgArgs {
		name, rel, err := parsePackageArg(arg)
		if err != nil {
			return nil, nil, err
		}
		roots = append(roots, builder.AddUserRelationExpression(name, install, rel, depgraph.RequestMust))
	}

	elements := builder.Fill(roots)
	sol, err := resolver.Resolve(cfg, builder, c, roots, elements)
	if err != nil {
		return nil, nil, err
	}
	return builder, sol, nil
}

// parsePackageArg splits "name" or "name(>=1.2.3)" into a package name
// and an optional version relation, matching apt-get's command-line
// package specification syntax.
func parsePackageArg(arg string) (string, *relation.Relation, error) {
	open := strings.IndexByte(arg, '(')
	if open < 0 {
		return arg, nil, nil
	}
	if !strings.HasSuffix(arg, ")") {
		return "", nil, fmt.Errorf("malformed package argument %q: missing closing ')'", arg)
	}
	name := strings.TrimSpace(arg[:open])
	rel, err := relation.ParseRelation(arg)
	if err != nil {
		return "", nil, fmt.Errorf("malformed version relation in %q: %w", arg, err)
	}
	return name, &rel, nil
}

// transitionsFromSolution compares a Solution's chosen install set
// against the system's currently installed versions, producing the
// Transitions the Scheduler needs.
func transitionsFromSolution(system *cache.SystemState, sol *resolver.Solution) []scheduler.Transition {
	installed := resolver.AutoRemove(sol)

	seen := make(map[string]bool)
	var out []scheduler.Transition
	for pkg, to := range installed {
		seen[pkg] = true
		from := system.Installed[pkg]
		if from != nil && to != nil && from.Version.String() == to.Version.String() && from.Architecture == to.Architecture {
			continue
		}
		out = append(out, scheduler.Transition{Package: pkg, From: from, To: to, Reinstreq: system.IsReinstreq(pkg)})
	}
	for pkg, from := range system.Installed {
		if seen[pkg] {
			continue
		}
		out = append(out, scheduler.Transition{Package: pkg, From: from, To: nil, Reinstreq: system.IsReinstreq(pkg)})
	}
	return out
}

// buildMetrics wires up the OpenTelemetry/Prometheus metrics endpoint the
// same way every debcore subcommand does, falling back to a disconnected
// Metrics value if initialization fails: a metrics outage must never
// block a package operation.
func buildMetrics(log *slog.Logger, addr string) depotmetrics.Metrics {
	m, err := depotmetrics.New()
	if err != nil {
		log.Warn("failed to initialize metrics, continuing without them", slog.String("error", err.Error()))
		return depotmetrics.Metrics{}
	}
	go func() {
		if err := depotmetrics.ListenAndServe(addr); err != nil {
			log.Error("metrics server exited", slog.String("addr", addr), slog.String("error", err.Error()))
		}
	}()
	return m
}

func defaultResolverConfig(log *slog.Logger, m depotmetrics.Metrics) resolver.Config {
	return resolver.Config{
		MaxSolutionCount: 1000,
		QualityBar:       1000, // debcore::resolver::quality-bar default
		Logger:           log,
		OnIteration: func() {
			m.IncrementResolverIterations(context.Background(), 1)
		},
	}
}

func defaultSchedulerConfig(m depotmetrics.Metrics) scheduler.Config {
	return scheduler.Config{
		OnActionGroups: func(n int) {
			m.IncrementActionGroups(context.Background(), int64(n))
		},
	}
}

func buildDownloadManager(log *slog.Logger, globals *Globals, m depotmetrics.Metrics) (*download.Manager, error) {
	creds, err := auth.LoadCredentialStore(globals.CredentialFile)
	if err != nil {
		return nil, err
	}

	httpsMethod := download.NewHTTPMethod("https", nil)
	httpsMethod.Credentials = creds
	httpMethod := download.NewHTTPMethod("http", nil)
	httpMethod.Credentials = creds

	mgr := download.NewManager(log, 4)
	mgr.Register(httpMethod)
	mgr.Register(httpsMethod)
	mgr.Register(download.FileMethod{})
	mgr.OnDownload(func(uri string, bytes int64) {
		m.IncrementFetch(context.Background(), schemeOf(uri), bytes)
	})
	mgr.OnPerformerLifecycle(
		func() { m.PerformerStarted(context.Background()) },
		func() { m.PerformerFinished(context.Background()) },
	)
	return mgr, nil
}

func schemeOf(uri string) string {
	if i := strings.Index(uri, "://"); i >= 0 {
		return uri[:i]
	}
	return ""
}

// FetchdCmd runs the Unix-socket download manager daemon that the
// fetcher/download.Client wire protocol talks to; update and the install
// path could dial it directly too, but update currently fetches inline
// for simplicity (see UpdateCmd.Run).
type FetchdCmd struct {
	SocketPath string `help:"Unix socket path the download manager listens on" default:"/run/debcore/download.sock" env:"DEBCORE_DOWNLOAD_SOCKET"`
}

func (cmd *FetchdCmd) Run(globals *Globals) error {
	log := globals.logger()
	m := buildMetrics(log, globals.MetricsListenAddr)

	mgr, err := buildDownloadManager(log, globals, m)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(cmd.SocketPath), 0o755); err != nil {
		return fmt.Errorf("creating socket directory: %w", err)
	}
	log.Info("download manager listening", slog.String("socket", cmd.SocketPath))
	return mgr.Listen(context.Background(), cmd.SocketPath)
}

type UpdateCmd struct{}

func (cmd *UpdateCmd) Run(globals *Globals) error {
	log := globals.logger()
	entries, err := loadEntries(globals)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		log.Warn("no repositories configured", slog.String("sourcesList", globals.SourcesList))
		return nil
	}

	creds, err := auth.LoadCredentialStore(globals.CredentialFile)
	if err != nil {
		return err
	}
	method := download.NewHTTPMethod("https", nil)
	method.Credentials = creds

	ctx := context.Background()
	mirror, err := openMirror(ctx, globals)
	if err != nil {
		log.Warn("failed to open index mirror, continuing without it", slog.String("error", err.Error()))
		mirror = nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for _, e := range entries {
		e := e
		g.Go(func() error {
			if err := updateOneRepository(gctx, log, method, mirror, globals, e); err != nil {
				log.Error("failed to update repository", slog.String("uri", e.URI), slog.String("distribution", e.Distribution), slog.String("error", err.Error()))
			}
			return nil
		})
	}
	return g.Wait()
}

func updateOneRepository(ctx context.Context, log *slog.Logger, method *download.HTTPMethod, mirror *storage.S3, globals *Globals, e sources.Entry) error {
	base := listsPathFor(globals.ListsDir, e)
	if err := os.MkdirAll(base, 0o755); err != nil {
		return fmt.Errorf("creating lists directory: %w", err)
	}

	releaseKey := mirrorKeyFor(e, "Release")
	releasePath := filepath.Join(base, "Release")
	if _, err := method.Fetch(ctx, e.IndexURI("Release"), releasePath); err != nil {
		return fmt.Errorf("fetching Release: %w", err)
	}
	uploadToMirrorIfConfigured(ctx, log, mirror, releasePath, releaseKey)

	for _, component := range e.Components {
		relPath := fmt.Sprintf("%s/binary-amd64/Packages", component)
		dir := filepath.Join(base, component, "binary-amd64")
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating %s: %w", dir, err)
		}
		target := filepath.Join(dir, "Packages")
		if _, err := method.Fetch(ctx, e.IndexURI(relPath), target); err != nil {
			log.Warn("failed to fetch component index", slog.String("component", component), slog.String("error", err.Error()))
			continue
		}
		log.Info("fetched package index", slog.String("uri", e.URI), slog.String("component", component))
		uploadToMirrorIfConfigured(ctx, log, mirror, target, mirrorKeyFor(e, relPath))
	}
	return nil
}

func mirrorKeyFor(e sources.Entry, relPath string) string {
	safe := strings.NewReplacer("/", "_", ":", "_").Replace(e.URI)
	return filepath.Join(safe, e.Distribution, relPath)
}

func uploadToMirrorIfConfigured(ctx context.Context, log *slog.Logger, mirror *storage.S3, localPath, key string) {
	if mirror == nil {
		return
	}
	if err := mirrorUpload(ctx, mirror, localPath, key); err != nil {
		log.Warn("failed to upload to index mirror", slog.String("key", key), slog.String("error", err.Error()))
	}
}

type InstallCmd struct {
	Packages   []string `arg:"" help:"Package names (optionally \"name(>=version)\") to install"`
	Simulate   bool     `help:"Print the plan without applying it" short:"s"`
	HookScript string   `help:"Pre-install-packages hook script; its stdin receives the plan" env:"DEBCORE_HOOK_SCRIPT"`
}

func (cmd *InstallCmd) Run(globals *Globals) error {
	return runResolveAndSchedule(globals, cmd.Packages, true, cmd.Simulate, cmd.HookScript)
}

type RemoveCmd struct {
	Packages   []string `arg:"" help:"Package names to remove"`
	Simulate   bool     `help:"Print the plan without applying it" short:"s"`
	HookScript string   `help:"Pre-install-packages hook script; its stdin receives the plan" env:"DEBCORE_HOOK_SCRIPT"`
}

func (cmd *RemoveCmd) Run(globals *Globals) error {
	return runResolveAndSchedule(globals, cmd.Packages, false, cmd.Simulate, cmd.HookScript)
}

type PlanCmd struct {
	Packages []string `arg:"" help:"Package names to plan for installation"`
}

func (cmd *PlanCmd) Run(globals *Globals) error {
	return runResolveAndSchedule(globals, cmd.Packages, true, true, "")
}

type WhyCmd struct {
	Packages []string `arg:"" help:"Package names to resolve"`
	Target   string   `arg:"" help:"Package name to explain"`
}

func (cmd *WhyCmd) Run(globals *Globals) error {
	log := globals.logger()
	m := buildMetrics(log, globals.MetricsListenAddr)

	entries, err := loadEntries(globals)
	if err != nil {
		return err
	}
	c, err := loadCache(globals, entries)
	if err != nil {
		return err
	}

	_, sol, err := resolveRequest(defaultResolverConfig(log, m), c, true, cmd.Packages)
	if err != nil {
		return fmt.Errorf("resolving request: %w", err)
	}

	chain := sol.ReasonChain(cmd.Target)
	if len(chain) == 0 {
		fmt.Printf("%s is not part of the resolved set\n", cmd.Target)
		return nil
	}
	fmt.Println(chain.String())
	return nil
}

func runResolveAndSchedule(globals *Globals, packages []string, install bool, simulate bool, hookScript string) error {
	log := globals.logger()
	m := buildMetrics(log, globals.MetricsListenAddr)

	entries, err := loadEntries(globals)
	if err != nil {
		return err
	}
	c, err := loadCache(globals, entries)
	if err != nil {
		return err
	}

	_, sol, err := resolveRequest(defaultResolverConfig(log, m), c, install, packages)
	if err != nil {
		return fmt.Errorf("resolving request: %w", err)
	}

	transitions := transitionsFromSolution(c.System, sol)
	plan := scheduler.Schedule(defaultSchedulerConfig(m), transitions)

	printPlan(plan)

	if simulate {
		return nil
	}
	if hookScript == "" {
		log.Warn("no hook script configured; plan computed but not applied")
		return nil
	}
	return runHook(hookScript, plan)
}

func printPlan(plan scheduler.Plan) {
	for i, cs := range plan.Changesets {
		fmt.Printf("changeset %d:\n", i+1)
		for _, a := range cs.Actions {
			switch a.Type {
			case scheduler.Remove:
				fmt.Printf("  remove    %s\n", a.Package)
			case scheduler.Unpack:
				fmt.Printf("  unpack    %s %s\n", a.Package, versionString(a.Version))
			case scheduler.Configure:
				fmt.Printf("  configure %s %s\n", a.Package, versionString(a.Version))
			}
		}
	}
	if plan.Force.Depends || plan.Force.Breaks || plan.Force.RemoveReinstreq || plan.Force.RemoveEssential {
		fmt.Printf("force flags: depends=%v breaks=%v remove-reinstreq=%v remove-essential=%v\n",
			plan.Force.Depends, plan.Force.Breaks, plan.Force.RemoveReinstreq, plan.Force.RemoveEssential)
	}
}

func versionString(v *cache.BinaryVersion) string {
	if v == nil {
		return ""
	}
	return v.Version.String()
}

// runHook invokes hookScript once per changeset, writing the version 3
// stdin payload installer.WriteHookStdin produces and failing the whole
// run on the first non-zero exit: a pre-install-packages hook rejecting
// one changeset aborts every changeset after it.
func runHook(hookScript string, plan scheduler.Plan) error {
	for i, cs := range plan.Changesets {
		actions := installer.ActionsFromChangeset(cs)
		cmd := exec.Command(hookScript)
		stdin, err := cmd.StdinPipe()
		if err != nil {
			return fmt.Errorf("opening hook stdin pipe: %w", err)
		}
		cmd.Stdout = os.Stdout
		cmd.Stderr = os.Stderr
		if err := cmd.Start(); err != nil {
			return fmt.Errorf("starting hook %s: %w", hookScript, err)
		}
		writeErr := installer.WriteHookStdin(stdin, installer.HookV3, nil, nil, actions, compareVersionStrings)
		stdin.Close()
		if writeErr != nil {
			_ = cmd.Wait()
			return writeErr
		}
		if err := cmd.Wait(); err != nil {
			return fmt.Errorf("hook %s failed on changeset %d of %d: %w", hookScript, i+1, len(plan.Changesets), err)
		}
	}
	return nil
}

// compareVersionStrings adapts version.Compare to the plain-string
// signature the hook protocol's "<"/"="/">" marker needs; a malformed
// version string (which should never happen for anything this CLI
// itself produced) falls back to a lexical comparison rather than
// aborting the whole hook run over a cosmetic marker.
func compareVersionStrings(a, b string) int {
	va, errA := version.Parse(a)
	vb, errB := version.Parse(b)
	if errA != nil || errB != nil {
		return strings.Compare(a, b)
	}
	return version.Compare(va, vb)
}
