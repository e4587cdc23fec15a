package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/term"

	"github.com/dvcrn/activity-dashboard/internal/apiclient"
	"github.com/dvcrn/activity-dashboard/internal/app"
	"github.com/dvcrn/activity-dashboard/internal/auth"
	"github.com/dvcrn/activity-dashboard/internal/config"
	"github.com/dvcrn/activity-dashboard/internal/credentials"
	"github.com/dvcrn/activity-dashboard/internal/dashboard"
	"github.com/dvcrn/activity-dashboard/internal/search"
)

var (
	readPasswordFunc = term.ReadPassword // mockable

	errHelp = errors.New("help provided")
)

// locations the commands act from, so an expired session behaves like it
// does on the matching dashboard page.
const (
	entitiesLocation  = "/creacion-entidades"
	dashboardLocation = "/dashboard"
	registryLocation  = "/registro-personas"
)

type commandLine struct {
	cfg    *config.Config
	store  credentials.Store
	logger zerolog.Logger
	in     io.Reader
	out    io.Writer
	listen func(addr string, handler http.Handler) error
}

func (cli *commandLine) printUsage() {
	fmt.Fprintln(cli.out, "Usage:")
	fmt.Fprintln(cli.out, "  login -username USERNAME               - log in, the password is prompted next")
	fmt.Fprintln(cli.out, "  logout                                 - remove stored credentials")
	fmt.Fprintln(cli.out, "  status                                 - show stored credentials")
	fmt.Fprintln(cli.out, "  list -kind KIND | -all                 - list reference entities")
	fmt.Fprintln(cli.out, "  create -kind KIND -name NAME [-facultad ID]")
	fmt.Fprintln(cli.out, "  delete -kind KIND -id ID")
	fmt.Fprintln(cli.out, "  search -entity ENTITY                  - search as you type, one input per stdin line")
	fmt.Fprintln(cli.out, "  person -nombre ... -escuela ID         - register a person")
	fmt.Fprintln(cli.out, "  activity -name NAME -indicador ID      - create an activity")
	fmt.Fprintln(cli.out, "  participate -persona ID -actividad ID -sede ID -fecha YYYY-MM-DD")
	fmt.Fprintln(cli.out, "  stats -view VIEW [key=value ...]       - views: "+joinViews())
	fmt.Fprintln(cli.out, "  detail -id ID                          - activity detail")
	fmt.Fprintln(cli.out, "  serve                                  - run the HTTP server")
}

func joinViews() string {
	views := dashboard.Views()
	out := make([]string, 0, len(views))
	for _, v := range views {
		out = append(out, string(v))
	}
	return strings.Join(out, ", ")
}

// navigator tells the user to log in again instead of redirecting.
func (cli *commandLine) navigator() apiclient.Navigator {
	return apiclient.NavigatorFunc(func(_ context.Context, location string) {
		cli.logger.Warn().Str("location", location).Msg("Session expired, run login again")
	})
}

func (cli *commandLine) app() (*app.App, error) {
	return app.New(cli.cfg, cli.store, cli.navigator(), cli.logger)
}

func (cli *commandLine) newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(cli.out)
	return fs
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	switch args[1] {
	case "login":
		return cli.login(args[2:])
	case "logout":
		return cli.logout()
	case "status":
		return cli.status()
	case "list":
		return cli.list(args[2:])
	case "create":
		return cli.create(args[2:])
	case "delete":
		return cli.delete(args[2:])
	case "search":
		return cli.search(args[2:])
	case "person":
		return cli.person(args[2:])
	case "activity":
		return cli.activity(args[2:])
	case "participate":
		return cli.participate(args[2:])
	case "stats":
		return cli.stats(args[2:])
	case "detail":
		return cli.detail(args[2:])
	case "serve":
		return cli.serve()
	default:
		cli.printUsage()
		return errHelp
	}
}

func (cli *commandLine) login(args []string) error {
	loginCmd := cli.newFlagSet("login")
	username := loginCmd.String("username", "", "The backend username. The password will be prompted next.")
	if err := loginCmd.Parse(args); err != nil {
		return err
	}
	if *username == "" {
		loginCmd.Usage()
		return errHelp
	}

	fmt.Fprint(cli.out, "Enter password:")
	pwd, err := readPasswordFunc(int(os.Stdin.Fd()))
	fmt.Fprintln(cli.out)
	if err != nil {
		return err
	}
	if len(pwd) == 0 {
		loginCmd.Usage()
		return errHelp
	}

	a, err := cli.app()
	if err != nil {
		return err
	}
	ctx := apiclient.WithLocation(context.Background(), cli.cfg.Auth.LoginPath)
	if err := a.Client.Login(ctx, *username, string(pwd)); err != nil {
		return err
	}
	fmt.Fprintln(cli.out, "Logged in")
	return nil
}

func (cli *commandLine) logout() error {
	a, err := cli.app()
	if err != nil {
		return err
	}
	if err := a.Client.Logout(); err != nil {
		return err
	}
	fmt.Fprintln(cli.out, "Logged out")
	return nil
}

func (cli *commandLine) status() error {
	creds, err := cli.store.Get()
	if err != nil {
		return err
	}
	if creds.Empty() {
		fmt.Fprintln(cli.out, "Not logged in")
		return nil
	}

	now := time.Now()
	for _, tok := range []struct{ name, value string }{
		{"access", creds.Bearer()},
		{"refresh", creds.RefreshToken},
	} {
		if tok.value == "" {
			fmt.Fprintf(cli.out, "%-8s none\n", tok.name)
			continue
		}
		line := fmt.Sprintf("%-8s %s", tok.name, auth.Preview(tok.value))
		if exp, ok := auth.Expiry(tok.value); ok {
			state := "valid"
			if auth.Expired(tok.value, now) {
				state = "expired"
			}
			line += fmt.Sprintf(" %s until %s", state, exp.Local().Format(time.RFC3339))
		}
		fmt.Fprintln(cli.out, line)
	}
	return nil
}

func (cli *commandLine) list(args []string) error {
	listCmd := cli.newFlagSet("list")
	kind := listCmd.String("kind", "", "Entity kind: "+strings.Join(dashboard.Kinds(), ", "))
	all := listCmd.Bool("all", false, "List every kind")
	if err := listCmd.Parse(args); err != nil {
		return err
	}
	if *kind == "" && !*all {
		listCmd.Usage()
		return errHelp
	}

	a, err := cli.app()
	if err != nil {
		return err
	}
	ctx := apiclient.WithLocation(context.Background(), entitiesLocation)

	if *all {
		return cli.print(a.Service.LoadAll(ctx))
	}
	recs, err := a.Service.ListEntities(ctx, *kind)
	if err != nil {
		return err
	}
	return cli.print(recs)
}

func (cli *commandLine) create(args []string) error {
	createCmd := cli.newFlagSet("create")
	kind := createCmd.String("kind", "", "Entity kind: "+strings.Join(dashboard.Kinds(), ", "))
	name := createCmd.String("name", "", "Entity name")
	faculty := createCmd.Int("facultad", 0, "Faculty id, required for escuela")
	if err := createCmd.Parse(args); err != nil {
		return err
	}
	if *kind == "" || *name == "" {
		createCmd.Usage()
		return errHelp
	}

	a, err := cli.app()
	if err != nil {
		return err
	}
	ctx := apiclient.WithLocation(context.Background(), entitiesLocation)
	rec, err := a.Service.CreateEntity(ctx, *kind, *name, *faculty)
	if err != nil {
		return err
	}
	return cli.print(rec)
}

func (cli *commandLine) delete(args []string) error {
	deleteCmd := cli.newFlagSet("delete")
	kind := deleteCmd.String("kind", "", "Entity kind")
	id := deleteCmd.String("id", "", "Entity id")
	if err := deleteCmd.Parse(args); err != nil {
		return err
	}
	if *kind == "" || *id == "" {
		deleteCmd.Usage()
		return errHelp
	}

	a, err := cli.app()
	if err != nil {
		return err
	}
	ctx := apiclient.WithLocation(context.Background(), entitiesLocation)
	if err := a.Service.DeleteEntity(ctx, *kind, *id); err != nil {
		return err
	}
	fmt.Fprintf(cli.out, "Deleted %s %s\n", *kind, *id)
	return nil
}

// search feeds each stdin line to a remote selector as if it had been typed
// into the field and prints the candidates of every completed search.
func (cli *commandLine) search(args []string) error {
	searchCmd := cli.newFlagSet("search")
	entity := searchCmd.String("entity", "", "Entity to search, e.g. persona, escuela, actividad")
	if err := searchCmd.Parse(args); err != nil {
		return err
	}
	if *entity == "" {
		searchCmd.Usage()
		return errHelp
	}

	a, err := cli.app()
	if err != nil {
		return err
	}

	opts := search.Options{
		Entity:    *entity,
		Delay:     cli.cfg.Search.Debounce,
		MinLength: cli.cfg.Search.MinLength,
		Logger:    cli.logger,
		OnResults: func(candidates []search.Candidate, err error) {
			if err != nil {
				fmt.Fprintf(cli.out, "error: %v\n", err)
				return
			}
			for _, c := range candidates {
				fmt.Fprintf(cli.out, "%s\t%s\n", c.ID, c.Name)
			}
		},
	}
	if *entity == "persona" {
		opts.MinLength = dashboard.PersonSearchMinLength
		opts.Clean = search.CleanPersonTerm
	}

	ctx := apiclient.WithLocation(context.Background(), registryLocation)
	sel := search.NewRemoteSelect(ctx, a.Client, opts)
	defer sel.Close()

	scanner := bufio.NewScanner(cli.in)
	for scanner.Scan() {
		sel.Input(scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return err
	}
	sel.Flush()
	return nil
}

func (cli *commandLine) person(args []string) error {
	personCmd := cli.newFlagSet("person")
	var p dashboard.NewPerson
	personCmd.StringVar(&p.Name, "nombre", "", "Full name")
	personCmd.StringVar(&p.DocumentType, "tipo-documento", "", "Document type")
	personCmd.StringVar(&p.DocumentNumber, "numero-documento", "", "Document number")
	personCmd.StringVar(&p.Email, "correo", "", "Email")
	personCmd.StringVar(&p.Estate, "estamento", "", "Estate, e.g. estudiante")
	personCmd.IntVar(&p.SchoolID, "escuela", 0, "School id")
	personCmd.IntVar(&p.Age, "edad", 0, "Age")
	personCmd.StringVar(&p.Sex, "sexo", "", "Sex")
	personCmd.StringVar(&p.Phone, "telefono", "", "Phone")
	if err := personCmd.Parse(args); err != nil {
		return err
	}

	a, err := cli.app()
	if err != nil {
		return err
	}
	ctx := apiclient.WithLocation(context.Background(), registryLocation)
	rec, err := a.Service.CreatePerson(ctx, p)
	if err != nil {
		return err
	}
	return cli.print(rec)
}

func (cli *commandLine) activity(args []string) error {
	activityCmd := cli.newFlagSet("activity")
	name := activityCmd.String("name", "", "Activity name")
	indicator := activityCmd.Int("indicador", 0, "Indicator id")
	if err := activityCmd.Parse(args); err != nil {
		return err
	}
	if *name == "" {
		activityCmd.Usage()
		return errHelp
	}

	a, err := cli.app()
	if err != nil {
		return err
	}
	ctx := apiclient.WithLocation(context.Background(), registryLocation)
	rec, err := a.Service.CreateActivity(ctx, *name, *indicator)
	if err != nil {
		return err
	}
	return cli.print(rec)
}

func (cli *commandLine) participate(args []string) error {
	participateCmd := cli.newFlagSet("participate")
	var p dashboard.Participation
	participateCmd.IntVar(&p.PersonID, "persona", 0, "Person id")
	participateCmd.IntVar(&p.ActivityID, "actividad", 0, "Activity id")
	participateCmd.IntVar(&p.CampusID, "sede", 0, "Campus id")
	date := participateCmd.String("fecha", time.Now().Format(time.DateOnly), "Date, YYYY-MM-DD")
	if err := participateCmd.Parse(args); err != nil {
		return err
	}

	d, err := time.Parse(time.DateOnly, *date)
	if err != nil {
		return fmt.Errorf("invalid -fecha %q: %w", *date, err)
	}
	p.Date = d

	a, err := cli.app()
	if err != nil {
		return err
	}
	ctx := apiclient.WithLocation(context.Background(), registryLocation)
	rec, err := a.Service.RegisterParticipation(ctx, p)
	if err != nil {
		return err
	}
	return cli.print(rec)
}

func (cli *commandLine) stats(args []string) error {
	statsCmd := cli.newFlagSet("stats")
	view := statsCmd.String("view", "general", "Stats view: "+joinViews())
	if err := statsCmd.Parse(args); err != nil {
		return err
	}

	query := url.Values{}
	for _, kv := range statsCmd.Args() {
		k, v, ok := strings.Cut(kv, "=")
		if !ok || k == "" {
			return fmt.Errorf("invalid filter %q, expected key=value", kv)
		}
		query.Add(k, v)
	}

	a, err := cli.app()
	if err != nil {
		return err
	}
	ctx := apiclient.WithLocation(context.Background(), dashboardLocation)
	raw, err := a.Service.Stats(ctx, dashboard.View(*view), query)
	if err != nil {
		return err
	}
	return cli.print(raw)
}

func (cli *commandLine) detail(args []string) error {
	detailCmd := cli.newFlagSet("detail")
	id := detailCmd.String("id", "", "Activity id")
	if err := detailCmd.Parse(args); err != nil {
		return err
	}
	if *id == "" {
		detailCmd.Usage()
		return errHelp
	}

	a, err := cli.app()
	if err != nil {
		return err
	}
	ctx := apiclient.WithLocation(context.Background(), dashboardLocation)
	raw, err := a.Service.ActivityDetail(ctx, *id)
	if err != nil {
		return err
	}
	return cli.print(raw)
}

func (cli *commandLine) serve() error {
	srv, err := app.NewServer(cli.cfg, cli.store, cli.logger)
	if err != nil {
		return err
	}

	addr := cli.cfg.HTTP.Addr()
	cli.logger.Info().Str("addr", addr).Msg("Starting server")
	return cli.listen(addr, srv)
}

func (cli *commandLine) print(v any) error {
	if raw, ok := v.(json.RawMessage); ok {
		if len(raw) == 0 {
			raw = json.RawMessage("null")
		}
		var buf any
		if err := json.Unmarshal(raw, &buf); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
		v = buf
	}

	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(cli.out, string(out))
	return err
}
