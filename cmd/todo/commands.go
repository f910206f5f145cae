package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/ovaphlow/pitchfork/todo-client-go/internal/apiclient"
	"github.com/ovaphlow/pitchfork/todo-client-go/internal/auth"
	"github.com/ovaphlow/pitchfork/todo-client-go/internal/screen"
	todoentity "github.com/ovaphlow/pitchfork/todo-client-go/internal/todo/entity"
	userentity "github.com/ovaphlow/pitchfork/todo-client-go/internal/user/entity"
	"github.com/ovaphlow/pitchfork/todo-client-go/internal/validation"
)

type command struct {
	name      string
	args      string
	summary   string
	protected bool
	run       func(c *cli, ctx context.Context, args []string) error
}

var commands = []command{
	{"signup", "-name NAME -email EMAIL -password PASSWORD", "create an account and sign in", false, (*cli).signup},
	{"signin", "-email EMAIL -password PASSWORD", "sign in", false, (*cli).signin},
	{"logout", "", "sign out and forget the session", false, (*cli).logout},
	{"whoami", "", "show the signed-in user", false, (*cli).whoami},
	{"profile", "", "fetch the account from the server", true, (*cli).profile},
	{"profile-update", "-first-name F -last-name L [-email E] [-contact C] [-position P]", "update the account", true, (*cli).profileUpdate},
	{"change-password", "-current P -new P -confirm P", "change the password", true, (*cli).changePassword},
	{"list", "[-filter all|today|inprogress|completed] [-q TEXT]", "list tasks", true, (*cli).list},
	{"add", "-title T [-desc D] [-due DATE]", "add a task", true, (*cli).add},
	{"edit", "ID [-title T] [-desc D] [-due DATE] [-status S]", "change a task", true, (*cli).edit},
	{"done", "ID", "mark a task completed", true, (*cli).done},
	{"rm", "ID", "delete a task", true, (*cli).remove},
}

// usageError is a malformed command line.
type usageError struct{ msg string }

func (e usageError) Error() string { return e.msg }

func usage(fs *flag.FlagSet) {
	out := fs.Output()
	fmt.Fprintln(out, "usage: todo [flags] <command> [args]")
	fmt.Fprintln(out, "\nflags:")
	fs.PrintDefaults()
	printCommands(out)
}

func printCommands(w io.Writer) {
	fmt.Fprintln(w, "\ncommands:")
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, cmd := range commands {
		fmt.Fprintf(tw, "  %s\t%s\t%s\n", cmd.name, cmd.args, cmd.summary)
	}
	tw.Flush()
}

func (c *cli) dispatch(ctx context.Context, name string, args []string) int {
	var cmd *command
	for i := range commands {
		if commands[i].name == name {
			cmd = &commands[i]
		}
	}
	if cmd == nil {
		fmt.Fprintf(c.stderr, "unknown command %q\n", name)
		printCommands(c.stderr)
		return 2
	}

	if cmd.protected {
		if !c.session.IsAuthenticated() {
			fmt.Fprintln(c.stderr, "Not signed in. Run: todo signin -email EMAIL -password PASSWORD")
			return 1
		}
		c.nav.armed = true
	}

	err := cmd.run(c, ctx, args)
	if err == nil {
		return 0
	}
	c.logger.Debugw("command failed", "command", name, "err", err)

	var ue usageError
	switch {
	case errors.Is(err, flag.ErrHelp):
		return 2
	case errors.As(err, &ue):
		fmt.Fprintf(c.stderr, "%s\nusage: todo %s %s\n", ue.msg, cmd.name, cmd.args)
		return 2
	}
	if fe, ok := validation.FieldErrors(err); ok {
		printFieldErrors(c.stderr, fe)
		return 1
	}
	if errors.Is(err, apiclient.ErrUnauthorized) {
		// the navigator already told the user
		return 1
	}
	fmt.Fprintln(c.stderr, apiclient.Message(err))
	return 1
}

func printFieldErrors(w io.Writer, fe validation.Errors) {
	fields := make([]string, 0, len(fe))
	for f := range fe {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	for _, f := range fields {
		fmt.Fprintf(w, "%s: %s\n", f, fe[f])
	}
}

func (c *cli) flags(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(c.stderr)
	return fs
}

// parse parses fs and wraps flag errors so they map to a usage exit.
func parse(fs *flag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return err
		}
		return usageError{err.Error()}
	}
	return nil
}

// parseWithID accepts the task id before or after the flags.
func parseWithID(fs *flag.FlagSet, args []string) (int64, error) {
	var raw string
	if len(args) > 0 && !strings.HasPrefix(args[0], "-") {
		raw, args = args[0], args[1:]
	}
	if err := parse(fs, args); err != nil {
		return 0, err
	}
	if raw == "" {
		raw = fs.Arg(0)
	}
	if raw == "" {
		return 0, usageError{"missing task id"}
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, usageError{fmt.Sprintf("invalid task id %q", raw)}
	}
	return id, nil
}

// setFlags returns the names of the flags given on the command line.
func setFlags(fs *flag.FlagSet) map[string]bool {
	set := map[string]bool{}
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })
	return set
}

func (c *cli) signup(ctx context.Context, args []string) error {
	var req auth.SignupRequest
	fs := c.flags("signup")
	fs.StringVar(&req.Name, "name", "", "display name")
	fs.StringVar(&req.Email, "email", "", "email address")
	fs.StringVar(&req.Password, "password", "", "password")
	if err := parse(fs, args); err != nil {
		return err
	}
	ctrl := screen.NewSignup(c.auth, c.validate, c.app)
	if err := ctrl.Submit(ctx, req); err != nil {
		return err
	}
	u := c.session.User()
	fmt.Fprintf(c.stdout, "Signed up as %s <%s>\n", u.Name, u.Email)
	return nil
}

func (c *cli) signin(ctx context.Context, args []string) error {
	var req auth.SigninRequest
	fs := c.flags("signin")
	fs.StringVar(&req.Email, "email", "", "email address")
	fs.StringVar(&req.Password, "password", "", "password")
	if err := parse(fs, args); err != nil {
		return err
	}
	ctrl := screen.NewLogin(c.auth, c.validate, c.app)
	if err := ctrl.Submit(ctx, req); err != nil {
		return err
	}
	u := c.session.User()
	fmt.Fprintf(c.stdout, "Signed in as %s <%s>\n", u.Name, u.Email)
	return nil
}

func (c *cli) logout(ctx context.Context, args []string) error {
	if err := parse(c.flags("logout"), args); err != nil {
		return err
	}
	if err := c.auth.Logout(ctx); err != nil {
		return err
	}
	fmt.Fprintln(c.stdout, "Signed out")
	return nil
}

func (c *cli) whoami(_ context.Context, args []string) error {
	if err := parse(c.flags("whoami"), args); err != nil {
		return err
	}
	u := c.session.User()
	if u == nil {
		fmt.Fprintln(c.stdout, "Not signed in")
		return nil
	}
	printUser(c.stdout, u)
	fmt.Fprintf(c.stdout, "Session:\t%s\n", c.session.ID())
	return nil
}

func printUser(w io.Writer, u *userentity.User) {
	fmt.Fprintf(w, "Name:\t%s\nEmail:\t%s\nStatus:\t%s\nType:\t%s\n", u.Name, u.Email, u.Status, u.Type)
}

func (c *cli) profile(ctx context.Context, args []string) error {
	if err := parse(c.flags("profile"), args); err != nil {
		return err
	}
	ctrl := screen.NewProfile(c.users, c.validate)
	if err := ctrl.Load(ctx); err != nil {
		return err
	}
	u := ctrl.User()
	if u == nil {
		return errors.New("the server returned no profile")
	}
	printUser(c.stdout, u)
	return nil
}

func (c *cli) profileUpdate(ctx context.Context, args []string) error {
	var req userentity.UpdateProfileRequest
	var contact, position string
	fs := c.flags("profile-update")
	fs.StringVar(&req.FirstName, "first-name", "", "first name")
	fs.StringVar(&req.LastName, "last-name", "", "last name")
	fs.StringVar(&req.Email, "email", "", "email address, defaults to the current one")
	fs.StringVar(&contact, "contact", "", "contact number")
	fs.StringVar(&position, "position", "", "position")
	if err := parse(fs, args); err != nil {
		return err
	}
	set := setFlags(fs)
	if !set["email"] {
		if u := c.session.User(); u != nil {
			req.Email = u.Email
		}
	}
	if set["contact"] {
		req.ContactNumber = &contact
	}
	if set["position"] {
		req.Position = &position
	}

	ctrl := screen.NewProfile(c.users, c.validate)
	if err := ctrl.Save(ctx, req); err != nil {
		return err
	}
	fmt.Fprintln(c.stdout, ctrl.Form().Notice)
	return nil
}

func (c *cli) changePassword(ctx context.Context, args []string) error {
	var req userentity.ChangePasswordRequest
	fs := c.flags("change-password")
	fs.StringVar(&req.CurrentPassword, "current", "", "current password")
	fs.StringVar(&req.NewPassword, "new", "", "new password")
	fs.StringVar(&req.ConfirmPassword, "confirm", "", "new password again")
	if err := parse(fs, args); err != nil {
		return err
	}
	ctrl := screen.NewChangePassword(c.users, c.validate)
	if err := ctrl.Submit(ctx, req); err != nil {
		return err
	}
	fmt.Fprintln(c.stdout, ctrl.Form().Notice)
	return nil
}

func (c *cli) tasks() *screen.Tasks {
	return screen.NewTasks(c.todos, c.validate, c.now)
}

func (c *cli) list(ctx context.Context, args []string) error {
	var filter, search string
	fs := c.flags("list")
	fs.StringVar(&filter, "filter", string(screen.AllTasks), "all, today, inprogress or completed")
	fs.StringVar(&search, "q", "", "only titles containing this text")
	if err := parse(fs, args); err != nil {
		return err
	}
	cat := screen.Category(filter)
	switch cat {
	case screen.AllTasks, screen.Today, screen.InProgress, screen.Completed:
	default:
		return usageError{fmt.Sprintf("unknown filter %q", filter)}
	}

	ctrl := c.tasks()
	if err := ctrl.Load(ctx); err != nil {
		return err
	}
	rows := ctrl.View(cat, search)
	if len(rows) == 0 {
		fmt.Fprintln(c.stdout, "No tasks found")
	} else {
		tw := tabwriter.NewWriter(c.stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tSTATUS\tTITLE\tDUE")
		for _, r := range rows {
			fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", r.ID, r.Status, r.Title, r.Due)
		}
		tw.Flush()
	}
	s := ctrl.Summary()
	fmt.Fprintf(c.stdout, "%d of %d tasks completed\n", s.Completed, s.Total)
	return nil
}

func (c *cli) add(ctx context.Context, args []string) error {
	var req todoentity.CreateRequest
	var desc, due string
	fs := c.flags("add")
	fs.StringVar(&req.Title, "title", "", "title")
	fs.StringVar(&desc, "desc", "", "description")
	fs.StringVar(&due, "due", "", "due date, e.g. 2026-05-01T17:00 or RFC 3339")
	if err := parse(fs, args); err != nil {
		return err
	}
	if desc != "" {
		req.Description = &desc
	}
	if due != "" {
		req.DueDate = &due
	}
	ctrl := c.tasks()
	if err := ctrl.Add(ctx, req); err != nil {
		return err
	}
	fmt.Fprintln(c.stdout, ctrl.Form().Notice)
	return nil
}

func (c *cli) edit(ctx context.Context, args []string) error {
	var title, desc, due, status string
	fs := c.flags("edit")
	fs.StringVar(&title, "title", "", "title")
	fs.StringVar(&desc, "desc", "", "description")
	fs.StringVar(&due, "due", "", "due date")
	fs.StringVar(&status, "status", "", "pending, inprogress, completed or cancelled")
	id, err := parseWithID(fs, args)
	if err != nil {
		return err
	}

	var req todoentity.UpdateRequest
	set := setFlags(fs)
	if set["title"] {
		req.Title = &title
	}
	if set["desc"] {
		req.Description = &desc
	}
	if set["due"] {
		req.DueDate = &due
	}
	if set["status"] {
		s := todoentity.Status(status)
		req.Status = &s
	}
	if len(set) == 0 {
		return usageError{"nothing to change"}
	}

	ctrl := c.tasks()
	if err := ctrl.Edit(ctx, id, req); err != nil {
		return err
	}
	fmt.Fprintln(c.stdout, ctrl.Form().Notice)
	return nil
}

func (c *cli) done(ctx context.Context, args []string) error {
	id, err := parseWithID(c.flags("done"), args)
	if err != nil {
		return err
	}
	ctrl := c.tasks()
	if err := ctrl.SetStatus(ctx, id, todoentity.StatusCompleted); err != nil {
		return err
	}
	fmt.Fprintln(c.stdout, ctrl.Form().Notice)
	return nil
}

func (c *cli) remove(ctx context.Context, args []string) error {
	id, err := parseWithID(c.flags("rm"), args)
	if err != nil {
		return err
	}
	ctrl := c.tasks()
	if err := ctrl.Delete(ctx, id); err != nil {
		return err
	}
	fmt.Fprintln(c.stdout, ctrl.Form().Notice)
	return nil
}
